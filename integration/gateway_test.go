package integration_test

import (
	"bytes"
	"encoding/json"
	"github.com/Alcereo/inventory-gateway/pkg/auth"
	"github.com/Alcereo/inventory-gateway/pkg/proxy"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"golang.org/x/net/publicsuffix"
	"io/ioutil"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"time"
)

var _ = Describe("In inventory gateway", func() {

	BeforeEach(func() {
		apiStub.ResetHits()
	})

	Context("login", func() {
		It("returns only token and user from the upstream answer", func() {
			resp, body := send("POST", gateway.URL+"/api/auth/login", "", JsonBody{
				"email":    "owner@shop.io",
				"password": "secret-pass",
			})
			Expect(resp.StatusCode).To(Equal(200))

			answer := unmarshalToMap(body)
			Expect(answer).To(HaveKeyWithValue("token", "upstream-token"))
			Expect(answer).To(HaveKey("user"))
			Expect(answer).NotTo(HaveKey("extra"))
		})

		It("rejects invalid email before contacting upstream", func() {
			resp, body := send("POST", gateway.URL+"/api/auth/login", "", JsonBody{
				"email":    "not-an-email",
				"password": "secret-pass",
			})
			Expect(resp.StatusCode).To(Equal(400))
			Expect(string(body)).To(MatchJSON(`{"message":"Invalid data provided.","errors":{"email":["Invalid email"]}}`))
			Expect(apiStub.Hits()).To(BeZero())
		})
	})

	Context("public paths", func() {
		It("register passes without token", func() {
			resp, body := send("POST", gateway.URL+"/api/auth/register", "", JsonBody{
				"email":    "new@shop.io",
				"password": "secret-pass",
			})
			Expect(resp.StatusCode).To(Equal(201))
			Expect(unmarshalToMap(body)).To(HaveKeyWithValue("email", "new@shop.io"))
		})

		It("health is outside the protected prefix", func() {
			resp, body := send("GET", gateway.URL+"/health", "", nil)
			Expect(resp.StatusCode).To(Equal(200))
			Expect(string(body)).To(MatchJSON(`{"status":"ok","service":"gateway"}`))
		})
	})

	Context("token verification", func() {
		It("blocks missing Authorization before upstream", func() {
			resp, body := send("GET", gateway.URL+"/api/items", "", nil)
			Expect(resp.StatusCode).To(Equal(401))
			Expect(unmarshalToMap(body)).To(HaveKeyWithValue("message", auth.TokenRequiredMessage))
			Expect(apiStub.Hits()).To(BeZero())
		})

		It("blocks expired token", func() {
			expired := issueToken(time.Now().Add(-2 * time.Hour))
			resp, body := send("GET", gateway.URL+"/api/items", expired, nil)
			Expect(resp.StatusCode).To(Equal(401))
			Expect(unmarshalToMap(body)).To(HaveKeyWithValue("message", auth.TokenInvalidMessage))
			Expect(apiStub.Hits()).To(BeZero())
		})

		It("blocks token signed with another secret", func() {
			resp, _ := send("GET", gateway.URL+"/api/sales", "eyJhbGciOiJIUzI1NiJ9.e30.c2lnbmF0dXJl", nil)
			Expect(resp.StatusCode).To(Equal(401))
			Expect(apiStub.Hits()).To(BeZero())
		})
	})

	Context("items", func() {
		It("lists items of the caller", func() {
			resp, body := send("GET", gateway.URL+"/api/items", issueToken(time.Now()), nil)
			Expect(resp.StatusCode).To(Equal(200))

			var items []map[string]interface{}
			Expect(json.Unmarshal(body, &items)).To(Succeed())
			Expect(items).To(HaveLen(1))
			Expect(items[0]).To(HaveKeyWithValue("name", "Mug"))
		})

		It("replaces spoofed x-user-id with the token subject", func() {
			request := buildRequest("POST", gateway.URL+"/api/items", issueToken(time.Now()), JsonBody{
				"name":              "Mug",
				"description":       "Ceramic",
				"purchasePrice":     "2.5",
				"sellingPrice":      5,
				"quantity":          "3",
				"lowStockThreshold": 1,
				"userId":            "intruder",
			})
			request.Header.Set("x-user-id", "intruder")

			resp, body := perform(buildClient(), request)
			Expect(resp.StatusCode).To(Equal(201), string(body))
			Expect(unmarshalToMap(body)).To(HaveKeyWithValue("id", "item-2"))
		})

		It("reports field errors without contacting upstream", func() {
			resp, body := send("POST", gateway.URL+"/api/items", issueToken(time.Now()), JsonBody{
				"name":              "",
				"description":       "Ceramic",
				"purchasePrice":     -1,
				"sellingPrice":      5,
				"quantity":          1.5,
				"lowStockThreshold": 1,
			})
			Expect(resp.StatusCode).To(Equal(400))

			var message struct {
				Message string              `json:"message"`
				Errors  map[string][]string `json:"errors"`
			}
			Expect(json.Unmarshal(body, &message)).To(Succeed())
			Expect(message.Message).To(Equal(proxy.InvalidDataMessage))
			Expect(message.Errors).To(HaveKeyWithValue("name", []string{"Name is required"}))
			Expect(message.Errors).To(HaveKeyWithValue("purchasePrice", []string{"Purchase price must be non-negative"}))
			Expect(message.Errors).To(HaveKeyWithValue("quantity", []string{"Expected integer, received float"}))
			Expect(apiStub.Hits()).To(BeZero())
		})

		It("deletes item by path id", func() {
			resp, body := send("DELETE", gateway.URL+"/api/items/item-1", issueToken(time.Now()), nil)
			Expect(resp.StatusCode).To(Equal(200))
			Expect(unmarshalToMap(body)).To(HaveKeyWithValue("message", "Item deleted."))
		})
	})

	Context("upstream failures", func() {
		It("answers 502 on non-JSON upstream body", func() {
			resp, body := send("GET", gateway.URL+"/api/sales", issueToken(time.Now()), nil)
			Expect(resp.StatusCode).To(Equal(502))
			Expect(unmarshalToMap(body)).To(HaveKeyWithValue("message", "Sales service error."))
		})

		It("answers 503 when upstream is unreachable", func() {
			closed := httptest.NewServer(http.NotFoundHandler())
			closedUrl := closed.URL
			closed.Close()

			unavailable := httptest.NewServer(buildGateway(closedUrl))
			defer unavailable.Close()

			resp, body := send("GET", unavailable.URL+"/api/items", issueToken(time.Now()), nil)
			Expect(resp.StatusCode).To(Equal(503))
			Expect(unmarshalToMap(body)).To(HaveKeyWithValue("message", "Unable to contact items service."))
		})
	})
})

type JsonBody map[string]interface{}

func unmarshalToMap(message []byte) map[string]interface{} {
	messageMap := make(map[string]interface{})
	if err := json.Unmarshal(message, &messageMap); err != nil {
		Fail(err.Error() + ": " + string(message))
	}
	return messageMap
}

func send(method string, url string, token string, body JsonBody) (*http.Response, []byte) {
	return perform(buildClient(), buildRequest(method, url, token, body))
}

func buildRequest(method string, url string, token string, body JsonBody) *http.Request {
	var payload []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			Fail(err.Error())
		}
		payload = encoded
	}
	request, err := http.NewRequest(method, url, bytes.NewReader(payload))
	if err != nil {
		Fail(err.Error())
	}
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	return request
}

func perform(client *http.Client, request *http.Request) (*http.Response, []byte) {
	resp, err := client.Do(request)
	if err != nil {
		Fail(err.Error())
	}
	defer resp.Body.Close()
	message, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		Fail(err.Error())
	}
	return resp, message
}

func buildClient() *http.Client {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		Fail(err.Error())
	}
	return &http.Client{
		Jar:     jar,
		Timeout: 5 * time.Second,
	}
}
