package integration_test

import (
	. "github.com/Alcereo/inventory-gateway/integration/utils"
	"github.com/Alcereo/inventory-gateway/pkg/common"
	. "github.com/Alcereo/inventory-gateway/pkg/context"
	"github.com/Alcereo/inventory-gateway/pkg/serializers"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestIntegration(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Integration Suite")
}

const jwtSecret = "integration-secret"

var gateway *httptest.Server
var apiStub *ServiceStub

var testUser = common.Identity{Id: "user-1", Email: "owner@shop.io"}

var _ = BeforeSuite(func() {

	//logrus.SetLevel(logrus.DebugLevel)

	apiStub = createApiStub()
	gateway = httptest.NewServer(buildGateway(apiStub.URL))
})

func gatewayFilters() []Filter {
	return []Filter{
		{
			Type: RecoveryFilter,
			Name: "recovery",
		},
		{
			Type:     LogFilter,
			Name:     "access log",
			Template: "{{.Request.Method}} {{.Request.URL.Path}} -> {{.Status}}",
		},
		{
			Type:            TokenVerificationFilter,
			Name:            "api token verification",
			ProtectedPrefix: "/api/",
			PublicPaths:     []string{"/api/auth/login", "/api/auth/register"},
		},
	}
}

func gatewayRouters() []Router {
	return []Router{
		{
			Type:    Login,
			Pattern: "/api/auth/login",
			Filters: []Filter{
				{
					Type: MetricsFilter,
					Name: "login",
				},
			},
		},
		{
			Type:    Register,
			Pattern: "/api/auth/register",
		},
		{
			Type:    Items,
			Pattern: "/api/items",
			Filters: []Filter{
				{
					Type: MetricsFilter,
					Name: "items",
				},
				{
					Type:           UserIdentityFilter,
					Name:           "items identity",
					UserDataHeader: common.UserIdHeader,
				},
			},
		},
		{
			Type:    Item,
			Pattern: "/api/items/",
		},
		{
			Type:    Sales,
			Pattern: "/api/sales",
		},
		{
			Type:    Health,
			Pattern: "/health",
		},
		{
			Type:    Metrics,
			Pattern: "/metrics",
		},
	}
}

func buildGateway(apiUrl string) http.Handler {
	context := NewContext()
	context.SetupSecurity(jwtSecret, nil)
	context.SetupUpstream(apiUrl, 2)
	context.SetupRouters(gatewayRouters())
	context.SetupGatewayFilters(gatewayFilters())
	return context
}

func issueToken(issuedAt time.Time) string {
	token, err := serializers.NewJwtTokenIssuer(jwtSecret, time.Hour).IssueAt(testUser, issuedAt)
	if err != nil {
		Fail(err.Error())
	}
	return token
}

func createApiStub() *ServiceStub {
	return CreateServiceStub([]RequestMock{
		{
			Request: Request{
				Method: "POST",
				Url:    "/api/auth/login",
				Body: []BodyCheck{
					JsonFieldsBody{
						Fields: map[string]string{
							"email":    testUser.Email,
							"password": "secret-pass",
						},
					},
				},
			},
			Response: Response{
				Status: 200,
				Headers: map[string]string{
					"Content-Type": "application/json",
				},
				Body: JsonMap{
					"token": "upstream-token",
					"user": JsonMap{
						"id":    testUser.Id,
						"email": testUser.Email,
					},
					"extra": "dropped by gateway",
				},
			},
		},
		{
			Request: Request{
				Method: "POST",
				Url:    "/api/auth/register",
			},
			Response: Response{
				Status: 201,
				Body: JsonMap{
					"id":    "user-2",
					"email": "new@shop.io",
				},
			},
		},
		{
			Request: Request{
				Method: "GET",
				Url:    "/api/items",
				Headers: []Header{
					{
						Name:   "Authorization",
						Regexp: "^Bearer .+$",
					},
				},
			},
			Response: Response{
				Status: 200,
				Body: JsonList{
					JsonMap{
						"id":                "item-1",
						"name":              "Mug",
						"description":       "Ceramic",
						"purchasePrice":     2,
						"sellingPrice":      5,
						"quantity":          3,
						"lowStockThreshold": 5,
					},
				},
			},
		},
		{
			Request: Request{
				Method: "POST",
				Url:    "/api/items",
				Headers: []Header{
					{
						Name:   "x-user-id",
						Regexp: "^" + testUser.Id + "$",
					},
				},
				Body: []BodyCheck{
					JsonFieldsBody{
						Fields: map[string]string{
							"name":     "Mug",
							"quantity": "3",
						},
					},
					AbsentFieldsBody{
						Paths: []string{"userId"},
					},
				},
			},
			Response: Response{
				Status: 201,
				Body: JsonMap{
					"id":   "item-2",
					"name": "Mug",
				},
			},
		},
		{
			Request: Request{
				Method: "DELETE",
				Url:    "/api/items/item-1",
			},
			Response: Response{
				Status: 200,
				Body: JsonMap{
					"message": "Item deleted.",
				},
			},
		},
		{
			Request: Request{
				Method: "GET",
				Url:    "/api/sales",
			},
			Response: Response{
				Status: 200,
				Body:   RawBody("not json"),
			},
		},
	})
}

var _ = AfterSuite(func() {
	gateway.Close()
	apiStub.Close()
})
