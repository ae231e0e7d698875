package utils

import (
	"encoding/json"
	"fmt"
	"github.com/tidwall/gjson"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync/atomic"
)

// ServiceStub answers the registered mocks and counts every call it receives.
type ServiceStub struct {
	*httptest.Server
	hits int64
}

func (stub *ServiceStub) Hits() int64 {
	return atomic.LoadInt64(&stub.hits)
}

func (stub *ServiceStub) ResetHits() {
	atomic.StoreInt64(&stub.hits, 0)
}

func CreateServiceStub(mocks []RequestMock) *ServiceStub {
	stub := &ServiceStub{}
	mux := http.NewServeMux()

	byPattern := make(map[string][]RequestMock)
	var patterns []string
	for _, mReg := range mocks {
		if _, found := byPattern[mReg.Request.Url]; !found {
			patterns = append(patterns, mReg.Request.Url)
		}
		byPattern[mReg.Request.Url] = append(byPattern[mReg.Request.Url], mReg)
	}

	for _, pattern := range patterns {
		registered := byPattern[pattern]
		mux.HandleFunc(pattern, func(writer http.ResponseWriter, request *http.Request) {
			atomic.AddInt64(&stub.hits, 1)
			for _, mReg := range registered {
				if mReg.Request.Method == request.Method {
					serveMock(mReg, writer, request)
					return
				}
			}
			writer.WriteHeader(404)
			_, _ = fmt.Fprint(writer, "No mock registered for method '"+request.Method+"'.")
		})
	}

	stub.Server = httptest.NewServer(mux)
	return stub
}

func serveMock(mReg RequestMock, writer http.ResponseWriter, request *http.Request) {
	for _, check := range mReg.Request.Headers {
		header := request.Header.Get(check.Name)
		matched, err := regexp.MatchString(check.Regexp, header)
		if err != nil {
			writer.WriteHeader(500)
			_, _ = fmt.Fprint(writer, "Parsing header regexp error: "+check.Regexp+". Detail: "+err.Error())
			return
		}
		if !matched {
			writer.WriteHeader(400)
			_, _ = fmt.Fprint(writer, "Header not matched regexp. Header: "+header+". Regexp: "+check.Regexp)
			return
		}
	}

	bytes, err := ioutil.ReadAll(request.Body)
	if err != nil {
		writer.WriteHeader(500)
		_, _ = fmt.Fprint(writer, "Reading body error: "+err.Error())
		return
	}

	for _, check := range mReg.Request.Body {
		err := check.checkBody(bytes, request)
		if err != nil {
			writer.WriteHeader(400)
			_, _ = fmt.Fprint(writer, "Body not match: "+err.Error())
			return
		}
	}

	for header, value := range mReg.Response.Headers {
		writer.Header().Add(header, value)
	}
	bodyBytes, err := mReg.Response.Body.getString()
	if err != nil {
		writer.WriteHeader(500)
		_, _ = fmt.Fprint(writer, "Writing body error: "+err.Error())
		return
	}
	writer.WriteHeader(mReg.Response.Status)
	_, _ = writer.Write(bodyBytes)
}

type RequestMock struct {
	Request  Request
	Response Response
}

type Header struct {
	Name   string
	Regexp string
}

// JsonFieldsBody compares gjson paths of the request body with expected values.
type JsonFieldsBody struct {
	Fields map[string]string
}

func (check JsonFieldsBody) checkBody(body []byte, req *http.Request) error {
	if !gjson.ValidBytes(body) {
		return fmt.Errorf("body is not valid json: %s", body)
	}

	for path, value := range check.Fields {
		actual := gjson.GetBytes(body, path)
		if !actual.Exists() || actual.String() != value {
			return fmt.Errorf("field %v=%v not match with expected: %v", path, actual.String(), value)
		}
	}

	return nil
}

// AbsentFieldsBody fails when any of the paths is present in the body.
type AbsentFieldsBody struct {
	Paths []string
}

func (check AbsentFieldsBody) checkBody(body []byte, req *http.Request) error {
	for _, path := range check.Paths {
		if gjson.GetBytes(body, path).Exists() {
			return fmt.Errorf("field %v expected to be absent", path)
		}
	}
	return nil
}

type Request struct {
	Method  string
	Url     string
	Headers []Header
	Body    []BodyCheck
}

type BodyCheck interface {
	checkBody([]byte, *http.Request) error
}

type StringedBody interface {
	getString() ([]byte, error)
}

type Response struct {
	Status  int
	Headers map[string]string
	Body    StringedBody
}

type JsonMap map[string]interface{}

func (s JsonMap) getString() ([]byte, error) {
	return json.Marshal(s)
}

type JsonList []interface{}

func (s JsonList) getString() ([]byte, error) {
	return json.Marshal(s)
}

// RawBody is sent as is.
type RawBody string

func (s RawBody) getString() ([]byte, error) {
	return []byte(s), nil
}
