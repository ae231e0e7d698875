package client

import (
	"context"
	"errors"
	"github.com/Alcereo/inventory-gateway/pkg/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestProtectedCallsCarryCredentials(t *testing.T) {
	// Given
	var received *http.Request
	var body []byte
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		received = request
		body, _ = ioutil.ReadAll(request.Body)
		writer.WriteHeader(201)
		_, _ = writer.Write([]byte(`{"id":"s1"}`))
	}))
	defer server.Close()
	gateway, err := New(server.URL+"/", nil)
	require.NoError(t, err)

	// When
	response, err := gateway.RecordSale(context.Background(), Credentials{Token: "jwt-1", UserId: "7"}, common.NewSale{ItemId: "i1", Quantity: 2})

	// Then
	require.NoError(t, err)
	assert.Equal(t, 201, response.Status)
	assert.Equal(t, "/api/sales", received.URL.Path)
	assert.Equal(t, "Bearer jwt-1", received.Header.Get("Authorization"))
	assert.Equal(t, "7", received.Header.Get("x-user-id"))
	assert.Equal(t, "application/json", received.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"itemId":"i1","quantity":2}`, string(body))
}

func TestDeleteItemEscapesId(t *testing.T) {
	var path string
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		path = request.URL.EscapedPath()
		writer.WriteHeader(204)
	}))
	defer server.Close()
	gateway, _ := New(server.URL, nil)

	response, err := gateway.DeleteItem(context.Background(), Credentials{Token: "t"}, "a/b")

	require.NoError(t, err)
	assert.Equal(t, 204, response.Status)
	assert.Equal(t, "/api/items/a%2Fb", path)
}

func TestTransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	gateway, _ := New(server.URL, nil)
	server.Close()

	_, err := gateway.Login(context.Background(), "a@b.c", "pw")

	assert.True(t, errors.Is(err, ErrTransport))
}

func TestResponseErrors(t *testing.T) {
	response := &Response{
		Status: 400,
		Body:   []byte(`{"message":"Invalid data provided.","errors":{"email":["Invalid email"],"password":["Required"]}}`),
	}

	err := response.Err("fallback")

	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.Equal(t, "Invalid data provided.", apiErr.Message)
	assert.Equal(t, map[string][]string{"email": {"Invalid email"}, "password": {"Required"}}, apiErr.Fields)

	assert.Equal(t, "fallback", (&Response{Status: 500, Body: []byte(`oops`)}).MessageOr("fallback"))
	assert.Nil(t, (&Response{Status: 200}).Err("fallback"))
}

func TestNewRejectsRelativeUrl(t *testing.T) {
	_, err := New("localhost:8080", nil)
	assert.Error(t, err)
}
