package auth

import (
	"encoding/json"
	"errors"
	"github.com/Alcereo/inventory-gateway/pkg/common"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"net/http"
	"net/http/httptest"
	"testing"
)

type stubVerifier struct {
	calls  int
	claims *Claims
	err    error
}

func (verifier *stubVerifier) Verify(token string) (*Claims, error) {
	verifier.calls++
	return verifier.claims, verifier.err
}

type stubHandler struct {
	calls   int
	request *http.Request
}

func (handler *stubHandler) Handle(log *logrus.Entry, writer http.ResponseWriter, request *http.Request) {
	handler.calls++
	handler.request = request
	writer.WriteHeader(200)
}

var publicPaths = []string{"/api/auth/login", "/api/auth/register"}

func createFilter(verifier Verifier) (*tokenVerificationFilter, *stubHandler) {
	next := &stubHandler{}
	filter := NewTokenVerificationFilter("test filter", verifier, "/api/", publicPaths)
	filter.SetNext(next)
	return filter, next
}

func testEntry() *logrus.Entry {
	return logrus.NewEntry(logrus.StandardLogger())
}

func decodeMessage(t *testing.T, recorder *httptest.ResponseRecorder) common.Message {
	var message common.Message
	if err := json.Unmarshal(recorder.Body.Bytes(), &message); err != nil {
		t.Fatalf("Response is not a message: %v", recorder.Body.String())
	}
	return message
}

func TestMissingAuthorizationRejected(t *testing.T) {
	// Given
	verifier := &stubVerifier{}
	filter, next := createFilter(verifier)
	req := httptest.NewRequest("GET", "/api/items", nil)
	w := httptest.NewRecorder()

	// When
	filter.Handle(testEntry(), w, req)

	// Then
	assert.Equal(t, 401, w.Code)
	assert.Equal(t, TokenRequiredMessage, decodeMessage(t, w).Message)
	assert.Equal(t, 0, next.calls)
	assert.Equal(t, 0, verifier.calls)
}

func TestNonBearerAuthorizationTreatedAsMissing(t *testing.T) {
	for _, header := range []string{"Basic dXNlcjpwYXNz", "Bearer", "Bearer a b", "token"} {
		verifier := &stubVerifier{}
		filter, next := createFilter(verifier)
		req := httptest.NewRequest("GET", "/api/sales", nil)
		req.Header.Set("Authorization", header)
		w := httptest.NewRecorder()

		filter.Handle(testEntry(), w, req)

		assert.Equal(t, 401, w.Code, header)
		assert.Equal(t, TokenRequiredMessage, decodeMessage(t, w).Message, header)
		assert.Equal(t, 0, next.calls, header)
	}
}

func TestInvalidTokenRejected(t *testing.T) {
	// Given
	verifier := &stubVerifier{err: errors.New("signature is invalid")}
	filter, next := createFilter(verifier)
	req := httptest.NewRequest("DELETE", "/api/items/7", nil)
	req.Header.Set("Authorization", "Bearer some.bad.token")
	w := httptest.NewRecorder()

	// When
	filter.Handle(testEntry(), w, req)

	// Then
	assert.Equal(t, 401, w.Code)
	message := decodeMessage(t, w)
	assert.Equal(t, TokenInvalidMessage, message.Message)
	assert.NotContains(t, w.Body.String(), "signature")
	assert.Equal(t, 0, next.calls)
	assert.Equal(t, 1, verifier.calls)
}

func TestValidTokenForwardedUnchanged(t *testing.T) {
	// Given
	verifier := &stubVerifier{claims: &Claims{UserId: "1"}}
	filter, next := createFilter(verifier)
	req := httptest.NewRequest("GET", "/api/items", nil)
	req.Header.Set("Authorization", "bearer good-token")
	req.Header.Set("x-user-id", "1")
	w := httptest.NewRecorder()

	// When
	filter.Handle(testEntry(), w, req)

	// Then
	assert.Equal(t, 200, w.Code)
	assert.Equal(t, 1, next.calls)
	assert.Equal(t, req, next.request)
	assert.Equal(t, "bearer good-token", next.request.Header.Get("Authorization"))
	assert.Equal(t, "1", next.request.Header.Get("x-user-id"))
}

func TestPublicPathsBypassVerifier(t *testing.T) {
	for _, path := range publicPaths {
		verifier := &stubVerifier{err: errors.New("must not be called")}
		filter, next := createFilter(verifier)
		req := httptest.NewRequest("POST", path, nil)
		req.Header.Set("Authorization", "Bearer expired")
		w := httptest.NewRecorder()

		filter.Handle(testEntry(), w, req)

		assert.Equal(t, 200, w.Code, path)
		assert.Equal(t, 1, next.calls, path)
		assert.Equal(t, 0, verifier.calls, path)
	}
}

func TestPublicPathsMatchExactly(t *testing.T) {
	verifier := &stubVerifier{}
	filter, next := createFilter(verifier)
	req := httptest.NewRequest("POST", "/api/auth/login/extra", nil)
	w := httptest.NewRecorder()

	filter.Handle(testEntry(), w, req)

	assert.Equal(t, 401, w.Code)
	assert.Equal(t, 0, next.calls)
}

func TestPathsOutsidePrefixPass(t *testing.T) {
	verifier := &stubVerifier{}
	filter, next := createFilter(verifier)
	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	filter.Handle(testEntry(), w, req)

	assert.Equal(t, 200, w.Code)
	assert.Equal(t, 1, next.calls)
	assert.Equal(t, 0, verifier.calls)
}

func TestBearerToken(t *testing.T) {
	token, found := BearerToken("Bearer abc.def.ghi")
	assert.True(t, found)
	assert.Equal(t, "abc.def.ghi", token)

	_, found = BearerToken("")
	assert.False(t, found)
}

func TestFilterRequiresVerifier(t *testing.T) {
	assert.Panics(t, func() {
		NewTokenVerificationFilter("no verifier", nil, "/api/", publicPaths)
	})
}
