package context

import (
	"github.com/stretchr/testify/assert"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestContext(apiUrl string) *context {
	ctx := NewContext()
	ctx.SetupSecurity("context-secret", nil)
	ctx.SetupUpstream(apiUrl, 1)
	return ctx
}

func TestHealthRouter(t *testing.T) {
	// Given
	ctx := newTestContext("http://localhost:3000")
	ctx.SetupRouters([]Router{{Type: Health, Pattern: "/health"}})

	// When
	w := httptest.NewRecorder()
	ctx.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

	// Then
	assert.Equal(t, 200, w.Code)
	assert.JSONEq(t, `{"status":"ok","service":"gateway"}`, w.Body.String())
}

func TestGatewayFiltersGuardUnknownApiPaths(t *testing.T) {
	// Given
	ctx := newTestContext("http://localhost:3000")
	ctx.SetupRouters([]Router{{Type: Health, Pattern: "/health"}})
	ctx.SetupGatewayFilters([]Filter{
		{Type: RecoveryFilter, Name: "recovery"},
		{Type: TokenVerificationFilter, Name: "tokens"},
	})

	// When
	w := httptest.NewRecorder()
	ctx.ServeHTTP(w, httptest.NewRequest("GET", "/api/unknown", nil))

	// Then
	assert.Equal(t, 401, w.Code)
	assert.JSONEq(t, `{"message":"Authentication token is required."}`, w.Body.String())
}

func TestPublicPathReachesHandlerWithoutToken(t *testing.T) {
	// Given
	upstream := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(201)
		_, _ = writer.Write([]byte(`{"email":"a@b.c"}`))
	}))
	defer upstream.Close()

	ctx := newTestContext(upstream.URL)
	ctx.SetupRouters([]Router{{Type: Register, Pattern: "/api/auth/register"}})
	ctx.SetupGatewayFilters([]Filter{{Type: TokenVerificationFilter, Name: "tokens"}})

	// When
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/auth/register", nil)
	req.Body = http.NoBody
	ctx.ServeHTTP(w, req)

	// Then
	assert.Equal(t, 400, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid data provided.")
}

func TestMetricsRouter(t *testing.T) {
	ctx := newTestContext("http://localhost:3000")
	ctx.SetupRouters([]Router{
		{Type: Health, Pattern: "/health", Filters: []Filter{{Type: MetricsFilter, Name: "health"}}},
		{Type: Metrics, Pattern: "/metrics"},
	})

	ctx.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/health", nil))
	w := httptest.NewRecorder()
	ctx.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, w.Code)
	assert.Contains(t, w.Body.String(), `gateway_http_requests_total{method="GET",route="health",status="200"} 1`)
}

func TestMisconfigurationPanics(t *testing.T) {
	assert.Panics(t, func() {
		NewContext().SetupSecurity("", nil)
	})
	assert.Panics(t, func() {
		NewContext().SetupRouters([]Router{{Type: Items, Pattern: "/api/items"}})
	})
	assert.Panics(t, func() {
		newTestContext("http://localhost:3000").SetupRouters([]Router{{Type: "Unknown", Pattern: "/"}})
	})
	assert.Panics(t, func() {
		NewContext().BuildFilterHandler(Filter{Type: TokenVerificationFilter, Name: "tokens"})
	})
}
