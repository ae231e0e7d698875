package context

import (
	"fmt"
	"github.com/Alcereo/inventory-gateway/pkg/auth"
	"github.com/Alcereo/inventory-gateway/pkg/common"
	"github.com/Alcereo/inventory-gateway/pkg/filters"
	"github.com/Alcereo/inventory-gateway/pkg/proxy"
	uuid "github.com/satori/go.uuid"
	log "github.com/sirupsen/logrus"
	"net/http"
	"net/url"
	"time"
)

type context struct {
	verifier          *auth.TokenVerifier
	upstream          *proxy.Upstream
	apiUrl            string
	metrics           *filters.Metrics
	serverMultiplexer *http.ServeMux
	rootHandler       common.RequestHandler
}

func NewContext() *context {
	ctx := &context{
		metrics:           filters.NewMetrics("gateway"),
		serverMultiplexer: http.NewServeMux(),
	}
	ctx.rootHandler = common.RequestHandlerFunc(ctx.dispatch)
	return ctx
}

func (ctx *context) SetupSecurity(jwtSecret string, now func() time.Time) {
	if jwtSecret == "" {
		panic(fmt.Errorf("JWT secret is not configured.\n"))
	}
	ctx.verifier = auth.NewTokenVerifier(jwtSecret, now)
}

func (ctx *context) SetupUpstream(apiUrl string, timeoutSeconds int) {
	upstream, err := proxy.NewUpstream(apiUrl, &http.Client{
		Timeout: time.Duration(timeoutSeconds) * time.Second,
	})
	if err != nil {
		panic(fmt.Errorf("Upstream setup error: %v.\n", err))
	}
	ctx.upstream = upstream
	ctx.apiUrl = apiUrl
}

func (ctx *context) SetupRouters(routers []Router) {
	for _, router := range routers {
		mainHandler := ctx.buildRouterHandler(router)
		log.Debugf("Adding %v router. Pattern: %s", router.Type, router.Pattern)
		rootFilterHandler := ctx.BuildFilterHandlers(router.Filters, mainHandler)
		ctx.serverMultiplexer.HandleFunc(router.Pattern, handlerFunc(rootFilterHandler))
	}
}

func (ctx *context) buildRouterHandler(router Router) common.RequestHandler {
	switch router.Type {
	case Login:
		return &proxy.LoginHandler{Upstream: ctx.requireUpstream()}
	case Register:
		return &proxy.RegisterHandler{Upstream: ctx.requireUpstream()}
	case Items:
		return &proxy.ItemsHandler{Upstream: ctx.requireUpstream()}
	case Item:
		return &proxy.ItemHandler{Upstream: ctx.requireUpstream(), Prefix: router.Pattern}
	case Sales:
		return &proxy.SalesHandler{Upstream: ctx.requireUpstream()}
	case ReverseProxy:
		target := router.TargetUrl
		if target == "" {
			target = ctx.apiUrl
		}
		targetUrl, err := url.Parse(target)
		if err != nil || targetUrl.Host == "" {
			panic(fmt.Errorf("Reverse proxy target url '%v' is invalid.\n", target))
		}
		log.Debugf("Reverse proxy target: %s", targetUrl)
		return proxy.NewReverseProxyHandler(*targetUrl)
	case Health:
		return common.RequestHandlerFunc(healthHandler)
	case Metrics:
		metricsHandler := ctx.metrics.Handler()
		return common.RequestHandlerFunc(func(log *log.Entry, writer http.ResponseWriter, request *http.Request) {
			metricsHandler.ServeHTTP(writer, request)
		})
	default:
		panic(fmt.Errorf("Undefined router type: %v.\n", router.Type))
	}
}

// SetupGatewayFilters wraps every router, matched or not, in the given filters.
func (ctx *context) SetupGatewayFilters(gatewayFilters []Filter) {
	ctx.rootHandler = ctx.BuildFilterHandlers(gatewayFilters, common.RequestHandlerFunc(ctx.dispatch))
}

func (ctx *context) BuildFilterHandlers(filters []Filter, mainHandler common.RequestHandler) (rootHandler common.RequestHandler) {
	if filters == nil {
		return mainHandler
	}

	currentHandler := mainHandler

	for i := len(filters) - 1; i >= 0; i-- {
		filter := filters[i]

		handler := ctx.BuildFilterHandler(filter)

		if handler == nil {
			continue
		}

		handler.SetNext(currentHandler)
		currentHandler = handler
	}

	return currentHandler
}

func (ctx *context) BuildFilterHandler(filter Filter) common.RequestChainedHandler {
	switch filter.Type {
	case LogFilter:
		log.Debugf("Adding Log filter. Name: %s", filter.Name)
		if logFilter := filters.CreateLogFilter(filter.Name, filter.Template); logFilter != nil {
			return logFilter
		}
		return nil
	case RecoveryFilter:
		log.Debugf("Adding recovery filter. Name: %s", filter.Name)
		return filters.NewRecoveryFilter(filter.Name)
	case TokenVerificationFilter:
		log.Debugf("Adding token verification filter. Name: %s", filter.Name)
		publicPaths := filter.PublicPaths
		if publicPaths == nil {
			publicPaths = DefaultPublicPaths
		}
		protectedPrefix := filter.ProtectedPrefix
		if protectedPrefix == "" {
			protectedPrefix = DefaultProtectedPrefix
		}
		return auth.NewTokenVerificationFilter(filter.Name, ctx.requireVerifier(), protectedPrefix, publicPaths)
	case UserIdentityFilter:
		log.Debugf("Adding user identity filter. Name: %s", filter.Name)
		return auth.NewUserIdentityFilter(filter.Name, ctx.requireVerifier(), filter.UserDataHeader)
	case RateLimitFilter:
		log.Debugf("Adding rate limit filter. Name: %s", filter.Name)
		return filters.NewRateLimitFilter(filter.Name, filter.RequestsPerSecond, filter.Burst)
	case MetricsFilter:
		log.Debugf("Adding metrics filter. Name: %s", filter.Name)
		return filters.NewMetricsFilter(filter.Name, filter.Name, ctx.metrics)
	default:
		panic(fmt.Errorf("Undefined filter type: %v.\n", filter.Type))
	}
}

func (ctx *context) requireVerifier() *auth.TokenVerifier {
	if ctx.verifier == nil {
		panic(fmt.Errorf("Token verifier is not configured. Call SetupSecurity first.\n"))
	}
	return ctx.verifier
}

func (ctx *context) requireUpstream() *proxy.Upstream {
	if ctx.upstream == nil {
		panic(fmt.Errorf("Upstream is not configured. Call SetupUpstream first.\n"))
	}
	return ctx.upstream
}

func (ctx *context) dispatch(entry *log.Entry, writer http.ResponseWriter, request *http.Request) {
	ctx.serverMultiplexer.ServeHTTP(writer, request.WithContext(common.WithLogEntry(request.Context(), entry)))
}

func (ctx *context) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	entry := log.WithFields(log.Fields{
		"requestId": uuid.NewV4().String(),
		"method":    request.Method,
		"path":      request.URL.Path,
	})
	ctx.rootHandler.Handle(entry, writer, request)
}

func (ctx *context) BuildServer(port int) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%v", port),
		Handler:           ctx,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func handlerFunc(handler common.RequestHandler) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		handler.Handle(common.LogEntry(request.Context()), writer, request)
	}
}

func healthHandler(log *log.Entry, writer http.ResponseWriter, request *http.Request) {
	common.WriteJson(log, writer, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "gateway",
	})
}
