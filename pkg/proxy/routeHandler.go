package proxy

import (
	"github.com/Alcereo/inventory-gateway/pkg/common"
	"github.com/sirupsen/logrus"
	"net/http"
	"net/http/httputil"
	"net/url"
)

// ReverseProxyHandler passes requests to TargetAddress untouched.
type ReverseProxyHandler struct {
	TargetAddress url.URL
	proxy         *httputil.ReverseProxy
}

func NewReverseProxyHandler(targetAddress url.URL) *ReverseProxyHandler {
	handler := &ReverseProxyHandler{
		TargetAddress: targetAddress,
	}
	handler.proxy = httputil.NewSingleHostReverseProxy(&handler.TargetAddress)
	return handler
}

func (router *ReverseProxyHandler) Handle(log *logrus.Entry, writer http.ResponseWriter, request *http.Request) {
	proxy := router.proxy
	if proxy == nil {
		proxy = httputil.NewSingleHostReverseProxy(&router.TargetAddress)
	}
	withErrors := *proxy
	withErrors.ErrorHandler = func(writer http.ResponseWriter, request *http.Request, err error) {
		log.Errorf("Reverse proxy error. Target: %v. Reason: %v", router.TargetAddress.String(), err)
		common.WriteMessage(log, writer, http.StatusServiceUnavailable, "Unable to contact upstream service.")
	}
	withErrors.ServeHTTP(writer, request)
}
