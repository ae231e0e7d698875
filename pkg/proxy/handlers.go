package proxy

import (
	"context"
	"errors"
	"github.com/Alcereo/inventory-gateway/pkg/common"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"net/http"
	"strings"
)

const (
	InvalidDataMessage      = "Invalid data provided."
	MethodNotAllowedMessage = "Method not allowed."
)

type UpstreamPort interface {
	Do(ctx context.Context, method string, path string, header http.Header, body []byte) (*UpstreamResponse, error)
}

type serviceMessages struct {
	unavailable string
	malformed   string
	failed      string
}

func messagesFor(service string, failed string) serviceMessages {
	return serviceMessages{
		unavailable: "Unable to contact " + service + " service.",
		malformed:   strings.ToUpper(service[:1]) + service[1:] + " service error.",
		failed:      failed,
	}
}

func writeUpstreamError(log *logrus.Entry, writer http.ResponseWriter, err error, messages serviceMessages) {
	switch {
	case errors.Is(err, ErrUpstreamUnavailable):
		log.Errorf("Upstream call failed. Reason: %v", err)
		common.WriteMessage(log, writer, http.StatusServiceUnavailable, messages.unavailable)
	case errors.Is(err, ErrUpstreamMalformed):
		log.Warnf("Upstream returned malformed response. Reason: %v", err)
		common.WriteMessage(log, writer, http.StatusBadGateway, messages.malformed)
	default:
		log.Errorf("Proxying request error. Reason: %v", err)
		common.WriteMessage(log, writer, http.StatusInternalServerError, messages.failed)
	}
}

func writeValidationErrors(log *logrus.Entry, writer http.ResponseWriter, errs FieldErrors) {
	log.WithField("errors", errs).Debugf("Request body rejected")
	common.WriteJson(log, writer, http.StatusBadRequest, common.Message{
		Message: InvalidDataMessage,
		Errors:  errs,
	})
}

func writeInvalidBody(log *logrus.Entry, writer http.ResponseWriter, err error) {
	log.Debugf("Request body rejected. Reason: %v", err)
	common.WriteMessage(log, writer, http.StatusBadRequest, InvalidDataMessage)
}

func methodNotAllowed(log *logrus.Entry, writer http.ResponseWriter, allowed ...string) {
	writer.Header().Set("Allow", strings.Join(allowed, ", "))
	common.WriteMessage(log, writer, http.StatusMethodNotAllowed, MethodNotAllowedMessage)
}

// forwardHeaders copies the named inbound headers that carry a value.
func forwardHeaders(request *http.Request, names ...string) http.Header {
	header := http.Header{}
	for _, name := range names {
		if value := request.Header.Get(name); value != "" {
			header.Set(name, value)
		}
	}
	return header
}

func jsonHeaders(request *http.Request, names ...string) http.Header {
	header := forwardHeaders(request, names...)
	header.Set(common.ContentTypeHeader, common.JsonContentType)
	return header
}

// relay passes the upstream status and body through unchanged.
func relay(log *logrus.Entry, writer http.ResponseWriter, response *UpstreamResponse) {
	log.Debugf("Relaying upstream response. Status: %v", response.Status)
	common.WriteRaw(writer, response.Status, response.Body)
}

func truthy(result gjson.Result) bool {
	switch result.Type {
	case gjson.Null, gjson.False:
		return false
	case gjson.String:
		return result.Str != ""
	case gjson.Number:
		return result.Num != 0
	default:
		return result.Exists()
	}
}
