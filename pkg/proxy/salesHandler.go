package proxy

import (
	"encoding/json"
	"github.com/Alcereo/inventory-gateway/pkg/common"
	"github.com/sirupsen/logrus"
	"net/http"
)

const (
	SalesPath           = "/api/sales"
	RetrieveSalesFailed = "Failed to retrieve sales."
	RecordSaleFailed    = "Failed to record sale."
)

type SalesHandler struct {
	Upstream UpstreamPort
}

func (handler *SalesHandler) Handle(log *logrus.Entry, writer http.ResponseWriter, request *http.Request) {
	switch request.Method {
	case http.MethodGet:
		response, err := handler.Upstream.Do(
			request.Context(),
			http.MethodGet,
			SalesPath,
			forwardHeaders(request, common.AuthorizationHeader),
			nil,
		)
		if err != nil {
			writeUpstreamError(log, writer, err, messagesFor("sales", RetrieveSalesFailed))
			return
		}
		relay(log, writer, response)
	case http.MethodPost:
		handler.record(log, writer, request)
	default:
		methodNotAllowed(log, writer, http.MethodGet, http.MethodPost)
	}
}

func (handler *SalesHandler) record(log *logrus.Entry, writer http.ResponseWriter, request *http.Request) {
	messages := messagesFor("sales", RecordSaleFailed)
	raw, err := readObject(request.Body)
	if err != nil {
		writeInvalidBody(log, writer, err)
		return
	}
	sale, errs := decodeSale(raw)
	if errs != nil {
		writeValidationErrors(log, writer, errs)
		return
	}
	body, err := json.Marshal(sale)
	if err != nil {
		writeUpstreamError(log, writer, err, messages)
		return
	}
	response, err := handler.Upstream.Do(
		request.Context(),
		http.MethodPost,
		SalesPath,
		jsonHeaders(request, common.AuthorizationHeader),
		body,
	)
	if err != nil {
		writeUpstreamError(log, writer, err, messages)
		return
	}
	log.WithField("itemId", sale.ItemId).Debugf("Sale forwarded. Upstream status: %v", response.Status)
	relay(log, writer, response)
}
