package proxy

import (
	"encoding/json"
	"github.com/Alcereo/inventory-gateway/pkg/common"
	"github.com/sirupsen/logrus"
	"net/http"
	"net/url"
	"strings"
)

const (
	ItemsPath               = "/api/items"
	NotAuthorizedMessage    = "Not authorized or user not found."
	ItemIdRequiredMessage   = "Item ID is required."
	RetrieveItemsFailed     = "Failed to retrieve items."
	AddItemFailed           = "Failed to add item."
	DeleteItemFailed        = "Failed to delete item."
	itemsServiceDescription = "items"
)

// ItemsHandler serves the item collection for the caller named by x-user-id.
type ItemsHandler struct {
	Upstream UpstreamPort
}

func (handler *ItemsHandler) Handle(log *logrus.Entry, writer http.ResponseWriter, request *http.Request) {
	userId := request.Header.Get(common.UserIdHeader)
	switch request.Method {
	case http.MethodGet:
		if userId == "" {
			common.WriteMessage(log, writer, http.StatusUnauthorized, NotAuthorizedMessage)
			return
		}
		handler.list(log, writer, request)
	case http.MethodPost:
		if userId == "" {
			common.WriteMessage(log, writer, http.StatusUnauthorized, NotAuthorizedMessage)
			return
		}
		handler.create(log, writer, request, userId)
	default:
		methodNotAllowed(log, writer, http.MethodGet, http.MethodPost)
	}
}

func (handler *ItemsHandler) list(log *logrus.Entry, writer http.ResponseWriter, request *http.Request) {
	messages := messagesFor(itemsServiceDescription, RetrieveItemsFailed)
	response, err := handler.Upstream.Do(
		request.Context(),
		http.MethodGet,
		ItemsPath,
		forwardHeaders(request, common.AuthorizationHeader),
		nil,
	)
	if err != nil {
		writeUpstreamError(log, writer, err, messages)
		return
	}
	relay(log, writer, response)
}

func (handler *ItemsHandler) create(log *logrus.Entry, writer http.ResponseWriter, request *http.Request, userId string) {
	messages := messagesFor(itemsServiceDescription, AddItemFailed)
	raw, err := readObject(request.Body)
	if err != nil {
		writeInvalidBody(log, writer, err)
		return
	}
	item, errs := decodeItem(raw)
	if errs != nil {
		writeValidationErrors(log, writer, errs)
		return
	}
	body, err := json.Marshal(item)
	if err != nil {
		writeUpstreamError(log, writer, err, messages)
		return
	}

	header := jsonHeaders(request, common.AuthorizationHeader)
	header.Set(common.UserIdHeader, userId)
	response, err := handler.Upstream.Do(request.Context(), http.MethodPost, ItemsPath, header, body)
	if err != nil {
		writeUpstreamError(log, writer, err, messages)
		return
	}
	relay(log, writer, response)
}

// ItemHandler serves a single item addressed by the path segment after Prefix.
type ItemHandler struct {
	Upstream UpstreamPort
	Prefix   string
}

func (handler *ItemHandler) Handle(log *logrus.Entry, writer http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodDelete {
		methodNotAllowed(log, writer, http.MethodDelete)
		return
	}
	messages := messagesFor(itemsServiceDescription, DeleteItemFailed)

	id := strings.Trim(strings.TrimPrefix(request.URL.Path, handler.prefix()), "/")
	if id == "" {
		common.WriteMessage(log, writer, http.StatusBadRequest, ItemIdRequiredMessage)
		return
	}
	log = log.WithField("itemId", id)

	response, err := handler.Upstream.Do(
		request.Context(),
		http.MethodDelete,
		ItemsPath+"/"+url.PathEscape(id),
		forwardHeaders(request, common.AuthorizationHeader),
		nil,
	)
	if err != nil {
		writeUpstreamError(log, writer, err, messages)
		return
	}
	relay(log, writer, response)
}

func (handler *ItemHandler) prefix() string {
	if handler.Prefix == "" {
		return ItemsPath + "/"
	}
	return handler.Prefix
}
