package proxy

import (
	"encoding/json"
	"github.com/Alcereo/inventory-gateway/pkg/common"
	"github.com/sirupsen/logrus"
	"net/http"
)

const (
	RegisterPath               = "/api/auth/register"
	CredentialsRequiredMessage = "Email and password are required."
	RegistrationFailedMessage  = "Failed to register user."
)

var registerMessages = messagesFor("registration", RegistrationFailedMessage)

type RegisterHandler struct {
	Upstream UpstreamPort
}

func (handler *RegisterHandler) Handle(log *logrus.Entry, writer http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodPost {
		methodNotAllowed(log, writer, http.MethodPost)
		return
	}
	raw, err := readObject(request.Body)
	if err != nil {
		writeInvalidBody(log, writer, err)
		return
	}
	registration, ok := decodeRegister(raw)
	if !ok {
		common.WriteMessage(log, writer, http.StatusBadRequest, CredentialsRequiredMessage)
		return
	}

	body, err := json.Marshal(registration)
	if err != nil {
		writeUpstreamError(log, writer, err, registerMessages)
		return
	}
	response, err := handler.Upstream.Do(
		request.Context(),
		http.MethodPost,
		RegisterPath,
		jsonHeaders(request),
		body,
	)
	if err != nil {
		writeUpstreamError(log, writer, err, registerMessages)
		return
	}
	log.WithField("user", RedactEmail(registration.Email)).Infof("Registration upstream status: %v", response.Status)
	relay(log, writer, response)
}
