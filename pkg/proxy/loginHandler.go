package proxy

import (
	"encoding/json"
	"fmt"
	"github.com/Alcereo/inventory-gateway/pkg/common"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"net/http"
	"regexp"
	"time"
)

const (
	LoginPath                  = "/api/auth/login"
	LoginFailedMessage         = "Login failed."
	InvalidLoginUpstreamAnswer = "Invalid response from login service."
)

var loginMessages = messagesFor("login", LoginFailedMessage)

var emailPattern = regexp.MustCompile(`(.)(.*)(@.*)`)

// RedactEmail keeps the first character and the domain.
func RedactEmail(email string) string {
	return emailPattern.ReplaceAllString(email, "$1***$3")
}

type LoginHandler struct {
	Upstream UpstreamPort
}

func (handler *LoginHandler) Handle(log *logrus.Entry, writer http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodPost {
		methodNotAllowed(log, writer, http.MethodPost)
		return
	}
	start := time.Now()

	raw, err := readObject(request.Body)
	if err != nil {
		writeInvalidBody(log, writer, err)
		return
	}
	login, errs := decodeLogin(raw)
	if errs != nil {
		log.WithField("errors", errs).Warn("Login request has invalid data")
		writeValidationErrors(log, writer, errs)
		return
	}

	body, err := json.Marshal(login)
	if err != nil {
		writeUpstreamError(log, writer, err, loginMessages)
		return
	}
	response, err := handler.Upstream.Do(
		request.Context(),
		http.MethodPost,
		LoginPath,
		jsonHeaders(request),
		body,
	)
	if err != nil {
		writeUpstreamError(log, writer, err, loginMessages)
		return
	}

	log.WithFields(logrus.Fields{
		"elapsedMs": time.Since(start).Milliseconds(),
		"status":    response.Status,
		"user":      RedactEmail(login.Email),
	}).Info("Login upstream call completed")

	if !response.Ok() {
		message := gjson.GetBytes(response.Body, "message")
		log.Warnf("Login rejected by upstream. Status: %v", response.Status)
		if message.Type == gjson.String && message.Str != "" {
			common.WriteMessage(log, writer, response.Status, message.Str)
		} else {
			common.WriteMessage(log, writer, response.Status, LoginFailedMessage)
		}
		return
	}

	token := gjson.GetBytes(response.Body, "token")
	user := gjson.GetBytes(response.Body, "user")
	if !truthy(token) || !truthy(user) {
		log.Errorf("Login upstream response lacks token or user")
		common.WriteMessage(log, writer, http.StatusInternalServerError, InvalidLoginUpstreamAnswer)
		return
	}

	common.WriteRaw(writer, http.StatusOK, []byte(fmt.Sprintf(`{"token":%s,"user":%s}`, token.Raw, user.Raw)))
}
