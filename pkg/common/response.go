package common

import (
	"encoding/json"
	"github.com/sirupsen/logrus"
	"net/http"
)

func WriteJson(log *logrus.Entry, writer http.ResponseWriter, status int, body interface{}) {
	bytes, err := json.Marshal(body)
	if err != nil {
		log.Errorf("Response serializing error. Reason: %v", err)
		status = http.StatusInternalServerError
		bytes = []byte(`{"message":"Internal server error."}`)
	}
	writer.Header().Set(ContentTypeHeader, JsonContentType)
	writer.WriteHeader(status)
	_, _ = writer.Write(bytes)
}

func WriteMessage(log *logrus.Entry, writer http.ResponseWriter, status int, message string) {
	WriteJson(log, writer, status, Message{Message: message})
}

// WriteRaw relays an already-encoded JSON body. Statuses that forbid a body get none.
func WriteRaw(writer http.ResponseWriter, status int, body []byte) {
	writer.Header().Set(ContentTypeHeader, JsonContentType)
	writer.WriteHeader(status)
	if status == http.StatusNoContent || status == http.StatusNotModified {
		return
	}
	_, _ = writer.Write(body)
}
