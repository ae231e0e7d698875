package filters

import (
	"github.com/Alcereo/inventory-gateway/pkg/common"
	"github.com/sirupsen/logrus"
	"net/http"
	"runtime/debug"
)

const InternalErrorMessage = "Internal server error."

// RecoveryFilter turns a panic below it into a generic 500 response.
type RecoveryFilter struct {
	next *common.RequestHandler
	Name string
}

func NewRecoveryFilter(name string) *RecoveryFilter {
	return &RecoveryFilter{Name: name}
}

func (filter *RecoveryFilter) SetNext(nextHandler common.RequestHandler) {
	filter.next = &nextHandler
}

func (filter *RecoveryFilter) Handle(log *logrus.Entry, writer http.ResponseWriter, request *http.Request) {
	log = log.WithField("filterName", filter.Name)
	if filter.next == nil {
		log.Debugf("Recovery filter: %v doesn't have next handler", filter.Name)
		return
	}
	recorder := newStatusRecorder(writer)
	defer func() {
		if reason := recover(); reason != nil {
			if reason == http.ErrAbortHandler {
				panic(reason)
			}
			log.WithField("stack", string(debug.Stack())).Errorf("Handler panic. Reason: %v", reason)
			if !recorder.wroteHeader {
				common.WriteMessage(log, recorder, http.StatusInternalServerError, InternalErrorMessage)
			}
		}
	}()
	(*filter.next).Handle(log, recorder, request)
}
