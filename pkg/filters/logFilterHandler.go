package filters

import (
	"bytes"
	"github.com/Alcereo/inventory-gateway/pkg/common"
	"github.com/sirupsen/logrus"
	"net/http"
	templ "text/template"
	"time"
)

const DefaultLogTemplate = "{{.Request.Method}} {{.Request.URL.Path}} -> {{.Status}} ({{.Elapsed}})"

type LogFilterHandler struct {
	next     *common.RequestHandler
	template *templ.Template
	Name     string
}

type logRecord struct {
	Request *http.Request
	Filter  *LogFilterHandler
	Status  int
	Elapsed time.Duration
}

func (filter *LogFilterHandler) SetNext(nextHandler common.RequestHandler) {
	filter.next = &nextHandler
}

func (filter *LogFilterHandler) Handle(log *logrus.Entry, writer http.ResponseWriter, request *http.Request) {
	log = log.WithField("filterName", filter.Name)
	if filter.next == nil {
		log.Debugf("Log filter error: %v. Next handler is empty", filter.Name)
		return
	}

	start := time.Now()
	recorder := newStatusRecorder(writer)
	(*filter.next).Handle(log, recorder, request)

	data := logRecord{
		Request: request,
		Filter:  filter,
		Status:  recorder.status,
		Elapsed: time.Since(start),
	}
	var tpl bytes.Buffer
	if err := filter.template.Execute(&tpl, data); err != nil {
		log.Warnf("Log filter error: %v. Template error: %v", filter.Name, err)
		return
	}
	log.Info(tpl.String())
}

// Factory

func CreateLogFilter(name string, template string) *LogFilterHandler {
	if template == "" {
		template = DefaultLogTemplate
	}
	parse, err := templ.New(name).Parse(template)
	if err != nil {
		logrus.Warnf("Log filter templ error: %v. Skip filter", err)
		return nil
	}
	return &LogFilterHandler{
		Name:     name,
		template: parse,
	}
}
