package proxy

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"github.com/tidwall/gjson"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"
)

var (
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrUpstreamMalformed   = errors.New("upstream response is not JSON")
)

// Upstream performs calls to the external API. Transport failures and
// non-JSON bodies are reported through the sentinel errors above.
type Upstream struct {
	baseUrl string
	client  *http.Client
}

func NewUpstream(baseUrl string, client *http.Client) (*Upstream, error) {
	parsed, err := url.Parse(baseUrl)
	if err != nil {
		return nil, newErr("Parsing upstream url error.", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, newErr("Parsing upstream url error.", "absolute url expected: "+baseUrl)
	}
	if client == nil {
		client = &http.Client{}
	}
	return &Upstream{
		baseUrl: strings.TrimSuffix(parsed.String(), "/"),
		client:  client,
	}, nil
}

type UpstreamResponse struct {
	Status int
	Body   []byte
}

func (response *UpstreamResponse) Ok() bool {
	return response.Status >= 200 && response.Status < 300
}

// Do sends the call and returns the upstream status with a JSON body.
// An empty upstream body is reported as "{}".
func (upstream *Upstream) Do(ctx context.Context, method string, path string, header http.Header, body []byte) (*UpstreamResponse, error) {
	const stage = "Performing upstream request error."

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, upstream.baseUrl+path, reader)
	if err != nil {
		return nil, newErr(stage, err)
	}
	for name, values := range header {
		for _, value := range values {
			req.Header.Add(name, value)
		}
	}

	resp, err := upstream.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	responseBody, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrUpstreamUnavailable, err)
	}
	if len(bytes.TrimSpace(responseBody)) == 0 {
		responseBody = []byte("{}")
	}
	if !gjson.ValidBytes(responseBody) {
		return nil, fmt.Errorf("%w: %.200s", ErrUpstreamMalformed, string(responseBody))
	}
	return &UpstreamResponse{
		Status: resp.StatusCode,
		Body:   responseBody,
	}, nil
}

func newErr(stage string, reason interface{}) error {
	return fmt.Errorf("%v Reason: %v", stage, reason)
}
