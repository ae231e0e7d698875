package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/Alcereo/inventory-gateway/pkg/common"
	"github.com/tidwall/gjson"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"
)

var ErrTransport = errors.New("gateway unreachable")

// Credentials authenticate calls to protected gateway routes.
type Credentials struct {
	Token  string
	UserId string
}

// Client talks to the gateway's public routes.
type Client struct {
	baseUrl string
	http    *http.Client
}

func New(baseUrl string, httpClient *http.Client) (*Client, error) {
	parsed, err := url.Parse(baseUrl)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid gateway url %q", baseUrl)
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseUrl: strings.TrimSuffix(parsed.String(), "/"),
		http:    httpClient,
	}, nil
}

type Response struct {
	Status int
	Body   []byte
}

func (response *Response) Ok() bool {
	return response.Status >= 200 && response.Status < 300
}

func (response *Response) Get(path string) gjson.Result {
	return gjson.GetBytes(response.Body, path)
}

// MessageOr returns the body's "message" or the fallback when there is none.
func (response *Response) MessageOr(fallback string) string {
	if message := response.Get("message"); message.Type == gjson.String && message.Str != "" {
		return message.Str
	}
	return fallback
}

func (response *Response) FieldErrors() map[string][]string {
	fields := make(map[string][]string)
	response.Get("errors").ForEach(func(key, value gjson.Result) bool {
		for _, message := range value.Array() {
			fields[key.String()] = append(fields[key.String()], message.String())
		}
		return true
	})
	if len(fields) == 0 {
		return nil
	}
	return fields
}

func (response *Response) Decode(target interface{}) error {
	if err := json.Unmarshal(response.Body, target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// APIError is a non-2xx gateway answer.
type APIError struct {
	Status  int
	Message string
	Fields  map[string][]string
}

func (err *APIError) Error() string {
	return fmt.Sprintf("gateway responded %d: %s", err.Status, err.Message)
}

func (response *Response) Err(fallback string) error {
	if response.Ok() {
		return nil
	}
	return &APIError{
		Status:  response.Status,
		Message: response.MessageOr(fallback),
		Fields:  response.FieldErrors(),
	}
}

func (client *Client) Login(ctx context.Context, email string, password string) (*Response, error) {
	return client.do(ctx, http.MethodPost, "/api/auth/login", nil, map[string]string{
		"email":    email,
		"password": password,
	})
}

func (client *Client) Register(ctx context.Context, email string, password string) (*Response, error) {
	return client.do(ctx, http.MethodPost, "/api/auth/register", nil, map[string]string{
		"email":    email,
		"password": password,
	})
}

func (client *Client) ListItems(ctx context.Context, credentials Credentials) (*Response, error) {
	return client.do(ctx, http.MethodGet, "/api/items", &credentials, nil)
}

func (client *Client) AddItem(ctx context.Context, credentials Credentials, item common.NewItem) (*Response, error) {
	return client.do(ctx, http.MethodPost, "/api/items", &credentials, item)
}

func (client *Client) DeleteItem(ctx context.Context, credentials Credentials, id string) (*Response, error) {
	return client.do(ctx, http.MethodDelete, "/api/items/"+url.PathEscape(id), &credentials, nil)
}

func (client *Client) ListSales(ctx context.Context, credentials Credentials) (*Response, error) {
	return client.do(ctx, http.MethodGet, "/api/sales", &credentials, nil)
}

func (client *Client) RecordSale(ctx context.Context, credentials Credentials, sale common.NewSale) (*Response, error) {
	return client.do(ctx, http.MethodPost, "/api/sales", &credentials, sale)
}

func (client *Client) do(ctx context.Context, method string, path string, credentials *Credentials, body interface{}) (*Response, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, client.baseUrl+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set(common.ContentTypeHeader, common.JsonContentType)
	}
	if credentials != nil {
		if credentials.Token != "" {
			req.Header.Set(common.AuthorizationHeader, "Bearer "+credentials.Token)
		}
		if credentials.UserId != "" {
			req.Header.Set(common.UserIdHeader, credentials.UserId)
		}
	}

	resp, err := client.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()
	responseBody, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrTransport, err)
	}
	return &Response{
		Status: resp.StatusCode,
		Body:   responseBody,
	}, nil
}
