package graphql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	genql "github.com/Khan/genqlient/graphql"
	"github.com/vektah/gqlparser/v2/gqlerror"

	"storefront/internal/backend"
	"storefront/internal/model"
)

const (
	userAgent   = "Storefront-BFF/1.0"
	serviceName = "commerce API"
)

// Client talks to a single GraphQL endpoint.
type Client struct {
	gql genql.Client
}

// NewClient creates a client. httpClient comes from transport.NewHTTPClient;
// apiKey identifies the storefront and is sent on every request.
func NewClient(httpClient *http.Client, endpoint, apiKey string) *Client {
	return &Client{
		gql: genql.NewClient(endpoint, &doer{client: httpClient, apiKey: apiKey}),
	}
}

// execute runs one operation and decodes data into result. The visitor's
// session token, if attached to ctx, is sent as a bearer token.
func (c *Client) execute(ctx context.Context, op, query string, vars map[string]any, result any) error {
	req := &genql.Request{OpName: op, Query: query}
	if len(vars) > 0 {
		req.Variables = vars
	}

	err := c.gql.MakeRequest(ctx, req, &genql.Response{Data: result})
	if err == nil {
		return nil
	}

	var gqlErrs gqlerror.List
	var apiErr *model.APIError
	switch {
	case errors.As(err, &gqlErrs) && len(gqlErrs) > 0:
		return parseGraphQLError(gqlErrs[0])
	case errors.As(err, &apiErr):
		return apiErr
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return model.NewUpstreamError(serviceName, fmt.Errorf("%s: %w", op, err))
	}
}

// doer signs requests for the commerce API and converts error statuses
// before the response reaches genqlient.
type doer struct {
	client *http.Client
	apiKey string
}

func (d *doer) Do(req *http.Request) (*http.Response, error) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if d.apiKey != "" {
		req.Header.Set("X-Api-Key", d.apiKey)
	}
	if token := backend.AuthToken(req.Context()); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, model.NewUpstreamError(serviceName, err)
	}
	if resp.StatusCode < 400 {
		return resp, nil
	}

	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, model.NewUpstreamError(serviceName, fmt.Errorf("reading response: %w", err))
	}
	return nil, parseHTTPError(resp.StatusCode, body)
}

// parseHTTPError converts transport-level failures. Some gateways still
// return a GraphQL error body alongside a 4xx status.
func parseHTTPError(statusCode int, body []byte) error {
	var env struct {
		Errors gqlerror.List `json:"errors"`
	}
	if json.Unmarshal(body, &env) == nil && len(env.Errors) > 0 {
		if err := parseGraphQLError(env.Errors[0]); !model.IsRetryable(err) {
			return err
		}
	}

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return model.NewUnauthorizedError("session is not valid")
	case http.StatusNotFound:
		return model.NewNotFoundError("resource")
	case http.StatusTooManyRequests:
		return model.NewRateLimitError(serviceName)
	case http.StatusBadRequest:
		return model.NewValidationError("request", strings.TrimSpace(string(body)))
	default:
		return model.NewUpstreamError(serviceName, fmt.Errorf("status %d", statusCode))
	}
}

// parseGraphQLError maps errors[].extensions.code to model.APIError.
func parseGraphQLError(e *gqlerror.Error) error {
	msg := e.Message
	if msg == "" {
		msg = "request rejected"
	}

	switch strings.ToUpper(extension(e, "code")) {
	case "NOT_FOUND":
		return &model.APIError{Code: model.CodeNotFound, Message: msg, StatusCode: http.StatusNotFound, Err: model.ErrNotFound}
	case "BAD_USER_INPUT", "VALIDATION_ERROR", "GRAPHQL_VALIDATION_FAILED":
		field := extension(e, "field")
		if field == "" {
			field = "request"
		}
		return model.NewValidationError(field, msg)
	case "UNAUTHENTICATED", "FORBIDDEN":
		return model.NewUnauthorizedError(msg)
	case "PAYMENT_FAILED":
		return model.NewPaymentError(msg)
	case "RATE_LIMITED":
		return model.NewRateLimitError(serviceName)
	default:
		return model.NewUpstreamError(serviceName, errors.New(msg))
	}
}

func extension(e *gqlerror.Error, key string) string {
	s, _ := e.Extensions[key].(string)
	return s
}
