// Package remote talks to the record store REST API. Calls are never retried
// here; the caller decides what to do with a failure.
package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Dhoini/customer-console/internal/domain"
	"github.com/Dhoini/customer-console/internal/metrics"
	"github.com/Dhoini/customer-console/pkg/logger"
	"github.com/Dhoini/customer-console/pkg/req"
	"github.com/Dhoini/customer-console/pkg/res"
)

// Kind names a remote collection
type Kind string

const (
	Customers    Kind = "customers"
	Packages     Kind = "packages"
	Transactions Kind = "transactions"
	Users        Kind = "users"
)

// Operation names used in errors, logs and metrics
const (
	OpList         = "list"
	OpCreate       = "create"
	OpUpdate       = "update"
	OpDelete       = "delete"
	OpAuthenticate = "authenticate"
)

// Client is a JSON client for the record store
type Client struct {
	baseURL string
	http    *http.Client
	log     *logger.Logger
	metrics metrics.ConsoleMetrics
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithMetrics records call durations
func WithMetrics(m metrics.ConsoleMetrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient creates a record store client for baseURL
func NewClient(baseURL string, timeout time.Duration, log *logger.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log,
		metrics: metrics.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// call describes one request against a collection
type call struct {
	op     string
	kind   Kind
	id     string
	method string
	query  url.Values
	body   any
}

func (c *call) path() string {
	p := "/" + string(c.kind)
	if c.id != "" {
		p += "/" + url.PathEscape(c.id)
	}
	if len(c.query) > 0 {
		p += "?" + c.query.Encode()
	}
	return p
}

// do executes the call and returns the raw response body of a 2xx answer.
// Every failure is a *domain.RemoteError.
func (c *Client) do(ctx context.Context, cl call) ([]byte, error) {
	start := time.Now()
	payload, err := c.roundTrip(ctx, cl)

	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = metrics.OutcomeFailure
	}
	c.metrics.ObserveRemoteCall(string(cl.kind), cl.op, outcome, time.Since(start).Seconds())

	if err != nil {
		c.log.Warnw("Record store call failed", "op", cl.op, "entity", cl.kind, "id", cl.id, "error", err)
		return nil, err
	}
	c.log.Debugw("Record store call succeeded", "op", cl.op, "entity", cl.kind, "id", cl.id, "latency", time.Since(start))
	return payload, nil
}

func (c *Client) roundTrip(ctx context.Context, cl call) ([]byte, error) {
	fail := func(kind domain.ErrorKind, status int, msg string, err error) error {
		return domain.NewRemoteError(kind, cl.op, string(cl.kind), cl.id, status, msg, err)
	}

	body, err := req.Encode(cl.body)
	if err != nil {
		return nil, fail(domain.KindNetwork, 0, "encode request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path(), body)
	if err != nil {
		return nil, fail(domain.KindNetwork, 0, "build request", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fail(domain.KindNetwork, 0, "", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fail(domain.KindNetwork, resp.StatusCode, "read response", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return payload, nil
	}
	return nil, fail(classify(resp.StatusCode), resp.StatusCode, res.DecodeError(payload), nil)
}

// classify maps an unsuccessful HTTP status onto the error taxonomy
func classify(status int) domain.ErrorKind {
	switch status {
	case http.StatusNotFound:
		return domain.KindNotFound
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		return domain.KindValidationRejected
	default:
		return domain.KindNetwork
	}
}

// decode unmarshals a successful payload, reporting malformed bodies as network errors
func decode[T any](cl call, payload []byte) (T, error) {
	out, err := res.Decode[T](bytes.NewReader(payload))
	if err != nil {
		var zero T
		return zero, domain.NewRemoteError(domain.KindNetwork, cl.op, string(cl.kind), cl.id, 0, "malformed response body", err)
	}
	return out, nil
}

// Authenticate looks the credentials up in /users. A non-empty result means
// the user is authenticated; an empty one returns domain.ErrUnauthenticated.
func (c *Client) Authenticate(ctx context.Context, username, password string) (domain.User, error) {
	cl := call{
		op:     OpAuthenticate,
		kind:   Users,
		method: http.MethodGet,
		query:  url.Values{"username": {username}, "password": {password}},
	}

	payload, err := c.do(ctx, cl)
	if err != nil {
		return domain.User{}, err
	}

	users, err := decode[[]domain.User](cl, payload)
	if err != nil {
		return domain.User{}, err
	}
	if len(users) == 0 {
		return domain.User{}, fmt.Errorf("user %q: %w", username, domain.ErrUnauthenticated)
	}
	return users[0], nil
}

// IsRemote reports whether err came from the record store
func IsRemote(err error) bool {
	var remoteErr *domain.RemoteError
	return errors.As(err, &remoteErr)
}
