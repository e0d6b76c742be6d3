// Package transport implements the thin HTTP capability layer the
// platform client is built on: get/post/patch/binary_post, a cached
// bearer token, and outbound rate limiting (spec §4.6).
package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/valyala/fasthttp"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// ErrTransport is the sentinel wrapped by every transport-level failure
// (the reference implementation's "-1" status code becomes a Go error
// instead of a sentinel int).
var ErrTransport = errors.New("transport failure")

// Response is the outcome of a single request.
type Response struct {
	Status int
	Body   []byte
}

// Transport issues HTTP requests against one platform base URL. It
// caches a bearer token set by Platform.Auth and is safe for concurrent
// use; fasthttp.Client itself pools connections internally.
type Transport struct {
	client  *fasthttp.Client
	baseURL string
	limiter *rate.Limiter

	mu    sync.RWMutex
	token *oauth2.Token
}

// Option configures a Transport at construction time.
type Option func(*Transport)

// WithRateLimit caps outbound requests to rps per second with the given
// burst allowance. Without this option the transport is unlimited.
func WithRateLimit(rps float64, burst int) Option {
	return func(t *Transport) {
		t.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// New constructs a Transport against baseURL.
func New(baseURL string, opts ...Option) *Transport {
	t := &Transport{
		client:  &fasthttp.Client{Name: "touca-go"},
		baseURL: baseURL,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// SetToken caches tok for use as a bearer credential on subsequent
// requests. The reference requires the token be set before any
// authenticated call; callers that skip it simply get unauthenticated
// requests, matching the reference's lack of an explicit guard here.
func (t *Transport) SetToken(tok *oauth2.Token) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.token = tok
}

func (t *Transport) currentToken() *oauth2.Token {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.token
}

func (t *Transport) wait(ctx context.Context) error {
	if t.limiter == nil {
		return nil
	}
	return t.limiter.Wait(ctx)
}

func (t *Transport) do(ctx context.Context, method, path string, body []byte, contentType string) (Response, error) {
	if err := t.wait(ctx); err != nil {
		return Response{}, fmt.Errorf("%w: rate limiter: %v", ErrTransport, err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(t.baseURL + path)
	req.Header.SetMethod(method)
	if body != nil {
		req.SetBody(body)
	}
	if contentType != "" {
		req.Header.SetContentType(contentType)
	}
	if tok := t.currentToken(); tok != nil && tok.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	}

	deadline, hasDeadline := ctx.Deadline()
	var err error
	if hasDeadline {
		err = t.client.DoDeadline(req, resp, deadline)
	} else {
		err = t.client.Do(req, resp)
	}
	if err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	out := Response{Status: resp.StatusCode()}
	out.Body = append(out.Body, resp.Body()...)
	return out, nil
}

// Get issues a GET request against path.
func (t *Transport) Get(ctx context.Context, path string) (Response, error) {
	return t.do(ctx, fasthttp.MethodGet, path, nil, "")
}

// Post issues a POST request with a JSON body against path.
func (t *Transport) Post(ctx context.Context, path string, body []byte) (Response, error) {
	return t.do(ctx, fasthttp.MethodPost, path, body, "application/json")
}

// Patch issues a PATCH request with a JSON body against path.
func (t *Transport) Patch(ctx context.Context, path string, body []byte) (Response, error) {
	return t.do(ctx, fasthttp.MethodPatch, path, body, "application/json")
}

// BinaryPost issues a POST request carrying an opaque binary payload
// (the encoded Messages batch) against path.
func (t *Transport) BinaryPost(ctx context.Context, path string, payload []byte) (Response, error) {
	return t.do(ctx, fasthttp.MethodPost, path, payload, "application/octet-stream")
}

// defaultRequestSpacing is a small backoff between attempts. Nothing
// in the module reads it; Platform.Submit's retry loop spaces its
// attempts by its own attempt×100ms schedule.
const defaultRequestSpacing = 200 * time.Millisecond
