package hotelapi

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"paraiso_verde/internal/adapters/observability"
	"paraiso_verde/internal/domain"
)

var (
	ErrNotFound     = errors.New("hotelapi: not found")
	ErrUnauthorized = errors.New("hotelapi: unauthorized")
	ErrForbidden    = errors.New("hotelapi: forbidden")
)

// APIError is a non-2xx answer. Message is the API's own text when it sent
// one, so it can be shown to the visitor as is.
type APIError struct {
	Status  int
	Message string

	fromBody bool
}

func (e *APIError) Error() string { return e.Message }

func (e *APIError) HTTPStatus() int { return e.Status }

// UserMessage is the API's own text, empty when it sent none.
func (e *APIError) UserMessage() string {
	if e.fromBody {
		return e.Message
	}
	return ""
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrForbidden:
		return e.Status == http.StatusForbidden
	}
	return false
}

type Options struct {
	RPS         int
	Timeout     time.Duration
	MaxAttempts int // GETs only; 1 disables retries
}

type Client struct {
	base        string
	hc          *http.Client
	rl          *rate.Limiter
	maxAttempts int
}

func New(base string, o Options) (*Client, error) {
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("API base URL %q is not absolute", base)
	}
	if o.RPS <= 0 {
		o.RPS = 20
	}
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 1
	}
	return &Client{
		base:        strings.TrimRight(base, "/"),
		hc:          &http.Client{Timeout: o.Timeout},
		rl:          rate.NewLimiter(rate.Limit(o.RPS), o.RPS),
		maxAttempts: o.MaxAttempts,
	}, nil
}

// envelope is the API's response wrapper.
type envelope struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Token   string          `json:"token"`
}

// call describes one request. endpoint is the path template used as the
// metrics label ("/api/habitaciones/{id}").
type call struct {
	method      string
	endpoint    string
	path        string
	query       url.Values
	body        []byte
	contentType string
}

type result struct {
	env    envelope
	raw    []byte
	header http.Header
}

func jsonCall(method, endpoint, path string, v any) (call, error) {
	c := call{method: method, endpoint: endpoint, path: path}
	if v != nil {
		b, err := json.Marshal(v)
		if err != nil {
			return c, err
		}
		c.body = b
		c.contentType = "application/json"
	}
	return c, nil
}

// do sends the call under the client-side rate limit and decodes the envelope.
// GETs are retried on 429 and transient 5xx up to maxAttempts, honoring
// Retry-After when provided.
func (c *Client) do(ctx context.Context, cl call, out any) (*result, error) {
	attempts := 1
	if cl.method == http.MethodGet {
		attempts = c.maxAttempts
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		// every attempt, retries included, takes a token
		if err := c.rl.Wait(ctx); err != nil {
			return nil, err
		}
		res, retry, err := c.once(ctx, cl, out)
		if !retry {
			return res, err
		}
		lastErr = err
		wait := backoff(i)
		var ra *retryAfterErr
		if errors.As(err, &ra) {
			lastErr = ra.APIError
			if ra.wait > 0 {
				wait = ra.wait
			}
		}
		if i < attempts-1 && sleepCtx(ctx, wait) {
			continue
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		break
	}
	return nil, lastErr
}

type retryAfterErr struct {
	*APIError
	wait time.Duration
}

func (c *Client) once(ctx context.Context, cl call, out any) (res *result, retry bool, err error) {
	u := c.base + cl.path
	if len(cl.query) > 0 {
		u += "?" + cl.query.Encode()
	}
	var body io.Reader
	if cl.body != nil {
		body = bytes.NewReader(cl.body)
	}
	req, err := http.NewRequestWithContext(ctx, cl.method, u, body)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "paraiso-web/1.0")
	if cl.contentType != "" {
		req.Header.Set("Content-Type", cl.contentType)
	}
	creds := domain.CredentialsFrom(ctx)
	if creds.Cookie != "" {
		req.Header.Set("Cookie", creds.Cookie)
	}
	if creds.Token != "" {
		req.Header.Set("Authorization", "Bearer "+creds.Token)
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveAPI(cl.endpoint, cl.method, 0, time.Since(start))
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, fmt.Errorf("%s %s: %w", cl.method, cl.endpoint, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	observability.ObserveAPI(cl.endpoint, cl.method, resp.StatusCode, time.Since(start))
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", cl.endpoint, err)
	}

	res = &result{raw: raw, header: resp.Header}
	if len(bytes.TrimSpace(raw)) > 0 {
		// a non-JSON body leaves the envelope empty
		_ = json.Unmarshal(raw, &res.env)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Message: res.env.Message}
		if apiErr.Message == "" {
			apiErr.Message = res.env.Error
		}
		apiErr.fromBody = apiErr.Message != ""
		if apiErr.Message == "" {
			apiErr.Message = fmt.Sprintf("HTTP error! status: %d", resp.StatusCode)
		}
		switch resp.StatusCode {
		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return nil, true, &retryAfterErr{APIError: apiErr, wait: retryAfter(resp)}
		}
		return nil, false, apiErr
	}

	if out != nil && len(bytes.TrimSpace(raw)) > 0 {
		data := res.env.Data
		if len(data) == 0 && res.env.Message == "" && res.env.Token == "" {
			data = raw
		}
		if len(data) == 0 {
			return res, false, nil
		}
		if err := json.Unmarshal(data, out); err != nil {
			return nil, false, fmt.Errorf("decode %s: %w", cl.endpoint, err)
		}
	}
	return res, false, nil
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff doubles from 200ms per attempt with up to +50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}
