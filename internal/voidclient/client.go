package voidclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/park285/void-chess/pkg/chessdto"
)

// HeaderProvider allows injecting per-request headers
type HeaderProvider func() map[string]string

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status int
	Err    chessdto.DomainError
}

func (e *APIError) Error() string {
	return fmt.Sprintf("void-chess api error: status=%d code=%s message=%s", e.Status, e.Err.Code, e.Err.Message)
}

type Client struct {
	baseURL string
	http    *fasthttp.Client
	headers HeaderProvider

	defaultTimeout time.Duration
	retryMax       int
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.defaultTimeout = d }
}

func WithMaxConnsPerHost(n int) Option {
	return func(c *Client) { c.http.MaxConnsPerHost = n }
}

func WithHeaderProvider(h HeaderProvider) Option {
	return func(c *Client) { c.headers = h }
}

func WithRetry(max int) Option {
	return func(c *Client) { c.retryMax = max }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 16},
		defaultTimeout: 10 * time.Second,
		retryMax:       3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func sessionPath(id, suffix string) string {
	return "/api/sessions/" + url.PathEscape(strings.TrimSpace(id)) + suffix
}

func (c *Client) NewGame(ctx context.Context, req chessdto.StartSessionRequest) (*chessdto.SessionState, error) {
	var out chessdto.SessionState
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/api/sessions", req, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Status(ctx context.Context, sessionID string) (*chessdto.SessionState, error) {
	var out chessdto.SessionState
	if err := c.doJSON(ctx, fasthttp.MethodGet, sessionPath(sessionID, ""), nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Select(ctx context.Context, sessionID, square string) (*chessdto.Selection, error) {
	var out chessdto.Selection
	if err := c.doJSON(ctx, fasthttp.MethodPost, sessionPath(sessionID, "/select"), chessdto.SelectRequest{Square: square}, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Move(ctx context.Context, sessionID, from, to string) (*chessdto.MoveSummary, error) {
	var out chessdto.MoveSummary
	if err := c.doJSON(ctx, fasthttp.MethodPost, sessionPath(sessionID, "/move"), chessdto.MoveRequest{From: from, To: to}, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Promote(ctx context.Context, sessionID, piece string) (*chessdto.MoveSummary, error) {
	var out chessdto.MoveSummary
	if err := c.doJSON(ctx, fasthttp.MethodPost, sessionPath(sessionID, "/promote"), chessdto.PromoteRequest{Piece: piece}, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Hint(ctx context.Context, sessionID string) (*chessdto.HintResponse, error) {
	var out chessdto.HintResponse
	if err := c.doJSON(ctx, fasthttp.MethodPost, sessionPath(sessionID, "/hint"), nil, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Reset(ctx context.Context, sessionID string) (*chessdto.SessionState, error) {
	var out chessdto.SessionState
	if err := c.doJSON(ctx, fasthttp.MethodPost, sessionPath(sessionID, "/reset"), nil, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Settings(ctx context.Context, sessionID string, req chessdto.SettingsRequest) (*chessdto.SessionState, error) {
	var out chessdto.SessionState
	if err := c.doJSON(ctx, fasthttp.MethodPost, sessionPath(sessionID, "/settings"), req, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) History(ctx context.Context) (*chessdto.HistoryResponse, error) {
	var out chessdto.HistoryResponse
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/api/history", nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// Sessions lists the live games known to the server.
func (c *Client) Sessions(ctx context.Context) (*chessdto.ActiveSessionsResponse, error) {
	var out chessdto.ActiveSessionsResponse
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/api/sessions", nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) StoredGames(ctx context.Context, limit int) (*chessdto.StoredGamesResponse, error) {
	path := "/api/games"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out chessdto.StoredGamesResponse
	if err := c.doJSON(ctx, fasthttp.MethodGet, path, nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) StoredGame(ctx context.Context, gameID string) (*chessdto.ChessGame, error) {
	var out chessdto.ChessGame
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/api/history/"+url.PathEscape(strings.TrimSpace(gameID)), nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// BoardPNG downloads the rendered board. An empty theme keeps the session's.
func (c *Client) BoardPNG(ctx context.Context, sessionID, theme string) ([]byte, error) {
	path := sessionPath(sessionID, "/board.png")
	if theme = strings.TrimSpace(theme); theme != "" {
		path += "?theme=" + url.QueryEscape(theme)
	}
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()
	req.Header.SetMethod(fasthttp.MethodGet)
	req.SetRequestURI(c.baseURL + path)
	c.applyHeaders(req)
	if err := c.http.DoDeadline(req, resp, c.computeDeadline(ctx)); err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if status := resp.StatusCode(); status != fasthttp.StatusOK {
		return nil, decodeAPIError(status, resp.Body())
	}
	return append([]byte(nil), resp.Body()...), nil
}

func (c *Client) Healthz(ctx context.Context) error {
	return c.doJSON(ctx, fasthttp.MethodGet, "/healthz", nil, nil, true)
}

func (c *Client) applyHeaders(req *fasthttp.Request) {
	if c.headers == nil {
		return
	}
	for k, v := range c.headers() {
		if strings.TrimSpace(k) != "" && strings.TrimSpace(v) != "" {
			req.Header.Set(k, v)
		}
	}
}

// doJSON retries network errors and 5xx answers only when retry is set.
// Callers set it for reads.
func (c *Client) doJSON(ctx context.Context, method, path string, in any, out any, retry bool) error {
	target := c.baseURL + path
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(method)
	req.SetRequestURI(target)
	req.Header.SetContentType("application/json")
	c.applyHeaders(req)

	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		req.SetBody(payload)
	}

	attempts := 1
	if retry {
		attempts = c.retryMax
		if attempts <= 0 {
			attempts = 1
		}
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		deadline := c.computeDeadline(ctx)
		err := c.http.DoDeadline(req, resp, deadline)
		if err != nil {
			if attempt == attempts || !retry {
				return fmt.Errorf("request failed: %w", err)
			}
			lastErr = err
			if sleepErr := c.sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return lastErr
			}
			continue
		}

		status := resp.StatusCode()
		if status < 200 || status >= 300 {
			err := decodeAPIError(status, resp.Body())
			if attempt == attempts || !retry || !shouldRetryStatus(status) {
				return err
			}
			lastErr = err
			if sleepErr := c.sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return lastErr
			}
			continue
		}

		if out != nil {
			if err := json.Unmarshal(resp.Body(), out); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
		}
		return nil
	}

	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return lastErr
}

func decodeAPIError(status int, body []byte) error {
	var payload chessdto.ErrorResponse
	if err := json.Unmarshal(body, &payload); err != nil || payload.Error.Code == "" {
		return &APIError{Status: status, Err: chessdto.DomainError{Code: chessdto.CodeInternal, Message: truncate(string(body), 512)}}
	}
	return &APIError{Status: status, Err: payload.Error}
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	if dl, ok := ctx.Deadline(); ok {
		clientDL := time.Now().Add(c.defaultTimeout)
		if dl.Before(clientDL) {
			return dl
		}
		return clientDL
	}
	return time.Now().Add(c.defaultTimeout)
}

func (c *Client) sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func backoffDuration(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	base := 100 * time.Millisecond
	return time.Duration(1<<uint(attempt-1)) * base // 100ms, 200ms ...
}

func shouldRetryStatus(code int) bool {
	switch code {
	case 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
