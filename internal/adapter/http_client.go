package adapter

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/adb3502/liims-sub002/internal/config"
	"github.com/adb3502/liims-sub002/internal/logger"
	"github.com/adb3502/liims-sub002/models"
)

// httpServerAdapter is the resty-backed implementation of [ServerAdapter].
type httpServerAdapter struct {
	client  *resty.Client
	hashKey string
	logger  *logger.Logger

	mu    sync.RWMutex
	token string
}

// NewHTTPServerAdapter constructs a [ServerAdapter] talking to the endpoint
// in cfg. Missing settings fall back to a local development server and a
// 15 second timeout.
func NewHTTPServerAdapter(cfg config.ClientAdapter, app config.ClientApp, log *logger.Logger) ServerAdapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8080"
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
	}

	cli := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.RequestTimeout)

	return &httpServerAdapter{client: cli, hashKey: app.HashKey, logger: log}
}

// SetToken stores the bearer token attached to subsequent requests.
func (h *httpServerAdapter) SetToken(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.token = strings.TrimSpace(token)
}

func (h *httpServerAdapter) Token() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token
}

// PushMutations submits one batch of queued mutations. Any failure to obtain
// a parseable 2xx response is wrapped in [TransportError] so the engine can
// distinguish it from per-mutation rejections inside the response body.
func (h *httpServerAdapter) PushMutations(ctx context.Context, req models.PushRequest) (models.PushResponse, error) {
	request := h.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req)

	if hash := computeTransportHash(req, h.hashKey); hash != "" {
		request.SetHeader("HashSHA256", hash)
	}

	resp, err := request.Post("/api/sync/push")
	if err != nil {
		return models.PushResponse{}, &TransportError{Op: "push", Err: err}
	}
	if err = mapHTTPError(resp); err != nil {
		return models.PushResponse{}, err
	}

	var pushResp models.PushResponse
	if err = json.Unmarshal(resp.Body(), &pushResp); err != nil {
		return models.PushResponse{}, &TransportError{Op: "push", Err: fmt.Errorf("decode push response: %w", err)}
	}

	if pushResp.Conflicts == nil {
		pushResp.Conflicts = []models.Conflict{}
	}
	if pushResp.Errors == nil {
		pushResp.Errors = []models.MutationError{}
	}

	return pushResp, nil
}

// Health checks server reachability. Any transport failure or non-2xx
// status maps to [ErrServerUnavailable].
func (h *httpServerAdapter) Health(ctx context.Context) error {
	resp, err := h.client.R().SetContext(ctx).Get("/api/health")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrServerUnavailable, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("%w: http %d", ErrServerUnavailable, resp.StatusCode())
	}

	return nil
}

func (h *httpServerAdapter) authedRequest(ctx context.Context) *resty.Request {
	req := h.client.R().SetContext(ctx)
	if token := h.Token(); token != "" {
		req.SetHeader("Authorization", "Bearer "+token)
	}
	return req
}

func mapHTTPError(resp *resty.Response) error {
	if resp.StatusCode() >= http.StatusOK && resp.StatusCode() < http.StatusMultipleChoices {
		return nil
	}

	if resp.StatusCode() == http.StatusUnauthorized {
		return &TransportError{Op: "push", Err: ErrUnauthorized}
	}

	body := strings.TrimSpace(string(resp.Body()))
	if body == "" {
		body = http.StatusText(resp.StatusCode())
	}
	return &TransportError{Op: "push", Err: fmt.Errorf("http %d: %s", resp.StatusCode(), body)}
}

func computeTransportHash(v any, key string) string {
	if key == "" {
		return ""
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	h := hmac.New(sha256.New, []byte(key))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}
