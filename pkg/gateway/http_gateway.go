package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"chatbot-widget/internal/constant"
	"chatbot-widget/internal/dto"
	"chatbot-widget/internal/pkg/logger"

	"github.com/go-playground/validator/v10"
)

const maxResponseBytes = 1 << 20

type HTTPGateway struct {
	ChatURL  string
	CloseURL string
	Client   *http.Client

	logger   logger.ILogger
	validate *validator.Validate
}

var _ Gateway = &HTTPGateway{}

// NewHTTPGateway posts turns to <baseURL>/<apiRoute> and close notifications
// to <baseURL>/api/v1/chat/close.
func NewHTTPGateway(baseURL, apiRoute string, timeout time.Duration, log logger.ILogger) *HTTPGateway {
	if apiRoute == "" {
		apiRoute = constant.DefaultAPIRoute
	}
	return &HTTPGateway{
		ChatURL:  joinURL(baseURL, apiRoute),
		CloseURL: joinURL(baseURL, constant.CloseSessionRoute),
		Client: &http.Client{
			Timeout: timeout,
		},
		logger:   log,
		validate: validator.New(),
	}
}

func joinURL(base, route string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(route, "/")
}

func (g *HTTPGateway) SendTurn(ctx context.Context, req dto.ChatRequest) (*dto.ChatResponse, error) {
	if err := g.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid chat request: %w", err)
	}

	status, body, err := g.post(ctx, g.ChatURL, req)
	if err != nil {
		return nil, err
	}

	if status < 200 || status > 299 {
		// A structured failure body is still a backend answer.
		if resp, ok := decodeStructured(body); ok {
			g.logger.Warn("Gateway", "Backend answered with an error status", map[string]interface{}{
				"status":  status,
				"success": resp.Success,
			})
			return resp, nil
		}
		return nil, fmt.Errorf("%w: HTTP error: %d %s", ErrTransport, status, http.StatusText(status))
	}

	var resp dto.ChatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return &resp, nil
}

func (g *HTTPGateway) CloseSession(ctx context.Context, req dto.CloseSessionRequest) error {
	if err := g.validate.Struct(req); err != nil {
		return fmt.Errorf("invalid close request: %w", err)
	}

	status, _, err := g.post(ctx, g.CloseURL, req)
	if err != nil {
		return err
	}
	if status < 200 || status > 299 {
		return fmt.Errorf("%w: HTTP error: %d %s", ErrTransport, status, http.StatusText(status))
	}
	return nil
}

func (g *HTTPGateway) post(ctx context.Context, url string, payload interface{}) (int, []byte, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.Client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("%w: read body: %v", ErrTransport, err)
	}
	return resp.StatusCode, body, nil
}

// decodeStructured accepts a body only when it is a JSON object carrying a
// success flag.
func decodeStructured(body []byte) (*dto.ChatResponse, bool) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(body, &keys); err != nil {
		return nil, false
	}
	if _, ok := keys["success"]; !ok {
		return nil, false
	}
	var resp dto.ChatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, false
	}
	return &resp, true
}
