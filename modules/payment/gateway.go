package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	nanoid "github.com/jaevor/go-nanoid"
)

// Gateway opens payment sessions with an external provider.
type Gateway interface {
	Name() string
	CreateSession(ctx context.Context, req SessionRequest) (string, error)
}

// SandboxTokenPrefix marks tokens issued without a real provider.
const SandboxTokenPrefix = "sbx_"

// SandboxGateway issues local tokens for development and tests.
type SandboxGateway struct {
	generate func() string
}

// NewSandboxGateway creates a sandbox gateway.
func NewSandboxGateway() (*SandboxGateway, error) {
	gen, err := nanoid.Standard(21)
	if err != nil {
		return nil, fmt.Errorf("failed to create token generator: %w", err)
	}
	return &SandboxGateway{generate: gen}, nil
}

// Name returns the provider name.
func (g *SandboxGateway) Name() string { return "sandbox" }

// CreateSession returns a fresh sandbox token.
func (g *SandboxGateway) CreateSession(_ context.Context, _ SessionRequest) (string, error) {
	return SandboxTokenPrefix + g.generate(), nil
}

// HTTPGatewayConfig configures the HTTP gateway.
type HTTPGatewayConfig struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// HTTPGateway opens sessions by POSTing to a provider endpoint.
type HTTPGateway struct {
	config HTTPGatewayConfig
}

// NewHTTPGateway creates an HTTP gateway.
func NewHTTPGateway(config HTTPGatewayConfig) *HTTPGateway {
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	return &HTTPGateway{config: config}
}

// Name returns the provider name.
func (g *HTTPGateway) Name() string { return "http" }

type gatewaySessionRequest struct {
	Reference string `json:"reference"`
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
	Method    string `json:"method"`
}

type gatewaySessionResponse struct {
	Token     string `json:"token"`
	SessionID string `json:"session_id"`
	Error     string `json:"error"`
}

// CreateSession posts the order reference and amount and returns the provider's token.
func (g *HTTPGateway) CreateSession(ctx context.Context, req SessionRequest) (string, error) {
	timeout := g.config.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return "", context.DeadlineExceeded
	}

	agent := fiber.Post(g.config.URL)
	agent.Timeout(timeout)
	if g.config.APIKey != "" {
		agent.Set(fiber.HeaderAuthorization, "Bearer "+g.config.APIKey)
	}
	agent.JSON(gatewaySessionRequest{
		Reference: req.Reference,
		Amount:    req.Amount.StringFixed(2),
		Currency:  req.Currency,
		Method:    string(req.Method),
	})

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return "", fmt.Errorf("payment gateway request failed: %w", errors.Join(errs...))
	}

	var resp gatewaySessionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("payment gateway returned %d with unreadable body: %w", code, err)
	}
	if code < 200 || code >= 300 {
		if resp.Error != "" {
			return "", fmt.Errorf("payment gateway returned %d: %s", code, resp.Error)
		}
		return "", fmt.Errorf("payment gateway returned %d", code)
	}

	token := resp.Token
	if token == "" {
		token = resp.SessionID
	}
	if token == "" {
		return "", fmt.Errorf("payment gateway response has no session token")
	}
	return token, nil
}
