package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jasirilabs/lats-backend/pkg/db/models"
	"github.com/jasirilabs/lats-backend/pkg/enums"
	pkgerrors "github.com/jasirilabs/lats-backend/pkg/errors"
)

const gatewayBodyReadLimit = 64 * 1024

// Gateway error codes returned by the WhatsApp bridge.
const (
	gatewayCodeQueueFull    = "queue_full"
	gatewayCodeNotConnected = "not_connected"
)

// Gateway sends outbound messages through a WhatsApp bridge instance.
type Gateway interface {
	SendMessage(ctx context.Context, instance *models.WhatsAppInstance, recipient, body string) error
	InstanceStatus(ctx context.Context, instance *models.WhatsAppInstance) (enums.InstanceStatus, error)
}

// GatewayError is a structured rejection from the bridge API.
type GatewayError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *GatewayError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("gateway rejected request (%d %s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("gateway rejected request (%d): %s", e.StatusCode, e.Message)
}

// Classify reports whether a failed send is worth retrying. Transport
// failures and gateway backpressure (queue full, instance momentarily
// disconnected, 5xx) are transient; every other 4xx rejection is final.
func Classify(err error) bool {
	if err == nil {
		return false
	}
	var gwErr *GatewayError
	if !errors.As(err, &gwErr) {
		// Network or timeout failure before the bridge answered.
		return true
	}
	switch gwErr.Code {
	case gatewayCodeQueueFull, gatewayCodeNotConnected:
		return true
	}
	return gwErr.StatusCode >= http.StatusInternalServerError
}

// GatewayClient talks to the bridge REST API. Base URL and token are per
// instance, so a single client serves every registered instance.
type GatewayClient struct {
	httpClient *http.Client
}

// GatewayOption customizes the gateway client.
type GatewayOption func(*GatewayClient)

// WithGatewayHTTPClient swaps the underlying HTTP client.
func WithGatewayHTTPClient(httpClient *http.Client) GatewayOption {
	return func(c *GatewayClient) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// NewGatewayClient builds a bridge client with sane timeouts.
func NewGatewayClient(opts ...GatewayOption) *GatewayClient {
	client := &GatewayClient{
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

type sendMessageRequest struct {
	Recipient string `json:"recipient"`
	Body      string `json:"body"`
}

type gatewayErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// SendMessage posts one outbound message to the instance's bridge.
func (c *GatewayClient) SendMessage(ctx context.Context, instance *models.WhatsAppInstance, recipient, body string) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "whatsapp gateway client not configured")
	}
	if instance == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "whatsapp instance is required")
	}

	payload, err := json.Marshal(sendMessageRequest{Recipient: recipient, Body: body})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal send request")
	}

	resp, err := c.do(ctx, instance, http.MethodPost, "messages", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return nil
	}
	return decodeGatewayError(resp)
}

// InstanceStatus asks the bridge whether the session is live.
func (c *GatewayClient) InstanceStatus(ctx context.Context, instance *models.WhatsAppInstance) (enums.InstanceStatus, error) {
	if c == nil {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "whatsapp gateway client not configured")
	}
	if instance == nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "whatsapp instance is required")
	}

	resp, err := c.do(ctx, instance, http.MethodGet, "status", nil)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", decodeGatewayError(resp)
	}

	var status struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, gatewayBodyReadLimit)).Decode(&status); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode status response")
	}
	if status.Status == string(enums.InstanceStatusConnected) {
		return enums.InstanceStatusConnected, nil
	}
	return enums.InstanceStatusDisconnected, nil
}

func (c *GatewayClient) do(ctx context.Context, instance *models.WhatsAppInstance, method, path string, body io.Reader) (*http.Response, error) {
	base := strings.TrimSpace(instance.BaseURL)
	if base == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "whatsapp instance has no base URL")
	}
	url := strings.TrimRight(base, "/") + "/" + path

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build gateway request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+instance.APIToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute gateway request: %w", err)
	}
	return resp, nil
}

func decodeGatewayError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, gatewayBodyReadLimit))
	gwErr := &GatewayError{StatusCode: resp.StatusCode}

	var parsed gatewayErrorResponse
	if err := json.Unmarshal(raw, &parsed); err == nil && parsed.Error.Message != "" {
		gwErr.Code = parsed.Error.Code
		gwErr.Message = parsed.Error.Message
		return gwErr
	}
	gwErr.Message = strings.TrimSpace(string(raw))
	if gwErr.Message == "" {
		gwErr.Message = http.StatusText(resp.StatusCode)
	}
	return gwErr
}
