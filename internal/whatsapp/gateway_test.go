package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/jasirilabs/lats-backend/pkg/db/models"
	"github.com/jasirilabs/lats-backend/pkg/enums"
)

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func testInstance() *models.WhatsAppInstance {
	return &models.WhatsAppInstance{
		Name:        "warehouse",
		PhoneNumber: "+255700000001",
		Status:      enums.InstanceStatusConnected,
		APIToken:    "token-abc",
		BaseURL:     "http://bridge.test/v1/",
	}
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{},
	}
}

func TestGatewaySendMessageRequest(t *testing.T) {
	var capturedURL string
	var capturedAuth string

	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		capturedURL = req.URL.String()
		capturedAuth = req.Header.Get("Authorization")

		raw, err := io.ReadAll(req.Body)
		if err != nil {
			t.Fatalf("read request body: %v", err)
		}
		var payload map[string]any
		if err := json.Unmarshal(raw, &payload); err != nil {
			t.Fatalf("unmarshal request body: %v", err)
		}
		if payload["recipient"] != "+255700000002" {
			t.Fatalf("unexpected recipient %q", payload["recipient"])
		}
		if payload["body"] != "order 1042 has arrived" {
			t.Fatalf("unexpected body %q", payload["body"])
		}

		return jsonResponse(http.StatusAccepted, `{"id":"m-1"}`), nil
	})

	client := NewGatewayClient(WithGatewayHTTPClient(&http.Client{Transport: rt}))
	err := client.SendMessage(context.Background(), testInstance(), "+255700000002", "order 1042 has arrived")
	if err != nil {
		t.Fatalf("send message: %v", err)
	}
	if capturedURL != "http://bridge.test/v1/messages" {
		t.Fatalf("unexpected URL %q", capturedURL)
	}
	if capturedAuth != "Bearer token-abc" {
		t.Fatalf("unexpected authorization header %q", capturedAuth)
	}
}

func TestGatewaySendMessageDecodesError(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusConflict, `{"error":{"code":"queue_full","message":"too many pending messages"}}`), nil
	})

	client := NewGatewayClient(WithGatewayHTTPClient(&http.Client{Transport: rt}))
	err := client.SendMessage(context.Background(), testInstance(), "+255700000002", "hello")
	if err == nil {
		t.Fatal("expected error")
	}

	var gwErr *GatewayError
	if !errors.As(err, &gwErr) {
		t.Fatalf("expected GatewayError, got %T", err)
	}
	if gwErr.Code != "queue_full" {
		t.Fatalf("unexpected code %q", gwErr.Code)
	}
	if gwErr.StatusCode != http.StatusConflict {
		t.Fatalf("unexpected status %d", gwErr.StatusCode)
	}
}

func TestGatewayInstanceStatus(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if req.URL.String() != "http://bridge.test/v1/status" {
			t.Fatalf("unexpected URL %q", req.URL.String())
		}
		return jsonResponse(http.StatusOK, `{"status":"connected"}`), nil
	})

	client := NewGatewayClient(WithGatewayHTTPClient(&http.Client{Transport: rt}))
	status, err := client.InstanceStatus(context.Background(), testInstance())
	if err != nil {
		t.Fatalf("instance status: %v", err)
	}
	if status != enums.InstanceStatusConnected {
		t.Fatalf("unexpected status %q", status)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"nil", nil, false},
		{"queue full", &GatewayError{StatusCode: 409, Code: "queue_full"}, true},
		{"not connected", &GatewayError{StatusCode: 409, Code: "not_connected"}, true},
		{"bad recipient", &GatewayError{StatusCode: 400, Code: "invalid_recipient"}, false},
		{"unauthorized", &GatewayError{StatusCode: 401}, false},
		{"server error", &GatewayError{StatusCode: 503}, true},
		{"transport failure", errors.New("dial tcp: connection refused"), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.err); got != tc.retryable {
				t.Fatalf("Classify(%v) = %v, want %v", tc.err, got, tc.retryable)
			}
		})
	}
}
