package telephony

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const (
	DefaultVapiBaseURL = "https://api.vapi.ai"
	defaultVapiTimeout = 30 * time.Second
)

// VapiConfig configures the Vapi adapter.
type VapiConfig struct {
	BaseURL       string
	APIKey        string
	PhoneNumberID string
	AssistantID   string
	Timeout       time.Duration
}

var (
	ErrMissingAPIKey        = errors.New("vapi API key is not configured")
	ErrMissingPhoneNumberID = errors.New("vapi phone number ID is not configured")
)

// VapiProvider talks to the Vapi REST API.
type VapiProvider struct {
	config VapiConfig
	client *http.Client
}

// NewVapiProvider validates config and builds the adapter.
func NewVapiProvider(config VapiConfig) (*VapiProvider, error) {
	if config.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	if config.PhoneNumberID == "" {
		return nil, ErrMissingPhoneNumberID
	}

	if config.BaseURL == "" {
		config.BaseURL = DefaultVapiBaseURL
	}

	if config.Timeout <= 0 {
		config.Timeout = defaultVapiTimeout
	}

	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	return &VapiProvider{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}, nil
}

func (p *VapiProvider) Name() string {
	return "vapi"
}

type vapiCustomer struct {
	Number string `json:"number"`
}

type vapiCallRequest struct {
	PhoneNumberID string       `json:"phoneNumberId"`
	Customer      vapiCustomer `json:"customer"`
	AssistantID   string       `json:"assistantId,omitempty"`
}

// Dispatch starts an outbound phone call.
func (p *VapiProvider) Dispatch(ctx context.Context, req DispatchRequest) (DispatchResult, error) {
	assistant := req.AssistantRef
	if assistant == "" {
		assistant = p.config.AssistantID
	}

	payload, err := json.Marshal(vapiCallRequest{
		PhoneNumberID: p.config.PhoneNumberID,
		Customer:      vapiCustomer{Number: req.ToNumber},
		AssistantID:   assistant,
	})
	if err != nil {
		return DispatchResult{}, fmt.Errorf("failed to encode call request: %w", err)
	}

	body, err := p.do(ctx, "dispatch", http.MethodPost, "/call/phone", payload)
	if err != nil {
		return DispatchResult{}, err
	}

	callID := gjson.GetBytes(body, "id").String()
	if callID == "" {
		return DispatchResult{}, &APIError{Op: "dispatch", StatusCode: http.StatusOK, Message: "response has no call id"}
	}

	return DispatchResult{
		CallID: callID,
		Status: Status(gjson.GetBytes(body, "status").String()),
	}, nil
}

// CallStatus fetches the current state of a call.
func (p *VapiProvider) CallStatus(ctx context.Context, callID string) (CallStatus, error) {
	if callID == "" {
		return CallStatus{}, ErrCallIDRequired
	}

	body, err := p.do(ctx, "status", http.MethodGet, "/call/"+url.PathEscape(callID), nil)
	if err != nil {
		return CallStatus{}, err
	}

	return parseCallStatus(callID, body), nil
}

// parseCallStatus reads the fields the engine needs. The transcript falls
// back to the message log when the provider has not produced one yet.
func parseCallStatus(callID string, body []byte) CallStatus {
	result := gjson.ParseBytes(body)

	status := CallStatus{
		CallID:      callID,
		Status:      Status(result.Get("status").String()),
		Transcript:  firstString(result, "transcript", "artifact.transcript"),
		Summary:     firstString(result, "summary", "analysis.summary"),
		Duration:    result.Get("duration").Float(),
		EndedReason: result.Get("endedReason").String(),
	}

	if id := result.Get("id").String(); id != "" {
		status.CallID = id
	}

	if status.Transcript == "" {
		var lines []string

		for _, content := range result.Get("messages.#.content").Array() {
			if text := content.String(); text != "" {
				lines = append(lines, text)
			}
		}

		status.Transcript = strings.Join(lines, "\n")
	}

	return status
}

func firstString(result gjson.Result, paths ...string) string {
	for _, path := range paths {
		if value := result.Get(path).String(); value != "" {
			return value
		}
	}

	return ""
}

func (p *VapiProvider) do(ctx context.Context, op, method, path string, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.config.BaseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+p.config.APIKey)

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", op, err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Op: op, StatusCode: resp.StatusCode, Message: errorMessage(body)}
	}

	return body, nil
}

// errorMessage extracts the provider message from an error body, which may
// be JSON with a message field or plain text.
func errorMessage(body []byte) string {
	if gjson.ValidBytes(body) {
		message := gjson.GetBytes(body, "message")
		if message.IsArray() {
			parts := make([]string, 0, len(message.Array()))
			for _, part := range message.Array() {
				parts = append(parts, part.String())
			}

			return strings.Join(parts, "; ")
		}

		if text := message.String(); text != "" {
			return text
		}

		if text := gjson.GetBytes(body, "error").String(); text != "" {
			return text
		}
	}

	return strings.TrimSpace(string(body))
}
