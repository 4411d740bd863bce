package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// CustomerInfo carries the customer-supplied checkout form fields, passed
// through to the order endpoint as-is.
type CustomerInfo struct {
	FirstName  string `json:"fname"      validate:"required"`
	LastName   string `json:"lname"      validate:"required"`
	Street     string `json:"street"     validate:"required"`
	City       string `json:"city"       validate:"required"`
	State      string `json:"state"      validate:"required"`
	Zip        string `json:"zip"        validate:"required"`
	CardNumber string `json:"cardNumber" validate:"required"`
	Expiration string `json:"expiration" validate:"required"`
	Code       string `json:"code"       validate:"required"`
}

// OrderPayload is the JSON body posted to the order submission endpoint.
type OrderPayload struct {
	OrderDate  string          `json:"orderDate"`
	OrderTotal float64         `json:"orderTotal"`
	Tax        float64         `json:"tax"`
	Shipping   float64         `json:"shipping"`
	Items      []SubmittedItem `json:"items"`
	CustomerInfo
}

// SubmitResponse is the order endpoint's success body.
type SubmitResponse struct {
	OrderID int64  `json:"orderId,omitempty"`
	Message string `json:"message,omitempty"`
}

// Submitter posts a finished order to the external order endpoint.
type Submitter interface {
	Submit(ctx context.Context, payload OrderPayload) (*SubmitResponse, error)
}

// HTTPSubmitter implements Submitter against an HTTP/JSON order endpoint.
type HTTPSubmitter struct {
	client   *http.Client
	endpoint string
	logger   *slog.Logger
}

// NewHTTPSubmitter creates a Submitter posting to the given endpoint URL.
func NewHTTPSubmitter(endpoint string, timeout time.Duration, logger *slog.Logger) *HTTPSubmitter {
	return &HTTPSubmitter{
		client:   &http.Client{Timeout: timeout},
		endpoint: endpoint,
		logger:   logger.With("component", "submitter"),
	}
}

// Submit posts the order payload. Any non-2xx response is reported as
// ErrSubmissionRejected carrying the server's message when one is available.
func (s *HTTPSubmitter) Submit(ctx context.Context, payload OrderPayload) (*SubmitResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode order payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create order request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("order endpoint unreachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read order response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s", ErrSubmissionRejected, serverMessage(respBody, resp.StatusCode))
	}

	var result SubmitResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		// A 2xx with an unparseable body is still a success.
		s.logger.Warn("Order endpoint returned a non-JSON success body")
	}
	return &result, nil
}

// serverMessage extracts a human-readable message from an error response.
func serverMessage(body []byte, status int) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return fmt.Sprintf("order endpoint responded with status %d", status)
}
