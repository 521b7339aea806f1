package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// APIError is a non-2xx response from the expense service.
type APIError struct {
	HTTPStatus int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.HTTPStatus)
}

// Client is a thin HTTP client for the expense service API.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a client for the given host URL.
func NewClient(host string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(host, "/"),
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// envelope is the service's response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// Do performs a request against /api/<path> and unwraps the response
// envelope. On a failed response it returns an *APIError carrying the
// status and the service's error message.
func (c *Client) Do(method, path string, query url.Values, body interface{}) (json.RawMessage, error) {
	u := c.BaseURL + "/api" + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &APIError{HTTPStatus: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
	}
	if resp.StatusCode >= 400 || !env.Success {
		return nil, &APIError{HTTPStatus: resp.StatusCode, Message: env.Error}
	}
	return env.Data, nil
}

// User mirrors the service's user representation.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// ApprovalStep mirrors one entry of an expense's approval history.
type ApprovalStep struct {
	ApproverID   string `json:"approverId"`
	ApproverName string `json:"approverName"`
	Status       string `json:"status"`
	Timestamp    int64  `json:"timestamp"`
	Notes        string `json:"notes,omitempty"`
}

// Expense mirrors the service's expense representation.
type Expense struct {
	ID          string         `json:"id"`
	UserID      string         `json:"userId"`
	Merchant    string         `json:"merchant"`
	Amount      float64        `json:"amount"`
	Currency    string         `json:"currency"`
	Date        int64          `json:"date"`
	Description string         `json:"description"`
	Status      string         `json:"status"`
	Category    string         `json:"category"`
	ReceiptURL  string         `json:"receiptUrl,omitempty"`
	History     []ApprovalStep `json:"history"`
}
