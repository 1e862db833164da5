package biometric

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"campusattend/internal/attendance"
)

// VerifyResult is the verification service's answer for one proof token.
type VerifyResult struct {
	UserID     string  `json:"user_id"`
	Verified   bool    `json:"verified"`
	Similarity float64 `json:"similarity"`
	Threshold  float64 `json:"threshold"`
}

// Client calls the external proof-of-presence verification service.
// The token is forwarded as received; no format is assumed.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Skip    bool
}

var _ attendance.Verifier = (*Client)(nil)

// New creates a client with configurable timeout.
func New(baseURL string, skip bool) *Client {
	return &Client{
		BaseURL: baseURL,
		Skip:    skip,
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Check performs 1:1 verification of a token against a student.
func (c *Client) Check(ctx context.Context, studentID, token string) (*VerifyResult, error) {
	if c.Skip {
		return &VerifyResult{UserID: studentID, Verified: true}, nil
	}

	body, _ := json.Marshal(map[string]string{
		"user_id": studentID,
		"token":   token,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/verify", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("biometric service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("biometric service error %s: %s", resp.Status, string(bodyBytes))
	}

	var out VerifyResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &out, nil
}

// Verify implements attendance.Verifier.
func (c *Client) Verify(ctx context.Context, token, studentID string) (bool, error) {
	res, err := c.Check(ctx, studentID, token)
	if err != nil {
		return false, err
	}
	return res.Verified, nil
}

// Health checks if the verification service is available.
func (c *Client) Health(ctx context.Context) error {
	if c.Skip {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("biometric service unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("biometric service unhealthy: %s", resp.Status)
	}
	return nil
}
