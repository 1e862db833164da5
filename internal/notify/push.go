package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrNotRegistered means the gateway no longer knows the device token.
var ErrNotRegistered = errors.New("registration token not registered")

// PushMessage is one delivery to one device.
type PushMessage struct {
	Token string            `json:"token"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// Sender delivers a push message to a device.
type Sender interface {
	Send(ctx context.Context, msg PushMessage) error
}

// PushClient calls the push gateway over HTTP.
type PushClient struct {
	BaseURL string
	Key     string
	HTTP    *http.Client
}

// NewPushClient creates a gateway client.
func NewPushClient(baseURL, key string) *PushClient {
	return &PushClient{
		BaseURL: baseURL,
		Key:     key,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Send posts msg to the gateway. 404 and 410 answers map to ErrNotRegistered.
func (c *PushClient) Send(ctx context.Context, msg PushMessage) error {
	body, _ := json.Marshal(msg)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/send", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Key != "" {
		req.Header.Set("Authorization", "Bearer "+c.Key)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("push gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return ErrNotRegistered
	case resp.StatusCode >= 300:
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("push gateway error %s: %s", resp.Status, string(bodyBytes))
	}
	return nil
}
