// Package sms delivers direct messages through an HTTP SMS gateway.
package sms

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

// Client posts messages to a gateway endpoint. It implements
// routing.DirectMessenger.
type Client struct {
	gatewayURL string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(gatewayURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		gatewayURL: gatewayURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type sendRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// Send delivers one message to a single phone number. Any non-2xx gateway
// response is an error; the caller decides whether delivery failure is fatal.
func (c *Client) Send(ctx context.Context, phone, message string) error {
	body, err := json.Marshal(sendRequest{Phone: phone, Message: message})
	if err != nil {
		return fmt.Errorf("encoding sms request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.gatewayURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling sms gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sms gateway returned status %d: %s", resp.StatusCode, detail)
	}

	c.logger.Debug("sms delivered", "phone", phone)
	return nil
}
