// Package push delivers push notifications through the Expo push API used by
// the mobile client.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	portssvc "github.com/bookswapp/bookswap_backend/internal/core/ports/services"
)

const defaultTimeout = 10 * time.Second

// expoMessage is the Expo push API request body.
type expoMessage struct {
	To    string            `json:"to"`
	Title string            `json:"title,omitempty"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
	Sound string            `json:"sound,omitempty"`
}

// ExpoSender sends push notifications through the Expo push service.
type ExpoSender struct {
	endpoint string
	client   *http.Client
}

var _ portssvc.PushSender = (*ExpoSender)(nil)

// NewExpoSender creates a sender targeting the given Expo push endpoint.
func NewExpoSender(endpoint string) *ExpoSender {
	return &ExpoSender{
		endpoint: endpoint,
		client:   &http.Client{Timeout: defaultTimeout},
	}
}

// SendPush delivers one notification to an Expo push token. Tokens that are
// not Expo tokens are rejected up front.
func (s *ExpoSender) SendPush(ctx context.Context, pushToken, title, body string, data map[string]string) error {
	if !IsExpoPushToken(pushToken) {
		return fmt.Errorf("not an expo push token: %q", pushToken)
	}

	payload, err := json.Marshal(expoMessage{
		To:    pushToken,
		Title: title,
		Body:  body,
		Data:  data,
		Sound: "default",
	})
	if err != nil {
		return fmt.Errorf("failed to encode push message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send push request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("expo push API returned status %d: %s", resp.StatusCode, snippet)
	}
	return nil
}

// IsExpoPushToken reports whether the token has the Expo push token shape.
func IsExpoPushToken(token string) bool {
	return (strings.HasPrefix(token, "ExponentPushToken[") || strings.HasPrefix(token, "ExpoPushToken[")) &&
		strings.HasSuffix(token, "]")
}
