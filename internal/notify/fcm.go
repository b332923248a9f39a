package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/acadocs/backend/internal/config"
	"github.com/acadocs/backend/pkg/logger"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const fcmScope = "https://www.googleapis.com/auth/firebase.messaging"

// FCMDispatcher sends through the FCM HTTP v1 API, authenticating with a
// service-account credential. The v1 API has no multicast endpoint, so
// SendToMany fans out sequentially and keeps going past individual failures.
type FCMDispatcher struct {
	httpClient *http.Client
	endpoint   string
}

func NewFCMDispatcher(ctx context.Context, cfg config.FCMConfig) (*FCMDispatcher, error) {
	data, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed reading FCM credentials: %w", err)
	}

	creds, err := google.CredentialsFromJSON(ctx, data, fcmScope)
	if err != nil {
		return nil, fmt.Errorf("failed parsing FCM credentials: %w", err)
	}

	client := oauth2.NewClient(ctx, creds.TokenSource)
	client.Timeout = 10 * time.Second

	return &FCMDispatcher{
		httpClient: client,
		endpoint:   fmt.Sprintf("https://fcm.googleapis.com/v1/projects/%s/messages:send", cfg.ProjectID),
	}, nil
}

type fcmMessage struct {
	Message struct {
		Token        string `json:"token"`
		Notification struct {
			Title string `json:"title"`
			Body  string `json:"body"`
		} `json:"notification"`
	} `json:"message"`
}

func (d *FCMDispatcher) SendToOne(ctx context.Context, token, title, body string) error {
	if token == "" {
		return fmt.Errorf("empty notification token")
	}

	var msg fcmMessage
	msg.Message.Token = token
	msg.Message.Notification.Title = title
	msg.Message.Notification.Body = body

	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("fcm send failed: status %d: %s", resp.StatusCode, string(detail))
	}

	return nil
}

func (d *FCMDispatcher) SendToMany(ctx context.Context, tokens []string, title, body string) error {
	var failures int
	for _, token := range tokens {
		if err := d.SendToOne(ctx, token, title, body); err != nil {
			failures++
			logger.Warn("fcm_send_failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
	if failures > 0 {
		return fmt.Errorf("fcm send failed for %d of %d tokens", failures, len(tokens))
	}
	return nil
}
