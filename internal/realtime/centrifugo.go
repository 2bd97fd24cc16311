package realtime

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	apperrors "garage-chat/internal/errors"
	"garage-chat/internal/models"

	"go.uber.org/zap"
)

// ===========================================================================
// Centrifugo Client
// Mirror các tin nhắn relay đã phát sang một channel Centrifugo
// (dashboard nhân viên, client không giữ websocket tới relay)
// ===========================================================================

// Publisher interface for mirrored chat events
type Publisher interface {
	// PublishChatMessage publish một tin nhắn đã relay
	PublishChatMessage(ctx context.Context, event *ChatEvent) error
}

// ChatEvent event gửi sang Centrifugo
type ChatEvent struct {
	Type         string             `json:"type"`
	ConnectionID string             `json:"connection_id"`
	Role         models.SenderRole  `json:"role"`
	Message      models.ChatMessage `json:"message"`
	RelayedAt    time.Time          `json:"relayed_at"`
}

// CentrifugoClient implements Publisher
type CentrifugoClient struct {
	url     string
	apiKey  string
	channel string
	client  *http.Client
	log     *zap.Logger
}

// NewCentrifugoClient creates a new Centrifugo client
func NewCentrifugoClient(url, apiKey, channel string, log *zap.Logger) *CentrifugoClient {
	return &CentrifugoClient{
		url:     url,
		apiKey:  apiKey,
		channel: channel,
		client:  &http.Client{Timeout: 5 * time.Second},
		log:     log,
	}
}

type publishRequest struct {
	Method string      `json:"method"`
	Params interface{} `json:"params"`
}

type publishParams struct {
	Channel string      `json:"channel"`
	Data    interface{} `json:"data"`
}

func (c *CentrifugoClient) publish(ctx context.Context, channel string, data interface{}) error {
	req := publishRequest{
		Method: "publish",
		Params: publishParams{
			Channel: channel,
			Data:    data,
		},
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/api", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "apikey "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		c.log.Warn("centrifugo publish failed", zap.Error(err))
		return fmt.Errorf("http request: %v: %w", err, apperrors.ErrExternal)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Warn("centrifugo publish bad status",
			zap.Int("status", resp.StatusCode),
			zap.String("channel", channel),
		)
		return fmt.Errorf("bad status %d: %w", resp.StatusCode, apperrors.ErrExternal)
	}

	c.log.Debug("published to centrifugo",
		zap.String("channel", channel),
	)

	return nil
}

// PublishChatMessage publishes relayed message to the configured channel
func (c *CentrifugoClient) PublishChatMessage(ctx context.Context, event *ChatEvent) error {
	event.Type = "chat_message"
	return c.publish(ctx, c.channel, event)
}

// ===========================================================================
// Noop Publisher (for when Centrifugo is not configured)
// ===========================================================================

// NoopPublisher does nothing (used when realtime is disabled)
type NoopPublisher struct{}

func NewNoopPublisher() *NoopPublisher {
	return &NoopPublisher{}
}

func (n *NoopPublisher) PublishChatMessage(ctx context.Context, event *ChatEvent) error {
	return nil
}
