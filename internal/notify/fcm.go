package notify

import (
	"context"
	"fmt"

	apperrors "garage-chat/internal/errors"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// ===========================================================================
// FCM
// Push qua Firebase Cloud Messaging tới token của thiết bị
// ===========================================================================

// Sender phần của messaging.Client được dùng
type Sender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// TokenFunc trả về FCM token của người nhận n ("" = chưa đăng ký thiết bị)
type TokenFunc func(ctx context.Context, n Notification) (string, error)

// NewFirebaseApp khởi tạo firebase.App dùng chung cho Firestore và Messaging
func NewFirebaseApp(ctx context.Context, projectID, credentialsFile string) (*firebase.App, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}
	return app, nil
}

// Pusher gửi push tới một token cụ thể
type Pusher struct {
	sender Sender
	log    *zap.Logger
}

func NewPusher(sender Sender, log *zap.Logger) *Pusher {
	return &Pusher{sender: sender, log: log.Named("fcm")}
}

// Push gửi n tới token
func (p *Pusher) Push(ctx context.Context, token string, n Notification) error {
	if token == "" {
		return fmt.Errorf("push: empty token: %w", apperrors.ErrInvalidInput)
	}

	id, err := p.sender.Send(ctx, &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Body,
		},
		Data: n.Data,
	})
	if err != nil {
		if messaging.IsUnregistered(err) {
			p.log.Warn("FCM token not registered", zap.String("title", n.Title))
		}
		return fmt.Errorf("fcm send: %v: %w", err, apperrors.ErrExternal)
	}

	p.log.Debug("FCM message sent", zap.String("message_id", id))
	return nil
}

// FCMDispatcher Dispatcher gửi qua FCM, token được tìm theo từng thông báo
type FCMDispatcher struct {
	pusher *Pusher
	token  TokenFunc
}

func NewFCMDispatcher(pusher *Pusher, token TokenFunc) *FCMDispatcher {
	return &FCMDispatcher{pusher: pusher, token: token}
}

func (d *FCMDispatcher) Notify(ctx context.Context, n Notification) error {
	token, err := d.token(ctx, n)
	if err != nil {
		return fmt.Errorf("resolve fcm token: %w", err)
	}
	if token == "" {
		d.pusher.log.Debug("No FCM token, notification skipped", zap.String("title", n.Title))
		return nil
	}
	return d.pusher.Push(ctx, token, n)
}
