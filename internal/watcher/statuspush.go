package watcher

import (
	"context"
	"fmt"
	"sync"

	"garage-chat/internal/docstore"
	"garage-chat/internal/models"
	"garage-chat/internal/notify"

	"go.uber.org/zap"
)

// Pusher gửi push tới một token
type Pusher interface {
	Push(ctx context.Context, token string, n notify.Notification) error
}

// StatusPush gửi FCM khi trạng thái một lịch sửa chữa thay đổi.
// Snapshot đầu tiên chỉ ghi nhận trạng thái hiện có.
type StatusPush struct {
	docs       docstore.Store
	pusher     Pusher
	collection string
	log        *zap.Logger

	mu     sync.Mutex
	seeded bool
	last   map[string]string
}

func NewStatusPush(docs docstore.Store, pusher Pusher, collection string, log *zap.Logger) *StatusPush {
	return &StatusPush{
		docs:       docs,
		pusher:     pusher,
		collection: collection,
		log:        log.Named("status_push"),
		last:       make(map[string]string),
	}
}

// Start bắt đầu theo dõi toàn bộ collection
func (p *StatusPush) Start(ctx context.Context) (docstore.Unsubscribe, error) {
	return p.docs.Listen(ctx, docstore.Collection(p.collection),
		func(docs []docstore.Document) {
			p.handleSnapshot(ctx, docs)
		},
		func(err error) {
			p.log.Error("Listener stopped", zap.Error(err))
		},
	)
}

func (p *StatusPush) handleSnapshot(ctx context.Context, docs []docstore.Document) {
	var changed []models.RepairSchedule

	p.mu.Lock()
	for _, doc := range docs {
		r, err := models.ParseRepairSchedule(doc.ID, doc.Data)
		if err != nil {
			p.log.Warn("Skip malformed repair schedule", zap.String("doc_id", doc.ID), zap.Error(err))
			continue
		}
		prev, seen := p.last[doc.ID]
		p.last[doc.ID] = r.Status
		if p.seeded && seen && prev != r.Status {
			changed = append(changed, r)
		}
	}
	p.seeded = true
	p.mu.Unlock()

	for _, r := range changed {
		if err := p.push(ctx, r); err != nil {
			p.log.Warn("Status push failed", zap.String("doc_id", r.ID), zap.Error(err))
		}
	}
}

func (p *StatusPush) push(ctx context.Context, r models.RepairSchedule) error {
	if r.UID == "" {
		return nil
	}

	doc, err := p.docs.Get(ctx, models.UsersCollection, r.UID)
	if err != nil {
		return fmt.Errorf("load user %s: %w", r.UID, err)
	}
	user, err := models.ParseUser(doc.ID, doc.Data)
	if err != nil {
		return err
	}
	if user.FCMToken == "" {
		p.log.Debug("User has no device token", zap.String("uid", r.UID))
		return nil
	}

	return p.pusher.Push(ctx, user.FCMToken, notify.Notification{
		Title: fmt.Sprintf("Cập nhật trạng thái xe %s", r.CarName),
		Body:  fmt.Sprintf("Trạng thái mới: %s", r.Status),
		Data: map[string]string{
			"carId":   r.ID,
			"status":  r.Status,
			"carName": r.CarName,
		},
	})
}
