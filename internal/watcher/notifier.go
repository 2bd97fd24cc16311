package watcher

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"text/template"

	"garage-chat/internal/docstore"
	apperrors "garage-chat/internal/errors"
	"garage-chat/internal/notify"

	"go.uber.org/zap"
)

// ===========================================================================
// Notifier (Completion / Confirmation)
// Theo dõi live query trên lịch hẹn, báo cho người dùng đúng một lần khi một
// trường chuyển sang giá trị kích hoạt, rồi ghi marker lên document.
// ===========================================================================

// Order thứ tự giữa gửi thông báo và ghi marker
type Order string

const (
	// FireThenMark gửi trước, ghi marker sau. Ghi marker lỗi thì lần snapshot sau có thể gửi lại.
	FireThenMark Order = "fire_then_mark"

	// MarkThenFire đặt marker trong transaction trước, chỉ bên thắng mới gửi.
	// Có thể mất thông báo nếu gửi lỗi, không bao giờ gửi trùng.
	MarkThenFire Order = "mark_then_fire"
)

// TransitionSpec một transition cần báo
type TransitionSpec struct {
	// Kind tên loại transition, cùng với document id tạo khoá chống gửi trùng
	Kind string

	Field        string
	TriggerValue interface{}

	// MarkerField trường bool ghi lại là đã báo
	MarkerField string

	Title string

	// MessageTemplate text/template trên các trường của document
	MessageTemplate string
}

type compiledSpec struct {
	TransitionSpec
	tmpl *template.Template
}

type firedKey struct {
	collection string
	docID      string
	kind       string
}

// Notifier đánh giá snapshot và gửi thông báo
type Notifier struct {
	docs       docstore.Store
	dispatcher notify.Dispatcher
	order      Order
	log        *zap.Logger

	// fired các (document, kind) đã gửi hoặc đang gửi trong process này
	mu    sync.Mutex
	fired map[firedKey]struct{}
}

// NewNotifier tạo Notifier, order rỗng = FireThenMark
func NewNotifier(docs docstore.Store, dispatcher notify.Dispatcher, order Order, log *zap.Logger) *Notifier {
	if order == "" {
		order = FireThenMark
	}
	return &Notifier{
		docs:       docs,
		dispatcher: dispatcher,
		order:      order,
		log:        log.Named("notifier"),
		fired:      make(map[firedKey]struct{}),
	}
}

// Subscribe đăng ký live query q, mỗi snapshot được đánh giá với specs
func (n *Notifier) Subscribe(ctx context.Context, q docstore.Query, specs []TransitionSpec) (docstore.Unsubscribe, error) {
	compiled := make([]compiledSpec, 0, len(specs))
	for _, s := range specs {
		if s.Kind == "" || s.Field == "" || s.MarkerField == "" {
			return nil, fmt.Errorf("transition spec %q incomplete: %w", s.Kind, apperrors.ErrInvalidInput)
		}
		tmpl, err := template.New(s.Kind).Parse(s.MessageTemplate)
		if err != nil {
			return nil, fmt.Errorf("transition spec %q template: %v: %w", s.Kind, err, apperrors.ErrInvalidInput)
		}
		compiled = append(compiled, compiledSpec{TransitionSpec: s, tmpl: tmpl})
	}

	n.log.Info("Watching", zap.String("query", q.String()), zap.String("order", string(n.order)))

	return n.docs.Listen(ctx, q,
		func(docs []docstore.Document) {
			n.handleSnapshot(ctx, q.Collection, docs, compiled)
		},
		func(err error) {
			n.log.Error("Listener stopped", zap.String("query", q.String()), zap.Error(err))
		},
	)
}

func (n *Notifier) handleSnapshot(ctx context.Context, collection string, docs []docstore.Document, specs []compiledSpec) {
	for _, doc := range docs {
		for _, spec := range specs {
			n.evaluate(ctx, collection, doc, spec)
		}
	}
}

func (n *Notifier) evaluate(ctx context.Context, collection string, doc docstore.Document, spec compiledSpec) {
	if !docstore.EqualValues(doc.Data[spec.Field], spec.TriggerValue) {
		return
	}
	if marked, _ := doc.Data[spec.MarkerField].(bool); marked {
		return
	}

	key := firedKey{collection: collection, docID: doc.ID, kind: spec.Kind}
	if !n.claim(key) {
		return
	}

	log := n.log.With(
		zap.String("collection", collection),
		zap.String("doc_id", doc.ID),
		zap.String("kind", spec.Kind),
	)

	switch n.order {
	case MarkThenFire:
		won, err := n.docs.SetFlagIfUnset(ctx, collection, doc.ID, spec.MarkerField)
		if err != nil {
			log.Warn("Set marker failed", zap.Error(err))
			n.release(key)
			return
		}
		if !won {
			log.Debug("Marker already set elsewhere")
			return
		}
		n.dispatch(ctx, log, doc, spec)

	default:
		n.dispatch(ctx, log, doc, spec)
		if err := n.docs.Update(ctx, collection, doc.ID, map[string]interface{}{spec.MarkerField: true}); err != nil {
			log.Warn("Write marker failed", zap.Error(err))
			n.release(key)
		}
	}
}

func (n *Notifier) dispatch(ctx context.Context, log *zap.Logger, doc docstore.Document, spec compiledSpec) {
	body, err := render(spec.tmpl, doc.Data)
	if err != nil {
		log.Warn("Render message failed", zap.Error(err))
		body = spec.MessageTemplate
	}

	uid, _ := doc.Data["uid"].(string)
	err = n.dispatcher.Notify(ctx, notify.Notification{
		Title: spec.Title,
		Body:  body,
		Data: map[string]string{
			"kind":  spec.Kind,
			"docId": doc.ID,
			"uid":   uid,
		},
	})
	if err != nil {
		log.Warn("Dispatch notification failed", zap.Error(err))
		return
	}
	log.Info("Notification sent", zap.String("title", spec.Title))
}

func (n *Notifier) claim(key firedKey) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, ok := n.fired[key]; ok {
		return false
	}
	n.fired[key] = struct{}{}
	return true
}

func (n *Notifier) release(key firedKey) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.fired, key)
}

func render(tmpl *template.Template, data map[string]interface{}) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
