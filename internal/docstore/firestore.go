package docstore

import (
	"context"
	"errors"
	"fmt"

	apperrors "garage-chat/internal/errors"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ===========================================================================
// Firestore
// Store trên Cloud Firestore. FIRESTORE_EMULATOR_HOST được client tự nhận.
// ===========================================================================

// Firestore implements Store
type Firestore struct {
	client *firestore.Client
	logger *zap.Logger
}

// NewFirestore kết nối Firestore. credentialsFile rỗng = Application Default Credentials
func NewFirestore(ctx context.Context, projectID, credentialsFile string, logger *zap.Logger) (*Firestore, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}

	logger.Info("Connected to Firestore", zap.String("project_id", projectID))
	return NewFirestoreFromClient(client, logger), nil
}

// NewFirestoreFromClient bọc client có sẵn (dùng chung với firebase.App)
func NewFirestoreFromClient(client *firestore.Client, logger *zap.Logger) *Firestore {
	return &Firestore{
		client: client,
		logger: logger.Named("firestore"),
	}
}

// Close đóng client
func (f *Firestore) Close() error {
	return f.client.Close()
}

func (f *Firestore) Get(ctx context.Context, collection, id string) (*Document, error) {
	snap, err := f.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		return nil, translate(err, "get %s/%s", collection, id)
	}
	return &Document{ID: snap.Ref.ID, Data: snap.Data()}, nil
}

func (f *Firestore) Find(ctx context.Context, q Query) ([]Document, error) {
	snaps, err := f.query(q).Documents(ctx).GetAll()
	if err != nil {
		return nil, translate(err, "find %s", q)
	}
	return toDocuments(snaps), nil
}

func (f *Firestore) Add(ctx context.Context, collection string, data map[string]interface{}) (string, error) {
	ref, _, err := f.client.Collection(collection).Add(ctx, data)
	if err != nil {
		return "", translate(err, "add %s", collection)
	}
	return ref.ID, nil
}

func (f *Firestore) Update(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	_, err := f.client.Collection(collection).Doc(id).Update(ctx, toUpdates(fields))
	if err != nil {
		return translate(err, "update %s/%s", collection, id)
	}
	return nil
}

func (f *Firestore) Merge(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	_, err := f.client.Collection(collection).Doc(id).Set(ctx, fields, firestore.MergeAll)
	if err != nil {
		return translate(err, "merge %s/%s", collection, id)
	}
	return nil
}

func (f *Firestore) Delete(ctx context.Context, collection, id string) error {
	if _, err := f.client.Collection(collection).Doc(id).Delete(ctx); err != nil {
		return translate(err, "delete %s/%s", collection, id)
	}
	return nil
}

func (f *Firestore) SetFlagIfUnset(ctx context.Context, collection, id, field string) (bool, error) {
	ref := f.client.Collection(collection).Doc(id)

	var won bool
	err := f.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		won = false

		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		if v, err := snap.DataAt(field); err == nil {
			if b, _ := v.(bool); b {
				return nil
			}
		}
		won = true
		return tx.Update(ref, []firestore.Update{{Path: field, Value: true}})
	})
	if err != nil {
		return false, translate(err, "set flag %s on %s/%s", field, collection, id)
	}
	return won, nil
}

func (f *Firestore) Listen(ctx context.Context, q Query, onSnapshot SnapshotFunc, onError ErrorFunc) (Unsubscribe, error) {
	if onSnapshot == nil {
		return nil, fmt.Errorf("listen %s: nil snapshot callback: %w", q, apperrors.ErrInvalidInput)
	}

	guard := newListener(ctx)
	it := f.query(q).Snapshots(guard.ctx)

	go func() {
		defer it.Stop()

		for {
			qs, err := it.Next()
			if err != nil {
				if guard.ctx.Err() != nil || status.Code(err) == codes.Canceled || errors.Is(err, iterator.Done) {
					return
				}
				f.logger.Warn("Snapshot listener stopped", zap.String("query", q.String()), zap.Error(err))
				if onError != nil {
					guard.deliver(func() { onError(translate(err, "listen %s", q)) })
				}
				return
			}

			snaps, err := qs.Documents.GetAll()
			if err != nil {
				f.logger.Warn("Read snapshot documents failed", zap.String("query", q.String()), zap.Error(err))
				continue
			}

			docs := toDocuments(snaps)
			if !guard.deliver(func() { onSnapshot(docs) }) {
				return
			}
		}
	}()

	return guard.unsubscribe, nil
}

func (f *Firestore) query(q Query) firestore.Query {
	fq := f.client.Collection(q.Collection).Query
	for _, flt := range q.Filters {
		fq = fq.Where(flt.Field, string(flt.Op), flt.Value)
	}
	return fq
}

func toDocuments(snaps []*firestore.DocumentSnapshot) []Document {
	docs := make([]Document, 0, len(snaps))
	for _, s := range snaps {
		docs = append(docs, Document{ID: s.Ref.ID, Data: s.Data()})
	}
	return docs
}

func toUpdates(fields map[string]interface{}) []firestore.Update {
	updates := make([]firestore.Update, 0, len(fields))
	for k, v := range fields {
		updates = append(updates, firestore.Update{Path: k, Value: v})
	}
	return updates
}

// translate map lỗi gRPC sang sentinel errors
func translate(err error, format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	switch status.Code(err) {
	case codes.NotFound:
		return fmt.Errorf("%s: %w", msg, apperrors.ErrNotFound)
	case codes.DeadlineExceeded:
		return fmt.Errorf("%s: %w", msg, apperrors.ErrTimeout)
	case codes.InvalidArgument:
		return fmt.Errorf("%s: %v: %w", msg, err, apperrors.ErrInvalidInput)
	default:
		return fmt.Errorf("%s: %v: %w", msg, err, apperrors.ErrExternal)
	}
}
