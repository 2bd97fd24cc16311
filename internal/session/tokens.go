package session

import (
	"context"
	"errors"

	"garage-chat/internal/docstore"
	apperrors "garage-chat/internal/errors"
	"garage-chat/internal/models"
	"garage-chat/internal/notify"
)

// UserTokenLookup tìm FCM token theo Data["uid"] của thông báo
func UserTokenLookup(docs docstore.Store) notify.TokenFunc {
	return func(ctx context.Context, n notify.Notification) (string, error) {
		uid := n.Data["uid"]
		if uid == "" {
			return "", nil
		}
		doc, err := docs.Get(ctx, models.UsersCollection, uid)
		if errors.Is(err, apperrors.ErrNotFound) {
			return "", nil
		}
		if err != nil {
			return "", err
		}
		user, err := models.ParseUser(doc.ID, doc.Data)
		if err != nil {
			return "", err
		}
		return user.FCMToken, nil
	}
}
