package notify

import (
	"bytes"
	"context"
	"errors"
	"testing"

	apperrors "garage-chat/internal/errors"

	"firebase.google.com/go/v4/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSender struct {
	sent []*messaging.Message
	err  error
}

func (f *fakeSender) Send(ctx context.Context, message *messaging.Message) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, message)
	return "projects/demo/messages/1", nil
}

func TestWriterDispatcher(t *testing.T) {
	var buf bytes.Buffer
	d := NewWriterDispatcher(&buf)

	require.NoError(t, d.Notify(context.Background(), Notification{Title: "Tin nhắn mới", Body: "xin chào"}))
	assert.Contains(t, buf.String(), "Tin nhắn mới: xin chào")
}

func TestFCMDispatcherSendsToToken(t *testing.T) {
	sender := &fakeSender{}
	d := NewFCMDispatcher(NewPusher(sender, zap.NewNop()), func(ctx context.Context, n Notification) (string, error) {
		return "device-token", nil
	})

	err := d.Notify(context.Background(), Notification{
		Title: "Thông báo Lịch Lái Thử",
		Body:  "ok",
		Data:  map[string]string{"kind": "test_drive"},
	})
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "device-token", sender.sent[0].Token)
	assert.Equal(t, "Thông báo Lịch Lái Thử", sender.sent[0].Notification.Title)
	assert.Equal(t, "test_drive", sender.sent[0].Data["kind"])
}

func TestFCMDispatcherSkipsWithoutToken(t *testing.T) {
	sender := &fakeSender{}
	d := NewFCMDispatcher(NewPusher(sender, zap.NewNop()), func(ctx context.Context, n Notification) (string, error) {
		return "", nil
	})

	require.NoError(t, d.Notify(context.Background(), Notification{Title: "x"}))
	assert.Empty(t, sender.sent)
}

func TestPusherWrapsSendError(t *testing.T) {
	p := NewPusher(&fakeSender{err: errors.New("unavailable")}, zap.NewNop())

	err := p.Push(context.Background(), "tok", Notification{Title: "x"})
	assert.True(t, errors.Is(err, apperrors.ErrExternal))

	err = p.Push(context.Background(), "", Notification{Title: "x"})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestMultiDeliversToAll(t *testing.T) {
	var a, b bytes.Buffer
	m := Multi{NewWriterDispatcher(&a), NewLogDispatcher(zap.NewNop()), NewWriterDispatcher(&b)}

	require.NoError(t, m.Notify(context.Background(), Notification{Title: "t", Body: "b"}))
	assert.NotEmpty(t, a.String())
	assert.NotEmpty(t, b.String())
}
