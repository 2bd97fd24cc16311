package watcher

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"garage-chat/internal/config"
	"garage-chat/internal/docstore"
	apperrors "garage-chat/internal/errors"
	"garage-chat/internal/models"
	"garage-chat/internal/notify"
	"garage-chat/internal/notify/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

const repairs = "repairSchedules"

// markerWrites đếm số lần ghi marker field qua write hook
func markerWrites(m *docstore.Memory, field string) *int32 {
	var n int32
	m.SetWriteHook(func(collection, id string, fields map[string]interface{}) error {
		if _, ok := fields[field]; ok {
			atomic.AddInt32(&n, 1)
		}
		return nil
	})
	return &n
}

func TestNotifierFiresOnceAcrossSnapshots(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	dispatcher := mocks.NewMockDispatcher(ctrl)

	var dispatched int32
	dispatcher.EXPECT().
		Notify(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, n notify.Notification) error {
			assert.Equal(t, "Lịch sửa chữa hoàn thành!", n.Title)
			assert.Equal(t, "Lịch sửa chữa cho xe Vios đã hoàn thành.", n.Body)
			assert.Equal(t, "r1", n.Data["docId"])
			assert.Equal(t, "u1", n.Data["uid"])
			atomic.AddInt32(&dispatched, 1)
			return nil
		}).
		Times(1)

	m := docstore.NewMemory()
	require.NoError(t, m.Put(ctx, repairs, "r1", map[string]interface{}{
		"uid": "u1", "carName": "Vios", "status": models.RepairStatusPending,
	}))
	writes := markerWrites(m, models.MarkerCompletionNotified)

	n := NewNotifier(m, dispatcher, FireThenMark, zap.NewNop())
	unsub, err := n.Subscribe(ctx, UserQuery(repairs, "u1"), RepairSpecs())
	require.NoError(t, err)
	defer unsub()

	require.NoError(t, m.Update(ctx, repairs, "r1", map[string]interface{}{"status": models.RepairStatusCompleted}))
	for i := 0; i < 5; i++ {
		m.Redeliver(repairs)
	}

	require.Eventually(t, func() bool { return atomic.LoadInt32(&dispatched) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(writes))

	doc, err := m.Get(ctx, repairs, "r1")
	require.NoError(t, err)
	assert.Equal(t, true, doc.Data[models.MarkerCompletionNotified])
}

func TestNotifierSkipsAlreadyMarked(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	dispatcher := mocks.NewMockDispatcher(ctrl)
	dispatcher.EXPECT().Notify(gomock.Any(), gomock.Any()).Times(0)

	m := docstore.NewMemory()
	require.NoError(t, m.Put(ctx, "testDriveSchedules", "t1", map[string]interface{}{
		"uid": "u1", "productName": "VinFast VF8",
		"status":                          models.TestDriveStatusConfirmed,
		models.MarkerConfirmationNotified: true,
	}))

	n := NewNotifier(m, dispatcher, FireThenMark, zap.NewNop())
	unsub, err := n.Subscribe(ctx, UserQuery("testDriveSchedules", "u1"), TestDriveSpecs())
	require.NoError(t, err)
	m.Redeliver("testDriveSchedules")
	time.Sleep(50 * time.Millisecond)
	unsub()
}

func TestNotifierIgnoresOtherUsers(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	dispatcher := mocks.NewMockDispatcher(ctrl)
	dispatcher.EXPECT().Notify(gomock.Any(), gomock.Any()).Times(0)

	m := docstore.NewMemory()
	require.NoError(t, m.Put(ctx, repairs, "r2", map[string]interface{}{
		"uid": "u2", "status": models.RepairStatusCompleted,
	}))

	n := NewNotifier(m, dispatcher, FireThenMark, zap.NewNop())
	unsub, err := n.Subscribe(ctx, UserQuery(repairs, "u1"), RepairSpecs())
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)
	unsub()
}

func TestNotifierMarkerFailureAllowsRefire(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	dispatcher := mocks.NewMockDispatcher(ctrl)

	var dispatched int32
	dispatcher.EXPECT().
		Notify(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, n notify.Notification) error {
			atomic.AddInt32(&dispatched, 1)
			return nil
		}).
		Times(2)

	m := docstore.NewMemory()
	require.NoError(t, m.Put(ctx, repairs, "r1", map[string]interface{}{
		"uid": "u1", "carName": "City", "status": models.RepairStatusCompleted,
	}))

	var failOnce sync.Once
	m.SetWriteHook(func(collection, id string, fields map[string]interface{}) error {
		var err error
		failOnce.Do(func() { err = apperrors.ErrExternal })
		return err
	})

	n := NewNotifier(m, dispatcher, FireThenMark, zap.NewNop())
	unsub, err := n.Subscribe(ctx, UserQuery(repairs, "u1"), RepairSpecs())
	require.NoError(t, err)
	defer unsub()

	require.Eventually(t, func() bool { return atomic.LoadInt32(&dispatched) == 1 }, time.Second, 5*time.Millisecond)

	m.Redeliver(repairs)
	require.Eventually(t, func() bool { return atomic.LoadInt32(&dispatched) == 2 }, time.Second, 5*time.Millisecond)

	m.Redeliver(repairs)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(2), atomic.LoadInt32(&dispatched))
}

func TestNotifierDispatchFailureIsNotRetried(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	dispatcher := mocks.NewMockDispatcher(ctrl)
	dispatcher.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(errors.New("no device")).Times(1)

	m := docstore.NewMemory()
	require.NoError(t, m.Put(ctx, repairs, "r1", map[string]interface{}{
		"uid": "u1", "status": models.RepairStatusCompleted,
	}))

	n := NewNotifier(m, dispatcher, FireThenMark, zap.NewNop())
	unsub, err := n.Subscribe(ctx, UserQuery(repairs, "u1"), RepairSpecs())
	require.NoError(t, err)
	defer unsub()

	require.Eventually(t, func() bool {
		doc, err := m.Get(ctx, repairs, "r1")
		return err == nil && doc.Data[models.MarkerCompletionNotified] == true
	}, time.Second, 5*time.Millisecond)

	m.Redeliver(repairs)
	time.Sleep(50 * time.Millisecond)
}

func TestMarkThenFireSingleWinnerAcrossNotifiers(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	dispatcher := mocks.NewMockDispatcher(ctrl)

	var dispatched int32
	dispatcher.EXPECT().
		Notify(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, n notify.Notification) error {
			atomic.AddInt32(&dispatched, 1)
			return nil
		}).
		Times(1)

	m := docstore.NewMemory()
	require.NoError(t, m.Put(ctx, "testDriveSchedules", "t1", map[string]interface{}{
		"uid": "u1", "productName": "Ranger", "status": models.TestDriveStatusPending,
	}))

	for i := 0; i < 3; i++ {
		n := NewNotifier(m, dispatcher, MarkThenFire, zap.NewNop())
		unsub, err := n.Subscribe(ctx, UserQuery("testDriveSchedules", "u1"), TestDriveSpecs())
		require.NoError(t, err)
		defer unsub()
	}

	require.NoError(t, m.Update(ctx, "testDriveSchedules", "t1", map[string]interface{}{"status": models.TestDriveStatusConfirmed}))
	m.Redeliver("testDriveSchedules")

	require.Eventually(t, func() bool { return atomic.LoadInt32(&dispatched) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
}

func TestSubscribeRejectsBadSpec(t *testing.T) {
	n := NewNotifier(docstore.NewMemory(), notify.NewLogDispatcher(zap.NewNop()), "", zap.NewNop())

	_, err := n.Subscribe(context.Background(), docstore.Collection(repairs), []TransitionSpec{{Kind: "x"}})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))

	_, err = n.Subscribe(context.Background(), docstore.Collection(repairs), []TransitionSpec{{
		Kind: "x", Field: "status", MarkerField: "m", MessageTemplate: "{{.broken",
	}})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestWatchSchedules(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	dispatcher := mocks.NewMockDispatcher(ctrl)

	var mu sync.Mutex
	var titles []string
	dispatcher.EXPECT().
		Notify(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, n notify.Notification) error {
			mu.Lock()
			titles = append(titles, n.Title)
			mu.Unlock()
			return nil
		}).
		Times(2)

	cfg := config.Default().Notifier
	m := docstore.NewMemory()
	require.NoError(t, m.Put(ctx, cfg.RepairCollection, "r1", map[string]interface{}{"uid": "u1", "status": models.RepairStatusCompleted}))
	require.NoError(t, m.Put(ctx, cfg.TestDriveCollection, "t1", map[string]interface{}{"uid": "u1", "status": models.TestDriveStatusConfirmed}))

	n := NewNotifier(m, dispatcher, FireThenMark, zap.NewNop())
	unsub, err := n.WatchSchedules(ctx, cfg, "u1")
	require.NoError(t, err)
	defer unsub()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(titles) == 2
	}, time.Second, 5*time.Millisecond)
	assert.ElementsMatch(t, []string{"Lịch sửa chữa hoàn thành!", "Thông báo Lịch Lái Thử"}, titles)
}

type recordingPusher struct {
	mu     sync.Mutex
	tokens []string
	sent   []notify.Notification
}

func (p *recordingPusher) Push(ctx context.Context, token string, n notify.Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tokens = append(p.tokens, token)
	p.sent = append(p.sent, n)
	return nil
}

func (p *recordingPusher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sent)
}

func TestStatusPush(t *testing.T) {
	ctx := context.Background()
	m := docstore.NewMemory()
	require.NoError(t, m.Put(ctx, models.UsersCollection, "u1", map[string]interface{}{"uid": "u1", "fcmToken": "tok-1"}))
	require.NoError(t, m.Put(ctx, models.UsersCollection, "u2", map[string]interface{}{"uid": "u2"}))
	require.NoError(t, m.Put(ctx, repairs, "r1", map[string]interface{}{"uid": "u1", "carName": "Vios", "status": models.RepairStatusPending}))
	require.NoError(t, m.Put(ctx, repairs, "r2", map[string]interface{}{"uid": "u2", "carName": "City", "status": models.RepairStatusPending}))

	pusher := &recordingPusher{}
	p := NewStatusPush(m, pusher, repairs, zap.NewNop())
	unsub, err := p.Start(ctx)
	require.NoError(t, err)
	defer unsub()

	// snapshot đầu chỉ ghi nhận trạng thái
	m.Redeliver(repairs)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 0, pusher.count())

	require.NoError(t, m.Update(ctx, repairs, "r1", map[string]interface{}{"status": models.RepairStatusCompleted}))
	require.NoError(t, m.Update(ctx, repairs, "r2", map[string]interface{}{"status": models.RepairStatusCompleted}))
	require.NoError(t, m.Update(ctx, repairs, "r1", map[string]interface{}{"km": 1200}))

	require.Eventually(t, func() bool { return pusher.count() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	pusher.mu.Lock()
	defer pusher.mu.Unlock()
	require.Len(t, pusher.sent, 1)
	assert.Equal(t, "tok-1", pusher.tokens[0])
	assert.Equal(t, "Cập nhật trạng thái xe Vios", pusher.sent[0].Title)
	assert.Equal(t, "Trạng thái mới: Đã hoàn thành", pusher.sent[0].Body)
	assert.Equal(t, "r1", pusher.sent[0].Data["carId"])
}
