package docstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	apperrors "garage-chat/internal/errors"

	"github.com/google/uuid"
)

// ===========================================================================
// Memory
// Document store trong bộ nhớ, hành vi giống Firestore ở mức hệ thống cần:
// snapshot đầu tiên khi Listen, mỗi lần ghi đẩy snapshot mới theo thứ tự cho
// từng listener. Dùng khi firebase.emulator = true và trong tests.
// ===========================================================================

// Memory implements Store
type Memory struct {
	mu          sync.Mutex
	collections map[string]map[string]map[string]interface{}
	watchers    map[*memWatcher]struct{}

	// writeHook nếu có, được gọi trước mỗi Update (tests dùng để giả lập lỗi ghi)
	writeHook func(collection, id string, fields map[string]interface{}) error
}

type memWatcher struct {
	q     Query
	guard *listener

	mu      sync.Mutex
	pending [][]Document
	signal  chan struct{}
}

// NewMemory tạo Memory rỗng
func NewMemory() *Memory {
	return &Memory{
		collections: make(map[string]map[string]map[string]interface{}),
		watchers:    make(map[*memWatcher]struct{}),
	}
}

// SetWriteHook cài hook chạy trước mỗi Update/Merge/SetFlagIfUnset; hook trả lỗi thì thao tác thất bại
func (m *Memory) SetWriteHook(hook func(collection, id string, fields map[string]interface{}) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeHook = hook
}

func (m *Memory) Get(ctx context.Context, collection, id string) (*Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.collections[collection][id]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", collection, id, apperrors.ErrNotFound)
	}
	return &Document{ID: id, Data: copyMap(data)}, nil
}

func (m *Memory) Find(ctx context.Context, q Query) ([]Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked(q), nil
}

// Put ghi đè toàn bộ document với id cho trước (seed dữ liệu)
func (m *Memory) Put(ctx context.Context, collection, id string, data map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.collectionLocked(collection)[id] = copyMap(data)
	m.notifyLocked(collection)
	return nil
}

func (m *Memory) Add(ctx context.Context, collection string, data map[string]interface{}) (string, error) {
	id := uuid.NewString()
	return id, m.Put(ctx, collection, id, data)
}

func (m *Memory) Update(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.runHookLocked(collection, id, fields); err != nil {
		return err
	}
	doc, ok := m.collections[collection][id]
	if !ok {
		return fmt.Errorf("%s/%s: %w", collection, id, apperrors.ErrNotFound)
	}
	for k, v := range copyMap(fields) {
		doc[k] = v
	}
	m.notifyLocked(collection)
	return nil
}

func (m *Memory) Merge(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.runHookLocked(collection, id, fields); err != nil {
		return err
	}
	coll := m.collectionLocked(collection)
	doc, ok := coll[id]
	if !ok {
		doc = make(map[string]interface{})
		coll[id] = doc
	}
	for k, v := range copyMap(fields) {
		doc[k] = v
	}
	m.notifyLocked(collection)
	return nil
}

func (m *Memory) Delete(ctx context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.collections[collection][id]; !ok {
		return nil
	}
	delete(m.collections[collection], id)
	m.notifyLocked(collection)
	return nil
}

func (m *Memory) SetFlagIfUnset(ctx context.Context, collection, id, field string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.collections[collection][id]
	if !ok {
		return false, fmt.Errorf("%s/%s: %w", collection, id, apperrors.ErrNotFound)
	}
	if b, _ := doc[field].(bool); b {
		return false, nil
	}
	if err := m.runHookLocked(collection, id, map[string]interface{}{field: true}); err != nil {
		return false, err
	}
	doc[field] = true
	m.notifyLocked(collection)
	return true, nil
}

func (m *Memory) Listen(ctx context.Context, q Query, onSnapshot SnapshotFunc, onError ErrorFunc) (Unsubscribe, error) {
	if onSnapshot == nil {
		return nil, fmt.Errorf("listen %s: nil snapshot callback: %w", q, apperrors.ErrInvalidInput)
	}

	w := &memWatcher{
		q:      q,
		guard:  newListener(ctx),
		signal: make(chan struct{}, 1),
	}

	m.mu.Lock()
	m.watchers[w] = struct{}{}
	w.push(m.snapshotLocked(q))
	m.mu.Unlock()

	go w.run(onSnapshot)

	return func() {
		m.mu.Lock()
		delete(m.watchers, w)
		m.mu.Unlock()
		w.guard.unsubscribe()
	}, nil
}

// Redeliver đẩy lại snapshot hiện tại cho mọi listener của collection,
// giống việc SDK giao lại cùng một kết quả (reconnect, metadata change)
func (m *Memory) Redeliver(collection string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifyLocked(collection)
}

func (m *Memory) runHookLocked(collection, id string, fields map[string]interface{}) error {
	if m.writeHook == nil {
		return nil
	}
	return m.writeHook(collection, id, fields)
}

func (m *Memory) collectionLocked(name string) map[string]map[string]interface{} {
	coll, ok := m.collections[name]
	if !ok {
		coll = make(map[string]map[string]interface{})
		m.collections[name] = coll
	}
	return coll
}

func (m *Memory) snapshotLocked(q Query) []Document {
	coll := m.collections[q.Collection]
	docs := make([]Document, 0, len(coll))
	for id, data := range coll {
		if q.Matches(data) {
			docs = append(docs, Document{ID: id, Data: copyMap(data)})
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs
}

func (m *Memory) notifyLocked(collection string) {
	for w := range m.watchers {
		if w.q.Collection == collection {
			w.push(m.snapshotLocked(w.q))
		}
	}
}

func (w *memWatcher) push(docs []Document) {
	w.mu.Lock()
	w.pending = append(w.pending, docs)
	w.mu.Unlock()

	select {
	case w.signal <- struct{}{}:
	default:
	}
}

func (w *memWatcher) run(onSnapshot SnapshotFunc) {
	for {
		select {
		case <-w.guard.ctx.Done():
			return
		case <-w.signal:
		}

		w.mu.Lock()
		batch := w.pending
		w.pending = nil
		w.mu.Unlock()

		for _, docs := range batch {
			docs := docs
			if !w.guard.deliver(func() { onSnapshot(docs) }) {
				return
			}
		}
	}
}

func copyMap(in map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		return copyMap(t)
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = copyValue(e)
		}
		return out
	default:
		return v
	}
}
