package docstore

import (
	"context"
	"fmt"
	"reflect"
)

// ===========================================================================
// Document store
// Lớp mỏng phía trên Firestore: query, live snapshot, ghi từng trường.
// Notifier, session và status push chỉ phụ thuộc interface này.
// ===========================================================================

// Document một document kèm id
type Document struct {
	ID   string
	Data map[string]interface{}
}

// Operator toán tử so sánh hỗ trợ trong Filter
type Operator string

const (
	OpEqual    Operator = "=="
	OpNotEqual Operator = "!="
)

// Filter một điều kiện where
type Filter struct {
	Field string
	Op    Operator
	Value interface{}
}

// Query collection + các điều kiện AND
type Query struct {
	Collection string
	Filters    []Filter
}

// Collection tạo query lấy toàn bộ collection
func Collection(name string) Query {
	return Query{Collection: name}
}

// Where thêm điều kiện, trả về query mới
func (q Query) Where(field string, op Operator, value interface{}) Query {
	filters := make([]Filter, len(q.Filters), len(q.Filters)+1)
	copy(filters, q.Filters)
	q.Filters = append(filters, Filter{Field: field, Op: op, Value: value})
	return q
}

func (q Query) String() string {
	s := q.Collection
	for _, f := range q.Filters {
		s += fmt.Sprintf(" where %s %s %v", f.Field, f.Op, f.Value)
	}
	return s
}

// Matches kiểm tra document có thỏa query không (dùng cho store in-memory)
func (q Query) Matches(data map[string]interface{}) bool {
	for _, f := range q.Filters {
		v, ok := data[f.Field]
		switch f.Op {
		case OpEqual:
			if !ok || !EqualValues(v, f.Value) {
				return false
			}
		case OpNotEqual:
			if ok && EqualValues(v, f.Value) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// EqualValues so sánh như Firestore: số nguyên và số thực cùng giá trị là bằng nhau
func EqualValues(a, b interface{}) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}
	x, okA := toFloat(a)
	y, okB := toFloat(b)
	return okA && okB && x == y
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// SnapshotFunc nhận toàn bộ kết quả hiện tại của query mỗi khi có thay đổi
type SnapshotFunc func(docs []Document)

// ErrorFunc nhận lỗi làm listener dừng hẳn
type ErrorFunc func(err error)

// Unsubscribe dừng listener. Sau khi hàm trả về, không còn callback nào chạy;
// nếu đang có callback dở dang thì chờ nó xong, vì vậy không gọi từ bên trong callback
// (muốn tự dừng từ callback thì cancel ctx đã truyền vào Listen).
type Unsubscribe func()

// Store các thao tác document store mà hệ thống dùng
type Store interface {
	// Get đọc một document, trả về errors.ErrNotFound nếu không có
	Get(ctx context.Context, collection, id string) (*Document, error)

	// Find chạy query một lần
	Find(ctx context.Context, q Query) ([]Document, error)

	// Add thêm document mới với id tự sinh
	Add(ctx context.Context, collection string, data map[string]interface{}) (string, error)

	// Update cập nhật các trường, document phải tồn tại
	Update(ctx context.Context, collection, id string, fields map[string]interface{}) error

	// Merge ghi các trường, tạo document nếu chưa có
	Merge(ctx context.Context, collection, id string, fields map[string]interface{}) error

	// Delete xóa document
	Delete(ctx context.Context, collection, id string) error

	// SetFlagIfUnset đặt field = true trong transaction nếu field chưa là true.
	// Trả về true nếu lần gọi này là lần đặt cờ.
	SetFlagIfUnset(ctx context.Context, collection, id, field string) (bool, error)

	// Listen đăng ký live query. Snapshot đầu tiên là trạng thái hiện tại.
	Listen(ctx context.Context, q Query, onSnapshot SnapshotFunc, onError ErrorFunc) (Unsubscribe, error)
}
