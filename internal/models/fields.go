package models

import (
	"fmt"
	"time"
)

// Fields dữ liệu thô của một document (map từ docstore)
type Fields map[string]interface{}

// String đọc trường chuỗi, số được format lại thành chuỗi
func (f Fields) String(key string) string {
	switch v := f[key].(type) {
	case string:
		return v
	case nil:
		return ""
	case float64, int64, int:
		return fmt.Sprint(v)
	default:
		return ""
	}
}

// Bool đọc trường bool, mặc định false
func (f Fields) Bool(key string) bool {
	b, _ := f[key].(bool)
	return b
}

// Int đọc trường số nguyên
func (f Fields) Int(key string) int64 {
	if n, ok := number(f[key]); ok {
		return int64(n)
	}
	return 0
}

// Float đọc trường số thực
func (f Fields) Float(key string) float64 {
	n, _ := number(f[key])
	return n
}

// Strings đọc mảng chuỗi, bỏ qua phần tử không phải chuỗi
func (f Fields) Strings(key string) []string {
	raw, ok := f[key].([]interface{})
	if !ok {
		if ss, ok := f[key].([]string); ok {
			return ss
		}
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Time đọc trường thời gian, zero time nếu thiếu hoặc sai định dạng
func (f Fields) Time(key string) (time.Time, bool) {
	t, err := ParseTime(f[key])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
