package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ===========================================================================
// Chuẩn hóa thời gian
// Document trên Firestore có trường ngày lưu lẫn lộn: Timestamp, chuỗi ISO,
// chuỗi ngày, epoch millis. Mọi chỗ đọc ngày đều đi qua ParseTime.
// ===========================================================================

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006 15:04",
	"02/01/2006",
}

// ParseTime chuyển giá trị thô thành time.Time (UTC)
func ParseTime(v interface{}) (time.Time, error) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, fmt.Errorf("parse time: empty value")
	case time.Time:
		return t.UTC(), nil
	case *time.Time:
		if t == nil {
			return time.Time{}, fmt.Errorf("parse time: nil pointer")
		}
		return t.UTC(), nil
	case string:
		return parseTimeString(t)
	case int64:
		return time.UnixMilli(t).UTC(), nil
	case int:
		return time.UnixMilli(int64(t)).UTC(), nil
	case float64:
		return time.UnixMilli(int64(math.Round(t))).UTC(), nil
	case map[string]interface{}:
		return parseTimestampMap(t)
	default:
		return time.Time{}, fmt.Errorf("parse time: unsupported type %T", v)
	}
}

func parseTimeString(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("parse time: empty string")
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("parse time: unrecognized format %q", s)
}

// parseTimestampMap xử lý Timestamp đã serialize ra JSON:
// {"seconds": ..., "nanoseconds": ...} hoặc {"_seconds": ..., "_nanoseconds": ...}
func parseTimestampMap(m map[string]interface{}) (time.Time, error) {
	sec, ok := number(m["seconds"])
	if !ok {
		sec, ok = number(m["_seconds"])
	}
	if !ok {
		return time.Time{}, fmt.Errorf("parse time: map without seconds")
	}
	nsec, ok := number(m["nanoseconds"])
	if !ok {
		nsec, _ = number(m["_nanoseconds"])
	}
	return time.Unix(int64(sec), int64(nsec)).UTC(), nil
}

func number(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}
