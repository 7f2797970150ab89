package util

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// SafeString renders a cell value as trimmed text. Missing values (nil,
// NaN, zero time, whitespace-only text) render as "". It never fails.
func SafeString(value any) string {
	var s string
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		s = v
	case *string:
		if v == nil {
			return ""
		}
		s = *v
	case []byte:
		s = string(v)
	case float64:
		s = formatFloat(v, 64)
	case float32:
		s = formatFloat(float64(v), 32)
	case int:
		s = strconv.Itoa(v)
	case int64:
		s = strconv.FormatInt(v, 10)
	case int32:
		s = strconv.FormatInt(int64(v), 10)
	case uint:
		s = strconv.FormatUint(uint64(v), 10)
	case uint64:
		s = strconv.FormatUint(v, 10)
	case bool:
		s = strconv.FormatBool(v)
	case time.Time:
		s = formatTime(v)
	case fmt.Stringer:
		s = v.String()
	default:
		s = fmt.Sprint(v)
	}
	return strings.TrimSpace(s)
}

func formatFloat(v float64, bits int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, bits)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02 15:04:05")
}
