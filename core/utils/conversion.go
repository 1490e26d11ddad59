package utils

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"
)

// ToString renders a value as text.
// Nil values and nil pointers render as the empty string, pointers are
// dereferenced and fmt.Stringer implementations are honoured.
func ToString(val any) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	}

	rv := reflect.ValueOf(val)
	if rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return ""
		}
		return ToString(rv.Elem().Interface())
	}

	if s, ok := val.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%v", val)
}

// ToKey renders a value as a canonical string suitable for hashing.
// Values that compare equal render identically: times are normalised to UTC
// and negative zero collapses to zero.
func ToKey(val any) string {
	switch v := val.(type) {
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	case float64:
		if v == 0 {
			v = math.Abs(v)
		}
		return strconv.FormatFloat(v, 'g', -1, 64)
	case float32:
		if v == 0 {
			v = float32(math.Abs(float64(v)))
		}
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	}

	rv := reflect.ValueOf(val)
	if rv.Kind() == reflect.Pointer && !rv.IsNil() {
		return ToKey(rv.Elem().Interface())
	}
	return ToString(val)
}
