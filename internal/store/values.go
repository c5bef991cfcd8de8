package store

import (
	"reflect"
	"strings"
	"time"
)

// Field transforms. Adapters translate them into the native server-side
// operation of their engine.
type (
	Increment          int64
	ArrayUnion         []any
	ArrayRemove        []any
	TimestampTransform struct{}
)

// ServerTimestamp resolves to the store's clock at write time.
var ServerTimestamp = TimestampTransform{}

func (d *Doc) Has(key string) bool {
	_, ok := d.Fields[key]
	return ok
}

func (d *Doc) String(key string) string {
	s, _ := d.Fields[key].(string)
	return s
}

func (d *Doc) Bool(key string) bool {
	b, _ := d.Fields[key].(bool)
	return b
}

func (d *Doc) Int(key string) int64 {
	n, _ := ToInt64(d.Fields[key])
	return n
}

func (d *Doc) Time(key string) time.Time {
	t, _ := ToTime(d.Fields[key])
	return t
}

func (d *Doc) Strings(key string) []string {
	return ToStrings(d.Fields[key])
}

func (d *Doc) StringMap(key string) map[string]string {
	out := map[string]string{}
	switch m := d.Fields[key].(type) {
	case map[string]string:
		for k, v := range m {
			out[k] = v
		}
	case map[string]any:
		for k, v := range m {
			if s, ok := v.(string); ok {
				out[k] = s
			}
		}
	}
	return out
}

func ToInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case Increment:
		return int64(n), true
	case float64:
		return int64(n), true
	case float32:
		return int64(n), true
	}
	return 0, false
}

func ToTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t != nil {
			return *t, true
		}
	}
	return time.Time{}, false
}

func ToStrings(v any) []string {
	switch vs := v.(type) {
	case []string:
		return append([]string(nil), vs...)
	case []any:
		out := make([]string, 0, len(vs))
		for _, x := range vs {
			if s, ok := x.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Compare orders two field values of the same kind. Values of unrelated kinds
// compare by kind name so ordering stays total.
func Compare(a, b any) int {
	if ta, ok := ToTime(a); ok {
		if tb, ok := ToTime(b); ok {
			return ta.Compare(tb)
		}
	}
	if na, ok := toFloat(a); ok {
		if nb, ok := toFloat(b); ok {
			switch {
			case na < nb:
				return -1
			case na > nb:
				return 1
			}
			return 0
		}
	}
	if sa, ok := a.(string); ok {
		if sb, ok := b.(string); ok {
			return strings.Compare(sa, sb)
		}
	}
	if ba, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok {
			switch {
			case ba == bb:
				return 0
			case !ba:
				return -1
			}
			return 1
		}
	}
	return strings.Compare(kindOf(a), kindOf(b))
}

// Equal reports whether two field values are the same value.
func Equal(a, b any) bool {
	if _, ok := toFloat(a); ok {
		if _, ok := toFloat(b); ok {
			return Compare(a, b) == 0
		}
	}
	if _, ok := ToTime(a); ok {
		if _, ok := ToTime(b); ok {
			return Compare(a, b) == 0
		}
	}
	return reflect.DeepEqual(a, b)
}

// CopyValue deep-copies the slice and map shapes documents are built from.
func CopyValue(v any) any {
	switch x := v.(type) {
	case []any:
		out := make([]any, len(x))
		for i := range x {
			out[i] = CopyValue(x[i])
		}
		return out
	case []string:
		return append([]string(nil), x...)
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[k] = CopyValue(val)
		}
		return out
	case map[string]string:
		out := make(map[string]string, len(x))
		for k, val := range x {
			out[k] = val
		}
		return out
	case Fields:
		return map[string]any(CopyFields(x))
	}
	return v
}

func CopyFields(f Fields) Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = CopyValue(v)
	}
	return out
}

func toFloat(v any) (float64, bool) {
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
	}
	return 0, false
}

func kindOf(v any) string {
	if v == nil {
		return ""
	}
	return reflect.TypeOf(v).String()
}
