package reconcile

import (
	"math"
	"reflect"
	"time"

	"treediff/core/utils"

	"github.com/shopspring/decimal"
)

// Comparer decides whether two values of a field are equal for diffing purposes.
type Comparer[V any] interface {
	Equal(a, b V) bool
}

// Hasher is implemented by comparers whose equality is coarser than ==.
// Values reported equal by the comparer must produce the same hash, which lets
// key fields using the comparer take part in hashed matching.
type Hasher[V any] interface {
	Hash(v V) string
}

// ComparerFunc adapts a plain function to the Comparer interface.
type ComparerFunc[V any] func(a, b V) bool

// Equal calls f(a, b).
func (f ComparerFunc[V]) Equal(a, b V) bool {
	return f(a, b)
}

// comparerEntry is the type-erased form of a Comparer, used by the reflect
// equality mode and for type lookups at build time.
type comparerEntry struct {
	typ   reflect.Type
	typed any
	equal func(a, b any) bool
	hash  func(v any) string
}

func eraseComparer[V any](c Comparer[V]) *comparerEntry {
	e := &comparerEntry{
		typ:   reflect.TypeFor[V](),
		typed: c,
		equal: func(a, b any) bool { return c.Equal(a.(V), b.(V)) },
		hash:  unhashed,
	}
	if h, ok := c.(Hasher[V]); ok {
		e.hash = func(v any) string { return h.Hash(v.(V)) }
	}
	return e
}

// comparerSet maps a value type to its override comparer.
type comparerSet map[reflect.Type]*comparerEntry

// typedComparer resolves the comparer for V: the field-specific one first, then
// the type override, then native equality. The returned hash function is
// consistent with the returned equality.
func typedComparer[V any](own Comparer[V], set comparerSet) (func(a, b V) bool, func(v V) string) {
	c := own
	if c == nil {
		if e, ok := set[reflect.TypeFor[V]()]; ok {
			c = e.typed.(Comparer[V])
		}
	}
	if c != nil {
		if h, ok := c.(Hasher[V]); ok {
			return c.Equal, h.Hash
		}
		return c.Equal, func(V) string { return "" }
	}
	if !nativeHashable(reflect.TypeFor[V]()) {
		return nativeComparer[V](), func(V) string { return "" }
	}
	return nativeComparer[V](), func(v V) string { return utils.ToKey(v) }
}

type equaler[V any] interface {
	Equal(V) bool
}

// nativeComparer returns the default equality for V without going through
// reflection where the type allows it.
func nativeComparer[V any]() func(a, b V) bool {
	var zero V
	if _, ok := any(zero).(equaler[V]); ok {
		return func(a, b V) bool { return any(a).(equaler[V]).Equal(b) }
	}
	switch reflect.TypeFor[V]().Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Struct, reflect.Array:
		return func(a, b V) bool { return nativeEqual(a, b) }
	}
	return func(a, b V) bool { return any(a) == any(b) }
}

// nativeEqual is the reflective default equality: nil-safe, dereferencing
// pointers, honouring an Equal(T) bool method and falling back to ==.
// Dynamic values that == cannot compare, such as a slice held in an
// interface field, are compared with reflect.DeepEqual.
func nativeEqual(a, b any) bool {
	return valuesEqual(reflect.ValueOf(a), reflect.ValueOf(b))
}

func valuesEqual(a, b reflect.Value) bool {
	if !a.IsValid() || !b.IsValid() {
		return a.IsValid() == b.IsValid()
	}
	if a.Type() != b.Type() {
		return false
	}

	switch a.Kind() {
	case reflect.Pointer, reflect.Interface:
		if a.IsNil() || b.IsNil() {
			return a.IsNil() && b.IsNil()
		}
		return valuesEqual(a.Elem(), b.Elem())
	}

	// Only value-receiver methods, so addressable field values behave like copies.
	if m, ok := a.Type().MethodByName("Equal"); ok {
		mt := m.Type
		if mt.NumIn() == 2 && mt.In(1) == a.Type() && mt.NumOut() == 1 && mt.Out(0).Kind() == reflect.Bool {
			return m.Func.Call([]reflect.Value{a, b})[0].Bool()
		}
	}
	if !a.Comparable() || !b.Comparable() {
		return a.CanInterface() && b.CanInterface() && reflect.DeepEqual(a.Interface(), b.Interface())
	}
	return a.Equal(b)
}

var (
	timeType    = reflect.TypeFor[time.Time]()
	decimalType = reflect.TypeFor[decimal.Decimal]()
)

// nativeHashable reports whether utils.ToKey agrees with native equality for
// values of t, i.e. equal values always render to the same key text.
func nativeHashable(t reflect.Type) bool {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == timeType || t == decimalType {
		return true
	}
	if _, ok := t.MethodByName("Equal"); ok {
		return false
	}
	switch t.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// nativeComparable reports whether native equality can be applied to t
// without panicking.
func nativeComparable(t reflect.Type) bool {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if m, ok := t.MethodByName("Equal"); ok && m.Type.NumIn() == 2 && m.Type.In(1) == t {
		return true
	}
	return t.Comparable()
}

func unhashed(any) string { return "" }

func nativeKey(v any) string { return utils.ToKey(v) }

// DecimalComparer compares decimals after truncating both sides to the given
// number of decimal places.
type DecimalComparer struct {
	Precision int32
}

// NewDecimalComparer returns a DecimalComparer truncating to precision places.
func NewDecimalComparer(precision int32) DecimalComparer {
	return DecimalComparer{Precision: precision}
}

// Equal reports whether a and b are equal once truncated.
func (c DecimalComparer) Equal(a, b decimal.Decimal) bool {
	return a.Truncate(c.Precision).Equal(b.Truncate(c.Precision))
}

// Hash returns the truncated decimal as text.
func (c DecimalComparer) Hash(v decimal.Decimal) string {
	return v.Truncate(c.Precision).String()
}

// NullableDecimalComparer is DecimalComparer for optional decimals.
// Two nils are equal; nil and a value are not.
type NullableDecimalComparer struct {
	Precision int32
}

// NewNullableDecimalComparer returns a NullableDecimalComparer truncating to precision places.
func NewNullableDecimalComparer(precision int32) NullableDecimalComparer {
	return NullableDecimalComparer{Precision: precision}
}

// Equal reports whether a and b are both nil or equal once truncated.
func (c NullableDecimalComparer) Equal(a, b *decimal.Decimal) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return DecimalComparer(c).Equal(*a, *b)
}

// Hash returns the truncated decimal as text, or the empty string for nil.
func (c NullableDecimalComparer) Hash(v *decimal.Decimal) string {
	if v == nil {
		return ""
	}
	return "d" + DecimalComparer(c).Hash(*v)
}

// FloatComparer compares floats after truncating both sides to the given
// number of decimal places. NaN is never equal to anything.
type FloatComparer struct {
	Precision int32
}

// Equal reports whether a and b are equal once truncated.
func (c FloatComparer) Equal(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) || math.IsInf(a, 0) || math.IsInf(b, 0) {
		return a == b
	}
	return c.truncate(a).Equal(c.truncate(b))
}

// Hash returns the truncated float as text.
func (c FloatComparer) Hash(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return utils.ToKey(v)
	}
	return c.truncate(v).String()
}

func (c FloatComparer) truncate(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Truncate(c.Precision)
}
