package reconcile

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDecimalComparer(t *testing.T) {
	c := NewDecimalComparer(6)

	tests := []struct {
		a, b  string
		equal bool
	}{
		{"1.123456789", "1.1234561212121", true},
		{"1.123456", "1.123457", false},
		{"-7", "-7.000000", true},
		{"420", "-7", false},
		{"1.9999999", "2", false},
		{"2.0000009", "2", true},
		{"-1.1234569", "-1.123456", true},
	}
	for _, tt := range tests {
		a, b := dec(tt.a), dec(tt.b)
		assert.Equal(t, tt.equal, c.Equal(a, b), "%s vs %s", tt.a, tt.b)
		if tt.equal {
			assert.Equal(t, c.Hash(a), c.Hash(b), "equal values hash alike")
		}
	}
}

func TestNullableDecimalComparer(t *testing.T) {
	c := NewNullableDecimalComparer(2)

	assert.True(t, c.Equal(nil, nil))
	assert.False(t, c.Equal(nil, decPtr("0")))
	assert.False(t, c.Equal(decPtr("0"), nil))
	assert.True(t, c.Equal(decPtr("1.001"), decPtr("1.004")))
	assert.NotEqual(t, c.Hash(nil), c.Hash(decPtr("0")))
}

func TestFloatComparer(t *testing.T) {
	c := FloatComparer{Precision: 2}

	assert.True(t, c.Equal(0.1+0.2, 0.3))
	assert.False(t, c.Equal(0.3, 0.31))
	assert.False(t, c.Equal(math.NaN(), math.NaN()))
	assert.True(t, c.Equal(math.Inf(1), math.Inf(1)))
	assert.Equal(t, c.Hash(0.1+0.2), c.Hash(0.3))
	assert.True(t, c.Equal(0.129, 0.121), "digits past the precision are dropped")
	assert.Equal(t, c.Hash(0.129), c.Hash(0.121))
}

func TestComparerFunc(t *testing.T) {
	caseless := ComparerFunc[string](func(a, b string) bool { return len(a) == len(b) })
	assert.True(t, caseless.Equal("abc", "xyz"))
	assert.False(t, caseless.Equal("ab", "xyz"))
}

func TestNativeEqual(t *testing.T) {
	utc := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	cet := utc.In(time.FixedZone("CET", 3600))
	s1, s2 := "x", "x"

	tests := []struct {
		name  string
		a, b  any
		equal bool
	}{
		{"TimeAcrossZones", utc, cet, true},
		{"DecimalScale", dec("1.50"), dec("1.5"), true},
		{"NilPointers", (*string)(nil), (*string)(nil), true},
		{"NilVsValue", (*string)(nil), &s1, false},
		{"PointersToEqual", &s1, &s2, true},
		{"Ints", 3, 3, true},
		{"DifferentTypes", int32(3), int64(3), false},
		{"EqualSlices", []int{1, 2}, []int{1, 2}, true},
		{"DifferentSlices", []int{1}, []int{2}, false},
		{"Maps", map[string]int{"a": 1}, map[string]int{"a": 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.equal, nativeEqual(tt.a, tt.b))
		})
	}
}

func TestTypedComparerMatchesReflect(t *testing.T) {
	utc := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	cet := utc.In(time.FixedZone("CET", 3600))

	eq, hash := typedComparer[time.Time](nil, nil)
	assert.True(t, eq(utc, cet))
	assert.Equal(t, hash(utc), hash(cet))
	assert.True(t, valuesEqual(reflect.ValueOf(utc), reflect.ValueOf(cet)))

	eqp, _ := typedComparer[*time.Time](nil, nil)
	assert.True(t, eqp(&utc, &cet))
	assert.False(t, eqp(nil, &cet))
}

func TestTypedComparerPrecedence(t *testing.T) {
	set := comparerSet{reflect.TypeFor[decimal.Decimal](): eraseComparer[decimal.Decimal](NewDecimalComparer(0))}

	eq, hash := typedComparer[decimal.Decimal](nil, set)
	assert.True(t, eq(dec("1.2"), dec("1.4")), "type override applies")
	assert.Equal(t, "1", hash(dec("1.2")))

	eq, _ = typedComparer[decimal.Decimal](NewDecimalComparer(2), set)
	assert.False(t, eq(dec("1.2"), dec("1.4")), "field comparer wins")

	eqs, hashs := typedComparer[string](ComparerFunc[string](func(a, b string) bool { return true }), nil)
	assert.True(t, eqs("a", "b"))
	assert.Equal(t, "", hashs("a"), "comparers without Hash share one bucket")
}

func TestNativeHashable(t *testing.T) {
	assert.True(t, nativeHashable(reflect.TypeFor[int]()))
	assert.True(t, nativeHashable(reflect.TypeFor[*string]()))
	assert.True(t, nativeHashable(reflect.TypeFor[time.Time]()))
	assert.True(t, nativeHashable(reflect.TypeFor[decimal.Decimal]()))
	assert.False(t, nativeHashable(reflect.TypeFor[struct{ A int }]()))
	assert.False(t, nativeComparable(reflect.TypeFor[[]int]()))
	assert.True(t, nativeComparable(reflect.TypeFor[*decimal.Decimal]()))
}
