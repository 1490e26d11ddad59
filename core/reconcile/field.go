package reconcile

import "reflect"

// Field binds a struct field of T to a typed accessor. Name must be the Go
// struct field name; it is used for the operation log, validation and the
// reflect equality mode.
type Field[T any] struct {
	name    string
	typ     reflect.Type
	get     func(*T) any
	copy    func(dst, src *T)
	own     *comparerEntry
	compile func(set comparerSet) fieldOps[T]
}

// fieldOps are the equality and hash closures of a field once comparer
// overrides are resolved.
type fieldOps[T any] struct {
	equal func(a, b *T) bool
	hash  func(r *T) string
}

// Prop declares a field through its accessor. An optional comparer applies to
// this field only and wins over any type-wide override.
//
//	reconcile.Prop("Total", func(r *Control) *decimal.Decimal { return &r.Total })
func Prop[T, V any](name string, acc func(*T) *V, cmp ...Comparer[V]) Field[T] {
	var own Comparer[V]
	if len(cmp) > 0 {
		own = cmp[0]
	}

	f := Field[T]{
		name: name,
		typ:  reflect.TypeFor[V](),
		get:  func(r *T) any { return *acc(r) },
		copy: func(dst, src *T) { *acc(dst) = *acc(src) },
		compile: func(set comparerSet) fieldOps[T] {
			eq, hash := typedComparer(own, set)
			return fieldOps[T]{
				equal: func(a, b *T) bool { return eq(*acc(a), *acc(b)) },
				hash:  func(r *T) string { return hash(*acc(r)) },
			}
		},
	}
	if own != nil {
		f.own = eraseComparer(own)
	}
	return f
}

// Name returns the struct field name.
func (f Field[T]) Name() string {
	return f.name
}

// Relation binds a navigation field of T to its child type.
type Relation[T any] struct {
	name      string
	fieldType reflect.Type
	target    reflect.Type
	many      bool
	getMany   func(*T) []any
	setMany   func(*T, []any)
	getOne    func(*T) any
	setOne    func(*T, any)
}

// HasMany declares a one-to-many relation held in a []*C field.
// Nil elements are skipped and a nil slice is treated as empty.
func HasMany[T, C any](name string, acc func(*T) *[]*C) Relation[T] {
	return Relation[T]{
		name:      name,
		fieldType: reflect.TypeFor[[]*C](),
		target:    reflect.TypeFor[C](),
		many:      true,
		getMany: func(r *T) []any {
			items := *acc(r)
			out := make([]any, 0, len(items))
			for _, it := range items {
				if it != nil {
					out = append(out, it)
				}
			}
			return out
		},
		setMany: func(r *T, items []any) {
			out := make([]*C, len(items))
			for i, it := range items {
				out[i] = it.(*C)
			}
			*acc(r) = out
		},
	}
}

// HasOne declares an optional one-to-one relation held in a *C field.
func HasOne[T, C any](name string, acc func(*T) **C) Relation[T] {
	return Relation[T]{
		name:      name,
		fieldType: reflect.TypeFor[*C](),
		target:    reflect.TypeFor[C](),
		getOne: func(r *T) any {
			if c := *acc(r); c != nil {
				return c
			}
			return nil
		},
		setOne: func(r *T, child any) {
			if child == nil {
				*acc(r) = nil
				return
			}
			*acc(r) = child.(*C)
		},
	}
}

// Assignment is a hook action: either setting a constant or copying a field
// from the calculated record onto the existing one.
type Assignment[T any] struct {
	name   string
	typ    reflect.Type
	isCopy bool
	apply  func(dst, src *T)
}

// Set assigns value to the field whenever the hook fires.
func Set[T, V any](name string, acc func(*T) *V, value V) Assignment[T] {
	return Assignment[T]{
		name:  name,
		typ:   reflect.TypeFor[V](),
		apply: func(dst, _ *T) { *acc(dst) = value },
	}
}

// Copy copies the field verbatim from the calculated record. Only valid on update.
func Copy[T, V any](name string, acc func(*T) *V) Assignment[T] {
	return Assignment[T]{
		name:   name,
		typ:    reflect.TypeFor[V](),
		isCopy: true,
		apply:  func(dst, src *T) { *acc(dst) = *acc(src) },
	}
}
