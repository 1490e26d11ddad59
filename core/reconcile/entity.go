package reconcile

import (
	"fmt"
	"reflect"
	"strings"

	"go.uber.org/multierr"
)

// EntityBuilder collects the configuration of one record type.
// Methods return the builder so declarations can be chained.
type EntityBuilder[T any] struct {
	typ       reflect.Type
	name      string
	keys      []Field[T]
	keysSet   bool
	values    []Field[T]
	many      []Relation[T]
	one       []Relation[T]
	onInsert  []Assignment[T]
	onUpdate  []Assignment[T]
	onDelete  []Assignment[T]
	ignored   []string
	comparers comparerSet
	err       error
}

// Entity registers T with the builder and returns its configuration surface.
// T must be a struct type; records are always handled as *T.
func Entity[T any](b *Builder) *EntityBuilder[T] {
	typ := reflect.TypeFor[T]()
	eb := &EntityBuilder[T]{
		typ:       typ,
		name:      typ.Name(),
		comparers: comparerSet{},
	}
	if typ.Kind() != reflect.Struct {
		eb.err = fmt.Errorf("%s: entities must be structs", typ)
	}
	b.register(typ, eb)
	return eb
}

// Named overrides the entity name used in the operation log.
func (eb *EntityBuilder[T]) Named(name string) *EntityBuilder[T] {
	eb.name = name
	return eb
}

// Keys declares the fields identifying a record within its parent collection.
func (eb *EntityBuilder[T]) Keys(fields ...Field[T]) *EntityBuilder[T] {
	if eb.keysSet {
		eb.err = multierr.Append(eb.err, fmt.Errorf("%s: %w", eb.typ, ErrDuplicateKeyField))
		return eb
	}
	eb.keysSet = true
	eb.keys = fields
	return eb
}

// Values declares the tracked fields compared to decide whether a record changed.
func (eb *EntityBuilder[T]) Values(fields ...Field[T]) *EntityBuilder[T] {
	eb.values = append(eb.values, fields...)
	return eb
}

// Many declares one-to-many relations.
func (eb *EntityBuilder[T]) Many(rels ...Relation[T]) *EntityBuilder[T] {
	for _, r := range rels {
		if !r.many {
			eb.err = multierr.Append(eb.err, fmt.Errorf("%s.%s: declared with HasOne but registered as many", eb.typ, r.name))
			continue
		}
		eb.many = append(eb.many, r)
	}
	return eb
}

// One declares optional one-to-one relations.
func (eb *EntityBuilder[T]) One(rels ...Relation[T]) *EntityBuilder[T] {
	for _, r := range rels {
		if r.many {
			eb.err = multierr.Append(eb.err, fmt.Errorf("%s.%s: declared with HasMany but registered as one", eb.typ, r.name))
			continue
		}
		eb.one = append(eb.one, r)
	}
	return eb
}

// OnInsert adds assignments applied to inserted records and their subtrees.
func (eb *EntityBuilder[T]) OnInsert(as ...Assignment[T]) *EntityBuilder[T] {
	eb.onInsert = append(eb.onInsert, as...)
	return eb
}

// OnUpdate adds assignments applied to matched records when they or a descendant changed.
func (eb *EntityBuilder[T]) OnUpdate(as ...Assignment[T]) *EntityBuilder[T] {
	eb.onUpdate = append(eb.onUpdate, as...)
	return eb
}

// OnDelete adds assignments applied to deleted records and their subtrees.
func (eb *EntityBuilder[T]) OnDelete(as ...Assignment[T]) *EntityBuilder[T] {
	eb.onDelete = append(eb.onDelete, as...)
	return eb
}

// Ignore excludes fields from diffing.
func (eb *EntityBuilder[T]) Ignore(names ...string) *EntityBuilder[T] {
	eb.ignored = append(eb.ignored, names...)
	return eb
}

// Audit field names excluded by IgnoreAudit and IgnoreUpdateAudit.
var (
	createAuditFields = []string{"CreatedOn", "CreatedBy"}
	updateAuditFields = []string{"UpdatedOn", "UpdatedBy"}
)

// IgnoreAudit excludes the CreatedOn, CreatedBy, UpdatedOn and UpdatedBy fields.
func (eb *EntityBuilder[T]) IgnoreAudit() *EntityBuilder[T] {
	return eb.Ignore(createAuditFields...).IgnoreUpdateAudit()
}

// IgnoreUpdateAudit excludes the UpdatedOn and UpdatedBy fields.
func (eb *EntityBuilder[T]) IgnoreUpdateAudit() *EntityBuilder[T] {
	return eb.Ignore(updateAuditFields...)
}

// WithComparer overrides equality for every field of type V on this entity.
// A comparer passed to Prop still wins.
func WithComparer[T, V any](eb *EntityBuilder[T], c Comparer[V]) *EntityBuilder[T] {
	eb.comparers[reflect.TypeFor[V]()] = eraseComparer(c)
	return eb
}

// PersistChange is the marker PersistEntity writes into records.
type PersistChange string

const (
	PersistNone   PersistChange = ""
	PersistInsert PersistChange = "insert"
	PersistUpdate PersistChange = "update"
	PersistDelete PersistChange = "delete"
)

// Persisted can be embedded into records to carry a PersistChange marker.
type Persisted struct {
	PersistChange PersistChange `json:"persist_change,omitempty" gorm:"-"`
}

// Change returns a pointer to the marker.
func (p *Persisted) Change() *PersistChange {
	return &p.PersistChange
}

// PersistEntity registers T with hooks writing PersistInsert, PersistUpdate and
// PersistDelete into its PersistChange field. *T must expose the field through
// Change, typically by embedding Persisted.
func PersistEntity[T any, PT interface {
	*T
	Change() *PersistChange
}](b *Builder) *EntityBuilder[T] {
	acc := func(r *T) *PersistChange { return PT(r).Change() }
	return Entity[T](b).
		OnInsert(Set("PersistChange", acc, PersistInsert)).
		OnUpdate(Set("PersistChange", acc, PersistUpdate)).
		OnDelete(Set("PersistChange", acc, PersistDelete))
}

// entityType is the compiled, type-erased configuration the engine walks.
type entityType struct {
	name string
	typ  reflect.Type

	keys   []*fieldInfo
	values []*fieldInfo
	many   []*relationInfo
	one    []*relationInfo

	onInsert []func(dst, src any)
	onUpdate []func(dst, src any)
	onDelete []func(dst, src any)

	keysEqual func(a, b any) bool
	keyHash   func(r any) string
}

type fieldInfo struct {
	name  string
	typ   reflect.Type
	index []int

	get  func(r any) any
	copy func(dst, src any)

	// precompiled mode
	equal func(a, b any) bool

	// reflect mode; cmp is nil when native equality applies
	cmp      *comparerEntry
	reflHash func(v any) string
}

type relationInfo struct {
	name       string
	targetType reflect.Type
	target     *entityType

	getMany func(r any) []any
	setMany func(r any, items []any)
	getOne  func(r any) any
	setOne  func(r any, child any)
}

func (eb *EntityBuilder[T]) recordType() reflect.Type {
	return eb.typ
}

// compile validates the declaration against the struct and produces the
// erased entityType. Relation targets are linked later by the Builder.
func (eb *EntityBuilder[T]) compile(defaults comparerSet) (*entityType, error) {
	if eb.err != nil && eb.typ.Kind() != reflect.Struct {
		return nil, eb.err
	}
	errs := eb.err

	set := make(comparerSet, len(defaults)+len(eb.comparers))
	for t, c := range defaults {
		set[t] = c
	}
	for t, c := range eb.comparers {
		set[t] = c
	}

	et := &entityType{name: eb.name, typ: eb.typ}
	refs := map[string]string{}
	reference := func(name, category string) {
		if prev, ok := refs[name]; ok {
			if prev == "hook" && category == "hook" {
				return
			}
			if prev == "key" && category == "key" {
				errs = multierr.Append(errs, fmt.Errorf("%s.%s: %w", eb.typ, name, ErrDuplicateKeyField))
				return
			}
			errs = multierr.Append(errs, fmt.Errorf("%s.%s: %s and %s: %w", eb.typ, name, prev, category, ErrFieldReferencedTwice))
			return
		}
		refs[name] = category
	}
	lookup := func(name string, typ reflect.Type) (reflect.StructField, bool) {
		sf, ok := eb.typ.FieldByName(name)
		if !ok || !sf.IsExported() {
			errs = multierr.Append(errs, fmt.Errorf("%s.%s: %w", eb.typ, name, ErrUnknownField))
			return sf, false
		}
		if sf.Type != typ {
			errs = multierr.Append(errs, fmt.Errorf("%s.%s: field is %s, accessor uses %s: %w", eb.typ, name, sf.Type, typ, ErrUnknownField))
			return sf, false
		}
		return sf, true
	}

	compileField := func(f Field[T], category string) *fieldInfo {
		reference(f.name, category)
		sf, ok := lookup(f.name, f.typ)
		if !ok {
			return nil
		}
		cmp := f.own
		if cmp == nil {
			cmp = set[f.typ]
		}
		if cmp == nil && !nativeComparable(f.typ) {
			errs = multierr.Append(errs, fmt.Errorf("%s.%s: %s: %w", eb.typ, f.name, f.typ, ErrNotComparable))
			return nil
		}

		ops := f.compile(set)
		fi := &fieldInfo{
			name:  f.name,
			typ:   f.typ,
			index: sf.Index,
			get:   func(r any) any { return f.get(r.(*T)) },
			copy:  func(dst, src any) { f.copy(dst.(*T), src.(*T)) },
			equal: func(a, b any) bool { return ops.equal(a.(*T), b.(*T)) },
			cmp:   cmp,
		}
		switch {
		case cmp != nil:
			fi.reflHash = cmp.hash
		case nativeHashable(f.typ):
			fi.reflHash = nativeKey
		default:
			fi.reflHash = unhashed
		}
		return fi
	}

	for _, f := range eb.keys {
		if fi := compileField(f, "key"); fi != nil {
			et.keys = append(et.keys, fi)
		}
	}
	for _, f := range eb.values {
		if fi := compileField(f, "value"); fi != nil {
			et.values = append(et.values, fi)
		}
	}

	compileRelation := func(r Relation[T], category string) *relationInfo {
		reference(r.name, category)
		if _, ok := lookup(r.name, r.fieldType); !ok {
			return nil
		}
		ri := &relationInfo{name: r.name, targetType: r.target}
		if r.many {
			ri.getMany = func(rec any) []any { return r.getMany(rec.(*T)) }
			ri.setMany = func(rec any, items []any) { r.setMany(rec.(*T), items) }
		} else {
			ri.getOne = func(rec any) any { return r.getOne(rec.(*T)) }
			ri.setOne = func(rec any, child any) { r.setOne(rec.(*T), child) }
		}
		return ri
	}
	for _, r := range eb.many {
		if ri := compileRelation(r, "many"); ri != nil {
			et.many = append(et.many, ri)
		}
	}
	for _, r := range eb.one {
		if ri := compileRelation(r, "one"); ri != nil {
			et.one = append(et.one, ri)
		}
	}

	compileHooks := func(as []Assignment[T], hook string, allowCopy bool) []func(dst, src any) {
		out := make([]func(dst, src any), 0, len(as))
		for _, a := range as {
			reference(a.name, "hook")
			if _, ok := lookup(a.name, a.typ); !ok {
				continue
			}
			if a.isCopy && !allowCopy {
				errs = multierr.Append(errs, fmt.Errorf("%s.%s: copy on %s: %w", eb.typ, a.name, hook, ErrInvalidHook))
				continue
			}
			apply := a.apply
			out = append(out, func(dst, src any) {
				s, _ := src.(*T)
				apply(dst.(*T), s)
			})
		}
		return out
	}
	et.onInsert = compileHooks(eb.onInsert, "insert", false)
	et.onUpdate = compileHooks(eb.onUpdate, "update", true)
	et.onDelete = compileHooks(eb.onDelete, "delete", false)

	for _, name := range eb.ignored {
		if sf, ok := eb.typ.FieldByName(name); !ok || !sf.IsExported() {
			errs = multierr.Append(errs, fmt.Errorf("%s.%s: ignored: %w", eb.typ, name, ErrUnknownField))
			continue
		}
		reference(name, "ignored")
	}

	for _, sf := range reflect.VisibleFields(eb.typ) {
		if !sf.IsExported() || sf.Anonymous {
			continue
		}
		if _, ok := refs[sf.Name]; !ok {
			errs = multierr.Append(errs, fmt.Errorf("%s.%s: %w", eb.typ, sf.Name, ErrFieldNotReferenced))
		}
	}

	if errs != nil {
		return nil, errs
	}

	keyOps := make([]fieldOps[T], len(eb.keys))
	for i, f := range eb.keys {
		keyOps[i] = f.compile(set)
	}
	et.keysEqual = func(a, b any) bool {
		x, y := a.(*T), b.(*T)
		for _, k := range keyOps {
			if !k.equal(x, y) {
				return false
			}
		}
		return true
	}
	et.keyHash = func(r any) string {
		x := r.(*T)
		if len(keyOps) == 1 {
			return keyOps[0].hash(x)
		}
		var sb strings.Builder
		for i, k := range keyOps {
			if i > 0 {
				sb.WriteByte(keySeparator)
			}
			sb.WriteString(k.hash(x))
		}
		return sb.String()
	}
	return et, nil
}

const keySeparator = '\x1f'
