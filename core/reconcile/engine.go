package reconcile

import (
	"fmt"
	"reflect"
	"strings"

	"treediff/core/utils"
)

// Engine diffs record trees against a Registry. It holds no per-call state
// and is safe for concurrent use on independent record graphs.
type Engine struct {
	registry *Registry
}

// New returns an Engine using the given registry.
func New(registry *Registry) *Engine {
	return &Engine{registry: registry}
}

// Registry returns the registry the engine was built with.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// DiffOne reconciles a single existing root with its calculated counterpart.
// A nil existing root means insert, a nil calculated root means delete and a
// key difference between two roots counts as an update. When nothing changed
// the result holds a nil Entity and no operations.
func DiffOne[T any](e *Engine, existing, calculated *T, opts DiffOptions) (Result[T], error) {
	et, r, err := e.start(reflect.TypeFor[T](), opts)
	if err != nil {
		return Result[T]{}, err
	}

	var out *T
	switch {
	case existing == nil && calculated == nil:
	case existing == nil:
		r.markInserted(et, calculated)
		out = calculated
	case calculated == nil:
		r.markDeleted(et, existing)
		out = existing
	default:
		changed, err := r.mergeMatched(et, existing, calculated, true)
		if err != nil {
			return Result[T]{}, err
		}
		if changed {
			out = existing
		}
	}

	return Result[T]{Entity: out, Operations: r.ops}, nil
}

// DiffMany reconciles two root collections matched by key. The root type must
// declare keys.
func DiffMany[T any](e *Engine, existing, calculated []*T, opts DiffOptions) (ManyResult[T], error) {
	et, r, err := e.start(reflect.TypeFor[T](), opts)
	if err != nil {
		return ManyResult[T]{}, err
	}
	if len(et.keys) == 0 {
		return ManyResult[T]{}, fmt.Errorf("%s: %w", et.typ, ErrMissingKey)
	}

	merged, _, err := r.mergeMany(et, toAny(existing), toAny(calculated))
	if err != nil {
		return ManyResult[T]{}, err
	}

	out := make([]*T, len(merged))
	for i, m := range merged {
		out[i] = m.(*T)
	}
	return ManyResult[T]{Entities: out, Operations: r.ops}, nil
}

func toAny[T any](items []*T) []any {
	out := make([]any, 0, len(items))
	for _, it := range items {
		if it != nil {
			out = append(out, it)
		}
	}
	return out
}

func (e *Engine) start(typ reflect.Type, opts DiffOptions) (*entityType, *run, error) {
	if e == nil || e.registry == nil {
		return nil, nil, fmt.Errorf("%s: %w", typ, ErrNotConfigured)
	}
	et, err := e.registry.lookup(typ)
	if err != nil {
		return nil, nil, err
	}

	var strat strategy
	switch opts.Equality {
	case "", EqualityPrecompiled:
		strat = precompiled{}
	case EqualityReflect:
		strat = reflective{}
	default:
		return nil, nil, fmt.Errorf("unknown equality mode %q", opts.Equality)
	}

	r := &run{strat: strat, opts: opts}
	if !opts.SkipOperations {
		r.ops = []Operation{}
	}
	return et, r, nil
}

// strategy evaluates key and value equality for one diff call.
type strategy interface {
	keysEqual(et *entityType, a, b any) bool
	keyHash(et *entityType, r any) string
	fieldEqual(f *fieldInfo, a, b any) bool
}

// precompiled uses the typed closures built at registry build time.
type precompiled struct{}

func (precompiled) keysEqual(et *entityType, a, b any) bool { return et.keysEqual(a, b) }

func (precompiled) keyHash(et *entityType, r any) string { return et.keyHash(r) }

func (precompiled) fieldEqual(f *fieldInfo, a, b any) bool { return f.equal(a, b) }

// reflective reads fields through reflection and dispatches on their type.
type reflective struct{}

func (s reflective) keysEqual(et *entityType, a, b any) bool {
	for _, f := range et.keys {
		if !s.fieldEqual(f, a, b) {
			return false
		}
	}
	return true
}

func (reflective) keyHash(et *entityType, r any) string {
	rv := reflect.ValueOf(r).Elem()
	if len(et.keys) == 1 {
		return et.keys[0].reflHash(rv.FieldByIndex(et.keys[0].index).Interface())
	}
	var sb strings.Builder
	for i, f := range et.keys {
		if i > 0 {
			sb.WriteByte(keySeparator)
		}
		sb.WriteString(f.reflHash(rv.FieldByIndex(f.index).Interface()))
	}
	return sb.String()
}

func (reflective) fieldEqual(f *fieldInfo, a, b any) bool {
	x := reflect.ValueOf(a).Elem().FieldByIndex(f.index)
	y := reflect.ValueOf(b).Elem().FieldByIndex(f.index)
	if f.cmp != nil {
		return f.cmp.equal(x.Interface(), y.Interface())
	}
	return valuesEqual(x, y)
}

// run carries the state of a single diff call.
type run struct {
	strat strategy
	opts  DiffOptions
	ops   []Operation
}

// mergeMany matches two collections of the same type by key and returns the
// pruned collection: changed and deleted existing records in existing order,
// then inserted calculated records in calculated order.
func (r *run) mergeMany(et *entityType, existing, calculated []any) ([]any, bool, error) {
	if len(existing) == 0 && len(calculated) == 0 {
		return []any{}, false, nil
	}

	// Index calculated records by key hash
	buckets := make(map[string][]int, len(calculated))
	for i, c := range calculated {
		h := r.strat.keyHash(et, c)
		buckets[h] = append(buckets[h], i)
	}
	if r.opts.RejectDuplicateKeys {
		if err := r.checkDuplicates(et, existing, calculated, buckets); err != nil {
			return nil, false, err
		}
	}

	matched := make([]bool, len(calculated))
	out := make([]any, 0)
	changed := false

	// Walk existing records, pairing each with the first unmatched calculated one
	for _, e := range existing {
		idx := -1
		for _, i := range buckets[r.strat.keyHash(et, e)] {
			if !matched[i] && r.strat.keysEqual(et, e, calculated[i]) {
				idx = i
				break
			}
		}

		// Gone from calculated
		if idx < 0 {
			r.markDeleted(et, e)
			out = append(out, e)
			changed = true
			continue
		}

		matched[idx] = true
		ch, err := r.mergeMatched(et, e, calculated[idx], false)
		if err != nil {
			return nil, false, err
		}
		if ch {
			out = append(out, e)
			changed = true
		}
	}

	// Whatever is left unmatched is new
	for i, c := range calculated {
		if matched[i] {
			continue
		}
		r.markInserted(et, c)
		out = append(out, c)
		changed = true
	}

	return out, changed, nil
}

func (r *run) checkDuplicates(et *entityType, existing, calculated []any, buckets map[string][]int) error {
	for _, idxs := range buckets {
		for i := 1; i < len(idxs); i++ {
			for j := 0; j < i; j++ {
				if r.strat.keysEqual(et, calculated[idxs[i]], calculated[idxs[j]]) {
					return fmt.Errorf("%s calculated %s: %w", et.name, r.keyText(et, calculated[idxs[i]]), ErrDuplicateKey)
				}
			}
		}
	}

	seen := make(map[string][]any, len(existing))
	for _, e := range existing {
		h := r.strat.keyHash(et, e)
		for _, prev := range seen[h] {
			if r.strat.keysEqual(et, e, prev) {
				return fmt.Errorf("%s existing %s: %w", et.name, r.keyText(et, e), ErrDuplicateKey)
			}
		}
		seen[h] = append(seen[h], e)
	}
	return nil
}

// mergeMatched diffs a matched pair and merges calculated into existing.
// With withKeys set, differing keys are copied and reported as changes.
func (r *run) mergeMatched(et *entityType, existing, calculated any, withKeys bool) (bool, error) {
	var changes []FieldChange
	local := false
	diff := func(f *fieldInfo) {
		if r.strat.fieldEqual(f, existing, calculated) {
			return
		}
		local = true
		if !r.opts.SkipOperations {
			changes = append(changes, FieldChange{
				Name:          f.name,
				ExistingValue: utils.ToString(f.get(existing)),
				NewValue:      utils.ToString(f.get(calculated)),
			})
		}
		f.copy(existing, calculated)
	}
	// Compare own fields
	if withKeys {
		for _, f := range et.keys {
			diff(f)
		}
	}
	for _, f := range et.values {
		diff(f)
	}

	if local && !r.opts.SkipOperations {
		r.ops = append(r.ops, Operation{
			Type:       OperationUpdate,
			EntityName: et.name,
			Keys:       r.keys(et, existing),
			Changes:    changes,
		})
	}

	// Recurse into relations
	changed := local
	pruned := make([][]any, len(et.many))
	for i, rel := range et.many {
		items, ch, err := r.mergeMany(rel.target, rel.getMany(existing), rel.getMany(calculated))
		if err != nil {
			return false, err
		}
		pruned[i] = items
		changed = changed || ch
	}

	oneChanged := make([]bool, len(et.one))
	for i, rel := range et.one {
		ch, err := r.mergeOne(rel, existing, calculated)
		if err != nil {
			return false, err
		}
		oneChanged[i] = ch
		changed = changed || ch
	}

	if !changed {
		return false, nil
	}

	// Keep only what changed below this record
	for i, rel := range et.many {
		rel.setMany(existing, pruned[i])
	}
	for i, rel := range et.one {
		if !oneChanged[i] {
			rel.setOne(existing, nil)
		}
	}
	for _, h := range et.onUpdate {
		h(existing, calculated)
	}
	return true, nil
}

// mergeOne handles the four presence cases of an optional child.
func (r *run) mergeOne(rel *relationInfo, existing, calculated any) (bool, error) {
	ec, cc := rel.getOne(existing), rel.getOne(calculated)
	switch {
	case ec == nil && cc == nil:
		return false, nil
	case ec == nil:
		rel.setOne(existing, cc)
		r.markInserted(rel.target, cc)
		return true, nil
	case cc == nil:
		r.markDeleted(rel.target, ec)
		return true, nil
	}
	return r.mergeMatched(rel.target, ec, cc, true)
}

// markInserted applies insert hooks and records Insert operations for a
// record and its whole subtree without comparing values.
func (r *run) markInserted(et *entityType, rec any) {
	r.mark(et, rec, OperationInsert, func(et *entityType) []func(dst, src any) { return et.onInsert })
}

// markDeleted is markInserted for records missing from the calculated tree.
func (r *run) markDeleted(et *entityType, rec any) {
	r.mark(et, rec, OperationDelete, func(et *entityType) []func(dst, src any) { return et.onDelete })
}

func (r *run) mark(et *entityType, rec any, op OperationType, hooks func(*entityType) []func(dst, src any)) {
	for _, h := range hooks(et) {
		h(rec, nil)
	}
	if !r.opts.SkipOperations {
		r.ops = append(r.ops, Operation{
			Type:       op,
			EntityName: et.name,
			Keys:       r.keys(et, rec),
		})
	}
	for _, rel := range et.many {
		for _, child := range rel.getMany(rec) {
			r.mark(rel.target, child, op, hooks)
		}
	}
	for _, rel := range et.one {
		if child := rel.getOne(rec); child != nil {
			r.mark(rel.target, child, op, hooks)
		}
	}
}

func (r *run) keys(et *entityType, rec any) []KeyValue {
	keys := make([]KeyValue, len(et.keys))
	for i, f := range et.keys {
		keys[i] = KeyValue{Name: f.name, Value: utils.ToString(f.get(rec))}
	}
	return keys
}

func (r *run) keyText(et *entityType, rec any) string {
	return Operation{Keys: r.keys(et, rec)}.KeyString()
}
