// Package reconcile diffs two snapshots of a hierarchical record graph: the
// existing tree, as previously persisted, and the calculated tree, freshly
// computed. It merges calculated into existing, prunes everything that did not
// change and optionally emits an operation log of inserts, updates and
// deletes with field-level before/after values.
//
// # Architecture
//
// The package consists of three main components:
//
// 1. Builder and Registry: entity types are declared once with typed field
//    accessors (keys, tracked values, many/one relations, hooks, comparers).
//    Build validates every declaration and returns an immutable Registry.
//
// 2. Engine: the recursive match/diff/merge. Collections are matched by key
//    through a hash lookup, matched pairs are compared field by field and
//    inserted or deleted subtrees are marked without comparing values.
//
// 3. Plan: summarizes an operation log and dispatches it to a Sink.
//
// # Equality
//
// Two equality modes give identical results. EqualityPrecompiled (default)
// uses typed closures built at Build time. EqualityReflect reads fields
// through reflection and calls the type-erased comparers, which are resolved
// once per field at Build time like the typed ones.
// DecimalComparer and NullableDecimalComparer compare decimals after truncating
// to the configured precision.
//
// # Usage Example
//
//	b := reconcile.NewBuilder()
//	reconcile.DefaultComparer[decimal.Decimal](b, reconcile.NewDecimalComparer(6))
//	reconcile.PersistEntity[Order](b).
//	    Keys(reconcile.Prop("ID", func(o *Order) *int { return &o.ID })).
//	    Values(reconcile.Prop("Total", func(o *Order) *decimal.Decimal { return &o.Total })).
//	    Many(reconcile.HasMany("Lines", func(o *Order) *[]*Line { return &o.Lines }))
//	// ... Line declarations
//	registry, err := b.Build()
//
//	engine := reconcile.New(registry)
//	result, err := reconcile.DiffOne(engine, existing, calculated, reconcile.DiffOptions{})
//	if result.Changed() {
//	    persist(result.Entity, result.Operations)
//	}
package reconcile
