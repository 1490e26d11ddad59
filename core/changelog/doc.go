// Package changelog persists diff operation logs to the changelog_entries table.
//
// A Writer is bound to one run id and implements both reconcile.Sink and
// reconcile.BatchSink, so reconcile.Apply hands it the whole log in a single
// transaction. Update operations are flattened into one row per changed field.
//
//	store := changelog.NewStore(db)
//	if _, err := store.Prepare(ctx); err != nil { ... }
//	n, err := reconcile.Apply(ctx, store.Writer(runID), result.Operations)
package changelog
