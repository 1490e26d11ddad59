package reconcile

import (
	"context"
	"fmt"
)

// PlanSummary provides aggregate statistics for an operation log.
type PlanSummary struct {
	// Inserts counts Insert operations.
	Inserts int `json:"inserts"`

	// Updates counts Update operations.
	Updates int `json:"updates"`

	// Deletes counts Delete operations.
	Deletes int `json:"deletes"`

	// FieldChanges counts changed fields across all updates.
	FieldChanges int `json:"field_changes"`

	// Entities breaks the counts down per entity name.
	Entities map[string]EntitySummary `json:"entities"`
}

// EntitySummary holds the per-entity operation counts.
type EntitySummary struct {
	Inserts int `json:"inserts"`
	Updates int `json:"updates"`
	Deletes int `json:"deletes"`
}

// Total returns the number of operations summarized.
func (s PlanSummary) Total() int {
	return s.Inserts + s.Updates + s.Deletes
}

// Summarize counts the operations of a log.
func Summarize(ops []Operation) PlanSummary {
	summary := PlanSummary{Entities: make(map[string]EntitySummary)}
	for _, op := range ops {
		es := summary.Entities[op.EntityName]
		switch op.Type {
		case OperationInsert:
			summary.Inserts++
			es.Inserts++
		case OperationUpdate:
			summary.Updates++
			summary.FieldChanges += len(op.Changes)
			es.Updates++
		case OperationDelete:
			summary.Deletes++
			es.Deletes++
		}
		summary.Entities[op.EntityName] = es
	}
	return summary
}

// Sink receives operations one at a time.
type Sink interface {
	Insert(ctx context.Context, op Operation) error
	Update(ctx context.Context, op Operation) error
	Delete(ctx context.Context, op Operation) error
}

// BatchSink is implemented by sinks that can apply a whole log at once,
// e.g. inside a single transaction.
type BatchSink interface {
	ApplyBatch(ctx context.Context, ops []Operation) error
}

// Apply dispatches an operation log to a sink in log order.
// Returns the number of operations applied and any error encountered.
// Sinks implementing ApplyBatch receive the whole log in one call.
func Apply(ctx context.Context, sink Sink, ops []Operation) (executed int, err error) {
	if len(ops) == 0 {
		return 0, nil
	}

	// Try batch apply first
	if batch, ok := sink.(BatchSink); ok {
		if err := batch.ApplyBatch(ctx, ops); err != nil {
			return 0, fmt.Errorf("failed to apply operation batch: %w", err)
		}
		return len(ops), nil
	}

	// Fallback to one-at-a-time
	for _, op := range ops {
		if err := ctx.Err(); err != nil {
			return executed, err
		}
		switch op.Type {
		case OperationInsert:
			err = sink.Insert(ctx, op)
		case OperationUpdate:
			err = sink.Update(ctx, op)
		case OperationDelete:
			err = sink.Delete(ctx, op)
		default:
			err = fmt.Errorf("unknown operation type %q", op.Type)
		}
		if err != nil {
			return executed, fmt.Errorf("failed to apply %s %s %s: %w", op.Type, op.EntityName, op.KeyString(), err)
		}
		executed++
	}
	return executed, nil
}
