package reconcile

import "fmt"

// OperationType represents the kind of structural change recorded for an entity.
type OperationType string

const (
	// OperationInsert marks a record present only in the calculated tree.
	OperationInsert OperationType = "insert"
	// OperationUpdate marks a matched record whose own fields changed.
	OperationUpdate OperationType = "update"
	// OperationDelete marks a record present only in the existing tree.
	OperationDelete OperationType = "delete"
)

// KeyValue is one identifying key field rendered as text.
type KeyValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// FieldChange describes a single field that differs between existing and calculated.
type FieldChange struct {
	// Name is the struct field name.
	Name string `json:"name"`

	// ExistingValue is the value held by the existing record before the merge.
	ExistingValue string `json:"existing_value"`

	// NewValue is the value taken from the calculated record.
	NewValue string `json:"new_value"`
}

// Operation is one entry of the operation log produced by a diff.
type Operation struct {
	// Type is insert, update or delete.
	Type OperationType `json:"type"`

	// EntityName is the configured name of the entity type.
	EntityName string `json:"entity_name"`

	// Keys identifies the record within its parent collection.
	Keys []KeyValue `json:"keys"`

	// Changes lists the changed fields. Only populated for updates.
	Changes []FieldChange `json:"changes,omitempty"`
}

// KeyString renders the keys as "name=value" pairs separated by commas.
func (o Operation) KeyString() string {
	s := ""
	for i, k := range o.Keys {
		if i > 0 {
			s += ","
		}
		s += k.Name + "=" + k.Value
	}
	return s
}

// EqualityMode selects how field equality is evaluated during a diff.
type EqualityMode string

const (
	// EqualityPrecompiled uses typed closures compiled once per entity type.
	EqualityPrecompiled EqualityMode = "precompiled"
	// EqualityReflect reads fields through reflection and dispatches on field type.
	EqualityReflect EqualityMode = "reflect"
)

// ParseEqualityMode converts a configuration string into an EqualityMode.
// An empty string selects EqualityPrecompiled.
func ParseEqualityMode(s string) (EqualityMode, error) {
	switch EqualityMode(s) {
	case "", EqualityPrecompiled:
		return EqualityPrecompiled, nil
	case EqualityReflect:
		return EqualityReflect, nil
	}
	return "", fmt.Errorf("unknown equality mode %q", s)
}

// DiffOptions controls a single diff call.
type DiffOptions struct {
	// Equality selects the equality strategy. Zero value means precompiled.
	Equality EqualityMode

	// SkipOperations disables the operation log; only the merged tree is produced.
	SkipOperations bool

	// RejectDuplicateKeys fails the diff with ErrDuplicateKey instead of pairing
	// duplicate keys first-come-first-served.
	RejectDuplicateKeys bool
}

// Result is the outcome of DiffOne.
type Result[T any] struct {
	// Entity is the merged root, or nil when nothing changed.
	Entity *T

	// Operations is the operation log in pre-order.
	Operations []Operation
}

// Changed reports whether the diff found any difference.
func (r Result[T]) Changed() bool {
	return r.Entity != nil
}

// ManyResult is the outcome of DiffMany.
type ManyResult[T any] struct {
	// Entities holds changed, deleted and inserted roots. Unchanged roots are omitted.
	Entities []*T

	// Operations is the operation log in pre-order.
	Operations []Operation
}

// Changed reports whether the diff found any difference.
func (r ManyResult[T]) Changed() bool {
	return len(r.Entities) > 0
}
