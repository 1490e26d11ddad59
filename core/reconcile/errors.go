package reconcile

import "errors"

var (
	// ErrNotConfigured is returned when a type has no registered entity configuration.
	ErrNotConfigured = errors.New("entity type not configured")

	// ErrFieldNotReferenced is returned when an exported field is not declared
	// as key, value, relation, hook target or ignored.
	ErrFieldNotReferenced = errors.New("field not referenced")

	// ErrFieldReferencedTwice is returned when a field appears in more than one category.
	ErrFieldReferencedTwice = errors.New("field referenced more than once")

	// ErrUnknownField is returned when an accessor names a field the struct does
	// not have, or whose type does not match the accessor.
	ErrUnknownField = errors.New("unknown field")

	// ErrDuplicateKeyField is returned when keys are declared twice for one entity.
	ErrDuplicateKeyField = errors.New("key declared more than once")

	// ErrDuplicateEntity is returned when a type is registered twice.
	ErrDuplicateEntity = errors.New("entity type registered more than once")

	// ErrMissingKey is returned when a type used in a many relation has no keys.
	ErrMissingKey = errors.New("entity has no key fields")

	// ErrNavigationCycle is returned when relations form a cycle.
	ErrNavigationCycle = errors.New("navigation cycle")

	// ErrNotComparable is returned for a field type that has no comparer and
	// cannot be compared natively.
	ErrNotComparable = errors.New("field type not comparable")

	// ErrInvalidHook is returned for a copy assignment on an insert or delete hook.
	ErrInvalidHook = errors.New("invalid hook assignment")

	// ErrDuplicateKey is returned in strict mode when a collection holds two
	// records with equal keys.
	ErrDuplicateKey = errors.New("duplicate key in collection")
)
