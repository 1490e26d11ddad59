package reconcile

import (
	"fmt"
	"reflect"
	"sort"

	"go.uber.org/multierr"
)

type entityDecl interface {
	recordType() reflect.Type
	compile(defaults comparerSet) (*entityType, error)
}

// Builder accumulates entity declarations. It is not safe for concurrent use;
// call Build once all entities are declared.
type Builder struct {
	decls     []entityDecl
	seen      map[reflect.Type]bool
	comparers comparerSet
	err       error
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		seen:      make(map[reflect.Type]bool),
		comparers: comparerSet{},
	}
}

func (b *Builder) register(typ reflect.Type, d entityDecl) {
	if b.seen[typ] {
		b.err = multierr.Append(b.err, fmt.Errorf("%s: %w", typ, ErrDuplicateEntity))
		return
	}
	b.seen[typ] = true
	b.decls = append(b.decls, d)
}

// DefaultComparer sets the comparer for every field of type V across all
// entities. Entity-level and field-level comparers take precedence.
func DefaultComparer[V any](b *Builder, c Comparer[V]) *Builder {
	b.comparers[reflect.TypeFor[V]()] = eraseComparer(c)
	return b
}

// Build validates every declaration and returns the immutable Registry.
// All configuration problems are reported together.
func (b *Builder) Build() (*Registry, error) {
	errs := b.err
	types := make(map[reflect.Type]*entityType, len(b.decls))

	for _, d := range b.decls {
		et, err := d.compile(b.comparers)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		types[d.recordType()] = et
	}

	// Entities that failed to compile are absent from types; skip linking
	// checks that would only repeat their errors.
	failed := len(types) != len(b.decls)

	for _, et := range types {
		for _, rel := range et.many {
			target, ok := types[rel.targetType]
			if !ok {
				if !failed || !b.seen[rel.targetType] {
					errs = multierr.Append(errs, fmt.Errorf("%s.%s: %s: %w", et.typ, rel.name, rel.targetType, ErrNotConfigured))
				}
				continue
			}
			if len(target.keys) == 0 {
				errs = multierr.Append(errs, fmt.Errorf("%s.%s: %s: %w", et.typ, rel.name, target.typ, ErrMissingKey))
			}
			rel.target = target
		}
		for _, rel := range et.one {
			target, ok := types[rel.targetType]
			if !ok {
				if !failed || !b.seen[rel.targetType] {
					errs = multierr.Append(errs, fmt.Errorf("%s.%s: %s: %w", et.typ, rel.name, rel.targetType, ErrNotConfigured))
				}
				continue
			}
			rel.target = target
		}
	}
	if errs != nil {
		return nil, errs
	}

	if err := checkCycles(types); err != nil {
		return nil, err
	}
	return &Registry{types: types}, nil
}

// checkCycles walks the relation graph depth-first and rejects any cycle,
// including self references.
func checkCycles(types map[reflect.Type]*entityType) error {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[*entityType]int, len(types))

	var visit func(et *entityType, path []string) error
	visit = func(et *entityType, path []string) error {
		switch state[et] {
		case visiting:
			return fmt.Errorf("%v -> %s: %w", path, et.name, ErrNavigationCycle)
		case done:
			return nil
		}
		state[et] = visiting
		path = append(path, et.name)
		for _, rel := range et.many {
			if err := visit(rel.target, path); err != nil {
				return err
			}
		}
		for _, rel := range et.one {
			if err := visit(rel.target, path); err != nil {
				return err
			}
		}
		state[et] = done
		return nil
	}

	// Deterministic order keeps error messages stable.
	ordered := make([]*entityType, 0, len(types))
	for _, et := range types {
		ordered = append(ordered, et)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].typ.String() < ordered[j].typ.String() })

	for _, et := range ordered {
		if err := visit(et, nil); err != nil {
			return err
		}
	}
	return nil
}

// Registry maps record types to their compiled configuration.
// It is read-only and safe for concurrent use.
type Registry struct {
	types map[reflect.Type]*entityType
}

func (r *Registry) lookup(typ reflect.Type) (*entityType, error) {
	et, ok := r.types[typ]
	if !ok {
		return nil, fmt.Errorf("%s: %w", typ, ErrNotConfigured)
	}
	return et, nil
}

// EntityNames returns the configured entity names in sorted order.
func (r *Registry) EntityNames() []string {
	names := make([]string, 0, len(r.types))
	for _, et := range r.types {
		names = append(names, et.name)
	}
	sort.Strings(names)
	return names
}
