package reconcile

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type node struct {
	ID       int
	Children []*node
}

type account struct {
	ID      int
	Name    string
	Tags    []string
	Balance decimal.Decimal
	secret  string
}

func TestBuild_Valid(t *testing.T) {
	b := NewBuilder()
	declareOrders(b)

	registry, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, []string{"Line", "Order", "Part", "Shipment"}, registry.EntityNames())
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name    string
		declare func(b *Builder)
		want    error
	}{
		{
			name: "FieldNotReferenced",
			declare: func(b *Builder) {
				Entity[account](b).
					Keys(Prop("ID", func(a *account) *int { return &a.ID })).
					Values(Prop("Name", func(a *account) *string { return &a.Name })).
					Ignore("Tags")
			},
			want: ErrFieldNotReferenced,
		},
		{
			name: "FieldReferencedTwice",
			declare: func(b *Builder) {
				Entity[account](b).
					Keys(Prop("ID", func(a *account) *int { return &a.ID })).
					Values(
						Prop("Name", func(a *account) *string { return &a.Name }),
						Prop("Balance", func(a *account) *decimal.Decimal { return &a.Balance }),
					).
					Ignore("Tags", "Name")
			},
			want: ErrFieldReferencedTwice,
		},
		{
			name: "KeysDeclaredTwice",
			declare: func(b *Builder) {
				Entity[account](b).
					Keys(Prop("ID", func(a *account) *int { return &a.ID })).
					Keys(Prop("Name", func(a *account) *string { return &a.Name })).
					Values(Prop("Balance", func(a *account) *decimal.Decimal { return &a.Balance })).
					Ignore("Tags")
			},
			want: ErrDuplicateKeyField,
		},
		{
			name: "SameKeyFieldTwice",
			declare: func(b *Builder) {
				Entity[account](b).
					Keys(
						Prop("ID", func(a *account) *int { return &a.ID }),
						Prop("ID", func(a *account) *int { return &a.ID }),
					).
					Ignore("Name", "Tags", "Balance")
			},
			want: ErrDuplicateKeyField,
		},
		{
			name: "UnknownField",
			declare: func(b *Builder) {
				Entity[account](b).
					Keys(Prop("Ident", func(a *account) *int { return &a.ID })).
					Ignore("ID", "Name", "Tags", "Balance")
			},
			want: ErrUnknownField,
		},
		{
			name: "AccessorTypeMismatch",
			declare: func(b *Builder) {
				Entity[account](b).
					Keys(Prop("Name", func(a *account) *int { return &a.ID })).
					Ignore("ID", "Name", "Tags", "Balance")
			},
			want: ErrUnknownField,
		},
		{
			name: "NotComparable",
			declare: func(b *Builder) {
				Entity[account](b).
					Keys(Prop("ID", func(a *account) *int { return &a.ID })).
					Values(Prop("Tags", func(a *account) *[]string { return &a.Tags })).
					Ignore("Name", "Balance")
			},
			want: ErrNotComparable,
		},
		{
			name: "CopyOnInsert",
			declare: func(b *Builder) {
				Entity[account](b).
					Keys(Prop("ID", func(a *account) *int { return &a.ID })).
					OnInsert(Copy("Name", func(a *account) *string { return &a.Name })).
					Ignore("Tags", "Balance")
			},
			want: ErrInvalidHook,
		},
		{
			name: "DuplicateEntity",
			declare: func(b *Builder) {
				Entity[node](b)
				Entity[node](b)
			},
			want: ErrDuplicateEntity,
		},
		{
			name: "MissingTarget",
			declare: func(b *Builder) {
				Entity[order](b).
					Keys(Prop("ID", func(o *order) *int { return &o.ID })).
					Many(HasMany("Lines", func(o *order) *[]*line { return &o.Lines })).
					One(HasOne("Shipping", func(o *order) **shipment { return &o.Shipping })).
					Ignore("PersistChange", "Region", "Total", "Note", "Status", "Comment")
				Entity[shipment](b).Ignore("PersistChange", "Carrier", "Cost")
			},
			want: ErrNotConfigured,
		},
		{
			name: "MissingKey",
			declare: func(b *Builder) {
				Entity[line](b).
					Many(HasMany("Parts", func(l *line) *[]*part { return &l.Parts })).
					Ignore("PersistChange", "No", "Qty", "Price")
				Entity[part](b).Ignore("PersistChange", "Code", "Amount")
			},
			want: ErrMissingKey,
		},
		{
			name: "NavigationCycle",
			declare: func(b *Builder) {
				Entity[node](b).
					Keys(Prop("ID", func(n *node) *int { return &n.ID })).
					Many(HasMany("Children", func(n *node) *[]*node { return &n.Children }))
			},
			want: ErrNavigationCycle,
		},
		{
			name: "NotAStruct",
			declare: func(b *Builder) {
				Entity[int](b)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder()
			tt.declare(b)

			registry, err := b.Build()
			require.Error(t, err)
			assert.Nil(t, registry)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestBuild_ReportsAllProblems(t *testing.T) {
	b := NewBuilder()
	Entity[account](b).
		Keys(Prop("Ident", func(a *account) *int { return &a.ID })).
		Values(Prop("Tags", func(a *account) *[]string { return &a.Tags }))

	_, err := b.Build()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownField)
	assert.ErrorIs(t, err, ErrNotComparable)
	assert.ErrorIs(t, err, ErrFieldNotReferenced)
}

func TestBuild_ComparerMakesFieldComparable(t *testing.T) {
	b := NewBuilder()
	eb := Entity[account](b).
		Keys(Prop("ID", func(a *account) *int { return &a.ID })).
		Values(
			Prop("Tags", func(a *account) *[]string { return &a.Tags }),
			Prop("Balance", func(a *account) *decimal.Decimal { return &a.Balance }),
		).
		Ignore("Name")
	WithComparer[account, []string](eb, ComparerFunc[[]string](func(a, b []string) bool { return len(a) == len(b) }))
	WithComparer[account, decimal.Decimal](eb, NewDecimalComparer(0))

	registry, err := b.Build()
	require.NoError(t, err)

	engine := New(registry)
	for _, mode := range modes {
		existing := &account{ID: 1, Tags: []string{"a"}, Balance: dec("1.2")}
		calculated := &account{ID: 1, Tags: []string{"b"}, Balance: dec("1.4")}

		result, err := DiffOne(engine, existing, calculated, DiffOptions{Equality: mode})
		require.NoError(t, err)
		assert.False(t, result.Changed(), string(mode))
	}
}

type audited struct {
	ID        int
	Name      string
	CreatedOn time.Time
	CreatedBy string
	UpdatedOn *time.Time
	UpdatedBy string
}

func TestBuild_IgnoreAudit(t *testing.T) {
	t.Run("AllAuditFields", func(t *testing.T) {
		b := NewBuilder()
		Entity[audited](b).
			Keys(Prop("ID", func(a *audited) *int { return &a.ID })).
			Values(Prop("Name", func(a *audited) *string { return &a.Name })).
			IgnoreAudit()

		_, err := b.Build()
		assert.NoError(t, err)
	})

	t.Run("UpdateAuditOnly", func(t *testing.T) {
		b := NewBuilder()
		Entity[audited](b).
			Keys(Prop("ID", func(a *audited) *int { return &a.ID })).
			Values(Prop("Name", func(a *audited) *string { return &a.Name })).
			IgnoreUpdateAudit()

		_, err := b.Build()
		assert.ErrorIs(t, err, ErrFieldNotReferenced)
		assert.ErrorContains(t, err, "CreatedOn")
	})

	t.Run("TypeWithoutAuditFields", func(t *testing.T) {
		b := NewBuilder()
		Entity[account](b).
			Keys(Prop("ID", func(a *account) *int { return &a.ID })).
			Ignore("Name", "Tags", "Balance").
			IgnoreAudit()

		_, err := b.Build()
		assert.ErrorIs(t, err, ErrUnknownField)
	})
}
