package reconcile

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type order struct {
	Persisted
	ID       int
	Region   string
	Total    decimal.Decimal
	Note     *string
	Status   string
	Comment  string
	Lines    []*line
	Shipping *shipment
}

type line struct {
	Persisted
	No    int
	Qty   decimal.Decimal
	Price *decimal.Decimal
	Parts []*part
}

type part struct {
	Persisted
	Code   string
	Amount float64
}

type shipment struct {
	Persisted
	Carrier string
	Cost    decimal.Decimal
}

var modes = []EqualityMode{EqualityPrecompiled, EqualityReflect}

func declareOrders(b *Builder) {
	DefaultComparer[decimal.Decimal](b, NewDecimalComparer(6))
	DefaultComparer[*decimal.Decimal](b, NewNullableDecimalComparer(6))

	PersistEntity[order](b).
		Named("Order").
		Keys(
			Prop("ID", func(o *order) *int { return &o.ID }),
			Prop("Region", func(o *order) *string { return &o.Region }),
		).
		Values(
			Prop("Total", func(o *order) *decimal.Decimal { return &o.Total }),
			Prop("Note", func(o *order) **string { return &o.Note }),
		).
		Many(HasMany("Lines", func(o *order) *[]*line { return &o.Lines })).
		One(HasOne("Shipping", func(o *order) **shipment { return &o.Shipping })).
		OnUpdate(Copy("Status", func(o *order) *string { return &o.Status })).
		Ignore("Comment")

	PersistEntity[line](b).
		Named("Line").
		Keys(Prop("No", func(l *line) *int { return &l.No })).
		Values(
			Prop("Qty", func(l *line) *decimal.Decimal { return &l.Qty }),
			Prop("Price", func(l *line) **decimal.Decimal { return &l.Price }),
		).
		Many(HasMany("Parts", func(l *line) *[]*part { return &l.Parts }))

	PersistEntity[part](b).
		Named("Part").
		Keys(Prop("Code", func(p *part) *string { return &p.Code })).
		Values(Prop("Amount", func(p *part) *float64 { return &p.Amount }, Comparer[float64](FloatComparer{Precision: 2})))

	PersistEntity[shipment](b).
		Named("Shipment").
		Keys(Prop("Carrier", func(s *shipment) *string { return &s.Carrier })).
		Values(Prop("Cost", func(s *shipment) *decimal.Decimal { return &s.Cost }))
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	b := NewBuilder()
	declareOrders(b)
	registry, err := b.Build()
	require.NoError(t, err)
	return New(registry)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

// newOrder builds an order with lineCount lines of partCount parts each and a
// DHL shipment. Two calls return structurally identical, independent trees.
func newOrder(id int, total string, lineCount, partCount int) *order {
	o := &order{
		ID:       id,
		Region:   "eu",
		Total:    dec(total),
		Status:   "open",
		Shipping: &shipment{Carrier: "DHL", Cost: dec("10")},
	}
	for n := 1; n <= lineCount; n++ {
		l := &line{No: n, Qty: dec("1")}
		for p := 0; p < partCount; p++ {
			l.Parts = append(l.Parts, &part{Code: string(rune('a' + p)), Amount: float64(p)})
		}
		o.Lines = append(o.Lines, l)
	}
	return o
}

func findLine(o *order, no int) *line {
	for _, l := range o.Lines {
		if l.No == no {
			return l
		}
	}
	return nil
}
