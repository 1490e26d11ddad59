package activation

import (
	"time"

	"treediff/core/reconcile"

	"github.com/shopspring/decimal"
)

// Precision is the number of decimals compared for every amount.
const Precision = 6

type dec = decimal.Decimal

// NewRegistry declares the activation control graph.
func NewRegistry() (*reconcile.Registry, error) {
	b := reconcile.NewBuilder()
	reconcile.DefaultComparer[decimal.Decimal](b, reconcile.NewDecimalComparer(Precision))
	reconcile.DefaultComparer[*decimal.Decimal](b, reconcile.NewNullableDecimalComparer(Precision))

	reconcile.PersistEntity[ActivationControl](b).
		Keys(
			reconcile.Prop("Day", func(a *ActivationControl) *time.Time { return &a.Day }),
			reconcile.Prop("ContractReference", func(a *ActivationControl) *string { return &a.ContractReference }),
		).
		Values(
			reconcile.Prop("TotalEnergyRequested", func(a *ActivationControl) *dec { return &a.TotalEnergyRequested }),
			reconcile.Prop("TotalDiscrepancy", func(a *ActivationControl) *dec { return &a.TotalDiscrepancy }),
			reconcile.Prop("TotalEnergyToBeSupplied", func(a *ActivationControl) *dec { return &a.TotalEnergyToBeSupplied }),
			reconcile.Prop("FailedPercentage", func(a *ActivationControl) **dec { return &a.FailedPercentage }),
			reconcile.Prop("IsMeasurementExcludedCount", func(a *ActivationControl) *int { return &a.IsMeasurementExcludedCount }),
			reconcile.Prop("IsJumpExcludedCount", func(a *ActivationControl) *int { return &a.IsJumpExcludedCount }),
		).
		Many(reconcile.HasMany("Details", func(a *ActivationControl) *[]*Detail { return &a.Details })).
		One(reconcile.HasOne("Settlement", func(a *ActivationControl) **Settlement { return &a.Settlement })).
		OnUpdate(reconcile.Copy("Status", func(a *ActivationControl) *Status { return &a.Status })).
		IgnoreAudit().
		Ignore("ID", "InternalComment", "TsoComment")

	reconcile.PersistEntity[Detail](b).
		Keys(reconcile.Prop("StartsOn", func(d *Detail) *time.Time { return &d.StartsOn })).
		Values(
			reconcile.Prop("OfferedVolumeUp", func(d *Detail) *dec { return &d.OfferedVolumeUp }),
			reconcile.Prop("OfferedVolumeDown", func(d *Detail) *dec { return &d.OfferedVolumeDown }),
			reconcile.Prop("OfferedVolumeForRedispatchingUp", func(d *Detail) *dec { return &d.OfferedVolumeForRedispatchingUp }),
			reconcile.Prop("OfferedVolumeForRedispatchingDown", func(d *Detail) *dec { return &d.OfferedVolumeForRedispatchingDown }),
			reconcile.Prop("PermittedDeviationUp", func(d *Detail) *dec { return &d.PermittedDeviationUp }),
			reconcile.Prop("PermittedDeviationDown", func(d *Detail) *dec { return &d.PermittedDeviationDown }),
			reconcile.Prop("RampingRate", func(d *Detail) *dec { return &d.RampingRate }),
			reconcile.Prop("HasJump", func(d *Detail) *bool { return &d.HasJump }),
		).
		Many(
			reconcile.HasMany("TimestampDetails", func(d *Detail) *[]*TimestampDetail { return &d.TimestampDetails }),
			reconcile.HasMany("DpDetails", func(d *Detail) *[]*DpDetail { return &d.DpDetails }),
		).
		Ignore("ActivationControlID")

	reconcile.PersistEntity[TimestampDetail](b).
		Keys(reconcile.Prop("Timestamp", func(t *TimestampDetail) *time.Time { return &t.Timestamp })).
		Values(
			reconcile.Prop("PowerMeasured", func(t *TimestampDetail) *dec { return &t.PowerMeasured }),
			reconcile.Prop("PowerBaseline", func(t *TimestampDetail) *dec { return &t.PowerBaseline }),
			reconcile.Prop("FcrCorrection", func(t *TimestampDetail) *dec { return &t.FcrCorrection }),
			reconcile.Prop("EnergyRequested", func(t *TimestampDetail) *dec { return &t.EnergyRequested }),
			reconcile.Prop("EnergyRequestedForRedispatching", func(t *TimestampDetail) *dec { return &t.EnergyRequestedForRedispatching }),
			reconcile.Prop("EnergySupplied", func(t *TimestampDetail) *dec { return &t.EnergySupplied }),
			reconcile.Prop("EnergyToBeSupplied", func(t *TimestampDetail) *dec { return &t.EnergyToBeSupplied }),
			reconcile.Prop("Deviation", func(t *TimestampDetail) *dec { return &t.Deviation }),
			reconcile.Prop("PermittedDeviation", func(t *TimestampDetail) *dec { return &t.PermittedDeviation }),
			reconcile.Prop("MaxDeviation", func(t *TimestampDetail) *dec { return &t.MaxDeviation }),
			reconcile.Prop("Discrepancy", func(t *TimestampDetail) *dec { return &t.Discrepancy }),
			reconcile.Prop("IsJumpExcluded", func(t *TimestampDetail) *bool { return &t.IsJumpExcluded }),
			reconcile.Prop("IsMeasurementExcluded", func(t *TimestampDetail) *bool { return &t.IsMeasurementExcluded }),
		).
		Ignore("ActivationControlID", "StartsOn", "AuditedOn", "AuditedBy")

	reconcile.PersistEntity[DpDetail](b).
		Keys(reconcile.Prop("DeliveryPointEan", func(d *DpDetail) *string { return &d.DeliveryPointEan })).
		Values(
			reconcile.Prop("DeliveryPointName", func(d *DpDetail) *string { return &d.DeliveryPointName }),
			reconcile.Prop("Direction", func(d *DpDetail) *Direction { return &d.Direction }),
			reconcile.Prop("DeliveryPointType", func(d *DpDetail) *DeliveryPointType { return &d.DeliveryPointType }),
			reconcile.Prop("TotalEnergySupplied", func(d *DpDetail) *dec { return &d.TotalEnergySupplied }),
		).
		Many(reconcile.HasMany("TimestampDetails", func(d *DpDetail) *[]*DpTimestampDetail { return &d.TimestampDetails })).
		Ignore("ActivationControlID", "StartsOn")

	reconcile.PersistEntity[DpTimestampDetail](b).
		Keys(reconcile.Prop("Timestamp", func(t *DpTimestampDetail) *time.Time { return &t.Timestamp })).
		Values(
			reconcile.Prop("PowerMeasured", func(t *DpTimestampDetail) *dec { return &t.PowerMeasured }),
			reconcile.Prop("PowerBaseline", func(t *DpTimestampDetail) *dec { return &t.PowerBaseline }),
			reconcile.Prop("FcrCorrection", func(t *DpTimestampDetail) *dec { return &t.FcrCorrection }),
			reconcile.Prop("EnergySupplied", func(t *DpTimestampDetail) *dec { return &t.EnergySupplied }),
		).
		Ignore("ActivationControlID", "StartsOn", "DeliveryPointEan")

	reconcile.PersistEntity[Settlement](b).
		Values(
			reconcile.Prop("Currency", func(s *Settlement) *string { return &s.Currency }),
			reconcile.Prop("Amount", func(s *Settlement) *dec { return &s.Amount }),
			reconcile.Prop("Penalty", func(s *Settlement) **dec { return &s.Penalty }),
		).
		OnUpdate(reconcile.Copy("SettledOn", func(s *Settlement) **time.Time { return &s.SettledOn }))

	return b.Build()
}
