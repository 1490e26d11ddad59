package activation

import (
	"time"

	"treediff/core/reconcile"

	"github.com/shopspring/decimal"
)

// Status is the workflow state of an activation control.
type Status string

const (
	StatusCalculated Status = "calculated"
	StatusValidated  Status = "validated"
	StatusDisputed   Status = "disputed"
)

// Direction of a delivery point activation.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// DeliveryPointType classifies a delivery point.
type DeliveryPointType string

const (
	DeliveryPointSingleUnit     DeliveryPointType = "single_unit"
	DeliveryPointProvidingGroup DeliveryPointType = "providing_group"
)

// ActivationControl is the daily control record of one contract.
// It is identified by Day and ContractReference.
type ActivationControl struct {
	reconcile.Persisted

	ID                int       `json:"id"`
	Day               time.Time `json:"day"`
	ContractReference string    `json:"contract_reference"`

	TotalEnergyRequested       decimal.Decimal  `json:"total_energy_requested"`
	TotalDiscrepancy           decimal.Decimal  `json:"total_discrepancy"`
	TotalEnergyToBeSupplied    decimal.Decimal  `json:"total_energy_to_be_supplied"`
	FailedPercentage           *decimal.Decimal `json:"failed_percentage,omitempty"`
	IsMeasurementExcludedCount int              `json:"is_measurement_excluded_count"`
	IsJumpExcludedCount        int              `json:"is_jump_excluded_count"`

	Status          Status `json:"status"`
	InternalComment string `json:"internal_comment,omitempty"`
	TsoComment      string `json:"tso_comment,omitempty"`

	CreatedOn time.Time  `json:"created_on"`
	CreatedBy string     `json:"created_by,omitempty"`
	UpdatedOn *time.Time `json:"updated_on,omitempty"`
	UpdatedBy string     `json:"updated_by,omitempty"`

	Details    []*Detail   `json:"details"`
	Settlement *Settlement `json:"settlement,omitempty"`
}

// Detail holds the offered volumes of one quarter hour.
type Detail struct {
	reconcile.Persisted

	ActivationControlID int       `json:"activation_control_id"`
	StartsOn            time.Time `json:"starts_on"`

	OfferedVolumeUp                   decimal.Decimal `json:"offered_volume_up"`
	OfferedVolumeDown                 decimal.Decimal `json:"offered_volume_down"`
	OfferedVolumeForRedispatchingUp   decimal.Decimal `json:"offered_volume_for_redispatching_up"`
	OfferedVolumeForRedispatchingDown decimal.Decimal `json:"offered_volume_for_redispatching_down"`
	PermittedDeviationUp              decimal.Decimal `json:"permitted_deviation_up"`
	PermittedDeviationDown            decimal.Decimal `json:"permitted_deviation_down"`
	RampingRate                       decimal.Decimal `json:"ramping_rate"`
	HasJump                           bool            `json:"has_jump"`

	TimestampDetails []*TimestampDetail `json:"timestamp_details"`
	DpDetails        []*DpDetail        `json:"dp_details"`
}

// TimestampDetail is a measurement of the whole contract at one timestamp.
type TimestampDetail struct {
	reconcile.Persisted

	ActivationControlID int       `json:"activation_control_id"`
	StartsOn            time.Time `json:"starts_on"`
	Timestamp           time.Time `json:"timestamp"`

	PowerMeasured                   decimal.Decimal `json:"power_measured"`
	PowerBaseline                   decimal.Decimal `json:"power_baseline"`
	FcrCorrection                   decimal.Decimal `json:"fcr_correction"`
	EnergyRequested                 decimal.Decimal `json:"energy_requested"`
	EnergyRequestedForRedispatching decimal.Decimal `json:"energy_requested_for_redispatching"`
	EnergySupplied                  decimal.Decimal `json:"energy_supplied"`
	EnergyToBeSupplied              decimal.Decimal `json:"energy_to_be_supplied"`
	Deviation                       decimal.Decimal `json:"deviation"`
	PermittedDeviation              decimal.Decimal `json:"permitted_deviation"`
	MaxDeviation                    decimal.Decimal `json:"max_deviation"`
	Discrepancy                     decimal.Decimal `json:"discrepancy"`
	IsJumpExcluded                  bool            `json:"is_jump_excluded"`
	IsMeasurementExcluded           bool            `json:"is_measurement_excluded"`

	AuditedOn *time.Time `json:"audited_on,omitempty"`
	AuditedBy string     `json:"audited_by,omitempty"`
}

// DpDetail is the contribution of one delivery point within a quarter hour.
type DpDetail struct {
	reconcile.Persisted

	ActivationControlID int       `json:"activation_control_id"`
	StartsOn            time.Time `json:"starts_on"`
	DeliveryPointEan    string    `json:"delivery_point_ean"`

	DeliveryPointName   string            `json:"delivery_point_name"`
	Direction           Direction         `json:"direction"`
	DeliveryPointType   DeliveryPointType `json:"delivery_point_type"`
	TotalEnergySupplied decimal.Decimal   `json:"total_energy_supplied"`

	TimestampDetails []*DpTimestampDetail `json:"timestamp_details"`
}

// DpTimestampDetail is a delivery point measurement at one timestamp.
type DpTimestampDetail struct {
	reconcile.Persisted

	ActivationControlID int       `json:"activation_control_id"`
	StartsOn            time.Time `json:"starts_on"`
	DeliveryPointEan    string    `json:"delivery_point_ean"`
	Timestamp           time.Time `json:"timestamp"`

	PowerMeasured  decimal.Decimal `json:"power_measured"`
	PowerBaseline  decimal.Decimal `json:"power_baseline"`
	FcrCorrection  decimal.Decimal `json:"fcr_correction"`
	EnergySupplied decimal.Decimal `json:"energy_supplied"`
}

// Settlement is the financial outcome of a control, present once validated.
type Settlement struct {
	reconcile.Persisted

	Currency  string           `json:"currency"`
	Amount    decimal.Decimal  `json:"amount"`
	Penalty   *decimal.Decimal `json:"penalty,omitempty"`
	SettledOn *time.Time       `json:"settled_on,omitempty"`
}
