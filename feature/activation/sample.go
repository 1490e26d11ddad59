package activation

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Shape sets the fan-out of a generated control.
type Shape struct {
	Details    int
	DpDetails  int
	Timestamps int
}

// FullDay is one control per quarter hour with 5 delivery points and a
// measurement every 4 seconds.
var FullDay = Shape{Details: 96, DpDetails: 5, Timestamps: 255}

// Sample builds a deterministic control for day. Amounts are derived from the
// positions in the tree, so two samples of the same day and shape are equal.
func Sample(day time.Time, shape Shape, status Status) *ActivationControl {
	day = day.UTC().Truncate(24 * time.Hour)
	n := func(v int) decimal.Decimal { return decimal.NewFromInt(int64(v)) }

	ac := &ActivationControl{
		ID:                      1,
		Day:                     day,
		ContractReference:       "CREF",
		TotalEnergyRequested:    n(1),
		TotalDiscrepancy:        n(2),
		TotalEnergyToBeSupplied: n(3),
		Status:                  status,
		CreatedOn:               day,
		Details:                 make([]*Detail, 0, shape.Details),
	}

	for x := 0; x < shape.Details; x++ {
		startsOn := day.Add(time.Duration(15*x) * time.Minute)
		d := &Detail{
			ActivationControlID:               1,
			StartsOn:                          startsOn,
			OfferedVolumeUp:                   n(x),
			OfferedVolumeDown:                 n(2 * x),
			OfferedVolumeForRedispatchingUp:   n(3 * x),
			OfferedVolumeForRedispatchingDown: n(4 * x),
			PermittedDeviationUp:              n(5 * x),
			PermittedDeviationDown:            n(6 * x),
			RampingRate:                       n(7 * x),
			HasJump:                           x%2 == 0,
			TimestampDetails:                  make([]*TimestampDetail, 0, shape.Timestamps),
			DpDetails:                         make([]*DpDetail, 0, shape.DpDetails),
		}

		for y := 0; y < shape.Timestamps; y++ {
			v := x * y
			d.TimestampDetails = append(d.TimestampDetails, &TimestampDetail{
				ActivationControlID:             1,
				StartsOn:                        startsOn,
				Timestamp:                       startsOn.Add(time.Duration(4*y) * time.Second),
				PowerMeasured:                   n(v),
				PowerBaseline:                   n(2 * v),
				FcrCorrection:                   n(3 * v),
				EnergyRequested:                 n(4 * v),
				EnergyRequestedForRedispatching: n(5 * v),
				EnergySupplied:                  n(6 * v),
				EnergyToBeSupplied:              n(7 * v),
				Deviation:                       n(8 * v),
				PermittedDeviation:              n(9 * v),
				MaxDeviation:                    n(10 * v),
				Discrepancy:                     n(11 * v),
				IsJumpExcluded:                  (x+y)%2 == 0,
			})
		}

		for y := 0; y < shape.DpDetails; y++ {
			ean := fmt.Sprintf("DPEAN_%d", (x+1)*(y+1))
			direction, kind := DirectionUp, DeliveryPointSingleUnit
			if (x*y)%2 != 0 {
				direction = DirectionDown
			}
			if y%2 != 0 {
				kind = DeliveryPointProvidingGroup
			}

			dp := &DpDetail{
				ActivationControlID: 1,
				StartsOn:            startsOn,
				DeliveryPointEan:    ean,
				DeliveryPointName:   fmt.Sprintf("DPNAME_%d", (x+1)*(y+1)),
				Direction:           direction,
				DeliveryPointType:   kind,
				TotalEnergySupplied: n(3 * x * y),
				TimestampDetails:    make([]*DpTimestampDetail, 0, shape.Timestamps),
			}
			for z := 0; z < shape.Timestamps; z++ {
				v := x * y * z
				dp.TimestampDetails = append(dp.TimestampDetails, &DpTimestampDetail{
					ActivationControlID: 1,
					StartsOn:            startsOn,
					DeliveryPointEan:    ean,
					Timestamp:           startsOn.Add(time.Duration(4*z) * time.Second),
					PowerMeasured:       n(v),
					PowerBaseline:       n(2 * v),
					FcrCorrection:       n(3 * v),
					EnergySupplied:      n(6 * v),
				})
			}
			d.DpDetails = append(d.DpDetails, dp)
		}

		ac.Details = append(ac.Details, d)
	}
	return ac
}
