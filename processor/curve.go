package processor

import (
	"math"
	"time"

	"bitcraftsd/logger"
	"bitcraftsd/models"
)

// progressEvery is how many units pass between progress log lines.
const progressEvery = 10000

// CurveBuilder expands order tiers into cumulative price curves.
type CurveBuilder struct {
	Log *logger.Log
	// MaxDepth caps the units of one curve. Zero means no limit.
	MaxDepth int64
}

// BuildCurve builds a curve without progress logging.
func BuildCurve(seq models.OrderSequence) (models.Curve, error) {
	return CurveBuilder{}.Build(seq)
}

// Build maps every traded unit i to the cumulative price of units 1..i.
// Each tier contributes Quantity consecutive units at its PriceThreshold.
func (b CurveBuilder) Build(seq models.OrderSequence) (models.Curve, error) {
	if seq.IsEmpty() {
		return models.Curve{}, &EmptyOrderSequenceError{Side: seq.Side().String()}
	}

	total := seq.TotalQuantity()
	if (b.MaxDepth > 0 && total > b.MaxDepth) || total == math.MaxInt64 {
		return models.Curve{}, &CurveTooDeepError{Side: seq.Side().String(), Units: total, Limit: b.MaxDepth}
	}

	start := time.Now()
	q := make([]int64, total+1)
	pTot := make([]int64, total+1)
	for i := range q {
		q[i] = int64(i)
	}

	var entry *logger.Entry
	if b.Log != nil {
		entry = b.Log.WithComponent("curve").WithFields(logger.Fields{
			"side":  seq.Side().String(),
			"units": total,
			"tiers": seq.Len(),
		})
	}

	var i int64
	for k := 0; k < seq.Len(); k++ {
		tier := seq.At(k)
		for n := int64(0); n < tier.Quantity; n++ {
			i++
			pTot[i] = pTot[i-1] + tier.PriceThreshold
			if entry != nil && i%progressEvery == 0 {
				entry.WithFields(logger.Fields{"progress": i}).Info("building curve")
			}
		}
	}

	if entry != nil {
		logger.LogPerformanceEntry(entry, "curve", "build_curve", time.Since(start), nil)
	}

	return models.Curve{Side: seq.Side(), Q: q, PTot: pTot}, nil
}
