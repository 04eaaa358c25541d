package raster

import (
	"math"

	"github.com/urbanpulse/resilience-api/schema"
)

// QC tolerance levels. Higher tolerance widens acceptance for the
// mandatory- and data-quality sub-fields only; the error bit is never
// overridden.
const (
	ToleranceStrict  = 1
	ToleranceNormal  = 2
	ToleranceRelaxed = 3
)

// DecodeQC decodes a per-pixel quality-control bitfield into an acceptance
// mask. Bit layout:
//
//	bits 0-1: mandatory QA (0=best, 1=good, 2=fair, 3=poor)
//	bits 2-3: data quality (0=good, 1=average, 2=poor, 3=other)
//	bit 5:    retrieval error flag
//
// A pixel is accepted only when all three sub-checks pass under the given
// tolerance.
func DecodeQC(qc [][]int64, tolerance int) schema.QCMask {
	mask := make(schema.QCMask, len(qc))
	for i := range qc {
		mask[i] = make([]bool, len(qc[i]))
		for j, code := range qc[i] {
			mask[i][j] = acceptQC(code, tolerance)
		}
	}
	return mask
}

func acceptQC(code int64, tolerance int) bool {
	mandatory := code & 0b11
	dataQuality := (code >> 2) & 0b11
	errBit := (code >> 5) & 0b1

	mandLimit := int64(1)
	if tolerance > 2 {
		mandLimit = 2
	}
	dataLimit := int64(1)
	if tolerance > 1 {
		dataLimit = 2
	}

	return mandatory <= mandLimit && dataQuality <= dataLimit && errBit == 0
}

// RangeFilter builds an acceptance mask from a physical plausibility
// envelope, used when a product ships no QC layer. Bounds are exclusive, NaN
// never passes.
func RangeFilter(values [][]float64, lo, hi float64) schema.QCMask {
	mask := make(schema.QCMask, len(values))
	for i := range values {
		mask[i] = make([]bool, len(values[i]))
		for j, v := range values[i] {
			mask[i][j] = !math.IsNaN(v) && v > lo && v < hi
		}
	}
	return mask
}

// CombineMasks intersects two masks of identical shape.
func CombineMasks(a, b schema.QCMask) schema.QCMask {
	out := make(schema.QCMask, len(a))
	for i := range a {
		out[i] = make([]bool, len(a[i]))
		for j := range a[i] {
			out[i][j] = a[i][j] && b[i][j]
		}
	}
	return out
}

// ApplyMask returns a new value grid with rejected cells set to NaN. The
// input grid is left untouched.
func ApplyMask(values [][]float64, mask schema.QCMask) [][]float64 {
	out := make([][]float64, len(values))
	for i := range values {
		out[i] = make([]float64, len(values[i]))
		for j := range values[i] {
			if mask[i][j] {
				out[i][j] = values[i][j]
			} else {
				out[i][j] = math.NaN()
			}
		}
	}
	return out
}
