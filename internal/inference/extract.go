package inference

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/julianknutsen/octscan/internal/labels"
)

// ToPercent scales graph probabilities in [0,1] to the percent scale used
// throughout the response. No renormalization is applied.
func ToPercent(raw []float32) []float32 {
	v := widen(raw)
	floats.Scale(100, v)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}

// Extract ranks probs against the label table. Ties resolve to the lowest index.
func Extract(model string, probs []float32, tbl labels.Table) (Prediction, error) {
	if len(probs) != tbl.Len() {
		return Prediction{}, &ExtractionError{Got: len(probs), Want: tbl.Len()}
	}
	v := widen(probs)
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return Prediction{}, &ExtractionError{Got: len(probs), Want: tbl.Len(), Reason: "non-finite probability"}
		}
	}
	i := floats.MaxIdx(v)

	out := make([]float32, len(probs))
	copy(out, probs)
	return Prediction{
		Model:         model,
		Prediction:    tbl.Name(i),
		Probability:   out[i],
		Classes:       tbl.Names(),
		Probabilities: out,
	}, nil
}

// ArgMax returns the first index holding the maximum of probs, or -1 when empty.
func ArgMax(probs []float32) int {
	if len(probs) == 0 {
		return -1
	}
	return floats.MaxIdx(widen(probs))
}

func widen(in []float32) []float64 {
	out := make([]float64, len(in))
	for i, x := range in {
		out[i] = float64(x)
	}
	return out
}
