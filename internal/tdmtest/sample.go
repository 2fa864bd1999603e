package tdmtest

import (
	"math"

	"github.com/arloliu/tdm/format"
)

// Names used by Sample.
const (
	SampleGroup0 = "channel2_test123$$?"
	SampleGroup1 = "channel2"
)

// Sample builds the two-group reference file: three named channels in the
// first group and two unnamed ones in the second.
func Sample() *Builder {
	b := NewBuilder()

	b.Group(SampleGroup0).Add(
		Channel{Name: "Float_4_Integers", Unit: "arb. units", Values: []float64{1, 2, 3, 4}},
		Channel{Name: "Float as Float", Unit: "eV", Values: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6}},
		Channel{
			Name:      "Integer32_with_max_min",
			ValueType: format.ValueTypeInt32,
			Values:    []float64{9, 10, 11, -50, math.MaxInt32, math.MinInt32},
		},
	)

	b.Group(SampleGroup1).Add(
		Channel{Values: []float64{math.MaxFloat64, math.MaxInt32}},
		Channel{ValueType: format.ValueTypeInt32, Values: []float64{0}},
	)

	return b
}
