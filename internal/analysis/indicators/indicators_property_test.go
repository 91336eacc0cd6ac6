package indicators

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// priceSliceGen generates a positive price series long enough for the
// 14-period RSI.
func priceSliceGen(minLen, maxLen int) gopter.Gen {
	return gen.SliceOfN(maxLen, gen.Float64Range(10.0, 1000.0)).Map(func(values []float64) []float64 {
		for len(values) < minLen {
			values = append(values, values[len(values)-1])
		}
		return values
	})
}

func TestProperty_RSIWithinBounds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("RSI values are within [0, 100]", prop.ForAll(
		func(values []float64) bool {
			rsi, err := RSI(values, 14)
			if err != nil {
				return true
			}
			for _, v := range rsi {
				if v < 0 || v > 100 {
					return false
				}
			}
			return true
		},
		priceSliceGen(20, 120),
	))

	properties.TestingRun(t)
}

func TestProperty_EMABoundedByInput(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("EMA stays within the input's min/max after warmup", prop.ForAll(
		func(values []float64) bool {
			ema, err := EMA(values, 20)
			if err != nil {
				return true
			}
			lo, hi := values[0], values[0]
			for _, v := range values {
				if v < lo {
					lo = v
				}
				if v > hi {
					hi = v
				}
			}
			for i := 19; i < len(ema); i++ {
				if ema[i] < lo-1e-9 || ema[i] > hi+1e-9 {
					return false
				}
			}
			return true
		},
		priceSliceGen(25, 150),
	))

	properties.TestingRun(t)
}

func TestProperty_RollingMeanBoundedByWindow(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("each rolling mean lies within its own window", prop.ForAll(
		func(values []float64) bool {
			window := 10
			means, err := RollingMean(values, window)
			if err != nil {
				return true
			}
			for i := window - 1; i < len(values); i++ {
				lo, hi := values[i], values[i]
				for j := i - window + 1; j <= i; j++ {
					if values[j] < lo {
						lo = values[j]
					}
					if values[j] > hi {
						hi = values[j]
					}
				}
				if means[i] < lo-1e-9 || means[i] > hi+1e-9 {
					return false
				}
			}
			return true
		},
		priceSliceGen(15, 100),
	))

	properties.TestingRun(t)
}
