package pipeline

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Distribution summarises one metric across the accepted rows of a run.
type Distribution struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
}

func newDistribution(samples []float64) Distribution {
	if len(samples) == 0 {
		return Distribution{}
	}
	sort.Float64s(samples)

	d := Distribution{
		Count: len(samples),
		Mean:  stat.Mean(samples, nil),
		Min:   samples[0],
		Max:   samples[len(samples)-1],
	}
	if len(samples) > 1 {
		d.StdDev = stat.StdDev(samples, nil)
	}
	d.Q1 = stat.Quantile(0.25, stat.Empirical, samples, nil)
	d.Median = stat.Quantile(0.5, stat.Empirical, samples, nil)
	d.Q3 = stat.Quantile(0.75, stat.Empirical, samples, nil)
	return d
}

// Profile is the post-run distribution report over accepted rows. It is
// observability output only and is never persisted.
type Profile struct {
	Distance Distribution `json:"distance"`
	Fare     Distribution `json:"fare"`
}

// NewProfile builds a profile from the distance and fare samples of a
// run's accepted rows. The slices are sorted in place.
func NewProfile(distances, fares []float64) *Profile {
	return &Profile{
		Distance: newDistribution(distances),
		Fare:     newDistribution(fares),
	}
}
