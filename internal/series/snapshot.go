package series

import "github.com/charliek/poolwatch/internal/domain"

// Snapshot is an immutable-by-convention copy of the window contents
type Snapshot []domain.Sample

// Labels returns the time labels in order
func (s Snapshot) Labels() []string {
	labels := make([]string, len(s))
	for i, sample := range s {
		labels[i] = sample.Label
	}
	return labels
}

// Values returns the sample values as floats, the form chart libraries take
func (s Snapshot) Values() []float64 {
	values := make([]float64, len(s))
	for i, sample := range s {
		values[i] = float64(sample.Value)
	}
	return values
}

// Last returns the most recent sample
func (s Snapshot) Last() (domain.Sample, bool) {
	if len(s) == 0 {
		return domain.Sample{}, false
	}
	return s[len(s)-1], true
}

// Max returns the largest value, or 0 for an empty snapshot
func (s Snapshot) Max() int {
	m := 0
	for _, sample := range s {
		if sample.Value > m {
			m = sample.Value
		}
	}
	return m
}
