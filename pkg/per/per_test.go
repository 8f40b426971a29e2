package per

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartridge/replay/pkg/sumtree"
)

// fixedSource always returns the same draw.
type fixedSource float64

func (f fixedSource) Float64() float64 { return float64(f) }

// seqSource replays a fixed sequence of draws, cycling when exhausted.
type seqSource struct {
	vals []float64
	i    int
}

func (s *seqSource) Float64() float64 {
	v := s.vals[s.i%len(s.vals)]
	s.i++
	return v
}

func newTestReplay(t *testing.T, capacity int, alpha, beta float64, src Source) *Replay[int] {
	t.Helper()
	r, err := New[int](Config{Capacity: capacity, Alpha: alpha, Beta: beta}, src)
	require.NoError(t, err)
	return r
}

func TestNew_InvalidConfig(t *testing.T) {
	src := fixedSource(0.5)
	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero capacity", Config{Capacity: 0, Alpha: 0.6, Beta: 0.4}},
		{"capacity not power of two", Config{Capacity: 100, Alpha: 0.6, Beta: 0.4}},
		{"alpha above one", Config{Capacity: 8, Alpha: 1.5, Beta: 0.4}},
		{"negative beta", Config{Capacity: 8, Alpha: 0.6, Beta: -0.1}},
		{"nan alpha", Config{Capacity: 8, Alpha: math.NaN(), Beta: 0.4}},
		{"negative increment", Config{Capacity: 8, Alpha: 0.6, Beta: 0.4, BetaIncrement: -1}},
		{"negative epsilon", Config{Capacity: 8, Alpha: 0.6, Beta: 0.4, Epsilon: -1e-6}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, err := New[int](tc.cfg, src)
			require.ErrorIs(t, err, sumtree.ErrInvalidArgument)
			assert.Nil(t, r)
		})
	}

	_, err := NewFixed(Config{Capacity: 8, Alpha: 0.6, Beta: 0.4}, 0, src)
	require.ErrorIs(t, err, sumtree.ErrInvalidArgument)
}

func TestNew_Defaults(t *testing.T) {
	r := newTestReplay(t, 8, 0.6, 0.4, fixedSource(0.5))
	assert.Equal(t, 1.0, r.MaxPriority())
	assert.Equal(t, 0.4, r.Beta())
	assert.Equal(t, 0.6, r.Alpha())
	assert.Equal(t, 8, r.Capacity())
	assert.Zero(t, r.Len())
	assert.Equal(t, DefaultBetaIncrement, r.betaIncrement)
	assert.Equal(t, DefaultEpsilon, r.epsilon)
}

func TestPriorityFromError(t *testing.T) {
	r := newTestReplay(t, 8, 0.6, 0.4, fixedSource(0.5))

	assert.InDelta(t, math.Pow(DefaultEpsilon, 0.6), r.PriorityFromError(0), 1e-15)
	assert.Equal(t, r.PriorityFromError(-2), r.PriorityFromError(2))
	assert.Greater(t, r.PriorityFromError(0), 0.0)

	prev := r.PriorityFromError(0)
	for _, e := range []float64{1e-4, 0.01, 0.5, 1, 3, 100} {
		p := r.PriorityFromError(-e)
		assert.Greater(t, p, prev)
		prev = p
	}

	uniform := newTestReplay(t, 8, 0, 0.4, fixedSource(0.5))
	assert.Equal(t, 1.0, uniform.PriorityFromError(0.1))
	assert.Equal(t, 1.0, uniform.PriorityFromError(10))

	linear := newTestReplay(t, 8, 1, 0.4, fixedSource(0.5))
	assert.InDelta(t, 2.5, linear.PriorityFromError(-2.5), 1e-5)
}

func TestInsert_UsesMaxPriority(t *testing.T) {
	r := newTestReplay(t, 4, 1, 0.4, fixedSource(0.5))

	r.Insert(1)
	assert.Equal(t, 1.0, r.Total())

	r.ReportErrors([]float64{3}, []int{r.LeafIndex(0)})
	assert.InDelta(t, 3.0, r.MaxPriority(), 1e-5)

	slot := r.Insert(2)
	assert.Equal(t, 1, slot)
	assert.InDelta(t, 6.0, r.Total(), 1e-5)
	assert.Equal(t, 2, r.Item(1))
}

func TestSampleBatch_Stratified(t *testing.T) {
	r := newTestReplay(t, 4, 1, 0.4, fixedSource(0.5))
	for i := 0; i < 4; i++ {
		r.Insert(i)
	}

	batch := r.SampleBatch(4)
	require.Equal(t, 4, batch.Len())
	for i, s := range batch.Samples {
		assert.Equal(t, i, s.DataIndex)
		assert.Equal(t, r.LeafIndex(i), s.TreeIndex)
		assert.Equal(t, 1.0, s.Priority)
		assert.Equal(t, 1.0, batch.Weights[i])
	}
	assert.Equal(t, []int{3, 4, 5, 6}, batch.TreeIndices())
}

func TestSampleBatch_UpperDrawStaysInRange(t *testing.T) {
	r := newTestReplay(t, 4, 1, 0.4, fixedSource(math.Nextafter(1, 0)))
	for i := 0; i < 4; i++ {
		r.Insert(i)
	}

	batch := r.SampleBatch(2)
	assert.Equal(t, 1, batch.Samples[0].DataIndex)
	assert.Equal(t, 3, batch.Samples[1].DataIndex)
}

func TestSampleBatch_ImportanceWeights(t *testing.T) {
	src := &seqSource{vals: []float64{0.25, 0.75}}
	r := newTestReplay(t, 4, 1, 0.5, src)
	for i := 0; i < 4; i++ {
		r.Insert(i)
	}
	// Priorities become 1, 3, 1, 3 (alpha = 1), total 8.
	r.ReportErrors([]float64{1, 3, 1, 3}, []int{3, 4, 5, 6})
	require.InDelta(t, 8.0, r.Total(), 1e-5)

	batch := r.SampleBatch(4)
	beta := r.Beta()
	assert.InDelta(t, 0.501, beta, 1e-12)

	// Segments of width 2 drawn at 0.5, 3.5, 4.5 and 7.5 land on every leaf.
	got := make([]int, 4)
	for i, s := range batch.Samples {
		got[i] = s.DataIndex
	}
	assert.Equal(t, []int{0, 1, 2, 3}, got)

	// P(low) = 1/8, P(high) = 3/8 with N = 4.
	wLow := math.Pow(1/(4*(1.0/8)), beta)
	wHigh := math.Pow(1/(4*(3.0/8)), beta)
	assert.InDelta(t, 1.0, batch.Weights[0], 1e-5)
	assert.InDelta(t, wHigh/wLow, batch.Weights[1], 1e-5)
	assert.InDelta(t, 1.0, batch.Weights[2], 1e-5)
	assert.InDelta(t, wHigh/wLow, batch.Weights[3], 1e-5)
}

func TestSampleBatch_WeightsNormalized(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	r := newTestReplay(t, 256, 0.6, 0.4, rng)
	for i := 0; i < 200; i++ {
		r.Insert(i)
	}

	for step := 0; step < 50; step++ {
		batch := r.SampleBatch(32)

		var maxW float64
		for _, w := range batch.Weights {
			assert.Greater(t, w, 0.0)
			assert.LessOrEqual(t, w, 1.0)
			maxW = math.Max(maxW, w)
		}
		assert.InDelta(t, 1.0, maxW, 1e-12)

		errs := make([]float64, batch.Len())
		for i := range errs {
			errs[i] = rng.Float64()*2 - 1
		}
		r.ReportErrors(errs, batch.TreeIndices())
	}
}

func TestSampleBatch_BetaAnneals(t *testing.T) {
	r, err := New[int](Config{Capacity: 4, Alpha: 0.6, Beta: 0.99, BetaIncrement: 0.004}, fixedSource(0.3))
	require.NoError(t, err)
	r.Insert(1)

	prev := r.Beta()
	for i := 0; i < 10; i++ {
		r.SampleBatch(1)
		assert.GreaterOrEqual(t, r.Beta(), prev)
		assert.LessOrEqual(t, r.Beta(), 1.0)
		prev = r.Beta()
	}
	assert.Equal(t, 1.0, r.Beta())
}

func TestSampleBatch_ZeroMass(t *testing.T) {
	r := newTestReplay(t, 4, 0.6, 0.4, fixedSource(0.5))

	batch := r.SampleBatch(1)
	require.Equal(t, 1, batch.Len())
	assert.Equal(t, sumtree.Sample{}, batch.Samples[0])
	assert.Equal(t, 0.0, batch.Weights[0])
	assert.Equal(t, 0.4, r.Beta())

	// Entries present but all at zero priority behave the same way.
	r.tree.Add(7, 0)
	r.tree.Add(8, 0)
	batch = r.SampleBatch(2)
	assert.Equal(t, []float64{0, 0}, batch.Weights)
	assert.Equal(t, 0.4, r.Beta())
}

func TestSampleBatch_ContractViolations(t *testing.T) {
	r := newTestReplay(t, 4, 0.6, 0.4, fixedSource(0.5))
	r.Insert(1)

	assert.Panics(t, func() { r.SampleBatch(2) })
	assert.Panics(t, func() { r.SampleBatch(0) })
	assert.NotPanics(t, func() { r.SampleBatch(1) })
}

func TestReportErrors_ContractViolations(t *testing.T) {
	r := newTestReplay(t, 4, 0.6, 0.4, fixedSource(0.5))
	r.Insert(1)

	assert.Panics(t, func() { r.ReportErrors([]float64{1, 2}, []int{3}) })
	assert.Panics(t, func() { r.ReportErrors([]float64{1}, []int{0}) })
}

func TestReportErrors_MaxPriorityNeverDecreases(t *testing.T) {
	r := newTestReplay(t, 4, 1, 0.4, fixedSource(0.5))
	r.Insert(1)
	r.Insert(2)

	r.ReportErrors([]float64{5}, []int{r.LeafIndex(0)})
	assert.InDelta(t, 5.0, r.MaxPriority(), 1e-5)

	r.ReportErrors([]float64{0.1}, []int{r.LeafIndex(0)})
	assert.InDelta(t, 5.0, r.MaxPriority(), 1e-5)
	assert.InDelta(t, 0.1+1.0, r.Total(), 1e-5)
}

func TestFixed_RoundTrip(t *testing.T) {
	r, err := NewFixed(Config{Capacity: 2, Alpha: 0.6, Beta: 0.4}, 3, fixedSource(0.25))
	require.NoError(t, err)

	r.Insert([]byte{1, 2, 3})
	r.Insert([]byte{4, 5, 6})

	batch := r.SampleBatch(2)
	assert.Equal(t, []byte{1, 2, 3}, r.Item(batch.Samples[0].DataIndex))
	assert.Equal(t, []byte{4, 5, 6}, r.Item(batch.Samples[1].DataIndex))
}
