// Package per implements prioritized experience replay on top of a sum tree.
//
// Priorities are derived from error magnitudes with a power-law transform,
// fresh entries are inserted at the running maximum priority, and batches are
// drawn by stratified sampling over the total priority mass together with
// normalized importance-sampling weights.
//
// A Replay is owned by a single caller. Wrap it in a mutex to share it.
package per

import (
	"fmt"
	"math"

	"github.com/cartridge/replay/pkg/sumtree"
)

// Source supplies uniform values in [0, 1). *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

// Batch is one stratified draw. Weights[i] is the importance weight for
// Samples[i].
type Batch struct {
	Samples []sumtree.Sample
	Weights []float64
}

// Len is the number of samples in the batch.
func (b Batch) Len() int { return len(b.Samples) }

// TreeIndices returns the tree index of every sample, in order, for use
// with ReportErrors.
func (b Batch) TreeIndices() []int {
	idx := make([]int, len(b.Samples))
	for i, s := range b.Samples {
		idx[i] = s.TreeIndex
	}
	return idx
}

// Replay is a prioritized replay buffer of records of type T.
type Replay[T any] struct {
	tree *sumtree.Tree[T]
	src  Source

	alpha         float64
	beta          float64
	betaIncrement float64
	epsilon       float64
	maxPriority   float64
}

// New returns an empty replay buffer of records of type T drawing
// randomness from src.
func New[T any](cfg Config, src Source) (*Replay[T], error) {
	tree, err := sumtree.New[T](cfg.Capacity)
	if err != nil {
		return nil, err
	}
	return newReplay(tree, cfg, src)
}

// NewFixed returns an empty replay buffer of opaque elemSize-byte records.
func NewFixed(cfg Config, elemSize int, src Source) (*Replay[[]byte], error) {
	tree, err := sumtree.NewFixed(cfg.Capacity, elemSize)
	if err != nil {
		return nil, err
	}
	return newReplay(tree, cfg, src)
}

func newReplay[T any](tree *sumtree.Tree[T], cfg Config, src Source) (*Replay[T], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if src == nil {
		panic("per: nil random source")
	}

	cfg = cfg.withDefaults()
	return &Replay[T]{
		tree:          tree,
		src:           src,
		alpha:         cfg.Alpha,
		beta:          cfg.Beta,
		betaIncrement: cfg.BetaIncrement,
		epsilon:       cfg.Epsilon,
		maxPriority:   1.0,
	}, nil
}

// Alpha is the priority exponent.
func (r *Replay[T]) Alpha() float64 { return r.alpha }

// Beta is the current importance-sampling exponent.
func (r *Replay[T]) Beta() float64 { return r.beta }

// MaxPriority is the largest priority assigned so far, at least 1.
func (r *Replay[T]) MaxPriority() float64 { return r.maxPriority }

// Len is the number of stored entries.
func (r *Replay[T]) Len() int { return r.tree.Len() }

// Capacity is the number of slots.
func (r *Replay[T]) Capacity() int { return r.tree.Capacity() }

// Total is the sum of all priorities.
func (r *Replay[T]) Total() float64 { return r.tree.Total() }

// Item returns a copy of the record stored in the given data slot.
func (r *Replay[T]) Item(dataIndex int) T { return r.tree.Item(dataIndex) }

// LeafIndex maps a data slot to the tree index ReportErrors expects.
func (r *Replay[T]) LeafIndex(dataIndex int) int { return r.tree.LeafIndex(dataIndex) }

// PriorityFromError maps an error to (|err| + eps)^alpha.
func (r *Replay[T]) PriorityFromError(err float64) float64 {
	return math.Pow(math.Abs(err)+r.epsilon, r.alpha)
}

// Insert stores item at the current maximum priority so it is drawn soon,
// and returns the data slot it was written to.
func (r *Replay[T]) Insert(item T) int {
	return r.tree.Add(item, r.maxPriority)
}

// SampleBatch draws n samples, one from each of n equal slices of the total
// priority mass, and anneals beta. With zero mass it returns n zeroed
// samples and weights and leaves beta untouched. Otherwise it panics if n is
// not positive or exceeds the number of stored entries.
func (r *Replay[T]) SampleBatch(n int) Batch {
	if n <= 0 {
		panic(fmt.Errorf("per: batch size must be positive, got %d", n))
	}

	batch := Batch{
		Samples: make([]sumtree.Sample, n),
		Weights: make([]float64, n),
	}

	// Zero mass, including a tree nothing was inserted into, has nothing
	// to learn from yet.
	total := r.tree.Total()
	if total <= 0 {
		return batch
	}
	if n > r.tree.Len() {
		panic(fmt.Errorf("per: batch size %d exceeds %d stored entries", n, r.tree.Len()))
	}

	segment := total / float64(n)
	for i := range batch.Samples {
		lo := segment * float64(i)
		hi := segment * float64(i+1)
		x := lo + r.src.Float64()*(hi-lo)
		if x >= total {
			x = math.Nextafter(total, 0)
		}
		batch.Samples[i] = r.tree.Get(x)
	}

	r.beta = math.Min(1.0, r.beta+r.betaIncrement)
	importanceWeights(batch.Samples, batch.Weights, total, r.tree.Len(), r.beta)
	return batch
}

// importanceWeights fills out with (1/(n*P(i)))^beta normalized by the
// batch maximum.
func importanceWeights(samples []sumtree.Sample, out []float64, total float64, n int, beta float64) {
	if n == 0 || total <= 0 {
		for i := range out {
			out[i] = 0
		}
		return
	}

	var maxWeight float64
	for i, s := range samples {
		prob := s.Priority / total
		if prob < minProbability {
			prob = minProbability
		}

		w := math.Pow(1.0/(float64(n)*prob), beta)
		out[i] = w
		if w > maxWeight {
			maxWeight = w
		}
	}

	if maxWeight <= 0 {
		return
	}
	for i := range out {
		out[i] /= maxWeight
	}
}

// ReportErrors converts each error to a priority and writes it to the
// matching tree index, typically taken from Batch.TreeIndices. It panics if
// the slices differ in length or an index is not a leaf.
func (r *Replay[T]) ReportErrors(errs []float64, treeIndices []int) {
	if len(errs) != len(treeIndices) {
		panic(fmt.Errorf("per: %d errors for %d tree indices", len(errs), len(treeIndices)))
	}

	for i, e := range errs {
		p := r.PriorityFromError(e)
		r.tree.Update(treeIndices[i], p)
		r.maxPriority = math.Max(r.maxPriority, p)
	}
}
