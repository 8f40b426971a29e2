// Package sumtree implements a fixed-capacity sum tree over a circular
// buffer of records. Leaves hold per-record priorities and every internal
// node holds the sum of its children, so a cumulative priority value can be
// resolved to the record that owns it in O(log capacity).
//
// The tree is laid out implicitly in a flat slice: node i has children 2i+1
// and 2i+2, leaves occupy [capacity-1, 2*capacity-2] and node 0 holds the
// total. Capacity must therefore be a power of two.
//
// A Tree is not safe for concurrent use.
package sumtree

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// ErrInvalidArgument is returned when a tree is created with an unusable
// capacity or record size.
var ErrInvalidArgument = errors.New("invalid argument")

// Sample is the result of resolving a cumulative value against the tree.
type Sample struct {
	TreeIndex int
	DataIndex int
	Priority  float64
}

// Tree is a sum tree of priorities paired with a ring of records of type T.
type Tree[T any] struct {
	capacity int
	nodes    []float64
	records  store[T]
	elemSize int

	// cursor is the next slot to write; size saturates at capacity.
	cursor int
	size   int
}

// New returns an empty tree holding up to capacity records of type T.
// Records are copied by value on Add.
func New[T any](capacity int) (*Tree[T], error) {
	if err := validateCapacity(capacity); err != nil {
		return nil, err
	}

	return &Tree[T]{
		capacity: capacity,
		nodes:    make([]float64, 2*capacity-1),
		records:  newValueStore[T](capacity),
	}, nil
}

// NewFixed returns an empty tree of opaque records that are exactly
// elemSize bytes long. Records are copied into the tree on Add and copied
// out on every read.
func NewFixed(capacity, elemSize int) (*Tree[[]byte], error) {
	if err := validateCapacity(capacity); err != nil {
		return nil, err
	}
	if elemSize <= 0 {
		return nil, errors.Wrapf(ErrInvalidArgument, "element size must be positive, got %d", elemSize)
	}

	return &Tree[[]byte]{
		capacity: capacity,
		nodes:    make([]float64, 2*capacity-1),
		records:  newByteStore(capacity, elemSize),
		elemSize: elemSize,
	}, nil
}

func validateCapacity(capacity int) error {
	if capacity <= 0 {
		return errors.Wrapf(ErrInvalidArgument, "capacity must be positive, got %d", capacity)
	}
	if capacity&(capacity-1) != 0 {
		return errors.Wrapf(ErrInvalidArgument, "capacity must be a power of two, got %d", capacity)
	}
	return nil
}

// Capacity is the number of leaves and record slots.
func (t *Tree[T]) Capacity() int { return t.capacity }

// Len is the number of valid records. It stops growing once the ring wraps.
func (t *Tree[T]) Len() int { return t.size }

// ElemSize is the record size of a tree created with NewFixed, 0 otherwise.
func (t *Tree[T]) ElemSize() int { return t.elemSize }

// Total is the sum of all leaf priorities.
func (t *Tree[T]) Total() float64 { return t.nodes[0] }

// LeafIndex maps a data slot to its tree index.
func (t *Tree[T]) LeafIndex(dataIndex int) int {
	if dataIndex < 0 || dataIndex >= t.capacity {
		panic(fmt.Errorf("sumtree: data index %d out of range [0, %d)", dataIndex, t.capacity))
	}
	return t.leafIndex(dataIndex)
}

// Priority returns the aggregate stored at treeIndex.
func (t *Tree[T]) Priority(treeIndex int) float64 {
	if treeIndex < 0 || treeIndex >= len(t.nodes) {
		panic(fmt.Errorf("sumtree: tree index %d out of range [0, %d)", treeIndex, len(t.nodes)))
	}
	return t.nodes[treeIndex]
}

// Item returns a copy of the record in the given data slot.
func (t *Tree[T]) Item(dataIndex int) T {
	if dataIndex < 0 || dataIndex >= t.capacity {
		panic(fmt.Errorf("sumtree: data index %d out of range [0, %d)", dataIndex, t.capacity))
	}
	return t.records.get(dataIndex)
}

// Add writes item into the oldest slot with the given priority and returns
// the data index it landed in. Once the tree is full the oldest record is
// overwritten.
func (t *Tree[T]) Add(item T, priority float64) int {
	slot := t.cursor
	t.records.put(slot, item)
	t.Update(t.leafIndex(slot), priority)

	t.cursor = (t.cursor + 1) % t.capacity
	if t.size < t.capacity {
		t.size++
	}
	return slot
}

// Update sets the priority of the leaf at treeIndex and propagates the
// change to every ancestor. Only leaf indices are accepted; anything else
// panics.
func (t *Tree[T]) Update(treeIndex int, priority float64) {
	if !t.isLeaf(treeIndex) {
		panic(fmt.Errorf("sumtree: index %d is not a leaf, want [%d, %d]",
			treeIndex, t.leafBase(), len(t.nodes)-1))
	}

	delta := priority - t.nodes[treeIndex]
	t.nodes[treeIndex] = priority
	for i := treeIndex; i > 0; {
		i = parent(i)
		t.nodes[i] += delta
	}
}

// Get resolves value to the leaf whose cumulative interval contains it.
// An empty tree (total <= 0) yields a zero Sample.
func (t *Tree[T]) Get(value float64) Sample {
	total := t.nodes[0]
	if total <= 0 {
		return Sample{}
	}

	value = clamp(value, total)

	idx := 0
	leafBase := t.leafBase()
	for idx < leafBase {
		l := left(idx)
		if value <= t.nodes[l] {
			idx = l
		} else {
			value -= t.nodes[l]
			idx = right(idx)
		}
	}

	return Sample{
		TreeIndex: idx,
		DataIndex: idx - leafBase,
		Priority:  t.nodes[idx],
	}
}

// GetItem is Get plus a copy of the resolved record. On an empty tree the
// record is the zero value of T.
func (t *Tree[T]) GetItem(value float64) (Sample, T) {
	var item T
	if t.nodes[0] <= 0 {
		return Sample{}, item
	}

	s := t.Get(value)
	return s, t.records.get(s.DataIndex)
}

// clamp keeps value inside [0, total). Values at or beyond the total are
// pulled to the largest float below it so rounding cannot walk past the
// last leaf.
func clamp(value, total float64) float64 {
	if value < 0 {
		return 0
	}
	if value >= total {
		return math.Nextafter(total, 0)
	}
	return value
}

func (t *Tree[T]) leafBase() int { return t.capacity - 1 }

func (t *Tree[T]) leafIndex(dataIndex int) int { return t.leafBase() + dataIndex }

func (t *Tree[T]) isLeaf(i int) bool { return i >= t.leafBase() && i < len(t.nodes) }

func parent(i int) int { return (i - 1) / 2 }

func left(i int) int { return 2*i + 1 }

func right(i int) int { return 2*i + 2 }
