package sumtree

import "fmt"

// store is the circular record buffer behind a Tree. Slots are written by
// value and read back as copies.
type store[T any] interface {
	put(slot int, item T)
	get(slot int) T
}

type valueStore[T any] struct {
	items []T
}

func newValueStore[T any](capacity int) *valueStore[T] {
	return &valueStore[T]{items: make([]T, capacity)}
}

func (s *valueStore[T]) put(slot int, item T) { s.items[slot] = item }

func (s *valueStore[T]) get(slot int) T { return s.items[slot] }

// byteStore keeps fixed-size records in one flat buffer.
type byteStore struct {
	buf      []byte
	elemSize int
}

func newByteStore(capacity, elemSize int) *byteStore {
	return &byteStore{
		buf:      make([]byte, capacity*elemSize),
		elemSize: elemSize,
	}
}

func (s *byteStore) offset(slot int) int {
	return slot * s.elemSize
}

func (s *byteStore) put(slot int, item []byte) {
	if len(item) != s.elemSize {
		panic(fmt.Errorf("sumtree: record has %d bytes, want %d", len(item), s.elemSize))
	}
	off := s.offset(slot)
	copy(s.buf[off:off+s.elemSize], item)
}

func (s *byteStore) get(slot int) []byte {
	off := s.offset(slot)
	out := make([]byte, s.elemSize)
	copy(out, s.buf[off:off+s.elemSize])
	return out
}
