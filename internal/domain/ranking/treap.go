// Package ranking keeps the K best scored items.
//
// Ordering: score DESC, then insertion order ASC. The treap comparator treats
// "less" as ranking earlier, so an in-order traversal yields best to worst
// and the worst item is the rightmost node.
package ranking

import (
	"math"
	"math/rand/v2"
)

// Entry is a ranked item.
type Entry[T any] struct {
	Item  T
	Score float64
}

type node[T any] struct {
	item  T
	score float64
	seq   uint64
	prio  uint64
	left  *node[T]
	right *node[T]
	size  int
}

func nsize[T any](n *node[T]) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix[T any](n *node[T]) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less reports whether (aScore, aSeq) ranks before (bScore, bSeq).
func less(aScore float64, aSeq uint64, bScore float64, bSeq uint64) bool {
	if aScore != bScore {
		return aScore > bScore
	}
	return aSeq < bSeq
}

func rotateRight[T any](y *node[T]) *node[T] {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft[T any](x *node[T]) *node[T] {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert[T any](n, nn *node[T]) *node[T] {
	if n == nil {
		return nn
	}
	if less(nn.score, nn.seq, n.score, n.seq) {
		n.left = insert(n.left, nn)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, nn)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

// deleteLast removes the rightmost node and returns the new root.
func deleteLast[T any](n *node[T]) *node[T] {
	if n.right == nil {
		return n.left
	}
	n.right = deleteLast(n.right)
	fix(n)
	return n
}

func last[T any](n *node[T]) *node[T] {
	for n != nil && n.right != nil {
		n = n.right
	}
	return n
}

func first[T any](n *node[T]) *node[T] {
	for n != nil && n.left != nil {
		n = n.left
	}
	return n
}

func collect[T any](n *node[T], out []Entry[T]) []Entry[T] {
	if n == nil {
		return out
	}
	out = collect(n.left, out)
	out = append(out, Entry[T]{Item: n.item, Score: n.score})
	return collect(n.right, out)
}

// TopK is a bounded treap. It is not safe for concurrent use.
type TopK[T any] struct {
	root     *node[T]
	capacity int
	seq      uint64
	rng      *rand.Rand
}

// NewTopK returns an empty queue holding at most capacity items.
func NewTopK[T any](capacity int) (*TopK[T], error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	return &TopK[T]{
		capacity: capacity,
		rng:      rand.New(rand.NewPCG(uint64(capacity), 0x9e3779b97f4a7c15)), //nolint:gosec // balancing only
	}, nil
}

// Push offers an item. With room left it is always accepted; when full it
// replaces the current minimum only if its score is strictly greater.
// NaN scores rank below everything.
func (q *TopK[T]) Push(item T, score float64) bool {
	if math.IsNaN(score) {
		score = math.Inf(-1)
	}
	if nsize(q.root) >= q.capacity {
		if worst := last(q.root); score <= worst.score {
			return false
		}
		q.root = deleteLast(q.root)
	}
	q.seq++
	q.root = insert(q.root, &node[T]{item: item, score: score, seq: q.seq, prio: q.rng.Uint64(), size: 1})
	return true
}

// Len returns the number of items held.
func (q *TopK[T]) Len() int { return nsize(q.root) }

// Cap returns the capacity.
func (q *TopK[T]) Cap() int { return q.capacity }

// Full reports whether the queue holds capacity items.
func (q *TopK[T]) Full() bool { return nsize(q.root) >= q.capacity }

// Min returns the lowest held score.
func (q *TopK[T]) Min() (float64, bool) {
	n := last(q.root)
	if n == nil {
		return 0, false
	}
	return n.score, true
}

// Max returns the best held entry.
func (q *TopK[T]) Max() (Entry[T], bool) {
	n := first(q.root)
	if n == nil {
		return Entry[T]{}, false
	}
	return Entry[T]{Item: n.item, Score: n.score}, true
}

// Drain returns every entry best first and empties the queue.
func (q *TopK[T]) Drain() []Entry[T] {
	out := collect(q.root, make([]Entry[T], 0, nsize(q.root)))
	q.root = nil
	return out
}

// Reset empties the queue.
func (q *TopK[T]) Reset() { q.root = nil }
