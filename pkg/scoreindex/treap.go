package scoreindex

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
)

// Treap keyed by (score, member).
//
// "before" means ranks earlier under the configured direction, so an in-order
// traversal yields the leaderboard from best to worst. Ties on score fall back
// to member ascending regardless of direction. Every node carries the size of
// its subtree, which turns rank and select into a single root-to-leaf walk.

type node[S Number] struct {
	member string
	score  S
	prio   uint64
	left   *node[S]
	right  *node[S]
	size   int
}

func nsize[S Number](n *node[S]) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix[S Number](n *node[S]) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

func rotateRight[S Number](y *node[S]) *node[S] {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft[S Number](x *node[S]) *node[S] {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

type treap[S Number] struct {
	root *node[S]
	desc bool
	rng  *rand.Rand
}

func newTreap[S Number](dir Direction, c config) treap[S] {
	seed1, seed2 := c.seed1, c.seed2
	if !c.seeded {
		var seed [16]byte
		if _, err := cryptorand.Read(seed[:]); err == nil {
			seed1 = binary.BigEndian.Uint64(seed[:8])
			seed2 = binary.BigEndian.Uint64(seed[8:])
		}
	}
	return treap[S]{
		desc: dir == Descending,
		rng:  rand.New(rand.NewPCG(seed1, seed2)),
	}
}

// before reports whether (aScore, aMember) ranks ahead of (bScore, bMember).
func (t *treap[S]) before(aScore S, aMember string, bScore S, bMember string) bool {
	if aScore != bScore {
		if t.desc {
			return aScore > bScore
		}
		return aScore < bScore
	}
	return aMember < bMember
}

func (t *treap[S]) len() int { return nsize(t.root) }

func (t *treap[S]) insert(member string, score S) {
	t.root = t.insertAt(t.root, member, score)
}

func (t *treap[S]) insertAt(n *node[S], member string, score S) *node[S] {
	if n == nil {
		return &node[S]{member: member, score: score, prio: t.rng.Uint64(), size: 1}
	}
	if t.before(score, member, n.score, n.member) {
		n.left = t.insertAt(n.left, member, score)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = t.insertAt(n.right, member, score)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

// remove deletes the exact key and reports whether it was present.
func (t *treap[S]) remove(member string, score S) bool {
	var found bool
	t.root = t.removeAt(t.root, member, score, &found)
	return found
}

func (t *treap[S]) removeAt(n *node[S], member string, score S, found *bool) *node[S] {
	if n == nil {
		return nil
	}
	if n.score == score && n.member == member {
		*found = true
		return merge(n.left, n.right)
	}
	if t.before(score, member, n.score, n.member) {
		n.left = t.removeAt(n.left, member, score, found)
	} else {
		n.right = t.removeAt(n.right, member, score, found)
	}
	fix(n)
	return n
}

// merge joins two treaps where every key in a ranks before every key in b.
func merge[S Number](a, b *node[S]) *node[S] {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if a.prio > b.prio {
		a.right = merge(a.right, b)
		fix(a)
		return a
	}
	b.left = merge(a, b.left)
	fix(b)
	return b
}

// rank returns the zero-based position of the key, or -1 when absent.
func (t *treap[S]) rank(member string, score S) int {
	r := 0
	n := t.root
	for n != nil {
		if n.score == score && n.member == member {
			return r + nsize(n.left)
		}
		if t.before(score, member, n.score, n.member) {
			n = n.left
		} else {
			r += nsize(n.left) + 1
			n = n.right
		}
	}
	return -1
}

// at returns the node at zero-based position i; i must be in range.
func (t *treap[S]) at(i int) *node[S] {
	n := t.root
	for n != nil {
		ls := nsize(n.left)
		switch {
		case i < ls:
			n = n.left
		case i == ls:
			return n
		default:
			i -= ls + 1
			n = n.right
		}
	}
	return nil
}

// appendRange appends the entries at positions [lo, hi) of the subtree rooted at n.
func appendRange[S Number](n *node[S], lo, hi int, out []Entry[S]) []Entry[S] {
	if n == nil || lo >= hi {
		return out
	}
	ls := nsize(n.left)
	if lo < ls {
		out = appendRange(n.left, lo, min(hi, ls), out)
	}
	if lo <= ls && ls < hi {
		out = append(out, Entry[S]{Member: n.member, Score: n.score})
	}
	if hi > ls+1 {
		out = appendRange(n.right, max(lo-ls-1, 0), hi-ls-1, out)
	}
	return out
}

// verify walks the whole treap checking sizes, heap order and key order,
// and that every node agrees with scores. It returns the number of nodes seen.
func (t *treap[S]) verify(scores map[string]S) (int, error) {
	var (
		prev    *node[S]
		count   int
		walkErr error
	)
	var walk func(n *node[S]) int
	walk = func(n *node[S]) int {
		if n == nil || walkErr != nil {
			return 0
		}
		for _, c := range []*node[S]{n.left, n.right} {
			if c != nil && c.prio > n.prio {
				walkErr = fmt.Errorf("%w: heap order broken under %q", ErrInternalInvariant, n.member)
				return 0
			}
		}
		size := walk(n.left)
		if prev != nil && !t.before(prev.score, prev.member, n.score, n.member) {
			walkErr = fmt.Errorf("%w: %q is not ordered after %q", ErrInternalInvariant, n.member, prev.member)
			return 0
		}
		prev = n
		count++
		if s, ok := scores[n.member]; !ok || s != n.score {
			walkErr = fmt.Errorf("%w: member %q in tree disagrees with map", ErrInternalInvariant, n.member)
			return 0
		}
		size += 1 + walk(n.right)
		if walkErr == nil && size != n.size {
			walkErr = fmt.Errorf("%w: subtree size of %q is %d, want %d", ErrInternalInvariant, n.member, n.size, size)
		}
		return size
	}
	walk(t.root)
	return count, walkErr
}
