// Package trie implements a generalized suffix tree over token sequences.
//
// Sequences are inserted with Ukkonen's online construction. Each sequence
// is closed by an implicit terminator that is unique to it, so every suffix
// ends at its own leaf and the leaf records the (sequence, offset) of that
// suffix. Nodes live in a flat arena addressed by int32 indices.
//
// Once all sequences are inserted the tree is read-only and every search
// method is safe for concurrent use.
package trie

import (
	"sort"

	"github.com/okian/mapperator/internal/domain/token"
)

const (
	root    int32 = 0
	noNode  int32 = -1
	openEnd int32 = -1
)

// Occurrence identifies a position in the corpus.
type Occurrence struct {
	Seq    int
	Offset int
}

// symbol is a token value, or a negative per-sequence terminator.
type symbol int32

func terminator(seq int32) symbol { return symbol(-seq - 1) }

// node holds its incoming edge label as a range of a stored sequence.
type node struct {
	seq      int32
	start    int32
	end      int32 // exclusive, openEnd while the leaf is still growing
	link     int32
	offset   int32 // suffix offset for leaves, -1 for internal nodes
	children []int32
}

// Trie is a generalized suffix tree.
type Trie struct {
	nodes  []node
	seqs   [][]token.Token
	leaves int
	curEnd int32
}

// Stats summarizes the size of a trie.
type Stats struct {
	Sequences int
	Tokens    int
	Nodes     int
	Leaves    int
}

// New returns an empty trie.
func New() *Trie {
	return &Trie{
		nodes: []node{{seq: 0, start: 0, end: 0, link: root, offset: -1}},
	}
}

// Build inserts every sequence into a new trie.
func Build(seqs [][]token.Token) *Trie {
	t := New()
	for _, s := range seqs {
		t.Insert(s)
	}
	return t
}

// Insert adds a sequence and returns its id. The tokens are copied.
func (t *Trie) Insert(toks []token.Token) int {
	seq := int32(len(t.seqs))
	t.seqs = append(t.seqs, append([]token.Token(nil), toks...))
	first := int32(len(t.nodes))
	n := int32(len(toks))

	activeNode, activeEdge, activeLen := root, int32(0), int32(0)
	remainder := int32(0)

	for i := int32(0); i <= n; i++ {
		t.curEnd = i + 1
		c := t.symbol(seq, i)
		remainder++
		lastNew := noNode

		for remainder > 0 {
			if activeLen == 0 {
				activeEdge = i
			}
			next := t.child(activeNode, t.symbol(seq, activeEdge))
			if next == noNode {
				t.addChild(activeNode, t.newLeaf(seq, i, i-remainder+1))
				if lastNew != noNode {
					t.nodes[lastNew].link = activeNode
					lastNew = noNode
				}
			} else {
				if el := t.edgeLen(next); activeLen >= el {
					activeEdge += el
					activeLen -= el
					activeNode = next
					continue
				}
				eseq, estart := t.nodes[next].seq, t.nodes[next].start
				if t.symbol(eseq, estart+activeLen) == c {
					if lastNew != noNode && activeNode != root {
						t.nodes[lastNew].link = activeNode
						lastNew = noNode
					}
					activeLen++
					break
				}
				split := t.newInternal(eseq, estart, estart+activeLen)
				t.replaceChild(activeNode, next, split)
				t.nodes[next].start += activeLen
				t.addChild(split, next)
				t.addChild(split, t.newLeaf(seq, i, i-remainder+1))
				if lastNew != noNode {
					t.nodes[lastNew].link = split
				}
				lastNew = split
			}

			remainder--
			if activeNode == root && activeLen > 0 {
				activeLen--
				activeEdge = i - remainder + 1
			} else if activeNode != root {
				activeNode = t.nodes[activeNode].link
			}
		}
	}

	for j := first; j < int32(len(t.nodes)); j++ {
		if t.nodes[j].end == openEnd {
			t.nodes[j].end = n + 1
		}
	}
	return int(seq)
}

// Sequence returns the tokens of an inserted sequence.
func (t *Trie) Sequence(id int) []token.Token {
	if id < 0 || id >= len(t.seqs) {
		return nil
	}
	return t.seqs[id]
}

// Stats reports the trie size.
func (t *Trie) Stats() Stats {
	total := 0
	for _, s := range t.seqs {
		total += len(s)
	}
	return Stats{
		Sequences: len(t.seqs),
		Tokens:    total,
		Nodes:     len(t.nodes),
		Leaves:    t.leaves,
	}
}

func (t *Trie) symbol(seq, i int32) symbol {
	s := t.seqs[seq]
	if int(i) >= len(s) {
		return terminator(seq)
	}
	return symbol(s[i])
}

func (t *Trie) end(n int32) int32 {
	if e := t.nodes[n].end; e != openEnd {
		return e
	}
	return t.curEnd
}

func (t *Trie) edgeLen(n int32) int32 {
	return t.end(n) - t.nodes[n].start
}

func (t *Trie) first(n int32) symbol {
	nd := &t.nodes[n]
	return t.symbol(nd.seq, nd.start)
}

func (t *Trie) newLeaf(seq, start, offset int32) int32 {
	t.nodes = append(t.nodes, node{seq: seq, start: start, end: openEnd, link: root, offset: offset})
	t.leaves++
	return int32(len(t.nodes) - 1)
}

func (t *Trie) newInternal(seq, start, end int32) int32 {
	t.nodes = append(t.nodes, node{seq: seq, start: start, end: end, link: root, offset: -1})
	return int32(len(t.nodes) - 1)
}

// child finds the outgoing edge of n starting with s.
func (t *Trie) child(n int32, s symbol) int32 {
	kids := t.nodes[n].children
	i := sort.Search(len(kids), func(i int) bool { return t.first(kids[i]) >= s })
	if i < len(kids) && t.first(kids[i]) == s {
		return kids[i]
	}
	return noNode
}

// addChild inserts c keeping children ordered by first symbol.
func (t *Trie) addChild(n, c int32) {
	s := t.first(c)
	kids := t.nodes[n].children
	i := sort.Search(len(kids), func(i int) bool { return t.first(kids[i]) >= s })
	kids = append(kids, noNode)
	copy(kids[i+1:], kids[i:])
	kids[i] = c
	t.nodes[n].children = kids
}

// replaceChild swaps old for c; both start with the same symbol.
func (t *Trie) replaceChild(n, old, c int32) {
	kids := t.nodes[n].children
	for i, k := range kids {
		if k == old {
			kids[i] = c
			return
		}
	}
}

// childrenFrom returns the children of n whose first symbol is >= lo.
func (t *Trie) childrenFrom(n int32, lo token.Token) []int32 {
	kids := t.nodes[n].children
	i := sort.Search(len(kids), func(i int) bool { return t.first(kids[i]) >= symbol(lo) })
	return kids[i:]
}

// collect appends the occurrences of every leaf below n.
func (t *Trie) collect(n int32, out []Occurrence) []Occurrence {
	stack := []int32{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		nd := &t.nodes[cur]
		if nd.offset >= 0 {
			out = append(out, Occurrence{Seq: int(nd.seq), Offset: int(nd.offset)})
			continue
		}
		stack = append(stack, nd.children...)
	}
	return out
}
