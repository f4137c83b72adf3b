//go:build !nolh1

package decode

import "github.com/ossyrian/amilha/internal/bitio"

// lh1NumLeaves is the size of -lh1-'s dynamic alphabet: 256 literal byte
// values plus 58 match-length codes (length 3..60).
const lh1NumLeaves = 314

const lh1Root = 0

// lh1Tree is LHarc's classic adaptive Huffman tree for -lh1-: an array of
// nodes kept in weight order via sibling-group bookkeeping (blocks),
// rebalanced by a swap-and-increment walk from leaf to root after every
// decoded symbol. All 314 leaves start at weight 1 in a fixed initial
// shape; no new leaves are ever added, only weights change.
type lh1Tree struct {
	child  []int16
	parent []int16
	block  []int16
	edge   []int16
	stock  []int16
	sNode  []int16
	freq   []uint16
	avail  int
}

func newLh1Tree() *lh1Tree {
	const nMax = lh1NumLeaves
	size := nMax * 2
	t := &lh1Tree{
		child:  make([]int16, size),
		parent: make([]int16, size),
		block:  make([]int16, size),
		edge:   make([]int16, size),
		stock:  make([]int16, size),
		sNode:  make([]int16, nMax),
		freq:   make([]uint16, size),
	}
	for i := 0; i < size; i++ {
		t.stock[i] = int16(i)
		t.block[i] = 0
	}

	i := 0
	j := nMax*2 - 2
	for ; i < nMax; i++ {
		t.freq[j] = 1
		t.child[j] = int16(^i)
		t.sNode[i] = int16(j)
		t.block[j] = 1
		j--
	}

	t.avail = 2
	t.edge[1] = int16(nMax - 1)
	i = nMax*2 - 2
	for j >= 0 {
		t.freq[j] = t.freq[i] + t.freq[i-1]
		f := int(t.freq[j])
		t.child[j] = int16(i)
		t.parent[i-1] = int16(j)
		t.parent[i] = t.parent[i-1]

		if f == int(t.freq[j+1]) {
			t.block[j] = t.block[j+1]
			t.edge[t.block[j]] = int16(j)
		} else {
			t.block[j] = t.stock[t.avail]
			t.avail++
			t.edge[t.block[j]] = int16(j)
		}
		i -= 2
		j--
	}
	return t
}

// decode walks from the root to a leaf, one bit per edge, then updates
// the tree's weights for the symbol found.
func (t *lh1Tree) decode(br *bitio.Reader) (int, error) {
	c := int(t.child[lh1Root])
	for c > 0 {
		bit, err := br.ReadBit()
		if err != nil {
			return 0, err
		}
		v := c
		if bit {
			v--
		}
		c = int(t.child[v])
	}
	sym := ^c
	t.update(sym)
	return sym, nil
}

func (t *lh1Tree) update(p int) {
	if t.freq[lh1Root] == 0x8000 {
		t.reconst(0, lh1NumLeaves*2-1)
	}
	t.freq[lh1Root]++
	q := int(t.sNode[p])
	for {
		q = int(t.swapInc(q))
		if q == lh1Root {
			break
		}
	}
}

// swapInc promotes node p to the front of its weight-group if needed,
// increments its weight, and returns its parent so the caller can climb
// one level further toward the root.
func (t *lh1Tree) swapInc(p int) int16 {
	b := int(t.block[p])
	q := int(t.edge[b])
	if q != p {
		r := int(t.child[p])
		s := int(t.child[q])
		t.child[p] = int16(s)
		t.child[q] = int16(r)
		if r >= 0 {
			t.parent[r-1] = int16(q)
			t.parent[r] = t.parent[r-1]
		} else {
			t.sNode[^r] = int16(q)
		}
		if s >= 0 {
			t.parent[s-1] = int16(p)
			t.parent[s] = t.parent[s-1]
		} else {
			t.sNode[^s] = int16(p)
		}
		p = q
		t.edge[b]++
		t.freq[p]++
		if t.freq[p] == t.freq[p-1] {
			t.block[p] = t.block[p-1]
		} else {
			t.block[p] = t.stock[t.avail]
			t.avail++
			t.edge[t.block[p]] = int16(p)
		}
	} else if b == int(t.block[p+1]) {
		t.edge[b]++
		t.freq[p]++
		if t.freq[p] == t.freq[p-1] {
			t.block[p] = t.block[p-1]
		} else {
			t.block[p] = t.stock[t.avail]
			t.avail++
			t.edge[t.block[p]] = int16(p)
		}
	} else {
		t.freq[p]++
		if t.freq[p] == t.freq[p-1] {
			t.avail--
			t.stock[t.avail] = int16(b)
			t.block[p] = t.block[p-1]
		}
	}
	return t.parent[p]
}

// reconst halves every leaf weight (rounding up) and rebuilds the block
// bookkeeping once the root's frequency saturates, keeping the tree's
// node weights from overflowing their 16-bit counters during a long
// member.
func (t *lh1Tree) reconst(start, end int) {
	j := start
	for i := start; i < end; i++ {
		k := int(t.child[i])
		if k < 0 {
			t.freq[j] = (t.freq[i] + 1) / 2
			t.child[j] = int16(k)
			j++
		}
		b := int(t.block[i])
		if int(t.edge[b]) == i {
			t.avail--
			t.stock[t.avail] = int16(b)
		}
	}
	j--
	i := end - 1
	l := end - 2
	var b int
	for i >= start {
		for i >= l {
			t.freq[i] = t.freq[j]
			t.child[i] = t.child[j]
			i--
			j--
		}
		f := uint(t.freq[l] + t.freq[l+1])
		k := start
		for f < uint(t.freq[k]) {
			k++
		}
		for j >= k {
			t.freq[i] = t.freq[j]
			t.child[i] = t.child[j]
			i--
			j--
		}
		t.freq[i] = uint16(f)
		t.child[i] = int16(l) + 1
		i--
		l -= 2
	}

	f := uint(0)
	for i := start; i < end; i++ {
		c := int(t.child[i])
		if c < 0 {
			t.sNode[^c] = int16(i)
		} else {
			t.parent[c-1] = int16(i)
			t.parent[c] = t.parent[c-1]
		}
		g := uint(t.freq[i])
		if g == f {
			t.block[i] = int16(b)
		} else {
			t.block[i] = t.stock[t.avail]
			t.avail++
			b = int(t.block[i])
			t.edge[b] = int16(i)
			f = g
		}
	}
}
