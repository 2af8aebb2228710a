package ml

import (
	"math/rand"
	"sort"
)

const leaf = -1

type node struct {
	feature   int
	threshold float64
	left      int
	right     int
	// value is the class distribution of a classification leaf or the
	// single mean of a regression leaf.
	value []float64
}

// tree is a CART decision tree grown until leaves are pure or hold one sample.
type tree struct {
	nodes      []node
	importance []float64
}

type treeParams struct {
	classes     int // 0 for regression
	maxFeatures int
}

// growTree fits a tree on rows idx of x and y. For classification y holds
// class indices. Rows are sorted by every feature once; each node then owns
// the same window of every sorted order, and a split stably partitions those
// windows instead of re-sorting.
func growTree(x [][]float64, y []float64, idx []int, nFeatures int, prm treeParams, rng *rand.Rand) *tree {
	t := &tree{importance: make([]float64, nFeatures)}
	b := &builder{
		x:        x,
		y:        y,
		prm:      prm,
		rng:      rng,
		t:        t,
		features: make([]int, nFeatures),
		sorted:   make([][]int, nFeatures),
		goLeft:   make([]bool, len(x)),
		scratch:  make([]int, len(idx)),
	}
	for f := range b.features {
		b.features[f] = f
		order := append([]int(nil), idx...)
		sort.SliceStable(order, func(i, j int) bool { return x[order[i]][f] < x[order[j]][f] })
		b.sorted[f] = order
	}
	b.build(idx, 0, len(idx))
	return t
}

type builder struct {
	x        [][]float64
	y        []float64
	prm      treeParams
	rng      *rand.Rand
	t        *tree
	features []int
	// sorted[f] orders the bootstrap rows by feature f.
	sorted  [][]int
	goLeft  []bool // by row, valid for the node being split
	scratch []int
}

// build grows the subtree over window [lo, hi) of every sorted order. rows
// lists the same rows in any order.
func (b *builder) build(rows []int, lo, hi int) int {
	imp := b.impurity(rows)
	id := len(b.t.nodes)
	b.t.nodes = append(b.t.nodes, node{feature: leaf, left: leaf, right: leaf})
	if len(rows) < 2 || imp <= 1e-12 || len(b.sorted) == 0 {
		b.t.nodes[id].value = b.leafValue(rows)
		return id
	}
	s, ok := b.bestSplit(lo, hi, imp)
	if !ok {
		b.t.nodes[id].value = b.leafValue(rows)
		return id
	}
	b.t.importance[s.feature] += s.gain
	for _, i := range rows {
		b.goLeft[i] = b.x[i][s.feature] <= s.threshold
	}
	mid := lo
	for f := range b.sorted {
		mid = lo + b.partition(b.sorted[f][lo:hi])
	}
	// the split feature's window lists left rows then right rows
	w := b.sorted[s.feature]
	left := b.build(w[lo:mid], lo, mid)
	right := b.build(w[mid:hi], mid, hi)
	b.t.nodes[id].feature = s.feature
	b.t.nodes[id].threshold = s.threshold
	b.t.nodes[id].left = left
	b.t.nodes[id].right = right
	return id
}

// partition moves rows going left to the front of w, keeping the relative
// order on both sides, and returns the number of left rows.
func (b *builder) partition(w []int) int {
	nl, nr := 0, 0
	for _, i := range w {
		if b.goLeft[i] {
			w[nl] = i
			nl++
		} else {
			b.scratch[nr] = i
			nr++
		}
	}
	copy(w[nl:], b.scratch[:nr])
	return nl
}

type split struct {
	feature   int
	threshold float64
	// gain is the weighted impurity decrease n*imp - nL*impL - nR*impR.
	gain float64
}

// bestSplit draws candidate features in random order and keeps going past
// maxFeatures until at least one valid split has been seen.
func (b *builder) bestSplit(lo, hi int, imp float64) (split, bool) {
	b.rng.Shuffle(len(b.features), func(i, j int) {
		b.features[i], b.features[j] = b.features[j], b.features[i]
	})
	best := split{gain: -1}
	found := false
	visited := 0
	for _, f := range b.features {
		if visited >= b.prm.maxFeatures && found {
			break
		}
		s, ok := b.splitOn(b.sorted[f][lo:hi], f, imp)
		if s.feature < 0 {
			// constant feature in this node; does not count as visited
			continue
		}
		visited++
		if ok && s.gain > best.gain {
			best, found = s, true
		}
	}
	return best, found
}

// splitOn finds the best threshold on feature f over order, the node's rows
// sorted by f. The returned split has feature -1 when f is constant.
func (b *builder) splitOn(order []int, f int, imp float64) (split, bool) {
	lo, hi := b.x[order[0]][f], b.x[order[len(order)-1]][f]
	if lo == hi {
		return split{feature: -1}, false
	}
	n := float64(len(order))
	parent := n * imp
	best := split{feature: f, gain: -1}
	found := false
	if b.prm.classes > 0 {
		left := make([]float64, b.prm.classes)
		right := make([]float64, b.prm.classes)
		for _, i := range order {
			right[int(b.y[i])]++
		}
		for k := 0; k < len(order)-1; k++ {
			c := int(b.y[order[k]])
			left[c]++
			right[c]--
			v, next := b.x[order[k]][f], b.x[order[k+1]][f]
			if v == next {
				continue
			}
			nl := float64(k + 1)
			nr := n - nl
			gain := parent - nl*gini(left, nl) - nr*gini(right, nr)
			if gain > best.gain {
				best.gain, best.threshold, found = gain, midpoint(v, next), true
			}
		}
		return best, found
	}
	var sumR, sqR float64
	for _, i := range order {
		sumR += b.y[i]
		sqR += b.y[i] * b.y[i]
	}
	var sumL, sqL float64
	for k := 0; k < len(order)-1; k++ {
		yv := b.y[order[k]]
		sumL += yv
		sqL += yv * yv
		sumR -= yv
		sqR -= yv * yv
		v, next := b.x[order[k]][f], b.x[order[k+1]][f]
		if v == next {
			continue
		}
		nl := float64(k + 1)
		nr := n - nl
		gain := parent - (sqL - sumL*sumL/nl) - (sqR - sumR*sumR/nr)
		if gain > best.gain {
			best.gain, best.threshold, found = gain, midpoint(v, next), true
		}
	}
	return best, found
}

func (b *builder) impurity(idx []int) float64 {
	n := float64(len(idx))
	if n == 0 {
		return 0
	}
	if b.prm.classes > 0 {
		counts := make([]float64, b.prm.classes)
		for _, i := range idx {
			counts[int(b.y[i])]++
		}
		return gini(counts, n)
	}
	var sum, sq float64
	for _, i := range idx {
		sum += b.y[i]
		sq += b.y[i] * b.y[i]
	}
	mean := sum / n
	v := sq/n - mean*mean
	if v < 0 {
		return 0
	}
	return v
}

func (b *builder) leafValue(idx []int) []float64 {
	n := float64(len(idx))
	if b.prm.classes > 0 {
		dist := make([]float64, b.prm.classes)
		for _, i := range idx {
			dist[int(b.y[i])]++
		}
		for c := range dist {
			dist[c] /= n
		}
		return dist
	}
	var sum float64
	for _, i := range idx {
		sum += b.y[i]
	}
	return []float64{sum / n}
}

// midpoint falls back to lo when the average rounds onto hi, so rows equal
// to hi always go right.
func midpoint(lo, hi float64) float64 {
	m := lo + (hi-lo)/2
	if m >= hi || m < lo {
		return lo
	}
	return m
}

func gini(counts []float64, n float64) float64 {
	if n == 0 {
		return 0
	}
	s := 1.0
	for _, c := range counts {
		p := c / n
		s -= p * p
	}
	return s
}

// predict returns the leaf value reached by row.
func (t *tree) predict(row []float64) []float64 {
	i := 0
	for t.nodes[i].feature != leaf {
		if row[t.nodes[i].feature] <= t.nodes[i].threshold {
			i = t.nodes[i].left
		} else {
			i = t.nodes[i].right
		}
	}
	return t.nodes[i].value
}
