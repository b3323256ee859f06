package geometry

import (
	"math"
	"sort"

	"github.com/df07/go-pbr-pathtracer/pkg/core"
)

// BVHNode is one entry of the flattened hierarchy. Leaves have Count > 0 and
// reference order[Start:Start+Count]; internal nodes reference two children.
type BVHNode struct {
	Bounds      core.AABB
	Left, Right int
	Axis        int // split axis, used to visit the nearer child first
	Start       int
	Count       int
}

// IsLeaf reports whether the node stores primitives directly
func (n *BVHNode) IsLeaf() bool {
	return n.Count > 0
}

// BVH is a Bounding Volume Hierarchy over a primitive list. It is valid only
// for the primitive list it was built from and is never updated in place.
type BVH struct {
	Nodes []BVHNode
	order []int
	prims []Primitive
}

const (
	// Leaf threshold: ranges this small are never split
	maxLeafSize = 4
	// Number of centroid buckets evaluated by the surface area heuristic
	sahBins = 12
)

// NewBVH builds a hierarchy over prims using a binned surface area heuristic.
// The slice is retained (not copied) and each primitive's NodeIndex is set
// to the leaf that holds it.
func NewBVH(prims []Primitive) *BVH {
	bvh := &BVH{prims: prims}
	if len(prims) == 0 {
		return bvh
	}

	b := &bvhBuilder{
		bvh:       bvh,
		boxes:     make([]core.AABB, len(prims)),
		centroids: make([]core.Vec3, len(prims)),
	}
	bvh.order = make([]int, len(prims))
	for i := range prims {
		bvh.order[i] = i
		b.boxes[i] = prims[i].BoundingBox()
		b.centroids[i] = b.boxes[i].Center()
	}
	bvh.Nodes = make([]BVHNode, 0, 2*len(prims)/maxLeafSize+1)

	b.build(0, len(prims))

	for nodeIndex := range bvh.Nodes {
		node := &bvh.Nodes[nodeIndex]
		if !node.IsLeaf() {
			continue
		}
		for _, primIndex := range bvh.order[node.Start : node.Start+node.Count] {
			prims[primIndex].NodeIndex = nodeIndex
		}
	}

	return bvh
}

type bvhBuilder struct {
	bvh       *BVH
	boxes     []core.AABB
	centroids []core.Vec3
}

type sahBin struct {
	bounds core.AABB
	count  int
}

// build creates the node covering order[start:end] and returns its index
func (b *bvhBuilder) build(start, end int) int {
	order := b.bvh.order
	bounds := core.EmptyAABB()
	centroidBounds := core.EmptyAABB()
	for _, primIndex := range order[start:end] {
		bounds = bounds.Union(b.boxes[primIndex])
		centroidBounds = centroidBounds.Union(core.NewAABB(b.centroids[primIndex], b.centroids[primIndex]))
	}

	nodeIndex := len(b.bvh.Nodes)
	b.bvh.Nodes = append(b.bvh.Nodes, BVHNode{Bounds: bounds, Left: -1, Right: -1})

	count := end - start
	if count <= maxLeafSize {
		b.bvh.Nodes[nodeIndex].Start = start
		b.bvh.Nodes[nodeIndex].Count = count
		return nodeIndex
	}

	axis := centroidBounds.LongestAxis()
	mid := b.partitionSAH(start, end, axis, centroidBounds)
	if mid == start || mid == end {
		// Coincident centroids: fall back to a median split
		b.sortByAxis(start, end, axis)
		mid = start + count/2
	}

	left := b.build(start, mid)
	right := b.build(mid, end)

	node := &b.bvh.Nodes[nodeIndex]
	node.Left = left
	node.Right = right
	node.Axis = axis
	return nodeIndex
}

// partitionSAH buckets centroids along axis, picks the cheapest bucket
// boundary and partitions order[start:end] around it. Returns the split index.
func (b *bvhBuilder) partitionSAH(start, end, axis int, centroidBounds core.AABB) int {
	lo := centroidBounds.Min.Axis(axis)
	extent := centroidBounds.Max.Axis(axis) - lo
	if extent <= 0 {
		return start
	}

	binOf := func(primIndex int) int {
		bin := int(sahBins * (b.centroids[primIndex].Axis(axis) - lo) / extent)
		return min(max(bin, 0), sahBins-1)
	}

	var bins [sahBins]sahBin
	for i := range bins {
		bins[i].bounds = core.EmptyAABB()
	}
	for _, primIndex := range b.bvh.order[start:end] {
		bin := &bins[binOf(primIndex)]
		bin.count++
		bin.bounds = bin.bounds.Union(b.boxes[primIndex])
	}

	// Sweep from the right to get the cost of every right-hand side
	var rightArea [sahBins]float64
	var rightCount [sahBins]int
	acc := core.EmptyAABB()
	n := 0
	for i := sahBins - 1; i > 0; i-- {
		acc = acc.Union(bins[i].bounds)
		n += bins[i].count
		rightArea[i] = acc.SurfaceArea()
		rightCount[i] = n
	}

	// Expected cost up to the constant traversal term and the parent's area
	bestSplit := -1
	bestCost := math.Inf(1)
	acc = core.EmptyAABB()
	n = 0
	for i := 0; i < sahBins-1; i++ {
		acc = acc.Union(bins[i].bounds)
		n += bins[i].count
		if n == 0 || rightCount[i+1] == 0 {
			continue
		}
		cost := float64(n)*acc.SurfaceArea() + float64(rightCount[i+1])*rightArea[i+1]
		if cost < bestCost {
			bestCost = cost
			bestSplit = i
		}
	}
	if bestSplit < 0 {
		return start
	}

	// In-place partition: bins <= bestSplit go left
	order := b.bvh.order
	mid := start
	for i := start; i < end; i++ {
		if binOf(order[i]) <= bestSplit {
			order[i], order[mid] = order[mid], order[i]
			mid++
		}
	}
	return mid
}

func (b *bvhBuilder) sortByAxis(start, end, axis int) {
	order := b.bvh.order[start:end]
	sort.SliceStable(order, func(i, j int) bool {
		return b.centroids[order[i]].Axis(axis) < b.centroids[order[j]].Axis(axis)
	})
}

// NearestHit returns the intersection with the smallest non-negative t.
// An empty or unbuilt hierarchy reports no hit.
func (bvh *BVH) NearestHit(ray core.Ray) (Hit, bool) {
	if bvh == nil || len(bvh.Nodes) == 0 {
		return Hit{}, false
	}

	closest := math.Inf(1)
	best := -1
	var bestBary core.Vec2

	var buf [64]int
	stack := append(buf[:0], 0)
	for len(stack) > 0 {
		nodeIndex := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node := &bvh.Nodes[nodeIndex]
		if !node.Bounds.Hit(ray, 0, closest) {
			continue
		}

		if node.IsLeaf() {
			for _, primIndex := range bvh.order[node.Start : node.Start+node.Count] {
				t, bary, ok := bvh.prims[primIndex].Intersect(ray, 0, closest)
				// Strict comparison keeps the first primitive found on ties
				if ok && (best < 0 || t < closest) {
					closest = t
					best = primIndex
					bestBary = bary
				}
			}
			continue
		}

		stack = bvh.pushChildren(stack, node, ray)
	}

	if best < 0 {
		return Hit{}, false
	}
	return bvh.prims[best].surfaceAt(ray, closest, bestBary), true
}

// AnyHit reports whether anything intersects the ray with t in (0, maxDistance].
// It stops at the first intersection found.
func (bvh *BVH) AnyHit(ray core.Ray, maxDistance float64) bool {
	if bvh == nil || len(bvh.Nodes) == 0 || !(maxDistance > 0) {
		return false
	}

	var buf [64]int
	stack := append(buf[:0], 0)
	for len(stack) > 0 {
		nodeIndex := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node := &bvh.Nodes[nodeIndex]
		if !node.Bounds.Hit(ray, 0, maxDistance) {
			continue
		}

		if node.IsLeaf() {
			for _, primIndex := range bvh.order[node.Start : node.Start+node.Count] {
				if _, _, ok := bvh.prims[primIndex].Intersect(ray, math.SmallestNonzeroFloat64, maxDistance); ok {
					return true
				}
			}
			continue
		}

		stack = bvh.pushChildren(stack, node, ray)
	}

	return false
}

// pushChildren pushes the far child first so the near child is popped next
func (bvh *BVH) pushChildren(stack []int, node *BVHNode, ray core.Ray) []int {
	if ray.Direction.Axis(node.Axis) < 0 {
		return append(stack, node.Left, node.Right)
	}
	return append(stack, node.Right, node.Left)
}

// BoundingBox returns the bounds of the whole hierarchy
func (bvh *BVH) BoundingBox() core.AABB {
	if bvh == nil || len(bvh.Nodes) == 0 {
		return core.AABB{}
	}
	return bvh.Nodes[0].Bounds
}

// BVHStats summarizes the shape of a hierarchy
type BVHStats struct {
	TotalNodes      int
	LeafNodes       int
	MaxDepth        int
	AvgDepth        float64
	TotalPrimitives int
	MaxLeafSize     int
}

// Stats walks the hierarchy and returns node, leaf and depth counts
func (bvh *BVH) Stats() BVHStats {
	if bvh == nil || len(bvh.Nodes) == 0 {
		return BVHStats{}
	}

	stats := BVHStats{}
	bvh.collectStats(0, 0, &stats)

	// Calculate average depth after collecting all data
	if stats.LeafNodes > 0 {
		stats.AvgDepth = stats.AvgDepth / float64(stats.LeafNodes)
	}

	return stats
}

func (bvh *BVH) collectStats(nodeIndex, depth int, stats *BVHStats) {
	stats.TotalNodes++
	stats.MaxDepth = max(stats.MaxDepth, depth)

	node := &bvh.Nodes[nodeIndex]
	if node.IsLeaf() {
		stats.LeafNodes++
		stats.TotalPrimitives += node.Count
		stats.MaxLeafSize = max(stats.MaxLeafSize, node.Count)
		stats.AvgDepth += float64(depth)
		return
	}

	bvh.collectStats(node.Left, depth+1, stats)
	bvh.collectStats(node.Right, depth+1, stats)
}
