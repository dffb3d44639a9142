package cluster

import (
	"math"
	"math/rand"
)

// KMeans partitions points into K groups minimizing within-cluster squared distance
type KMeans struct {
	K             int
	Seed          int64
	Restarts      int
	MaxIterations int
	Tolerance     float64
}

// NewKMeans returns a k-means model with fixed-seed defaults
func NewKMeans(k int) *KMeans {
	return &KMeans{
		K:             k,
		Seed:          42,
		Restarts:      10,
		MaxIterations: 300,
		Tolerance:     1e-4,
	}
}

// Fit assigns every point to a cluster and returns the labels together with
// the inertia of the best restart
func (m *KMeans) Fit(points [][]float64) ([]int, float64) {
	if len(points) == 0 {
		return []int{}, 0
	}
	k := m.K
	if k < 1 {
		k = 1
	}
	if k > len(points) {
		k = len(points)
	}

	rng := rand.New(rand.NewSource(m.Seed))
	restarts := max(m.Restarts, 1)

	var bestLabels []int
	bestInertia := math.Inf(1)
	for r := 0; r < restarts; r++ {
		labels, inertia := m.run(points, k, rng)
		if inertia < bestInertia {
			bestLabels, bestInertia = labels, inertia
		}
	}

	return relabel(bestLabels), bestInertia
}

func (m *KMeans) run(points [][]float64, k int, rng *rand.Rand) ([]int, float64) {
	centers := seedCenters(points, k, rng)
	labels := make([]int, len(points))
	dim := len(points[0])

	for iter := 0; iter < max(m.MaxIterations, 1); iter++ {
		for i, p := range points {
			labels[i] = nearest(p, centers)
		}

		next := make([][]float64, k)
		sizes := make([]int, k)
		for c := range next {
			next[c] = make([]float64, dim)
		}
		for i, p := range points {
			c := labels[i]
			sizes[c]++
			for j, x := range p {
				next[c][j] += x
			}
		}
		for c := range next {
			if sizes[c] == 0 {
				// Empty cluster: move its center onto the worst-served point
				far := farthest(points, labels, centers)
				copy(next[c], points[far])
				labels[far] = c
				continue
			}
			for j := range next[c] {
				next[c][j] /= float64(sizes[c])
			}
		}

		var shift float64
		for c := range centers {
			shift += sqDist(centers[c], next[c])
		}
		centers = next
		if shift <= m.Tolerance {
			break
		}
	}

	var inertia float64
	for i, p := range points {
		labels[i] = nearest(p, centers)
		inertia += sqDist(p, centers[labels[i]])
	}
	return labels, inertia
}

// seedCenters picks initial centers with k-means++ sampling
func seedCenters(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	centers := make([][]float64, 0, k)
	centers = append(centers, clone(points[rng.Intn(len(points))]))

	dists := make([]float64, len(points))
	for len(centers) < k {
		var total float64
		for i, p := range points {
			d := sqDist(p, centers[0])
			for _, c := range centers[1:] {
				d = math.Min(d, sqDist(p, c))
			}
			dists[i] = d
			total += d
		}

		if total == 0 {
			centers = append(centers, clone(points[rng.Intn(len(points))]))
			continue
		}

		target := rng.Float64() * total
		pick := len(points) - 1
		for i, d := range dists {
			target -= d
			if target <= 0 {
				pick = i
				break
			}
		}
		centers = append(centers, clone(points[pick]))
	}
	return centers
}

func nearest(p []float64, centers [][]float64) int {
	best := 0
	bestDist := math.Inf(1)
	for c, center := range centers {
		if d := sqDist(p, center); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func farthest(points [][]float64, labels []int, centers [][]float64) int {
	idx := 0
	worst := -1.0
	for i, p := range points {
		if d := sqDist(p, centers[labels[i]]); d > worst {
			idx, worst = i, d
		}
	}
	return idx
}

func sqDist(a, b []float64) float64 {
	var s float64
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return s
}

func clone(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}

// relabel renumbers clusters in order of first appearance
func relabel(labels []int) []int {
	mapping := make(map[int]int)
	out := make([]int, len(labels))
	for i, l := range labels {
		id, ok := mapping[l]
		if !ok {
			id = len(mapping)
			mapping[l] = id
		}
		out[i] = id
	}
	return out
}
