package quantize

import (
	"math"
	"math/rand"
)

// KMeans runs Lloyd's algorithm over weighted color vectors. Centroids are
// initialised by drawing k data points from the seeded RNG, which makes the
// whole quantization deterministic for a fixed seed and input.
type KMeans struct {
	K         int
	Centroids []*Vector

	points           []*Vector
	assignments      []int
	pointsPerCluster [][]*Vector
	iteration        int
	deltaDistance    float64
}

// NewKMeans creates a clustering instance with randomly initialised
// centroids drawn from points.
func NewKMeans(points []*Vector, k int, rng *rand.Rand) *KMeans {
	km := &KMeans{
		K:      k,
		points: points,
		// Start above any threshold so the caller's convergence loop runs.
		deltaDistance: math.MaxFloat64,
	}
	km.assignments = make([]int, len(points))
	for i := range km.assignments {
		km.assignments[i] = -1
	}
	km.Centroids = make([]*Vector, k)
	km.pointsPerCluster = make([][]*Vector, k)
	for i := 0; i < k; i++ {
		km.Centroids[i] = points[rng.Intn(len(points))]
	}
	return km
}

// Step performs one assignment + update iteration and records how far the
// centroids moved in total.
func (km *KMeans) Step() {
	for i := range km.pointsPerCluster {
		km.pointsPerCluster[i] = km.pointsPerCluster[i][:0]
	}

	for i, p := range km.points {
		minDist := math.MaxFloat64
		nearest := 0
		for j, c := range km.Centroids {
			if d := p.DistanceTo(c); d < minDist {
				minDist = d
				nearest = j
			}
		}
		km.assignments[i] = nearest
		km.pointsPerCluster[nearest] = append(km.pointsPerCluster[nearest], p)
	}

	var moved float64
	for j, cluster := range km.pointsPerCluster {
		if len(cluster) == 0 {
			// Empty clusters keep their initial centroid.
			continue
		}
		next := Average(cluster)
		moved += km.Centroids[j].DistanceTo(next)
		km.Centroids[j] = next
	}

	km.deltaDistance = moved
	km.iteration++
}

// DeltaDistance returns the total centroid movement of the last Step.
func (km *KMeans) DeltaDistance() float64 { return km.deltaDistance }

// Iterations returns the number of Steps run so far.
func (km *KMeans) Iterations() int { return km.iteration }

// HasConverged reports whether the last step moved the centroids by no more
// than minDelta in total.
func (km *KMeans) HasConverged(minDelta float64) bool {
	return km.deltaDistance <= minDelta
}

// Assignment returns the cluster index point i was assigned to in the last
// Step.
func (km *KMeans) Assignment(i int) int { return km.assignments[i] }
