package anomaly

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sort"
)

// minForestSamples is the smallest batch the outlier detector will fit
// a model on. Smaller batches produce no findings.
const minForestSamples = 10

// ForestConfig tunes the isolation forest.
type ForestConfig struct {
	Trees         int
	SampleSize    int
	Contamination float64
	Seed          int64
}

// DefaultForestConfig returns the default forest settings.
func DefaultForestConfig() ForestConfig {
	return ForestConfig{
		Trees:         100,
		SampleSize:    256,
		Contamination: 0.1,
		Seed:          42,
	}
}

// isolationForest is an ensemble of random partition trees. Isolated
// points reach shallow leaves, so shorter average path length means a
// more anomalous point.
type isolationForest struct {
	trees       []*forestNode
	sampleSize  int
	avgPathNorm float64
}

type forestNode struct {
	splitAttr int
	splitVal  float64
	left      *forestNode
	right     *forestNode
	size      int
}

func (n *forestNode) leaf() bool { return n.left == nil }

// fitForest builds the ensemble over the given feature vectors using a
// seeded RNG so repeated runs over the same batch are identical.
func fitForest(vectors [][]float64, cfg ForestConfig) *isolationForest {
	n := len(vectors)
	sampleSize := cfg.SampleSize
	if sampleSize > n {
		sampleSize = n
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	maxDepth := int(math.Ceil(math.Log2(float64(sampleSize))))

	forest := &isolationForest{
		sampleSize:  sampleSize,
		avgPathNorm: avgPathLength(sampleSize),
	}

	for t := 0; t < cfg.Trees; t++ {
		perm := rng.Perm(n)
		sample := make([][]float64, sampleSize)
		for i := 0; i < sampleSize; i++ {
			sample[i] = vectors[perm[i]]
		}
		forest.trees = append(forest.trees, buildTree(sample, 0, maxDepth, rng))
	}

	return forest
}

func buildTree(data [][]float64, depth, maxDepth int, rng *rand.Rand) *forestNode {
	if depth >= maxDepth || len(data) <= 1 {
		return &forestNode{size: len(data)}
	}

	attr, lo, hi, ok := pickSplitAttr(data, rng)
	if !ok {
		return &forestNode{size: len(data)}
	}

	split := lo + rng.Float64()*(hi-lo)

	var left, right [][]float64
	for _, v := range data {
		if v[attr] < split {
			left = append(left, v)
		} else {
			right = append(right, v)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return &forestNode{size: len(data)}
	}

	return &forestNode{
		splitAttr: attr,
		splitVal:  split,
		left:      buildTree(left, depth+1, maxDepth, rng),
		right:     buildTree(right, depth+1, maxDepth, rng),
	}
}

// pickSplitAttr selects a random attribute that still varies within
// this node. Returns false when every attribute is constant.
func pickSplitAttr(data [][]float64, rng *rand.Rand) (attr int, lo, hi float64, ok bool) {
	dims := len(data[0])
	for _, attr := range rng.Perm(dims) {
		lo, hi := data[0][attr], data[0][attr]
		for _, v := range data[1:] {
			if v[attr] < lo {
				lo = v[attr]
			}
			if v[attr] > hi {
				hi = v[attr]
			}
		}
		if hi > lo {
			return attr, lo, hi, true
		}
	}
	return 0, 0, 0, false
}

// score returns the anomaly score for one vector in (0, 1]. Higher
// means more isolated.
func (f *isolationForest) score(v []float64) float64 {
	var total float64
	for _, tree := range f.trees {
		total += pathLength(v, tree, 0)
	}
	avg := total / float64(len(f.trees))
	if f.avgPathNorm == 0 {
		return 0
	}
	return math.Pow(2, -avg/f.avgPathNorm)
}

func pathLength(v []float64, node *forestNode, depth float64) float64 {
	if node.leaf() {
		return depth + avgPathLength(node.size)
	}
	if v[node.splitAttr] < node.splitVal {
		return pathLength(v, node.left, depth+1)
	}
	return pathLength(v, node.right, depth+1)
}

// avgPathLength is the expected path length of an unsuccessful BST
// search in a tree of n points, used to normalize path depths.
func avgPathLength(n int) float64 {
	if n <= 1 {
		return 0
	}
	const eulerMascheroni = 0.5772156649
	h := math.Log(float64(n-1)) + eulerMascheroni
	return 2*h - 2*float64(n-1)/float64(n)
}

// detectOutliers fits an isolation forest over the batch's feature
// matrix and emits findings for the events the model isolates. Fewer
// than minForestSamples eligible events is not an error; it yields no
// findings.
func detectOutliers(matrix *FeatureMatrix, cfg ForestConfig) []Finding {
	if matrix.Len() < minForestSamples {
		slog.Debug("not enough feature vectors for outlier detection",
			"vectors", matrix.Len(),
			"required", minForestSamples)
		return nil
	}

	forest := fitForest(matrix.Vectors, cfg)

	raw := make([]float64, matrix.Len())
	for i, v := range matrix.Vectors {
		raw[i] = forest.score(v)
	}

	normalized := normalizeScores(raw)

	// The top contamination fraction of the batch, by raw score, is
	// classified as outlying.
	flagged := topFraction(raw, cfg.Contamination)

	findings := make([]Finding, 0, len(flagged))
	for _, i := range flagged {
		score := clampScore(normalized[i])
		findings = append(findings, Finding{
			EventID:     matrix.Events[i].EventID,
			Type:        DetectorOutlier,
			Score:       score,
			Severity:    SeverityForScore(score),
			Description: fmt.Sprintf("Anomalous pattern detected with score %.1f/100", score),
		})
	}

	slog.Info("outlier detection complete",
		"vectors", matrix.Len(),
		"findings", len(findings))
	return findings
}

// normalizeScores min-max normalizes raw model scores to [0, 100]. A
// batch where every score is equal normalizes to all zeros.
func normalizeScores(raw []float64) []float64 {
	lo, hi := raw[0], raw[0]
	for _, s := range raw {
		if s < lo {
			lo = s
		}
		if s > hi {
			hi = s
		}
	}

	normalized := make([]float64, len(raw))
	if hi <= lo {
		return normalized
	}
	for i, s := range raw {
		normalized[i] = 100 * (s - lo) / (hi - lo)
	}
	return normalized
}

// topFraction returns the indices of the highest-scoring ceil(fraction
// × n) entries, so any positive fraction flags at least one.
func topFraction(scores []float64, fraction float64) []int {
	if fraction <= 0 || len(scores) == 0 {
		return nil
	}
	k := int(math.Ceil(fraction * float64(len(scores))))
	if k > len(scores) {
		k = len(scores)
	}

	indices := make([]int, len(scores))
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(a, b int) bool {
		return scores[indices[a]] > scores[indices[b]]
	})
	return indices[:k]
}
