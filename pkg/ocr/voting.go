package ocr

import (
	"context"
	"image"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/jordigilh/imagewave/pkg/collab"
	"github.com/jordigilh/imagewave/pkg/imgio"
)

// VotingResult is the temporal-voting phase output (spec §4.5 phase 6).
type VotingResult struct {
	ConsensusText  string
	AgreementScore float64
	FrameCount     int
}

// RunVoting OCRs min(maxFrames, len(frames)) evenly-spaced frames in
// parallel (bounded by CPU count), clusters the resulting regions across
// frames by IoU, and votes a consensus text per cluster.
func RunVoting(ctx context.Context, engine collab.OCREngine, frames []image.Image, maxFrames int) (VotingResult, error) {
	selected := evenlySpaced(frames, maxFrames)
	if len(selected) == 0 {
		return VotingResult{}, nil
	}

	perFrame := make([][]collab.TextRegion, len(selected))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for i, frame := range selected {
		i, frame := i, frame
		g.Go(func() error {
			path, err := imgio.WriteTempImage("", frame)
			if err != nil {
				return err
			}
			regions, err := engine.ExtractTextWithCoordinates(gctx, path)
			if err != nil {
				return err
			}
			perFrame[i] = regions
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return VotingResult{}, err
	}

	pool := make([]collab.TextRegion, 0)
	for _, regions := range perFrame {
		pool = append(pool, regions...)
	}
	clusters := clusterRegions(pool, 0.5)

	sort.Slice(clusters, func(i, j int) bool {
		bi, bj := clusters[i][0].BBox, clusters[j][0].BBox
		if bi.Y1 != bj.Y1 {
			return bi.Y1 < bj.Y1
		}
		return bi.X1 < bj.X1
	})

	var texts []string
	majority := 0
	for _, cluster := range clusters {
		text, isMajority := voteCluster(cluster)
		texts = append(texts, text)
		if isMajority {
			majority++
		}
	}

	agreement := 0.0
	if len(clusters) > 0 {
		agreement = float64(majority) / float64(len(clusters))
	}

	consensus := ""
	for i, t := range texts {
		if i > 0 {
			consensus += " "
		}
		consensus += t
	}

	return VotingResult{ConsensusText: consensus, AgreementScore: agreement, FrameCount: len(selected)}, nil
}

func evenlySpaced(frames []image.Image, max int) []image.Image {
	n := len(frames)
	if n == 0 {
		return nil
	}
	if n <= max {
		return frames
	}
	out := make([]image.Image, 0, max)
	step := float64(n-1) / float64(max-1)
	for i := 0; i < max; i++ {
		out = append(out, frames[int(float64(i)*step+0.5)])
	}
	return out
}

// clusterRegions greedily groups regions whose bbox IoU against a
// cluster's first member is at least threshold.
func clusterRegions(regions []collab.TextRegion, threshold float64) [][]collab.TextRegion {
	var clusters [][]collab.TextRegion
	for _, r := range regions {
		placed := false
		for i, cluster := range clusters {
			if iou(cluster[0].BBox, r.BBox) >= threshold {
				clusters[i] = append(clusters[i], r)
				placed = true
				break
			}
		}
		if !placed {
			clusters = append(clusters, []collab.TextRegion{r})
		}
	}
	return clusters
}

func iou(a, b collab.BBox) float64 {
	x1 := maxInt(a.X1, b.X1)
	y1 := maxInt(a.Y1, b.Y1)
	x2 := minInt(a.X2, b.X2)
	y2 := minInt(a.Y2, b.Y2)
	if x2 <= x1 || y2 <= y1 {
		return 0
	}
	intersection := (x2 - x1) * (y2 - y1)
	areaA := (a.X2 - a.X1) * (a.Y2 - a.Y1)
	areaB := (b.X2 - b.X1) * (b.Y2 - b.Y1)
	union := areaA + areaB - intersection
	if union <= 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// voteCluster performs confidence-weighted per-character-position voting
// across every text in cluster, tie-broken by the lexicographically
// smallest rune. isMajority reports whether the winning character carried
// more than half the cluster's total confidence weight at more than half
// of the positions.
func voteCluster(cluster []collab.TextRegion) (string, bool) {
	maxLen := 0
	totalWeight := 0.0
	for _, r := range cluster {
		if len([]rune(r.Text)) > maxLen {
			maxLen = len([]rune(r.Text))
		}
		totalWeight += r.Confidence
	}
	if maxLen == 0 || totalWeight == 0 {
		if len(cluster) > 0 {
			return cluster[0].Text, true
		}
		return "", false
	}

	result := make([]rune, maxLen)
	majorityPositions := 0

	for pos := 0; pos < maxLen; pos++ {
		votes := map[rune]float64{}
		for _, r := range cluster {
			rs := []rune(r.Text)
			if pos < len(rs) {
				votes[rs[pos]] += r.Confidence
			}
		}
		best, bestWeight := rune(0), -1.0
		for _, r := range sortedRuneKeys(votes) {
			if w := votes[r]; w > bestWeight {
				best, bestWeight = r, w
			}
		}
		result[pos] = best
		if bestWeight > totalWeight/2 {
			majorityPositions++
		}
	}

	return string(result), majorityPositions > maxLen/2
}

func sortedRuneKeys(m map[rune]float64) []rune {
	keys := make([]rune, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
