package ocr

import (
	"context"
	"image"
	"testing"

	"github.com/jordigilh/imagewave/pkg/collab"
)

type fakeOCREngine struct {
	regionsByCallOrder [][]collab.TextRegion
	call               int
}

func (f *fakeOCREngine) ExtractTextWithCoordinates(context.Context, string) ([]collab.TextRegion, error) {
	out := f.regionsByCallOrder[f.call%len(f.regionsByCallOrder)]
	f.call++
	return out, nil
}

func TestIoUOverlappingBoxes(t *testing.T) {
	a := collab.BBox{X1: 0, Y1: 0, X2: 10, Y2: 10, Width: 10, Height: 10}
	b := collab.BBox{X1: 5, Y1: 5, X2: 15, Y2: 15, Width: 10, Height: 10}
	if got := iou(a, b); got <= 0 || got >= 1 {
		t.Errorf("iou = %v, want a value strictly between 0 and 1", got)
	}
}

func TestIoUDisjointBoxesIsZero(t *testing.T) {
	a := collab.BBox{X1: 0, Y1: 0, X2: 5, Y2: 5}
	b := collab.BBox{X1: 100, Y1: 100, X2: 105, Y2: 105}
	if got := iou(a, b); got != 0 {
		t.Errorf("iou of disjoint boxes = %v, want 0", got)
	}
}

func TestVoteClusterMajorityAgreement(t *testing.T) {
	cluster := []collab.TextRegion{
		{Text: "hello", Confidence: 0.9},
		{Text: "hello", Confidence: 0.8},
		{Text: "hellp", Confidence: 0.3},
	}
	text, majority := voteCluster(cluster)
	if text != "hello" {
		t.Errorf("voteCluster text = %q, want %q", text, "hello")
	}
	if !majority {
		t.Errorf("expected majority=true when two of three confidently agree")
	}
}

func TestRunVotingClustersAcrossFrames(t *testing.T) {
	bbox := collab.BBox{X1: 0, Y1: 0, X2: 20, Y2: 10, Width: 20, Height: 10}
	engine := &fakeOCREngine{regionsByCallOrder: [][]collab.TextRegion{
		{{Text: "cat", Confidence: 0.9, BBox: bbox}},
		{{Text: "cat", Confidence: 0.85, BBox: bbox}},
	}}
	frames := []image.Image{grayFrame(32, 32, 10), grayFrame(32, 32, 20)}

	result, err := RunVoting(context.Background(), engine, frames, 5)
	if err != nil {
		t.Fatalf("RunVoting: %v", err)
	}
	if result.ConsensusText != "cat" {
		t.Errorf("ConsensusText = %q, want %q", result.ConsensusText, "cat")
	}
	if result.AgreementScore != 1 {
		t.Errorf("AgreementScore = %v, want 1", result.AgreementScore)
	}
}
