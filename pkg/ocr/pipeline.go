package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/jordigilh/imagewave/pkg/collab"
	"github.com/jordigilh/imagewave/pkg/imgio"
	"github.com/jordigilh/imagewave/pkg/numeric"
)

// Result carries every phase's output, whether or not later phases ran,
// so the wave can emit partial signals if something downstream fails.
type Result struct {
	FramesSelected int

	StabilizationConfidence float64
	StabilizationSuccess    bool

	PrimaryText       string
	PrimaryConfidence float64
	EarlyExit         bool

	ConsensusText  string
	AgreementScore float64

	FinalText    string
	Tier2Applied bool
	Tier3Applied bool
	OriginalText string

	Concordance   float64
	VerifiedText  string
	VerifiedFrom  string
	VerifiedRan   bool
}

// Pipeline wires the external collaborators and tunables the OCR phases
// need. VisionLLM may be nil, in which case T3 correction and
// verification are both skipped.
type Pipeline struct {
	Engine    collab.OCREngine
	VisionLLM collab.VisionLLMClient
	Model     string
	Config    Config
}

func NewPipeline(engine collab.OCREngine, visionLLM collab.VisionLLMClient, model string, cfg Config) *Pipeline {
	return &Pipeline{Engine: engine, VisionLLM: visionLLM, Model: model, Config: cfg}
}

// Run executes the state machine from spec §4.5:
// ExtractFrames -> [Dedup] -> [Stabilize] -> [TemporalMedian] -> PrimaryOCR
// -> {EarlyExit | Voting -> [PostCorrection] -> [Verification]} -> Done.
func (p *Pipeline) Run(ctx context.Context, frames []imgio.Frame, textChangedIndices []int) (Result, error) {
	phase := PhaseConfigFor(p.Config.Mode)
	var result Result

	selected := SelectFrames(frames, textChangedIndices, p.Config.DedupThreshold)
	images := toImages(selected)
	result.FramesSelected = len(images)
	if len(images) == 0 {
		return result, nil
	}

	if phase.Stabilization {
		stab := Stabilize(images, p.Config.StabilizationConfidenceThreshold)
		images = stab.Frames
		result.StabilizationConfidence = stab.Confidence
		result.StabilizationSuccess = stab.Success
	}

	var composite image.Image
	if phase.TemporalMedian {
		composite = TemporalMedian(images)
	} else {
		composite = images[0]
	}
	compositeBytes, err := encodeImage(composite)
	if err != nil {
		return result, err
	}

	primaryText, primaryConfidence, err := p.runPrimaryOCR(ctx, composite)
	if err != nil {
		return result, err
	}
	result.PrimaryText = primaryText
	result.PrimaryConfidence = primaryConfidence
	result.FinalText = primaryText
	result.OriginalText = primaryText

	if primaryConfidence >= phase.EarlyExitThreshold {
		result.EarlyExit = true
		return result, nil
	}

	if !phase.TemporalVoting {
		return result, nil
	}
	voting, err := RunVoting(ctx, p.Engine, images, phase.MaxVotingFrames)
	if err != nil {
		return result, err
	}
	result.ConsensusText = voting.ConsensusText
	result.AgreementScore = voting.AgreementScore
	result.FinalText = voting.ConsensusText
	result.OriginalText = voting.ConsensusText

	if phase.PostCorrection {
		correction := Correct(ctx, voting.ConsensusText, p.Config.SpellCheckQualityThreshold, p.Model, p.VisionLLM, compositeBytes)
		result.FinalText = correction.Text
		result.Tier2Applied = correction.Tier2Applied
		result.Tier3Applied = correction.Tier3Applied
	}

	if p.VisionLLM != nil {
		llmText, err := p.VisionLLM.Generate(ctx, collab.GenerateRequest{
			Model:  p.Model,
			Prompt: "Read only the text visible in this image, verbatim, with no commentary.",
			Images: [][]byte{compositeBytes},
		})
		if err == nil && llmText != "" {
			verification := Verify(result.FinalText, llmText, result.PrimaryConfidence)
			result.Concordance = verification.Concordance
			result.VerifiedText = verification.VerifiedText
			result.VerifiedFrom = verification.TrustedSource
			result.VerifiedRan = true
		}
	}

	return result, nil
}

func (p *Pipeline) runPrimaryOCR(ctx context.Context, composite image.Image) (string, float64, error) {
	path, err := imgio.WriteTempImage("", composite)
	if err != nil {
		return "", 0, err
	}
	defer os.Remove(path)

	regions, err := p.Engine.ExtractTextWithCoordinates(ctx, path)
	if err != nil {
		return "", 0, err
	}
	if len(regions) == 0 {
		return "", 0, nil
	}

	var text string
	confidences := make([]float64, 0, len(regions))
	for i, r := range regions {
		if i > 0 {
			text += " "
		}
		text += r.Text
		confidences = append(confidences, r.Confidence)
	}
	return text, numeric.Mean(confidences), nil
}

// encodeImage PNG-encodes composite once so both the T3 correction call
// and the verification call can hand the vision LLM the same image bytes
// WriteTempImage would otherwise give only to the OCR engine.
func encodeImage(img image.Image) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := png.Encode(buf, img); err != nil {
		return nil, fmt.Errorf("ocr: encode composite frame: %w", err)
	}
	return buf.Bytes(), nil
}

func toImages(frames []imgio.Frame) []image.Image {
	out := make([]image.Image, len(frames))
	for i, f := range frames {
		out[i] = f.Image
	}
	return out
}
