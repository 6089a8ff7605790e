package detect

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"
	"strings"

	// Registered decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/ppiankov/verity/internal/fingerprint"
	"github.com/ppiankov/verity/internal/model"
)

const (
	propertySeed       = 0.5
	aiSizeBonus        = 0.10
	uniformBonus       = 0.15
	naturalPenalty     = 0.10
	uniformStddev      = 30.0
	naturalStddev      = 80.0
	shortCircuitAIProb = 0.98
	shortCircuitAIConf = 0.99
	cameraProb         = 0.10
	cameraConf         = 0.85
)

// ErrEmptyPayload is returned by DecodePayload for blank input
var ErrEmptyPayload = errors.New("empty image payload")

// DecodePayload accepts raw base64 or a data URL and returns the image bytes
func DecodePayload(payload string) ([]byte, error) {
	payload = strings.TrimSpace(payload)
	if i := strings.IndexByte(payload, ','); i >= 0 {
		payload = payload[i+1:]
	}
	if payload == "" {
		return nil, ErrEmptyPayload
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// Some clients strip padding
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return nil, fmt.Errorf("decode base64: %w", err)
		}
	}
	return data, nil
}

// ImageDetector fuses the metadata and property signals for images
type ImageDetector struct {
	cfg     model.ImageConfig
	aiSizes map[[2]int]bool
	logger  *slog.Logger
}

// NewImageDetector creates an image detector
func NewImageDetector(cfg model.ImageConfig, logger *slog.Logger) *ImageDetector {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxPixels <= 0 {
		cfg.MaxPixels = model.DefaultMaxImagePixels
	}
	sizes := make(map[[2]int]bool, len(cfg.AISizes))
	for _, s := range cfg.AISizes {
		sizes[[2]int{s.Width, s.Height}] = true
	}
	return &ImageDetector{cfg: cfg, aiSizes: sizes, logger: logger}
}

// Detect classifies encoded image bytes. It never fails; undecodable input is UNCERTAIN.
func (d *ImageDetector) Detect(ctx context.Context, data []byte) model.DetectionResult {
	fp := fingerprint.Of(data)

	if len(data) == 0 {
		return model.UncertainResult(fp, 0, "failed to decode: empty image")
	}

	// Header only: the declared size decides whether a full decode is safe
	conf, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		d.logger.Debug("image decode failed", "error", err)
		return model.UncertainResult(fp, 0, fmt.Sprintf("failed to decode: %v", err))
	}
	if pixels := int64(conf.Width) * int64(conf.Height); pixels > d.cfg.MaxPixels {
		d.logger.Debug("image rejected", "width", conf.Width, "height", conf.Height, "max_pixels", d.cfg.MaxPixels)
		return model.UncertainResult(fp, 0, "failed to decode: image too large")
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		d.logger.Debug("image decode failed", "error", err)
		return model.UncertainResult(fp, 0, fmt.Sprintf("failed to decode: %v", err))
	}

	result := d.detectWithMetadata(img, ReadMetadata(data))
	result.Fingerprint = fp

	d.logger.Debug("image classified",
		"format", format,
		"classification", result.Classification,
		"ai_probability", result.AIProbability,
	)
	return result
}

// detectWithMetadata classifies a decoded image with already-read metadata
func (d *ImageDetector) detectWithMetadata(img image.Image, md ImageMetadata) model.DetectionResult {
	return d.fuse(AnalyzeMetadata(md), img)
}

func (d *ImageDetector) fuse(md MetadataAnalysis, img image.Image) model.DetectionResult {
	if md.AIDetected() {
		return model.DetectionResult{
			Classification: model.ClassAI,
			AIProbability:  shortCircuitAIProb,
			Confidence:     shortCircuitAIConf,
			Scores:         map[model.SignalName]float64{model.SignalMetadata: shortCircuitAIProb},
			Signals: []model.Signal{
				model.AvailableSignal(model.SignalMetadata, model.OriginMetadata, shortCircuitAIProb),
			},
			Reason: fmt.Sprintf("AI software in metadata: %s", md.SoftwareString),
		}
	}
	if md.CameraDetected() {
		return model.DetectionResult{
			Classification: model.ClassHuman,
			AIProbability:  cameraProb,
			Confidence:     cameraConf,
			Scores:         map[model.SignalName]float64{model.SignalMetadata: cameraProb},
			Signals: []model.Signal{
				model.AvailableSignal(model.SignalMetadata, model.OriginMetadata, cameraProb),
			},
			Reason: fmt.Sprintf("camera detected: %s", md.MakeString),
		}
	}

	property := d.propertyScore(img)
	combined := model.Clamp01(d.cfg.MetadataWeight*md.Score + d.cfg.PropertyWeight*property)

	// Tool and camera matches returned above, so only capture data raises confidence here
	confidence := 0.5
	if md.HasGPS || md.HasTimestamp {
		confidence = 0.7
	}

	return model.DetectionResult{
		Classification: model.ImageBand.Classify(combined),
		AIProbability:  model.Round4(combined),
		Confidence:     confidence,
		Scores: map[model.SignalName]float64{
			model.SignalMetadata: model.Round4(md.Score),
			model.SignalProperty: model.Round4(property),
		},
		Signals: []model.Signal{
			model.AvailableSignal(model.SignalMetadata, model.OriginMetadata, md.Score),
			model.AvailableSignal(model.SignalProperty, model.OriginProperty, property),
		},
	}
}

// propertyScore rates dimensions and color uniformity
func (d *ImageDetector) propertyScore(img image.Image) float64 {
	score := propertySeed

	b := img.Bounds()
	if d.aiSizes[[2]int{b.Dx(), b.Dy()}] {
		score += aiSizeBonus
	}

	avg := MeanChannelStddev(img, d.cfg.MaxSamples)
	switch {
	case avg < uniformStddev:
		score += uniformBonus
	case avg > naturalStddev:
		score -= naturalPenalty
	}
	return model.Clamp01(score)
}

// MeanChannelStddev returns the mean of the R, G and B population standard
// deviations over 8-bit values. Images larger than maxSamples pixels are
// sampled on a regular grid.
func MeanChannelStddev(img image.Image, maxSamples int) float64 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return 0
	}

	step := 1
	if maxSamples > 0 && w*h > maxSamples {
		step = int(math.Ceil(math.Sqrt(float64(w*h) / float64(maxSamples))))
	}

	var n float64
	var sum, sq [3]float64
	for y := b.Min.Y; y < b.Max.Y; y += step {
		for x := b.Min.X; x < b.Max.X; x += step {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			for i, v := range [3]float64{float64(c.R), float64(c.G), float64(c.B)} {
				sum[i] += v
				sq[i] += v * v
			}
			n++
		}
	}

	var total float64
	for i := range sum {
		mean := sum[i] / n
		variance := sq[i]/n - mean*mean
		if variance < 0 {
			variance = 0
		}
		total += math.Sqrt(variance)
	}
	return total / 3
}
