package detect

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/ppiankov/verity/internal/classifier"
	"github.com/ppiankov/verity/internal/fingerprint"
	"github.com/ppiankov/verity/internal/model"
)

const aiSample = `Certainly! Let's delve into this comprehensive topic. It is important to note that
we must leverage robust frameworks to facilitate growth. Furthermore, organizations utilize
these tools daily. Moreover, additionally the results are comprehensive. In conclusion, this
approach is robust and comprehensive for every team that wants to grow.`

const humanSample = `ok so i was gonna write this yesterday but honestly i kinda forgot lol.
the bus was late AGAIN and i think the driver just didn't care... anyway we got there eventually!!
my sister says i'm overreacting but you know how it is, um, whatever. gotta run now`

func newTestTextDetector(c classifier.Classifier) *TextDetector {
	return NewTextDetector(model.DefaultConfig().Detection, c, nil)
}

func fixedClassifier(p float64) classifier.Classifier {
	return classifier.Func(func(ctx context.Context, text string) classifier.Outcome {
		return classifier.Outcome{Probability: p, Available: true, Source: "test:fixed"}
	})
}

func TestTextDetector_ShortText(t *testing.T) {
	d := newTestTextDetector(fixedClassifier(0.99))

	result := d.Detect(context.Background(), "too short", "")

	if result.Classification != model.ClassUncertain {
		t.Errorf("Expected UNCERTAIN, got %s", result.Classification)
	}
	if result.AIProbability != 0.5 || result.Confidence != 0.2 {
		t.Errorf("Expected 0.5/0.2, got %v/%v", result.AIProbability, result.Confidence)
	}
	if result.Fingerprint != fingerprint.OfString("too short") {
		t.Error("Expected fingerprint to be set for short text")
	}
	if result.Reason == "" {
		t.Error("Expected diagnostic reason")
	}
}

func TestTextDetector_ExternalAvailable(t *testing.T) {
	d := newTestTextDetector(fixedClassifier(0.9))

	result := d.Detect(context.Background(), aiSample, "")

	ext, ok := result.Score(model.SignalExternal)
	if !ok || ext != 0.9 {
		t.Errorf("Expected external score 0.9, got %v (present=%v)", ext, ok)
	}

	pattern, _ := result.Score(model.SignalPattern)
	statistical, _ := result.Score(model.SignalStatistical)
	want := 0.65*0.9 + 0.25*pattern + 0.10*statistical
	if math.Abs(result.AIProbability-want) > 0.001 {
		t.Errorf("Expected fused probability %.4f, got %.4f", want, result.AIProbability)
	}

	words := float64(len(strings.Fields(aiSample)))
	wantConf := 0.85 * (0.5 + 0.5*math.Min(words/100, 1))
	if math.Abs(result.Confidence-wantConf) > 0.0001 {
		t.Errorf("Expected confidence %.4f, got %.4f", wantConf, result.Confidence)
	}
	if result.ExternalSource != "test:fixed" {
		t.Errorf("Expected external source to be recorded, got %q", result.ExternalSource)
	}
}

func TestTextDetector_ExternalUnavailable(t *testing.T) {
	down := classifier.Func(func(ctx context.Context, text string) classifier.Outcome {
		return classifier.Unavailable(errors.New("503 service unavailable"))
	})
	d := newTestTextDetector(down)

	result := d.Detect(context.Background(), aiSample, "")

	if _, ok := result.Score(model.SignalExternal); ok {
		t.Error("Expected no external score when the classifier is down")
	}

	pattern, _ := result.Score(model.SignalPattern)
	statistical, _ := result.Score(model.SignalStatistical)
	want := 0.70*pattern + 0.30*statistical
	if math.Abs(result.AIProbability-want) > 0.001 {
		t.Errorf("Expected fallback probability %.4f, got %.4f", want, result.AIProbability)
	}

	if result.Confidence > 0.6 {
		t.Errorf("Expected fallback confidence <= 0.6, got %v", result.Confidence)
	}

	var sawExternal bool
	for _, s := range result.Signals {
		if s.Name == model.SignalExternal {
			sawExternal = true
			if s.Available {
				t.Error("Expected external signal to be marked unavailable")
			}
		}
	}
	if !sawExternal {
		t.Error("Expected external signal slot to be present")
	}
}

func TestTextDetector_NilClassifier(t *testing.T) {
	d := NewTextDetector(model.DefaultConfig().Detection, nil, nil)

	result := d.Detect(context.Background(), humanSample, "")
	if _, ok := result.Score(model.SignalExternal); ok {
		t.Error("Expected nil classifier to behave as disabled")
	}
}

func TestTextDetector_Bounds(t *testing.T) {
	inputs := []string{aiSample, humanSample, strings.Repeat("word ", 400)}

	for _, p := range []float64{0, 0.5, 1} {
		d := newTestTextDetector(fixedClassifier(p))
		for _, text := range inputs {
			for _, platform := range []string{"", "twitter"} {
				r := d.Detect(context.Background(), text, platform)
				if r.AIProbability < 0 || r.AIProbability > 1 {
					t.Errorf("ai_probability out of range: %v", r.AIProbability)
				}
				if r.Confidence < 0 || r.Confidence > 1 {
					t.Errorf("confidence out of range: %v", r.Confidence)
				}
				for name, v := range r.Scores {
					if v < 0 || v > 1 {
						t.Errorf("%s score out of range: %v", name, v)
					}
				}
			}
		}
	}
}

func TestTextDetector_Idempotent(t *testing.T) {
	d := newTestTextDetector(classifier.Disabled{})

	a := d.Detect(context.Background(), humanSample, "")
	b := d.Detect(context.Background(), humanSample, "")

	if a.Fingerprint != b.Fingerprint {
		t.Errorf("Expected identical fingerprints, got %s and %s", a.Fingerprint, b.Fingerprint)
	}
	if a.AIProbability != b.AIProbability || a.Classification != b.Classification {
		t.Error("Expected identical results for identical input")
	}
}

func TestTextDetector_PlatformAdjustment(t *testing.T) {
	for _, p := range []float64{0.2, 0.6, 0.95, 1.0} {
		d := newTestTextDetector(fixedClassifier(p))

		plain := d.Detect(context.Background(), aiSample, "")
		twitter := d.Detect(context.Background(), aiSample, "twitter")
		upper := d.Detect(context.Background(), aiSample, "X")

		if twitter.AIProbability < plain.AIProbability {
			t.Errorf("p=%v: twitter probability %v below unset %v", p, twitter.AIProbability, plain.AIProbability)
		}
		if twitter.AIProbability > 0.99 {
			t.Errorf("p=%v: twitter probability %v above cap", p, twitter.AIProbability)
		}
		if upper.AIProbability != twitter.AIProbability {
			t.Errorf("p=%v: expected platform match to be case-insensitive", p)
		}
	}

	d := newTestTextDetector(fixedClassifier(0.5))
	other := d.Detect(context.Background(), aiSample, "reddit")
	plain := d.Detect(context.Background(), aiSample, "")
	if other.AIProbability != plain.AIProbability {
		t.Error("Expected non-listed platform to leave probability unchanged")
	}
}

func TestTextDetector_Classification(t *testing.T) {
	high := newTestTextDetector(fixedClassifier(1)).Detect(context.Background(), aiSample, "")
	low := newTestTextDetector(fixedClassifier(0)).Detect(context.Background(), humanSample, "")

	if high.Classification.Rank() <= low.Classification.Rank() {
		t.Errorf("Expected %s to rank above %s", high.Classification, low.Classification)
	}
	if got := model.TextBand.Classify(high.AIProbability); got != high.Classification {
		t.Errorf("Expected classification %s for %v, got %s", got, high.AIProbability, high.Classification)
	}
}

func TestTextDetector_ConcurrentUse(t *testing.T) {
	d := newTestTextDetector(fixedClassifier(0.7))
	want := d.Detect(context.Background(), aiSample, "")

	done := make(chan model.DetectionResult, 16)
	for i := 0; i < 16; i++ {
		go func() { done <- d.Detect(context.Background(), aiSample, "") }()
	}
	for i := 0; i < 16; i++ {
		if got := <-done; got.AIProbability != want.AIProbability {
			t.Errorf("Expected %v from concurrent call, got %v", want.AIProbability, got.AIProbability)
		}
	}
}
