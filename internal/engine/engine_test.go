package engine

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/ppiankov/verity/internal/classifier"
	"github.com/ppiankov/verity/internal/fingerprint"
	"github.com/ppiankov/verity/internal/model"
	"github.com/ppiankov/verity/internal/worker"
)

const aiText = `Certainly! Let's delve into this comprehensive topic. It is important to note that
we must leverage robust frameworks to facilitate growth. Furthermore, organizations utilize
these tools daily. Moreover, additionally the results are comprehensive. In conclusion, this
approach is robust and comprehensive for every team that wants to grow.`

const humanText = `ok so i was gonna write this yesterday but honestly i kinda forgot lol.
the bus was late AGAIN and i think the driver just didn't care... anyway we got there eventually!!
my sister says i'm overreacting but you know how it is, um, whatever. gotta run now`

// keywordClassifier scores text containing "delve" as AI
func keywordClassifier() classifier.Classifier {
	return classifier.Func(func(ctx context.Context, text string) classifier.Outcome {
		p := 0.05
		if strings.Contains(text, "delve") {
			p = 0.95
		}
		return classifier.Outcome{Probability: p, Available: true, Source: "test:keyword"}
	})
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(model.DefaultConfig(), WithClassifier(keywordClassifier()), WithVerifier(nil))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return e
}

func pngPayload(t *testing.T) ([]byte, string) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.NRGBA{R: 200, G: 120, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes(), "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Detection.ExternalWeight = 0.9

	if _, err := New(cfg); err == nil {
		t.Fatal("Expected error for weights that do not sum to 1, got nil")
	}
}

func TestNew_NoCredentialUsesRules(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Verifier.Provider = "anthropic"
	cfg.Verifier.APIKey = ""

	e, err := New(cfg, WithClassifier(keywordClassifier()))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if e.VerifierName() != "rules" {
		t.Errorf("Expected rules verifier, got %s", e.VerifierName())
	}
}

func TestNew_UnknownProvider(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Verifier.Provider = "gemini"

	if _, err := New(cfg, WithClassifier(keywordClassifier())); err == nil {
		t.Fatal("Expected error for unknown verifier provider, got nil")
	}
}

func TestNew_ClassifierDisabled(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Classifier.Enabled = false

	e, err := New(cfg, WithVerifier(nil))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	result := e.DetectText(context.Background(), aiText, "")
	if _, ok := result.Score(model.SignalExternal); ok {
		t.Error("Expected no external score with the classifier disabled")
	}
}

func TestDetectText(t *testing.T) {
	e := newTestEngine(t)

	result := e.DetectText(context.Background(), aiText, "")
	if !result.Classification.IsAI() {
		t.Errorf("Expected an AI classification, got %s (p=%v)", result.Classification, result.AIProbability)
	}
	if result.Fingerprint != fingerprint.OfString(aiText) {
		t.Error("Expected fingerprint of the submitted text")
	}
}

func TestDetect_Dispatch(t *testing.T) {
	e := newTestEngine(t)
	raw, payload := pngPayload(t)
	ctx := context.Background()

	r, err := e.Detect(ctx, worker.Item{Content: payload, ContentType: model.ContentImage})
	if err != nil {
		t.Fatalf("Detect image failed: %v", err)
	}
	if r.Fingerprint != fingerprint.Of(raw) {
		t.Error("Expected image fingerprint over decoded bytes")
	}
	if r.Classification == model.ClassMixed {
		t.Error("Image path must never emit MIXED")
	}

	tweet, err := e.Detect(ctx, worker.Item{Content: aiText, ContentType: model.ContentTweet})
	if err != nil {
		t.Fatalf("Detect tweet failed: %v", err)
	}
	plain := e.DetectText(ctx, aiText, "twitter")
	if tweet.AIProbability != plain.AIProbability {
		t.Errorf("Expected tweets to default to platform twitter, got %v vs %v", tweet.AIProbability, plain.AIProbability)
	}

	_, err = e.Detect(ctx, worker.Item{Content: "x", ContentType: "video"})
	if !errors.Is(err, ErrUnsupportedContent) {
		t.Errorf("Expected ErrUnsupportedContent, got %v", err)
	}
}

func TestDetectImagePayload_Invalid(t *testing.T) {
	e := newTestEngine(t)

	r := e.DetectImagePayload(context.Background(), "data:image/png;base64,@@@")
	if r.Classification != model.ClassUncertain || r.Confidence != 0 {
		t.Errorf("Expected UNCERTAIN with confidence 0, got %s/%v", r.Classification, r.Confidence)
	}
	if !strings.HasPrefix(r.Reason, "failed to decode") {
		t.Errorf("Expected decode reason, got %q", r.Reason)
	}
}

func TestDetectBatch(t *testing.T) {
	e := newTestEngine(t)

	items := []worker.Item{
		{Content: aiText, ContentType: model.ContentText},
		{Content: humanText, ContentType: model.ContentText},
		{Content: "x", ContentType: "video"},
		{Content: aiText, ContentType: model.ContentText},
	}

	batch := e.DetectBatch(context.Background(), items)

	if len(batch.Items) != len(items) {
		t.Fatalf("Expected %d results, got %d", len(items), len(batch.Items))
	}
	for i, r := range batch.Items {
		if r.Index != i {
			t.Errorf("Expected result %d at index %d", r.Index, i)
		}
	}
	if batch.Items[2].Error == nil {
		t.Error("Expected unsupported item to carry an error")
	}
	if batch.Items[2].Result.Classification != model.ClassUncertain {
		t.Errorf("Expected substitute UNCERTAIN, got %s", batch.Items[2].Result.Classification)
	}

	s := batch.Summary
	if s.Total != 4 || s.AICount != 2 || s.HumanCount != 1 || s.Failed != 1 {
		t.Errorf("Unexpected summary: %+v", s)
	}
	if s.AIPercentage != 50 {
		t.Errorf("Expected ai_percentage 50, got %v", s.AIPercentage)
	}
}

func TestDetectTweets(t *testing.T) {
	e := newTestEngine(t)

	tweets := []Tweet{
		{ID: "1", Text: humanText, Username: "alice"},
		{ID: "2", Text: "hey", Username: "bob"},
		{ID: "3", Text: humanText, Username: "user1234567"},
		{ID: "4", Text: humanText, Username: "carol", DefaultProfile: true},
		{ID: "5", Text: aiText, Username: "dave"},
	}

	out := e.DetectTweets(context.Background(), tweets)

	if len(out.Results) != 4 {
		t.Fatalf("Expected short tweet to be skipped, got %d results", len(out.Results))
	}

	wantIDs := []string{"1", "3", "4", "5"}
	wantBot := []bool{false, true, true, true}
	for i, r := range out.Results {
		if r.Tweet.ID != wantIDs[i] {
			t.Errorf("Result %d: expected tweet %s, got %s", i, wantIDs[i], r.Tweet.ID)
		}
		if r.IsBot != wantBot[i] {
			t.Errorf("Tweet %s: expected bot=%v, got %v (p=%v)", r.Tweet.ID, wantBot[i], r.IsBot, r.Result.AIProbability)
		}
	}
	if out.Results[1].Label() != "BOT" {
		t.Errorf("Expected BOT label, got %s", out.Results[1].Label())
	}
	if out.Results[0].Label() == "BOT" {
		t.Error("Expected a classification label for a human tweet")
	}

	s := out.Summary
	if s.Total != 4 || s.BotCount != 3 || s.AICount != 1 {
		t.Errorf("Unexpected summary: %+v", s)
	}
	if s.BotPercentage != 75 || s.AIPercentage != 25 {
		t.Errorf("Unexpected percentages: %+v", s)
	}
}

func TestExtractAndVerifyClaims(t *testing.T) {
	e := newTestEngine(t)

	html := `<html><body><script>var x = "vaccines cause autism 99%";</script>
<p>A new study shows that vaccines cause autism in 2024</p>
<p>Nice weather today</p></body></html>`

	report := e.ExtractAndVerifyClaims(context.Background(), html)
	if report.TotalClaims != 1 {
		t.Fatalf("Expected 1 claim from visible text, got %d: %+v", report.TotalClaims, report.Verdicts)
	}
	if report.Verdicts[0].Label != model.VerdictFalse {
		t.Errorf("Expected FALSE, got %s", report.Verdicts[0].Label)
	}
	if report.FalseCount != 1 || report.Summary != "Found 1 false claim(s). Be cautious!" {
		t.Errorf("Unexpected report: %+v", report)
	}
}

func TestVerifySingleClaim(t *testing.T) {
	e := newTestEngine(t)

	v := e.VerifySingleClaim(context.Background(), "vaccines cause autism")
	if v.Label != model.VerdictFalse || v.Confidence != 0.95 {
		t.Errorf("Expected FALSE 0.95, got %s %v", v.Label, v.Confidence)
	}
}

func TestVerifyClaims(t *testing.T) {
	e := newTestEngine(t)

	report := e.VerifyClaims(context.Background(), []string{"the earth orbits the sun", "inflation hit 9%"})
	if report.TotalClaims != 2 {
		t.Fatalf("Expected 2 verdicts, got %d", report.TotalClaims)
	}
	if report.Verdicts[1].Label != model.VerdictNeedsContext {
		t.Errorf("Expected NEEDS_CONTEXT, got %s", report.Verdicts[1].Label)
	}
}
