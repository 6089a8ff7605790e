package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ppiankov/verity/internal/model"
	"github.com/ppiankov/verity/internal/worker"
)

func newTestClient(t *testing.T, baseURL string, models ...string) *HuggingFace {
	t.Helper()
	cfg := model.ClassifierConfig{
		Enabled:  true,
		BaseURL:  baseURL,
		Models:   models,
		Timeout:  2 * time.Second,
		MaxChars: 512,
	}
	c, err := NewHuggingFace(cfg, model.HTTPConfig{}, worker.NewLimiter(0, 0), nil)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	return c
}

func TestHuggingFace_Classify_AILabel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/detector-a" {
			t.Errorf("Expected path /models/detector-a, got %s", r.URL.Path)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Expected JSON content type, got %s", r.Header.Get("Content-Type"))
		}
		_, _ = w.Write([]byte(`[[{"label":"Fake","score":0.93},{"label":"Real","score":0.07}]]`))
	}))
	defer server.Close()

	out := newTestClient(t, server.URL, "detector-a").Classify(context.Background(), "some text")

	if !out.Available {
		t.Fatalf("expected available outcome, got err %v", out.Err)
	}
	if out.Probability != 0.93 {
		t.Errorf("expected probability 0.93, got %v", out.Probability)
	}
	if out.Source != "huggingface:detector-a" {
		t.Errorf("unexpected source %q", out.Source)
	}
}

func TestHuggingFace_Classify_HumanLabelInverted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[[{"label":"LABEL_0","score":0.8},{"label":"LABEL_1","score":0.2}]]`))
	}))
	defer server.Close()

	out := newTestClient(t, server.URL, "m").Classify(context.Background(), "some text")

	if !out.Available {
		t.Fatalf("expected available outcome, got err %v", out.Err)
	}
	if diff := out.Probability - 0.2; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("expected probability 0.2, got %v", out.Probability)
	}
}

func TestHuggingFace_Classify_FallsThroughCandidates(t *testing.T) {
	var mu sync.Mutex
	var calls []string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls = append(calls, r.URL.Path)
		mu.Unlock()

		switch r.URL.Path {
		case "/models/loading":
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":"Model loading is currently loading","estimated_time":20}`))
		case "/models/broken":
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`oops`))
		case "/models/good":
			_, _ = w.Write([]byte(`[[{"label":"AI","score":0.7}]]`))
		default:
			t.Errorf("unexpected call to %s", r.URL.Path)
		}
	}))
	defer server.Close()

	out := newTestClient(t, server.URL, "loading", "broken", "good", "never").Classify(context.Background(), "text")

	if !out.Available || out.Source != "huggingface:good" {
		t.Fatalf("expected good model to win, got %+v", out)
	}

	expected := []string{"/models/loading", "/models/broken", "/models/good"}
	if strings.Join(calls, ",") != strings.Join(expected, ",") {
		t.Errorf("expected calls %v, got %v", expected, calls)
	}
}

func TestHuggingFace_Classify_AllFail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[[{"label":"POSITIVE","score":0.99}]]`))
	}))
	defer server.Close()

	out := newTestClient(t, server.URL, "a", "b").Classify(context.Background(), "text")

	if out.Available {
		t.Fatal("expected unavailable outcome")
	}
	if !errors.Is(out.Err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", out.Err)
	}
}

func TestHuggingFace_Classify_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, "slow")
	c.timeout = 50 * time.Millisecond

	start := time.Now()
	out := c.Classify(context.Background(), "text")

	if out.Available {
		t.Fatal("expected timeout to make the signal unavailable")
	}
	if time.Since(start) > 900*time.Millisecond {
		t.Errorf("expected per-call timeout to bound the call, took %v", time.Since(start))
	}
}

func TestHuggingFace_Classify_TruncatesInput(t *testing.T) {
	var got hfRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`[[{"label":"Generated","score":0.5}]]`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, "m")
	c.maxChars = 10

	c.Classify(context.Background(), strings.Repeat("é", 40))

	if got.Inputs != strings.Repeat("é", 10) {
		t.Errorf("expected 10 runes, got %q", got.Inputs)
	}
}

func TestHuggingFace_Classify_SendsToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer hf_test" {
			t.Errorf("expected bearer token, got %q", r.Header.Get("Authorization"))
		}
		_, _ = w.Write([]byte(`[[{"label":"AI","score":0.5}]]`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, "m")
	c.token = "hf_test"
	c.Classify(context.Background(), "text")
}

func TestNewHuggingFace_Validation(t *testing.T) {
	if _, err := NewHuggingFace(model.ClassifierConfig{Models: []string{"m"}}, model.HTTPConfig{}, nil, nil); err == nil {
		t.Error("expected error for missing base URL")
	}
	if _, err := NewHuggingFace(model.ClassifierConfig{BaseURL: "http://x"}, model.HTTPConfig{}, nil, nil); err == nil {
		t.Error("expected error for missing models")
	}
}

func TestParseProbability(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		want    float64
		wantErr bool
	}{
		{"ai label", `[[{"label":"Generated","score":0.6}]]`, 0.6, false},
		{"human label", `[[{"label":"Original","score":0.75}]]`, 0.25, false},
		{"empty", `[]`, 0, true},
		{"loading body", `{"error":"loading"}`, 0, true},
		{"garbage", `not json`, 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseProbability([]byte(tc.body))
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tc.wantErr)
			}
			if !tc.wantErr && got != tc.want {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDisabled(t *testing.T) {
	if (Disabled{}).Classify(context.Background(), "x").Available {
		t.Error("expected disabled classifier to be unavailable")
	}
}
