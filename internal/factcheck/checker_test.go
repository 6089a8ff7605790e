package factcheck

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/verity/internal/extract"
	"github.com/ppiankov/verity/internal/llm"
	"github.com/ppiankov/verity/internal/model"
)

// MockVerifier is a mock verifier for testing
type MockVerifier struct {
	name   string
	verify func(ctx context.Context, claim string) (*llm.VerifyResponse, error)
	calls  atomic.Int32
}

func (m *MockVerifier) Name() string {
	return m.name
}

func (m *MockVerifier) Verify(ctx context.Context, claim string) (*llm.VerifyResponse, error) {
	m.calls.Add(1)
	return m.verify(ctx, claim)
}

func (m *MockVerifier) IsAvailable(ctx context.Context) bool {
	return true
}

func TestCheckClaim_RulesOnly(t *testing.T) {
	checker := NewChecker(nil, nil)

	verdict := checker.CheckClaim(context.Background(), "Vaccines cause autism in children.")
	if verdict.Label != model.VerdictFalse {
		t.Errorf("Expected FALSE, got %s", verdict.Label)
	}
	if verdict.Confidence != 0.95 {
		t.Errorf("Expected confidence 0.95, got %v", verdict.Confidence)
	}
	if verdict.Origin != "rules" {
		t.Errorf("Expected origin rules, got %s", verdict.Origin)
	}
	if checker.VerifierName() != "rules" {
		t.Errorf("Expected rules-only checker, got %s", checker.VerifierName())
	}
}

func TestCheckClaim_External(t *testing.T) {
	mock := &MockVerifier{
		name: "mock",
		verify: func(ctx context.Context, claim string) (*llm.VerifyResponse, error) {
			return &llm.VerifyResponse{
				Verdict:     model.VerdictTrue,
				Confidence:  0.812345,
				Explanation: "Matches published data.",
				Sources:     []string{"government data"},
			}, nil
		},
	}
	checker := NewChecker(mock, nil)

	verdict := checker.CheckClaim(context.Background(), "  Vaccines cause autism.  ")
	if verdict.Label != model.VerdictTrue {
		t.Errorf("Expected external verdict TRUE to win over rules, got %s", verdict.Label)
	}
	if verdict.Origin != "external:mock" {
		t.Errorf("Expected origin external:mock, got %s", verdict.Origin)
	}
	if verdict.Confidence != 0.8123 {
		t.Errorf("Expected rounded confidence 0.8123, got %v", verdict.Confidence)
	}
	if verdict.Claim != "Vaccines cause autism." {
		t.Errorf("Expected trimmed claim, got %q", verdict.Claim)
	}
}

func TestCheckClaim_ExternalFailureFallsBack(t *testing.T) {
	mock := &MockVerifier{
		name: "mock",
		verify: func(ctx context.Context, claim string) (*llm.VerifyResponse, error) {
			return nil, fmt.Errorf("%w: no VERDICT line", llm.ErrUnparseable)
		},
	}
	checker := NewChecker(mock, nil)

	verdict := checker.CheckClaim(context.Background(), "Unemployment fell 40% last year.")
	if verdict.Label != model.VerdictNeedsContext {
		t.Errorf("Expected NEEDS_CONTEXT from rules, got %s", verdict.Label)
	}
	if verdict.Origin != "rules" {
		t.Errorf("Expected origin rules, got %s", verdict.Origin)
	}
	if got := mock.calls.Load(); got != 1 {
		t.Errorf("Expected unparseable answers not to be retried, got %d calls", got)
	}
}

func TestCheckClaim_TransientErrorNotRetried(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"rate limited", errors.New("anthropic API error: API error (429): slow down")},
		{"server error", errors.New("openai API error: API error (503): overloaded")},
		{"connection refused", errors.New("execute request: dial tcp: connection refused")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &MockVerifier{
				name: "mock",
				verify: func(ctx context.Context, claim string) (*llm.VerifyResponse, error) {
					return nil, tt.err
				},
			}
			checker := NewChecker(mock, nil)

			verdict := checker.CheckClaim(context.Background(), "The bridge opened in 1932.")
			if verdict.Origin != "rules" {
				t.Errorf("Expected rules fallback, got origin %s", verdict.Origin)
			}
			if got := mock.calls.Load(); got != 1 {
				t.Errorf("Expected exactly 1 verifier call, got %d", got)
			}
		})
	}
}

func TestCheckText_CapsClaims(t *testing.T) {
	sentences := []string{
		"Sales grew 12% in 2019.",
		"According to the ministry, exports doubled.",
		"Researchers found a 30% drop in 2021.",
		"The project cost $4 million to complete.",
		"A study shows that 2 billion people lack access.",
		"Experts say the fact is confirmed by 2022 data.",
		"Prices rose 8% according to the report in 2023.",
		"Over 5 thousand residents moved in 2018.",
	}
	checker := NewChecker(nil, extract.NewClaimExtractor(5))

	report := checker.CheckText(context.Background(), strings.Join(sentences, " "))
	if report.TotalClaims != 5 {
		t.Fatalf("Expected 5 claims, got %d", report.TotalClaims)
	}
	if len(report.Verdicts) != 5 {
		t.Errorf("Expected 5 verdicts, got %d", len(report.Verdicts))
	}
}

func TestCheckText_NoClaims(t *testing.T) {
	checker := NewChecker(nil, nil)

	report := checker.CheckText(context.Background(), "hello there, nice weather we are having")
	if report.TotalClaims != 0 {
		t.Errorf("Expected 0 claims, got %d", report.TotalClaims)
	}
	if report.Summary != "No factual claims detected." {
		t.Errorf("Unexpected summary: %q", report.Summary)
	}
	if report.Verdicts == nil {
		t.Error("Expected empty verdict list, got nil")
	}
}

func TestCheckClaims_PreservesOrder(t *testing.T) {
	var mu sync.Mutex
	inFlight, peak := 0, 0
	mock := &MockVerifier{
		name: "mock",
		verify: func(ctx context.Context, claim string) (*llm.VerifyResponse, error) {
			mu.Lock()
			inFlight++
			peak = max(peak, inFlight)
			mu.Unlock()

			// Later claims finish first
			n := len(claim)
			time.Sleep(time.Duration(20-n) * time.Millisecond)

			mu.Lock()
			inFlight--
			mu.Unlock()
			return &llm.VerifyResponse{Verdict: model.VerdictTrue, Explanation: claim}, nil
		},
	}
	checker := NewChecker(mock, nil, WithWorkers(3))

	claims := []string{"a", "bb", "ccc", "dddd", "eeeee", "ffffff", "ggggggg"}
	report := checker.CheckClaims(context.Background(), claims)

	for i, v := range report.Verdicts {
		if v.Claim != claims[i] {
			t.Errorf("Verdict %d: expected claim %q, got %q", i, claims[i], v.Claim)
		}
	}
	if peak > 3 {
		t.Errorf("Expected at most 3 concurrent verifications, got %d", peak)
	}
}
