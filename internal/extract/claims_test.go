package extract

import (
	"fmt"
	"strings"
	"testing"
)

func TestClaimExtractor_BasicExtraction(t *testing.T) {
	extractor := NewClaimExtractor(5)

	text := "Unemployment fell to 3% in 2023. The weather was nice today. According to the report, sales rose."

	claims := extractor.Extract(text)

	if len(claims) != 2 {
		t.Fatalf("Expected 2 claims, got %d: %+v", len(claims), claims)
	}

	// percentage + year outranks attribution alone
	if claims[0].Text != "Unemployment fell to 3% in 2023" {
		t.Errorf("Expected percentage claim first, got %q", claims[0].Text)
	}
	if claims[0].Confidence != 0.6 {
		t.Errorf("Expected confidence 0.6, got %v", claims[0].Confidence)
	}
	if claims[1].Confidence != 0.3 {
		t.Errorf("Expected confidence 0.3, got %v", claims[1].Confidence)
	}
}

func TestClaimExtractor_Spans(t *testing.T) {
	extractor := NewClaimExtractor(5)

	text := "  Hello there.   Scientists found that 40% of bees vanished!  Bye."
	claims := extractor.Extract(text)

	if len(claims) != 1 {
		t.Fatalf("Expected 1 claim, got %d", len(claims))
	}
	c := claims[0]
	if got := text[c.Start:c.End]; got != c.Text {
		t.Errorf("Span %d:%d gives %q, want %q", c.Start, c.End, got, c.Text)
	}
	if c.Text != "Scientists found that 40% of bees vanished" {
		t.Errorf("Unexpected claim text %q", c.Text)
	}
}

func TestClaimExtractor_CapAndOrder(t *testing.T) {
	extractor := NewClaimExtractor(5)

	var sentences []string
	for i := 0; i < 8; i++ {
		s := fmt.Sprintf("Item %d grew by %d%%", i, 10+i)
		// Every other sentence carries a second indicator
		if i%2 == 1 {
			s += fmt.Sprintf(" in %d", 2000+i)
		}
		sentences = append(sentences, s)
	}
	text := strings.Join(sentences, ". ") + "."

	claims := extractor.Extract(text)

	if len(claims) != 5 {
		t.Fatalf("Expected cap of 5 claims, got %d", len(claims))
	}
	for i := 1; i < len(claims); i++ {
		if claims[i].Confidence > claims[i-1].Confidence {
			t.Errorf("Claims not ordered by confidence at %d: %v > %v", i, claims[i].Confidence, claims[i-1].Confidence)
		}
	}
	for i := 0; i < 4; i++ {
		if !strings.Contains(claims[i].Text, " in 200") {
			t.Errorf("Expected two-indicator claim at position %d, got %q", i, claims[i].Text)
		}
	}
	// Equal confidence keeps source order
	if !strings.HasPrefix(claims[0].Text, "Item 1 ") || !strings.HasPrefix(claims[4].Text, "Item 0 ") {
		t.Errorf("Expected stable order, got %q first and %q last", claims[0].Text, claims[4].Text)
	}
}

func TestClaimExtractor_ConfidenceClamped(t *testing.T) {
	extractor := NewClaimExtractor(5)

	text := "According to a study shows 45% of $1,000 budgets in 2020 are proven, experts say 3 million agree"
	claims := extractor.Extract(text)

	if len(claims) != 1 {
		t.Fatalf("Expected 1 claim, got %d", len(claims))
	}
	if claims[0].Confidence != 1 {
		t.Errorf("Expected confidence clamped to 1, got %v", claims[0].Confidence)
	}
}

func TestClaimExtractor_Deduplication(t *testing.T) {
	extractor := NewClaimExtractor(5)

	text := "The system was first introduced in 1990. The system was first introduced in 1990. THE SYSTEM WAS FIRST INTRODUCED IN 1990."
	claims := extractor.Extract(text)

	if len(claims) != 1 {
		t.Errorf("Expected 1 unique claim after deduplication, got %d", len(claims))
	}
}

func TestClaimExtractor_NoClaimKeywords(t *testing.T) {
	extractor := NewClaimExtractor(5)

	claims := extractor.Extract("This is just a regular paragraph. Another one without attribution!")
	if len(claims) != 0 {
		t.Errorf("Expected 0 claims when no indicators present, got %d", len(claims))
	}

	if got := extractor.Extract(""); len(got) != 0 {
		t.Errorf("Expected 0 claims for empty text, got %d", len(got))
	}
}

func TestClaimExtractor_AllIndicators(t *testing.T) {
	extractor := NewClaimExtractor(5)

	cases := map[string]string{
		"percentage":   "Turnout reached 64% this time",
		"currency":     "The bridge cost $4,500,000 to build",
		"year":         "The treaty was signed in 1648",
		"study_shows":  "New research finds a link between sleep and memory",
		"attribution":  "Based on satellite images the lake is shrinking",
		"experts_say":  "Researchers discovered a new species of frog",
		"certainty":    "It is a proven method",
		"large_number": "Over 3 billion people use the app",
	}

	for name, sentence := range cases {
		names := extractor.matchedIndicators(sentence)
		found := false
		for _, n := range names {
			if n == name {
				found = true
			}
		}
		if !found {
			t.Errorf("Expected indicator %s to match %q, got %v", name, sentence, names)
		}
		if len(extractor.Extract(sentence)) != 1 {
			t.Errorf("Expected %q to yield a claim", sentence)
		}
	}
}

func TestClaimExtractor_DefaultCap(t *testing.T) {
	extractor := NewClaimExtractor(0)
	if extractor.maxClaims != DefaultMaxClaims {
		t.Errorf("Expected default cap %d, got %d", DefaultMaxClaims, extractor.maxClaims)
	}
}

func TestClaimExtractor_VisibleText(t *testing.T) {
	extractor := NewClaimExtractor(5)

	html := `
	<html>
	<head>
		<script>var text = "Revenue rose 12% in 1995.";</script>
		<style>/* 50% width */</style>
	</head>
	<body>
		<p>The product was first introduced in 2020</p>
		<p>Nothing to see here</p>
	</body>
	</html>
	`

	text, err := VisibleText(html)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	claims := extractor.Extract(text)
	for _, claim := range claims {
		if strings.Contains(claim.Text, "1995") || strings.Contains(claim.Text, "50%") {
			t.Errorf("Should not extract claims from script or style: %q", claim.Text)
		}
		if text[claim.Start:claim.End] != claim.Text {
			t.Errorf("Expected span into visible text for %q", claim.Text)
		}
	}

	if len(claims) != 1 || !strings.Contains(claims[0].Text, "2020") {
		t.Errorf("Expected body claim, got %+v", claims)
	}
}

func TestVisibleText_SkipInvisibleElements(t *testing.T) {
	html := `
	<html>
	<head>
		<script>var x = "script content";</script>
		<style>body { color: red; }</style>
	</head>
	<body>
		<p>Visible paragraph text.</p>
		<noscript>Noscript content</noscript>
		<iframe src="example.com">Iframe content</iframe>
		<p>Another visible paragraph.</p>
	</body>
	</html>
	`

	text, err := VisibleText(html)
	if err != nil {
		t.Fatalf("Failed to parse HTML: %v", err)
	}

	if !strings.Contains(text, "Visible paragraph") {
		t.Error("Expected to extract visible paragraph text")
	}
	if !strings.Contains(text, "Another visible paragraph") {
		t.Error("Expected to extract second visible paragraph")
	}

	for _, hidden := range []string{"script content", "color: red", "Noscript content", "Iframe content"} {
		if strings.Contains(text, hidden) {
			t.Errorf("Should not extract %q", hidden)
		}
	}
}

func TestSplitSentences(t *testing.T) {
	text := "First one. Second one!! Third?  "

	spans := splitSentences(text)

	want := []string{"First one", "Second one", "Third"}
	if len(spans) != len(want) {
		t.Fatalf("Expected %d sentences, got %d", len(want), len(spans))
	}
	for i, span := range spans {
		if got := text[span[0]:span[1]]; got != want[i] {
			t.Errorf("Sentence %d = %q, want %q", i, got, want[i])
		}
	}
}

func TestLooksLikeHTML(t *testing.T) {
	tests := map[string]bool{
		"<html><body>hi</body></html>": true,
		"  <!DOCTYPE html><p>x</p>":    true,
		"<p>Paragraph</p>":             true,
		"plain text with <b>bold</b>":  false,
		"<3 this post":                 false,
		"":                             false,
	}
	for in, want := range tests {
		if got := LooksLikeHTML(in); got != want {
			t.Errorf("LooksLikeHTML(%q) = %v, want %v", in, got, want)
		}
	}
}
