package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/verity/internal/model"
	"github.com/ppiankov/verity/internal/worker"
)

const footer = "\n---\n\n_Generated by [Verity](https://github.com/ppiankov/verity). Scores are probabilistic signals, not proof of authorship._\n"

const banner = "═══════════════════════════════════════════════════════════"

// Renderer writes detection and fact-check reports as JSON, Markdown, or a terminal summary
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// WriteJSON encodes v as indented JSON
func (r *Renderer) WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// RenderJSON writes v as indented JSON to path
func (r *Renderer) RenderJSON(v any, path string) error {
	return writeFile(path, func(w io.Writer) error {
		return r.WriteJSON(w, v)
	})
}

// RenderMarkdown writes pre-rendered markdown to path
func (r *Renderer) RenderMarkdown(markdown, path string) error {
	return writeFile(path, func(w io.Writer) error {
		_, err := io.WriteString(w, markdown)
		return err
	})
}

// DetectionMarkdown renders a single detection result
func (r *Renderer) DetectionMarkdown(subject string, res model.DetectionResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Detection Report: %s\n\n", subject)
	fmt.Fprintf(&b, "| Field | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Classification | **%s** |\n", res.Classification)
	fmt.Fprintf(&b, "| AI probability | %.1f%% |\n", res.AIProbability*100)
	fmt.Fprintf(&b, "| Human probability | %.1f%% |\n", res.HumanProbability()*100)
	fmt.Fprintf(&b, "| Confidence | %.2f |\n", res.Confidence)
	fmt.Fprintf(&b, "| Fingerprint | `%s` |\n", res.Fingerprint)
	if res.ExternalSource != "" {
		fmt.Fprintf(&b, "| External source | %s |\n", res.ExternalSource)
	}
	if res.Reason != "" {
		fmt.Fprintf(&b, "| Note | %s |\n", res.Reason)
	}

	if len(res.Signals) > 0 {
		b.WriteString("\n## Signals\n\n| Signal | Origin | Value |\n|---|---|---|\n")
		for _, s := range res.Signals {
			value := "n/a"
			if s.Available {
				value = fmt.Sprintf("%.4f", s.Value)
			}
			fmt.Fprintf(&b, "| %s | %s | %s |\n", s.Name, s.Origin, value)
		}
	}

	r.writeFooter(&b)
	return b.String()
}

// BatchMarkdown renders batch results and their summary
func (r *Renderer) BatchMarkdown(items []worker.ItemResult, summary model.BatchSummary) string {
	var b strings.Builder

	b.WriteString("# Batch Detection Report\n\n")
	fmt.Fprintf(&b, "- Total: %d\n", summary.Total)
	fmt.Fprintf(&b, "- AI: %d (%.1f%%)\n", summary.AICount, summary.AIPercentage)
	fmt.Fprintf(&b, "- Human: %d\n", summary.HumanCount)
	if summary.Failed > 0 {
		fmt.Fprintf(&b, "- Failed: %d\n", summary.Failed)
	}

	b.WriteString("\n| # | Type | Preview | Classification | AI probability |\n|---|---|---|---|---|\n")
	for _, item := range items {
		if item.Error != nil {
			fmt.Fprintf(&b, "| %d | %s | %s | error: %s | |\n", item.Index+1, item.Item.ContentType, tableCell(previewOf(item.Item), 60), tableCell(item.Error.Error(), 80))
			continue
		}
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %.1f%% |\n", item.Index+1, item.Item.ContentType, tableCell(previewOf(item.Item), 60), item.Result.Classification, item.Result.AIProbability*100)
	}

	r.writeFooter(&b)
	return b.String()
}

// FactCheckMarkdown renders a fact-check report
func (r *Renderer) FactCheckMarkdown(subject string, rep model.FactCheckReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Fact Check: %s\n\n", subject)
	fmt.Fprintf(&b, "**%s**\n\n", rep.Summary)
	fmt.Fprintf(&b, "- Claims checked: %d\n", rep.TotalClaims)
	fmt.Fprintf(&b, "- False: %d\n", rep.FalseCount)
	fmt.Fprintf(&b, "- Misleading: %d\n", rep.MisleadingCount)

	for i, v := range rep.Verdicts {
		fmt.Fprintf(&b, "\n## %d. %s\n\n", i+1, v.Label)
		fmt.Fprintf(&b, "> %s\n\n", v.Claim)
		fmt.Fprintf(&b, "- Confidence: %.2f\n", v.Confidence)
		fmt.Fprintf(&b, "- Checked by: %s\n", v.Origin)
		if v.Explanation != "" {
			fmt.Fprintf(&b, "\n%s\n", v.Explanation)
		}
		if len(v.Sources) > 0 {
			fmt.Fprintf(&b, "\nSources: %s\n", strings.Join(v.Sources, ", "))
		}
	}

	r.writeFooter(&b)
	return b.String()
}

// DetectionSummary prints a short human summary of one detection
func (r *Renderer) DetectionSummary(w io.Writer, subject string, res model.DetectionResult) {
	fmt.Fprintf(w, "%s\n", banner)
	fmt.Fprintf(w, "  %s\n", subject)
	fmt.Fprintf(w, "%s\n\n", banner)
	fmt.Fprintf(w, "  Classification:  %s\n", res.Classification)
	fmt.Fprintf(w, "  AI probability:  %.1f%%\n", res.AIProbability*100)
	fmt.Fprintf(w, "  Confidence:      %.2f\n", res.Confidence)
	for _, name := range model.AllSignalNames {
		if v, ok := res.Score(name); ok {
			fmt.Fprintf(w, "  %-16s %.4f\n", string(name)+":", v)
		}
	}
	if res.Reason != "" {
		fmt.Fprintf(w, "  Note:            %s\n", res.Reason)
	}
	fmt.Fprintln(w)
}

// FactCheckSummary prints a short human summary of a fact-check report
func (r *Renderer) FactCheckSummary(w io.Writer, rep model.FactCheckReport) {
	fmt.Fprintf(w, "%s\n", banner)
	fmt.Fprintf(w, "  %s\n", rep.Summary)
	fmt.Fprintf(w, "%s\n\n", banner)
	for _, v := range rep.Verdicts {
		mark := "✓"
		if v.Label == model.VerdictFalse || v.Label == model.VerdictMisleading {
			mark = "✗"
		}
		fmt.Fprintf(w, "  %s %-13s %.2f  %s\n", mark, v.Label, v.Confidence, truncate(v.Claim, 70))
	}
	fmt.Fprintln(w)
}

func (r *Renderer) writeFooter(b *strings.Builder) {
	if r.includeFooter {
		b.WriteString(footer)
	}
}

func writeFile(path string, write func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func previewOf(item worker.Item) string {
	if item.ContentType == model.ContentImage {
		return "[image]"
	}
	return item.Content
}

// truncate shortens s to at most n runes
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}

func tableCell(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.ReplaceAll(truncate(s, n), "|", `\|`)
}
