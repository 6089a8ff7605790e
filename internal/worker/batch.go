package worker

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/ppiankov/verity/internal/model"
)

// Detector detects a single batch item
type Detector interface {
	Detect(ctx context.Context, item Item) (model.DetectionResult, error)
}

// DetectorFunc adapts a function to the Detector interface
type DetectorFunc func(ctx context.Context, item Item) (model.DetectionResult, error)

// Detect calls f
func (f DetectorFunc) Detect(ctx context.Context, item Item) (model.DetectionResult, error) {
	return f(ctx, item)
}

// Item is one piece of content in a batch
type Item struct {
	Content        string            `json:"content"`
	ContentType    model.ContentType `json:"content_type"`
	SourceURL      string            `json:"source_url,omitempty"`
	SourcePlatform string            `json:"source_platform,omitempty"`
}

// DetectJob detects one item
type DetectJob struct {
	Index    int
	Item     Item
	Detector Detector
}

// Execute executes the detection job
func (j *DetectJob) Execute(ctx context.Context) Result {
	result, err := j.Detector.Detect(ctx, j.Item)
	return &ItemResult{
		Index:  j.Index,
		Item:   j.Item,
		Result: result,
		Error:  err,
	}
}

// ItemResult represents the outcome of one batch item
type ItemResult struct {
	Index  int
	Item   Item
	Result model.DetectionResult
	Error  error
}

// GetError returns the error from the item result
func (r *ItemResult) GetError() error {
	return r.Error
}

// BatchProcessor detects multiple items concurrently
type BatchProcessor struct {
	detector    Detector
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(detector Detector, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		detector:    detector,
		concurrency: concurrency,
	}
}

// Process detects every item and returns one result per item, in input order.
// A failing item gets a substitute UNCERTAIN result carrying the error.
func (b *BatchProcessor) Process(ctx context.Context, items []Item) []*ItemResult {
	jobs := make([]Job, len(items))
	for i, item := range items {
		jobs[i] = &DetectJob{Index: i, Item: item, Detector: b.detector}
	}

	results := NewPool(b.concurrency).Run(ctx, jobs)

	out := make([]*ItemResult, len(results))
	for i, res := range results {
		ir, ok := res.(*ItemResult)
		if !ok {
			ir = &ItemResult{Index: i, Item: items[i], Error: res.GetError()}
		}
		if ir.Error != nil {
			ir.Result = substitute(ir.Error)
		}
		out[i] = ir
	}

	return out
}

// ReadItemsFromFile reads one item per line. A line starting with "{" is a
// JSON Item; any other line is plain text. Blank lines, # comments and
// repeated lines are skipped.
func ReadItemsFromFile(filePath string) ([]Item, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var items []Item
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 32<<20)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") || seen[line] {
			continue
		}
		seen[line] = true

		item := Item{Content: line, ContentType: model.ContentText}
		if strings.HasPrefix(line, "{") {
			item = Item{}
			if err := json.Unmarshal([]byte(line), &item); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			if item.ContentType == "" {
				item.ContentType = model.ContentText
			}
		}
		items = append(items, item)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return items, nil
}

// substitute builds the best-effort result reported for a failed item
func substitute(err error) model.DetectionResult {
	reason := err.Error()
	var pe *PanicError
	if errors.As(err, &pe) {
		reason = fmt.Sprintf("detection failed: %v", pe.Value)
	}
	return model.UncertainResult("", 0, reason)
}

// Summarize aggregates item results; failed items count toward Total and Failed only
func Summarize(results []*ItemResult) model.BatchSummary {
	s := model.BatchSummary{Total: len(results)}
	for _, r := range results {
		switch {
		case r.Error != nil:
			s.Failed++
		case r.Result.AIProbability >= 0.5:
			s.AICount++
		default:
			s.HumanCount++
		}
	}
	s.AIPercentage = Percentage(s.AICount, s.Total)
	return s
}

// Percentage returns n/total as a percentage rounded to one decimal
func Percentage(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(n)/float64(total)*1000) / 10
}
