// Package store keeps detection records keyed by content fingerprint.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/verity/internal/cache"
	"github.com/ppiankov/verity/internal/model"
	"github.com/ppiankov/verity/internal/worker"
)

const scanNamespace = "scan"

// ErrNotFound is returned when no record exists for a fingerprint
var ErrNotFound = errors.New("content not found")

// Record is one stored detection
type Record struct {
	VerificationID string                       `json:"verification_id"`
	Fingerprint    string                       `json:"content_hash"`
	ContentType    model.ContentType            `json:"content_type"`
	Classification string                       `json:"classification"` // Classification label, or BOT
	AIProbability  float64                      `json:"ai_probability"`
	Confidence     float64                      `json:"confidence"`
	Scores         map[model.SignalName]float64 `json:"scores,omitempty"`
	SourceURL      string                       `json:"source_url,omitempty"`
	SourcePlatform string                       `json:"source_platform"`
	Preview        string                       `json:"content_preview,omitempty"`
	Username       string                       `json:"username,omitempty"`
	TweetID        string                       `json:"tweet_id,omitempty"`
	CreatedAt      time.Time                    `json:"created_at"`
}

// NewRecord builds a record from a detection result. content is used for the
// preview unless the item is an image.
func NewRecord(result model.DetectionResult, contentType model.ContentType, content, sourceURL, platform string) Record {
	rec := Record{
		Fingerprint:    result.Fingerprint,
		ContentType:    contentType,
		Classification: result.Classification.String(),
		AIProbability:  result.AIProbability,
		Confidence:     result.Confidence,
		Scores:         result.Scores,
		SourceURL:      sourceURL,
		SourcePlatform: platform,
	}
	if contentType != model.ContentImage {
		rec.Preview = preview(content, 200)
	}
	return rec
}

// Store persists records in a cache.Cache
type Store struct {
	cache cache.Cache
	ttl   time.Duration
	now   func() time.Time
}

// New creates a store over c. ttl 0 uses the cache default.
func New(c cache.Cache, ttl time.Duration) *Store {
	return &Store{cache: c, ttl: ttl, now: time.Now}
}

// Open builds the store from configuration: layered memory+disk when a
// directory is configured and caching is enabled, memory only otherwise.
func Open(cfg model.CacheConfig) *Store {
	if cfg.Enabled && cfg.Dir != "" {
		return New(cache.NewLayeredCache(cfg.MemoryTTL, cfg.Dir, cfg.DiskTTL), cfg.DiskTTL)
	}
	return New(cache.NewMemoryCache(cfg.MemoryTTL, 10*time.Minute), 0)
}

// Save assigns a verification id and timestamp, then stores rec under its
// fingerprint. A later scan of the same content replaces the earlier record.
func (s *Store) Save(ctx context.Context, rec Record) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	if rec.Fingerprint == "" {
		return Record{}, errors.New("record has no fingerprint")
	}

	rec.VerificationID = uuid.NewString()
	rec.CreatedAt = s.now().UTC()
	if rec.SourcePlatform == "" {
		rec.SourcePlatform = "web"
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return Record{}, fmt.Errorf("marshal record: %w", err)
	}
	if err := s.cache.Set(cache.Key(scanNamespace, rec.Fingerprint), data, s.ttl); err != nil {
		return Record{}, fmt.Errorf("store record: %w", err)
	}
	return rec, nil
}

// Lookup returns the latest record for a fingerprint
func (s *Store) Lookup(ctx context.Context, fingerprint string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}

	data, ok := s.cache.Get(cache.Key(scanNamespace, fingerprint))
	if !ok {
		return Record{}, ErrNotFound
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("decode record: %w", err)
	}
	return rec, nil
}

// PlatformStats aggregates one source platform
type PlatformStats struct {
	Total        int     `json:"total"`
	AICount      int     `json:"ai_count"`
	AIPercentage float64 `json:"ai_percentage"`
}

// RecentScan is a short view of a stored record
type RecentScan struct {
	ID             string    `json:"id"`
	Classification string    `json:"classification"`
	AIProbability  float64   `json:"ai_probability"`
	Platform       string    `json:"platform"`
	Preview        string    `json:"preview,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Stats aggregates every stored record
type Stats struct {
	TotalScans      int                      `json:"total_scans"`
	AIPercentage    float64                  `json:"ai_percentage"`
	HumanPercentage float64                  `json:"human_percentage"`
	MixedPercentage float64                  `json:"mixed_percentage"`
	BotPercentage   float64                  `json:"bot_percentage"`
	Platforms       map[string]PlatformStats `json:"platforms"`
	RecentScans     []RecentScan             `json:"recent_scans"`
	LastUpdated     time.Time                `json:"last_updated"`
}

// reportedPlatforms always appear in Stats, even with no records
var reportedPlatforms = []string{"twitter", "reddit", "web"}

const recentLimit = 10

type bucket int

const (
	bucketUncertain bucket = iota
	bucketHuman
	bucketMixed
	bucketAI
	bucketBot
)

// bucketOf folds the ordinal labels into the reporting buckets
func bucketOf(label string) bucket {
	if label == "BOT" {
		return bucketBot
	}
	c, err := model.ParseClassification(label)
	if err != nil {
		return bucketUncertain
	}
	switch {
	case c.IsAI():
		return bucketAI
	case c == model.ClassMixed:
		return bucketMixed
	case c.Rank() < model.ClassMixed.Rank():
		return bucketHuman
	default:
		return bucketUncertain
	}
}

// Stats computes aggregate statistics over all stored records
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	if err := ctx.Err(); err != nil {
		return Stats{}, err
	}

	var records []Record
	err := s.cache.Scan(cache.Prefix(scanNamespace), func(_ string, value []byte) bool {
		var rec Record
		if json.Unmarshal(value, &rec) == nil {
			records = append(records, rec)
		}
		return ctx.Err() == nil
	})
	if err != nil {
		return Stats{}, fmt.Errorf("scan records: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return Stats{}, err
	}

	counts := map[bucket]int{}
	platforms := map[string]PlatformStats{}
	for _, p := range reportedPlatforms {
		platforms[p] = PlatformStats{}
	}

	for _, rec := range records {
		b := bucketOf(rec.Classification)
		counts[b]++

		ps := platforms[rec.SourcePlatform]
		ps.Total++
		if b == bucketAI || b == bucketBot {
			ps.AICount++
		}
		platforms[rec.SourcePlatform] = ps
	}
	for name, ps := range platforms {
		ps.AIPercentage = worker.Percentage(ps.AICount, ps.Total)
		platforms[name] = ps
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	recent := make([]RecentScan, 0, min(len(records), recentLimit))
	for _, rec := range records[:min(len(records), recentLimit)] {
		recent = append(recent, RecentScan{
			ID:             rec.VerificationID,
			Classification: rec.Classification,
			AIProbability:  rec.AIProbability,
			Platform:       rec.SourcePlatform,
			Preview:        preview(rec.Preview, 50),
			CreatedAt:      rec.CreatedAt,
		})
	}

	total := len(records)
	return Stats{
		TotalScans:      total,
		AIPercentage:    worker.Percentage(counts[bucketAI], total),
		HumanPercentage: worker.Percentage(counts[bucketHuman], total),
		MixedPercentage: worker.Percentage(counts[bucketMixed], total),
		BotPercentage:   worker.Percentage(counts[bucketBot], total),
		Platforms:       platforms,
		RecentScans:     recent,
		LastUpdated:     s.now().UTC(),
	}, nil
}

// preview truncates s to at most n runes
func preview(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
