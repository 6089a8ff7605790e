package detect

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
)

// Generator names written into the Software tag by image generation tools
var aiSoftware = []string{
	"dall-e", "dalle", "midjourney", "mj", "stable diffusion", "sd",
	"comfyui", "automatic1111", "invoke", "leonardo", "nightcafe",
	"artbreeder", "runway", "firefly", "adobe firefly", "imagen",
	"stability", "novelai", "nai", "craiyon", "dreamstudio",
}

// Camera and phone manufacturers found in the Make tag
var cameraMakers = []string{
	"apple", "samsung", "google", "huawei", "xiaomi", "oppo", "vivo",
	"canon", "nikon", "sony", "fujifilm", "panasonic", "olympus",
	"leica", "hasselblad", "pentax", "gopro", "dji",
}

// shortTokenLen is the length at or below which a name must match as a whole word
const shortTokenLen = 3

const (
	metadataSeed  = 0.5
	metadataFloor = 0.10
	gpsPenalty    = 0.15
	timePenalty   = 0.05
)

// ImageMetadata is the subset of EXIF the metadata signal reads
type ImageMetadata struct {
	Make         string `json:"make,omitempty"`
	Model        string `json:"model,omitempty"`
	Software     string `json:"software,omitempty"`
	HasGPS       bool   `json:"has_gps"`
	HasTimestamp bool   `json:"has_timestamp"`
}

// MetadataAnalysis is the metadata signal with the flags that produced it
type MetadataAnalysis struct {
	Score          float64
	AITool         string // Matched generator name, empty when none
	Camera         string // Matched manufacturer, empty when none
	HasGPS         bool
	HasTimestamp   bool
	SoftwareString string
	MakeString     string
}

// AIDetected reports whether a generator name was found
func (m MetadataAnalysis) AIDetected() bool { return m.AITool != "" }

// CameraDetected reports whether a manufacturer was found
func (m MetadataAnalysis) CameraDetected() bool { return m.Camera != "" }

// ReadMetadata extracts EXIF fields from encoded image bytes.
// Images without EXIF yield the zero value.
func ReadMetadata(data []byte) ImageMetadata {
	var md ImageMetadata

	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil || x == nil {
		return md
	}

	md.Make = tagString(x, exif.Make)
	md.Model = tagString(x, exif.Model)
	md.Software = tagString(x, exif.Software)

	if _, err := x.Get(exif.GPSInfoIFDPointer); err == nil {
		md.HasGPS = true
	}
	if _, err := x.Get(exif.DateTimeOriginal); err == nil {
		md.HasTimestamp = true
	}
	return md
}

func tagString(x *exif.Exif, name exif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil {
		return ""
	}
	s, err := tag.StringVal()
	if err != nil {
		return strings.Trim(tag.String(), `"`)
	}
	return strings.TrimSpace(strings.TrimRight(s, "\x00"))
}

// nameMatcher matches a fixed list of names inside free-form tag values
type nameMatcher struct {
	names []string
	short map[string]*regexp.Regexp
}

func newNameMatcher(names []string) *nameMatcher {
	m := &nameMatcher{names: names, short: make(map[string]*regexp.Regexp)}
	for _, n := range names {
		if len(n) <= shortTokenLen {
			m.short[n] = regexp.MustCompile(`\b` + regexp.QuoteMeta(n) + `\b`)
		}
	}
	return m
}

// match returns the first listed name found in value
func (m *nameMatcher) match(value string) string {
	v := strings.ToLower(value)
	if v == "" {
		return ""
	}
	for _, n := range m.names {
		if re, ok := m.short[n]; ok {
			if re.MatchString(v) {
				return n
			}
			continue
		}
		if strings.Contains(v, n) {
			return n
		}
	}
	return ""
}

var (
	aiSoftwareMatcher = newNameMatcher(aiSoftware)
	cameraMatcher     = newNameMatcher(cameraMakers)
)

// AnalyzeMetadata computes the metadata signal
func AnalyzeMetadata(md ImageMetadata) MetadataAnalysis {
	a := MetadataAnalysis{
		Score:          metadataSeed,
		HasGPS:         md.HasGPS,
		HasTimestamp:   md.HasTimestamp,
		SoftwareString: md.Software,
		MakeString:     md.Make,
	}

	a.AITool = aiSoftwareMatcher.match(md.Software)
	a.Camera = cameraMatcher.match(md.Make)

	if a.AIDetected() {
		return a
	}

	if md.HasGPS {
		a.Score = max(a.Score-gpsPenalty, metadataFloor)
	}
	if md.HasTimestamp {
		a.Score = max(a.Score-timePenalty, metadataFloor)
	}
	return a
}
