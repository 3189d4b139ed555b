// Package event holds the event configuration record that drives a memory frame page
package event

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Config is loaded once per page and treated as immutable afterwards.
type Config struct {
	Title       string `json:"title"`
	Subtitle    string `json:"subtitle"`
	EventType   string `json:"eventType"`
	Dedication  string `json:"dedication"`
	FooterQuote string `json:"footerQuote"`

	LoadingTitle    string `json:"loadingTitle,omitempty"`
	LoadingSubtitle string `json:"loadingSubtitle,omitempty"`
	EnterButtonText string `json:"enterButtonText,omitempty"`

	MessageTitle   string `json:"messageTitle,omitempty"`
	MessageBody    string `json:"messageBody,omitempty"`
	MessageSignOff string `json:"messageSignOff,omitempty"`

	HeroImage    string            `json:"heroImage"`
	Gallery      []string          `json:"gallery,omitempty"`
	PhotoCount   Number            `json:"photoCount,omitempty"`
	PhotoBaseURL string            `json:"photoBaseUrl,omitempty"`
	Captions     map[string]string `json:"captions,omitempty"`

	Video       VideoRef `json:"video,omitzero"`
	YoutubeLink string   `json:"youtubeLink,omitempty"`
	Music       string   `json:"music,omitempty"`

	Visuals Visuals `json:"visuals"`
}

// Visuals selects presentation choices. Every field is optional.
type Visuals struct {
	GalleryMode      string `json:"galleryMode,omitempty"`
	FrameStyle       string `json:"frameStyle,omitempty"`
	FontTheme        string `json:"fontTheme,omitempty"`
	HeroFont         string `json:"heroFont,omitempty"`
	HeroSubtitleFont string `json:"heroSubtitleFont,omitempty"`
	GalleryTitleFont string `json:"galleryTitleFont,omitempty"`
	CaptionFont      string `json:"captionFont,omitempty"`
	TransitionEffect string `json:"transitionEffect,omitempty"`
	GallerySpeed     Number `json:"gallerySpeed,omitempty"`
	PhotoDuration    Number `json:"photoDuration,omitempty"`
	InteractionMode  string `json:"interactionMode,omitempty"`
}

// Caption returns the caption for a 1-based photo position, or "" when absent.
func (c *Config) Caption(position int) string {
	if c.Captions == nil {
		return ""
	}
	return strings.TrimSpace(c.Captions[strconv.Itoa(position)])
}

// VideoReference prefers the explicit video field and falls back to the legacy youtubeLink.
func (c *Config) VideoReference() string {
	if ref := c.Video.String(); ref != "" {
		return ref
	}
	return strings.TrimSpace(c.YoutubeLink)
}

// Decode reads a configuration from JSON. Missing fields are left zero; callers
// substitute defaults when building the view.
func Decode(r io.Reader) (*Config, error) {
	var cfg Config
	if err := json.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode event config: %w", err)
	}
	return &cfg, nil
}

// Parse decodes a configuration held in memory.
func Parse(data []byte) (*Config, error) {
	return Decode(bytes.NewReader(data))
}

// LoadFile reads a configuration from a JSON file on disk.
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open event config %s: %w", path, err)
	}
	defer f.Close()

	return Decode(f)
}

// Number accepts either a JSON number or a numeric string. Anything else decodes to zero.
type Number float64

func (n *Number) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*n = 0
		return nil
	}
	*n = Number(f)
	return nil
}

// Int truncates toward zero.
func (n Number) Int() int {
	return int(n)
}

// VideoRef is a URL, a bare platform id, or an object such as
// {"type":"youtube","id":"..."} or {"url":"..."}.
type VideoRef struct {
	URL      string `json:"url,omitempty"`
	ID       string `json:"id,omitempty"`
	Platform string `json:"type,omitempty"`
}

func (v *VideoRef) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*v = VideoRef{}
		return nil
	}

	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*v = VideoRef{URL: strings.TrimSpace(s)}
		return nil
	}

	type plain VideoRef
	var p plain
	if err := json.Unmarshal(trimmed, &p); err != nil {
		// best effort: an unreadable video reference just means no video
		*v = VideoRef{}
		return nil
	}
	*v = VideoRef(p)
	return nil
}

// String flattens the reference into the single form the view layer normalizes.
func (v VideoRef) String() string {
	if v.URL != "" {
		return v.URL
	}
	if v.ID == "" {
		return ""
	}
	switch strings.ToLower(v.Platform) {
	case "vimeo":
		return "https://vimeo.com/" + v.ID
	default:
		return v.ID
	}
}

// IsZero lets encoding/json omit an empty reference.
func (v VideoRef) IsZero() bool {
	return v.URL == "" && v.ID == ""
}
