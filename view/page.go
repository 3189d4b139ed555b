// Package view turns an event configuration into the fully-defaulted page model
package view

import (
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	"github.com/aouyang1/memoryframe/event"
)

const (
	DefaultLoadingTitle    = "Your Story Begins"
	DefaultLoadingSubtitle = "Multimedia Experience"
	DefaultEnterButtonText = "Enter Memory Frame"
	DefaultMessageTitle    = "To My Love"
	DefaultMessageSignOff  = "With Love,"
	DefaultFooterQuote     = "Forever & Always"
	DefaultPhotoBaseURL    = "./assets/photos"
	DefaultGallerySpeed    = 5 * time.Second

	portfolioMessageLimit = 150
)

var portfolioEventTypes = []string{"Portfolio", "Custom Memory", "portfolio", "custom"}

type Layout int

const (
	LayoutClassic Layout = iota
	LayoutPortfolio
)

type Fonts struct {
	Theme        Font
	Hero         Font
	HeroSubtitle Font
	GalleryTitle Font
	Caption      Font
}

// Item is one gallery photo.
type Item struct {
	Index   int
	URL     string
	Caption string
	Tilt    float64
}

// Position is the 1-based position used for captions and alt text.
func (i Item) Position() int {
	return i.Index + 1
}

// Page is the view model every renderer and the timeline builder read from.
type Page struct {
	Title       string
	Subtitle    string
	EventType   string
	Dedication  string
	FooterQuote string

	LoadingTitle    string
	LoadingSubtitle string
	EnterButtonText string

	MessageTitle   string
	MessageBody    string
	MessageSignOff string
	MessageExcerpt string

	HeroImage string
	Layout    Layout
	Fonts     Fonts
	Frame     FrameStyle

	Items        []Item
	GalleryMode  GalleryMode
	GallerySpeed time.Duration
	Transition   Transition
	Interaction  InteractionMode

	Video *Video
	Music *Video

	Petals []Petal
}

// HasGallery reports whether the gallery section should be rendered at all.
func (p *Page) HasGallery() bool {
	return len(p.Items) > 0
}

// PhotoURLs lists the gallery URLs in display order.
func (p *Page) PhotoURLs() []string {
	urls := make([]string, len(p.Items))
	for i, item := range p.Items {
		urls[i] = item.URL
	}
	return urls
}

// AssetURLs is every image the page needs before it is shown: the hero image
// followed by the gallery.
func (p *Page) AssetURLs() []string {
	urls := make([]string, 0, len(p.Items)+1)
	if p.HeroImage != "" {
		urls = append(urls, p.HeroImage)
	}
	return append(urls, p.PhotoURLs()...)
}

// TitleParts splits the title at its first "&" so it can be rendered as a
// separate styled node. ok is false when the title has no ampersand.
func (p *Page) TitleParts() (before, after string, ok bool) {
	return strings.Cut(p.Title, "&")
}

// Build resolves every default and enumeration for cfg. A nil rng is replaced with
// one seeded from the title so the same configuration always renders the same tilts.
func Build(cfg *event.Config, rng *rand.Rand) Page {
	if cfg == nil {
		cfg = &event.Config{}
	}
	if rng == nil {
		rng = seededRand(cfg.Title)
	}

	v := cfg.Visuals
	layout := LayoutClassic
	if slices.Contains(portfolioEventTypes, cfg.EventType) {
		layout = LayoutPortfolio
	}

	heroDefault := FontScript
	if layout == LayoutPortfolio {
		heroDefault = FontSans
	}

	page := Page{
		Title:       cfg.Title,
		Subtitle:    cfg.Subtitle,
		EventType:   cfg.EventType,
		Dedication:  cfg.Dedication,
		FooterQuote: orDefault(cfg.FooterQuote, DefaultFooterQuote),

		LoadingTitle:    orDefault(cfg.LoadingTitle, DefaultLoadingTitle),
		LoadingSubtitle: orDefault(cfg.LoadingSubtitle, DefaultLoadingSubtitle),
		EnterButtonText: orDefault(cfg.EnterButtonText, DefaultEnterButtonText),

		MessageTitle:   orDefault(cfg.MessageTitle, DefaultMessageTitle),
		MessageBody:    cfg.MessageBody,
		MessageSignOff: orDefault(cfg.MessageSignOff, DefaultMessageSignOff),
		MessageExcerpt: excerpt(cfg.MessageBody, portfolioMessageLimit),

		HeroImage: strings.TrimSpace(cfg.HeroImage),
		Layout:    layout,
		Fonts: Fonts{
			Theme:        ParseFont(v.FontTheme, FontSerif),
			Hero:         ParseFont(v.HeroFont, heroDefault),
			HeroSubtitle: ParseFont(v.HeroSubtitleFont, FontSerif),
			GalleryTitle: ParseFont(v.GalleryTitleFont, FontSerif),
			Caption:      ParseFont(v.CaptionFont, FontSerif),
		},
		Frame: ParseFrameStyle(v.FrameStyle),

		GalleryMode:  ParseGalleryMode(v.GalleryMode),
		GallerySpeed: gallerySpeed(v),
		Transition:   ParseTransition(v.TransitionEffect),
		Interaction:  ParseInteractionMode(v.InteractionMode),
	}

	for i, url := range PhotoURLs(cfg) {
		page.Items = append(page.Items, Item{
			Index:   i,
			URL:     url,
			Caption: cfg.Caption(i + 1),
			Tilt:    Tilt(i, rng),
		})
	}

	if ref := cfg.VideoReference(); ref != "" {
		video := NormalizeVideo(ref)
		page.Video = &video
	}
	if ref := strings.TrimSpace(cfg.Music); ref != "" {
		music := NormalizeVideo(ref)
		page.Music = &music
	}

	page.Petals = Petals(PetalCount, rng)
	return page
}

// PhotoURLs uses the explicit gallery list when present, otherwise synthesizes
// photoCount URLs under photoBaseUrl.
func PhotoURLs(cfg *event.Config) []string {
	var urls []string
	for _, u := range cfg.Gallery {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	if len(urls) > 0 {
		return urls
	}

	count := cfg.PhotoCount.Int()
	if count <= 0 {
		return nil
	}
	base := strings.TrimRight(orDefault(cfg.PhotoBaseURL, DefaultPhotoBaseURL), "/")
	urls = make([]string, count)
	for i := range count {
		urls[i] = fmt.Sprintf("%s/%d.jpg", base, i+1)
	}
	return urls
}

// Tilt is the resting rotation in degrees for the photo at index i: alternating
// ±2 with up to one degree of jitter.
func Tilt(i int, rng *rand.Rand) float64 {
	base := 2.0
	if i%2 != 0 {
		base = -2.0
	}
	return base + (rng.Float64()*2 - 1)
}

func gallerySpeed(v event.Visuals) time.Duration {
	secs := float64(v.GallerySpeed)
	if secs <= 0 {
		secs = float64(v.PhotoDuration)
	}
	if secs <= 0 {
		return DefaultGallerySpeed
	}
	return time.Duration(secs * float64(time.Second))
}

func excerpt(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func seededRand(seed string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(seed))
	sum := h.Sum64()
	return rand.New(rand.NewPCG(sum, sum>>1|1))
}
