package templates

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"
	"github.com/aouyang1/memoryframe/view"
)

func Message(p *view.Page) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTML(ctx, w)
		h.open("section", templ.Attributes{"id": "message-section"})
		h.open("div", templ.Attributes{"id": "message-content"})
		h.element("h3", templ.Attributes{"class": p.Fonts.Theme.Class()}, p.MessageTitle)
		for _, para := range paragraphs(p.MessageBody) {
			h.element("p", templ.Attributes{"class": "message-body"}, para)
		}
		h.element("span", templ.Attributes{"class": "message-signoff"}, p.MessageSignOff)
		h.close("div")
		h.close("section")
		return h.err
	})
}

// paragraphs splits body on blank lines.
func paragraphs(body string) []string {
	var out []string
	for _, para := range strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n\n") {
		if para = strings.TrimSpace(para); para != "" {
			out = append(out, para)
		}
	}
	return out
}

func VideoSection(v *view.Video) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTML(ctx, w)
		h.open("section", templ.Attributes{
			"id":            "video-section",
			"data-platform": string(v.Platform),
			"data-video-id": v.ID,
		})
		h.open("div", templ.Attributes{"class": "video-frame"})
		switch v.Platform {
		case view.PlatformYouTube, view.PlatformVimeo:
			h.open("iframe", templ.Attributes{
				"id":              "video-player",
				"src":             assetURL(v.EmbedURL),
				"title":           "The Memory Movie",
				"allow":           "autoplay; fullscreen; picture-in-picture",
				"allowfullscreen": true,
			})
			h.close("iframe")
		default:
			h.open("video", templ.Attributes{
				"id":          "video-player",
				"src":         assetURL(v.EmbedURL),
				"playsinline": true,
				"preload":     "metadata",
			})
			h.close("video")
		}
		h.open("div", templ.Attributes{"id": "video-cover"})
		h.element("div", templ.Attributes{"class": "video-title"}, "The Memory Movie")
		h.element("button", templ.Attributes{"id": "btn-big-play", "type": "button"}, "Play")
		h.close("div")
		h.close("div")
		h.close("section")
		return h.err
	})
}

// Music is a hidden player for the background soundtrack.
func Music(v *view.Video) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTML(ctx, w)
		switch v.Platform {
		case view.PlatformYouTube, view.PlatformVimeo:
			h.open("iframe", templ.Attributes{"id": "music-player", "src": assetURL(v.EmbedURL), "allow": "autoplay", "hidden": true})
			h.close("iframe")
		default:
			h.open("audio", templ.Attributes{"id": "music-player", "src": assetURL(v.EmbedURL), "loop": true, "preload": "auto"})
			h.close("audio")
		}
		return h.err
	})
}

// Petals is the particle overlay. It stays hidden until the timeline starts it.
func Petals(petals []view.Petal) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTML(ctx, w)
		h.open("div", templ.Attributes{"id": "petals", "aria-hidden": "true", "hidden": true})
		for i, petal := range petals {
			h.open("svg", templ.Attributes{
				"class":   "petal",
				"viewBox": "0 0 30 40",
				"width":   fmt.Sprintf("%.1f", petal.Size),
				"height":  fmt.Sprintf("%.1f", petal.Size*4/3),
				"style": fmt.Sprintf(
					"left:%.2f%%;animation-delay:%.2fs;animation-duration:%.2fs;--rotation:%.1fdeg;--drift:%.1fpx",
					petal.Left, petal.Delay, petal.Duration, petal.Rotation, petal.Drift,
				),
			})
			gradient := fmt.Sprintf("petal-gradient-%d", i)
			h.open("defs", nil)
			h.open("radialGradient", templ.Attributes{"id": gradient})
			h.open("stop", templ.Attributes{"offset": "0%", "stop-color": petal.Highlight()})
			h.close("stop")
			h.open("stop", templ.Attributes{"offset": "100%", "stop-color": petal.Color()})
			h.close("stop")
			h.close("radialGradient")
			h.close("defs")
			h.open("path", templ.Attributes{"d": petal.Path, "fill": "url(#" + gradient + ")"})
			h.close("path")
			h.close("svg")
		}
		h.close("div")
		return h.err
	})
}
