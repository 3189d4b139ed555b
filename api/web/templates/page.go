// Package templates renders the event page as templ components built from a view.Page
package templates

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
	"github.com/aouyang1/memoryframe/view"
)

type DocumentOptions struct {
	ScriptURL string
	// ConfigName is exposed to the driver so it can tell when the event changed.
	ConfigName string
}

// Document is the whole page. Sections without content are left out entirely.
func Document(p *view.Page, opts DocumentOptions) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTML(ctx, w)
		h.raw("<!DOCTYPE html>")
		h.open("html", templ.Attributes{"lang": "en"})

		h.open("head", nil)
		h.raw(`<meta charset="utf-8">`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.element("title", nil, pageTitle(p))
		h.open("style", nil)
		h.rawf(":root{--font-theme:%s;--font-hero:%s;--font-caption:%s}",
			p.Fonts.Theme.Family(), p.Fonts.Hero.Family(), p.Fonts.Caption.Family())
		h.close("style")
		h.close("head")

		h.open("body", templ.Attributes{
			"class":             p.Fonts.Theme.Class(),
			"data-config":       opts.ConfigName,
			"data-interaction":  p.Interaction.String(),
			"data-gallery-mode": p.GalleryMode.String(),
			"data-transition":   p.Transition.String(),
		})
		h.render(LoadingScreen(p))
		h.open("main", templ.Attributes{"id": "experience", "hidden": true})
		h.render(Hero(p))
		if p.HasGallery() {
			h.render(Gallery(p))
		}
		h.render(Message(p))
		if p.Video != nil {
			h.render(VideoSection(p.Video))
		}
		h.render(Footer(p))
		h.close("main")
		h.render(Petals(p.Petals))
		if p.Music != nil {
			h.render(Music(p.Music))
		}
		if opts.ScriptURL != "" {
			h.open("script", templ.Attributes{"src": opts.ScriptURL, "defer": true})
			h.close("script")
		}
		h.close("body")
		h.close("html")
		return h.err
	})
}

func pageTitle(p *view.Page) string {
	if p.Title == "" {
		return p.LoadingTitle
	}
	return p.Title
}

// LoadingScreen holds the progress bar and the enter button that starts the timeline.
func LoadingScreen(p *view.Page) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTML(ctx, w)
		h.open("section", templ.Attributes{"id": "loading-screen"})
		h.element("h1", templ.Attributes{"class": p.Fonts.Hero.Class()}, p.LoadingTitle)
		h.element("p", templ.Attributes{"class": "loading-subtitle"}, p.LoadingSubtitle)
		h.open("div", templ.Attributes{
			"class":         "loading-bar",
			"role":          "progressbar",
			"aria-valuemin": 0,
			"aria-valuemax": 100,
		})
		h.raw(`<div id="loading-progress" style="width:0%"></div>`)
		h.close("div")
		h.element("button", templ.Attributes{"id": "enter-button", "type": "button", "disabled": true}, p.EnterButtonText)
		h.close("section")
		return h.err
	})
}

func Hero(p *view.Page) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTML(ctx, w)
		layout := "hero-classic"
		if p.Layout == view.LayoutPortfolio {
			layout = "hero-portfolio"
		}
		h.open("section", templ.Attributes{"id": "hero-section", "class": layout})

		if p.HeroImage != "" {
			h.open("img", templ.Attributes{
				"class":         "hero-image",
				"src":           assetURL(p.HeroImage),
				"alt":           p.Title,
				"fetchpriority": "high",
			})
		}

		h.open("div", templ.Attributes{"class": "hero-content"})
		if p.EventType != "" {
			h.element("p", templ.Attributes{"class": "hero-event-type"}, p.EventType)
		}
		h.render(heroTitle(p))
		if p.Subtitle != "" {
			h.element("p", templ.Attributes{"class": "hero-subtitle " + p.Fonts.HeroSubtitle.Class()}, p.Subtitle)
		}
		if p.Layout == view.LayoutPortfolio && p.MessageExcerpt != "" {
			h.element("p", templ.Attributes{"class": "hero-excerpt"}, p.MessageExcerpt)
		}
		if p.Dedication != "" {
			h.element("p", templ.Attributes{"class": "hero-dedication"}, p.Dedication)
		}
		h.close("div")
		h.close("section")
		return h.err
	})
}

// heroTitle renders an ampersand in the title as its own node so it can be styled.
func heroTitle(p *view.Page) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTML(ctx, w)
		h.open("h1", templ.Attributes{"class": "hero-title " + p.Fonts.Hero.Class()})
		if before, after, ok := p.TitleParts(); ok {
			h.text(strings.TrimSpace(before))
			h.raw(` <span class="hero-ampersand">&amp;</span> `)
			h.text(strings.TrimSpace(after))
		} else {
			h.text(p.Title)
		}
		h.close("h1")
		return h.err
	})
}

func Footer(p *view.Page) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTML(ctx, w)
		h.open("footer", templ.Attributes{"id": "footer"})
		h.element("p", templ.Attributes{"class": "footer-quote"}, p.FooterQuote)
		if p.Title != "" {
			h.element("p", templ.Attributes{"class": "footer-title " + p.Fonts.Hero.Class()}, p.Title)
		}
		h.close("footer")
		return h.err
	})
}
