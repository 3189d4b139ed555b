package templates

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
	"github.com/aouyang1/memoryframe/gallery"
	"github.com/aouyang1/memoryframe/view"
)

const galleryTitle = "Cherished Moments"

// Gallery renders the section for the page's gallery mode. Callers skip it when
// the page has no photos.
func Gallery(p *view.Page) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTML(ctx, w)
		h.open("section", templ.Attributes{"id": "gallery-container", "data-mode": p.GalleryMode.String()})

		h.open("div", templ.Attributes{"class": "gallery-header"})
		h.element("h2", templ.Attributes{"class": p.Fonts.GalleryTitle.Class()}, galleryTitle)
		h.raw(`<div class="grow-line"></div>`)
		h.close("div")

		switch p.GalleryMode {
		case view.GalleryAuto:
			h.render(slideshow(p))
		case view.GalleryBook:
			h.render(book(p))
		default:
			h.render(stack(p))
		}

		h.close("section")
		return h.err
	})
}

func stack(p *view.Page) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTML(ctx, w)
		h.open("div", templ.Attributes{"class": "gallery-stack"})
		for _, card := range gallery.NewStack(p.Items).Cards() {
			item := p.Items[card.Index]
			h.open("div", templ.Attributes{
				"class":      "gallery-item stack-card",
				"data-index": item.Index,
				"style":      fmt.Sprintf("z-index:%d;transform:rotate(%.2fdeg)", card.ZIndex, item.Tilt),
			})
			h.render(photo(newPhotoProps(p, item)))
			h.close("div")
		}
		h.close("div")
		h.element("p", templ.Attributes{"class": "gallery-hint"}, "Tap or swipe to see the next memory")
		return h.err
	})
}

func slideshow(p *view.Page) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTML(ctx, w)
		h.open("div", templ.Attributes{
			"class":         "gallery-slideshow",
			"data-interval": p.GallerySpeed.Milliseconds(),
		})
		for _, item := range p.Items {
			class := "gallery-item slide"
			if item.Index == 0 {
				class += " active"
			}
			h.open("div", templ.Attributes{"class": class, "data-index": item.Index})
			h.render(photo(newPhotoProps(p, item)))
			h.close("div")
		}
		h.close("div")

		if len(p.Items) > 1 {
			h.open("nav", templ.Attributes{"class": "slideshow-controls"})
			h.element("button", templ.Attributes{"type": "button", "data-action": string(gallery.ActionPrev)}, "Previous")
			for _, item := range p.Items {
				h.open("button", templ.Attributes{
					"type":        "button",
					"class":       "slideshow-dot",
					"data-action": string(gallery.ActionGoTo),
					"data-index":  item.Index,
					"aria-label":  fmt.Sprintf("Show memory %d", item.Position()),
				})
				h.close("button")
			}
			h.element("button", templ.Attributes{"type": "button", "data-action": string(gallery.ActionNext)}, "Next")
			h.close("nav")
		}
		return h.err
	})
}

func book(p *view.Page) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTML(ctx, w)
		h.open("div", templ.Attributes{"class": "gallery-book"})
		for _, page := range gallery.NewBook(p.Items).Pages() {
			h.open("div", templ.Attributes{
				"class":     "book-page",
				"data-page": page.Index,
				"style":     fmt.Sprintf("z-index:%d", page.ZIndex),
			})
			h.render(bookFace(p, page.Index*2, page.Front, "front"))
			h.render(bookFace(p, page.Index*2+1, page.Back, "back"))
			h.close("div")
		}
		h.close("div")
		return h.err
	})
}

func bookFace(p *view.Page, index int, face gallery.Face, side string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTML(ctx, w)
		if face.End {
			h.open("div", templ.Attributes{"class": "book-face book-" + side + " book-end"})
			h.element("p", templ.Attributes{"class": p.Fonts.GalleryTitle.Class()}, face.Caption)
			h.close("div")
			return h.err
		}
		h.open("div", templ.Attributes{"class": "book-face book-" + side + " gallery-item", "data-index": index})
		h.render(photo(newPhotoProps(p, p.Items[index])))
		h.close("div")
		return h.err
	})
}

type photoProps struct {
	Item         view.Item
	FrameClass   string
	CaptionClass string
}

func newPhotoProps(p *view.Page, item view.Item) photoProps {
	return photoProps{Item: item, FrameClass: p.Frame.Class(), CaptionClass: p.Fonts.Caption.Class()}
}

// photo is the framed image with its optional caption and download links.
func photo(props photoProps) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTML(ctx, w)
		item := props.Item
		h.open("figure", templ.Attributes{"class": props.FrameClass})
		h.open("img", templ.Attributes{
			"src":       assetURL(item.URL),
			"alt":       photoAlt(item),
			"loading":   "lazy",
			"draggable": "false",
		})
		if item.Caption != "" {
			h.element("figcaption", templ.Attributes{"class": props.CaptionClass}, item.Caption)
		}
		h.open("div", templ.Attributes{"class": "photo-downloads"})
		h.element("a", templ.Attributes{"href": downloadURL(item, "jpeg"), "download": true}, "JPG")
		h.element("a", templ.Attributes{"href": downloadURL(item, "png"), "download": true}, "PNG")
		h.close("div")
		h.close("figure")
		return h.err
	})
}
