package templates

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/a-h/templ"
	"github.com/aouyang1/memoryframe/view"
)

func downloadURL(item view.Item, format string) string {
	return fmt.Sprintf("/photos/%d/download?format=%s", item.Index, url.QueryEscape(format))
}

func photoAlt(item view.Item) string {
	if item.Caption != "" {
		return item.Caption
	}
	return fmt.Sprintf("Memory %d", item.Position())
}

// assetURL drops anything templ does not consider a safe URL, such as javascript:.
func assetURL(raw string) string {
	return string(templ.URL(raw))
}

// html writes markup and remembers the first error so components read top to bottom.
type html struct {
	ctx context.Context
	w   io.Writer
	err error
}

func newHTML(ctx context.Context, w io.Writer) *html {
	return &html{ctx: ctx, w: w}
}

func (h *html) raw(s string) {
	if h.err != nil {
		return
	}
	_, h.err = io.WriteString(h.w, s)
}

func (h *html) rawf(format string, args ...any) {
	h.raw(fmt.Sprintf(format, args...))
}

// text writes user content escaped.
func (h *html) text(s string) {
	h.raw(templ.EscapeString(s))
}

// open writes a start tag. templ escapes the values; a true bool is written as a
// bare attribute and a false one is left out.
func (h *html) open(tag string, attrs templ.Attributes) {
	h.raw("<" + tag)
	if h.err == nil {
		h.err = templ.RenderAttributes(h.ctx, h.w, attrs)
	}
	h.raw(">")
}

func (h *html) close(tag string) {
	h.raw("</" + tag + ">")
}

// element writes a whole element with escaped text content.
func (h *html) element(tag string, attrs templ.Attributes, text string) {
	h.open(tag, attrs)
	h.text(text)
	h.close(tag)
}

func (h *html) render(c templ.Component) {
	if h.err != nil || c == nil {
		return
	}
	h.err = c.Render(h.ctx, h.w)
}
