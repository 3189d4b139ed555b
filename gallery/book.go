package gallery

import (
	"sync"

	"github.com/aouyang1/memoryframe/view"
)

// TheEnd is the caption on the placeholder back face of an odd-length book.
const TheEnd = "The End"

type Face struct {
	URL     string `json:"url,omitempty"`
	Caption string `json:"caption,omitempty"`
	End     bool   `json:"end,omitempty"`
}

// BookPage is one leaf holding two photos, front and back.
type BookPage struct {
	Index   int  `json:"index"`
	Front   Face `json:"front"`
	Back    Face `json:"back"`
	Flipped bool `json:"flipped"`
	ZIndex  int  `json:"zIndex"`
}

// Book pairs photos into leaves that flip around a spine.
//
// Stacking: an unflipped page i sits at N-i so earlier pages cover later ones.
// A flipped page moves to i+N+1, which is above every unflipped page and orders
// the flipped side by ascending index.
type Book struct {
	mu    sync.Mutex
	pages []BookPage
}

func NewBook(items []view.Item) *Book {
	var pages []BookPage
	for i := 0; i < len(items); i += 2 {
		page := BookPage{
			Index: len(pages),
			Front: Face{URL: items[i].URL, Caption: items[i].Caption},
		}
		if i+1 < len(items) {
			page.Back = Face{URL: items[i+1].URL, Caption: items[i+1].Caption}
		} else {
			page.Back = Face{Caption: TheEnd, End: true}
		}
		pages = append(pages, page)
	}

	b := &Book{pages: pages}
	for i := range b.pages {
		b.restack(i)
	}
	return b
}

func (b *Book) Pages() []BookPage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]BookPage(nil), b.pages...)
}

func (b *Book) Len() int {
	return len(b.pages)
}

// Flip turns page i forward. Repeated flips on the same page keep the last state.
func (b *Book) Flip(i int) bool {
	return b.set(i, true)
}

// Unflip turns page i back.
func (b *Book) Unflip(i int) bool {
	return b.set(i, false)
}

// FlipNext turns the first unflipped page.
func (b *Book) FlipNext() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.pages {
		if !b.pages[i].Flipped {
			b.pages[i].Flipped = true
			b.restack(i)
			return true
		}
	}
	return false
}

// FlipPrev turns back the last flipped page.
func (b *Book) FlipPrev() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := len(b.pages) - 1; i >= 0; i-- {
		if b.pages[i].Flipped {
			b.pages[i].Flipped = false
			b.restack(i)
			return true
		}
	}
	return false
}

func (b *Book) set(i int, flipped bool) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i < 0 || i >= len(b.pages) {
		return false
	}
	b.pages[i].Flipped = flipped
	b.restack(i)
	return true
}

// restack must be called with mu held.
func (b *Book) restack(i int) {
	n := len(b.pages)
	if b.pages[i].Flipped {
		b.pages[i].ZIndex = i + n + 1
		return
	}
	b.pages[i].ZIndex = n - i
}
