package templates

import (
	"bytes"
	"context"
	"math/rand/v2"
	"strconv"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/aouyang1/memoryframe/event"
	"github.com/aouyang1/memoryframe/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func buildPage(cfg *event.Config) *view.Page {
	page := view.Build(cfg, rand.New(rand.NewPCG(1, 2)))
	return &page
}

func TestDocument(t *testing.T) {
	page := buildPage(&event.Config{
		Title:    "Anna & Ben",
		Gallery:  []string{"https://cdn.example.com/1.jpg", "https://cdn.example.com/2.jpg", "https://cdn.example.com/3.jpg"},
		Captions: map[string]string{"2": "First dance"},
	})

	out := render(t, Document(page, DocumentOptions{ScriptURL: "/static/driver.js", ConfigName: "wedding"}))

	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, `id="loading-screen"`)
	assert.Contains(t, out, `id="gallery-container"`)
	assert.Contains(t, out, `class="gallery-header"`)
	assert.Contains(t, out, `class="grow-line"`)
	assert.Contains(t, out, `id="message-section"`)
	assert.Contains(t, out, `id="message-content"`)
	assert.Contains(t, out, `data-config="wedding"`)
	assert.Contains(t, out, `<script defer src="/static/driver.js">`)
	assert.Contains(t, out, "<figcaption")
	assert.Contains(t, out, "First dance")
	assert.Equal(t, 3, strings.Count(out, `data-index="`))
	assert.NotContains(t, out, `id="video-section"`)
}

func TestDocumentWithoutPhotos(t *testing.T) {
	page := buildPage(&event.Config{Title: "Quiet"})

	out := render(t, Document(page, DocumentOptions{}))

	assert.NotContains(t, out, "gallery-container")
	assert.NotContains(t, out, "gallery-item")
	assert.NotContains(t, out, "<script")
	assert.Contains(t, out, `id="message-section"`)
}

func TestHeroTitle(t *testing.T) {
	tests := []struct {
		title    string
		contains string
	}{
		{"Anna & Ben", `Anna <span class="hero-ampersand">&amp;</span> Ben`},
		{"Happy Birthday", ">Happy Birthday</h1>"},
		{"<b>bold</b>", "&lt;b&gt;bold&lt;/b&gt;"},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			out := render(t, Hero(buildPage(&event.Config{Title: tt.title})))
			assert.Contains(t, out, tt.contains)
		})
	}
}

func TestHeroLayout(t *testing.T) {
	out := render(t, Hero(buildPage(&event.Config{Title: "Work", EventType: "Portfolio", MessageBody: "Short note"})))
	assert.Contains(t, out, "hero-portfolio")
	assert.Contains(t, out, "hero-excerpt")

	out = render(t, Hero(buildPage(&event.Config{Title: "Anna & Ben", EventType: "Wedding"})))
	assert.Contains(t, out, "hero-classic")
	assert.NotContains(t, out, "hero-excerpt")
}

func TestGalleryStack(t *testing.T) {
	page := buildPage(&event.Config{Gallery: []string{"a.jpg", "b.jpg", "c.jpg"}})

	out := render(t, Gallery(page))

	assert.Contains(t, out, `data-mode="manual"`)
	assert.Contains(t, out, "gallery-stack")
	assert.Contains(t, out, "z-index:3;")
	assert.Contains(t, out, "z-index:1;")
	assert.Equal(t, 3, strings.Count(out, "stack-card"))
}

func TestGallerySlideshow(t *testing.T) {
	page := buildPage(&event.Config{
		Gallery: []string{"a.jpg", "b.jpg"},
		Visuals: event.Visuals{GalleryMode: "auto"},
	})

	out := render(t, Gallery(page))

	assert.Contains(t, out, `data-mode="auto"`)
	assert.Contains(t, out, `class="gallery-item slide active" data-index="0"`)
	assert.Contains(t, out, `class="gallery-item slide" data-index="1"`)
	assert.Equal(t, 2, strings.Count(out, "slideshow-dot"))
}

func TestGalleryBook(t *testing.T) {
	page := buildPage(&event.Config{
		Gallery: []string{"a.jpg", "b.jpg", "c.jpg"},
		Visuals: event.Visuals{GalleryMode: "book"},
	})

	out := render(t, Gallery(page))

	assert.Equal(t, 2, strings.Count(out, `class="book-page"`))
	assert.Contains(t, out, "book-end")
	assert.Contains(t, out, "The End")
	assert.Contains(t, out, `data-index="2"`)
	assert.NotContains(t, out, `data-index="3"`)
}

func TestPhotoEscapesCaptionAndURL(t *testing.T) {
	page := buildPage(&event.Config{
		Gallery:  []string{"javascript:alert(1)"},
		Captions: map[string]string{"1": `"><script>x</script>`},
	})

	out := render(t, Gallery(page))

	assert.NotContains(t, out, "javascript:alert")
	assert.NotContains(t, out, "<script>x")
	assert.Contains(t, out, "&lt;script&gt;")
	assert.Contains(t, out, `/photos/0/download?format=png`)
}

func TestVideoSection(t *testing.T) {
	yt := view.NormalizeVideo("https://youtu.be/dQw4w9WgXcQ")
	out := render(t, VideoSection(&yt))
	assert.Contains(t, out, `id="video-section"`)
	assert.Contains(t, out, "<iframe")
	assert.Contains(t, out, "dQw4w9WgXcQ")

	file := view.NormalizeVideo("https://cdn.example.com/movie.mp4")
	out = render(t, VideoSection(&file))
	assert.Contains(t, out, "<video")
	assert.Contains(t, out, "movie.mp4")
}

func TestMessageParagraphs(t *testing.T) {
	page := buildPage(&event.Config{MessageBody: "First.\n\nSecond.\r\n\r\n  \n\nThird."})

	out := render(t, Message(page))

	assert.Equal(t, 3, strings.Count(out, `class="message-body"`))
}

func TestPetals(t *testing.T) {
	page := buildPage(&event.Config{})
	require.NotEmpty(t, page.Petals)

	out := render(t, Petals(page.Petals))

	assert.Equal(t, len(page.Petals), strings.Count(out, `class="petal"`))
	assert.Contains(t, out, `url(#petal-gradient-0)`)
}

func TestAttributeValues(t *testing.T) {
	page := buildPage(&event.Config{
		Gallery: []string{"a.jpg", "b.jpg"},
		Visuals: event.Visuals{GalleryMode: "auto"},
	})

	out := render(t, LoadingScreen(page))
	assert.Contains(t, out, `aria-valuemax="100"`)
	assert.Contains(t, out, `disabled id="enter-button"`)

	out = render(t, Gallery(page))
	assert.Contains(t, out, `data-interval="`+strconv.FormatInt(page.GallerySpeed.Milliseconds(), 10)+`"`)
	assert.Contains(t, out, `<a download href="/photos/1/download?format=png">PNG</a>`)
	assert.NotContains(t, out, `download=""`)
}
