package event

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_MinimalConfig(t *testing.T) {
	cfg, err := Parse([]byte(`{"gallery":["a.jpg","b.jpg"],"visuals":{"galleryMode":"manual"}}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"a.jpg", "b.jpg"}, cfg.Gallery)
	assert.Equal(t, "manual", cfg.Visuals.GalleryMode)
	assert.Empty(t, cfg.Title)
	assert.Equal(t, "", cfg.Caption(1))
	assert.Equal(t, "", cfg.VideoReference())
}

func TestParse_NumbersAsStrings(t *testing.T) {
	cfg, err := Parse([]byte(`{"photoCount":"12","visuals":{"gallerySpeed":"3.5","photoDuration":7}}`))
	require.NoError(t, err)

	assert.Equal(t, 12, cfg.PhotoCount.Int())
	assert.InDelta(t, 3.5, float64(cfg.Visuals.GallerySpeed), 1e-9)
	assert.InDelta(t, 7, float64(cfg.Visuals.PhotoDuration), 1e-9)
}

func TestParse_GarbageNumberIsZero(t *testing.T) {
	cfg, err := Parse([]byte(`{"photoCount":"lots"}`))
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.PhotoCount.Int())
}

func TestCaption_OneBased(t *testing.T) {
	cfg, err := Parse([]byte(`{"captions":{"1":"The Mehndi Ceremony","3":"  Details of Love "}}`))
	require.NoError(t, err)

	assert.Equal(t, "The Mehndi Ceremony", cfg.Caption(1))
	assert.Equal(t, "", cfg.Caption(2))
	assert.Equal(t, "Details of Love", cfg.Caption(3))
}

func TestVideoReference_Shapes(t *testing.T) {
	tests := []struct {
		name string
		json string
		want string
	}{
		{"string", `{"video":"https://youtu.be/8_k2H-CpDPI"}`, "https://youtu.be/8_k2H-CpDPI"},
		{"object url", `{"video":{"url":"https://example.com/v.mp4"}}`, "https://example.com/v.mp4"},
		{"object youtube id", `{"video":{"type":"youtube","id":"8_k2H-CpDPI"}}`, "8_k2H-CpDPI"},
		{"object vimeo id", `{"video":{"type":"vimeo","id":"76979871"}}`, "https://vimeo.com/76979871"},
		{"legacy youtubeLink", `{"youtubeLink":"https://youtu.be/c4JD7rEtIj8"}`, "https://youtu.be/c4JD7rEtIj8"},
		{"explicit wins", `{"video":"abc","youtubeLink":"def"}`, "abc"},
		{"null", `{"video":null}`, ""},
		{"wrong type", `{"video":42}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.json))
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.VideoReference())
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"title":"Happy Birthday!","photoCount":2}`), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Happy Birthday!", cfg.Title)
	assert.Equal(t, 2, cfg.PhotoCount.Int())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestParse_InvalidJSON(t *testing.T) {
	_, err := Parse([]byte(`{"title":`))
	assert.Error(t, err)
}
