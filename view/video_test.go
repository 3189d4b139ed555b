package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeVideo(t *testing.T) {
	const id = "8_k2H-CpDPI"
	embed := "https://www.youtube.com/embed/" + id + "?" + youtubePlayerParams

	tests := []struct {
		name     string
		ref      string
		platform Platform
		id       string
		embed    string
	}{
		{"watch", "https://www.youtube.com/watch?v=" + id + "&t=10", PlatformYouTube, id, embed},
		{"short link", "https://youtu.be/" + id + "?si=Vx44B_mCb5tN1MzE", PlatformYouTube, id, embed},
		{"embed", "https://www.youtube.com/embed/" + id, PlatformYouTube, id, embed},
		{"shorts", "https://youtube.com/shorts/" + id, PlatformYouTube, id, embed},
		{"live", "https://www.youtube.com/live/" + id + "?feature=share", PlatformYouTube, id, embed},
		{"v path", "https://www.youtube.com/v/" + id, PlatformYouTube, id, embed},
		{"mobile", "https://m.youtube.com/watch?v=" + id, PlatformYouTube, id, embed},
		{"bare id", id, PlatformYouTube, id, embed},
		{"vimeo", "https://vimeo.com/76979871", PlatformVimeo, "76979871", "https://player.vimeo.com/video/76979871?api=1&playsinline=1"},
		{"vimeo player", "https://player.vimeo.com/video/76979871", PlatformVimeo, "76979871", "https://player.vimeo.com/video/76979871?api=1&playsinline=1"},
		{"mp4 passthrough", "https://example.com/movie.mp4", PlatformOther, "", "https://example.com/movie.mp4"},
		{"garbage passthrough", "not a url", PlatformOther, "", "not a url"},
		{"watch without id", "https://www.youtube.com/watch?list=abc", PlatformOther, "", "https://www.youtube.com/watch?list=abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NormalizeVideo(tt.ref)
			assert.Equal(t, tt.platform, v.Platform)
			assert.Equal(t, tt.id, v.ID)
			assert.Equal(t, tt.embed, v.EmbedURL)
		})
	}
}

func TestNormalizeVideo_Empty(t *testing.T) {
	assert.Equal(t, Video{}, NormalizeVideo("   "))
}
