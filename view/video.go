package view

import (
	"net/url"
	"regexp"
	"strings"
)

type Platform string

const (
	PlatformYouTube Platform = "youtube"
	PlatformVimeo   Platform = "vimeo"
	PlatformOther   Platform = "other"
)

// Video is a playable embed derived from a configuration reference.
type Video struct {
	Platform Platform
	ID       string
	EmbedURL string
	Source   string
}

const youtubePlayerParams = "controls=0&modestbranding=1&rel=0&showinfo=0&iv_load_policy=3&disablekb=1&playsinline=1&enablejsapi=1"

var (
	youtubeIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
	vimeoIDPattern   = regexp.MustCompile(`^[0-9]+$`)
)

// NormalizeVideo extracts a platform id from the accepted URL shapes. References it
// does not recognize are passed through unchanged as the embed URL.
func NormalizeVideo(ref string) Video {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Video{}
	}

	if youtubeIDPattern.MatchString(ref) {
		return youtubeVideo(ref, ref)
	}

	u, err := url.Parse(ref)
	if err != nil || u.Host == "" {
		return passthrough(ref)
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")

	switch host {
	case "youtu.be":
		if id := segments[0]; youtubeIDPattern.MatchString(id) {
			return youtubeVideo(id, ref)
		}
	case "youtube.com", "m.youtube.com", "music.youtube.com", "youtube-nocookie.com":
		if segments[0] == "watch" {
			if id := u.Query().Get("v"); youtubeIDPattern.MatchString(id) {
				return youtubeVideo(id, ref)
			}
			break
		}
		if len(segments) >= 2 {
			switch segments[0] {
			case "embed", "shorts", "live", "v":
				if id := segments[1]; youtubeIDPattern.MatchString(id) {
					return youtubeVideo(id, ref)
				}
			}
		}
	case "vimeo.com":
		if id := segments[len(segments)-1]; vimeoIDPattern.MatchString(id) {
			return vimeoVideo(id, ref)
		}
	case "player.vimeo.com":
		if len(segments) >= 2 && segments[0] == "video" && vimeoIDPattern.MatchString(segments[1]) {
			return vimeoVideo(segments[1], ref)
		}
	}

	return passthrough(ref)
}

func youtubeVideo(id, source string) Video {
	return Video{
		Platform: PlatformYouTube,
		ID:       id,
		EmbedURL: "https://www.youtube.com/embed/" + id + "?" + youtubePlayerParams,
		Source:   source,
	}
}

func vimeoVideo(id, source string) Video {
	return Video{
		Platform: PlatformVimeo,
		ID:       id,
		EmbedURL: "https://player.vimeo.com/video/" + id + "?api=1&playsinline=1",
		Source:   source,
	}
}

func passthrough(ref string) Video {
	return Video{Platform: PlatformOther, EmbedURL: ref, Source: ref}
}
