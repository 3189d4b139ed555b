package sequencer

import (
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/aouyang1/memoryframe/view"
)

// Element selectors shared with the rendered page.
const (
	TargetGallery       = "#gallery-container"
	TargetGalleryHeader = ".gallery-header"
	TargetGrowLine      = ".grow-line"
	TargetGalleryItems  = ".gallery-item"
	TargetMessage       = "#message-section"
	TargetMessageBody   = "#message-content"
	TargetVideo         = "#video-section"
)

const (
	heroDwell      = 3 * time.Second
	readDwell      = 5 * time.Second
	galleryScroll  = 2 * time.Second
	headerReveal   = 1500 * time.Millisecond
	growLineReveal = 1500 * time.Millisecond
	growLineLead   = 1 * time.Second
	photoScroll    = 800 * time.Millisecond
	restoreAll     = 1 * time.Second
	messageScroll  = 2500 * time.Millisecond
	messageReveal  = 2 * time.Second
	videoScroll    = 3 * time.Second

	galleryOffset = 50
	messageOffset = 100
)

// PhotoTarget selects the gallery item at index i.
func PhotoTarget(i int) string {
	return `.gallery-item[data-index="` + strconv.Itoa(i) + `"]`
}

// Build lays out the full timeline for page. rng feeds presets that carry
// randomness; a nil rng uses a fixed seed.
func Build(page *view.Page, rng *rand.Rand) Timeline {
	if rng == nil {
		rng = rand.New(rand.NewPCG(0, 1))
	}

	tl := Timeline{
		WaitStep{Duration: heroDwell},
		ScrollStep{
			Target:   TargetGallery,
			Offset:   galleryOffset,
			Duration: galleryScroll,
			Ease:     EasePower2InOut,
		},
		RevealStep{
			Target:   TargetGalleryHeader,
			Photo:    -1,
			From:     &Style{Opacity: 0, Y: 30},
			To:       Style{Opacity: 1},
			Duration: headerReveal,
			Ease:     EasePower2Out,
		},
		RevealStep{
			Target:   TargetGrowLine,
			Photo:    -1,
			From:     &Style{Opacity: 1, Height: "0"},
			To:       Style{Opacity: 1, Height: "3rem"},
			Duration: growLineReveal,
			Overlap:  growLineLead,
			Ease:     EasePower2Out,
		},
	}

	if page.HasGallery() {
		for _, item := range page.Items {
			tl = append(tl, ScrollStep{
				Target:   PhotoTarget(item.Index),
				Center:   true,
				Duration: photoScroll,
				Ease:     EasePower2InOut,
			})

			preset := Preset(page.Transition, item.Tilt, rng)
			from := preset.From
			tl = append(tl, RevealStep{
				Target:     PhotoTarget(item.Index),
				Photo:      item.Index,
				Preset:     page.Transition.String(),
				From:       &from,
				To:         preset.To,
				Duration:   preset.Duration,
				Ease:       preset.Ease,
				OnComplete: EffectBreathe,
			})

			if page.Interaction == view.InteractionClick {
				tl = append(tl, GateStep{Photo: item.Index})
			} else {
				tl = append(tl, WaitStep{Duration: page.GallerySpeed})
			}
		}

		tl = append(tl, RevealStep{
			Target:   TargetGalleryItems,
			Photo:    -1,
			To:       Style{Opacity: 1},
			Duration: restoreAll,
			Ease:     EasePower2Out,
		})
	}

	tl = append(tl,
		ScrollStep{
			Target:   TargetMessage,
			Offset:   messageOffset,
			Duration: messageScroll,
			Ease:     EasePower2InOut,
		},
		RevealStep{
			Target:   TargetMessageBody,
			Photo:    -1,
			From:     &Style{Opacity: 0, Y: 30},
			To:       Style{Opacity: 1},
			Duration: messageReveal,
			Ease:     EasePower2Out,
			OnStart:  EffectStartParticles,
		},
		WaitStep{Duration: readDwell},
		ScrollStep{
			Target:     TargetVideo,
			Duration:   videoScroll,
			Ease:       EasePower2InOut,
			OnStart:    EffectStopParticles,
			OnComplete: EffectPlayVideo,
		},
	)
	return tl
}
