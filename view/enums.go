package view

import "strings"

// Font is the closed set of typefaces a configuration may name.
type Font int

const (
	FontSerif Font = iota
	FontScript
	FontDancingScript
	FontPacifico
	FontSacramento
	FontParisienne
	FontAllura
	FontPinyonScript
	FontMrDeHaviland
	FontAlexBrush
	FontTangerine
	FontCinzel
	FontCormorant
	FontMerriweather
	FontEBGaramond
	FontSans
	FontOswald
	FontRaleway
	FontLato
	FontRoboto
)

// ParseFont resolves a configuration key. Unknown or empty keys return fallback.
func ParseFont(key string, fallback Font) Font {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "script", "great-vibes":
		return FontScript
	case "dancing-script":
		return FontDancingScript
	case "pacifico":
		return FontPacifico
	case "sacramento":
		return FontSacramento
	case "parisienne":
		return FontParisienne
	case "allura":
		return FontAllura
	case "pinyon-script":
		return FontPinyonScript
	case "mr-de-haviland":
		return FontMrDeHaviland
	case "alex-brush":
		return FontAlexBrush
	case "tangerine":
		return FontTangerine
	case "serif", "playfair":
		return FontSerif
	case "cinzel":
		return FontCinzel
	case "cormorant":
		return FontCormorant
	case "merriweather":
		return FontMerriweather
	case "eb-garamond":
		return FontEBGaramond
	case "sans", "montserrat":
		return FontSans
	case "oswald":
		return FontOswald
	case "raleway":
		return FontRaleway
	case "lato":
		return FontLato
	case "roboto":
		return FontRoboto
	default:
		return fallback
	}
}

// Class is the stylesheet class carrying the font.
func (f Font) Class() string {
	switch f {
	case FontScript:
		return "font-script"
	case FontDancingScript:
		return "font-dancing-script"
	case FontPacifico:
		return "font-pacifico"
	case FontSacramento:
		return "font-sacramento"
	case FontParisienne:
		return "font-parisienne"
	case FontAllura:
		return "font-allura"
	case FontPinyonScript:
		return "font-pinyon-script"
	case FontMrDeHaviland:
		return "font-mr-de-haviland"
	case FontAlexBrush:
		return "font-alex-brush"
	case FontTangerine:
		return "font-tangerine"
	case FontCinzel:
		return "font-cinzel"
	case FontCormorant:
		return "font-cormorant"
	case FontMerriweather:
		return "font-merriweather"
	case FontEBGaramond:
		return "font-eb-garamond"
	case FontSans:
		return "font-sans"
	case FontOswald:
		return "font-oswald"
	case FontRaleway:
		return "font-raleway"
	case FontLato:
		return "font-lato"
	case FontRoboto:
		return "font-roboto"
	default:
		return "font-serif"
	}
}

// Family is the CSS font-family stack for the font.
func (f Font) Family() string {
	switch f {
	case FontScript:
		return `"Great Vibes", cursive`
	case FontDancingScript:
		return `"Dancing Script", cursive`
	case FontPacifico:
		return `"Pacifico", cursive`
	case FontSacramento:
		return `"Sacramento", cursive`
	case FontParisienne:
		return `"Parisienne", cursive`
	case FontAllura:
		return `"Allura", cursive`
	case FontPinyonScript:
		return `"Pinyon Script", cursive`
	case FontMrDeHaviland:
		return `"Mr De Haviland", cursive`
	case FontAlexBrush:
		return `"Alex Brush", cursive`
	case FontTangerine:
		return `"Tangerine", cursive`
	case FontCinzel:
		return `"Cinzel", serif`
	case FontCormorant:
		return `"Cormorant Garamond", serif`
	case FontMerriweather:
		return `"Merriweather", serif`
	case FontEBGaramond:
		return `"EB Garamond", serif`
	case FontSans:
		return `"Montserrat", sans-serif`
	case FontOswald:
		return `"Oswald", sans-serif`
	case FontRaleway:
		return `"Raleway", sans-serif`
	case FontLato:
		return `"Lato", sans-serif`
	case FontRoboto:
		return `"Roboto", sans-serif`
	default:
		return `"Playfair Display", serif`
	}
}

// FrameStyle is one of the fixed photo frame presets.
type FrameStyle int

const (
	FrameClassic FrameStyle = iota
	FramePolaroid
	FrameGold
	FrameVintage
	FrameMinimal
	FrameShadow
	FrameFilm
	FrameRounded
	FrameDouble
	FrameWood
	FrameMarble
	FrameNeon
	FrameFloral
	FrameTorn
	FrameBorderless
)

// ParseFrameStyle resolves a frame name, defaulting to FrameClassic.
func ParseFrameStyle(key string) FrameStyle {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "polaroid":
		return FramePolaroid
	case "gold", "golden":
		return FrameGold
	case "vintage", "sepia":
		return FrameVintage
	case "minimal", "clean":
		return FrameMinimal
	case "shadow":
		return FrameShadow
	case "film", "filmstrip":
		return FrameFilm
	case "rounded":
		return FrameRounded
	case "double":
		return FrameDouble
	case "wood", "wooden":
		return FrameWood
	case "marble":
		return FrameMarble
	case "neon":
		return FrameNeon
	case "floral":
		return FrameFloral
	case "torn", "torn-paper":
		return FrameTorn
	case "none", "borderless":
		return FrameBorderless
	default:
		return FrameClassic
	}
}

func (f FrameStyle) String() string {
	switch f {
	case FramePolaroid:
		return "polaroid"
	case FrameGold:
		return "gold"
	case FrameVintage:
		return "vintage"
	case FrameMinimal:
		return "minimal"
	case FrameShadow:
		return "shadow"
	case FrameFilm:
		return "film"
	case FrameRounded:
		return "rounded"
	case FrameDouble:
		return "double"
	case FrameWood:
		return "wood"
	case FrameMarble:
		return "marble"
	case FrameNeon:
		return "neon"
	case FrameFloral:
		return "floral"
	case FrameTorn:
		return "torn"
	case FrameBorderless:
		return "borderless"
	default:
		return "classic"
	}
}

// Class is the stylesheet class for the frame.
func (f FrameStyle) Class() string {
	return "frame-" + f.String()
}

// Transition is the reveal preset applied to each photo on entry.
type Transition int

const (
	TransitionZoom Transition = iota
	TransitionFade
	TransitionSlideUp
	TransitionSlideSide
	TransitionRotate
	TransitionBlur
	TransitionPolaroid
	TransitionFlip
	TransitionElastic
	TransitionDramatic
)

// ParseTransition resolves an effect name, defaulting to the gentle zoom.
func ParseTransition(key string) Transition {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "fade":
		return TransitionFade
	case "slideup", "slide-up":
		return TransitionSlideUp
	case "slideside", "slide-side":
		return TransitionSlideSide
	case "rotate":
		return TransitionRotate
	case "blur":
		return TransitionBlur
	case "polaroid":
		return TransitionPolaroid
	case "flip":
		return TransitionFlip
	case "elastic":
		return TransitionElastic
	case "dramatic":
		return TransitionDramatic
	default:
		return TransitionZoom
	}
}

func (t Transition) String() string {
	switch t {
	case TransitionFade:
		return "fade"
	case TransitionSlideUp:
		return "slideUp"
	case TransitionSlideSide:
		return "slideSide"
	case TransitionRotate:
		return "rotate"
	case TransitionBlur:
		return "blur"
	case TransitionPolaroid:
		return "polaroid"
	case TransitionFlip:
		return "flip"
	case TransitionElastic:
		return "elastic"
	case TransitionDramatic:
		return "dramatic"
	default:
		return "zoom"
	}
}

// GalleryMode picks exactly one gallery arrangement.
type GalleryMode int

const (
	GalleryManual GalleryMode = iota
	GalleryAuto
	GalleryBook
)

func ParseGalleryMode(key string) GalleryMode {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "auto", "slideshow":
		return GalleryAuto
	case "book":
		return GalleryBook
	default:
		return GalleryManual
	}
}

func (m GalleryMode) String() string {
	switch m {
	case GalleryAuto:
		return "auto"
	case GalleryBook:
		return "book"
	default:
		return "manual"
	}
}

// InteractionMode decides whether the timeline waits for the viewer after each photo.
type InteractionMode int

const (
	InteractionClick InteractionMode = iota
	InteractionAuto
)

func ParseInteractionMode(key string) InteractionMode {
	if strings.EqualFold(strings.TrimSpace(key), "auto") {
		return InteractionAuto
	}
	return InteractionClick
}

func (m InteractionMode) String() string {
	if m == InteractionAuto {
		return "auto"
	}
	return "click"
}
