package view

import "math/rand/v2"

const PetalCount = 50

const (
	PetalGold     = "#C5A059"
	PetalBurgundy = "#8B0000"
)

// PetalPaths are the SVG outlines a petal may take, drawn in a 30x40 box.
var PetalPaths = []string{
	"M15,0 C25,10 30,30 15,40 C0,30 5,10 15,0",
	"M15,0 C35,10 35,35 15,40 C-5,35 -5,10 15,0",
	"M15,0 C25,5 25,35 15,40 C5,35 5,5 15,0",
	"M15,0 C20,15 35,20 15,40 C-5,20 10,15 15,0",
}

// Petal is the randomized look of one falling particle. Sizes are in pixels,
// Left in percent of the viewport width, times in seconds.
type Petal struct {
	Size     float64 `json:"size"`
	Left     float64 `json:"left"`
	Delay    float64 `json:"delay"`
	Duration float64 `json:"duration"`
	Rotation float64 `json:"rotation"`
	Drift    float64 `json:"drift"`
	Path     string  `json:"path"`
	Gold     bool    `json:"gold"`
}

func (p Petal) Color() string {
	if p.Gold {
		return PetalGold
	}
	return PetalBurgundy
}

// Highlight is the inner stop of the petal's radial gradient.
func (p Petal) Highlight() string {
	if p.Gold {
		return "#FFD700"
	}
	return "#FF4D4D"
}

// Petals draws n petal specs from rng.
func Petals(n int, rng *rand.Rand) []Petal {
	petals := make([]Petal, n)
	for i := range petals {
		petals[i] = Petal{
			Size:     rng.Float64()*20 + 20,
			Left:     rng.Float64() * 100,
			Delay:    rng.Float64() * 2,
			Duration: rng.Float64()*5 + 8,
			Rotation: rng.Float64() * 360,
			Drift:    rng.Float64()*100 - 50,
			Path:     PetalPaths[rng.IntN(len(PetalPaths))],
			Gold:     rng.Float64() > 0.6,
		}
	}
	return petals
}
