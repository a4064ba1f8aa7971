package render

import (
	"image/color"
	"math/rand"

	"github.com/hajimehoshi/ebiten/v2"
)

// GenerateGrass creates a textured grass backdrop. Deterministic per seed.
func GenerateGrass(width, height int, seed int64) *ebiten.Image {
	img := ebiten.NewImage(width, height)
	rng := rand.New(rand.NewSource(seed))

	// Base grass layer
	img.Fill(color.RGBA{30, 90, 30, 255})

	// Add noise/texture to grass
	for i := 0; i < width*height/12; i++ {
		x := rng.Intn(width)
		y := rng.Intn(height)
		shade := uint8(70 + rng.Intn(60))
		img.Set(x, y, color.RGBA{30, shade, 30, 255})
	}
	return img
}
