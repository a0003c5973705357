package viz

import (
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"os"
)

const dotPx = 3

// capture keeps canvas snapshots for an animated GIF.
type capture struct {
	frames []*image.Paletted
}

var capturePalette = color.Palette{color.Black, color.RGBA{0, 204, 255, 255}}

func (c *capture) add(cv *Canvas) {
	w, h := cv.PixelWidth(), cv.PixelHeight()
	img := image.NewPaletted(image.Rect(0, 0, w*dotPx, h*dotPx), capturePalette)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !cv.IsSet(x, y) {
				continue
			}
			for py := 0; py < dotPx; py++ {
				for px := 0; px < dotPx; px++ {
					img.SetColorIndex(x*dotPx+px, y*dotPx+py, 1)
				}
			}
		}
	}
	c.frames = append(c.frames, img)
}

func (c *capture) len() int { return len(c.frames) }

func (c *capture) save(path string) error {
	if len(c.frames) == 0 {
		return fmt.Errorf("no frames captured")
	}
	anim := gif.GIF{}
	for _, f := range c.frames {
		anim.Image = append(anim.Image, f)
		anim.Delay = append(anim.Delay, 2)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := gif.EncodeAll(f, &anim); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
