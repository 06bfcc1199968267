package camera

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/saturnino-fabrica-de-software/chamada/internal/domain"
)

var (
	colorKnown   = color.RGBA{G: 255, A: 255}
	colorUnknown = color.RGBA{R: 255, A: 255}
	colorStandby = color.RGBA{B: 255, A: 255}
	colorText    = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

const (
	boxThickness = 2
	labelHeight  = 35
)

// Overlay is everything drawn on top of a frame.
type Overlay struct {
	Results []Result
	// Lecture is 0 outside lecture hours.
	Lecture int
	Active  bool
}

// Label is the caption drawn under a face box.
func (r Result) Label() string {
	if r.Confidence > 0 {
		return fmt.Sprintf("%s (%.2f)", r.Name, r.Confidence)
	}
	return r.Name
}

// Render desenha caixas, rótulos, aula atual e o estado do gate numa cópia
// do quadro.
func Render(frame image.Image, ov Overlay) *image.RGBA {
	dst := toRGBA(frame)
	offset := frame.Bounds().Min

	for _, r := range ov.Results {
		c := colorKnown
		if r.Name == domain.UnknownName {
			c = colorUnknown
		}
		box := r.Box.Rect().Sub(offset).Intersect(dst.Bounds())
		if box.Empty() {
			continue
		}
		strokeRect(dst, box, c)

		label := image.Rect(box.Min.X, max(box.Min.Y, box.Max.Y-labelHeight), box.Max.X, box.Max.Y)
		draw.Draw(dst, label, image.NewUniform(c), image.Point{}, draw.Src)
		drawText(dst, r.Label(), box.Min.X+6, box.Max.Y-6, colorText)
	}

	lecture := "None"
	if ov.Lecture > 0 {
		lecture = fmt.Sprint(ov.Lecture)
	}
	drawText(dst, "Lecture: "+lecture, 10, 30, colorText)

	state, c := "STANDBY", colorStandby
	if ov.Active {
		state, c = "ACTIVE", colorKnown
	}
	drawText(dst, state, dst.Bounds().Dx()-100, 30, c)

	return dst
}

func strokeRect(dst draw.Image, r image.Rectangle, c color.Color) {
	u := image.NewUniform(c)
	t := boxThickness
	draw.Draw(dst, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+t), u, image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(r.Min.X, r.Max.Y-t, r.Max.X, r.Max.Y), u, image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(r.Min.X, r.Min.Y, r.Min.X+t, r.Max.Y), u, image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(r.Max.X-t, r.Min.Y, r.Max.X, r.Max.Y), u, image.Point{}, draw.Src)
}

func drawText(dst draw.Image, s string, x, y int, c color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}
