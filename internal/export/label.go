package export

import (
	"image"
	"image/color"

	"github.com/suyashkumar/dicom/pkg/frame"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// drawLabel burns text into the top-left corner of a 16-bit frame: white
// glyphs at the frame maximum with a one-step black outline. The glyphs are
// scaled up to about 30% of the frame width when there is room.
func drawLabel(nativeFrame *frame.NativeFrame[uint16], width, height int, text string) {
	face := basicfont.Face7x13
	textWidth := font.MeasureString(face, text).Ceil()
	const textHeight = 13
	if textWidth == 0 {
		return
	}

	textImg := image.NewAlpha(image.Rect(0, 0, textWidth, textHeight))
	drawer := &font.Drawer{
		Dst:  textImg,
		Src:  image.Opaque,
		Face: face,
		Dot:  fixed.Point26_6{Y: fixed.I(face.Ascent)},
	}
	drawer.DrawString(text)

	scale := max(1, int(float64(width)*0.3)/textWidth)
	scaled := image.NewAlpha(image.Rect(0, 0, textWidth*scale, textHeight*scale))
	draw.NearestNeighbor.Scale(scaled, scaled.Bounds(), textImg, textImg.Bounds(), draw.Over, nil)

	const margin = 1
	set := func(x, y int, v uint16) {
		if x >= 0 && x < width && y >= 0 && y < height {
			nativeFrame.RawData[y*width+x] = v
		}
	}
	inked := func(x, y int) bool {
		return scaled.AlphaAt(x, y) != color.Alpha{}
	}

	b := scaled.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if !inked(x, y) {
				continue
			}
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if !inked(x+dx, y+dy) {
						set(margin+x+dx, margin+y+dy, 0)
					}
				}
			}
		}
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if inked(x, y) {
				set(margin+x, margin+y, 0xFFFF)
			}
		}
	}
}
