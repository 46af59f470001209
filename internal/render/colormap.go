package render

import (
	"image/color"
	"slices"

	"github.com/mrsinham/calciumforge/internal/util"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
)

// paletteSize is the number of colour steps used for heat maps.
const paletteSize = 256

var colormaps = map[string]func() palette.Palette{
	"heat": func() palette.Palette { return palette.Heat(paletteSize, 1) },
	"rainbow": func() palette.Palette {
		return palette.Rainbow(paletteSize, palette.Blue, palette.Red, 1, 1, 1)
	},
	"gray":               func() palette.Palette { return grayPalette(paletteSize) },
	"kindlmann":          func() palette.Palette { return fromColorMap(moreland.Kindlmann()) },
	"blackbody":          func() palette.Palette { return fromColorMap(moreland.BlackBody()) },
	"extended-blackbody": func() palette.Palette { return fromColorMap(moreland.ExtendedBlackBody()) },
	"bluered":            func() palette.Palette { return fromColorMap(moreland.SmoothBlueRed()) },
}

// Colormaps returns the known colormap names, sorted.
func Colormaps() []string {
	names := make([]string, 0, len(colormaps))
	for name := range colormaps {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// LookupColormap returns the palette registered under name. Unknown names get
// a "did you mean" suggestion.
func LookupColormap(name string) (palette.Palette, error) {
	if build, ok := colormaps[name]; ok {
		return build(), nil
	}
	return nil, util.UnknownNameError("colormap", name, Colormaps())
}

func fromColorMap(cm palette.ColorMap) palette.Palette {
	cm.SetMin(0)
	cm.SetMax(1)
	return cm.Palette(paletteSize)
}

type grayScale []color.Color

func (g grayScale) Colors() []color.Color { return g }

func grayPalette(n int) palette.Palette {
	g := make(grayScale, n)
	for i := range g {
		v := uint8(i * 255 / (n - 1))
		g[i] = color.Gray{Y: v}
	}
	return g
}
