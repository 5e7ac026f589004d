package layout

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	_ "image/png" // bitmap icon decoding

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	xdraw "golang.org/x/image/draw"
)

// Icon is a pre-loaded button glyph, either vector or bitmap.
type Icon struct {
	svg    *oksvg.SvgIcon
	bitmap image.Image
}

// LoadIcon resolves a configured icon name against the asset directory,
// preferring an SVG over a bitmap of the same name.
func LoadIcon(dir, name string) (*Icon, error) {
	svgPath := filepath.Join(dir, name+".svg")
	if _, err := os.Stat(svgPath); err == nil {
		icon, err := oksvg.ReadIcon(svgPath, oksvg.WarnErrorMode)
		if err != nil {
			return nil, fmt.Errorf("read icon %s: %w", svgPath, err)
		}
		return &Icon{svg: icon}, nil
	}

	pngPath := filepath.Join(dir, name+".png")
	f, err := os.Open(pngPath)
	if err != nil {
		return nil, fmt.Errorf("icon %q not found in %s", name, dir)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode icon %s: %w", pngPath, err)
	}
	return &Icon{bitmap: img}, nil
}

// render draws the icon into a size×size box at (x, y).
func (ic *Icon) render(surface *image.RGBA, x, y, size int) {
	if ic.svg != nil {
		b := surface.Bounds()
		ic.svg.SetTarget(float64(x), float64(y), float64(size), float64(size))
		scanner := rasterx.NewScannerGV(b.Dx(), b.Dy(), surface, b)
		raster := rasterx.NewDasher(b.Dx(), b.Dy(), scanner)
		ic.svg.Draw(raster, 1.0)
		return
	}
	dst := image.Rect(x, y, x+size, y+size)
	xdraw.ApproxBiLinear.Scale(surface, dst, ic.bitmap, ic.bitmap.Bounds(), xdraw.Over, nil)
}
