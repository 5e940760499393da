package components

import (
	"math"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/paulmach/orb"

	"github.com/rendis/geobounds/internal/engine/mapctl"
	"github.com/rendis/geobounds/internal/engine/style"
	"github.com/rendis/geobounds/internal/tui/styles"
)

// Braille character encoding:
// Each braille char is a 2x4 dot grid.
// Dot positions:  0 3
//
//	1 4
//	2 5
//	6 7
//
// Unicode: 0x2800 + sum of raised dot bits
var brailleDots = [4][2]rune{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

// 4x4 ordered dither thresholds, used to stipple fills.
var bayer = [4][4]float64{
	{0, 8, 2, 10},
	{12, 4, 14, 6},
	{3, 11, 1, 9},
	{15, 7, 13, 5},
}

type cell struct {
	bits  rune
	color string
}

// MapView renders engine frames with Braille characters and tracks the
// crosshair used as the pointer.
type MapView struct {
	width  int // cells
	height int
	crossX int
	crossY int
}

func NewMapView(width, height int) MapView {
	m := MapView{}
	m.SetSize(width, height)
	return m
}

// SetSize resizes the view and recentres the crosshair.
func (m *MapView) SetSize(width, height int) {
	m.width = max(width, 1)
	m.height = max(height, 1)
	m.crossX = m.width / 2
	m.crossY = m.height / 2
}

// Dots is the viewport size in braille dots.
func (m MapView) Dots() (int, int) {
	return m.width * 2, m.height * 4
}

// MoveCrosshair moves the crosshair by whole cells, clamped to the view.
func (m *MapView) MoveCrosshair(dx, dy int) {
	m.crossX = min(max(m.crossX+dx, 0), m.width-1)
	m.crossY = min(max(m.crossY+dy, 0), m.height-1)
}

// CrosshairDot is the dot at the centre of the crosshair cell.
func (m MapView) CrosshairDot() (float64, float64) {
	return float64(m.crossX*2) + 1, float64(m.crossY*4) + 2
}

// CrosshairPoint is the geographic point under the crosshair.
func (m MapView) CrosshairPoint(vp mapctl.Viewport) orb.Point {
	return vp.Unproject(m.CrosshairDot())
}

func (m MapView) Render(f mapctl.Frame) string {
	dotW, dotH := m.Dots()
	grid := make([][]cell, m.height)
	for i := range grid {
		grid[i] = make([]cell, m.width)
	}
	bg, _ := colorful.Hex(string(styles.BgDark))

	set := func(x, y int, color string) {
		if x < 0 || y < 0 || x >= dotW || y >= dotH {
			return
		}
		c := &grid[y/4][x/2]
		c.bits |= brailleDots[y%4][x%2]
		c.color = color
	}

	zoom := f.Viewport.Camera.Zoom
	for _, fl := range f.Layers {
		l := fl.Layer
		switch l.Type {
		case style.LayerRaster:
			drawGraticule(f.Viewport, string(styles.Grid), set)
		case style.LayerFill:
			c := l.Paint.Color("fill-color", zoom, style.Color{A: 1})
			alpha := c.A * l.Paint.Number("fill-opacity", zoom, 1)
			if alpha <= 0 {
				continue
			}
			color := blend(bg, c, math.Min(1, 0.35+alpha*3))
			density := math.Min(1, alpha*2)
			for _, feat := range fl.Features {
				fillGeometry(f.Viewport, feat.Geometry, func(x, y int) {
					if (bayer[y%4][x%4]+0.5)/16 < density {
						set(x, y, color)
					}
				})
			}
		case style.LayerLine:
			c := l.Paint.Color("line-color", zoom, style.Color{A: 1})
			alpha := c.A * l.Paint.Number("line-opacity", zoom, 1)
			if alpha <= 0 {
				continue
			}
			color := blend(bg, c, math.Max(alpha, 0.5))
			thick := l.Paint.Number("line-width", zoom, 1) >= 3
			for _, feat := range fl.Features {
				strokeGeometry(f.Viewport, feat.Geometry, func(x, y int) {
					set(x, y, color)
					if thick {
						set(x+1, y, color)
						set(x, y+1, color)
					}
				})
			}
		}
	}

	crossStyle := styles.Crosshair
	crossRune := "+"
	if f.Cursor == mapctl.CursorPointer {
		crossStyle = crossStyle.Foreground(styles.Highlight)
		crossRune = "✛"
	}

	styleCache := map[string]lipgloss.Style{}
	var sb strings.Builder
	for row := 0; row < m.height; row++ {
		for col := 0; col < m.width; col++ {
			if row == m.crossY && col == m.crossX {
				sb.WriteString(crossStyle.Render(crossRune))
				continue
			}
			c := grid[row][col]
			if c.bits == 0 {
				sb.WriteRune(' ')
				continue
			}
			st, ok := styleCache[c.color]
			if !ok {
				st = lipgloss.NewStyle().Foreground(lipgloss.Color(c.color))
				styleCache[c.color] = st
			}
			sb.WriteString(st.Render(string(0x2800 | c.bits)))
		}
		if row < m.height-1 {
			sb.WriteRune('\n')
		}
	}
	return sb.String()
}

func blend(bg colorful.Color, c style.Color, t float64) string {
	return bg.BlendRgb(c.Color, t).Clamped().Hex()
}

func rings(g orb.Geometry) []orb.Ring {
	switch g := g.(type) {
	case orb.Polygon:
		return g
	case orb.MultiPolygon:
		var out []orb.Ring
		for _, p := range g {
			out = append(out, p...)
		}
		return out
	}
	return nil
}

type dotPoint struct{ x, y float64 }

func projectRing(vp mapctl.Viewport, r orb.Ring) []dotPoint {
	out := make([]dotPoint, len(r))
	for i, p := range r {
		out[i].x, out[i].y = vp.Project(p)
	}
	return out
}

func visible(vp mapctl.Viewport, b orb.Bound) bool {
	x0, y0 := vp.Project(orb.Point{b.Min.Lon(), b.Max.Lat()})
	x1, y1 := vp.Project(orb.Point{b.Max.Lon(), b.Min.Lat()})
	return x1 >= 0 && y1 >= 0 && x0 < float64(vp.Width) && y0 < float64(vp.Height)
}

// fillGeometry calls plot for every dot inside g (even-odd rule).
func fillGeometry(vp mapctl.Viewport, g orb.Geometry, plot func(x, y int)) {
	if g == nil || !visible(vp, g.Bound()) {
		return
	}
	var projected [][]dotPoint
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, r := range rings(g) {
		pr := projectRing(vp, r)
		for _, p := range pr {
			minY = math.Min(minY, p.y)
			maxY = math.Max(maxY, p.y)
		}
		projected = append(projected, pr)
	}

	y0 := max(int(math.Floor(minY)), 0)
	y1 := min(int(math.Ceil(maxY)), vp.Height-1)
	var xs []float64
	for y := y0; y <= y1; y++ {
		sy := float64(y) + 0.5
		xs = xs[:0]
		for _, pr := range projected {
			for i := 0; i+1 < len(pr); i++ {
				a, b := pr[i], pr[i+1]
				if (a.y <= sy) == (b.y <= sy) {
					continue
				}
				xs = append(xs, a.x+(sy-a.y)*(b.x-a.x)/(b.y-a.y))
			}
		}
		slices.Sort(xs)
		for i := 0; i+1 < len(xs); i += 2 {
			from := max(int(math.Ceil(xs[i]-0.5)), 0)
			to := min(int(math.Floor(xs[i+1]-0.5)), vp.Width-1)
			for x := from; x <= to; x++ {
				plot(x, y)
			}
		}
	}
}

// strokeGeometry calls plot along every ring edge of g.
func strokeGeometry(vp mapctl.Viewport, g orb.Geometry, plot func(x, y int)) {
	if g == nil || !visible(vp, g.Bound()) {
		return
	}
	limit := float64(4 * max(vp.Width, vp.Height))
	for _, r := range rings(g) {
		pr := projectRing(vp, r)
		for i := 0; i+1 < len(pr); i++ {
			a, b := pr[i], pr[i+1]
			// Segments far off-screen would cost a long walk for nothing.
			if math.Abs(a.x) > limit || math.Abs(a.y) > limit || math.Abs(b.x) > limit || math.Abs(b.y) > limit {
				continue
			}
			drawLine(int(math.Floor(a.x)), int(math.Floor(a.y)), int(math.Floor(b.x)), int(math.Floor(b.y)), plot)
		}
	}
}

// drawGraticule stands in for the raster basemap: meridians and parallels
// at a spacing that suits the zoom.
func drawGraticule(vp mapctl.Viewport, color string, set func(x, y int, color string)) {
	nw := vp.Unproject(0, 0)
	se := vp.Unproject(float64(vp.Width), float64(vp.Height))
	span := se.Lon() - nw.Lon()
	step := 30.0
	for _, s := range []float64{30, 10, 5, 2, 1, 0.5, 0.25, 0.1} {
		step = s
		if span/s >= 3 {
			break
		}
	}
	for lon := math.Ceil(nw.Lon()/step) * step; lon <= se.Lon(); lon += step {
		x, _ := vp.Project(orb.Point{lon, 0})
		for y := 0; y < vp.Height; y += 2 {
			set(int(x), y, color)
		}
	}
	for lat := math.Ceil(se.Lat()/step) * step; lat <= nw.Lat(); lat += step {
		_, y := vp.Project(orb.Point{0, lat})
		for x := 0; x < vp.Width; x += 3 {
			set(x, int(y), color)
		}
	}
}

// drawLine walks a line between two points using Bresenham's algorithm.
func drawLine(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx := 1
	if x0 >= x1 {
		sx = -1
	}
	sy := 1
	if y0 >= y1 {
		sy = -1
	}
	err := dx + dy

	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
