package mapctl

import (
	"math"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

const (
	// tileSize is the world size in CSS pixels at zoom 0.
	tileSize = 512.0
	// DotSize is how many CSS pixels one braille dot stands for.
	DotSize = 4.0

	// worldMeters is the Web-Mercator world width in meters.
	worldMeters = 2 * math.Pi * orb.EarthRadius
)

// Camera is a viewport position.
type Camera struct {
	Center orb.Point
	Zoom   float64
}

type transition struct {
	from, to Camera
	start    time.Time
	duration time.Duration
}

func (t transition) at(now time.Time) Camera {
	if t.duration <= 0 || !now.Before(t.start.Add(t.duration)) {
		return t.to
	}
	f := float64(now.Sub(t.start)) / float64(t.duration)
	if f < 0 {
		f = 0
	}
	fx, fy := mercator(t.from.Center)
	tx, ty := mercator(t.to.Center)
	return Camera{
		Center: fromMercator(fx+(tx-fx)*f, fy+(ty-fy)*f),
		Zoom:   t.from.Zoom + (t.to.Zoom-t.from.Zoom)*f,
	}
}

func (t transition) done(now time.Time) bool {
	return t.duration <= 0 || !now.Before(t.start.Add(t.duration))
}

// Viewport projects between geographic points and dot coordinates.
type Viewport struct {
	Camera Camera
	Width  int // dots
	Height int // dots
}

func (v Viewport) worldSize() float64 {
	return tileSize * math.Pow(2, v.Camera.Zoom)
}

// Project returns the dot position of p; (0,0) is the top-left corner.
func (v Viewport) Project(p orb.Point) (x, y float64) {
	ws := v.worldSize()
	cx, cy := mercator(v.Camera.Center)
	mx, my := mercator(p)
	px := (mx-cx)*ws + float64(v.Width)*DotSize/2
	py := (my-cy)*ws + float64(v.Height)*DotSize/2
	return px / DotSize, py / DotSize
}

// Unproject returns the geographic point under dot (x, y).
func (v Viewport) Unproject(x, y float64) orb.Point {
	ws := v.worldSize()
	cx, cy := mercator(v.Camera.Center)
	mx := cx + (x*DotSize-float64(v.Width)*DotSize/2)/ws
	my := cy + (y*DotSize-float64(v.Height)*DotSize/2)/ws
	return fromMercator(mx, my)
}

// fitCamera returns the camera that shows b inside a width x height dot
// viewport with padding CSS pixels on every side.
func fitCamera(b orb.Bound, width, height int, padding, maxZoom float64) Camera {
	w := float64(width)*DotSize - 2*padding
	h := float64(height)*DotSize - 2*padding
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	x0, y0 := mercator(orb.Point{b.Min.Lon(), b.Max.Lat()})
	x1, y1 := mercator(orb.Point{b.Max.Lon(), b.Min.Lat()})
	dx, dy := x1-x0, y1-y0

	zoom := maxZoom
	if dx > 0 || dy > 0 {
		scale := math.Inf(1)
		if dx > 0 {
			scale = w / (dx * tileSize)
		}
		if dy > 0 {
			scale = math.Min(scale, h/(dy*tileSize))
		}
		zoom = math.Log2(scale)
	}
	zoom = math.Max(0, math.Min(zoom, maxZoom))

	return Camera{
		Center: fromMercator((x0+x1)/2, (y0+y1)/2),
		Zoom:   zoom,
	}
}

// mercator returns p in world units: x and y in [0, 1] with y pointing down.
// Latitudes beyond the Web-Mercator limit are clamped.
func mercator(p orb.Point) (x, y float64) {
	m := project.WGS84.ToMercator(p)
	return m[0]/worldMeters + 0.5, 0.5 - m[1]/worldMeters
}

func fromMercator(x, y float64) orb.Point {
	return project.Mercator.ToWGS84(orb.Point{(x - 0.5) * worldMeters, (0.5 - y) * worldMeters})
}
