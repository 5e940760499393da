package style

import (
	"fmt"
	"strconv"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Color is an RGB colour with alpha in [0, 1].
type Color struct {
	colorful.Color
	A float64
}

// ParseColor accepts "#rgb", "#rrggbb", "rgb(r, g, b)" and "rgba(r, g, b, a)".
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	switch {
	case strings.HasPrefix(s, "#"):
		c, err := colorful.Hex(s)
		if err != nil {
			return Color{}, fmt.Errorf("%w: colour %s: %v", ErrUnsupported, s, err)
		}
		return Color{Color: c, A: 1}, nil
	case strings.HasPrefix(s, "rgba(") && strings.HasSuffix(s, ")"):
		return parseFunc(s[len("rgba("):len(s)-1], 4)
	case strings.HasPrefix(s, "rgb(") && strings.HasSuffix(s, ")"):
		return parseFunc(s[len("rgb("):len(s)-1], 3)
	}
	return Color{}, fmt.Errorf("%w: colour %q", ErrUnsupported, s)
}

// parseFunc reads the comma-separated body of rgb()/rgba(); channels are 0-255.
func parseFunc(body string, n int) (Color, error) {
	parts := strings.Split(body, ",")
	if len(parts) != n {
		return Color{}, fmt.Errorf("%w: colour needs %d components, got %d", ErrUnsupported, n, len(parts))
	}
	vals := make([]float64, n)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Color{}, fmt.Errorf("parsing colour component %q: %w", p, err)
		}
		vals[i] = v
	}
	c := Color{Color: colorful.Color{R: vals[0] / 255, G: vals[1] / 255, B: vals[2] / 255}, A: 1}
	if n == 4 {
		c.A = vals[3]
	}
	return c, nil
}

// Lerp blends in RGB space; t=0 gives c, t=1 gives o.
func (c Color) Lerp(o Color, t float64) Color {
	return Color{
		Color: c.Color.BlendRgb(o.Color, t),
		A:     c.A + (o.A-c.A)*t,
	}
}

// Hex returns the opaque "#rrggbb" form.
func (c Color) Hex() string {
	return c.Clamped().Hex()
}

func (c Color) String() string {
	r, g, b := c.Clamped().RGB255()
	return fmt.Sprintf("rgba(%d, %d, %d, %s)", r, g, b, strconv.FormatFloat(c.A, 'f', -1, 64))
}
