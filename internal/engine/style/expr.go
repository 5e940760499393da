// Package style holds the declarative map style records: sources, layers,
// paint properties and filter/paint expressions in MapLibre style-spec shape.
package style

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnsupported is returned when an expression operator cannot be evaluated.
var ErrUnsupported = errors.New("unsupported expression")

// Expr is a style-spec expression, e.g. ["==", ["get", "NAME_0"], "France"].
// Operands are literals, nested Expr values, or []any after JSON decoding.
type Expr []any

// Context carries the inputs an expression may read.
type Context struct {
	Zoom       float64
	Properties map[string]any
}

// Stop is one (zoom, value) pair of an interpolation.
type Stop struct {
	Zoom  float64
	Value any
}

func Get(field string) Expr { return Expr{"get", field} }
func Has(field string) Expr { return Expr{"has", field} }
func Zoom() Expr            { return Expr{"zoom"} }

func Eq(a, b any) Expr  { return Expr{"==", a, b} }
func Neq(a, b any) Expr { return Expr{"!=", a, b} }
func Not(e Expr) Expr   { return Expr{"!", e} }

func All(exprs ...Expr) Expr {
	out := Expr{"all"}
	for _, e := range exprs {
		out = append(out, e)
	}
	return out
}

func Any(exprs ...Expr) Expr {
	out := Expr{"any"}
	for _, e := range exprs {
		out = append(out, e)
	}
	return out
}

// InterpolateLinear builds ["interpolate", ["linear"], input, z0, v0, z1, v1, ...].
func InterpolateLinear(input Expr, stops ...Stop) Expr {
	out := Expr{"interpolate", Expr{"linear"}, input}
	for _, s := range stops {
		out = append(out, s.Zoom, s.Value)
	}
	return out
}

// Matches evaluates e as a filter. A nil filter matches everything; an
// expression that fails to evaluate matches nothing.
func (e Expr) Matches(props map[string]any) bool {
	if e == nil {
		return true
	}
	v, err := e.Eval(Context{Properties: props})
	if err != nil {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Eval evaluates the expression.
func (e Expr) Eval(ctx Context) (any, error) {
	if len(e) == 0 {
		return nil, fmt.Errorf("%w: empty expression", ErrUnsupported)
	}
	op, ok := e[0].(string)
	if !ok {
		return nil, fmt.Errorf("%w: operator %v", ErrUnsupported, e[0])
	}

	switch op {
	case "get":
		name, err := e.stringArg(1)
		if err != nil {
			return nil, err
		}
		return ctx.Properties[name], nil
	case "has":
		name, err := e.stringArg(1)
		if err != nil {
			return nil, err
		}
		_, ok := ctx.Properties[name]
		return ok, nil
	case "zoom":
		return ctx.Zoom, nil
	case "literal":
		if len(e) != 2 {
			return nil, fmt.Errorf("%w: literal arity", ErrUnsupported)
		}
		return e[1], nil
	case "==", "!=":
		if len(e) != 3 {
			return nil, fmt.Errorf("%w: %s arity", ErrUnsupported, op)
		}
		a, err := evalValue(e[1], ctx)
		if err != nil {
			return nil, err
		}
		b, err := evalValue(e[2], ctx)
		if err != nil {
			return nil, err
		}
		eq := valuesEqual(a, b)
		if op == "!=" {
			return !eq, nil
		}
		return eq, nil
	case "!":
		if len(e) != 2 {
			return nil, fmt.Errorf("%w: ! arity", ErrUnsupported)
		}
		v, err := evalBool(e[1], ctx)
		if err != nil {
			return nil, err
		}
		return !v, nil
	case "all":
		for _, arg := range e[1:] {
			v, err := evalBool(arg, ctx)
			if err != nil {
				return nil, err
			}
			if !v {
				return false, nil
			}
		}
		return true, nil
	case "any":
		for _, arg := range e[1:] {
			v, err := evalBool(arg, ctx)
			if err != nil {
				return nil, err
			}
			if v {
				return true, nil
			}
		}
		return false, nil
	case "interpolate":
		return e.interpolate(ctx)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupported, op)
}

func (e Expr) stringArg(i int) (string, error) {
	if len(e) <= i {
		return "", fmt.Errorf("%w: %v missing argument %d", ErrUnsupported, e[0], i)
	}
	s, ok := e[i].(string)
	if !ok {
		return "", fmt.Errorf("%w: %v argument %d is %T", ErrUnsupported, e[0], i, e[i])
	}
	return s, nil
}

func (e Expr) interpolate(ctx Context) (any, error) {
	if len(e) < 5 || (len(e)-3)%2 != 0 {
		return nil, fmt.Errorf("%w: interpolate arity", ErrUnsupported)
	}
	kind, ok := asExpr(e[1])
	if !ok || len(kind) == 0 || kind[0] != "linear" {
		return nil, fmt.Errorf("%w: only linear interpolation", ErrUnsupported)
	}
	in, err := evalValue(e[2], ctx)
	if err != nil {
		return nil, err
	}
	x, ok := toFloat(in)
	if !ok {
		return nil, fmt.Errorf("%w: interpolate input %T", ErrUnsupported, in)
	}

	var stops []Stop
	for i := 3; i < len(e); i += 2 {
		z, ok := toFloat(e[i])
		if !ok {
			return nil, fmt.Errorf("%w: stop input %v", ErrUnsupported, e[i])
		}
		stops = append(stops, Stop{Zoom: z, Value: e[i+1]})
	}

	if x <= stops[0].Zoom {
		return stopValue(stops[0].Value)
	}
	last := stops[len(stops)-1]
	if x >= last.Zoom {
		return stopValue(last.Value)
	}
	for i := 0; i < len(stops)-1; i++ {
		lo, hi := stops[i], stops[i+1]
		if x < lo.Zoom || x > hi.Zoom {
			continue
		}
		t := (x - lo.Zoom) / (hi.Zoom - lo.Zoom)
		return lerpValue(lo.Value, hi.Value, t)
	}
	return stopValue(last.Value)
}

func stopValue(v any) (any, error) {
	if f, ok := toFloat(v); ok {
		return f, nil
	}
	if s, ok := v.(string); ok {
		return ParseColor(s)
	}
	return nil, fmt.Errorf("%w: stop value %T", ErrUnsupported, v)
}

func lerpValue(a, b any, t float64) (any, error) {
	fa, okA := toFloat(a)
	fb, okB := toFloat(b)
	if okA && okB {
		return fa + (fb-fa)*t, nil
	}
	sa, okA := a.(string)
	sb, okB := b.(string)
	if !okA || !okB {
		return nil, fmt.Errorf("%w: mixed stop values %T/%T", ErrUnsupported, a, b)
	}
	ca, err := ParseColor(sa)
	if err != nil {
		return nil, err
	}
	cb, err := ParseColor(sb)
	if err != nil {
		return nil, err
	}
	return ca.Lerp(cb, t), nil
}

func evalValue(v any, ctx Context) (any, error) {
	if e, ok := asExpr(v); ok {
		return e.Eval(ctx)
	}
	return v, nil
}

func evalBool(v any, ctx Context) (bool, error) {
	r, err := evalValue(v, ctx)
	if err != nil {
		return false, err
	}
	b, ok := r.(bool)
	if !ok {
		return false, fmt.Errorf("%w: expected boolean, got %T", ErrUnsupported, r)
	}
	return b, nil
}

func asExpr(v any) (Expr, bool) {
	switch x := v.(type) {
	case Expr:
		return x, true
	case []any:
		return Expr(x), true
	}
	return nil, false
}

func valuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	fa, okA := toFloat(a)
	fb, okB := toFloat(b)
	if okA && okB {
		return fa == fb
	}
	switch x := a.(type) {
	case string:
		y, ok := b.(string)
		return ok && x == y
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
