// Package integrand provides the real functions the estimator integrates and
// their reference values.
package integrand

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/integrate/quad"
)

// Func is a pure real function of one variable.
type Func func(x float64) float64

// DefaultName is the integrand used when none is configured.
const DefaultName = "poly"

// ReferenceNodes is the number of Gauss-Legendre nodes used by Reference.
const ReferenceNodes = 64

// ErrUnknownIntegrand is returned by Lookup for names not in the registry.
var ErrUnknownIntegrand = errors.New("unknown integrand")

// Polynomial returns x + x² + x³.
func Polynomial(x float64) float64 {
	return x + x*x + x*x*x
}

// PolynomialAntiderivative returns x²/2 + x³/3 + x⁴/4.
func PolynomialAntiderivative(x float64) float64 {
	x2 := x * x
	return x2/2 + x2*x/3 + x2*x2/4
}

// Exact returns the closed-form integral of Polynomial over [a, b].
func Exact(a, b float64) float64 {
	return PolynomialAntiderivative(b) - PolynomialAntiderivative(a)
}

// Reference integrates f over [a, b] with a fixed Gauss-Legendre rule.
// The result is exact for polynomials of degree below 2*ReferenceNodes.
// Swapped bounds negate the result.
func Reference(f Func, a, b float64) float64 {
	switch {
	case a == b:
		return 0
	case a > b:
		return -Reference(f, b, a)
	}
	return quad.Fixed(f, a, b, ReferenceNodes, nil, 0)
}

// Entry is a named integrand together with its reference integral.
type Entry struct {
	Name     string
	Expr     string
	F        Func
	Integral func(a, b float64) float64
}

var registry = map[string]Entry{
	"poly": {
		Name:     "poly",
		Expr:     "x + x^2 + x^3",
		F:        Polynomial,
		Integral: Exact,
	},
	"square": {
		Name: "square",
		Expr: "x^2",
		F:    func(x float64) float64 { return x * x },
		Integral: func(a, b float64) float64 {
			return (b*b*b - a*a*a) / 3
		},
	},
	"sin": {
		Name:     "sin",
		Expr:     "sin(x)",
		F:        math.Sin,
		Integral: func(a, b float64) float64 { return math.Cos(a) - math.Cos(b) },
	},
	"exp": {
		Name:     "exp",
		Expr:     "exp(x)",
		F:        math.Exp,
		Integral: func(a, b float64) float64 { return math.Exp(b) - math.Exp(a) },
	},
}

// Lookup returns the registered integrand with the given name.
func Lookup(name string) (Entry, error) {
	e, ok := registry[name]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q (known: %v)", ErrUnknownIntegrand, name, Names())
	}
	return e, nil
}

// Names returns the registered integrand names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
