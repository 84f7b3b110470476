package impedance

import (
	"math"
)

// airy returns Ai(x), Ai'(x), Bi(x), Bi'(x) for real x >= 0.
//
// The Maclaurin series is used below the crossover and the standard
// asymptotic expansions above it. The parallel-plates mode sum only ever
// needs non-negative arguments, so the oscillatory branch is not
// implemented.
func airy(x float64) (ai, aip, bi, bip float64) {
	if x < 0 {
		panic("airy: negative argument")
	}
	if x < 6.5 {
		return airySeries(x)
	}
	return airyAsymptotic(x)
}

// Ai(0), Bi(0) and their derivatives.
var (
	ai0  = 1 / (math.Pow(3, 2./3.) * gamma23)
	aip0 = -1 / (math.Cbrt(3) * gamma13)
	bi0  = 1 / (math.Pow(3, 1./6.) * gamma23)
	bip0 = math.Pow(3, 1./6.) / gamma13
)

var (
	gamma13 = math.Gamma(1. / 3.)
	gamma23 = math.Gamma(2. / 3.)
)

// airySeries sums Ai = c1*f - c2*g where f and g are the two independent
// Maclaurin solutions of y'' = x*y.
func airySeries(x float64) (ai, aip, bi, bip float64) {
	if x == 0 {
		return ai0, aip0, bi0, bip0
	}

	// f = sum x^(3k)/(3k)! * prod, g = sum x^(3k+1) * ...
	f, g := 1.0, x
	fp, gp := 0.0, 1.0

	tf, tg := 1.0, x
	x3 := x * x * x
	for k := 1; k <= 40; k++ {
		k3 := float64(3 * k)
		tf *= x3 / (k3 * (k3 - 1))
		tg *= x3 / (k3 * (k3 + 1))
		f += tf
		g += tg
		fp += tf * k3 / x
		gp += tg * (k3 + 1) / x
		if tf < 1e-18*f && tg < 1e-18*g {
			break
		}
	}

	ai = ai0*f + aip0*g
	aip = ai0*fp + aip0*gp
	bi = bi0*f + bip0*g
	bip = bi0*fp + bip0*gp
	return ai, aip, bi, bip
}

// airyAsymptotic evaluates the large-argument expansions
// Ai ~ exp(-z)/(2 sqrt(pi)) x^(-1/4) sum(-1)^k u_k z^-k and the Bi
// counterparts, with z = (2/3) x^(3/2).
func airyAsymptotic(x float64) (ai, aip, bi, bip float64) {
	z := 2. / 3. * math.Pow(x, 1.5)
	x14 := math.Pow(x, 0.25)

	var sa, sap, sb, sbp float64
	u, v := 1.0, 1.0
	for k := 0; k <= 12; k++ {
		if k > 0 {
			kf := float64(k)
			c := (6*kf - 5) * (6*kf - 3) * (6*kf - 1) / (216 * kf * (2*kf - 1))
			u *= c / z
			v = u * (6*kf + 1) / (1 - 6*kf)
		}
		sign := 1.0
		if k%2 == 1 {
			sign = -1
		}
		sa += sign * u
		sap += sign * v
		sb += u
		sbp += v
	}

	em := math.Exp(-z)
	ep := math.Exp(z)
	sqrtPi := math.Sqrt(math.Pi)

	ai = em / (2 * sqrtPi * x14) * sa
	aip = -em * x14 / (2 * sqrtPi) * sap
	bi = ep / (sqrtPi * x14) * sb
	bip = ep * x14 / sqrtPi * sbp
	return ai, aip, bi, bip
}
