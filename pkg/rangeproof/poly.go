// Copyright 2025 Certen Protocol
//
// Minimal dense-polynomial arithmetic over F_r, used to build the range
// proof's constraint polynomials. Interpolation/evaluation is done with
// direct O(n^2) formulas over the evaluation subgroup H rather than
// gnark-crypto's fft.Domain, to keep the bit-reversal / decimation
// ordering fully explicit and auditable by inspection (see DESIGN.md).
package rangeproof

import "github.com/consensys/gnark-crypto/ecc/bn254/fr"

type poly []fr.Element

func newPoly(n int) poly {
	return make(poly, n)
}

func (p poly) clone() poly {
	out := make(poly, len(p))
	copy(out, p)
	return out
}

// trim removes trailing zero coefficients (cosmetic only; callers must not
// assume a particular length).
func (p poly) trim() poly {
	n := len(p)
	for n > 0 && p[n-1].IsZero() {
		n--
	}
	return p[:n]
}

func polyAdd(a, b poly) poly {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	out := newPoly(n)
	for i := range out {
		var av, bv fr.Element
		if i < len(a) {
			av = a[i]
		}
		if i < len(b) {
			bv = b[i]
		}
		out[i].Add(&av, &bv)
	}
	return out
}

func polySub(a, b poly) poly {
	neg := make(poly, len(b))
	for i := range b {
		neg[i].Neg(&b[i])
	}
	return polyAdd(a, neg)
}

func polyScale(a poly, s fr.Element) poly {
	out := newPoly(len(a))
	for i := range a {
		out[i].Mul(&a[i], &s)
	}
	return out
}

// polyAddConst adds a scalar to the constant term.
func polyAddConst(a poly, c fr.Element) poly {
	out := a.clone()
	if len(out) == 0 {
		return poly{c}
	}
	out[0].Add(&out[0], &c)
	return out
}

func polyMul(a, b poly) poly {
	if len(a) == 0 || len(b) == 0 {
		return poly{}
	}
	out := newPoly(len(a) + len(b) - 1)
	for i := range a {
		if a[i].IsZero() {
			continue
		}
		for j := range b {
			var t fr.Element
			t.Mul(&a[i], &b[j])
			out[i+j].Add(&out[i+j], &t)
		}
	}
	return out
}

// oneMinus returns 1 - a(X).
func oneMinus(a poly) poly {
	one := fr.NewElement(1)
	out := make(poly, len(a))
	for i := range a {
		out[i].Neg(&a[i])
	}
	return polyAddConst(out, one)
}

// scaleVariable returns a(X*s): coefficient i scaled by s^i.
func scaleVariable(a poly, s fr.Element) poly {
	out := newPoly(len(a))
	var power fr.Element
	power.SetOne()
	for i := range a {
		out[i].Mul(&a[i], &power)
		power.Mul(&power, &s)
	}
	return out
}

// eval evaluates a(X) at x via Horner's rule.
func (p poly) eval(x fr.Element) fr.Element {
	var acc fr.Element
	for i := len(p) - 1; i >= 0; i-- {
		acc.Mul(&acc, &x)
		acc.Add(&acc, &p[i])
	}
	return acc
}

// interpolateOnSubgroup returns the unique degree-<n polynomial whose
// evaluation at omega^j equals evals[j], for omega a primitive n-th root
// of unity, via the direct inverse-DFT formula coeff[k] = (1/n) * Σ_j
// evals[j] * omega^{-jk}.
func interpolateOnSubgroup(evals []fr.Element, omega fr.Element) poly {
	n := len(evals)
	omegaInv := new(fr.Element).Inverse(&omega)

	// powers[j] = omegaInv^j
	powers := make([]fr.Element, n)
	powers[0].SetOne()
	for j := 1; j < n; j++ {
		powers[j].Mul(&powers[j-1], omegaInv)
	}

	var nInv fr.Element
	nInv.SetUint64(uint64(n))
	nInv.Inverse(&nInv)

	out := newPoly(n)
	for k := 0; k < n; k++ {
		var acc fr.Element
		for j := 0; j < n; j++ {
			idx := (j * k) % n
			var t fr.Element
			t.Mul(&evals[j], &powers[idx])
			acc.Add(&acc, &t)
		}
		out[k].Mul(&acc, &nInv)
	}
	return out
}

// divByXnMinus1 divides p(X) by (X^n - 1), returning the quotient. Callers
// must ensure p is exactly divisible (remainder discarded is expected to
// be the zero polynomial when the constraint system is satisfied).
func divByXnMinus1(p poly, n int) poly {
	work := p.clone()
	qlen := len(work) - n
	if qlen <= 0 {
		return poly{}
	}
	q := newPoly(qlen)
	for i := len(work) - 1; i >= n; i-- {
		coef := work[i]
		q[i-n] = coef
		work[i-n].Add(&work[i-n], &coef)
	}
	return q
}
