// Copyright 2025 Certen Protocol
//
// Pedersen commitments and nothing-up-my-sleeve base derivation over bn254's
// G1, grounded on the hash-to-curve idiom in parsdao-pars/zk/pedersen.go.
package sigma

import (
	"crypto/sha256"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fp"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// Scalar is an element of F_r, the bn254 scalar field.
type Scalar = fr.Element

// G1Point is an affine point on bn254's G1.
type G1Point = bn254.G1Affine

// PedersenOpening is the holder-side record of a commitment: bases g,h,
// message m, randomness rho, and the resulting commitment c = g*m + h*rho.
type PedersenOpening struct {
	G, H G1Point
	M    Scalar
	Rho  Scalar
	C    G1Point
}

// CommitWithRandomness computes c = g*m + h*rho for caller-supplied rho,
// used when a specific blinding must be reused (e.g. device-binding's Com1').
func CommitWithRandomness(g, h G1Point, m, rho Scalar) PedersenOpening {
	var gm, hr, c G1Point
	gm.ScalarMultiplication(&g, scalarToBigInt(m))
	hr.ScalarMultiplication(&h, scalarToBigInt(rho))
	c.Add(&gm, &hr)
	return PedersenOpening{G: g, H: h, M: m, Rho: rho, C: c}
}

// Commit samples a fresh random rho and returns the resulting opening.
func Commit(g, h G1Point, m Scalar) (PedersenOpening, error) {
	var rho Scalar
	if _, err := rho.SetRandom(); err != nil {
		return PedersenOpening{}, err
	}
	return CommitWithRandomness(g, h, m, rho), nil
}

// DerivePedersenBases returns the canonical (g, h) bases used by the
// presentation core, derived via hash-to-curve from fixed domain strings
// (spec §4.1 "derive_pedersen_bases").
func DerivePedersenBases() (g, h G1Point) {
	return HashToG1("Pedersen commitment base 1"), HashToG1("Pedersen commitment base 2")
}

// HashToG1 derives a nothing-up-my-sleeve G1 point from a domain-separation
// string via try-and-increment: hash the domain+counter, interpret as an
// x-coordinate, and accept the first x for which y^2 = x^3 + 3 has a root.
func HashToG1(domain string) G1Point {
	var point G1Point
	seed := []byte(domain)
	for counter := byte(0); ; counter++ {
		data := append(append([]byte{}, seed...), counter)
		hash := sha256.Sum256(data)

		var x fp.Element
		x.SetBytes(hash[:])

		var x2, x3, rhs fp.Element
		x2.Square(&x)
		x3.Mul(&x2, &x)
		var three fp.Element
		three.SetInt64(3)
		rhs.Add(&x3, &three)

		var y fp.Element
		if y.Sqrt(&rhs) != nil {
			point.X, point.Y = x, y
			if point.IsOnCurve() && !point.IsInfinity() {
				return point
			}
		}
	}
}

func scalarToBigInt(s Scalar) *big.Int {
	return s.BigInt(new(big.Int))
}

// MSM computes Σ bases[j]*scalars[j] over G1.
func MSM(bases []G1Point, scalars []Scalar) G1Point {
	var acc bn254.G1Jac
	for j := range bases {
		var p bn254.G1Jac
		p.FromAffine(&bases[j])
		p.ScalarMultiplication(&p, scalarToBigInt(scalars[j]))
		acc.AddAssign(&p)
	}
	var res G1Point
	res.FromJacobian(&acc)
	return res
}
