// Copyright 2025 Certen Protocol
//
// DeviceProof: binds a presentation to possession of the device private
// key by proving, without revealing the device public key, that an
// ECDSA signature verifies under it (spec §4.5). Grounded on
// original_source/creds/src/device.rs's DeviceProof::prove/verify.
package device

import (
	"crypto/elliptic"
	"crypto/sha256"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/poseidon2"
	"github.com/consensys/gnark/std/math/emulated"
	"github.com/consensys/gnark/std/math/emulated/emparams"

	"github.com/certen/credential-presentation/pkg/sigma"
)

var (
	contextE   = []byte("computing challenge for linking proof")
	contextPi0 = []byte("creating sigma proof pi0 for linking proof")
	contextPi1 = []byte("creating sigma proof pi1 for linking proof")
)

// Proof is the wire form of a DeviceProof (spec §4.5 step 8).
type Proof struct {
	Rx, Ry *big.Int
	Digest []byte
	Com1   sigma.G1Point
	ComZ   sigma.G1Point
	HQ     []byte
	M      fr.Element
	Pi0    *sigma.Proof
	Pi1    *sigma.Proof
	Pi2    *CircuitProof
}

// Prove builds a DeviceProof per spec §4.5 steps 1-8.
//
// com0 is the externally held Pedersen opening of q0 under bases
// (g, h); com1Orig is the opening of q1 under the issuer's different
// bases (g', h'). sig/pubkey are the raw ECDSA signature and public
// key whose possession is being proven.
func Prove(keys *CircuitKeys, g, h sigma.G1Point, com0 sigma.PedersenOpening, com1Orig sigma.PedersenOpening, gPrime, hPrime sigma.G1Point, sig Signature, pubX, pubY *big.Int) (*Proof, error) {
	var z fr.Element
	if _, err := z.SetRandom(); err != nil {
		return nil, fmt.Errorf("device: sample z: %w", err)
	}
	var rhoZ fr.Element
	if _, err := rhoZ.SetRandom(); err != nil {
		return nil, fmt.Errorf("device: sample rho_z: %w", err)
	}
	comZ := sigma.CommitWithRandomness(g, h, z, rhoZ)

	q0 := com0.M
	q1 := com1Orig.M

	hQ := poseidonHash(q0, q1, z)

	// Step 1: re-commit q1 under com0's bases and prove equality with
	// the issuer-side commitment under (g', h').
	var rho1Prime fr.Element
	if _, err := rho1Prime.SetRandom(); err != nil {
		return nil, fmt.Errorf("device: sample rho1': %w", err)
	}
	com1 := sigma.CommitWithRandomness(g, h, q1, rho1Prime)

	bases1 := [][]sigma.G1Point{{gPrime, hPrime}, {g, h}}
	scalars1 := [][]sigma.Scalar{{q1, com1Orig.Rho}, {q1, rho1Prime}}
	y1 := []sigma.G1Point{com1Orig.C, com1.C}
	pi0, err := sigma.Prove(contextPi0, y1, bases1, scalars1, []sigma.EqPos{{A: 0, B: 0}})
	if err != nil {
		return nil, fmt.Errorf("device: pi0: %w", err)
	}

	// Step 4: Fiat-Shamir challenge bytes, split into e1, e2.
	digest := fiatShamirE(pi0, com0.C, com1.C, comZ.C, hQ)
	e1, e2 := splitChallenge(digest)

	// Step 5: combine.
	var e1q1, e2z, m fr.Element
	e1q1.Mul(&e1, &q1)
	e2z.Mul(&e2, &z)
	m.Add(&q0, &e1q1)
	m.Add(&m, &e2z)

	var rhoM fr.Element
	var e1rho1, e2rhoZ fr.Element
	e1rho1.Mul(&e1, &rho1Prime)
	e2rhoZ.Mul(&e2, &rhoZ)
	rhoM.Add(&com0.Rho, &e1rho1)
	rhoM.Add(&rhoM, &e2rhoZ)

	// Step 6: pi1 proves knowledge of rho_m s.t. C_m - g*m = h*rho_m, and
	// of (z, rho_z) s.t. Com_z = g*z + h*rho_z.
	cM := sigma.MSM([]sigma.G1Point{com0.C, com1.C, comZ.C}, []sigma.Scalar{fr.NewElement(1), e1, e2})
	var negM fr.Element
	negM.Neg(&m)
	lhs1 := sigma.MSM([]sigma.G1Point{cM, g}, []sigma.Scalar{fr.NewElement(1), negM})
	bases2 := [][]sigma.G1Point{{h}, {g, h}}
	scalars2 := [][]sigma.Scalar{{rhoM}, {z, rhoZ}}
	y2 := []sigma.G1Point{lhs1, comZ.C}
	pi1, err := sigma.Prove(contextPi1, y2, bases2, scalars2, nil)
	if err != nil {
		return nil, fmt.Errorf("device: pi1: %w", err)
	}

	// Step 7: recover R and compute (T, U), then prove the ECDSA-recast
	// relation with Groth16.
	rx, ry, err := RecoverR(pubX, pubY, sig.R, sig.S, sig.Digest)
	if err != nil {
		return nil, fmt.Errorf("device: recover R: %w", err)
	}
	tx, ty, ux, uy, err := ComputeTU(rx, ry, sig.Digest)
	if err != nil {
		return nil, fmt.Errorf("device: compute T,U: %w", err)
	}

	sScalar := new(big.Int).Mod(sig.S, curveOrder())
	witness := ecdsaRecastWitness{
		Tx: emulated.ValueOf[emparams.P256Fp](tx), Ty: emulated.ValueOf[emparams.P256Fp](ty),
		Ux: emulated.ValueOf[emparams.P256Fp](ux), Uy: emulated.ValueOf[emparams.P256Fp](uy),
		HQ: hashToVariable(hQ), M: m.String(), E1: e1.String(), E2: e2.String(),
		S:  emulated.ValueOf[emparams.P256Fr](sScalar),
		Q0: q0.String(), Q1: q1.String(), Z: z.String(),
	}
	pi2, err := proveCircuit(keys, witness)
	if err != nil {
		return nil, fmt.Errorf("device: pi2: %w", err)
	}

	return &Proof{
		Rx: rx, Ry: ry, Digest: sig.Digest,
		Com1: com1.C, ComZ: comZ.C, HQ: hQ, M: m,
		Pi0: pi0, Pi1: pi1, Pi2: pi2,
	}, nil
}

// Verify checks a DeviceProof per spec §4.5's verification paragraph.
// g, h are com0's bases; gPrime, hPrime are the issuer's bases for the
// original q1 commitment; com0C and com1OrigC are the externally held
// commitments to q0 and q1 respectively.
func Verify(keys *CircuitKeys, g, h, gPrime, hPrime sigma.G1Point, com0C, com1OrigC sigma.G1Point, proof *Proof) bool {
	if proof == nil {
		return false
	}

	// pi0: com1 (under g,h, carried in the proof) commits to the same
	// value as com1_orig (under gPrime,hPrime, held by the verifier).
	bases1 := [][]sigma.G1Point{{gPrime, hPrime}, {g, h}}
	y1 := []sigma.G1Point{com1OrigC, proof.Com1}
	if !sigma.Verify(proof.Pi0, contextPi0, bases1, y1, []sigma.EqPos{{A: 0, B: 0}}) {
		return false
	}

	digest := fiatShamirE(proof.Pi0, com0C, proof.Com1, proof.ComZ, proof.HQ)
	e1, e2 := splitChallenge(digest)

	cM := sigma.MSM([]sigma.G1Point{com0C, proof.Com1, proof.ComZ}, []sigma.Scalar{fr.NewElement(1), e1, e2})
	var negM fr.Element
	negM.Neg(&proof.M)
	lhs1 := sigma.MSM([]sigma.G1Point{cM, g}, []sigma.Scalar{fr.NewElement(1), negM})
	bases2 := [][]sigma.G1Point{{h}, {g, h}}
	y2 := []sigma.G1Point{lhs1, proof.ComZ}
	if !sigma.Verify(proof.Pi1, contextPi1, bases2, y2, nil) {
		return false
	}

	tx, ty, ux, uy, err := ComputeTU(proof.Rx, proof.Ry, proof.Digest)
	if err != nil {
		return false
	}
	witness := ecdsaRecastWitness{
		Tx: emulated.ValueOf[emparams.P256Fp](tx), Ty: emulated.ValueOf[emparams.P256Fp](ty),
		Ux: emulated.ValueOf[emparams.P256Fp](ux), Uy: emulated.ValueOf[emparams.P256Fp](uy),
		HQ: hashToVariable(proof.HQ), M: proof.M.String(), E1: e1.String(), E2: e2.String(),
	}
	return verifyCircuit(keys, proof.Pi2, witness)
}

func poseidonHash(q0, q1, z fr.Element) []byte {
	h := poseidon2.NewMerkleDamgardHasher()
	b0 := q0.Bytes()
	b1 := q1.Bytes()
	b2 := z.Bytes()
	h.Write(b0[:])
	h.Write(b1[:])
	h.Write(b2[:])
	return h.Sum(nil)
}

func fiatShamirE(pi0 *sigma.Proof, com0, com1, comZ sigma.G1Point, hQ []byte) []byte {
	sha := sha256.New()
	sha.Write(contextE)
	cBytes := pi0.C.Bytes()
	sha.Write(cBytes[:])
	b0 := com0.RawBytes()
	b1 := com1.RawBytes()
	bz := comZ.RawBytes()
	sha.Write(b0[:])
	sha.Write(b1[:])
	sha.Write(bz[:])
	sha.Write(hQ)
	return sha.Sum(nil)
}

// splitChallenge parses a 32-byte digest into two 128-bit scalars in F_r
// via little-endian reduction (spec §4.5 step 4).
func splitChallenge(digest []byte) (e1, e2 fr.Element) {
	e1Bytes := reverse(digest[0:16])
	e2Bytes := reverse(digest[16:32])
	e1.SetBytes(e1Bytes)
	e2.SetBytes(e2Bytes)
	return
}

func reverse(b []byte) []byte {
	out := make([]byte, len(b))
	for i := range b {
		out[i] = b[len(b)-1-i]
	}
	return out
}

func hashToVariable(h []byte) fr.Element {
	var e fr.Element
	e.SetBytes(h)
	return e
}

func curveOrder() *big.Int {
	return elliptic.P256().Params().N
}
