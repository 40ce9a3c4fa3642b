// Copyright 2025 Certen Protocol
//
// ECDSA P-256 device keys and the signature-recovery arithmetic needed to
// recast verification as (s*T + U).x == Q_x, per spec §4.5. Grounded on
// original_source/ecdsa-pop/src/lib.rs's compute_RTU/compute_TU.
package device

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"math/big"
)

// KeyPair is a device's ECDSA P-256 signing key.
type KeyPair struct {
	priv *ecdsa.PrivateKey
}

// GenerateKeyPair samples a fresh P-256 device key.
func GenerateKeyPair() (*KeyPair, error) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("device: generate key: %w", err)
	}
	return &KeyPair{priv: priv}, nil
}

// PublicKeyCoords returns the device public key's affine coordinates.
func (k *KeyPair) PublicKeyCoords() (x, y *big.Int) {
	return k.priv.PublicKey.X, k.priv.PublicKey.Y
}

// Sign produces a raw (r, s) ECDSA signature over a pre-hashed digest.
func (k *KeyPair) Sign(digest []byte) (r, s *big.Int, err error) {
	return ecdsa.Sign(rand.Reader, k.priv, digest)
}

// Signature bundles a raw ECDSA signature with the digest it covers.
type Signature struct {
	R, S   *big.Int
	Digest []byte
}

// SplitPublicKeyX splits a 256-bit public-key x-coordinate into two
// 128-bit halves q0 (low) and q1 (high), matching how the issuer
// committed the device key across two Committed inputs (spec §4.5).
func SplitPublicKeyX(qx *big.Int) (q0, q1 *big.Int) {
	mask := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
	q0 = new(big.Int).And(qx, mask)
	q1 = new(big.Int).Rsh(qx, 128)
	return q0, q1
}

// JoinPublicKeyX reconstructs Q_x = q0 + 2^128*q1.
func JoinPublicKeyX(q0, q1 *big.Int) *big.Int {
	shifted := new(big.Int).Lsh(q1, 128)
	return new(big.Int).Add(q0, shifted)
}

// digestToScalar reduces a SHA-256 digest into P-256's scalar field,
// the standard ECDSA convention for curves whose order matches the
// hash's bit length.
func digestToScalar(digest []byte) *big.Int {
	n := elliptic.P256().Params().N
	d := new(big.Int).SetBytes(digest)
	return d.Mod(d, n)
}

// RecoverR recomputes the ECDSA nonce point R = G*(digest*s^-1) +
// Q*(r*s^-1) from a valid signature and public key. Used prover-side;
// the verifier never sees Q and instead trusts the prover's claimed R,
// checked indirectly through the Groth16 circuit.
func RecoverR(qx, qy, r, s *big.Int, digest []byte) (rx, ry *big.Int, err error) {
	curve := elliptic.P256()
	n := curve.Params().N
	if s.Sign() == 0 {
		return nil, nil, fmt.Errorf("device: zero s in signature")
	}
	sInv := new(big.Int).ModInverse(s, n)
	if sInv == nil {
		return nil, nil, fmt.Errorf("device: s not invertible mod n")
	}
	d := digestToScalar(digest)
	u := new(big.Int).Mul(d, sInv)
	u.Mod(u, n)
	v := new(big.Int).Mul(r, sInv)
	v.Mod(v, n)

	ux, uy := curve.ScalarBaseMult(u.Bytes())
	vx, vy := curve.ScalarMult(qx, qy, v.Bytes())
	rx, ry = curve.Add(ux, uy, vx, vy)
	return rx, ry, nil
}

// ComputeTU derives (T, U) from the revealed nonce point R and the
// signed digest: T = R*r^-1, U = G*(-digest*r^-1), where r = R.x mod n.
// This is the "modified verification equation" recast spec §4.5 step 7
// checks in-circuit as (s*T + U).x == Q_x.
func ComputeTU(rx, ry *big.Int, digest []byte) (tx, ty, ux, uy *big.Int, err error) {
	curve := elliptic.P256()
	n := curve.Params().N
	rScalar := new(big.Int).Mod(rx, n)
	if rScalar.Sign() == 0 {
		return nil, nil, nil, nil, fmt.Errorf("device: R.x reduces to zero mod n")
	}
	rInv := new(big.Int).ModInverse(rScalar, n)
	if rInv == nil {
		return nil, nil, nil, nil, fmt.Errorf("device: R.x not invertible mod n")
	}
	tx, ty = curve.ScalarMult(rx, ry, rInv.Bytes())

	d := digestToScalar(digest)
	negDRInv := new(big.Int).Mul(d, rInv)
	negDRInv.Mod(negDRInv, n)
	negDRInv.Sub(n, negDRInv)
	negDRInv.Mod(negDRInv, n)
	ux, uy = curve.ScalarBaseMult(negDRInv.Bytes())
	return tx, ty, ux, uy, nil
}

// Digest256 is a convenience SHA-256 helper matching the teacher's and
// original's habit of pre-hashing messages before signing.
func Digest256(msg []byte) []byte {
	sum := sha256.Sum256(msg)
	return sum[:]
}
