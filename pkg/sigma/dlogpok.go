// Copyright 2025 Certen Protocol
//
// DLogPoK: a Fiat-Shamir, Schnorr-style proof of knowledge of discrete-log
// representations across one or more statements, with optional
// cross-statement scalar-equality constraints (spec §4.1).
package sigma

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"hash"
	"math/big"
)

// EqPos names a pair of scalar positions, one in each of exactly two
// statements, whose values must be equal.
type EqPos struct {
	A, B int
}

// Proof is a DLogPoK: Fiat-Shamir challenge plus per-statement responses.
type Proof struct {
	C Scalar
	S [][]Scalar
}

// Prove proves knowledge of scalars[i][j] such that y[i] = Σ_j bases[i][j]*scalars[i][j]
// for every statement i, optionally asserting equalities named by eqPos.
// Equality constraints are only permitted when there are exactly two
// statements (spec §4.1 edge cases).
func Prove(context []byte, y []G1Point, bases [][]G1Point, scalars [][]Scalar, eqPos []EqPos) (*Proof, error) {
	k := len(bases)
	if len(y) != k || len(scalars) != k {
		return nil, fmt.Errorf("sigma: mismatched statement count (bases=%d y=%d scalars=%d)", k, len(y), len(scalars))
	}
	if len(eqPos) > 0 && k != 2 {
		return nil, fmt.Errorf("sigma: equality constraints require exactly two statements, got %d", k)
	}
	for i := range bases {
		if len(bases[i]) != len(scalars[i]) {
			return nil, fmt.Errorf("sigma: statement %d has %d bases but %d scalars", i, len(bases[i]), len(scalars[i]))
		}
	}

	r := make([][]Scalar, k)
	for i := range bases {
		r[i] = make([]Scalar, len(bases[i]))
		for j := range r[i] {
			if _, err := r[i][j].SetRandom(); err != nil {
				return nil, fmt.Errorf("sigma: sample blinding: %w", err)
			}
		}
	}
	for _, eq := range eqPos {
		if eq.A >= len(r[0]) || eq.B >= len(r[1]) {
			return nil, fmt.Errorf("sigma: equality position out of range")
		}
		r[1][eq.B] = r[0][eq.A]
	}

	tr := newTranscript(context)
	for i := range bases {
		tr.appendStatementBases(bases[i])
		ki := MSM(bases[i], r[i])
		tr.appendPoint("k_i", &ki)
		tr.appendPoint("y_i", &y[i])
	}
	c := tr.challengeScalar()

	s := make([][]Scalar, k)
	for i := range bases {
		s[i] = make([]Scalar, len(bases[i]))
		for j := range s[i] {
			var cs Scalar
			cs.Mul(&c, &scalars[i][j])
			s[i][j].Sub(&r[i][j], &cs)
		}
	}
	return &Proof{C: c, S: s}, nil
}

// Verify recomputes the transcript from bases, y, and the proof's responses
// and checks the derived challenge matches, plus any named equalities.
func Verify(proof *Proof, context []byte, bases [][]G1Point, y []G1Point, eqPos []EqPos) bool {
	if proof == nil {
		return false
	}
	k := len(bases)
	if len(y) != k || len(proof.S) != k {
		return false
	}
	if len(eqPos) > 0 && k != 2 {
		return false
	}
	for _, eq := range eqPos {
		if eq.A >= len(proof.S[0]) || eq.B >= len(proof.S[1]) {
			return false
		}
		if !proof.S[0][eq.A].Equal(&proof.S[1][eq.B]) {
			return false
		}
	}

	tr := newTranscript(context)
	var cBig big.Int
	proof.C.BigInt(&cBig)
	for i := range bases {
		if len(proof.S[i]) != len(bases[i]) {
			return false
		}
		tr.appendStatementBases(bases[i])
		ki := MSM(bases[i], proof.S[i])
		var cY G1Point
		cY.ScalarMultiplication(&y[i], &cBig)
		ki.Add(&ki, &cY)
		tr.appendPoint("k_i", &ki)
		tr.appendPoint("y_i", &y[i])
	}
	c := tr.challengeScalar()
	return c.Equal(&proof.C)
}

// transcript is a simplified Merlin-style Fiat-Shamir transcript: a running
// SHA-256 state fed with length-prefixed, labeled byte strings.
type transcript struct {
	h hash.Hash
}

func newTranscript(context []byte) *transcript {
	t := &transcript{h: sha256.New()}
	t.appendBytes("context string", context)
	return t
}

func (t *transcript) appendBytes(label string, data []byte) {
	t.h.Write([]byte(label))
	var lenBuf [8]byte
	binary.BigEndian.PutUint64(lenBuf[:], uint64(len(data)))
	t.h.Write(lenBuf[:])
	t.h.Write(data)
}

func (t *transcript) appendUint64(label string, n uint64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], n)
	t.appendBytes(label, buf[:])
}

func (t *transcript) appendPoint(label string, p *G1Point) {
	raw := p.RawBytes()
	t.appendBytes(label, raw[:])
}

func (t *transcript) appendStatementBases(bases []G1Point) {
	t.appendUint64("num_bases", uint64(len(bases)))
	for i := range bases {
		t.appendPoint("base", &bases[i])
	}
}

// challengeScalar extracts 31 bytes (248 bits) from the transcript digest
// and reduces them into F_r, per spec §4.1.
func (t *transcript) challengeScalar() Scalar {
	sum := t.h.Sum(nil)
	var c Scalar
	c.SetBytes(sum[:31])
	return c
}
