// Copyright 2025 Certen Protocol
//
// pi2: the ECDSA-recast relation of spec §4.5 step 7, compiled as a
// gnark R1CS circuit and proved with Groth16. original_source has no Go
// Spartan implementation anywhere in the retrieval pack (Spartan-t256 is
// Rust-only, forked from microsoft/Spartan); Groth16 via gnark is the
// one SNARK backend the whole example pack actually uses, so pi2
// substitutes Groth16 for the original's Spartan NIZK. This is a
// deliberate, documented substitution (see DESIGN.md); the externally
// observable shape — a proof blob alongside pi0/pi1 — is unchanged.
package device

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/consensys/gnark/std/algebra/emulated/sw_emulated"
	"github.com/consensys/gnark/std/hash/poseidon2"
	"github.com/consensys/gnark/std/math/emulated"
	"github.com/consensys/gnark/std/math/emulated/emparams"
)

// ecdsaRecastCircuit implements spec §4.5 step 7's relation:
//
//	public  (T, U, h_Q, m, e1, e2)
//	secret  (s, q0, q1, z)
//	(a) h_Q == Poseidon(q0, q1, z)
//	(b) m   == q0 + e1*q1 + e2*z                 (native Fr arithmetic)
//	(c) Q_x == q0 + 2^128*q1                     (emulated P-256 Fp)
//	(d) (s*T + U).x == Q_x                       (P-256 curve arithmetic)
//
// T, U, and the reconstructed Q_x live in the emulated P-256 base field
// since the circuit's native field is bn254's Fr; s lives in the
// emulated P-256 scalar field. q0, q1, z, m, e1, e2, h_Q are all
// bn254-Fr-native, matching how they are already Pedersen-committed and
// Poseidon-hashed outside the circuit.
type ecdsaRecastCircuit struct {
	Tx, Ty emulated.Element[emparams.P256Fp] `gnark:",public"`
	Ux, Uy emulated.Element[emparams.P256Fp] `gnark:",public"`
	HQ     frontend.Variable                 `gnark:",public"`
	M      frontend.Variable                 `gnark:",public"`
	E1, E2 frontend.Variable                 `gnark:",public"`

	S      emulated.Element[emparams.P256Fr] `gnark:",secret"`
	Q0, Q1 frontend.Variable                 `gnark:",secret"`
	Z      frontend.Variable                 `gnark:",secret"`
}

func (c *ecdsaRecastCircuit) Define(api frontend.API) error {
	baseField, err := emulated.NewField[emparams.P256Fp](api)
	if err != nil {
		return fmt.Errorf("device circuit: base field: %w", err)
	}

	// (a) h_Q == Poseidon(q0, q1, z), width-3 standard-strength, matching
	// the native gnark-crypto/ecc/bn254/fr/poseidon2 hasher used outside
	// the circuit for the same inputs.
	hasher, err := poseidon2.NewMerkleDamgardHasher(api)
	if err != nil {
		return fmt.Errorf("device circuit: poseidon2: %w", err)
	}
	hasher.Write(c.Q0, c.Q1, c.Z)
	api.AssertIsEqual(hasher.Sum(), c.HQ)

	// (b) m == q0 + e1*q1 + e2*z, native Fr arithmetic.
	rhs := api.Add(c.Q0, api.Mul(c.E1, c.Q1), api.Mul(c.E2, c.Z))
	api.AssertIsEqual(c.M, rhs)

	// (c) Q_x == q0 + 2^128*q1, reconstructed as an emulated P-256 Fp
	// element from the two 128-bit native-Fr limbs.
	q0Bits := api.ToBinary(c.Q0, 128)
	q1Bits := api.ToBinary(c.Q1, 128)
	qx := baseField.FromBits(append(q0Bits, q1Bits...)...)

	// (d) (s*T + U).x == Q_x on the P-256 curve.
	curve, err := sw_emulated.New[emparams.P256Fp, emparams.P256Fr](api, sw_emulated.GetP256Params())
	if err != nil {
		return fmt.Errorf("device circuit: curve: %w", err)
	}
	T := &sw_emulated.AffinePoint[emparams.P256Fp]{X: c.Tx, Y: c.Ty}
	U := &sw_emulated.AffinePoint[emparams.P256Fp]{X: c.Ux, Y: c.Uy}
	sT := curve.ScalarMul(T, &c.S)
	result := curve.Add(sT, U)
	baseField.AssertIsEqual(&result.X, qx)

	return nil
}

// CircuitProof is the pi2 proof object: a Groth16 proof over the
// ECDSA-recast relation.
type CircuitProof struct {
	Proof groth16.Proof
}

// CircuitKeys holds a one-time Groth16 setup for the ECDSA-recast
// relation, analogous to how the Spartan generators in the original are
// derived once per curve and reused across proofs. The compiled
// constraint system is cached alongside pk/vk since proving requires it.
type CircuitKeys struct {
	ccs constraint.ConstraintSystem
	pk  groth16.ProvingKey
	vk  groth16.VerifyingKey
}

// VerifyingKey exposes the Groth16 verifying key for out-of-band
// distribution to verifiers.
func (k *CircuitKeys) VerifyingKey() groth16.VerifyingKey {
	return k.vk
}

// SetupCircuit runs the (insecure, non-ceremony) Groth16 setup for the
// ECDSA-recast relation. Production deployments must run this once via
// a trusted multi-party ceremony and distribute pk/vk out of band.
func SetupCircuit() (*CircuitKeys, error) {
	var circuit ecdsaRecastCircuit
	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, &circuit)
	if err != nil {
		return nil, fmt.Errorf("device circuit: compile: %w", err)
	}
	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, fmt.Errorf("device circuit: setup: %w", err)
	}
	return &CircuitKeys{ccs: ccs, pk: pk, vk: vk}, nil
}

// ecdsaRecastWitness collects the relation's public and secret values in
// their circuit-native representation.
type ecdsaRecastWitness struct {
	Tx, Ty emulated.Element[emparams.P256Fp]
	Ux, Uy emulated.Element[emparams.P256Fp]
	HQ, M, E1, E2 frontend.Variable
	S             emulated.Element[emparams.P256Fr]
	Q0, Q1, Z     frontend.Variable
}

func proveCircuit(keys *CircuitKeys, w ecdsaRecastWitness) (*CircuitProof, error) {
	assignment := ecdsaRecastCircuit{
		Tx: w.Tx, Ty: w.Ty, Ux: w.Ux, Uy: w.Uy,
		HQ: w.HQ, M: w.M, E1: w.E1, E2: w.E2,
		S: w.S, Q0: w.Q0, Q1: w.Q1, Z: w.Z,
	}
	witness, err := frontend.NewWitness(&assignment, ecc.BN254.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("device circuit: build witness: %w", err)
	}
	proof, err := groth16.Prove(keys.ccs, keys.pk, witness)
	if err != nil {
		return nil, fmt.Errorf("device circuit: prove: %w", err)
	}
	return &CircuitProof{Proof: proof}, nil
}

func verifyCircuit(keys *CircuitKeys, proof *CircuitProof, w ecdsaRecastWitness) bool {
	if proof == nil || keys == nil {
		return false
	}
	public := ecdsaRecastCircuit{
		Tx: w.Tx, Ty: w.Ty, Ux: w.Ux, Uy: w.Uy,
		HQ: w.HQ, M: w.M, E1: w.E1, E2: w.E2,
	}
	witness, err := frontend.NewWitness(&public, ecc.BN254.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return false
	}
	return groth16.Verify(proof.Proof, keys.vk, witness) == nil
}
