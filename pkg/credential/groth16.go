// Copyright 2025 Certen Protocol
//
// Groth16 proof and verifying-key containers at the boundary between an
// issued credential and the presentation core. This package holds and
// loads already-issued material; it does not issue or verify credentials
// (issuance and witness generation are out of scope, spec §1 Non-goals).
//
// Rerandomization and the Pedersen-commitment extension to the public
// inputs (spec §4.3) both need the concrete bn254 points inside a
// groth16.Proof/VerifyingKey, which gnark's backend-agnostic interfaces
// don't expose directly. Grounded on
// certenIO-certen-validator/pkg/crypto/bls_zkp/prover.go's
// extractProofComponents/reconstructProof, which does the same concrete-type
// cast to pull Ar/Bs/Krs out of a groth16.Proof.
package credential

import (
	"fmt"
	"os"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark/backend/groth16"
	groth16bn254 "github.com/consensys/gnark/backend/groth16/bn254"
)

// Groth16Proof is the issued credential's Groth16 proof, held by the
// holder until a show rerandomizes it.
type Groth16Proof struct {
	Proof groth16.Proof
}

// LoadGroth16Proof reads a gnark-serialized Groth16 proof from disk.
func LoadGroth16Proof(path string) (*Groth16Proof, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("credential: open proof file: %w", err)
	}
	defer f.Close()
	proof := groth16.NewProof(ecc.BN254)
	if _, err := proof.ReadFrom(f); err != nil {
		return nil, fmt.Errorf("credential: read proof: %w", err)
	}
	return &Groth16Proof{Proof: proof}, nil
}

// Save writes the proof to disk in gnark's native serialization.
func (p *Groth16Proof) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("credential: create proof file: %w", err)
	}
	defer f.Close()
	if _, err := p.Proof.WriteTo(f); err != nil {
		return fmt.Errorf("credential: write proof: %w", err)
	}
	return nil
}

// Components extracts the raw (A, B, C) bn254 points from a Groth16 proof,
// needed to rerandomize it per spec §4.3/§9 ("Rerandomization (Groth16)").
func Components(proof groth16.Proof) (a bn254.G1Affine, b bn254.G2Affine, c bn254.G1Affine, err error) {
	concrete, ok := proof.(*groth16bn254.Proof)
	if !ok {
		return a, b, c, fmt.Errorf("credential: proof is not a bn254 Groth16 proof")
	}
	return concrete.Ar, concrete.Bs, concrete.Krs, nil
}

// FromComponents rebuilds a groth16.Proof from its raw (A, B, C) points,
// the inverse of Components, used after rerandomization.
func FromComponents(a bn254.G1Affine, b bn254.G2Affine, c bn254.G1Affine) groth16.Proof {
	return &groth16bn254.Proof{Ar: a, Bs: b, Krs: c}
}

// VerifyingKey wraps a gnark Groth16 verifying key with the concrete bn254
// elements the presentation core needs directly: the public-input basis
// (gamma_abc_g1, index 0 reserved for the constant term) and delta in both
// groups. Standard Groth16 verifying keys only need delta_G2 for the
// pairing check; delta_G1 is public setup material that exists in the
// proving key, so it is captured once at setup/load time and carried
// alongside the verifying key here rather than re-derived per show.
type VerifyingKey struct {
	VK      groth16.VerifyingKey
	Basis   []bn254.G1Affine
	AlphaG1 bn254.G1Affine
	DeltaG1 bn254.G1Affine
	BetaG2  bn254.G2Affine
	GammaG2 bn254.G2Affine
	DeltaG2 bn254.G2Affine
}

// WrapVerifyingKey extracts the concrete bn254 fields from a gnark
// VerifyingKey and pairs them with the delta_G1 point taken from the
// corresponding ProvingKey (only needed transiently here, not retained).
func WrapVerifyingKey(vk groth16.VerifyingKey, pk groth16.ProvingKey) (*VerifyingKey, error) {
	vkConcrete, ok := vk.(*groth16bn254.VerifyingKey)
	if !ok {
		return nil, fmt.Errorf("credential: verifying key is not a bn254 Groth16 key")
	}
	pkConcrete, ok := pk.(*groth16bn254.ProvingKey)
	if !ok {
		return nil, fmt.Errorf("credential: proving key is not a bn254 Groth16 key")
	}
	basis := make([]bn254.G1Affine, len(vkConcrete.G1.K))
	copy(basis, vkConcrete.G1.K)
	return &VerifyingKey{
		VK:      vk,
		Basis:   basis,
		AlphaG1: vkConcrete.G1.Alpha,
		DeltaG1: pkConcrete.G1.Delta,
		BetaG2:  vkConcrete.G2.Beta,
		GammaG2: vkConcrete.G2.Gamma,
		DeltaG2: vkConcrete.G2.Delta,
	}, nil
}

// LoadVerifyingKey reads a gnark-serialized verifying key together with a
// sibling delta_G1 point, saved separately by VerifyingKey.Save at setup time.
func LoadVerifyingKey(vkPath, deltaG1Path string) (*VerifyingKey, error) {
	vkFile, err := os.Open(vkPath)
	if err != nil {
		return nil, fmt.Errorf("credential: open verifying key file: %w", err)
	}
	defer vkFile.Close()
	vk := groth16.NewVerifyingKey(ecc.BN254)
	if _, err := vk.ReadFrom(vkFile); err != nil {
		return nil, fmt.Errorf("credential: read verifying key: %w", err)
	}
	vkConcrete, ok := vk.(*groth16bn254.VerifyingKey)
	if !ok {
		return nil, fmt.Errorf("credential: verifying key is not a bn254 Groth16 key")
	}

	deltaBytes, err := os.ReadFile(deltaG1Path)
	if err != nil {
		return nil, fmt.Errorf("credential: read delta_g1 file: %w", err)
	}
	var deltaG1 bn254.G1Affine
	if _, err := deltaG1.SetBytes(deltaBytes); err != nil {
		return nil, fmt.Errorf("credential: decode delta_g1: %w", err)
	}

	basis := make([]bn254.G1Affine, len(vkConcrete.G1.K))
	copy(basis, vkConcrete.G1.K)
	return &VerifyingKey{
		VK:      vk,
		Basis:   basis,
		AlphaG1: vkConcrete.G1.Alpha,
		DeltaG1: deltaG1,
		BetaG2:  vkConcrete.G2.Beta,
		GammaG2: vkConcrete.G2.Gamma,
		DeltaG2: vkConcrete.G2.Delta,
	}, nil
}

// Save writes the underlying verifying key and, separately, the delta_G1
// point this wrapper carries.
func (vk *VerifyingKey) Save(vkPath, deltaG1Path string) error {
	vkFile, err := os.Create(vkPath)
	if err != nil {
		return fmt.Errorf("credential: create verifying key file: %w", err)
	}
	defer vkFile.Close()
	if _, err := vk.VK.WriteTo(vkFile); err != nil {
		return fmt.Errorf("credential: write verifying key: %w", err)
	}
	compressed := vk.DeltaG1.Bytes()
	if err := os.WriteFile(deltaG1Path, compressed[:], 0644); err != nil {
		return fmt.Errorf("credential: write delta_g1: %w", err)
	}
	return nil
}
