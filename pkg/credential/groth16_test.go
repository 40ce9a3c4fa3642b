package credential

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
)

// squareCircuit is a minimal R1CS relation (Y == X*X) used only to exercise
// Components/WrapVerifyingKey against a real compiled circuit.
type squareCircuit struct {
	X frontend.Variable `gnark:",secret"`
	Y frontend.Variable `gnark:",public"`
}

func (c *squareCircuit) Define(api frontend.API) error {
	api.AssertIsEqual(c.Y, api.Mul(c.X, c.X))
	return nil
}

func setupSquareCircuit(t *testing.T) (groth16.ProvingKey, groth16.VerifyingKey, groth16.Proof) {
	t.Helper()
	var circuit squareCircuit
	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, &circuit)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	assignment := squareCircuit{X: 3, Y: 9}
	witness, err := frontend.NewWitness(&assignment, ecc.BN254.ScalarField())
	if err != nil {
		t.Fatalf("build witness: %v", err)
	}
	proof, err := groth16.Prove(ccs, pk, witness)
	if err != nil {
		t.Fatalf("prove: %v", err)
	}
	return pk, vk, proof
}

func TestComponentsRoundTrip(t *testing.T) {
	_, _, proof := setupSquareCircuit(t)

	a, b, c, err := Components(proof)
	if err != nil {
		t.Fatalf("Components: %v", err)
	}
	rebuilt := FromComponents(a, b, c)

	a2, b2, c2, err := Components(rebuilt)
	if err != nil {
		t.Fatalf("Components on rebuilt proof: %v", err)
	}
	if !a.Equal(&a2) || !b.Equal(&b2) || !c.Equal(&c2) {
		t.Error("FromComponents(Components(proof)) did not round-trip")
	}
}

func TestWrapVerifyingKeyExtractsBasis(t *testing.T) {
	pk, vk, _ := setupSquareCircuit(t)

	wrapped, err := WrapVerifyingKey(vk, pk)
	if err != nil {
		t.Fatalf("WrapVerifyingKey: %v", err)
	}
	// squareCircuit has one public input (Y) plus the implicit constant,
	// so the basis has two entries.
	if len(wrapped.Basis) != 2 {
		t.Errorf("len(Basis) = %d, want 2", len(wrapped.Basis))
	}
	if wrapped.DeltaG1.IsInfinity() {
		t.Error("DeltaG1 should not be the point at infinity")
	}
}
