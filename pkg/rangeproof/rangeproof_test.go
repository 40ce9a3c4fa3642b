package rangeproof

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/certen/credential-presentation/pkg/sigma"
)

func TestRangeProofValidValue(t *testing.T) {
	srs, err := GenerateInsecureSRS(256)
	if err != nil {
		t.Fatalf("GenerateInsecureSRS: %v", err)
	}
	g, h := sigma.DerivePedersenBases()

	var m, blind fr.Element
	m.SetUint64(42)
	if _, err := blind.SetRandom(); err != nil {
		t.Fatalf("SetRandom: %v", err)
	}
	commitment := sigma.CommitWithRandomness(g, h, m, blind)

	proof, err := Prove(srs, []byte("test-context"), g, h, m, blind, 42)
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	if !Verify(srs, []byte("test-context"), g, h, commitment.C, proof) {
		t.Error("valid range proof rejected")
	}
	if Verify(srs, []byte("wrong-context"), g, h, commitment.C, proof) {
		t.Error("range proof accepted under wrong context")
	}
}

func TestRangeProofRejectsOutOfRangeValue(t *testing.T) {
	srs, err := GenerateInsecureSRS(256)
	if err != nil {
		t.Fatalf("GenerateInsecureSRS: %v", err)
	}
	g, h := sigma.DerivePedersenBases()

	var m, blind fr.Element
	m.SetUint64(1 << Bits)
	if _, err := blind.SetRandom(); err != nil {
		t.Fatalf("SetRandom: %v", err)
	}

	if _, err := Prove(srs, []byte("ctx"), g, h, m, blind, 1<<Bits); err == nil {
		t.Error("expected Prove to reject a value outside [0, 2^Bits)")
	}
}

func TestRangeProofRejectsMismatchedMessage(t *testing.T) {
	srs, err := GenerateInsecureSRS(256)
	if err != nil {
		t.Fatalf("GenerateInsecureSRS: %v", err)
	}
	g, h := sigma.DerivePedersenBases()

	var m, blind fr.Element
	m.SetUint64(7)
	if _, err := blind.SetRandom(); err != nil {
		t.Fatalf("SetRandom: %v", err)
	}

	if _, err := Prove(srs, []byte("ctx"), g, h, m, blind, 8); err == nil {
		t.Error("expected Prove to reject a value that does not match the committed message")
	}
}

func TestRangeProofTamperedEvaluationRejected(t *testing.T) {
	srs, err := GenerateInsecureSRS(256)
	if err != nil {
		t.Fatalf("GenerateInsecureSRS: %v", err)
	}
	g, h := sigma.DerivePedersenBases()

	var m, blind fr.Element
	m.SetUint64(1000)
	if _, err := blind.SetRandom(); err != nil {
		t.Fatalf("SetRandom: %v", err)
	}
	commitment := sigma.CommitWithRandomness(g, h, m, blind)

	proof, err := Prove(srs, []byte("ctx"), g, h, m, blind, 1000)
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	var one fr.Element
	one.SetOne()
	proof.EvalG.Add(&proof.EvalG, &one)

	if Verify(srs, []byte("ctx"), g, h, commitment.C, proof) {
		t.Error("tampered evaluation accepted")
	}
}
