package sigma

import "testing"

func randScalar(t *testing.T) Scalar {
	t.Helper()
	var s Scalar
	if _, err := s.SetRandom(); err != nil {
		t.Fatalf("SetRandom: %v", err)
	}
	return s
}

func TestPedersenCommitRoundTrip(t *testing.T) {
	g, h := DerivePedersenBases()
	m := randScalar(t)
	opening, err := Commit(g, h, m)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	recomputed := CommitWithRandomness(g, h, opening.M, opening.Rho)
	if !opening.C.Equal(&recomputed.C) {
		t.Error("commitment not reproducible from opening")
	}
}

func TestDeriveBasesDistinct(t *testing.T) {
	g, h := DerivePedersenBases()
	if g.Equal(&h) {
		t.Fatal("g and h bases must differ")
	}
	if !g.IsOnCurve() || !h.IsOnCurve() {
		t.Fatal("derived bases must be on curve")
	}
}

func TestDLogPoKSingleStatement(t *testing.T) {
	g, h := DerivePedersenBases()
	m, rho := randScalar(t), randScalar(t)
	opening := CommitWithRandomness(g, h, m, rho)

	bases := [][]G1Point{{g, h}}
	scalars := [][]Scalar{{m, rho}}
	y := []G1Point{opening.C}

	proof, err := Prove([]byte("test-context"), y, bases, scalars, nil)
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	if !Verify(proof, []byte("test-context"), bases, y, nil) {
		t.Error("valid proof rejected")
	}
	if Verify(proof, []byte("different-context"), bases, y, nil) {
		t.Error("proof accepted under wrong context")
	}
}

func TestDLogPoKEqualityConstraint(t *testing.T) {
	g1, h1 := DerivePedersenBases()
	g2 := HashToG1("alt base 1")
	h2 := HashToG1("alt base 2")

	shared := randScalar(t)
	rho1, rho2 := randScalar(t), randScalar(t)
	open1 := CommitWithRandomness(g1, h1, shared, rho1)
	open2 := CommitWithRandomness(g2, h2, shared, rho2)

	bases := [][]G1Point{{g1, h1}, {g2, h2}}
	scalars := [][]Scalar{{shared, rho1}, {shared, rho2}}
	y := []G1Point{open1.C, open2.C}
	eqPos := []EqPos{{A: 0, B: 0}}

	proof, err := Prove([]byte("ctx"), y, bases, scalars, eqPos)
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	if !Verify(proof, []byte("ctx"), bases, y, eqPos) {
		t.Error("valid equality proof rejected")
	}

	// Tamper: different messages under the two bases must fail equality.
	other := randScalar(t)
	open2b := CommitWithRandomness(g2, h2, other, rho2)
	yBad := []G1Point{open1.C, open2b.C}
	scalarsBad := [][]Scalar{{shared, rho1}, {other, rho2}}
	proofBad, err := Prove([]byte("ctx"), yBad, bases, scalarsBad, nil)
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	if Verify(proofBad, []byte("ctx"), bases, yBad, eqPos) {
		t.Error("equality constraint accepted mismatched scalars")
	}
}

func TestDLogPoKRejectsThreeStatementEquality(t *testing.T) {
	g, h := DerivePedersenBases()
	m := randScalar(t)
	opening := CommitWithRandomness(g, h, m, randScalar(t))
	bases := [][]G1Point{{g, h}, {g, h}, {g, h}}
	scalars := [][]Scalar{{m, opening.Rho}, {m, opening.Rho}, {m, opening.Rho}}
	y := []G1Point{opening.C, opening.C, opening.C}
	if _, err := Prove([]byte("ctx"), y, bases, scalars, []EqPos{{0, 0}}); err == nil {
		t.Error("expected error for equality constraint with three statements")
	}
}
