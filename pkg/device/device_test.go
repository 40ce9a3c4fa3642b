package device

import (
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/certen/credential-presentation/pkg/sigma"
)

func setupDeviceTest(t *testing.T) (*CircuitKeys, sigma.G1Point, sigma.G1Point, sigma.G1Point, sigma.G1Point) {
	t.Helper()
	keys, err := SetupCircuit()
	if err != nil {
		t.Fatalf("SetupCircuit: %v", err)
	}
	g, h := sigma.DerivePedersenBases()
	gPrime, hPrime := sigma.HashToG1("issuer base 1"), sigma.HashToG1("issuer base 2")
	return keys, g, h, gPrime, hPrime
}

func buildSignature(t *testing.T, kp *KeyPair) Signature {
	t.Helper()
	digest := Digest256([]byte("a presented credential binds to this device"))
	r, s, err := kp.Sign(digest)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	return Signature{R: r, S: s, Digest: digest}
}

func TestDeviceProveVerifyRoundTrip(t *testing.T) {
	keys, g, h, gPrime, hPrime := setupDeviceTest(t)

	kp, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	qx, qy := kp.PublicKeyCoords()
	q0Big, q1Big := SplitPublicKeyX(qx)

	var q0, q1 fr.Element
	q0.SetBigInt(q0Big)
	q1.SetBigInt(q1Big)

	var rho0, rho1 fr.Element
	if _, err := rho0.SetRandom(); err != nil {
		t.Fatalf("SetRandom rho0: %v", err)
	}
	if _, err := rho1.SetRandom(); err != nil {
		t.Fatalf("SetRandom rho1: %v", err)
	}
	com0 := sigma.CommitWithRandomness(g, h, q0, rho0)
	com1Orig := sigma.CommitWithRandomness(gPrime, hPrime, q1, rho1)

	sig := buildSignature(t, kp)

	proof, err := Prove(keys, g, h, com0, com1Orig, gPrime, hPrime, sig, qx, qy)
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}

	if !Verify(keys, g, h, gPrime, hPrime, com0.C, com1Orig.C, proof) {
		t.Error("valid device proof rejected")
	}
}

func TestDeviceProveRejectsBadSignature(t *testing.T) {
	keys, g, h, gPrime, hPrime := setupDeviceTest(t)

	kp, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	qx, qy := kp.PublicKeyCoords()
	q0Big, q1Big := SplitPublicKeyX(qx)

	var q0, q1 fr.Element
	q0.SetBigInt(q0Big)
	q1.SetBigInt(q1Big)

	var rho0, rho1 fr.Element
	if _, err := rho0.SetRandom(); err != nil {
		t.Fatalf("SetRandom rho0: %v", err)
	}
	if _, err := rho1.SetRandom(); err != nil {
		t.Fatalf("SetRandom rho1: %v", err)
	}
	com0 := sigma.CommitWithRandomness(g, h, q0, rho0)
	com1Orig := sigma.CommitWithRandomness(gPrime, hPrime, q1, rho1)

	sig := buildSignature(t, kp)
	// Corrupt s so (r, s) no longer verifies under the device key. R
	// recovery still runs (it doesn't check the signature), but the
	// recovered R is wrong, so the ECDSA-recast relation the circuit
	// checks no longer holds and proving it fails.
	sig.S = new(big.Int).Add(sig.S, big.NewInt(1))

	if _, err := Prove(keys, g, h, com0, com1Orig, gPrime, hPrime, sig, qx, qy); err == nil {
		t.Error("expected Prove to fail on a signature that doesn't verify under the device key")
	}
}

func TestDeviceVerifyRejectsTamperedDigest(t *testing.T) {
	keys, g, h, gPrime, hPrime := setupDeviceTest(t)

	kp, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	qx, qy := kp.PublicKeyCoords()
	q0Big, q1Big := SplitPublicKeyX(qx)

	var q0, q1 fr.Element
	q0.SetBigInt(q0Big)
	q1.SetBigInt(q1Big)

	var rho0, rho1 fr.Element
	if _, err := rho0.SetRandom(); err != nil {
		t.Fatalf("SetRandom rho0: %v", err)
	}
	if _, err := rho1.SetRandom(); err != nil {
		t.Fatalf("SetRandom rho1: %v", err)
	}
	com0 := sigma.CommitWithRandomness(g, h, q0, rho0)
	com1Orig := sigma.CommitWithRandomness(gPrime, hPrime, q1, rho1)

	sig := buildSignature(t, kp)
	proof, err := Prove(keys, g, h, com0, com1Orig, gPrime, hPrime, sig, qx, qy)
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}

	proof.Digest = Digest256([]byte("a different message entirely"))
	if Verify(keys, g, h, gPrime, hPrime, com0.C, com1Orig.C, proof) {
		t.Error("device proof with a tampered digest was accepted")
	}
}

func TestDeviceVerifyRejectsTamperedWitnessField(t *testing.T) {
	keys, g, h, gPrime, hPrime := setupDeviceTest(t)

	kp, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	qx, qy := kp.PublicKeyCoords()
	q0Big, q1Big := SplitPublicKeyX(qx)

	var q0, q1 fr.Element
	q0.SetBigInt(q0Big)
	q1.SetBigInt(q1Big)

	var rho0, rho1 fr.Element
	if _, err := rho0.SetRandom(); err != nil {
		t.Fatalf("SetRandom rho0: %v", err)
	}
	if _, err := rho1.SetRandom(); err != nil {
		t.Fatalf("SetRandom rho1: %v", err)
	}
	com0 := sigma.CommitWithRandomness(g, h, q0, rho0)
	com1Orig := sigma.CommitWithRandomness(gPrime, hPrime, q1, rho1)

	sig := buildSignature(t, kp)
	proof, err := Prove(keys, g, h, com0, com1Orig, gPrime, hPrime, sig, qx, qy)
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}

	var one fr.Element
	one.SetOne()
	proof.M.Add(&proof.M, &one)

	if Verify(keys, g, h, gPrime, hPrime, com0.C, com1Orig.C, proof) {
		t.Error("device proof with a tampered combined message was accepted")
	}
}

func TestSplitAndJoinPublicKeyX(t *testing.T) {
	kp, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	qx, _ := kp.PublicKeyCoords()
	q0, q1 := SplitPublicKeyX(qx)
	joined := JoinPublicKeyX(q0, q1)
	if joined.Cmp(qx) != 0 {
		t.Errorf("JoinPublicKeyX(SplitPublicKeyX(x)) = %v, want %v", joined, qx)
	}
}

func TestKeyManagerSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/device.key"

	km1 := NewKeyManager(path)
	if err := km1.GenerateNewKey(); err != nil {
		t.Fatalf("GenerateNewKey: %v", err)
	}
	wantX, wantY := km1.GetKeyPair().PublicKeyCoords()

	km2 := NewKeyManager(path)
	if err := km2.LoadKey(); err != nil {
		t.Fatalf("LoadKey: %v", err)
	}
	gotX, gotY := km2.GetKeyPair().PublicKeyCoords()
	if gotX.Cmp(wantX) != 0 || gotY.Cmp(wantY) != 0 {
		t.Error("loaded key does not match the key that was saved")
	}
}
