package proofspec

import "testing"

func testIOLocations() *IOLocations {
	return NewIOLocations(map[string]int{
		"modulus_0":           1,
		"pubkey_0":             2,
		"email_value":          3,
		"family_name_value":    4,
		"exp_value":            5,
		"device_key_0_value":   6,
		"device_key_1_value":   7,
		"birth_date_value":     8,
	})
}

func testSchema() *SchemaConfig {
	return &SchemaConfig{
		CredentialType:  "jwt",
		ExpirationAttr:  "exp_value",
		DeviceKeyAttrs:  [2]string{"device_key_0_value", "device_key_1_value"},
		ClaimTypes:      map[string]string{"email": "string", "exp": "number"},
		DigestDisclosed: []string{"family_name"},
	}
}

func TestResolveClassifiesRevealedAttributes(t *testing.T) {
	io := testIOLocations()
	raw := &RawProofSpec{Revealed: []string{"email", "family_name"}}
	resolved, err := Resolve(raw, testSchema(), io)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(resolved.RevealedAsValue) != 1 || resolved.RevealedAsValue[0] != "email" {
		t.Errorf("RevealedAsValue = %v, want [email]", resolved.RevealedAsValue)
	}
	if len(resolved.RevealedAsDigest) != 1 || resolved.RevealedAsDigest[0] != "family_name" {
		t.Errorf("RevealedAsDigest = %v, want [family_name]", resolved.RevealedAsDigest)
	}
}

func TestResolveRejectsUnknownAttribute(t *testing.T) {
	io := testIOLocations()
	raw := &RawProofSpec{Revealed: []string{"does_not_exist"}}
	if _, err := Resolve(raw, testSchema(), io); err == nil {
		t.Error("expected Resolve to reject an unknown revealed attribute")
	}
}

func TestResolveRejectsDeviceBoundWithoutMessage(t *testing.T) {
	io := testIOLocations()
	raw := &RawProofSpec{DeviceBound: true}
	if _, err := Resolve(raw, testSchema(), io); err == nil {
		t.Error("expected Resolve to reject device_bound without a presentation_message")
	}
}

func TestIOTypesClassification(t *testing.T) {
	io := testIOLocations()
	raw := &RawProofSpec{
		Revealed:            []string{"email"},
		RangeOverYear:        map[string]int{"birth_date": 18},
		DeviceBound:          true,
		PresentationMessage:  []byte("nonce"),
	}
	resolved, err := Resolve(raw, testSchema(), io)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	types, err := resolved.IOTypes(io)
	if err != nil {
		t.Fatalf("IOTypes: %v", err)
	}
	want := map[int]PublicIOType{
		0: Hidden,    // modulus_0
		1: Hidden,    // pubkey_0
		2: Revealed,  // email_value
		3: Hidden,    // family_name_value (digest-disclosed but not requested)
		4: Committed, // exp_value
		5: Committed, // device_key_0_value
		6: Committed, // device_key_1_value
		7: Committed, // birth_date_value (range predicate)
	}
	for idx, wantType := range want {
		if types[idx] != wantType {
			t.Errorf("types[%d] = %v, want %v", idx, types[idx], wantType)
		}
	}
}

func TestCanonicalContextDeterministic(t *testing.T) {
	io := testIOLocations()
	raw := &RawProofSpec{Revealed: []string{"email"}}
	a, err := Resolve(raw, testSchema(), io)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	b, err := Resolve(raw, testSchema(), io)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	ctxA, err := a.CanonicalContext()
	if err != nil {
		t.Fatalf("CanonicalContext: %v", err)
	}
	ctxB, err := b.CanonicalContext()
	if err != nil {
		t.Fatalf("CanonicalContext: %v", err)
	}
	if string(ctxA) != string(ctxB) {
		t.Error("CanonicalContext is not deterministic across identical resolutions")
	}
}

func TestParseIOLocations(t *testing.T) {
	text := "modulus_0,1\npubkey_0,2\nemail_value,3\n"
	io, err := ParseIOLocations(text)
	if err != nil {
		t.Fatalf("ParseIOLocations: %v", err)
	}
	idx, err := io.Location("email_value")
	if err != nil {
		t.Fatalf("Location: %v", err)
	}
	if idx != 3 {
		t.Errorf("Location(email_value) = %d, want 3", idx)
	}
	if got := io.PublicKeyIndices(); len(got) != 2 || got[0] != 0 || got[1] != 1 {
		t.Errorf("PublicKeyIndices() = %v, want [0 1]", got)
	}
}
