// Copyright 2025 Certen Protocol
//
// ProofSpec resolution: turns a holder-supplied disclosure request into the
// fully-resolved, schema-checked form the presentation core consumes (spec
// §4.3, §6 "ProofSpec ingress"). Grounded on
// original_source/creds/src/structs.rs's PublicIOType and IOLocations.
package proofspec

import (
	"encoding/json"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/certen/credential-presentation/pkg/canonical"
	"github.com/certen/credential-presentation/pkg/errs"
)

// PublicIOType classifies how a public-input position is disclosed during
// a show (spec §4.3).
type PublicIOType int

const (
	Revealed PublicIOType = iota
	Hidden
	Committed
)

func (t PublicIOType) String() string {
	switch t {
	case Revealed:
		return "revealed"
	case Hidden:
		return "hidden"
	case Committed:
		return "committed"
	default:
		return "unknown"
	}
}

// RawProofSpec is the holder-facing JSON ingress format (spec §6).
type RawProofSpec struct {
	Revealed             []string       `json:"revealed"`
	RangeOverYear        map[string]int `json:"range_over_year,omitempty"`
	PresentationMessage  []byte         `json:"presentation_message,omitempty"`
	DeviceBound          bool           `json:"device_bound,omitempty"`
}

// ParseRawProofSpec decodes the JSON ingress format.
func ParseRawProofSpec(data []byte) (*RawProofSpec, error) {
	var raw RawProofSpec
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errs.Wrap(errs.MalformedInput, "decode proof spec JSON", err)
	}
	return &raw, nil
}

// SchemaConfig describes a credential type's attribute layout: which claims
// are digest-disclosed rather than value-disclosed, the attribute-type tags
// used for JSON/claim coercion, and the fixed Committed slots every show of
// this credential type carries (expiration, device key halves).
//
// Resolved and supplied by an external configuration loader (spec §1); this
// module consumes it, it does not derive it from raw issuer material.
type SchemaConfig struct {
	CredentialType   string            `yaml:"credential_type"`
	IOLocationsPath  string            `yaml:"io_locations_path"`
	ExpirationAttr   string            `yaml:"expiration_attr"`
	DeviceKeyAttrs   [2]string         `yaml:"device_key_attrs"`
	ClaimTypes       map[string]string `yaml:"claim_types"`
	DigestDisclosed  []string          `yaml:"digest_disclosed"`

	raw []byte
}

// LoadSchemaConfig reads and validates a SchemaConfig from a YAML document.
func LoadSchemaConfig(data []byte) (*SchemaConfig, error) {
	var cfg SchemaConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errs.Wrap(errs.MalformedInput, "decode schema config YAML", err)
	}
	cfg.raw = append([]byte{}, data...)
	for attr, kind := range cfg.ClaimTypes {
		// Per spec §9 open question: verify_show_mdl and verify_show disagree
		// on "integer" vs "number" for the same concept. Unified here to a
		// single "number" tag; "integer" is rejected rather than silently
		// accepted as a synonym.
		if kind != "string" && kind != "number" {
			return nil, errs.New(errs.MalformedInput, fmt.Sprintf("schema config: attribute %q has unknown claim type %q (want \"string\" or \"number\")", attr, kind))
		}
	}
	if cfg.ExpirationAttr == "" {
		return nil, errs.New(errs.MalformedInput, "schema config: expiration_attr is required")
	}
	return &cfg, nil
}

// RangePredicate is a single "older than age years" style commitment,
// resolved to a deterministic position so prover and verifier agree which
// committed opening it consumes (spec §4.3 "Ordering and tie-breaks").
type RangePredicate struct {
	Attr string
	Age  int
}

// ResolvedProofSpec is the internal form the presentation core consumes:
// the raw request checked against the schema, with claim types and the
// opaque schema string attached (spec §6).
type ResolvedProofSpec struct {
	RevealedAsValue      []string
	RevealedAsDigest      []string
	RangeOverYear         []RangePredicate
	DeviceBound           bool
	PresentationMessage   []byte
	ClaimTypes            map[string]string
	ConfigStr             string
	CredentialType        string
	ExpirationAttr        string
	DeviceKeyAttrs        [2]string
}

// Resolve checks a RawProofSpec against a schema and I/O-locations table,
// producing the internal ResolvedProofSpec or a PolicyViolation error.
func Resolve(raw *RawProofSpec, schema *SchemaConfig, io *IOLocations) (*ResolvedProofSpec, error) {
	digestSet := make(map[string]bool, len(schema.DigestDisclosed))
	for _, attr := range schema.DigestDisclosed {
		digestSet[attr] = true
	}

	resolved := &ResolvedProofSpec{
		DeviceBound:         raw.DeviceBound,
		PresentationMessage: raw.PresentationMessage,
		ClaimTypes:          schema.ClaimTypes,
		ConfigStr:           string(schema.raw),
		CredentialType:      schema.CredentialType,
		ExpirationAttr:      schema.ExpirationAttr,
		DeviceKeyAttrs:      schema.DeviceKeyAttrs,
	}

	for _, attr := range raw.Revealed {
		if !io.Has(attr + "_value") {
			return nil, errs.New(errs.PolicyViolation, fmt.Sprintf("proof spec references unknown attribute %q", attr))
		}
		if digestSet[attr] {
			resolved.RevealedAsDigest = append(resolved.RevealedAsDigest, attr)
		} else {
			resolved.RevealedAsValue = append(resolved.RevealedAsValue, attr)
		}
	}

	var attrs []string
	for attr := range raw.RangeOverYear {
		if !io.Has(attr + "_value") {
			return nil, errs.New(errs.PolicyViolation, fmt.Sprintf("range_over_year references unknown attribute %q", attr))
		}
		attrs = append(attrs, attr)
	}
	// JSON object key order is not preserved across unmarshal/re-marshal, so
	// a deterministic order is imposed here; prover and verifier agree
	// because both resolve the identical raw spec through this function.
	sort.Strings(attrs)
	for _, attr := range attrs {
		resolved.RangeOverYear = append(resolved.RangeOverYear, RangePredicate{Attr: attr, Age: raw.RangeOverYear[attr]})
	}

	if raw.DeviceBound && len(raw.PresentationMessage) == 0 {
		return nil, errs.New(errs.PolicyViolation, "device_bound requires a presentation_message")
	}
	if raw.DeviceBound {
		for _, attr := range schema.DeviceKeyAttrs {
			if !io.Has(attr) {
				return nil, errs.New(errs.PolicyViolation, fmt.Sprintf("device-bound schema references unknown attribute %q", attr))
			}
		}
	}
	if !io.Has(schema.ExpirationAttr) {
		return nil, errs.New(errs.PolicyViolation, fmt.Sprintf("schema expiration attribute %q not found in io locations", schema.ExpirationAttr))
	}

	return resolved, nil
}

// IOTypes builds the per-position classification vector (spec §4.3): every
// position defaults Hidden; the expiration slot, device-key slots (if
// device-bound), and range-predicate slots are Committed; revealed
// attributes (value or digest) are Revealed.
func (r *ResolvedProofSpec) IOTypes(io *IOLocations) ([]PublicIOType, error) {
	n := io.Len()
	types := make([]PublicIOType, n)
	for i := range types {
		types[i] = Hidden
	}

	expIdx, err := io.Location(r.ExpirationAttr)
	if err != nil {
		return nil, err
	}
	types[expIdx-1] = Committed

	if r.DeviceBound {
		for _, attr := range r.DeviceKeyAttrs {
			idx, err := io.Location(attr)
			if err != nil {
				return nil, err
			}
			types[idx-1] = Committed
		}
	}

	for _, pred := range r.RangeOverYear {
		idx, err := io.Location(pred.Attr + "_value")
		if err != nil {
			return nil, err
		}
		types[idx-1] = Committed
	}

	for _, attr := range r.RevealedAsValue {
		idx, err := io.Location(attr + "_value")
		if err != nil {
			return nil, err
		}
		types[idx-1] = Revealed
	}
	for _, attr := range r.RevealedAsDigest {
		idx, err := io.Location(attr + "_value")
		if err != nil {
			return nil, err
		}
		types[idx-1] = Revealed
	}

	return types, nil
}

// CanonicalContext returns the canonical byte encoding of the resolved spec,
// used as the DLogPoK context so a prover and verifier using a
// byte-for-byte identical spec derive the same Fiat-Shamir transcript
// (spec §8 "Context binding").
func (r *ResolvedProofSpec) CanonicalContext() ([]byte, error) {
	return canonical.Marshal(r)
}
