// Copyright 2025 Certen Protocol
//
// Unverified JWT claim extraction, used only to populate ClientState's
// auxiliary preimage map for digest-disclosed attributes (spec §9 "Aux
// data blob"). The JWT's signature was already checked at issuance time by
// a separate, out-of-scope component (spec §1 Non-goals); this package
// never re-verifies it, it only reads the claims already baked into the
// credential's public inputs.
package credential

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// ClaimKind tags how a claim value should be coerced, matching the typed
// sum the presentation core's aux map uses instead of free-form JSON (spec
// §9, replacing the original's untyped string/number blob).
type ClaimKind int

const (
	ClaimString ClaimKind = iota
	ClaimNumber
)

// ClaimValue is one entry of a resolved claim map: either a string or a
// number, never both.
type ClaimValue struct {
	Kind ClaimKind
	Str  string
	Num  float64
}

// ExtractClaims parses a JWT's claims without verifying its signature and
// returns its string and number claims as a name-to-ClaimValue map. Values
// are not converted: a declared claim whose JSON type differs from the type
// the schema declares is an error, and undeclared claims of other JSON
// types are skipped.
func ExtractClaims(tokenString string, claimTypes map[string]string) (map[string]ClaimValue, error) {
	parser := jwt.NewParser()
	token, _, err := parser.ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("credential: parse JWT claims: %w", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("credential: unexpected JWT claims type")
	}

	out := make(map[string]ClaimValue, len(claims))
	for name, raw := range claims {
		kind, declared := claimTypes[name]
		switch v := raw.(type) {
		case string:
			out[name] = ClaimValue{Kind: ClaimString, Str: v}
		case float64:
			out[name] = ClaimValue{Kind: ClaimNumber, Num: v}
		default:
			if declared {
				return nil, fmt.Errorf("credential: claim %q has unsupported JSON type %T", name, raw)
			}
			continue
		}
		if declared && kind == "string" && out[name].Kind != ClaimString {
			return nil, fmt.Errorf("credential: claim %q declared as string but decoded as number", name)
		}
		if declared && kind == "number" && out[name].Kind != ClaimNumber {
			return nil, fmt.Errorf("credential: claim %q declared as number but decoded as string", name)
		}
	}
	return out, nil
}
