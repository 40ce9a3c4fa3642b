// Copyright 2025 Certen Protocol
//
// IOLocations maps a credential's named attributes to their 1-based index
// in the Groth16 verifying key's public-input basis (spec §3, §6 "I/O
// locations file"). Grounded on
// original_source/creds/src/structs.rs's IOLocations/get_io_location.
package proofspec

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// IOLocations is an immutable name-to-index schema for one credential type.
type IOLocations struct {
	locations map[string]int
}

// NewIOLocations builds an IOLocations from an explicit name-to-index map.
func NewIOLocations(locations map[string]int) *IOLocations {
	cp := make(map[string]int, len(locations))
	for k, v := range locations {
		cp[k] = v
	}
	return &IOLocations{locations: cp}
}

// LoadIOLocations reads an I/O-locations file: one "name,index" pair per
// line, 1-based index into the VK's public-input basis.
func LoadIOLocations(path string) (*IOLocations, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("proofspec: read io locations file: %w", err)
	}
	return ParseIOLocations(string(data))
}

// ParseIOLocations parses the "name,index" text format directly.
func ParseIOLocations(text string) (*IOLocations, error) {
	locations := make(map[string]int)
	for lineNum, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.Split(line, ",")
		if len(parts) != 2 {
			return nil, fmt.Errorf("proofspec: io locations line %d is not formatted correctly: found %d parts", lineNum+1, len(parts))
		}
		name := strings.TrimSpace(parts[0])
		index, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return nil, fmt.Errorf("proofspec: io locations line %d: invalid index: %w", lineNum+1, err)
		}
		locations[name] = index
	}
	return &IOLocations{locations: locations}, nil
}

// Location returns the 1-based public-input index for a named attribute.
func (l *IOLocations) Location(name string) (int, error) {
	idx, ok := l.locations[name]
	if !ok {
		return 0, fmt.Errorf("proofspec: %q not found in io locations", name)
	}
	return idx, nil
}

// Has reports whether name is a known attribute.
func (l *IOLocations) Has(name string) bool {
	_, ok := l.locations[name]
	return ok
}

// PublicKeyIndices returns the 0-based public-input indices of the issuer
// public-key positions (names beginning with "modulus" or "pubkey"), sorted
// ascending.
func (l *IOLocations) PublicKeyIndices() []int {
	var indices []int
	for name, idx := range l.locations {
		if strings.HasPrefix(name, "modulus") || strings.HasPrefix(name, "pubkey") {
			indices = append(indices, idx-1)
		}
	}
	sort.Ints(indices)
	return indices
}

// Names returns every known attribute name, in no particular order.
func (l *IOLocations) Names() []string {
	names := make([]string, 0, len(l.locations))
	for name := range l.locations {
		names = append(names, name)
	}
	return names
}

// Len returns the highest known public-input index, i.e. the length of the
// VK's public-input vector (excluding the implicit constant at index 0).
func (l *IOLocations) Len() int {
	max := 0
	for _, idx := range l.locations {
		if idx > max {
			max = idx
		}
	}
	return max
}
