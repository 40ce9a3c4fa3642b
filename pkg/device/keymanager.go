// Copyright 2025 Certen Protocol
//
// Key manager for device-binding ECDSA P-256 keys: load, generate, and
// save to disk. Adapted from pkg/crypto/bls/key_manager.go's
// LoadOrGenerateKey / GenerateNewKey / SaveKey skeleton, retargeted from
// BLS keys to P-256 device keys (spec §4.5).
package device

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/x509"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

// KeyManager handles a device's ECDSA P-256 key: generation, persistence,
// and loading.
type KeyManager struct {
	keyPath string
	keyPair *KeyPair
}

// NewKeyManager creates a key manager bound to the given file path. An
// empty path means keys are never persisted.
func NewKeyManager(keyPath string) *KeyManager {
	return &KeyManager{keyPath: keyPath}
}

// LoadOrGenerateKey loads an existing device key, or generates and saves
// a new one if the key path doesn't exist yet.
func (km *KeyManager) LoadOrGenerateKey() error {
	if km.keyPath != "" {
		if _, err := os.Stat(km.keyPath); err == nil {
			return km.LoadKey()
		}
	}
	return km.GenerateNewKey()
}

// LoadKey loads an existing device key from the key path. The file
// contains a hex-encoded PKCS#8 private key.
func (km *KeyManager) LoadKey() error {
	if km.keyPath == "" {
		return fmt.Errorf("device: no key path specified")
	}
	data, err := os.ReadFile(km.keyPath)
	if err != nil {
		return fmt.Errorf("device: read key file: %w", err)
	}
	keyBytes, err := hex.DecodeString(string(data))
	if err != nil {
		return fmt.Errorf("device: decode key hex: %w", err)
	}
	priv, err := x509.ParsePKCS8PrivateKey(keyBytes)
	if err != nil {
		return fmt.Errorf("device: parse private key: %w", err)
	}
	ecPriv, ok := priv.(*ecdsa.PrivateKey)
	if !ok || ecPriv.Curve != elliptic.P256() {
		return fmt.Errorf("device: key file does not contain a P-256 key")
	}
	km.keyPair = &KeyPair{priv: ecPriv}
	return nil
}

// GenerateNewKey samples a fresh device key, saving it if a key path was
// configured.
func (km *KeyManager) GenerateNewKey() error {
	kp, err := GenerateKeyPair()
	if err != nil {
		return err
	}
	km.keyPair = kp
	if km.keyPath != "" {
		return km.SaveKey()
	}
	return nil
}

// SaveKey persists the current device key to the key path as a
// hex-encoded PKCS#8 blob, with directory/file permissions matching the
// teacher's BLS key manager (0700 dir, 0600 file).
func (km *KeyManager) SaveKey() error {
	if km.keyPath == "" {
		return fmt.Errorf("device: no key path specified")
	}
	if km.keyPair == nil {
		return fmt.Errorf("device: no key to save")
	}
	dir := filepath.Dir(km.keyPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("device: create key directory: %w", err)
	}
	der, err := x509.MarshalPKCS8PrivateKey(km.keyPair.priv)
	if err != nil {
		return fmt.Errorf("device: marshal private key: %w", err)
	}
	keyHex := hex.EncodeToString(der)
	if err := os.WriteFile(km.keyPath, []byte(keyHex), 0600); err != nil {
		return fmt.Errorf("device: write key file: %w", err)
	}
	return nil
}

// GetKeyPair returns the currently loaded device key pair, or nil.
func (km *KeyManager) GetKeyPair() *KeyPair {
	return km.keyPair
}
