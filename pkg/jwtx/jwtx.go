// Package jwtx signs and verifies the stateless session tokens issued after
// login. A deployment uses a single Ed25519 key, loaded from a PKCS8 PEM file
// or generated at startup (ephemeral mode: restarts invalidate live tokens,
// which for short-lived session tokens is acceptable).
package jwtx

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
)

var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrIssuer      = errors.New("jwtx: issuer mismatch")
	ErrExpired     = errors.New("jwtx: token expired")
	ErrNotYetValid = errors.New("jwtx: token not yet valid")
)

// NewEphemeralKeypair generates an in-memory Ed25519 signer/verifier pair.
func NewEphemeralKeypair(issuer string) (*Signer, *Verifier, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("jwtx: generate keypair: %w", err)
	}
	return &Signer{key: priv}, &Verifier{pub: pub, issuer: issuer}, nil
}

// NewKeypairFromPEM loads an Ed25519 private key from PKCS8 PEM bytes and
// returns the signer plus the matching verifier.
func NewKeypairFromPEM(pemKey []byte, issuer string) (*Signer, *Verifier, error) {
	block, _ := pem.Decode(pemKey)
	if block == nil {
		return nil, nil, errors.New("jwtx: invalid PEM for Ed25519 key")
	}

	if block.Type != "PRIVATE KEY" {
		return nil, nil, fmt.Errorf("jwtx: expected PRIVATE KEY, got %q (Ed25519 requires PKCS8)", block.Type)
	}

	priv, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, nil, fmt.Errorf("jwtx: parse PKCS8: %w", err)
	}

	key, ok := priv.(ed25519.PrivateKey)
	if !ok {
		return nil, nil, errors.New("jwtx: not Ed25519 private key")
	}

	pub := key.Public().(ed25519.PublicKey)
	return &Signer{key: key}, &Verifier{pub: pub, issuer: issuer}, nil
}
