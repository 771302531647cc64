package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/golang-jwt/jwt/v5"
)

const keyBits = 2048

// KeyPair holds the signing key and the PEM text served to verifiers.
// PublicPEM is read once and served byte-for-byte on every request.
type KeyPair struct {
	Private   *rsa.PrivateKey
	PublicPEM []byte
}

// GenerateKeyPair creates a new RSA key pair for token signing.
func GenerateKeyPair() (KeyPair, error) {
	private, err := rsa.GenerateKey(rand.Reader, keyBits)
	if err != nil {
		return KeyPair{}, fmt.Errorf("generating RSA key pair: %w", err)
	}
	pub, err := EncodePublicKeyPEM(&private.PublicKey)
	if err != nil {
		return KeyPair{}, err
	}
	return KeyPair{Private: private, PublicPEM: pub}, nil
}

// EncodePublicKeyPEM encodes key as a PKIX "PUBLIC KEY" block.
func EncodePublicKeyPEM(key *rsa.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(key)
	if err != nil {
		return nil, fmt.Errorf("encoding public key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), nil
}

// SaveKeyPair writes kp as PEM. The private key file has 0600 permissions;
// the public key file has 0644.
func SaveKeyPair(privatePath, publicPath string, kp KeyPair) error {
	der, err := x509.MarshalPKCS8PrivateKey(kp.Private)
	if err != nil {
		return fmt.Errorf("encoding private key: %w", err)
	}

	for _, p := range []string{privatePath, publicPath} {
		if dir := filepath.Dir(p); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("creating key directory: %w", err)
			}
		}
	}

	private := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
	if err := os.WriteFile(privatePath, private, 0o600); err != nil {
		return fmt.Errorf("writing private key: %w", err)
	}
	if err := os.WriteFile(publicPath, kp.PublicPEM, 0o644); err != nil {
		return fmt.Errorf("writing public key: %w", err)
	}
	return nil
}

// LoadKeyPair reads a PEM key pair and checks that the halves match.
func LoadKeyPair(privatePath, publicPath string) (KeyPair, error) {
	privateBytes, err := os.ReadFile(privatePath)
	if err != nil {
		return KeyPair{}, fmt.Errorf("reading private key: %w", err)
	}
	private, err := jwt.ParseRSAPrivateKeyFromPEM(privateBytes)
	if err != nil {
		return KeyPair{}, fmt.Errorf("parsing private key: %w", err)
	}

	publicBytes, err := os.ReadFile(publicPath)
	if err != nil {
		return KeyPair{}, fmt.Errorf("reading public key: %w", err)
	}
	public, err := jwt.ParseRSAPublicKeyFromPEM(publicBytes)
	if err != nil {
		return KeyPair{}, fmt.Errorf("parsing public key: %w", err)
	}
	if !public.Equal(&private.PublicKey) {
		return KeyPair{}, errors.New("public key does not match private key")
	}

	return KeyPair{Private: private, PublicPEM: publicBytes}, nil
}

// LoadOrGenerateKeyPair loads an existing pair, or generates and saves a new
// one when autogenerate is set and the private key file does not exist.
// Returns the pair and whether it was newly generated.
func LoadOrGenerateKeyPair(privatePath, publicPath string, autogenerate bool) (KeyPair, bool, error) {
	kp, err := LoadKeyPair(privatePath, publicPath)
	if err == nil {
		return kp, false, nil
	}

	// A file that exists but cannot be loaded is corrupt, not a first boot.
	if _, statErr := os.Stat(privatePath); !errors.Is(statErr, fs.ErrNotExist) || !autogenerate {
		return KeyPair{}, false, err
	}

	kp, err = GenerateKeyPair()
	if err != nil {
		return KeyPair{}, false, err
	}
	if err := SaveKeyPair(privatePath, publicPath, kp); err != nil {
		return KeyPair{}, false, err
	}
	return kp, true, nil
}
