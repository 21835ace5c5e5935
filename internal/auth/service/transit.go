package service

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

// TransitDecryptor unwraps passwords that clients encrypted with the
// server's RSA public key (PKCS#1 v1.5, base64). The key is read once at
// startup and never mutated.
type TransitDecryptor struct {
	key *rsa.PrivateKey
}

func NewTransitDecryptor(key *rsa.PrivateKey) *TransitDecryptor {
	return &TransitDecryptor{key: key}
}

// LoadTransitDecryptor reads a PEM encoded RSA private key (PKCS#1 or PKCS#8).
func LoadTransitDecryptor(path string) (*TransitDecryptor, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	key, err := ParseRSAPrivateKey(raw)
	if err != nil {
		return nil, err
	}
	return NewTransitDecryptor(key), nil
}

func ParseRSAPrivateKey(pemBytes []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errors.New("private key: no PEM block found")
	}

	switch block.Type {
	case "RSA PRIVATE KEY":
		return x509.ParsePKCS1PrivateKey(block.Bytes)
	case "PRIVATE KEY":
		parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, err
		}
		key, ok := parsed.(*rsa.PrivateKey)
		if !ok {
			return nil, errors.New("private key: not an RSA key")
		}
		return key, nil
	default:
		return nil, fmt.Errorf("private key: unsupported PEM type %q", block.Type)
	}
}

func (d *TransitDecryptor) Decrypt(ciphertext string) (string, error) {
	if d == nil || d.key == nil {
		return "", errors.New("transit decryption not configured")
	}
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("decode ciphertext: %w", err)
	}
	plain, err := rsa.DecryptPKCS1v15(rand.Reader, d.key, raw)
	if err != nil {
		return "", fmt.Errorf("decrypt ciphertext: %w", err)
	}
	return string(plain), nil
}

// Unwrap returns the decrypted password, or input unchanged when it is not
// ciphertext for this key. Clients that send plaintext keep working.
func (d *TransitDecryptor) Unwrap(input string) string {
	plain, err := d.Decrypt(input)
	if err != nil {
		return input
	}
	return plain
}

// PublicKeyPEM returns the PKIX PEM encoding of the public half, or "" when
// no key is loaded.
func (d *TransitDecryptor) PublicKeyPEM() string {
	if d == nil || d.key == nil {
		return ""
	}
	der, err := x509.MarshalPKIXPublicKey(&d.key.PublicKey)
	if err != nil {
		return ""
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
}
