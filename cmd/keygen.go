package main

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

const defaultKeyBits = 2048

func newKeygenCommand() *cobra.Command {
	var (
		dir  string
		bits int
	)

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate the RSA key pair used for password transit encryption",
		RunE: func(cmd *cobra.Command, args []string) error {
			privPath, pubPath, err := writeRSAKeyPair(dir, bits)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s and %s\nset RSA_PRIVATE_KEY_PATH=%s\n", privPath, pubPath, privPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "out", ".", "Directory for private.pem and public.pem")
	cmd.Flags().IntVar(&bits, "bits", defaultKeyBits, "RSA key size")
	return cmd
}

// writeRSAKeyPair refuses to overwrite an existing private key.
func writeRSAKeyPair(dir string, bits int) (string, string, error) {
	key, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return "", "", fmt.Errorf("generate key: %w", err)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return "", "", fmt.Errorf("marshal public key: %w", err)
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", "", err
	}
	privPath := filepath.Join(dir, "private.pem")
	pubPath := filepath.Join(dir, "public.pem")

	if err := writePEM(privPath, os.O_EXCL, 0o600, "RSA PRIVATE KEY", x509.MarshalPKCS1PrivateKey(key)); err != nil {
		return "", "", err
	}
	if err := writePEM(pubPath, os.O_TRUNC, 0o644, "PUBLIC KEY", pubDER); err != nil {
		return "", "", err
	}
	return privPath, pubPath, nil
}

func writePEM(path string, flag int, perm os.FileMode, blockType string, der []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|flag, perm)
	if err != nil {
		return err
	}
	if err := pem.Encode(f, &pem.Block{Type: blockType, Bytes: der}); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
