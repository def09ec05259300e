// Package encryption seals database snapshots before they leave the machine.
package encryption

import (
	"fmt"
	"io"

	"booru-go/internal/config"
)

// Encryptor seals snapshots with a public key and opens them again once
// unlocked with the user's passphrase.
type Encryptor interface {
	// Setup generates the key pair, protecting the private key with
	// passphrase. Called once, by `booru snapshot init`.
	Setup(passphrase string) error

	// Encrypt reads plaintext from r and writes ciphertext to w.
	// Needs no passphrase.
	Encrypt(r io.Reader, w io.Writer) error

	// Unlock opens the private key. Returns an error if passphrase is wrong.
	Unlock(passphrase string) (DecryptionContext, error)

	// IsConfigured reports whether Setup has been run.
	IsConfigured() bool
}

// DecryptionContext holds an unlocked private key in memory only.
type DecryptionContext interface {
	Decrypt(r io.Reader, w io.Writer) error
}

// NewEncryptorFromConfig creates an Encryptor based on the configuration type.
func NewEncryptorFromConfig(cfg config.EncryptionConfig) (Encryptor, error) {
	switch cfg.Type {
	case "age", "":
		if cfg.PublicKeyPath == "" || cfg.PrivateKeyPath == "" {
			return nil, fmt.Errorf("age encryption requires public_key_path and private_key_path")
		}
		return NewAgeEncryptor(cfg), nil
	case "none", "test":
		return NewPlainEncryptor(), nil
	default:
		return nil, fmt.Errorf("unknown encryption type: %q", cfg.Type)
	}
}
