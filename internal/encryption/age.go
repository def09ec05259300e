package encryption

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"filippo.io/age"

	"booru-go/internal/config"
)

// AgeEncryptor implements Encryptor using filippo.io/age with an X25519 key
// pair. The recipient file is plaintext; the identity file is itself age
// encrypted to a scrypt passphrase.
type AgeEncryptor struct {
	recipientPath string
	identityPath  string
	workFactor    int // scrypt log2 work factor; 0 keeps the age default
}

var _ Encryptor = (*AgeEncryptor)(nil)

func NewAgeEncryptor(cfg config.EncryptionConfig) *AgeEncryptor {
	return &AgeEncryptor{recipientPath: cfg.PublicKeyPath, identityPath: cfg.PrivateKeyPath}
}

func (e *AgeEncryptor) Setup(passphrase string) error {
	if passphrase == "" {
		return fmt.Errorf("passphrase must not be empty")
	}
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return fmt.Errorf("generating key pair: %w", err)
	}

	for _, p := range []string{e.recipientPath, e.identityPath} {
		if err := os.MkdirAll(filepath.Dir(p), 0700); err != nil {
			return fmt.Errorf("creating key directory: %w", err)
		}
	}

	if err := os.WriteFile(e.recipientPath, []byte(identity.Recipient().String()+"\n"), 0644); err != nil {
		return fmt.Errorf("writing public key: %w", err)
	}

	lock, err := age.NewScryptRecipient(passphrase)
	if err != nil {
		return fmt.Errorf("creating scrypt recipient: %w", err)
	}
	if e.workFactor > 0 {
		lock.SetWorkFactor(e.workFactor)
	}

	var sealed bytes.Buffer
	if err := seal(&sealed, bytes.NewReader([]byte(identity.String()+"\n")), lock); err != nil {
		return fmt.Errorf("encrypting private key: %w", err)
	}
	if err := os.WriteFile(e.identityPath, sealed.Bytes(), 0600); err != nil {
		return fmt.Errorf("writing private key: %w", err)
	}
	return nil
}

func (e *AgeEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	data, err := os.ReadFile(e.recipientPath)
	if err != nil {
		return fmt.Errorf("reading public key: %w", err)
	}
	recipients, err := age.ParseRecipients(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("parsing public key: %w", err)
	}
	if len(recipients) == 0 {
		return fmt.Errorf("no recipients in %s", e.recipientPath)
	}
	return seal(w, r, recipients...)
}

func (e *AgeEncryptor) Unlock(passphrase string) (DecryptionContext, error) {
	sealed, err := os.ReadFile(e.identityPath)
	if err != nil {
		return nil, fmt.Errorf("reading private key: %w", err)
	}

	key, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return nil, fmt.Errorf("creating scrypt identity: %w", err)
	}

	var plain bytes.Buffer
	if err := open(&plain, bytes.NewReader(sealed), key); err != nil {
		return nil, fmt.Errorf("decrypting private key: %w", err)
	}

	identities, err := age.ParseIdentities(&plain)
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}
	if len(identities) == 0 {
		return nil, fmt.Errorf("no identities in %s", e.identityPath)
	}
	return &ageContext{identities: identities}, nil
}

// IsConfigured reports whether both key files exist.
func (e *AgeEncryptor) IsConfigured() bool {
	for _, p := range []string{e.recipientPath, e.identityPath} {
		if _, err := os.Stat(p); err != nil {
			return false
		}
	}
	return true
}

type ageContext struct {
	identities []age.Identity
}

func (c *ageContext) Decrypt(r io.Reader, w io.Writer) error {
	return open(w, r, c.identities...)
}

func seal(w io.Writer, r io.Reader, recipients ...age.Recipient) error {
	enc, err := age.Encrypt(w, recipients...)
	if err != nil {
		return err
	}
	if _, err := io.Copy(enc, r); err != nil {
		return err
	}
	return enc.Close()
}

func open(w io.Writer, r io.Reader, identities ...age.Identity) error {
	dec, err := age.Decrypt(r, identities...)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, dec)
	return err
}
