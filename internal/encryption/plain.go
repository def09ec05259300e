package encryption

import (
	"bytes"
	"fmt"
	"io"
)

// plainHeader marks a snapshot written without encryption.
var plainHeader = []byte("BOORUSN\x00")

// PlainEncryptor frames snapshots with a fixed header and no encryption.
// Restoring an age-encrypted snapshot with it fails on the header.
type PlainEncryptor struct{}

var _ Encryptor = PlainEncryptor{}

func NewPlainEncryptor() PlainEncryptor { return PlainEncryptor{} }

func (PlainEncryptor) Setup(string) error { return nil }

func (PlainEncryptor) IsConfigured() bool { return true }

func (PlainEncryptor) Unlock(string) (DecryptionContext, error) { return plainContext{}, nil }

func (PlainEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	if _, err := w.Write(plainHeader); err != nil {
		return fmt.Errorf("writing snapshot header: %w", err)
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying snapshot: %w", err)
	}
	return nil
}

type plainContext struct{}

func (plainContext) Decrypt(r io.Reader, w io.Writer) error {
	header := make([]byte, len(plainHeader))
	if _, err := io.ReadFull(r, header); err != nil {
		return fmt.Errorf("reading snapshot header: %w", err)
	}
	if !bytes.Equal(header, plainHeader) {
		return fmt.Errorf("snapshot is not a plain snapshot")
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying snapshot: %w", err)
	}
	return nil
}
