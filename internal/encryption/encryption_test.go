package encryption

import (
	"bytes"
	"path/filepath"
	"testing"

	"booru-go/internal/config"
)

func newTestAgeEncryptor(t *testing.T) *AgeEncryptor {
	t.Helper()
	dir := t.TempDir()
	e := NewAgeEncryptor(config.EncryptionConfig{
		PublicKeyPath:  filepath.Join(dir, "keys", "booru.pub"),
		PrivateKeyPath: filepath.Join(dir, "keys", "booru.key"),
	})
	e.workFactor = 10
	return e
}

func roundTrip(t *testing.T, e Encryptor, passphrase string, input []byte) []byte {
	t.Helper()
	var sealed bytes.Buffer
	if err := e.Encrypt(bytes.NewReader(input), &sealed); err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	if len(input) > 0 && bytes.Equal(sealed.Bytes(), input) {
		t.Error("encrypted output is identical to plaintext")
	}

	ctx, err := e.Unlock(passphrase)
	if err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
	var out bytes.Buffer
	if err := ctx.Decrypt(&sealed, &out); err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	return out.Bytes()
}

var inputs = []struct {
	name  string
	input []byte
}{
	{name: "simple text", input: []byte("hello world")},
	{name: "empty", input: []byte{}},
	{name: "binary data", input: []byte{0x00, 0xff, 0x01, 0xfe}},
	{name: "large data", input: bytes.Repeat([]byte("abcdef"), 10000)},
}

func TestAgeEncryptor(t *testing.T) {
	t.Run("not configured before setup", func(t *testing.T) {
		t.Parallel()
		e := newTestAgeEncryptor(t)
		if e.IsConfigured() {
			t.Error("IsConfigured() = true before Setup, want false")
		}
		if err := e.Encrypt(bytes.NewReader([]byte("data")), &bytes.Buffer{}); err == nil {
			t.Error("Encrypt() before Setup should return error")
		}
		if _, err := e.Unlock("passphrase"); err == nil {
			t.Error("Unlock() before Setup should return error")
		}
	})

	t.Run("rejects empty passphrase", func(t *testing.T) {
		t.Parallel()
		if err := newTestAgeEncryptor(t).Setup(""); err == nil {
			t.Error("Setup(\"\") should return error")
		}
	})

	t.Run("wrong passphrase", func(t *testing.T) {
		t.Parallel()
		e := newTestAgeEncryptor(t)
		if err := e.Setup("correct-passphrase"); err != nil {
			t.Fatalf("Setup() error = %v", err)
		}
		if _, err := e.Unlock("wrong-passphrase"); err == nil {
			t.Error("Unlock() with wrong passphrase should return error")
		}
	})

	for _, tt := range inputs {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := newTestAgeEncryptor(t)
			if err := e.Setup("test-passphrase"); err != nil {
				t.Fatalf("Setup() error = %v", err)
			}
			if !e.IsConfigured() {
				t.Error("IsConfigured() = false after Setup")
			}
			if got := roundTrip(t, e, "test-passphrase", tt.input); !bytes.Equal(got, tt.input) {
				t.Errorf("round-trip failed: got %d bytes, want %d bytes", len(got), len(tt.input))
			}
		})
	}
}

func TestPlainEncryptor(t *testing.T) {
	for _, tt := range inputs {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := roundTrip(t, NewPlainEncryptor(), "", tt.input); !bytes.Equal(got, tt.input) {
				t.Errorf("round-trip failed: got %d bytes, want %d bytes", len(got), len(tt.input))
			}
		})
	}

	t.Run("rejects foreign data", func(t *testing.T) {
		ctx, _ := NewPlainEncryptor().Unlock("")
		if err := ctx.Decrypt(bytes.NewReader([]byte("age-encryption.org/v1")), &bytes.Buffer{}); err == nil {
			t.Error("Decrypt() of foreign data should return error")
		}
	})
}

func TestNewEncryptorFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.EncryptionConfig
		wantErr bool
	}{
		{name: "age", cfg: config.EncryptionConfig{Type: "age", PublicKeyPath: "a.pub", PrivateKeyPath: "a.key"}},
		{name: "default is age", cfg: config.EncryptionConfig{PublicKeyPath: "a.pub", PrivateKeyPath: "a.key"}},
		{name: "age without keys", cfg: config.EncryptionConfig{Type: "age"}, wantErr: true},
		{name: "none", cfg: config.EncryptionConfig{Type: "none"}},
		{name: "unknown", cfg: config.EncryptionConfig{Type: "rot13"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEncryptorFromConfig(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewEncryptorFromConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
