package app

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"

	"booru-go/internal/booru"
	"booru-go/internal/encryption"
	"booru-go/internal/vault"
)

// snapshotDeps builds the vault and encryptor from config on first use, so
// commands that never touch snapshots never create the vault.
func (a *BooruApp) snapshotDeps() (vault.Vault, encryption.Encryptor, error) {
	if a.vault == nil {
		v, err := vault.NewVaultFromConfig(context.Background(), a.cfg.Vault)
		if err != nil {
			return nil, nil, fmt.Errorf("opening vault: %w", err)
		}
		a.vault = v
	}
	if a.encryptor == nil {
		e, err := encryption.NewEncryptorFromConfig(a.cfg.Encryption)
		if err != nil {
			return nil, nil, fmt.Errorf("creating encryptor: %w", err)
		}
		a.encryptor = e
	}
	return a.vault, a.encryptor, nil
}

// SetupEncryption generates the snapshot key pair unless it already exists.
func (a *BooruApp) SetupEncryption(passphrase string) error {
	_, enc, err := a.snapshotDeps()
	if err != nil {
		return a.track(err)
	}
	if enc.IsConfigured() {
		return a.track(fmt.Errorf("encryption keys already exist"))
	}
	return a.track(enc.Setup(passphrase))
}

// EncryptionConfigured reports whether snapshots can be encrypted.
func (a *BooruApp) EncryptionConfigured() (bool, error) {
	_, enc, err := a.snapshotDeps()
	if err != nil {
		return false, err
	}
	return enc.IsConfigured(), nil
}

// Snapshot encrypts a copy of the database into the vault as the next
// version and returns that version.
func (a *BooruApp) Snapshot() (int64, error) {
	v, enc, err := a.snapshotDeps()
	if err != nil {
		return 0, a.track(err)
	}
	if !enc.IsConfigured() {
		return 0, a.track(fmt.Errorf("encryption not set up; run 'booru snapshot init'"))
	}

	dbID, err := a.booru.GetConfig(booru.ConfigID)
	if err != nil {
		return 0, a.track(err)
	}

	tmpDir, err := os.MkdirTemp("", "booru-snapshot-")
	if err != nil {
		return 0, a.track(fmt.Errorf("creating temp dir: %w", err))
	}
	defer os.RemoveAll(tmpDir)

	copyPath := filepath.Join(tmpDir, "booru.db")
	if err := a.booru.BackupTo(copyPath); err != nil {
		return 0, a.track(err)
	}
	f, err := os.Open(copyPath)
	if err != nil {
		return 0, a.track(fmt.Errorf("opening database copy: %w", err))
	}
	defer f.Close()

	var sealed bytes.Buffer
	if err := enc.Encrypt(f, &sealed); err != nil {
		return 0, a.track(fmt.Errorf("encrypting snapshot: %w", err))
	}

	latest, err := vault.Latest(v, dbID)
	if err != nil {
		return 0, a.track(err)
	}
	version := latest + 1
	if err := v.PutSnapshot(dbID, version, &sealed, int64(sealed.Len())); err != nil {
		return 0, a.track(err)
	}

	a.logger.Info("snapshot stored", "db", dbID, "version", version)
	return version, nil
}

// Snapshots lists the stored snapshot versions of the open database.
func (a *BooruApp) Snapshots() ([]int64, error) {
	v, _, err := a.snapshotDeps()
	if err != nil {
		return nil, err
	}
	dbID, err := a.booru.GetConfig(booru.ConfigID)
	if err != nil {
		return nil, err
	}
	return v.Versions(dbID)
}

// RestoreSnapshot decrypts a snapshot of the open database to dest. Version 0
// selects the latest snapshot.
func (a *BooruApp) RestoreSnapshot(version int64, dest, passphrase string) error {
	v, enc, err := a.snapshotDeps()
	if err != nil {
		return a.track(err)
	}
	dbID, err := a.booru.GetConfig(booru.ConfigID)
	if err != nil {
		return a.track(err)
	}

	if version == 0 {
		if version, err = vault.Latest(v, dbID); err != nil {
			return a.track(err)
		}
		if version == 0 {
			return a.track(fmt.Errorf("no snapshots of %s", dbID))
		}
	}

	unlocked, err := enc.Unlock(passphrase)
	if err != nil {
		return a.track(err)
	}

	var sealed bytes.Buffer
	if err := v.GetSnapshot(dbID, version, &sealed); err != nil {
		return a.track(err)
	}
	var plain bytes.Buffer
	if err := unlocked.Decrypt(&sealed, &plain); err != nil {
		return a.track(fmt.Errorf("decrypting snapshot %d: %w", version, err))
	}

	if err := atomic.WriteFile(dest, &plain); err != nil {
		return a.track(fmt.Errorf("writing %s: %w", dest, err))
	}
	a.logger.Info("snapshot restored", "db", dbID, "version", version, "dest", dest)
	return nil
}
