package vault

import (
	"context"
	"fmt"

	"booru-go/internal/config"
)

// NewVaultFromConfig creates a Vault implementation based on the vault config type.
func NewVaultFromConfig(ctx context.Context, cfg config.VaultConfig) (Vault, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryVault(), nil
	case "filesystem":
		if cfg.Root == "" {
			return nil, fmt.Errorf("filesystem vault requires root to be set")
		}
		return NewFileSystemVault(cfg.Root)
	case "s3":
		return NewS3Vault(ctx, S3Options{
			Bucket:   cfg.S3Bucket,
			Prefix:   cfg.S3Prefix,
			Region:   cfg.S3Region,
			Endpoint: cfg.S3Endpoint,
		})
	case "":
		return nil, fmt.Errorf("no vault configured")
	default:
		return nil, fmt.Errorf("unknown vault type: %s", cfg.Type)
	}
}
