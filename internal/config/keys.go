package config

import (
	"fmt"
	"strconv"
	"strings"
)

// key binds a dotted config key to its field.
type key struct {
	get func(*Config) string
	set func(*Config, string) error
}

func stringKey(field func(*Config) *string) key {
	return key{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error { *field(c) = v; return nil },
	}
}

func boolKey(field func(*Config) *bool) key {
	return key{
		get: func(c *Config) string { return strconv.FormatBool(*field(c)) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid boolean %q", v)
			}
			*field(c) = b
			return nil
		},
	}
}

func intKey(field func(*Config) *int) key {
	return key{
		get: func(c *Config) string { return strconv.Itoa(*field(c)) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return fmt.Errorf("invalid count %q", v)
			}
			*field(c) = n
			return nil
		},
	}
}

func listKey(field func(*Config) *[]string) key {
	return key{
		get: func(c *Config) string { return strings.Join(*field(c), ",") },
		set: func(c *Config, v string) error {
			var list []string
			for _, item := range strings.Split(v, ",") {
				if item = strings.TrimSpace(item); item != "" {
					list = append(list, item)
				}
			}
			*field(c) = list
			return nil
		},
	}
}

var keys = map[string]key{
	"base_dir":         stringKey(func(c *Config) *string { return &c.BaseDir }),
	"log_dir":          stringKey(func(c *Config) *string { return &c.LogDir }),
	"database.type":    stringKey(func(c *Config) *string { return &c.Database.Type }),
	"database.path":    stringKey(func(c *Config) *string { return &c.Database.Path }),
	"database.create":  boolKey(func(c *Config) *bool { return &c.Database.Create }),
	"log.level":        stringKey(func(c *Config) *string { return &c.Log.Level }),
	"log.max_size_mb":  intKey(func(c *Config) *int { return &c.Log.MaxSizeMB }),
	"log.max_backups":  intKey(func(c *Config) *int { return &c.Log.MaxBackups }),
	"log.max_age_days": intKey(func(c *Config) *int { return &c.Log.MaxAgeDays }),
	"log.compress":     boolKey(func(c *Config) *bool { return &c.Log.Compress }),
	"import.ignore":    listKey(func(c *Config) *[]string { return &c.Import.Ignore }),
	"import.recursive": boolKey(func(c *Config) *bool { return &c.Import.Recursive }),
	"vault.type":       stringKey(func(c *Config) *string { return &c.Vault.Type }),
	"vault.root":       stringKey(func(c *Config) *string { return &c.Vault.Root }),
	"vault.s3_bucket":  stringKey(func(c *Config) *string { return &c.Vault.S3Bucket }),
	"vault.s3_prefix":  stringKey(func(c *Config) *string { return &c.Vault.S3Prefix }),
	"vault.s3_region":  stringKey(func(c *Config) *string { return &c.Vault.S3Region }),
	"encryption.type":  stringKey(func(c *Config) *string { return &c.Encryption.Type }),
}

// Get returns the value of a dotted key such as "database.path". Lists are
// comma separated.
func (c *Config) Get(name string) (string, error) {
	k, ok := keys[name]
	if !ok {
		return "", fmt.Errorf("unknown config key %q", name)
	}
	return k.get(c), nil
}

// Set parses value into the dotted key.
func (c *Config) Set(name, value string) error {
	k, ok := keys[name]
	if !ok {
		return fmt.Errorf("unknown config key %q", name)
	}
	if err := k.set(c, value); err != nil {
		return fmt.Errorf("setting %s: %w", name, err)
	}
	return nil
}

// Save replaces the config file at path.
func Save(path string, cfg *Config) error {
	return writeToFile(path, cfg)
}
