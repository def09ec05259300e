package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// envPassphrase supplies the snapshot passphrase without a prompt.
const envPassphrase = "BOORU_PASSPHRASE"

// readPassphrase returns $BOORU_PASSPHRASE, or prompts for it without echo.
// confirm asks twice and requires both entries to match.
func readPassphrase(prompt string, confirm bool) (string, error) {
	if p := os.Getenv(envPassphrase); p != "" {
		return p, nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("no terminal to prompt for a passphrase; set %s", envPassphrase)
	}

	ask := func(prompt string) (string, error) {
		fmt.Fprint(os.Stderr, prompt)
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading passphrase: %w", err)
		}
		return string(b), nil
	}

	p, err := ask(prompt)
	if err != nil {
		return "", err
	}
	if confirm {
		again, err := ask("Confirm passphrase: ")
		if err != nil {
			return "", err
		}
		if again != p {
			return "", fmt.Errorf("passphrases do not match")
		}
	}
	return p, nil
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Store encrypted database snapshots in the vault",
}

var snapshotInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate the snapshot encryption keys",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, args)
		if err != nil {
			return err
		}
		defer a.Close()

		if ok, err := a.EncryptionConfigured(); err != nil {
			return err
		} else if ok {
			fmt.Println("Encryption keys already exist")
			return nil
		}

		passphrase, err := readPassphrase("New passphrase: ", true)
		if err != nil {
			return err
		}
		if err := a.SetupEncryption(passphrase); err != nil {
			return fmt.Errorf("setting up encryption: %w", err)
		}
		fmt.Println("Encryption keys created")
		return nil
	},
}

var snapshotPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Encrypt the database into the vault as a new snapshot",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, args)
		if err != nil {
			return err
		}
		defer a.Close()

		version, err := a.Snapshot()
		if err != nil {
			return fmt.Errorf("snapshot failed: %w", err)
		}
		fmt.Printf("Stored snapshot %d\n", version)
		return nil
	},
}

var snapshotListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the stored snapshots of the database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, args)
		if err != nil {
			return err
		}
		defer a.Close()

		versions, err := a.Snapshots()
		if err != nil {
			return err
		}
		if len(versions) == 0 {
			fmt.Println("No snapshots")
			return nil
		}
		for _, v := range versions {
			fmt.Println(v)
		}
		return nil
	},
}

var snapshotRestoreCmd = &cobra.Command{
	Use:   "restore DEST [VERSION]",
	Short: "Decrypt a snapshot (default latest) to DEST",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var version int64
		if len(args) == 2 {
			v, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil || v <= 0 {
				return fmt.Errorf("invalid snapshot version %q", args[1])
			}
			version = v
		}

		a, err := newApp(cmd, args)
		if err != nil {
			return err
		}
		defer a.Close()

		passphrase, err := readPassphrase("Passphrase: ", false)
		if err != nil {
			return err
		}
		if err := a.RestoreSnapshot(version, args[0], passphrase); err != nil {
			return fmt.Errorf("restore failed: %w", err)
		}
		fmt.Printf("Snapshot restored to %s\n", args[0])
		return nil
	},
}

func init() {
	snapshotCmd.AddCommand(snapshotInitCmd)
	snapshotCmd.AddCommand(snapshotPushCmd)
	snapshotCmd.AddCommand(snapshotListCmd)
	snapshotCmd.AddCommand(snapshotRestoreCmd)
	rootCmd.AddCommand(snapshotCmd)
}
