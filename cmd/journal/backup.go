package main

import (
	"fmt"
	"os"
	"strings"

	"journal-go/internal/encryption"

	"github.com/spf13/cobra"
)

// backupPassphrase asks for an optional backup passphrase when --encrypt is set.
func backupPassphrase(cmd *cobra.Command, confirmNew bool) (string, error) {
	encrypt, _ := cmd.Flags().GetBool("encrypt")
	if !encrypt {
		return "", nil
	}
	if confirmNew {
		return readNewPassword("Backup passphrase: ")
	}
	return readPassword("Backup passphrase: ")
}

// backup command
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Store a backup in the vault",
	RunE: func(cmd *cobra.Command, args []string) error {
		passphrase, err := backupPassphrase(cmd, true)
		if err != nil {
			return err
		}

		a, err := newApp(cmd, "Backup")
		if err != nil {
			return err
		}
		defer a.Close()

		name, err := a.Backup(cmd.Context(), passphrase)
		if err != nil {
			return fmt.Errorf("backup failed: %w", err)
		}
		fmt.Printf("Stored backup %s\n", name)
		return nil
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List backups in the vault",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "ListBackups")
		if err != nil {
			return err
		}
		defer a.Close()

		names, err := a.ListBackups(cmd.Context())
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Println("No backups.")
			return nil
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return nil
	},
}

// restore command
var restoreCmd = &cobra.Command{
	Use:   "restore NAME",
	Short: "Replace the journal with a backup from the vault",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var passphrase string
		var err error
		if strings.HasSuffix(args[0], encryption.AgeExtension) {
			passphrase, err = readPassword("Backup passphrase: ")
		} else {
			passphrase, err = backupPassphrase(cmd, false)
		}
		if err != nil {
			return err
		}

		a, err := newApp(cmd, "Restore")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Restore(cmd.Context(), args[0], passphrase); err != nil {
			return fmt.Errorf("restore failed: %w", err)
		}
		fmt.Printf("Restored %s. Log in with the password the backup was made under.\n", args[0])
		return nil
	},
}

// export command
var exportCmd = &cobra.Command{
	Use:   "export FILE",
	Short: "Write a backup to FILE",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		passphrase, err := backupPassphrase(cmd, true)
		if err != nil {
			return err
		}

		a, err := newApp(cmd, "Export")
		if err != nil {
			return err
		}
		defer a.Close()

		f, err := os.OpenFile(args[0], os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
		if err != nil {
			return fmt.Errorf("creating export file: %w", err)
		}

		doc, err := a.Export(cmd.Context(), f, passphrase)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(args[0])
			return fmt.Errorf("export failed: %w", err)
		}

		fmt.Printf("Exported %d entries and %d photos to %s\n", len(doc.Entries), len(doc.Photos), args[0])
		return nil
	},
}

// import command
var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Replace the journal with a backup file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		passphrase, err := backupPassphrase(cmd, false)
		if err != nil {
			return err
		}

		a, err := newApp(cmd, "Import")
		if err != nil {
			return err
		}
		defer a.Close()

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening import file: %w", err)
		}
		defer f.Close()

		doc, err := a.Import(cmd.Context(), f, passphrase)
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}
		fmt.Printf("Imported %d entries and %d photos\n", len(doc.Entries), len(doc.Photos))
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{backupCmd, exportCmd} {
		c.Flags().BoolP("encrypt", "e", false, "Protect the backup file with a passphrase")
	}
	for _, c := range []*cobra.Command{restoreCmd, importCmd} {
		c.Flags().BoolP("encrypt", "e", false, "The backup file is passphrase-protected")
	}

	backupCmd.AddCommand(backupListCmd)

	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}
