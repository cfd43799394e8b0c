package main

import (
	"fmt"
	"os"

	"journal-go/internal/app"
	"journal-go/internal/config"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates a JournalApp. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "AddEntry", "Backup").
func newApp(cmd *cobra.Command, operation string) (*app.JournalApp, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	vaultName, _ := cmd.Flags().GetString("vault")

	a, err := app.NewJournalApp(cmd.Context(), cfg, operation, app.Options{
		Verbose: verbose,
		Vault:   vaultName,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

// newUnlockedApp is newApp followed by a password prompt.
func newUnlockedApp(cmd *cobra.Command, operation string) (*app.JournalApp, error) {
	a, err := newApp(cmd, operation)
	if err != nil {
		return nil, err
	}
	if err := unlock(cmd.Context(), a); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

var rootCmd = &cobra.Command{
	Use:   "journal",
	Short: "Encrypted personal journal",
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		installID := uuid.New().String()
		cfg := config.NewConfig(installID, defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Install ID: %s\n", installID)
		fmt.Printf("Base Dir:   %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Install ID: %s\n", cfg.InstallID)
		fmt.Printf("Base Dir:   %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:    %s\n", cfg.LogDir)
		fmt.Printf("Database:   %s %s\n", cfg.Database.Type, cfg.Database.DataDir)
		for _, v := range cfg.Vaults {
			fmt.Printf("Vault:      %s (%s)\n", v.Name, v.Type)
		}
		return nil
	},
}

var configVaultCmd = &cobra.Command{
	Use:   "vault",
	Short: "Manage vault",
}

var configVaultCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the vault is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "ValidateVault")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.ValidateVault(cmd.Context()); err != nil {
			return fmt.Errorf("vault check failed: %w", err)
		}
		fmt.Println("Vault OK")
		return nil
	},
}

// setup command
var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Set the journal password",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "SetupPassword")
		if err != nil {
			return err
		}
		defer a.Close()

		password, err := readNewPassword("New password: ")
		if err != nil {
			return err
		}
		if err := a.SetupPassword(cmd.Context(), password); err != nil {
			return fmt.Errorf("setting up password: %w", err)
		}

		fmt.Println("Journal password set.")
		return nil
	},
}

// passwd command
var passwdCmd = &cobra.Command{
	Use:   "passwd",
	Short: "Change the journal password",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "ChangePassword")
		if err != nil {
			return err
		}
		defer a.Close()

		oldPassword, err := readPassword("Current password: ")
		if err != nil {
			return err
		}
		newPassword, err := readNewPassword("New password: ")
		if err != nil {
			return err
		}

		ok, err := a.ChangePassword(cmd.Context(), oldPassword, newPassword)
		if err != nil {
			return fmt.Errorf("changing password: %w", err)
		}
		if !ok {
			return errWrongPassword
		}

		fmt.Println("Password changed.")
		return nil
	},
}

// wipe command
var wipeCmd = &cobra.Command{
	Use:   "wipe",
	Short: "Delete all entries, photos, and the password",
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		if !force {
			ok, err := confirm("This permanently deletes the journal. Type 'wipe' to continue: ", "wipe")
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("Aborted.")
				return nil
			}
		}

		a, err := newApp(cmd, "Wipe")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Wipe(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("Journal wiped.")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Copy log output to stderr")
	rootCmd.PersistentFlags().String("vault", "", "Name of the configured vault to use")

	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configVaultCmd)
	configVaultCmd.AddCommand(configVaultCheckCmd)

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(passwdCmd)
	rootCmd.AddCommand(wipeCmd)
	wipeCmd.Flags().BoolP("force", "f", false, "Skip the confirmation prompt")
}
