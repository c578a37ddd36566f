package system

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Alijeyrad/consulto_backend/pkg/database"
	pasetotoken "github.com/Alijeyrad/consulto_backend/pkg/paseto"
)

func NewInitCommand() *cobra.Command {
	var keyMode string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the application and casbin databases",
		Long: `Create the application and casbin databases if they do not exist.

With --gen-keys local|public a fresh PASETO key set is printed for the
authentication.paseto section of the config.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			fmt.Println("Initializing databases...")
			if err := database.InitializeDatabases(cfg); err != nil {
				return fmt.Errorf("failed to initialize databases: %w", err)
			}
			fmt.Println("Databases initialized successfully.")

			if keyMode == "" {
				return nil
			}
			keys, err := pasetotoken.GenerateKeys(pasetotoken.Mode(keyMode))
			if err != nil {
				return fmt.Errorf("failed to generate paseto keys: %w", err)
			}
			ks := keys.Strings()
			fmt.Printf("\nauthentication:\n  paseto:\n    mode: %s\n", ks.Mode)
			if ks.SymmetricHex != "" {
				fmt.Printf("    local_key_hex: %s\n", ks.SymmetricHex)
			}
			if ks.SecretHex != "" {
				fmt.Printf("    secret_key_hex: %s\n    public_key_hex: %s\n", ks.SecretHex, ks.PublicHex)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&keyMode, "gen-keys", "", "print a new PASETO key set (local|public)")

	return cmd
}
