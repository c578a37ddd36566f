package system

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Alijeyrad/consulto_backend/internal/app"
	"github.com/Alijeyrad/consulto_backend/internal/repo/sqlstore"
	"github.com/Alijeyrad/consulto_backend/internal/service/auth"
	"github.com/Alijeyrad/consulto_backend/pkg/authorize"
	"github.com/Alijeyrad/consulto_backend/pkg/database"
	"github.com/Alijeyrad/consulto_backend/pkg/util/password"
)

func NewCreateAdminCommand() *cobra.Command {
	var email, pass, name string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin account",
		Long: `Create an admin account. Admins approve consultants and read the
audit log. Registration over HTTP never grants the admin role.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx := context.Background()

			drv, err := database.NewDriver(database.FromCentralConfig(cfg.Database))
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			store := sqlstore.New(drv)
			defer store.Close()

			acfg := authorize.FromCentralConfig(cfg.Authorization)
			acfg.PolicySyncEnabled = false
			enforcer, cleanup, err := authorize.NewEnforcer(acfg, database.NewDSN(cfg.CasbinDatabase))
			if err != nil {
				return fmt.Errorf("failed to create enforcer: %w", err)
			}
			defer cleanup(ctx)
			authz, err := authorize.New(enforcer, acfg)
			if err != nil {
				return fmt.Errorf("failed to create authorization: %w", err)
			}

			// No tokens are issued here, so neither a token manager nor Redis
			// sessions are needed.
			svc := auth.New(
				store,
				auth.NewMemorySessions(),
				nil,
				password.NewFromCentral(cfg.Password),
				app.RoleGranter(authz),
				cfg.Authentication,
			)
			u, err := svc.CreateAdmin(ctx, auth.CreateAdminRequest{Email: email, Password: pass, Name: name})
			if err != nil {
				return fmt.Errorf("failed to create admin: %w", err)
			}

			fmt.Printf("Admin %s created with id %s\n", u.Email, u.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "admin email")
	cmd.Flags().StringVar(&pass, "password", "", "admin password")
	cmd.Flags().StringVar(&name, "name", "Administrator", "display name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}
