// Command wmsctl runs one-off maintenance tasks against the configured database.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"wms-admin/internal/app"
	"wms-admin/internal/core/database"
	"wms-admin/internal/service"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "wmsctl",
	Short:         "WMS admin maintenance CLI",
	Long:          "wmsctl migrates the schema, seeds the permission catalog and system roles, and creates administrators.",
	SilenceErrors: true,
	SilenceUsage:  true,
}

func main() {
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("CONFIG_PATH"), "path to the YAML config file")
	rootCmd.AddCommand(migrateCmd(), seedCmd(), createAdminCmd())
}

// withContainer bootstraps dependencies for the duration of fn.
func withContainer(ctx context.Context, fn func(*app.Container) error) error {
	c, cleanup, err := app.Bootstrap(ctx, configPath)
	if err != nil {
		return err
	}
	defer cleanup()
	return fn(c)
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create tables and partial unique indexes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withContainer(cmd.Context(), func(c *app.Container) error {
				if err := database.Migrate(c.DB, c.Log); err != nil {
					return err
				}
				c.Log.Info("migration complete")
				return nil
			})
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Install the permission catalog and system roles (idempotent)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withContainer(cmd.Context(), func(c *app.Container) error {
				res, err := c.Seeder.Seed(cmd.Context())
				if err != nil {
					return err
				}
				c.Log.Info("seed complete",
					zap.Int("permissions_created", res.PermissionsCreated),
					zap.Int("roles_created", res.RolesCreated))
				return nil
			})
		},
	}
}

func createAdminCmd() *cobra.Command {
	var in service.AdminInput
	var tenantID string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create a SuperAdmin user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if in.Password == "" {
				in.Password = os.Getenv("WMS_ADMIN_PASSWORD")
			}
			if in.Password == "" {
				return errors.New("password required: pass --password or set WMS_ADMIN_PASSWORD")
			}
			if tenantID != "" {
				in.TenantID = &tenantID
			}
			return withContainer(cmd.Context(), func(c *app.Container) error {
				if _, err := c.Seeder.Seed(cmd.Context()); err != nil {
					return err
				}
				u, err := c.Seeder.CreateAdmin(cmd.Context(), in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s)\n", u.Username, u.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&in.Username, "username", "admin", "login name")
	cmd.Flags().StringVar(&in.Email, "email", "", "email address")
	cmd.Flags().StringVar(&in.Password, "password", "", "password (or WMS_ADMIN_PASSWORD)")
	cmd.Flags().StringVar(&tenantID, "tenant", "", "optional tenant id")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
