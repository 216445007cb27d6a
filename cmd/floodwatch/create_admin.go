package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mr1hm/go-flood-alerts/internal/auth"
	"github.com/mr1hm/go-flood-alerts/internal/models"
	"github.com/mr1hm/go-flood-alerts/internal/repository"
)

var adminFlags struct {
	name     string
	email    string
	password string
}

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an admin account",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()

		hash, err := auth.HashPassword(adminFlags.password)
		if err != nil {
			return err
		}

		db, err := repository.Open(cfg.DB)
		if err != nil {
			return fmt.Errorf("error opening database: %w", err)
		}
		defer db.Close()

		u := &models.User{
			Name:         adminFlags.name,
			Email:        adminFlags.email,
			PasswordHash: hash,
			Role:         models.RoleAdmin,
		}
		if err := db.CreateUser(cmd.Context(), u); err != nil {
			return fmt.Errorf("error creating admin: %w", err)
		}

		slog.Info("admin created", "user_id", u.ID, "email", u.Email)
		fmt.Fprintf(cmd.OutOrStdout(), "admin %s created with id %d\n", u.Email, u.ID)
		return nil
	},
}

func init() {
	f := createAdminCmd.Flags()
	f.StringVar(&adminFlags.name, "name", "Administrator", "Display name")
	f.StringVar(&adminFlags.email, "email", "", "Login email")
	f.StringVar(&adminFlags.password, "password", "", "Password (at least 8 characters)")
	_ = createAdminCmd.MarkFlagRequired("email")
	_ = createAdminCmd.MarkFlagRequired("password")
}
