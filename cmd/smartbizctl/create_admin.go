package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/smartbizhq/smartbiz-engine/pkg/apperrors"
	"github.com/smartbizhq/smartbiz-engine/pkg/auth"
	"github.com/smartbizhq/smartbiz-engine/pkg/config"
	"github.com/smartbizhq/smartbiz-engine/pkg/database"
	"github.com/smartbizhq/smartbiz-engine/pkg/models"
	"github.com/smartbizhq/smartbiz-engine/pkg/repositories"
)

var (
	adminEmail    string
	adminPassword string
	adminName     string
)

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create a superuser admin account",
	Long: `Creates an admin account with superuser access. Superusers pass every
role check, so this is the account used to bootstrap a fresh deployment.`,
	RunE: runCreateAdmin,
}

func init() {
	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "Email address for the admin account")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "Password for the admin account")
	createAdminCmd.Flags().StringVar(&adminName, "name", "", "Full name for the admin account")
	_ = createAdminCmd.MarkFlagRequired("email")
	_ = createAdminCmd.MarkFlagRequired("password")
	_ = createAdminCmd.MarkFlagRequired("name")
	rootCmd.AddCommand(createAdminCmd)
}

func runCreateAdmin(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load(Version)
	if err != nil {
		return err
	}

	db, err := database.NewConnectionFromConfig(ctx, &cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	hashed, err := auth.HashPassword(adminPassword)
	if err != nil {
		return err
	}

	user := &models.User{
		Email:          adminEmail,
		FullName:       adminName,
		HashedPassword: hashed,
		Role:           models.RoleAdmin,
		IsActive:       true,
		IsSuperuser:    true,
	}

	userRepo := repositories.NewUserRepository(db)
	if err := userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return fmt.Errorf("an account with email %s already exists", adminEmail)
		}
		return err
	}

	logger.Info("Admin account created",
		zap.String("email", user.Email),
		zap.String("id", user.ID.String()))
	return nil
}
