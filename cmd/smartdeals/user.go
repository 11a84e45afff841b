package main

import (
	"fmt"
	"time"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"smartdeals/internal/repos"
	"smartdeals/internal/services"
)

const (
	emailFlag    = "email"
	nameFlag     = "name"
	passwordFlag = "password"
)

var userAddFlags = map[string]cobraflags.Flag{
	emailFlag: &cobraflags.StringFlag{
		Name:  emailFlag,
		Usage: "Email the user signs in with (required)",
	},
	nameFlag: &cobraflags.StringFlag{
		Name:  nameFlag,
		Usage: "Display name (required)",
	},
	passwordFlag: &cobraflags.StringFlag{
		Name:  passwordFlag,
		Usage: "Password, 8-72 characters with upper, lower, digit and symbol (required)",
	},
}

func newUserCommand() *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage API users",
	}
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Create a user that can request bearer tokens",
		RunE:  userAddCommand,
	}
	cobraflags.RegisterMap(addCmd, userAddFlags)
	userCmd.AddCommand(addCmd)
	return userCmd
}

func userAddCommand(cmd *cobra.Command, _ []string) error {
	cfg, logger, done, err := setup()
	if err != nil {
		return err
	}
	defer done()

	db, err := repos.OpenDB(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	auth := services.NewAuthService(repos.NewUserRepo(db), time.Hour)
	u, err := auth.Register(cmd.Context(),
		userAddFlags[emailFlag].GetString(),
		userAddFlags[nameFlag].GetString(),
		userAddFlags[passwordFlag].GetString(),
	)
	if err != nil {
		return fmt.Errorf("add user: %w", err)
	}
	logger.Info("user.add", zap.String("email", u.Email), zap.String("id", u.ID))
	fmt.Fprintf(cmd.OutOrStdout(), "created user %s (%s)\n", u.Email, u.ID)
	return nil
}
