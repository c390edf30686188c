package main

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/diewo77/freelance/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Example: `  # GORM AutoMigrate (works with sqlite and postgres)
  freelance migrate

  # embedded SQL migrations (postgres only)
  freelance migrate --sql`,
	RunE: func(cmd *cobra.Command, args []string) error {
		useSQL, _ := cmd.Flags().GetBool("sql")
		if useSQL {
			return db.MigrateSQL(cfg.Database)
		}
		dbConn, err := connect()
		if err != nil {
			return err
		}
		if err := db.AutoMigrate(dbConn); err != nil {
			return err
		}
		log.Info().Msg("schema up to date")
		return nil
	},
}

var createUserCmd = &cobra.Command{
	Use:     "createuser",
	Short:   "Create a login account",
	Example: `  freelance createuser --username alice --email alice@example.com --password s3cret`,
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")
		if username == "" || password == "" {
			return errors.New("--username and --password are required")
		}
		dbConn, err := connect()
		if err != nil {
			return err
		}
		if err := db.AutoMigrate(dbConn); err != nil {
			return err
		}
		u, err := db.CreateUser(dbConn, username, email, password)
		if err != nil {
			return err
		}
		log.Info().Uint("id", u.ID).Str("username", u.Username).Msg("user created")
		fmt.Printf("created user %s (id %d)\n", u.Username, u.ID)
		return nil
	},
}

func init() {
	migrateCmd.Flags().Bool("sql", false, "Apply the embedded SQL migrations instead of AutoMigrate")
	rootCmd.AddCommand(migrateCmd)

	createUserCmd.Flags().String("username", "", "Login name")
	createUserCmd.Flags().String("email", "", "Contact email")
	createUserCmd.Flags().String("password", "", "Password")
	rootCmd.AddCommand(createUserCmd)
}
