package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gorm.io/gorm"

	"github.com/noah-isme/campus-appeals-api/internal/database"
)

// dbOpener connects to the database named by dsn.
type dbOpener func(dsn string, debug bool) (*gorm.DB, error)

type cli struct {
	v      *viper.Viper
	open   dbOpener
	logger zerolog.Logger
}

func newCLI(open dbOpener) *cli {
	v := viper.New()
	v.SetEnvPrefix("APPEALS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	return &cli{
		v:      v,
		open:   open,
		logger: zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger(),
	}
}

func (c *cli) db() (*gorm.DB, error) {
	dsn := strings.TrimSpace(c.v.GetString("database.url"))
	if dsn == "" {
		return nil, fmt.Errorf("database url is required (--database-url or APPEALS_DATABASE_URL)")
	}
	return c.open(dsn, c.v.GetBool("debug"))
}

func newRootCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "appealctl",
		Short:         "Maintenance tool for the campus appeals database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("database-url", "", "postgres DSN (defaults to APPEALS_DATABASE_URL)")
	cmd.PersistentFlags().Bool("debug", false, "log SQL statements")
	_ = c.v.BindPFlag("database.url", cmd.PersistentFlags().Lookup("database-url"))
	_ = c.v.BindPFlag("debug", cmd.PersistentFlags().Lookup("debug"))

	cmd.AddCommand(newMigrateCmd(c))
	cmd.AddCommand(newSeedCmd(c))
	cmd.AddCommand(newHashSecretCmd())
	cmd.AddCommand(newWindowCmd(c))
	return cmd
}

// Execute runs the command tree against the configured postgres database.
func Execute() {
	_ = godotenv.Load()

	if err := newRootCmd(newCLI(database.ConnectPostgres)).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
