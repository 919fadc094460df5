package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	dynform "github.com/MaansiBisht/dynamic-form-app"
)

// newFlagSet builds a flag set whose -h output goes to out.
func newFlagSet(name string, out io.Writer) *flag.FlagSet {
	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	flags.SetOutput(out)
	flags.Usage = func() {
		fmt.Fprintf(out, "Usage: form-tools %s [options]\n\n", name)
		fmt.Fprintln(out, "Options:")
		flags.PrintDefaults()
	}
	return flags
}

// parseFlags reports false when the command should stop, either on -h or on
// a parse error.
func parseFlags(flags *flag.FlagSet, args []string) (bool, error) {
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// loadConfig reads path when given, then applies the environment.
func loadConfig(path string) (*dynform.Config, error) {
	config := dynform.DefaultConfig()
	if path != "" {
		loaded, err := dynform.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		config = loaded
	}
	config.ApplyEnv()
	return config, nil
}

// dbFlags binds the database settings to flags defaulting to the loaded
// configuration.
type dbFlags struct {
	configPath string
	host       string
	port       int
	database   string
	user       string
	password   string
	sslMode    string
	table      string
}

func (f *dbFlags) register(flags *flag.FlagSet) {
	flags.StringVar(&f.configPath, "config", os.Getenv("CONFIG_FILE"), "path to a YAML or JSON config file")
	flags.StringVar(&f.host, "db-host", "", "database host (overrides config)")
	flags.IntVar(&f.port, "db-port", 0, "database port (overrides config)")
	flags.StringVar(&f.database, "db-name", "", "database name (overrides config)")
	flags.StringVar(&f.user, "db-user", "", "database user (overrides config)")
	flags.StringVar(&f.password, "db-password", "", "database password (overrides config)")
	flags.StringVar(&f.sslMode, "db-ssl-mode", "", "database sslmode (overrides config)")
	flags.StringVar(&f.table, "table", "", "submissions table (overrides config)")
}

func (f *dbFlags) resolve() (dynform.DatabaseConfig, error) {
	config, err := loadConfig(f.configPath)
	if err != nil {
		return dynform.DatabaseConfig{}, err
	}
	db := config.Database
	override(&db.Host, f.host)
	override(&db.Database, f.database)
	override(&db.Username, f.user)
	override(&db.Password, f.password)
	override(&db.SSLMode, f.sslMode)
	override(&db.Table, f.table)
	if f.port != 0 {
		db.Port = f.port
	}
	return db, nil
}

func override(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}

func getenvDefaultInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return def
}
