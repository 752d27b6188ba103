package config

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/go-git/go-billy/v5"
	"github.com/joho/godotenv"

	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/errors"
	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/internal/connstr"
)

// DefaultEnvFile is read when LoadOptions.EnvFiles is empty. It is optional.
const DefaultEnvFile = ".env"

// LoadOptions controls where Load reads values from.
type LoadOptions struct {
	// EnvFiles are read in order; earlier files win. Listed files must exist.
	EnvFiles []string

	// Filesystem reads the env files. Nil means the OS filesystem.
	Filesystem billy.Filesystem

	// Lookup reads process environment variables. Nil means os.LookupEnv.
	// Process variables always win over file values.
	Lookup func(key string) (string, bool)

	// Accounts overrides DefaultNamedAccounts.
	Accounts []NamedAccount

	Logger *slog.Logger
}

// Load resolves the configuration. The default connection string is
// required; named accounts that are missing or malformed are skipped with a
// warning.
func Load(opts LoadOptions) (*Config, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	lookup := opts.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	accounts := opts.Accounts
	if accounts == nil {
		accounts = DefaultNamedAccounts
	}

	fileValues, err := readEnvFiles(opts)
	if err != nil {
		return nil, err
	}

	get := func(key string) string {
		if v, ok := lookup(key); ok && v != "" {
			return v
		}
		return fileValues[key]
	}

	def := get(EnvConnectionString)
	if def == "" {
		return nil, fmt.Errorf("%w: %s is not set", errors.ErrInvalidConfiguration, EnvConnectionString)
	}
	if _, err := connstr.Parse(def); err != nil {
		return nil, fmt.Errorf("%s: %w", EnvConnectionString, err)
	}

	cfg := &Config{
		DefaultConnectionString: def,
		Accounts:                make(map[string]string),
	}

	for _, account := range accounts {
		cs := get(account.Env)
		if cs == "" {
			logger.Warn("named account not configured", "account", account.Name, "env", account.Env)
			continue
		}
		if _, err := connstr.Parse(cs); err != nil {
			logger.Warn("named account has an invalid connection string, skipping",
				"account", account.Name,
				"env", account.Env,
				"error", err,
			)
			continue
		}
		cfg.Accounts[account.Name] = cs
	}

	return cfg, nil
}

func readEnvFiles(opts LoadOptions) (map[string]string, error) {
	files := opts.EnvFiles
	optional := false
	if len(files) == 0 {
		files = []string{DefaultEnvFile}
		optional = true
	}

	values := make(map[string]string)
	for _, name := range files {
		parsed, err := readEnvFile(opts.Filesystem, name)
		if err != nil {
			if optional && stderrors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("%w: read %s: %w", errors.ErrInvalidConfiguration, name, err)
		}
		for k, v := range parsed {
			if _, seen := values[k]; !seen {
				values[k] = v
			}
		}
	}
	return values, nil
}

func readEnvFile(filesystem billy.Filesystem, name string) (map[string]string, error) {
	if filesystem == nil {
		return godotenv.Read(name)
	}

	f, err := filesystem.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return godotenv.Parse(f)
}
