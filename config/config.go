// Package config loads blob storage connection settings from the
// environment, optionally seeded from .env files.
package config

import (
	"fmt"
	"maps"
	"slices"

	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/blobtypes"
	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/errors"
)

// Environment variables read by Load.
const (
	EnvConnectionString       = "AZURE_BLOB_STORAGE_CONNECTION_STRING"
	EnvXMLConnectionString    = "AZURE_BLOB_XML_CONNECTION_STRING"
	EnvImagesConnectionString = "AZURE_BLOB_IMAGES_CONNECTION_STRING"
)

// Named accounts.
const (
	AccountXML    = "xmlService"
	AccountImages = "imageService"
)

// NamedAccount binds an account name to the variable holding its connection string.
type NamedAccount struct {
	Name string
	Env  string
}

// DefaultNamedAccounts are the optional accounts Load looks for.
var DefaultNamedAccounts = []NamedAccount{
	{Name: AccountXML, Env: EnvXMLConnectionString},
	{Name: AccountImages, Env: EnvImagesConnectionString},
}

// Config is the resolved connection configuration.
type Config struct {
	// DefaultConnectionString is used by every operation that does not name an account
	DefaultConnectionString string

	// Accounts maps account names to connection strings
	Accounts map[string]string
}

// AccountNames returns the configured account names in sorted order.
func (c *Config) AccountNames() []string {
	return slices.Sorted(maps.Keys(c.Accounts))
}

// ConnectionString returns the connection string of a named account.
func (c *Config) ConnectionString(account string) (string, error) {
	cs, ok := c.Accounts[account]
	if !ok {
		return "", fmt.Errorf("%w: account %q is not configured", errors.ErrInvalidConfiguration, account)
	}
	return cs, nil
}

// Options converts the configuration into client options.
func (c *Config) Options() []blobtypes.Option {
	accounts := maps.Clone(c.Accounts)
	return []blobtypes.Option{
		func(cfg *blobtypes.ClientConfig) {
			cfg.DefaultConnectionString = c.DefaultConnectionString
			if cfg.Accounts == nil {
				cfg.Accounts = make(map[string]string, len(accounts))
			}
			maps.Copy(cfg.Accounts, accounts)
		},
	}
}
