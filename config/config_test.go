package config

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/blobtypes"
	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/errors"
	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/internal/testutil"
)

func env(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func TestLoad(t *testing.T) {
	primary := testutil.ConnectionString("primary")
	xml := testutil.ConnectionString("xmlstore")
	images := testutil.ConnectionString("images")

	tests := []struct {
		name         string
		env          map[string]string
		wantErr      bool
		wantAccounts []string
	}{
		{
			name:         "default only",
			env:          map[string]string{EnvConnectionString: primary},
			wantAccounts: nil,
		},
		{
			name: "all accounts",
			env: map[string]string{
				EnvConnectionString:       primary,
				EnvXMLConnectionString:    xml,
				EnvImagesConnectionString: images,
			},
			wantAccounts: []string{AccountImages, AccountXML},
		},
		{
			name: "invalid named account is skipped",
			env: map[string]string{
				EnvConnectionString:       primary,
				EnvXMLConnectionString:    "AccountKey=abc",
				EnvImagesConnectionString: images,
			},
			wantAccounts: []string{AccountImages},
		},
		{
			name:    "missing default",
			env:     map[string]string{EnvXMLConnectionString: xml},
			wantErr: true,
		},
		{
			name:    "empty default",
			env:     map[string]string{EnvConnectionString: ""},
			wantErr: true,
		},
		{
			name:    "malformed default",
			env:     map[string]string{EnvConnectionString: "EndpointSuffix=core.windows.net"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(LoadOptions{Filesystem: memfs.New(), Lookup: env(tt.env)})
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsInvalidConfiguration(err))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, primary, cfg.DefaultConnectionString)
			assert.Equal(t, tt.wantAccounts, cfg.AccountNames())
		})
	}
}

func TestLoad_WarnsForSkippedAccounts(t *testing.T) {
	logger, logs := testutil.NewTestLogger()

	_, err := Load(LoadOptions{
		Filesystem: memfs.New(),
		Lookup: env(map[string]string{
			EnvConnectionString:    testutil.ConnectionString("primary"),
			EnvXMLConnectionString: "garbage",
		}),
		Logger: logger,
	})

	require.NoError(t, err)
	assert.Contains(t, logs.String(), "account=xmlService")
	assert.Contains(t, logs.String(), "account=imageService")
	assert.NotContains(t, logs.String(), "dGVzdC1rZXk=", "keys must never be logged")
}

func TestLoad_EnvFile(t *testing.T) {
	fs := memfs.New()
	fromFile := testutil.ConnectionString("fromfile")
	fromEnv := testutil.ConnectionString("fromenv")
	require.NoError(t, util.WriteFile(fs, ".env", []byte(
		EnvConnectionString+"=\""+fromFile+"\"\n"+
			EnvImagesConnectionString+"=\""+fromFile+"\"\n",
	), 0o644))

	t.Run("file supplies values", func(t *testing.T) {
		cfg, err := Load(LoadOptions{Filesystem: fs, Lookup: env(nil)})
		require.NoError(t, err)
		assert.Equal(t, fromFile, cfg.DefaultConnectionString)
		assert.Equal(t, fromFile, cfg.Accounts[AccountImages])
	})

	t.Run("process environment wins", func(t *testing.T) {
		cfg, err := Load(LoadOptions{Filesystem: fs, Lookup: env(map[string]string{EnvConnectionString: fromEnv})})
		require.NoError(t, err)
		assert.Equal(t, fromEnv, cfg.DefaultConnectionString)
	})
}

func TestLoad_EnvFiles(t *testing.T) {
	fs := memfs.New()
	first := testutil.ConnectionString("first")
	second := testutil.ConnectionString("second")
	require.NoError(t, util.WriteFile(fs, "local.env", []byte(EnvConnectionString+"=\""+first+"\"\n"), 0o644))
	require.NoError(t, util.WriteFile(fs, "shared.env", []byte(
		EnvConnectionString+"=\""+second+"\"\n"+EnvXMLConnectionString+"=\""+second+"\"\n"), 0o644))

	cfg, err := Load(LoadOptions{Filesystem: fs, EnvFiles: []string{"local.env", "shared.env"}, Lookup: env(nil)})

	require.NoError(t, err)
	assert.Equal(t, first, cfg.DefaultConnectionString, "earlier files win")
	assert.Equal(t, second, cfg.Accounts[AccountXML])
}

func TestLoad_MissingExplicitEnvFile(t *testing.T) {
	_, err := Load(LoadOptions{
		Filesystem: memfs.New(),
		EnvFiles:   []string{"missing.env"},
		Lookup:     env(map[string]string{EnvConnectionString: testutil.ConnectionString("primary")}),
	})

	require.Error(t, err)
	assert.True(t, errors.IsInvalidConfiguration(err))
}

func TestLoad_CustomAccounts(t *testing.T) {
	cfg, err := Load(LoadOptions{
		Filesystem: memfs.New(),
		Lookup: env(map[string]string{
			EnvConnectionString: testutil.ConnectionString("primary"),
			"ARCHIVE_CS":        testutil.ConnectionString("archive"),
		}),
		Accounts: []NamedAccount{{Name: "archive", Env: "ARCHIVE_CS"}},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"archive"}, cfg.AccountNames())
}

func TestConfig_ConnectionString(t *testing.T) {
	cfg := &Config{Accounts: map[string]string{AccountXML: "cs"}}

	cs, err := cfg.ConnectionString(AccountXML)
	require.NoError(t, err)
	assert.Equal(t, "cs", cs)

	_, err = cfg.ConnectionString("unknown")
	require.Error(t, err)
	assert.True(t, errors.IsInvalidConfiguration(err))
}

func TestConfig_Options(t *testing.T) {
	cfg := &Config{
		DefaultConnectionString: "default",
		Accounts:                map[string]string{AccountImages: "images"},
	}

	client := &blobtypes.ClientConfig{Accounts: map[string]string{"extra": "x"}}
	for _, opt := range cfg.Options() {
		opt(client)
	}

	assert.Equal(t, "default", client.DefaultConnectionString)
	assert.Equal(t, map[string]string{"extra": "x", AccountImages: "images"}, client.Accounts)
}
