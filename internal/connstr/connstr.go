// Package connstr parses storage account connection strings.
//
// A connection string is a semicolon-separated list of key=value pairs.
// Keys are matched case-insensitively and values may themselves contain '='
// (account keys are base64 and usually end in "==").
package connstr

import (
	"fmt"
	"strings"

	blobstoreerrors "github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/errors"
)

// Well-known keys.
const (
	KeyAccountName              = "AccountName"
	KeyAccountKey               = "AccountKey"
	KeyEndpointSuffix           = "EndpointSuffix"
	KeyDefaultEndpointsProtocol = "DefaultEndpointsProtocol"
	KeyBlobEndpoint             = "BlobEndpoint"
	KeySharedAccessSignature    = "SharedAccessSignature"
	KeyUseDevelopmentStorage    = "UseDevelopmentStorage"
)

const (
	defaultProtocol       = "https"
	defaultEndpointSuffix = "core.windows.net"

	// Storage emulator (Azurite) well-known account.
	devAccountName  = "devstoreaccount1"
	devAccountKey   = "Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw=="
	devBlobEndpoint = "http://127.0.0.1:10000/devstoreaccount1"
)

// Account is a parsed connection string.
type Account struct {
	Name                  string
	Key                   string
	EndpointSuffix        string
	Protocol              string
	BlobEndpoint          string
	SharedAccessSignature string
	DevelopmentStorage    bool

	raw string
}

// Value returns the value for key in a connection string. The lookup is
// case-insensitive; the first occurrence wins.
func Value(connectionString, key string) (string, bool) {
	for _, part := range strings.Split(connectionString, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(k), key) {
			return strings.TrimSpace(v), true
		}
	}
	return "", false
}

// Parse parses a connection string. It fails with ErrInvalidConfiguration
// when the string is empty or carries no AccountName.
func Parse(connectionString string) (*Account, error) {
	if strings.TrimSpace(connectionString) == "" {
		return nil, fmt.Errorf("%w: connection string is empty", blobstoreerrors.ErrInvalidConfiguration)
	}

	if dev, ok := Value(connectionString, KeyUseDevelopmentStorage); ok && strings.EqualFold(dev, "true") {
		return &Account{
			Name:               devAccountName,
			Key:                devAccountKey,
			Protocol:           "http",
			BlobEndpoint:       devBlobEndpoint,
			DevelopmentStorage: true,
			raw:                connectionString,
		}, nil
	}

	a := &Account{raw: connectionString}
	a.Name, _ = Value(connectionString, KeyAccountName)
	a.Key, _ = Value(connectionString, KeyAccountKey)
	a.EndpointSuffix, _ = Value(connectionString, KeyEndpointSuffix)
	a.Protocol, _ = Value(connectionString, KeyDefaultEndpointsProtocol)
	a.BlobEndpoint, _ = Value(connectionString, KeyBlobEndpoint)
	a.SharedAccessSignature, _ = Value(connectionString, KeySharedAccessSignature)

	if a.Name == "" {
		return nil, fmt.Errorf("%w: connection string has no %s", blobstoreerrors.ErrInvalidConfiguration, KeyAccountName)
	}

	return a, nil
}

// ServiceURL returns the blob service endpoint for the account, always
// ending in a slash.
func (a *Account) ServiceURL() string {
	if a.BlobEndpoint != "" {
		return strings.TrimSuffix(a.BlobEndpoint, "/") + "/"
	}
	protocol := a.Protocol
	if protocol == "" {
		protocol = defaultProtocol
	}
	suffix := a.EndpointSuffix
	if suffix == "" {
		suffix = defaultEndpointSuffix
	}
	return fmt.Sprintf("%s://%s.blob.%s/", strings.ToLower(protocol), a.Name, suffix)
}

// HasSharedKey reports whether the account carries a shared key.
func (a *Account) HasSharedKey() bool {
	return a.Key != ""
}

// HasSAS reports whether the account carries a shared access signature.
func (a *Account) HasSAS() bool {
	return a.SharedAccessSignature != ""
}

// ConnectionString returns a string the SDK can consume. Emulator shorthand
// is expanded to the explicit well-known account.
func (a *Account) ConnectionString() string {
	if !a.DevelopmentStorage {
		return a.raw
	}
	return fmt.Sprintf("DefaultEndpointsProtocol=http;AccountName=%s;AccountKey=%s;BlobEndpoint=%s;",
		devAccountName, devAccountKey, devBlobEndpoint)
}

// String returns a redacted description safe for logs.
func (a *Account) String() string {
	return fmt.Sprintf("account=%s endpoint=%s", a.Name, a.ServiceURL())
}
