package azapi

import (
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	azservice "github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/service"

	blobstoreerrors "github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/errors"
	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/internal/connstr"
)

// Factory builds a ServiceAPI for a parsed account.
type Factory func(account *connstr.Account) (ServiceAPI, error)

// FactoryConfig configures the default SDK-backed factory.
type FactoryConfig struct {
	// MaxRetries is the SDK retry budget; zero keeps the SDK default
	MaxRetries int32

	// RetryDelay is the initial SDK retry delay; zero keeps the SDK default
	RetryDelay time.Duration

	// Credential authenticates accounts whose connection string has no key or SAS
	Credential azcore.TokenCredential

	// UseDefaultCredential falls back to the azidentity default credential chain
	UseDefaultCredential bool
}

// NewFactory returns a Factory creating SDK service clients.
//
// Connection strings carrying an AccountKey or SharedAccessSignature are
// handed to the SDK as-is. When only an AccountName is present, a token
// credential is required, either configured explicitly or taken from the
// azidentity default chain.
func NewFactory(cfg FactoryConfig) Factory {
	opts := &azservice.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries: cfg.MaxRetries,
				RetryDelay: cfg.RetryDelay,
			},
		},
	}

	return func(account *connstr.Account) (ServiceAPI, error) {
		if account.HasSharedKey() || account.HasSAS() {
			client, err := azservice.NewClientFromConnectionString(account.ConnectionString(), opts)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", blobstoreerrors.ErrInvalidConfiguration, err)
			}
			return NewService(client), nil
		}

		cred := cfg.Credential
		if cred == nil && cfg.UseDefaultCredential {
			defaultCred, err := azidentity.NewDefaultAzureCredential(nil)
			if err != nil {
				return nil, fmt.Errorf("%w: default credential: %w", blobstoreerrors.ErrInvalidConfiguration, err)
			}
			cred = defaultCred
		}
		if cred == nil {
			return nil, fmt.Errorf("%w: account %s has no key, signature or token credential",
				blobstoreerrors.ErrInvalidConfiguration, account.Name)
		}

		client, err := azservice.NewClient(account.ServiceURL(), cred, opts)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", blobstoreerrors.ErrInvalidConfiguration, err)
		}
		return NewService(client), nil
	}
}
