package testutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/blobtypes"
	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/internal/azapi"
	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/internal/connstr"
)

const memoryHostSuffix = ".blob.core.windows.net"

// Cloud is an in-memory stand-in for a set of storage accounts. Accounts are
// resolved by name, so a copy source URL from one account can be read by
// another the way the real service resolves it.
type Cloud struct {
	mu       sync.Mutex
	accounts map[string]*Account

	factoryCalls atomic.Int64
}

// NewCloud creates an empty Cloud.
func NewCloud() *Cloud {
	return &Cloud{accounts: make(map[string]*Account)}
}

// Account returns the named account, creating it on first use.
func (c *Cloud) Account(name string) *Account {
	c.mu.Lock()
	defer c.mu.Unlock()
	if a, ok := c.accounts[name]; ok {
		return a
	}
	a := &Account{
		cloud:      c,
		name:       name,
		containers: make(map[string]map[string]*storedBlob),
	}
	c.accounts[name] = a
	return a
}

// Factory returns an azapi.Factory that resolves parsed accounts by name.
func (c *Cloud) Factory() azapi.Factory {
	return func(account *connstr.Account) (azapi.ServiceAPI, error) {
		c.factoryCalls.Add(1)
		return c.Account(account.Name), nil
	}
}

// FactoryCalls reports how many handles the factory has built.
func (c *Cloud) FactoryCalls() int64 {
	return c.factoryCalls.Load()
}

// Calls reports the number of remote calls made against all accounts.
func (c *Cloud) Calls() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var total int64
	for _, a := range c.accounts {
		total += a.calls.Load()
	}
	return total
}

// ConnectionString returns a shared-key connection string for an account name.
func ConnectionString(account string) string {
	return fmt.Sprintf(
		"DefaultEndpointsProtocol=https;AccountName=%s;AccountKey=dGVzdC1rZXk=;EndpointSuffix=core.windows.net",
		account,
	)
}

type storedBlob struct {
	data         []byte
	contentType  string
	metadata     map[string]string
	created      time.Time
	modified     time.Time
	etag         string
	pendingPolls int
	copyStatus   blobtypes.CopyStatus
}

// Account is an in-memory storage account implementing azapi.ServiceAPI.
//
// Hooks run before the corresponding call touches state; they may sleep to
// reorder concurrent calls or return an error to fail the call. Hooks must be
// set before the account is used.
type Account struct {
	cloud *Cloud
	name  string

	mu         sync.Mutex
	containers map[string]map[string]*storedBlob
	etagSeq    int64

	calls         atomic.Int64
	ListPages     atomic.Int64
	PropertyCalls atomic.Int64
	Copies        atomic.Int64
	Deletes       atomic.Int64

	// ListHook runs before each listing page; page counts from 1
	ListHook func(container string, page int64) error

	// PropertiesHook runs before each properties call
	PropertiesHook func(container, blob string) error

	// CopyHook runs before each copy
	CopyHook func(source, container, blob string) error

	// DeleteHook runs before each delete
	DeleteHook func(container, blob string) error

	// CopyPendingPolls makes each copy report pending for that many properties polls
	CopyPendingPolls int

	// DisableSigning makes SASURL fail, as for token-credential accounts
	DisableSigning bool
}

// Name returns the account name.
func (a *Account) Name() string {
	return a.name
}

// CreateContainer creates an empty container.
func (a *Account) CreateContainer(name string) *Account {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.containers[name]; !ok {
		a.containers[name] = make(map[string]*storedBlob)
	}
	return a
}

// Put stores a blob, creating the container if needed.
func (a *Account) Put(container, name string, data []byte, metadata map[string]string) *Account {
	a.CreateContainer(container)
	a.mu.Lock()
	defer a.mu.Unlock()
	now := time.Now().UTC()
	a.containers[container][name] = &storedBlob{
		data:     bytes.Clone(data),
		metadata: maps.Clone(metadata),
		created:  now,
		modified: now,
		etag:     a.nextETagLocked(),
	}
	return a
}

// Has reports whether a blob exists.
func (a *Account) Has(container, name string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.containers[container][name]
	return ok
}

// Data returns a copy of a stored blob's content.
func (a *Account) Data(container, name string) ([]byte, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	b, ok := a.containers[container][name]
	if !ok {
		return nil, false
	}
	return bytes.Clone(b.data), true
}

// Metadata returns a copy of a stored blob's metadata.
func (a *Account) Metadata(container, name string) (map[string]string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	b, ok := a.containers[container][name]
	if !ok {
		return nil, false
	}
	return maps.Clone(b.metadata), true
}

// ContentType returns the stored content type of a blob.
func (a *Account) ContentType(container, name string) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if b, ok := a.containers[container][name]; ok {
		return b.contentType
	}
	return ""
}

// ListContainers implements azapi.ServiceAPI.
func (a *Account) ListContainers(ctx context.Context) ([]string, error) {
	a.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Sorted(maps.Keys(a.containers)), nil
}

// Container implements azapi.ServiceAPI.
func (a *Account) Container(name string) azapi.ContainerAPI {
	return &memoryContainer{account: a, name: name}
}

// URL implements azapi.ServiceAPI.
func (a *Account) URL() string {
	return "https://" + a.name + memoryHostSuffix + "/"
}

func (a *Account) nextETagLocked() string {
	a.etagSeq++
	return fmt.Sprintf(`"0x%X"`, a.etagSeq)
}

func (a *Account) lookupLocked(container, name string) (*storedBlob, error) {
	blobs, ok := a.containers[container]
	if !ok {
		return nil, ResponseError(http.StatusNotFound, "ContainerNotFound")
	}
	b, ok := blobs[name]
	if !ok {
		return nil, ResponseError(http.StatusNotFound, "BlobNotFound")
	}
	return b, nil
}

type memoryContainer struct {
	account *Account
	name    string
}

func (c *memoryContainer) ListBlobsPage(ctx context.Context, opts azapi.ListOptions) (*blobtypes.ListPage, error) {
	a := c.account
	a.calls.Add(1)
	page := a.ListPages.Add(1)
	if a.ListHook != nil {
		if err := a.ListHook(c.name, page); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	blobs, ok := a.containers[c.name]
	if !ok {
		return nil, ResponseError(http.StatusNotFound, "ContainerNotFound")
	}

	names := make([]string, 0, len(blobs))
	for name := range blobs {
		if strings.HasPrefix(name, opts.Prefix) {
			names = append(names, name)
		}
	}
	slices.Sort(names)

	start := 0
	if opts.Marker != "" {
		start, _ = slices.BinarySearch(names, opts.Marker)
	}
	limit := int(opts.MaxResults)
	if limit <= 0 {
		limit = 5000
	}
	end := min(start+limit, len(names))

	out := &blobtypes.ListPage{Entries: make([]blobtypes.BlobEntry, 0, end-start)}
	for _, name := range names[start:end] {
		b := blobs[name]
		out.Entries = append(out.Entries, blobtypes.BlobEntry{
			Name:         name,
			CreatedOn:    TimePtr(b.created),
			LastModified: TimePtr(b.modified),
		})
	}
	if end < len(names) {
		out.NextMarker = names[end]
	}
	return out, nil
}

func (c *memoryContainer) Blob(name string) azapi.BlobAPI {
	return &memoryBlob{account: c.account, container: c.name, name: name}
}

type memoryBlob struct {
	account   *Account
	container string
	name      string
}

func (b *memoryBlob) URL() string {
	return b.account.URL() + b.container + "/" + b.name
}

func (b *memoryBlob) SASURL(expiry time.Time) (string, error) {
	if b.account.DisableSigning {
		return "", errors.New("SAS can only be signed with a shared key credential")
	}
	return b.URL() + "?sp=r&se=" + url.QueryEscape(expiry.UTC().Format(time.RFC3339)) + "&sig=test", nil
}

func (b *memoryBlob) GetProperties(ctx context.Context) (*blobtypes.BlobProperties, error) {
	a := b.account
	a.calls.Add(1)
	a.PropertyCalls.Add(1)
	if a.PropertiesHook != nil {
		if err := a.PropertiesHook(b.container, b.name); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	stored, err := a.lookupLocked(b.container, b.name)
	if err != nil {
		return nil, err
	}

	props := &blobtypes.BlobProperties{
		Name:          b.name,
		ContentLength: int64(len(stored.data)),
		ContentType:   stored.contentType,
		ETag:          stored.etag,
		CreatedOn:     TimePtr(stored.created),
		LastModified:  TimePtr(stored.modified),
		Metadata:      maps.Clone(stored.metadata),
		CopyStatus:    stored.copyStatus,
	}
	if props.Metadata == nil {
		props.Metadata = map[string]string{}
	}
	if stored.pendingPolls > 0 {
		stored.pendingPolls--
		props.CopyStatus = blobtypes.CopyStatusPending
	}
	return props, nil
}

func (b *memoryBlob) SetMetadata(ctx context.Context, metadata map[string]string) error {
	a := b.account
	a.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	stored, err := a.lookupLocked(b.container, b.name)
	if err != nil {
		return err
	}
	stored.metadata = maps.Clone(metadata)
	stored.modified = time.Now().UTC()
	stored.etag = a.nextETagLocked()
	return nil
}

func (b *memoryBlob) StartCopyFromURL(
	ctx context.Context,
	source string,
	metadata map[string]string,
) (*blobtypes.CopyResult, error) {
	a := b.account
	a.calls.Add(1)
	n := a.Copies.Add(1)
	if a.CopyHook != nil {
		if err := a.CopyHook(source, b.container, b.name); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src, err := a.cloud.resolve(source)
	if err != nil {
		return nil, err
	}
	if src.account != a && !strings.Contains(source, "sig=") {
		return nil, ResponseError(http.StatusForbidden, "CannotVerifyCopySource")
	}

	src.account.mu.Lock()
	stored, err := src.account.lookupLocked(src.container, src.blob)
	var data []byte
	var contentType string
	var srcMeta map[string]string
	if err == nil {
		data = bytes.Clone(stored.data)
		contentType = stored.contentType
		srcMeta = maps.Clone(stored.metadata)
	}
	src.account.mu.Unlock()
	if err != nil {
		return nil, ResponseError(http.StatusNotFound, "CannotVerifyCopySource")
	}

	if len(metadata) == 0 {
		metadata = srcMeta
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	blobs, ok := a.containers[b.container]
	if !ok {
		return nil, ResponseError(http.StatusNotFound, "ContainerNotFound")
	}
	now := time.Now().UTC()
	blobs[b.name] = &storedBlob{
		data:         data,
		contentType:  contentType,
		metadata:     maps.Clone(metadata),
		created:      now,
		modified:     now,
		etag:         a.nextETagLocked(),
		pendingPolls: a.CopyPendingPolls,
		copyStatus:   blobtypes.CopyStatusSuccess,
	}

	status := blobtypes.CopyStatusSuccess
	if a.CopyPendingPolls > 0 {
		status = blobtypes.CopyStatusPending
	}
	return &blobtypes.CopyResult{CopyID: fmt.Sprintf("copy-%d", n), Status: status}, nil
}

func (b *memoryBlob) Delete(ctx context.Context) error {
	a := b.account
	a.calls.Add(1)
	a.Deletes.Add(1)
	if a.DeleteHook != nil {
		if err := a.DeleteHook(b.container, b.name); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, err := a.lookupLocked(b.container, b.name); err != nil {
		return err
	}
	delete(a.containers[b.container], b.name)
	return nil
}

func (b *memoryBlob) Download(ctx context.Context) (*blobtypes.Download, error) {
	a := b.account
	a.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	stored, err := a.lookupLocked(b.container, b.name)
	if err != nil {
		return nil, err
	}
	return &blobtypes.Download{
		Body:          io.NopCloser(bytes.NewReader(bytes.Clone(stored.data))),
		ContentLength: int64(len(stored.data)),
		ContentType:   stored.contentType,
		ETag:          stored.etag,
	}, nil
}

func (b *memoryBlob) UploadStream(ctx context.Context, body io.Reader, opts azapi.UploadOptions) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	return b.UploadBuffer(ctx, data, opts)
}

func (b *memoryBlob) UploadBuffer(ctx context.Context, data []byte, opts azapi.UploadOptions) (string, error) {
	a := b.account
	a.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return "", err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	blobs, ok := a.containers[b.container]
	if !ok {
		return "", ResponseError(http.StatusNotFound, "ContainerNotFound")
	}
	now := time.Now().UTC()
	created := now
	if existing, ok := blobs[b.name]; ok {
		created = existing.created
	}
	stored := &storedBlob{
		data:        bytes.Clone(data),
		contentType: opts.ContentType,
		metadata:    maps.Clone(opts.Metadata),
		created:     created,
		modified:    now,
		etag:        a.nextETagLocked(),
	}
	blobs[b.name] = stored
	return stored.etag, nil
}

type blobRef struct {
	account   *Account
	container string
	blob      string
}

// resolve maps a blob URL produced by this Cloud back to its account.
func (c *Cloud) resolve(raw string) (*blobRef, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, ResponseError(http.StatusBadRequest, "InvalidSourceBlobUrl")
	}
	name, ok := strings.CutSuffix(u.Host, memoryHostSuffix)
	if !ok {
		return nil, ResponseError(http.StatusBadRequest, "InvalidSourceBlobUrl")
	}
	container, blob, ok := strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
	if !ok || blob == "" {
		return nil, ResponseError(http.StatusBadRequest, "InvalidSourceBlobUrl")
	}

	c.mu.Lock()
	account, ok := c.accounts[name]
	c.mu.Unlock()
	if !ok {
		return nil, ResponseError(http.StatusNotFound, "CannotVerifyCopySource")
	}
	return &blobRef{account: account, container: container, blob: blob}, nil
}
