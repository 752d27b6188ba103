package blobstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/blobtypes"
	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/errors"
	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/internal/testutil"
)

func TestClient_Move(t *testing.T) {
	client, cloud := newTestClient(t)
	acct := cloud.Account("primary").
		Put("incoming", "upload.xml", []byte("<x/>"), map[string]string{"source": "ftp"}).
		CreateContainer("processed")

	err := client.Move(context.Background(), blobtypes.MoveRequest{
		SourceContainer:      "incoming",
		SourceBlob:           "upload.xml",
		DestinationContainer: "processed",
		DestinationBlob:      "2024/upload.xml",
		Metadata:             map[string]string{"status": "done"},
	})
	require.NoError(t, err)

	assert.False(t, acct.Has("incoming", "upload.xml"))
	md, ok := acct.Metadata("processed", "2024/upload.xml")
	require.True(t, ok)
	assert.Equal(t, map[string]string{"source": "ftp", "status": "done"}, md)
}

func TestClient_Move_NoOp(t *testing.T) {
	client, cloud := newTestClient(t)

	err := client.Move(context.Background(), blobtypes.MoveRequest{
		SourceContainer: "docs", SourceBlob: "a.txt",
		DestinationContainer: "docs", DestinationBlob: "a.txt",
	})

	require.NoError(t, err)
	assert.Equal(t, int64(0), cloud.Calls())
	assert.Equal(t, int64(0), cloud.FactoryCalls())
}

func TestClient_Move_MissingSource(t *testing.T) {
	client, cloud := newTestClient(t)
	cloud.Account("primary").CreateContainer("docs").CreateContainer("archive")

	err := client.Move(context.Background(), blobtypes.MoveRequest{
		SourceContainer: "docs", SourceBlob: "ghost.txt",
		DestinationContainer: "archive", DestinationBlob: "ghost.txt",
	})

	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	assert.Contains(t, err.Error(), "blob ghost.txt not found in container docs")
}

func TestClient_Move_ToNamedAccount(t *testing.T) {
	client, cloud := newTestClient(t,
		WithAccount("imageService", testutil.ConnectionString("images")),
		WithCopyPollInterval(time.Millisecond),
	)
	src := cloud.Account("primary").Put("uploads", "logo.png", []byte("png"), nil)
	dst := cloud.Account("images").CreateContainer("logos")
	dst.CopyPendingPolls = 1

	destination, err := client.AccountConnectionString("imageService")
	require.NoError(t, err)

	err = client.Move(context.Background(), blobtypes.MoveRequest{
		SourceContainer: "uploads", SourceBlob: "logo.png",
		DestinationContainer: "logos", DestinationBlob: "logo.png",
		DestinationConnectionString: destination,
	})
	require.NoError(t, err)

	assert.False(t, src.Has("uploads", "logo.png"))
	assert.True(t, dst.Has("logos", "logo.png"))
	assert.Equal(t, 2, client.Connections())
}

func TestClient_Move_FromDerivedClient(t *testing.T) {
	client, cloud := newTestClient(t, WithAccount("xmlService", testutil.ConnectionString("xml")))
	xml := cloud.Account("xml").Put("feeds", "a.xml", []byte("<a/>"), nil).CreateContainer("done")

	derived, err := client.Account("xmlService")
	require.NoError(t, err)

	err = derived.Move(context.Background(), blobtypes.MoveRequest{
		SourceContainer: "feeds", SourceBlob: "a.xml",
		DestinationContainer: "done", DestinationBlob: "a.xml",
	})

	require.NoError(t, err)
	assert.True(t, xml.Has("done", "a.xml"))
	assert.False(t, cloud.Account("primary").Has("done", "a.xml"))
}

func TestClient_Copy(t *testing.T) {
	client, cloud := newTestClient(t)
	acct := cloud.Account("primary").Put("docs", "a.txt", []byte("x"), nil).CreateContainer("backup")

	err := client.Copy(context.Background(), blobtypes.MoveRequest{
		SourceContainer: "docs", SourceBlob: "a.txt",
		DestinationContainer: "backup", DestinationBlob: "a.txt",
	}, WithPollInterval(time.Millisecond))

	require.NoError(t, err)
	assert.True(t, acct.Has("docs", "a.txt"))
	assert.True(t, acct.Has("backup", "a.txt"))
}

func TestClient_Move_InvalidRequest(t *testing.T) {
	client, cloud := newTestClient(t)

	err := client.Move(context.Background(), blobtypes.MoveRequest{SourceContainer: "docs"})

	require.Error(t, err)
	assert.True(t, errors.IsInvalidInput(err))
	assert.Equal(t, int64(0), cloud.Calls())
}
