package coordinator

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/tangramvision/datasetxfer/metadata"
	"github.com/tangramvision/datasetxfer/progress"
)

// MetadataClient is the subset of *metadata.Client the coordinator drives.
// Pulling it out as an interface is what lets UploadDataset/DownloadDataset
// be exercised against a mock instead of a live metadata service.
type MetadataClient interface {
	CreateDataset(ctx context.Context, systemID string, meta json.RawMessage) (*metadata.Dataset, error)
	RegisterFile(ctx context.Context, datasetID uuid.UUID, objectURL string, size int64, version string, meta json.RawMessage) (*metadata.UploadedFile, error)
	ListFiles(ctx context.Context, datasetID uuid.UUID, prefixes []string) ([]metadata.UploadedFile, error)
	NotifyComplete(ctx context.Context, datasetID, plexFileID, objectSpaceFileID uuid.UUID) error
}

// TransferEngine is the subset of *transfer.Engine the coordinator drives.
type TransferEngine interface {
	UploadFile(ctx context.Context, localPath, objectKey string, sink progress.Sink) (objectURL, version string, err error)
	DownloadFile(ctx context.Context, objectURL, destPath string, sink progress.Sink) error
}

// ProgressReporter is the subset of *progress.Reporter the coordinator
// drives.
type ProgressReporter interface {
	NewBar(name string, totalBytes int64) progress.Sink
}
