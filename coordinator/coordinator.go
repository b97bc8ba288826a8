// Package coordinator sequences a dataset's lifecycle: create the dataset
// record, fan out file transfers across the object store, register each
// transferred file, and seal the dataset once every transfer is registered.
package coordinator

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/tangramvision/datasetxfer/metadata"
	"github.com/tangramvision/datasetxfer/transfer"
	"github.com/tangramvision/datasetxfer/xferr"
)

// UploadMaxFilesAllowed bounds a single upload command (§4.E); above this,
// the caller is expected to archive the files before uploading.
const UploadMaxFilesAllowed = 200

// MaxFilesConcurrently is the default file-level fan-out width, independent
// of transfer.ConcurrentRequestLimit's part-level fan-out within one file.
const MaxFilesConcurrently = transfer.MaxFilesConcurrently

// OverwritePolicy decides whether an existing local file at path may be
// overwritten by a download. Pushing this behind an interface keeps
// Coordinator usable without a terminal attached.
type OverwritePolicy func(path string) (bool, error)

// AlwaysOverwrite is an OverwritePolicy that never prompts.
func AlwaysOverwrite(string) (bool, error) { return true, nil }

// Coordinator sequences the Dataset Coordinator's upload and download
// orchestration on top of a Metadata Client and a Transfer Engine.
type Coordinator struct {
	logger               logr.Logger
	meta                 MetadataClient
	engine               TransferEngine
	reporter             ProgressReporter
	maxFilesConcurrently int
	overwrite            OverwritePolicy
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithMaxFilesConcurrently overrides MaxFilesConcurrently.
func WithMaxFilesConcurrently(n int) Option {
	return func(c *Coordinator) { c.maxFilesConcurrently = n }
}

// WithOverwritePolicy overrides the default (always-overwrite) download
// collision policy.
func WithOverwritePolicy(policy OverwritePolicy) Option {
	return func(c *Coordinator) { c.overwrite = policy }
}

// New builds a Coordinator. meta, engine, and reporter need only satisfy
// MetadataClient, TransferEngine, and ProgressReporter — in production
// these are *metadata.Client, *transfer.Engine, and *progress.Reporter.
func New(logger logr.Logger, meta MetadataClient, engine TransferEngine, reporter ProgressReporter, opts ...Option) *Coordinator {
	c := &Coordinator{
		logger:               logger.WithName("coordinator"),
		meta:                 meta,
		engine:               engine,
		reporter:             reporter,
		maxFilesConcurrently: MaxFilesConcurrently,
		overwrite:            AlwaysOverwrite,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// uploadResult pairs a registered file with its position in localPaths, so
// NotifyComplete can recover the plex/object-space roles the first two
// positions conventionally carry (§4.E; plex/object-space payload content
// itself stays opaque to the coordinator).
type uploadResult struct {
	index int
	file  *metadata.UploadedFile
}

// UploadDataset validates localPaths, creates a dataset, transfers every
// file with bounded concurrency, registers each one, and — only if every
// transfer and registration succeeds — seals the dataset via
// NotifyComplete. On any failure it returns the first error and never calls
// NotifyComplete (§4.E step 7).
func (c *Coordinator) UploadDataset(ctx context.Context, systemID string, userID uuid.UUID, localPaths []string) (uuid.UUID, error) {
	if len(localPaths) == 0 {
		return uuid.Nil, xferr.New(xferr.InputInvalid, "no files given to upload")
	}
	if len(localPaths) > UploadMaxFilesAllowed {
		return uuid.Nil, xferr.New(xferr.InputInvalid,
			"you're trying to upload %d files (max = %d); tar/zip the files before uploading", len(localPaths), UploadMaxFilesAllowed)
	}

	cleaned := make([]string, len(localPaths))
	for i, p := range localPaths {
		clean, err := CleanRelativePath(p)
		if err != nil {
			return uuid.Nil, err
		}
		cleaned[i] = clean
		if info, err := os.Stat(p); err == nil {
			if _, err := transfer.DeriveChunkSize(info.Size()); err != nil {
				return uuid.Nil, err
			}
		}
	}

	dataset, err := c.meta.CreateDataset(ctx, systemID, nil)
	if err != nil {
		return uuid.Nil, err
	}
	datasetID := dataset.DatasetID

	eg, groupCtx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(int64(c.maxFilesConcurrently))
	var mu sync.Mutex
	var results []uploadResult

	for i, localPath := range localPaths {
		i, localPath, key := i, localPath, objectKey(userID, datasetID, cleaned[i])
		if err := sem.Acquire(groupCtx, 1); err != nil {
			break
		}
		eg.Go(func() error {
			defer sem.Release(1)

			info, err := os.Stat(localPath)
			if err != nil {
				return xferr.Wrap(xferr.LocalIO, err)
			}
			sink := c.reporter.NewBar(localPath, info.Size())

			objectURL, version, err := c.engine.UploadFile(groupCtx, localPath, key, sink)
			if err != nil {
				return err
			}

			file, err := c.meta.RegisterFile(groupCtx, datasetID, objectURL, info.Size(), version, nil)
			if err != nil {
				return err
			}

			mu.Lock()
			results = append(results, uploadResult{index: i, file: file})
			mu.Unlock()
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return uuid.Nil, err
	}

	plexFileID, objectSpaceFileID, err := rolesFromResults(results)
	if err != nil {
		return uuid.Nil, err
	}
	if err := c.meta.NotifyComplete(ctx, datasetID, plexFileID, objectSpaceFileID); err != nil {
		return uuid.Nil, err
	}
	return datasetID, nil
}

// rolesFromResults recovers the plex and object-space file identifiers from
// their conventional positions (localPaths[0] and localPaths[1]) without
// interpreting either file's contents.
func rolesFromResults(results []uploadResult) (plexFileID, objectSpaceFileID uuid.UUID, err error) {
	byIndex := make(map[int]*metadata.UploadedFile, len(results))
	for _, r := range results {
		byIndex[r.index] = r.file
	}
	plex, ok := byIndex[0]
	if !ok {
		return uuid.Nil, uuid.Nil, xferr.New(xferr.Protocol, "no registered file found at the plex position")
	}
	objectSpace, ok := byIndex[1]
	if !ok {
		return uuid.Nil, uuid.Nil, xferr.New(xferr.Protocol, "no registered file found at the object-space position")
	}
	return plex.FileID, objectSpace.FileID, nil
}

func objectKey(userID, datasetID uuid.UUID, relativePath string) string {
	return fmt.Sprintf("%s/%s/%s", userID, datasetID, relativePath)
}

// DownloadDataset lists a dataset's files (optionally narrowed by prefixes),
// prompts per-file via the configured OverwritePolicy, and downloads with
// bounded concurrency.
func (c *Coordinator) DownloadDataset(ctx context.Context, datasetID uuid.UUID, prefixes []string, destDir string) error {
	files, err := c.meta.ListFiles(ctx, datasetID, prefixes)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return nil
	}

	eg, groupCtx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(int64(c.maxFilesConcurrently))

	for _, file := range files {
		file := file
		if err := sem.Acquire(groupCtx, 1); err != nil {
			break
		}
		eg.Go(func() error {
			defer sem.Release(1)

			destPath, err := destinationPath(destDir, file)
			if err != nil {
				return err
			}

			if _, err := os.Stat(destPath); err == nil {
				overwrite, err := c.overwrite(destPath)
				if err != nil {
					return err
				}
				if !overwrite {
					return nil
				}
			}

			sink := c.reporter.NewBar(file.Key, file.FileSize)
			return c.engine.DownloadFile(groupCtx, file.Key, destPath, sink)
		})
	}

	return eg.Wait()
}

// destinationPath derives a local filesystem path for a downloaded file,
// preserving the folder structure embedded in its key (§4.E download step 2
// — uses the key's own path rather than reaching back into the url
// package beyond trimming a possible scheme/host prefix).
func destinationPath(destDir string, file metadata.UploadedFile) (string, error) {
	relative := file.Key
	if u, err := url.Parse(file.Key); err == nil && u.Scheme != "" {
		relative = u.Path
	}
	return filepath.Join(destDir, filepath.FromSlash(relative)), nil
}
