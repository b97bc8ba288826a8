// Package objectstore implements the S3-compatible Object-Store Client: the
// six wire operations (the five of spec §4.B plus AbortMultipartUpload) the
// transfer engine composes into uploads and downloads.
package objectstore

import (
	"context"
	"crypto/md5"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/go-logr/logr"
	"golang.org/x/exp/slices"

	"github.com/tangramvision/datasetxfer/protoc"
	"github.com/tangramvision/datasetxfer/xferr"
)

// CompletedPart is the acknowledgement of one chunk upload by the object
// store: part number plus the entity tag. Parts must be submitted to
// CompleteMultipartUpload in ascending part-number order (I3/I4).
type CompletedPart struct {
	PartNumber int32
	ETag       string
	Size       int64
}

// Client wraps an S3-compatible endpoint. One Client is shared across all
// workers transferring a single file; the AWS SDK's own HTTP transport pools
// connections internally, so unlike the teacher's per-worker client clone,
// no explicit worker-indexed pool is required (spec §9 design note).
type Client struct {
	logger logr.Logger
	api    protoc.S3API
	bucket string
}

// New builds a Client bound to a single bucket.
func New(logger logr.Logger, cli protoc.Client, bucket string) *Client {
	return &Client{
		logger: logger.WithName("objectstore"),
		api:    cli.GetS3API(),
		bucket: bucket,
	}
}

// md5Base64 returns the base64-encoded MD5 digest of data (I5, and the
// Content-MD5 header PutObject and UploadPart attach).
func md5Base64(data []byte) string {
	sum := md5.Sum(data)
	return base64.StdEncoding.EncodeToString(sum[:])
}

// PutObject performs a one-shot upload of exactly len(body) bytes, used when
// the file is below ONESHOT_THRESHOLD (§4.B.1).
func (c *Client) PutObject(ctx context.Context, key string, body []byte) (version string, err error) {
	out, err := c.api.PutObject(ctx, &awss3.PutObjectInput{
		Bucket:        &c.bucket,
		Key:           &key,
		Body:          newReadSeeker(body),
		ContentMD5:    strPtr(md5Base64(body)),
		ContentLength: int64Ptr(int64(len(body))),
	})
	if err != nil {
		return "", classifyAWSError(err)
	}
	if out.VersionId == nil {
		return "", xferr.New(xferr.Protocol, "object store did not return a VersionId for put_object %s/%s", c.bucket, key)
	}
	return *out.VersionId, nil
}

// CreateMultipartUpload begins a multipart upload and returns the upload_id
// subsequent operations on this upload must carry (§4.B.2).
func (c *Client) CreateMultipartUpload(ctx context.Context, key string) (uploadID string, err error) {
	out, err := c.api.CreateMultipartUpload(ctx, &awss3.CreateMultipartUploadInput{
		Bucket: &c.bucket,
		Key:    &key,
	})
	if err != nil {
		return "", classifyAWSError(err)
	}
	if out.UploadId == nil {
		return "", xferr.New(xferr.Protocol, "object store did not return an UploadId for create_multipart %s/%s", c.bucket, key)
	}
	return *out.UploadId, nil
}

// UploadPart sends one chunk of a multipart upload (§4.B.3). Fails (at the
// wire level) if partNumber is outside [1, 10000] or body size is outside
// [5 MiB, 5 GiB] except for the final part, or if the MD5 mismatches.
func (c *Client) UploadPart(ctx context.Context, key, uploadID string, partNumber int32, body []byte) (etag string, err error) {
	out, err := c.api.UploadPart(ctx, &awss3.UploadPartInput{
		Bucket:        &c.bucket,
		Key:           &key,
		UploadId:      &uploadID,
		PartNumber:    &partNumber,
		Body:          newReadSeeker(body),
		ContentMD5:    strPtr(md5Base64(body)),
		ContentLength: int64Ptr(int64(len(body))),
	})
	if err != nil {
		return "", classifyAWSError(err)
	}
	if out.ETag == nil {
		return "", xferr.New(xferr.ObjectStoreTransient, "object store response for upload_part %d is missing an ETag header", partNumber)
	}
	return *out.ETag, nil
}

// CompleteMultipartUpload commits the multipart upload (§4.B.4). parts must
// already be sorted ascending by part number (the caller, transfer.Engine,
// is responsible for the sort per §4.C.2); this call defensively re-verifies
// the ordering rather than silently accepting a caller bug.
func (c *Client) CompleteMultipartUpload(ctx context.Context, key, uploadID string, parts []CompletedPart) (version string, err error) {
	if !slices.IsSortedFunc(parts, func(a, b CompletedPart) int { return int(a.PartNumber - b.PartNumber) }) {
		return "", xferr.New(xferr.Protocol, "complete_multipart called with parts out of ascending order")
	}

	completed := make([]types.CompletedPart, len(parts))
	for i, p := range parts {
		pn := p.PartNumber
		etag := p.ETag
		completed[i] = types.CompletedPart{PartNumber: &pn, ETag: &etag}
	}

	out, err := c.api.CompleteMultipartUpload(ctx, &awss3.CompleteMultipartUploadInput{
		Bucket:   &c.bucket,
		Key:      &key,
		UploadId: &uploadID,
		MultipartUpload: &types.CompletedMultipartUpload{
			Parts: completed,
		},
	})
	if err != nil {
		return "", classifyAWSError(err)
	}
	if out.VersionId == nil {
		return "", xferr.New(xferr.Protocol, "object store did not return a VersionId for complete_multipart %s/%s", c.bucket, key)
	}
	return *out.VersionId, nil
}

// AbortMultipartUpload is the best-effort cleanup call issued by the
// transfer engine on any upload error (§7 propagation policy).
func (c *Client) AbortMultipartUpload(ctx context.Context, key, uploadID string) error {
	_, err := c.api.AbortMultipartUpload(ctx, &awss3.AbortMultipartUploadInput{
		Bucket:   &c.bucket,
		Key:      &key,
		UploadId: &uploadID,
	})
	if err != nil {
		return classifyAWSError(err)
	}
	return nil
}

// GetObject streams an object's bytes starting at offset (0 for a full
// download). The caller is responsible for closing the returned body.
func (c *Client) GetObject(ctx context.Context, key string, offset int64) (body io.ReadCloser, size int64, err error) {
	input := &awss3.GetObjectInput{
		Bucket: &c.bucket,
		Key:    &key,
	}
	if offset > 0 {
		input.Range = strPtr(fmt.Sprintf("bytes=%d-", offset))
	}
	out, err := c.api.GetObject(ctx, input)
	if err != nil {
		return nil, 0, classifyAWSError(err)
	}
	if out.ContentLength != nil {
		size = *out.ContentLength
	}
	return out.Body, size, nil
}

func strPtr(s string) *string { return &s }
func int64Ptr(i int64) *int64 { return &i }

func newReadSeeker(b []byte) io.ReadSeeker {
	return &byteReadSeeker{data: b}
}

// byteReadSeeker avoids buffering the chunk twice (the AWS SDK needs a
// ReadSeeker to compute SigV4 payload signatures and to retry at the
// transport level); it just seeks within the already-materialized slice.
type byteReadSeeker struct {
	data []byte
	pos  int64
}

func (b *byteReadSeeker) Read(p []byte) (int, error) {
	if b.pos >= int64(len(b.data)) {
		return 0, io.EOF
	}
	n := copy(p, b.data[b.pos:])
	b.pos += int64(n)
	return n, nil
}

func (b *byteReadSeeker) Seek(offset int64, whence int) (int64, error) {
	var newPos int64
	switch whence {
	case io.SeekStart:
		newPos = offset
	case io.SeekCurrent:
		newPos = b.pos + offset
	case io.SeekEnd:
		newPos = int64(len(b.data)) + offset
	}
	b.pos = newPos
	return newPos, nil
}

// classifyAWSError maps an AWS SDK error into the xferr taxonomy: 4xx
// becomes ObjectStoreRejected, anything else (network, timeout, 5xx) becomes
// ObjectStoreTransient (§7).
func classifyAWSError(err error) error {
	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() >= 400 && respErr.HTTPStatusCode() < 500 {
		return xferr.Wrap(xferr.ObjectStoreRejected, err)
	}
	return xferr.Wrap(xferr.ObjectStoreTransient, err)
}
