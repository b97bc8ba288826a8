package transfer

import (
	"math"

	"github.com/tangramvision/datasetxfer/xferr"
)

const (
	mebibyte = 1 << 20
	gibibyte = 1 << 30

	// OneshotThreshold is the size below which upload_file uses put_object
	// instead of a multipart upload (§4.C).
	OneshotThreshold int64 = 64 * mebibyte

	// DefaultChunkSize is the smallest part size derive_chunk_size ever
	// returns (§4.C.1).
	DefaultChunkSize int64 = 16 * mebibyte

	// MaxFileSize is the largest file upload_file will accept; technically
	// 4.88 TiB, not 5 TiB, because the part size is capped at 5 GiB and
	// MaxParts at 1000.
	MaxFileSize int64 = 5000 * gibibyte

	// MaxParts is self-imposed well below S3's 10000-part ceiling; it keeps
	// ListParts pagination and the final commit envelope small (§9).
	MaxParts int64 = 1000

	// ConcurrentRequestLimit bounds in-flight UploadPart calls for a single
	// file transfer (§4.C.2).
	ConcurrentRequestLimit = 10

	// MaxFilesConcurrently bounds file-level fan-out in the coordinator
	// (§4.C.3, §4.E.4).
	MaxFilesConcurrently = 4

	// DownloadBlockSize is the fixed read-buffer size used when streaming a
	// download to disk (§4.C download_file).
	DownloadBlockSize = 2 * mebibyte
)

// DeriveChunkSize scales the part size so a file never needs more than
// MaxParts parts, floored at DefaultChunkSize (§4.C.1, P2, B4).
func DeriveChunkSize(size int64) (int64, error) {
	if size > MaxFileSize {
		return 0, xferr.New(xferr.InputInvalid, "file is too large to upload: %d bytes exceeds the %d byte limit", size, MaxFileSize)
	}
	sizeMB := float64(size) / mebibyte
	chunkSizeMBFor1000Parts := math.Ceil(sizeMB / float64(MaxParts))
	chunkSize := int64(chunkSizeMBFor1000Parts) * mebibyte
	if chunkSize < DefaultChunkSize {
		return DefaultChunkSize, nil
	}
	return chunkSize, nil
}
