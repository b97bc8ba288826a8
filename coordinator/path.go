package coordinator

import (
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/tangramvision/datasetxfer/xferr"
)

// CleanRelativePath validates p against the constraints the dataset
// coordinator imposes on every upload path, then returns it in slash form
// (the object-store key separator, regardless of host OS).
//
// Folder structure is preserved in the cloud, so a "." or ".." component
// would make the resulting key depend on the caller's working directory
// rather than on the path itself — that's rejected outright, as is any
// absolute path.
func CleanRelativePath(p string) (string, error) {
	slashed := filepath.ToSlash(p)
	for _, part := range strings.Split(slashed, "/") {
		if part == "." || part == ".." {
			return "", xferr.New(xferr.InputInvalid,
				"paths must not contain './' or '../' (uploading dir/file creates a different key than cd dir && upload file): %q", p)
		}
	}
	if filepath.IsAbs(p) {
		return "", xferr.New(xferr.InputInvalid, "file/folder paths must be relative: %q", p)
	}
	if !utf8.ValidString(p) {
		return "", xferr.New(xferr.InputInvalid, "file/folder names must be valid UTF-8 (S3 requirement): %q", p)
	}
	return slashed, nil
}
