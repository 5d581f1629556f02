package handraise

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// MaxProfilePicBytes caps uploaded profile pictures.
const MaxProfilePicBytes = 5 << 20

var profilePicExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// UploadStore persists opaque blobs and returns a reference a client can
// later resolve. The default implementation writes to local disk; swap it
// for object storage without touching the controller.
type UploadStore interface {
	SaveProfilePic(userID uuid.UUID, contentType string, data []byte) (string, error)
	Remove(ref string) error
}

// DiskUploadStore stores uploads under a single directory, one file per
// user, named by user id so a re-upload replaces the previous picture.
type DiskUploadStore struct {
	Dir string
	// BaseURL prefixes returned references, e.g. "/uploads".
	BaseURL string
}

func NewDiskUploadStore(dir string) (*DiskUploadStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "could not create upload directory").
			WithMetadata(map[string]any{"dir": dir})
	}

	return &DiskUploadStore{
		Dir:     dir,
		BaseURL: "/uploads",
	}, nil
}

// SaveProfilePic validates the payload, writes it, and returns the public
// reference. Validation failures come back as bad input errors so the
// controller can surface them as 400s.
func (s *DiskUploadStore) SaveProfilePic(userID uuid.UUID, contentType string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty upload", errors.CategoryBadInput).
			WithCode(errors.CodeBadRequest)
	}

	if len(data) > MaxProfilePicBytes {
		return "", errors.New("upload exceeds the 5MB limit", errors.CategoryBadInput).
			WithCode(errors.CodeBadRequest)
	}

	ext, ok := profilePicExtensions[normalizeContentType(contentType)]
	if !ok {
		return "", errors.New("unsupported image type", errors.CategoryBadInput).
			WithCode(errors.CodeBadRequest).
			WithMetadata(map[string]any{"content_type": contentType})
	}

	// drop any stale picture with a different extension first
	s.removeExisting(userID)

	name := fmt.Sprintf("%s%s", userID, ext)
	if err := os.WriteFile(filepath.Join(s.Dir, name), data, 0o644); err != nil {
		return "", errors.Wrap(err, errors.CategoryOperation, "could not persist upload")
	}

	return path.Join(s.BaseURL, name), nil
}

// Remove deletes the file a reference points at. A missing file is not an
// error, removal is idempotent.
func (s *DiskUploadStore) Remove(ref string) error {
	name := path.Base(ref)
	if name == "." || name == "/" {
		return nil
	}

	err := os.Remove(filepath.Join(s.Dir, name))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, errors.CategoryOperation, "could not remove upload")
	}
	return nil
}

func (s *DiskUploadStore) removeExisting(userID uuid.UUID) {
	for _, ext := range profilePicExtensions {
		os.Remove(filepath.Join(s.Dir, userID.String()+ext))
	}
}

func normalizeContentType(ct string) string {
	ct = strings.TrimSpace(strings.ToLower(ct))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	return ct
}
