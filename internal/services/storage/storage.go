package storage

import (
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Store saves uploaded files and yields the stored path plus a public
// URL. The blob backend is interchangeable; the disk implementation is
// the development default.
type Store interface {
	Save(fh *multipart.FileHeader) (path, url string, err error)
}

type diskStore struct {
	dir     string
	baseURL string
}

func NewDisk(dir, baseURL string) (Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &diskStore{dir: dir, baseURL: baseURL}, nil
}

func (s *diskStore) Save(fh *multipart.FileHeader) (string, string, error) {
	name := uuid.NewString() + filepath.Ext(fh.Filename)
	dst := filepath.Join(s.dir, name)

	src, err := fh.Open()
	if err != nil {
		return "", "", err
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return "", "", err
	}

	return dst, s.baseURL + "/" + name, nil
}
