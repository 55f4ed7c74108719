// Package uploads stores user-uploaded images on local disk.
package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrEmptyFile is returned when an upload has no content.
var ErrEmptyFile = errors.New("uploaded file is empty")

// Disk saves files under a directory and refers to them by URL path.
type Disk struct {
	dir       string
	urlPrefix string
}

// NewDisk returns a Disk writing into dir. urlPrefix is the path the
// directory is served under, e.g. "/static/uploads/".
func NewDisk(dir, urlPrefix string) *Disk {
	if !strings.HasSuffix(urlPrefix, "/") {
		urlPrefix += "/"
	}
	return &Disk{dir: dir, urlPrefix: urlPrefix}
}

// Dir returns the directory files are written to.
func (d *Disk) Dir() string {
	return d.dir
}

// Save writes body to a new file named by a random UUID plus the extension
// of filename and returns its URL path.
func (d *Disk) Save(ctx context.Context, filename string, body io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(d.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	name := uuid.NewString() + strings.ToLower(filepath.Ext(filename))
	path := filepath.Join(d.dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create upload: %w", err)
	}
	n, err := io.Copy(f, body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && n == 0 {
		err = ErrEmptyFile
	}
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write upload: %w", err)
	}
	return d.urlPrefix + name, nil
}

// Remove deletes the file behind ref. References outside the upload
// prefix and files that are already gone are ignored.
func (d *Disk) Remove(ref string) error {
	name, ok := strings.CutPrefix(ref, d.urlPrefix)
	if !ok || name == "" || strings.ContainsAny(name, `/\`) || name == ".." {
		return nil
	}
	err := os.Remove(filepath.Join(d.dir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove upload: %w", err)
	}
	return nil
}
