package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/torosent/protobench/internal/store"
)

// Downloader hands encoded content to the user under a filename.
type Downloader interface {
	Download(content []byte, filename, mimeType string) error
}

// FileDownloader saves downloads into Dir.
type FileDownloader struct {
	Dir string
	// Saved receives the path of each written file.
	Saved func(path string)
}

func (d FileDownloader) Download(content []byte, filename, mimeType string) error {
	if filename == "" || filename != filepath.Base(filename) {
		return fmt.Errorf("invalid download filename %q", filename)
	}
	if mimeType == "" {
		return errors.New("download mime type is required")
	}
	dir := d.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create download directory: %w", err)
	}
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if d.Saved != nil {
		d.Saved(path)
	}
	return nil
}

// Format selects an export encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// Encode renders results in format and returns the content along with the
// default filename and mime type for it.
func Encode(results []store.SavedResult, format Format) (content []byte, filename, mimeType string, err error) {
	switch format {
	case FormatJSON, "":
		data, err := JSON(results)
		if err != nil {
			return nil, "", "", err
		}
		return data, JSONFilename, JSONMimeType, nil
	case FormatCSV:
		return []byte(CSV(results)), CSVFilename, CSVMimeType, nil
	default:
		return nil, "", "", fmt.Errorf("unsupported export format %q", format)
	}
}

// Save encodes results and hands them to d.
func Save(d Downloader, results []store.SavedResult, format Format) error {
	content, filename, mime, err := Encode(results, format)
	if err != nil {
		return err
	}
	return d.Download(content, filename, mime)
}
