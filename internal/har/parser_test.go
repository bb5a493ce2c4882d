package har

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestParseFile_ValidHAR(t *testing.T) {
	har, err := ParseFile("testdata/light.har")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if har.Log.Version != "1.2" {
		t.Errorf("expected version 1.2, got %s", har.Log.Version)
	}

	if har.Log.Creator == nil || har.Log.Creator.Name == "" {
		t.Fatal("expected Creator to be populated")
	}

	if len(har.Log.Pages) != 1 || har.Log.Pages[0].PageTimings == nil {
		t.Fatalf("expected one page with timings, got %+v", har.Log.Pages)
	}

	if len(har.Log.Entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(har.Log.Entries))
	}

	first := har.Log.Entries[0]
	if first.ResourceType != "document" {
		t.Errorf("expected _resourceType document, got %q", first.ResourceType)
	}
	if first.Response.TransferSize != 4200 {
		t.Errorf("expected _transferSize 4200, got %d", first.Response.TransferSize)
	}
	if first.Timings == nil || first.Timings.Wait != 40 {
		t.Errorf("expected wait timing 40, got %+v", first.Timings)
	}
}

func TestParseFile_InvalidJSON(t *testing.T) {
	har, err := ParseFile("testdata/invalid.har")
	if err == nil {
		t.Fatal("expected error for invalid JSON")
	}

	if har != nil {
		t.Error("expected HAR to be nil on error")
	}
}

func TestParseFile_MissingLog(t *testing.T) {
	tempFile := filepath.Join(t.TempDir(), "no_log.har")

	if err := os.WriteFile(tempFile, []byte(`{"notALog": {}}`), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}

	har, err := ParseFile(tempFile)
	if err == nil {
		t.Fatal("expected error for missing Log field")
	}
	if har != nil {
		t.Error("expected HAR to be nil on error")
	}
}

func TestParseFile_FileNotFound(t *testing.T) {
	har, err := ParseFile("testdata/nonexistent.har")
	if err == nil {
		t.Fatal("expected error for non-existent file")
	}

	if har != nil {
		t.Error("expected HAR to be nil on error")
	}
}

func TestParse_IgnoresUnknownFields(t *testing.T) {
	jsonData := []byte(`{
		"log": {
			"version": "1.2",
			"creator": {"name": "Test Creator", "version": "1.0"},
			"entries": [
				{
					"startedDateTime": "2025-01-01T00:00:00Z",
					"time": 100,
					"request": {"method": "GET", "url": "https://example.com/", "httpVersion": "HTTP/1.1", "headers": [], "cookies": [], "headersSize": -1, "bodySize": -1},
					"response": {"status": 200, "statusText": "OK", "httpVersion": "HTTP/1.1", "headers": [], "content": {"size": 100, "mimeType": "text/html"}, "redirectURL": "", "headersSize": -1, "bodySize": -1},
					"cache": {},
					"timings": {"wait": 50, "receive": 50}
				}
			]
		}
	}`)

	har, err := Parse(bytes.NewReader(jsonData))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(har.Log.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(har.Log.Entries))
	}

	entry := har.Log.Entries[0]
	if entry.Request.Method != "GET" {
		t.Errorf("expected method GET, got %s", entry.Request.Method)
	}
	if entry.Response.Status != 200 {
		t.Errorf("expected status 200, got %d", entry.Response.Status)
	}
}

func TestParse_EmptyReader(t *testing.T) {
	har, err := Parse(bytes.NewReader(nil))
	if err == nil {
		t.Fatal("expected error for empty reader")
	}

	if har != nil {
		t.Error("expected HAR to be nil on error")
	}
}

func TestParse_ReaderError(t *testing.T) {
	har, err := Parse(&erroringReader{})
	if err == nil {
		t.Fatal("expected error from reader")
	}

	if har != nil {
		t.Error("expected HAR to be nil on error")
	}
}

type erroringReader struct{}

func (er *erroringReader) Read(p []byte) (int, error) {
	return 0, io.ErrUnexpectedEOF
}
