package export_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/torosent/protobench/internal/export"
	"github.com/torosent/protobench/internal/metrics"
	"github.com/torosent/protobench/internal/store"
)

func sampleResults() []store.SavedResult {
	return []store.SavedResult{
		{
			Record: metrics.Record{
				Protocol:      "HTTP/2",
				TTFB:          12.5,
				DOMLoad:       80.25,
				FullLoad:      140,
				ResourceCount: 10,
				TotalSize:     20480,
				Resources: []metrics.ResourceSample{
					{Name: "https://localhost/assets/styles/style-1.css", Type: "link", Duration: 4.2, Size: 2048, Protocol: "h2", StartTime: 20.01, TTFB: 1.5},
				},
				Timestamp: "2025-01-15T10:00:00.000Z",
			},
			ScenarioType: "light",
			ID:           "01HGW1B7Q8Y4ZK3T5N6M7P8R9S",
		},
		{
			Record: metrics.Record{
				Protocol:  "unknown",
				Resources: []metrics.ResourceSample{},
				Timestamp: "2025-01-15T10:01:00.000Z",
				Error:     "collect metrics (snapshot): performance API unavailable",
			},
			ScenarioType: "heavy",
			ID:           "01HGW1C0000000000000000000",
		},
	}
}

func TestJSONRoundTrip(t *testing.T) {
	in := sampleResults()
	data, err := export.JSON(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !strings.Contains(string(data), "\n  {\n    \"protocol\": \"HTTP/2\"") {
		t.Fatalf("expected two-space indentation, got:\n%s", data)
	}

	out, err := export.DecodeJSON(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("expected %d results, got %d", len(in), len(out))
	}
	for i := range in {
		a, b := in[i], out[i]
		if a.ID != b.ID || a.ScenarioType != b.ScenarioType || a.Protocol != b.Protocol ||
			a.TTFB != b.TTFB || a.DOMLoad != b.DOMLoad || a.FullLoad != b.FullLoad ||
			a.ResourceCount != b.ResourceCount || a.TotalSize != b.TotalSize ||
			a.Timestamp != b.Timestamp || a.Error != b.Error || len(a.Resources) != len(b.Resources) {
			t.Fatalf("result %d changed in round trip:\n in: %+v\nout: %+v", i, a, b)
		}
	}
	if out[0].Resources[0] != in[0].Resources[0] {
		t.Fatalf("resource changed: %+v", out[0].Resources[0])
	}
}

func TestJSONEmpty(t *testing.T) {
	for _, in := range [][]store.SavedResult{nil, {}} {
		data, err := export.JSON(in)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		if string(data) != "[]" {
			t.Fatalf("expected [] for empty export, got %q", data)
		}
	}
}

func TestCSV(t *testing.T) {
	got := export.CSV(sampleResults())
	want := strings.Join([]string{
		export.CSVHeader,
		"2025-01-15T10:00:00.000Z,light,HTTP/2,12.5,80.25,140,10,20480",
		"2025-01-15T10:01:00.000Z,heavy,unknown,0,0,0,0,0",
	}, "\n")
	if got != want {
		t.Fatalf("csv mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestCSVEmpty(t *testing.T) {
	if got := export.CSV(nil); got != "No results to export" {
		t.Fatalf("expected placeholder, got %q", got)
	}
}

func TestFileDownloader(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	var saved []string
	d := export.FileDownloader{Dir: dir, Saved: func(p string) { saved = append(saved, p) }}

	if err := export.Save(d, sampleResults(), export.FormatCSV); err != nil {
		t.Fatalf("save csv: %v", err)
	}
	if err := export.Save(d, sampleResults(), export.FormatJSON); err != nil {
		t.Fatalf("save json: %v", err)
	}

	if len(saved) != 2 {
		t.Fatalf("expected 2 saved files, got %v", saved)
	}
	data, err := os.ReadFile(filepath.Join(dir, export.CSVFilename))
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if !strings.HasPrefix(string(data), export.CSVHeader) {
		t.Fatalf("unexpected csv content %q", data)
	}
	if _, err := os.Stat(filepath.Join(dir, export.JSONFilename)); err != nil {
		t.Fatalf("expected json file: %v", err)
	}
}

func TestDownloadRejectsBadInput(t *testing.T) {
	d := export.FileDownloader{Dir: t.TempDir()}
	if err := d.Download([]byte("x"), "../out.csv", export.CSVMimeType); err == nil {
		t.Errorf("expected error for path traversal filename")
	}
	if err := d.Download([]byte("x"), "out.csv", ""); err == nil {
		t.Errorf("expected error for missing mime type")
	}
	if err := export.Save(d, nil, export.Format("xml")); err == nil {
		t.Errorf("expected error for unsupported format")
	}
}
