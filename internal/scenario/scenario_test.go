package scenario

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestProfiles(t *testing.T) {
	tests := []struct {
		name                   string
		images, styles, script int
	}{
		{Light, 5, 3, 2},
		{Heavy, 35, 5, 10},
		{Many, 50, 5, 10},
	}
	for _, tt := range tests {
		p, err := Parse(tt.name)
		if err != nil {
			t.Fatalf("parse %s: %v", tt.name, err)
		}
		if p.Images() != tt.images || p.Styles != tt.styles || p.Scripts != tt.script {
			t.Errorf("%s: got images=%d styles=%d scripts=%d", tt.name, p.Images(), p.Styles, p.Scripts)
		}
		if got := len(p.Assets()); got != p.AssetCount() {
			t.Errorf("%s: Assets() returned %d, AssetCount() = %d", tt.name, got, p.AssetCount())
		}
	}

	if _, err := Parse("extreme"); err == nil {
		t.Fatalf("expected error for unknown scenario")
	}
	if !Valid(" Heavy ") {
		t.Fatalf("lookup should be case and space insensitive")
	}
}

func TestLightAssetPaths(t *testing.T) {
	p, _ := Lookup(Light)
	var paths []string
	for _, a := range p.Assets() {
		paths = append(paths, a.Path)
	}
	want := []string{
		"/assets/images/small/image-1.svg",
		"/assets/images/small/image-2.svg",
		"/assets/images/small/image-3.svg",
		"/assets/images/small/image-4.svg",
		"/assets/images/small/image-5.svg",
		"/assets/scripts/dummy-1.js",
		"/assets/scripts/dummy-2.js",
		"/assets/styles/style-1.css",
		"/assets/styles/style-2.css",
		"/assets/styles/style-3.css",
	}
	if strings.Join(paths, ",") != strings.Join(want, ",") {
		t.Fatalf("paths mismatch\n got: %v\nwant: %v", paths, want)
	}
	if p.PagePath() != "/test/light" {
		t.Fatalf("page path = %q", p.PagePath())
	}
}

func TestParseAssetPath(t *testing.T) {
	valid := []string{
		"/assets/images/large/image-5.svg",
		"/assets/styles/style-5.css",
		"/assets/scripts/dummy-10.js",
	}
	for _, p := range valid {
		a, ok := ParseAssetPath(p)
		if !ok || a.Path != p {
			t.Errorf("ParseAssetPath(%q) = %+v, %v", p, a, ok)
		}
	}
	invalid := []string{
		"/assets/images/large/image-6.svg",
		"/assets/images/huge/image-1.svg",
		"/assets/styles/style-0.css",
		"/assets/scripts/dummy-11.js",
		"/index.html",
	}
	for _, p := range invalid {
		if _, ok := ParseAssetPath(p); ok {
			t.Errorf("expected %q to be rejected", p)
		}
	}
}

func TestAssetContentSize(t *testing.T) {
	a := Asset{Kind: KindScript, Index: 3, Path: ScriptPath(3)}
	if got := len(a.Content()); got < 30*kb || got > 30*kb+64 {
		t.Fatalf("script 3 size = %d, want ~30KB", got)
	}
	img := Asset{Kind: KindImage, Size: Medium, Index: 1}
	if got := len(img.Content()); got < 100*kb {
		t.Fatalf("medium image size = %d", got)
	}
}

func TestHandler(t *testing.T) {
	srv := httptest.NewServer(Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/test/light")
	if err != nil {
		t.Fatalf("get page: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("page status %d", resp.StatusCode)
	}
	if got := strings.Count(string(body), "/assets/"); got != 10 {
		t.Fatalf("light page references %d assets, want 10", got)
	}

	resp, err = http.Get(srv.URL + "/assets/styles/style-2.css")
	if err != nil {
		t.Fatalf("get asset: %v", err)
	}
	resp.Body.Close()
	if resp.Header.Get("Content-Type") != "text/css" {
		t.Fatalf("content type = %q", resp.Header.Get("Content-Type"))
	}

	resp, err = http.Get(srv.URL + "/assets/styles/style-9.css")
	if err != nil {
		t.Fatalf("get missing asset: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
