package scenario

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"regexp"
	"strconv"
)

const kb = 1024

var (
	imageBytes  = map[string]int{Small: 10 * kb, Medium: 100 * kb, Large: 500 * kb}
	scriptBytes = []int{10 * kb, 20 * kb, 30 * kb, 50 * kb, 75 * kb, 100 * kb, 150 * kb, 200 * kb, 250 * kb, 300 * kb}
	styleBytes  = []int{20 * kb, 40 * kb, 60 * kb, 80 * kb, 100 * kb}

	imageRe  = regexp.MustCompile(`^/assets/images/(small|medium|large)/image-(\d+)\.svg$`)
	styleRe  = regexp.MustCompile(`^/assets/styles/style-(\d+)\.css$`)
	scriptRe = regexp.MustCompile(`^/assets/scripts/dummy-(\d+)\.js$`)
)

// Highest image indexes any profile references.
const (
	maxSmall  = 50
	maxMedium = 10
	maxLarge  = 5
)

// NominalSize is the approximate byte size of a generated asset.
func (a Asset) NominalSize() int {
	switch a.Kind {
	case KindImage:
		return imageBytes[a.Size]
	case KindScript:
		return sizeAt(scriptBytes, a.Index)
	default:
		return sizeAt(styleBytes, a.Index)
	}
}

func sizeAt(sizes []int, i int) int {
	if i < 1 || i > len(sizes) {
		return 0
	}
	return sizes[i-1]
}

// Content generates the synthetic body for a, padded to its nominal size.
func (a Asset) Content() []byte {
	var head string
	var pad []byte
	switch a.Kind {
	case KindImage:
		head = fmt.Sprintf(`<svg width="200" height="200" xmlns="http://www.w3.org/2000/svg"><rect width="100%%" height="100%%" fill="#404040"/><text x="50%%" y="50%%">%s %d</text></svg>`, a.Size, a.Index)
		pad = []byte("<!-- padding -->")
	case KindScript:
		head = fmt.Sprintf("// Dummy JavaScript file %d\nvar dummy%d = {id: %d};\n", a.Index, a.Index, a.Index)
		pad = []byte("//xxxxxxxxxxxxxx\n")
	default:
		head = fmt.Sprintf("/* Dummy CSS file %d */\n.dummy-%d { color: #262626; }\n", a.Index, a.Index)
		pad = []byte("/* padding */\n")
	}

	var b bytes.Buffer
	b.WriteString(head)
	for b.Len() < a.NominalSize() {
		b.Write(pad)
	}
	return b.Bytes()
}

// ParseAssetPath maps a request path back to the asset it names.
func ParseAssetPath(p string) (Asset, bool) {
	if m := imageRe.FindStringSubmatch(p); m != nil {
		i, _ := strconv.Atoi(m[2])
		limit := map[string]int{Small: maxSmall, Medium: maxMedium, Large: maxLarge}[m[1]]
		if i < 1 || i > limit {
			return Asset{}, false
		}
		return Asset{Kind: KindImage, Size: m[1], Index: i, Path: p}, true
	}
	if m := styleRe.FindStringSubmatch(p); m != nil {
		i, _ := strconv.Atoi(m[1])
		if i < 1 || i > len(styleBytes) {
			return Asset{}, false
		}
		return Asset{Kind: KindStyle, Index: i, Path: p}, true
	}
	if m := scriptRe.FindStringSubmatch(p); m != nil {
		i, _ := strconv.Atoi(m[1])
		if i < 1 || i > len(scriptBytes) {
			return Asset{}, false
		}
		return Asset{Kind: KindScript, Index: i, Path: p}, true
	}
	return Asset{}, false
}

var pageTemplate = template.Must(template.New("page").Parse(`<!doctype html>
<html>
<head>
<title>{{.Name}} test</title>
{{range .Styles}}<link rel="stylesheet" href="{{.Path}}">
{{end}}</head>
<body>
{{range .Images}}<img src="{{.Path}}" loading="eager">
{{end}}{{range .Scripts}}<script src="{{.Path}}" async></script>
{{end}}</body>
</html>
`))

// Page renders the scenario's HTML document.
func (p Profile) Page() []byte {
	var images, styles, scripts []Asset
	for _, a := range p.Assets() {
		switch a.Kind {
		case KindImage:
			images = append(images, a)
		case KindStyle:
			styles = append(styles, a)
		default:
			scripts = append(scripts, a)
		}
	}
	var b bytes.Buffer
	_ = pageTemplate.Execute(&b, map[string]any{"Name": p.Name, "Images": images, "Styles": styles, "Scripts": scripts})
	return b.Bytes()
}

// Handler serves the scenario pages and their generated assets.
func Handler() http.Handler {
	mux := http.NewServeMux()
	for _, name := range Names {
		p := profiles[name]
		page := p.Page()
		mux.HandleFunc(p.PagePath(), func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write(page)
		})
	}
	mux.HandleFunc("/assets/", func(w http.ResponseWriter, r *http.Request) {
		a, ok := ParseAssetPath(r.URL.Path)
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", a.contentType())
		w.Header().Set("Cache-Control", "no-store")
		w.Write(a.Content())
	})
	return mux
}

func (a Asset) contentType() string {
	switch a.Kind {
	case KindImage:
		return "image/svg+xml"
	case KindScript:
		return "text/javascript"
	default:
		return "text/css"
	}
}
