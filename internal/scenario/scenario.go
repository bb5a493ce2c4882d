// Package scenario defines the asset sets loaded by each test page.
package scenario

import (
	"fmt"
	"strings"
)

const (
	Light = "light"
	Heavy = "heavy"
	Many  = "many"
)

// Names lists the scenarios in display order.
var Names = []string{Light, Heavy, Many}

// Kind is the asset category.
type Kind string

const (
	KindImage  Kind = "image"
	KindStyle  Kind = "style"
	KindScript Kind = "script"
)

// Image sizes.
const (
	Small  = "small"
	Medium = "medium"
	Large  = "large"
)

// Profile is the number of assets of each kind a scenario page loads.
type Profile struct {
	Name         string
	SmallImages  int
	MediumImages int
	LargeImages  int
	Styles       int
	Scripts      int
}

var profiles = map[string]Profile{
	Light: {Name: Light, SmallImages: 5, Styles: 3, Scripts: 2},
	Heavy: {Name: Heavy, SmallImages: 20, MediumImages: 10, LargeImages: 5, Styles: 5, Scripts: 10},
	Many:  {Name: Many, SmallImages: 50, Styles: 5, Scripts: 10},
}

// Lookup returns the profile for name.
func Lookup(name string) (Profile, bool) {
	p, ok := profiles[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

// Parse is Lookup with an error for unknown names.
func Parse(name string) (Profile, error) {
	p, ok := Lookup(name)
	if !ok {
		return Profile{}, fmt.Errorf("unknown scenario %q (expected one of %s)", name, strings.Join(Names, ", "))
	}
	return p, nil
}

// Valid reports whether name is a known scenario.
func Valid(name string) bool {
	_, ok := Lookup(name)
	return ok
}

// Images is the total image count.
func (p Profile) Images() int { return p.SmallImages + p.MediumImages + p.LargeImages }

// AssetCount is the number of sub-resources the page requests.
func (p Profile) AssetCount() int { return p.Images() + p.Styles + p.Scripts }

// PagePath is the document path of the scenario page.
func (p Profile) PagePath() string { return "/test/" + p.Name }

// Asset is one sub-resource of a scenario page.
type Asset struct {
	Kind  Kind
	Size  string // image size class; empty for styles and scripts
	Index int    // 1-based
	Path  string
}

// InitiatorType is the resource-timing initiator a browser reports for the asset.
func (a Asset) InitiatorType() string {
	switch a.Kind {
	case KindImage:
		return "img"
	case KindStyle:
		return "link"
	default:
		return "script"
	}
}

// Assets lists the page's sub-resources: images by size class, then scripts,
// then styles.
func (p Profile) Assets() []Asset {
	assets := make([]Asset, 0, p.AssetCount())
	for _, group := range []struct {
		size  string
		count int
	}{{Small, p.SmallImages}, {Medium, p.MediumImages}, {Large, p.LargeImages}} {
		for i := 1; i <= group.count; i++ {
			assets = append(assets, Asset{Kind: KindImage, Size: group.size, Index: i, Path: ImagePath(group.size, i)})
		}
	}
	for i := 1; i <= p.Scripts; i++ {
		assets = append(assets, Asset{Kind: KindScript, Index: i, Path: ScriptPath(i)})
	}
	for i := 1; i <= p.Styles; i++ {
		assets = append(assets, Asset{Kind: KindStyle, Index: i, Path: StylePath(i)})
	}
	return assets
}

func ImagePath(size string, i int) string {
	return fmt.Sprintf("/assets/images/%s/image-%d.svg", size, i)
}

func StylePath(i int) string { return fmt.Sprintf("/assets/styles/style-%d.css", i) }

func ScriptPath(i int) string { return fmt.Sprintf("/assets/scripts/dummy-%d.js", i) }
