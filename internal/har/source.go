package har

import (
	"github.com/torosent/protobench/internal/timing"
)

// LoadSource parses the archive at path and returns a timing source for the
// selected page. The capture is complete, so the source reports the page as
// already loaded.
func LoadSource(path string, opts SnapshotOptions) (timing.Source, error) {
	h, err := ParseFile(path)
	if err != nil {
		return nil, err
	}
	snap, err := ToSnapshot(h, opts)
	if err != nil {
		return nil, err
	}
	return timing.StaticSource{Snap: snap}, nil
}
