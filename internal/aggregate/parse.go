// Package aggregate summarizes offline per-protocol trial logs.
package aggregate

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/torosent/protobench/internal/protocol"
)

// Trial is one row of a trial log. Times are in seconds.
type Trial struct {
	Protocol          string
	Scenario          string
	TimeTotal         float64
	TimeConnect       float64
	TimeStartTransfer float64
	SizeDownload      int64
	HTTPVersion       string
}

// LogHeader is the header row written at the top of each trial log.
const LogHeader = "protocol,scenario,time_total,time_connect,time_starttransfer,size_download,http_version"

const errorMarker = "error"

// MissingFileError reports a protocol whose log file does not exist.
type MissingFileError struct {
	Path string
}

func (e *MissingFileError) Error() string {
	return fmt.Sprintf("%s not found", filepath.Base(e.Path))
}

// ParseLog reads a trial log. The first line is a header. Rows with fewer than
// six columns, rows flagged as errors, and rows with unparsable numbers are
// dropped.
func ParseLog(r io.Reader) ([]Trial, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	trials := []Trial{}
	headerSeen := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !headerSeen {
			if line == "" {
				continue
			}
			headerSeen = true
			continue
		}
		if t, ok := parseRow(line); ok {
			trials = append(trials, t)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return trials, nil
}

func parseRow(line string) (Trial, bool) {
	parts := strings.Split(line, ",")
	if len(parts) < 6 {
		return Trial{}, false
	}
	if strings.TrimSpace(parts[2]) == errorMarker {
		return Trial{}, false
	}
	if len(parts) >= 8 && strings.TrimSpace(parts[7]) == errorMarker {
		return Trial{}, false
	}

	var nums [4]float64
	for i := range nums {
		v, err := strconv.ParseFloat(strings.TrimSpace(parts[2+i]), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return Trial{}, false
		}
		nums[i] = v
	}

	version := "unknown"
	if len(parts) > 6 && strings.TrimSpace(parts[6]) != "" {
		version = strings.TrimSpace(parts[6])
	}

	return Trial{
		Protocol:          strings.TrimSpace(parts[0]),
		Scenario:          strings.TrimSpace(parts[1]),
		TimeTotal:         nums[0],
		TimeConnect:       nums[1],
		TimeStartTransfer: nums[2],
		SizeDownload:      int64(nums[3]),
		HTTPVersion:       version,
	}, true
}

// LogPath is the log file for a protocol name inside dir.
func LogPath(dir, name string) string {
	return filepath.Join(dir, name+".txt")
}

// LoadDir reads the log of every protocol in protocol.LogNames from dir. A
// missing file is logged as a warning and contributes no trials.
func LoadDir(dir string, logger *slog.Logger) (map[string][]Trial, error) {
	if logger == nil {
		logger = slog.Default()
	}

	data := make(map[string][]Trial, len(protocol.LogNames))
	for _, name := range protocol.LogNames {
		path := LogPath(dir, name)
		trials, err := loadFile(path)
		var missing *MissingFileError
		if errors.As(err, &missing) {
			logger.Warn("trial log missing", "file", filepath.Base(path), "error", err)
			data[name] = []Trial{}
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		logger.Debug("trial log loaded", "protocol", name, "trials", len(trials))
		data[name] = trials
	}
	return data, nil
}

func loadFile(path string) ([]Trial, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, &MissingFileError{Path: path}
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseLog(f)
}
