package capture

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/torosent/protobench/internal/aggregate"
	"github.com/torosent/protobench/internal/probe"
	"github.com/torosent/protobench/internal/protocol"
)

// logWriter appends trial rows to one protocol log.
type logWriter struct {
	mu   sync.Mutex
	name string
	path string
	f    *os.File
	w    *bufio.Writer
}

// openLog opens (or creates) the log for name inside dir. A header row is
// written when the file is new or empty.
func openLog(dir, name string) (*logWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	path := aggregate.LogPath(dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	lw := &logWriter{name: name, path: path, f: f, w: bufio.NewWriter(f)}
	if info.Size() == 0 {
		if _, err := lw.w.WriteString(aggregate.LogHeader + "\n"); err != nil {
			f.Close()
			return nil, err
		}
	}
	return lw, nil
}

// writeTrial appends a successful trial. Times are seconds with microsecond
// precision, as curl's -w variables print them.
func (l *logWriter) writeTrial(scenarioName string, s probe.Summary) error {
	row := strings.Join([]string{
		l.name,
		scenarioName,
		seconds(s.Total.Seconds()),
		seconds(s.Connect.Seconds()),
		seconds(s.StartTransfer.Seconds()),
		strconv.FormatInt(s.BodyBytes, 10),
		curlVersion(s.Protocol),
	}, ",")
	return l.writeLine(row)
}

// writeFailure appends a row flagged as an error. The aggregator skips it.
func (l *logWriter) writeFailure(scenarioName string) error {
	return l.writeLine(strings.Join([]string{l.name, scenarioName, "error", "", "", "", ""}, ","))
}

func (l *logWriter) writeLine(row string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.w.WriteString(row + "\n"); err != nil {
		return err
	}
	return l.w.Flush()
}

func (l *logWriter) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.w.Flush(); err != nil {
		l.f.Close()
		return err
	}
	return l.f.Close()
}

func seconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// curlVersion renders an ALPN id the way curl's %{http_version} does.
func curlVersion(token string) string {
	switch protocol.Classify(token) {
	case protocol.HTTP1:
		return "1.1"
	case protocol.HTTP2:
		return "2"
	case protocol.HTTP3:
		return "3"
	}
	return ""
}
