// Package export encodes stored results for download.
package export

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/torosent/protobench/internal/store"
)

const (
	// CSVHeader is the first line of every non-empty CSV export.
	CSVHeader = "timestamp,scenarioType,protocol,ttfb,domLoad,fullLoad,resourceCount,totalSize"
	// EmptyCSV is returned by CSV when there is nothing to export.
	EmptyCSV = "No results to export"

	JSONFilename = "http-test-results.json"
	CSVFilename  = "http-test-results.csv"

	JSONMimeType = "application/json"
	CSVMimeType  = "text/csv"
)

// JSON renders results as an indented JSON array.
func JSON(results []store.SavedResult) ([]byte, error) {
	if results == nil {
		results = []store.SavedResult{}
	}
	return json.MarshalIndent(results, "", "  ")
}

// DecodeJSON parses the output of JSON.
func DecodeJSON(data []byte) ([]store.SavedResult, error) {
	var results []store.SavedResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, err
	}
	if results == nil {
		results = []store.SavedResult{}
	}
	return results, nil
}

// CSV renders one unquoted row per result. Field values are written as-is.
func CSV(results []store.SavedResult) string {
	if len(results) == 0 {
		return EmptyCSV
	}

	var b strings.Builder
	b.WriteString(CSVHeader)
	for _, r := range results {
		b.WriteByte('\n')
		b.WriteString(strings.Join([]string{
			r.Timestamp,
			r.ScenarioType,
			r.Protocol,
			formatFloat(r.TTFB),
			formatFloat(r.DOMLoad),
			formatFloat(r.FullLoad),
			strconv.Itoa(r.ResourceCount),
			strconv.FormatInt(r.TotalSize, 10),
		}, ","))
	}
	return b.String()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
