package output

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pankaj-dahiya-devops/aicost/internal/models"
)

// StampLayout is the time layout used in exported file names.
const StampLayout = "20060102-150405"

// Stamp formats t for use in exported file names.
func Stamp(t time.Time) string {
	return t.UTC().Format(StampLayout)
}

// ExportOptions configures Export.
type ExportOptions struct {
	// Dir is the output directory. It is created when missing.
	Dir string

	// Stamp is embedded in every file name.
	Stamp string

	// IncludeMethods adds the CalcMethod column to the CSV file.
	IncludeMethods bool
}

// Export writes the report CSV and JSON files and one discovery snapshot
// per account into opts.Dir, returning the written paths in that order.
//
//	ai-costs-<stamp>.csv
//	ai-costs-<stamp>.json
//	discovery-<account>-<stamp>.json
func Export(r *models.Report, opts ExportOptions) ([]string, error) {
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	var paths []string
	write := func(name string, render func(*bytes.Buffer) error) error {
		var buf bytes.Buffer
		if err := render(&buf); err != nil {
			return fmt.Errorf("render %s: %w", name, err)
		}
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
		return nil
	}

	base := "ai-costs-" + opts.Stamp
	if err := write(base+".csv", func(b *bytes.Buffer) error {
		return WriteCSV(b, r, CSVOptions{IncludeMethods: opts.IncludeMethods})
	}); err != nil {
		return paths, err
	}
	if err := write(base+".json", func(b *bytes.Buffer) error { return WriteJSON(b, r) }); err != nil {
		return paths, err
	}

	for _, a := range r.Accounts {
		if a.Discovery == nil {
			continue
		}
		d := a.Discovery
		if err := write(DiscoveryFileName(d.AccountID, opts.Stamp), func(b *bytes.Buffer) error { return WriteJSON(b, d) }); err != nil {
			return paths, err
		}
	}
	return paths, nil
}

// DiscoveryFileName returns the snapshot file name for accountID.
func DiscoveryFileName(accountID, stamp string) string {
	return fmt.Sprintf("discovery-%s-%s.json", accountID, stamp)
}
