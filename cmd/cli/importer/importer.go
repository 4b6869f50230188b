// Package importer loads the legacy per-collection JSON files into the API.
package importer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/crucial707/ammotrack/cmd/cli/client"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// Collection maps a legacy file to the API path its records are posted to.
type Collection struct {
	File string
	Path string
}

// Collections are listed in dependency order: depots before the stock that
// lives in them, firearms before magazines and maintenance logs.
var Collections = []Collection{
	{"depots.json", "/depots"},
	{"firearms.json", "/firearms"},
	{"magazines.json", "/magazines"},
	{"ammunition.json", "/ammunition"},
	{"usage-scenarios.json", "/scenarios"},
	{"maintenance-logs.json", "/maintenance"},
	{"alerts.json", "/alerts"},
}

// Result counts what happened to the records of one collection.
type Result struct {
	File     string
	Created  int
	Existing int
	Failed   int
	Errors   []string
}

func InitImport(rootCmd *cobra.Command) {
	var dataDir string
	var workers int

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import legacy JSON data files through the API (admin)",
		Long: `Reads depots.json, firearms.json, magazines.json, ammunition.json,
usage-scenarios.json, maintenance-logs.json and alerts.json from --data-dir
and creates each record. Records that already exist are skipped, so the
import can be re-run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.Authenticated()
			if err != nil {
				return err
			}
			results, err := Run(c, dataDir, workers)
			w := cmd.OutOrStdout()
			failed := 0
			for _, r := range results {
				fmt.Fprintf(w, "%-24s created %d, existing %d, failed %d\n", r.File, r.Created, r.Existing, r.Failed)
				for _, e := range r.Errors {
					fmt.Fprintf(w, "  %s\n", e)
				}
				failed += r.Failed
			}
			if err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d records failed to import", failed)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dataDir, "data-dir", "./data", "Directory holding the legacy JSON files")
	cmd.Flags().IntVar(&workers, "workers", 4, "Concurrent requests per collection")
	rootCmd.AddCommand(cmd)
}

// Run imports every collection found in dir. Missing files are skipped.
// Collections run one after another; records within one run concurrently.
func Run(c *client.Client, dir string, workers int) ([]Result, error) {
	if workers < 1 {
		workers = 1
	}
	var results []Result
	for _, col := range Collections {
		records, err := readRecords(filepath.Join(dir, col.File))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return results, err
		}
		results = append(results, importCollection(c, col, records, workers))
	}
	return results, nil
}

func importCollection(c *client.Client, col Collection, records []map[string]any, workers int) Result {
	res := Result{File: col.File}
	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(workers)

	for i, rec := range records {
		g.Go(func() error {
			body := normalize(rec)
			err := c.Post(col.Path, body, nil)
			existing := false
			var apiErr *client.Error
			if errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict {
				existing = exists(c, col.Path, body["id"])
			}

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				res.Created++
			case existing:
				res.Existing++
			default:
				res.Failed++
				res.Errors = append(res.Errors, fmt.Sprintf("record %d (%v): %s", i, rec["id"], oneLine(err)))
			}
			return nil
		})
	}
	_ = g.Wait()
	return res
}

// exists reports whether the record with id can be fetched. A conflict on
// create can also come from another record sharing a unique field, such as
// a serial number, and that must not count as already imported.
func exists(c *client.Client, path string, id any) bool {
	s, ok := id.(string)
	if !ok || s == "" {
		return false
	}
	return c.Get(path+"/"+url.PathEscape(s), nil) == nil
}

func readRecords(path string) ([]map[string]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	var records []map[string]any
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return records, nil
}

// normalize converts a legacy record to the API's field names: camelCase
// keys become snake_case and numeric ids become strings.
func normalize(rec map[string]any) map[string]any {
	out := make(map[string]any, len(rec))
	for k, v := range rec {
		key := snakeCase(k)
		if key == "id" || strings.HasSuffix(key, "_id") {
			if n, ok := v.(float64); ok {
				v = strconv.FormatFloat(n, 'f', -1, 64)
			}
		}
		out[key] = v
	}
	return out
}

func snakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

func oneLine(err error) string {
	return strings.ReplaceAll(err.Error(), "\n", " ")
}
