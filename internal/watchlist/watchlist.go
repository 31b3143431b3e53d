// Package watchlist reads the candidate universe and writes the kept selection.
package watchlist

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ReadCSV returns the first column of path, skipping the header row.
func ReadCSV(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open watch list: %w", err)
	}
	defer f.Close()

	symbols, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("read watch list %s: %w", path, err)
	}
	slog.Info("watch list loaded", "path", path, "symbols", len(symbols))
	return symbols, nil
}

func Parse(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var symbols []string
	header := true
	seen := map[string]bool{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if header {
			header = false
			continue
		}
		if len(record) == 0 {
			continue
		}
		symbol := Normalize(record[0])
		if symbol == "" || seen[symbol] {
			continue
		}
		seen[symbol] = true
		symbols = append(symbols, symbol)
	}
	return symbols, nil
}

// Normalize strips a trailing -US market suffix and maps share-class slashes
// to dashes ("BRK/B-US" -> "BRK-B").
func Normalize(raw string) string {
	symbol := strings.TrimSpace(raw)
	symbol = strings.TrimSuffix(symbol, "-US")
	return strings.ReplaceAll(symbol, "/", "-")
}

// FinalItems keeps previous holdings and new buys that are still buy or hold
// eligible. Previous holdings come first.
func FinalItems(prev, buy, hold []string) []string {
	keep := make(map[string]bool, len(buy)+len(hold))
	for _, s := range buy {
		keep[s] = true
	}
	for _, s := range hold {
		keep[s] = true
	}
	inPrev := make(map[string]bool, len(prev))
	for _, s := range prev {
		inPrev[s] = true
	}

	candidates := append([]string{}, prev...)
	for _, s := range buy {
		if !inPrev[s] {
			candidates = append(candidates, s)
		}
	}
	out := []string{}
	for _, s := range candidates {
		if keep[s] {
			out = append(out, s)
		}
	}
	return out
}

func SaveSelection(path string, items []string) error {
	if items == nil {
		items = []string{}
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create selection dir: %w", err)
		}
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal selection: %w", err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("write selection: %w", err)
	}
	slog.Info("selection saved", "path", path, "items", len(items))
	return nil
}
