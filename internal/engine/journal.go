package engine

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Record is one line of the decision journal.
type Record struct {
	RunID     string    `json:"run_id"`
	Timestamp time.Time `json:"timestamp"`
	Date      string    `json:"date"`
	Kind      string    `json:"kind"`
	Symbol    string    `json:"symbol"`
	Reason    string    `json:"reason,omitempty"`
	Quantity  float64   `json:"quantity"`
	Price     float64   `json:"price"`
	Amount    string    `json:"amount,omitempty"`
	AvgPrice  float64   `json:"avg_price,omitempty"`
	Target    int64     `json:"target_shares,omitempty"`
	Held      float64   `json:"held_shares,omitempty"`
}

// Journal appends records as newline-delimited JSON.
type Journal struct {
	runID  string
	file   *os.File
	writer *bufio.Writer
	mu     sync.Mutex
}

func NewJournal(path string, runID string) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &Journal{
		runID:  runID,
		file:   file,
		writer: bufio.NewWriter(file),
	}, nil
}

func (j *Journal) RunID() string {
	return j.runID
}

// Append writes one record stamped with the run ID and flushes it, so a
// crashed cycle still leaves every decision made so far on disk.
func (j *Journal) Append(record Record) error {
	record.RunID = j.runID
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("journal %s %s: %w", record.Kind, record.Symbol, err)
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if _, err := j.writer.Write(append(payload, '\n')); err != nil {
		return fmt.Errorf("journal write: %w", err)
	}
	if err := j.writer.Flush(); err != nil {
		return fmt.Errorf("journal flush: %w", err)
	}
	return nil
}

func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.writer.Flush(); err != nil {
		_ = j.file.Close()
		return err
	}
	return j.file.Close()
}
