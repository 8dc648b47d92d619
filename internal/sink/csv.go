package sink

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/Fantasim/tronxfer/internal/config"
	"github.com/Fantasim/tronxfer/internal/metrics"
	"github.com/Fantasim/tronxfer/internal/models"
)

// CSVSink appends transfer rows to a headerless CSV file.
type CSVSink struct {
	mu      sync.Mutex
	path    string
	metrics *metrics.Metrics

	// wrap intercepts the file writer; tests use it to inject failures.
	wrap func(io.Writer) io.Writer
}

// NewCSVSink returns a sink appending to path. The file and its directory
// are created on the first write.
func NewCSVSink(path string, m *metrics.Metrics) *CSVSink {
	return &CSVSink{path: path, metrics: m}
}

// Path returns the output file path.
func (s *CSVSink) Path() string {
	return s.path
}

// Append writes rows as one unit: they are flushed and fsynced before
// Append returns nil. On failure the file is truncated back to its previous
// size so no partial batch remains, and the error wraps config.ErrSinkWrite.
func (s *CSVSink) Append(rows []models.TransferRow) error {
	if len(rows) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, config.DirPermissions); err != nil {
			return fmt.Errorf("%w: create output directory %q: %v", config.ErrSinkWrite, dir, err)
		}
	}

	f, err := os.OpenFile(s.path, os.O_RDWR|os.O_CREATE|os.O_APPEND, config.FilePermissions)
	if err != nil {
		return fmt.Errorf("%w: open %q: %v", config.ErrSinkWrite, s.path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: stat %q: %v", config.ErrSinkWrite, s.path, err)
	}
	size := info.Size()

	if err := s.write(f, size, rows); err != nil {
		if rbErr := rollback(f, size); rbErr != nil {
			slog.Error("output rollback failed",
				"path", s.path,
				"size", size,
				"error", rbErr,
			)
			return fmt.Errorf("%w: %v (rollback: %v)", config.ErrSinkWrite, err, rbErr)
		}
		slog.Warn("output append rolled back",
			"path", s.path,
			"rows", len(rows),
			"error", err,
		)
		return fmt.Errorf("%w: %v", config.ErrSinkWrite, err)
	}

	s.metrics.AddRows(len(rows))
	slog.Debug("rows appended",
		"path", s.path,
		"rows", len(rows),
	)
	return nil
}

func (s *CSVSink) write(f *os.File, size int64, rows []models.TransferRow) error {
	var out io.Writer = f
	if s.wrap != nil {
		out = s.wrap(f)
	}

	if size > 0 {
		partial, err := endsMidLine(f, size)
		if err != nil {
			return fmt.Errorf("inspect %q: %w", s.path, err)
		}
		if partial {
			if _, err := io.WriteString(out, "\n"); err != nil {
				return fmt.Errorf("write %q: %w", s.path, err)
			}
		}
	}

	w := csv.NewWriter(out)
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write %q: %w", s.path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %q: %w", s.path, err)
	}

	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync %q: %w", s.path, err)
	}
	return nil
}

func rollback(f *os.File, size int64) error {
	if err := f.Truncate(size); err != nil {
		return err
	}
	return f.Sync()
}

func endsMidLine(f *os.File, size int64) (bool, error) {
	last := make([]byte, 1)
	if _, err := f.ReadAt(last, size-1); err != nil {
		return false, err
	}
	return last[0] != '\n', nil
}
