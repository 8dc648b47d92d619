package ledger

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Fantasim/tronxfer/internal/config"
)

// Ledger is the append-only list of wallets whose transfers are fully
// written. One wallet id per line.
type Ledger struct {
	mu   sync.Mutex
	path string
}

// New returns a ledger backed by the file at path. The file is created on
// the first MarkDone.
func New(path string) *Ledger {
	return &Ledger{path: path}
}

// Path returns the backing file path.
func (l *Ledger) Path() string {
	return l.path
}

// Load reads the set of processed wallets. A missing file is an empty set.
// Lines are trimmed of surrounding whitespace and blank lines are ignored, so
// the empty string is never a member.
func (l *Ledger) Load() (map[string]struct{}, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := os.ReadFile(l.path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Debug("processed ledger not found, starting empty", "path", l.path)
		return map[string]struct{}{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read processed ledger %q: %w", l.path, err)
	}

	done := make(map[string]struct{})
	for _, line := range strings.Split(string(data), "\n") {
		id := strings.TrimSpace(line)
		if id == "" {
			continue
		}
		done[id] = struct{}{}
	}
	return done, nil
}

// ValidID reports whether id can be stored as one ledger line and read back
// unchanged by Load.
func ValidID(id string) error {
	switch {
	case strings.TrimSpace(id) == "":
		return fmt.Errorf("%w: blank", config.ErrInvalidWalletID)
	case strings.ContainsAny(id, "\r\n"):
		return fmt.Errorf("%w: %q contains a line break", config.ErrInvalidWalletID, id)
	case strings.TrimSpace(id) != id:
		return fmt.Errorf("%w: %q has surrounding whitespace", config.ErrInvalidWalletID, id)
	}
	return nil
}

// Checkpointable splits ids into those MarkDone accepts and those it would
// reject. Rejected ids are logged and must not be fetched.
func Checkpointable(ids []string) (valid, invalid []string) {
	valid = make([]string, 0, len(ids))
	for _, id := range ids {
		if err := ValidID(id); err != nil {
			slog.Warn("skipping wallet id that cannot be checkpointed", "wallet", id, "error", err)
			invalid = append(invalid, id)
			continue
		}
		valid = append(valid, id)
	}
	return valid, invalid
}

// LoadPending returns the checkpointable ids of all with duplicates removed
// (first occurrence wins) minus every wallet already in the ledger.
func (l *Ledger) LoadPending(all []string) ([]string, error) {
	done, err := l.Load()
	if err != nil {
		return nil, err
	}

	candidates, skipped := Checkpointable(all)
	pending := Pending(candidates, done)
	slog.Info("worklist loaded",
		"candidates", len(all),
		"skipped", len(skipped),
		"processed", len(done),
		"pending", len(pending),
	)
	return pending, nil
}

// Pending filters all against done, keeping first-occurrence order.
func Pending(all []string, done map[string]struct{}) []string {
	seen := make(map[string]struct{}, len(all))
	pending := make([]string, 0, len(all))
	for _, w := range all {
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		if _, ok := done[w]; ok {
			continue
		}
		pending = append(pending, w)
	}
	return pending
}

// MarkDone durably appends wallet to the ledger. It must only be called once
// every row of the wallet has been durably written.
func (l *Ledger) MarkDone(wallet string) error {
	if err := ValidID(wallet); err != nil {
		return fmt.Errorf("mark done: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if dir := filepath.Dir(l.path); dir != "" {
		if err := os.MkdirAll(dir, config.DirPermissions); err != nil {
			return fmt.Errorf("create ledger directory %q: %w", dir, err)
		}
	}

	f, err := os.OpenFile(l.path, os.O_RDWR|os.O_CREATE|os.O_APPEND, config.FilePermissions)
	if err != nil {
		return fmt.Errorf("open processed ledger %q: %w", l.path, err)
	}
	defer f.Close()

	line := wallet + "\n"

	// A crash mid-write can leave a partial last line; start on a fresh one.
	needsNewline, err := endsMidLine(f)
	if err != nil {
		return fmt.Errorf("inspect processed ledger %q: %w", l.path, err)
	}
	if needsNewline {
		line = "\n" + line
	}

	if _, err := io.WriteString(f, line); err != nil {
		return fmt.Errorf("append to processed ledger %q: %w", l.path, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync processed ledger %q: %w", l.path, err)
	}

	slog.Debug("wallet checkpointed", "wallet", wallet, "path", l.path)
	return nil
}

func endsMidLine(f *os.File) (bool, error) {
	info, err := f.Stat()
	if err != nil {
		return false, err
	}
	if info.Size() == 0 {
		return false, nil
	}
	last := make([]byte, 1)
	if _, err := f.ReadAt(last, info.Size()-1); err != nil {
		return false, err
	}
	return last[0] != '\n', nil
}
