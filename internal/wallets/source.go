package wallets

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Fantasim/tronxfer/internal/config"
)

// ReadCSV returns the wallet column of the CSV file at path in file order.
// The first row is the header and must contain a "wallet" column. Blank
// cells are dropped; duplicates are kept for the ledger to resolve.
func ReadCSV(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wallets file %q: %w", path, err)
	}
	defer f.Close()

	wallets, err := parse(f)
	if err != nil {
		return nil, fmt.Errorf("read wallets file %q: %w", path, err)
	}

	slog.Info("wallets loaded",
		"path", path,
		"count", len(wallets),
	)
	return wallets, nil
}

func parse(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty file", config.ErrWalletColumnMissing)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	col := -1
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if name == config.WalletColumn {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("%w: header %v", config.ErrWalletColumnMissing, header)
	}

	var wallets []string
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", line, err)
		}
		if col >= len(record) {
			continue
		}
		w := strings.TrimSpace(record[col])
		if w == "" {
			continue
		}
		wallets = append(wallets, w)
	}
	return wallets, nil
}
