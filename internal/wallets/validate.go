package wallets

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/ethereum/go-ethereum/common"
	"github.com/mr-tron/base58"

	"github.com/Fantasim/tronxfer/internal/config"
)

// Tron mainnet address layout.
const (
	tronVersionByte  = 0x41
	tronHexPrefix    = "41"
	tronAddressLen   = 1 + common.AddressLength
	checksumLen      = 4
	base58AddressLen = 34
)

// Validate checks that addr is a Tron address, either base58check ("T...")
// or 21-byte hex with the 41 prefix.
func Validate(addr string) error {
	if strings.HasPrefix(addr, tronHexPrefix) && len(addr) == 2*tronAddressLen {
		if !common.IsHexAddress(addr[len(tronHexPrefix):]) {
			return fmt.Errorf("%w: %q is not hex", config.ErrInvalidWallet, addr)
		}
		return nil
	}

	if len(addr) != base58AddressLen {
		return fmt.Errorf("%w: %q has length %d", config.ErrInvalidWallet, addr, len(addr))
	}

	decoded, err := base58.Decode(addr)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", config.ErrInvalidWallet, addr, err)
	}
	if len(decoded) != tronAddressLen+checksumLen {
		return fmt.Errorf("%w: %q decodes to %d bytes", config.ErrInvalidWallet, addr, len(decoded))
	}

	payload, checksum := decoded[:tronAddressLen], decoded[tronAddressLen:]
	if payload[0] != tronVersionByte {
		return fmt.Errorf("%w: %q has version byte 0x%02x", config.ErrInvalidWallet, addr, payload[0])
	}
	if !bytes.Equal(chainhash.DoubleHashB(payload)[:checksumLen], checksum) {
		return fmt.Errorf("%w: %q checksum mismatch", config.ErrInvalidWallet, addr)
	}
	return nil
}

// Encode returns the base58check form of a 20-byte account hash.
func Encode(account common.Address) string {
	payload := make([]byte, 0, tronAddressLen+checksumLen)
	payload = append(payload, tronVersionByte)
	payload = append(payload, account.Bytes()...)
	payload = append(payload, chainhash.DoubleHashB(payload)[:checksumLen]...)
	return base58.Encode(payload)
}

// Filter splits wallets into valid and invalid entries, logging each invalid
// one. Order is preserved.
func Filter(wallets []string) (valid []string, invalid []string) {
	valid = make([]string, 0, len(wallets))
	for _, w := range wallets {
		if err := Validate(w); err != nil {
			slog.Warn("skipping invalid wallet", "wallet", w, "error", err)
			invalid = append(invalid, w)
			continue
		}
		valid = append(valid, w)
	}
	return valid, invalid
}
