package wallets

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Fantasim/tronxfer/internal/config"
)

const usdtContract = "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t"

func TestEncode_RoundTrip(t *testing.T) {
	addr := Encode(common.HexToAddress("0x00112233445566778899aabbccddeeff00112233"))
	if !strings.HasPrefix(addr, "T") || len(addr) != 34 {
		t.Errorf("Encode() = %q, want a 34-char T address", addr)
	}
	if err := Validate(addr); err != nil {
		t.Errorf("Validate(Encode()) error = %v", err)
	}
}

func TestValidate(t *testing.T) {
	generated := Encode(common.HexToAddress("0xa614f803b6fd780986a42c78ec9c7f77e6ded13c"))

	valid := []string{
		usdtContract,
		generated,
		"41a614f803b6fd780986a42c78ec9c7f77e6ded13c",
		"41A614F803B6FD780986A42C78EC9C7F77E6DED13C",
	}
	for _, addr := range valid {
		if err := Validate(addr); err != nil {
			t.Errorf("Validate(%q) error = %v", addr, err)
		}
	}

	// Flip the last character to break the checksum.
	last := generated[len(generated)-1]
	swap := byte('2')
	if last == '2' {
		swap = '3'
	}
	badChecksum := generated[:len(generated)-1] + string(swap)

	invalid := []string{
		"",
		"not-an-address",
		badChecksum,
		"0xa614f803b6fd780986a42c78ec9c7f77e6ded13c",
		"41a614f803b6fd780986a42c78ec9c7f77e6ded1zz",
		"1BoatSLRHtKNngkdXEeobR76b53LETtpyT", // bitcoin address, wrong version byte
		usdtContract + "x",
		"TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj60", // '0' is not base58
	}
	for _, addr := range invalid {
		if err := Validate(addr); !errors.Is(err, config.ErrInvalidWallet) {
			t.Errorf("Validate(%q) error = %v, want ErrInvalidWallet", addr, err)
		}
	}
}

func TestFilter(t *testing.T) {
	valid, invalid := Filter([]string{usdtContract, "junk", usdtContract, "41zz"})

	if !reflect.DeepEqual(valid, []string{usdtContract, usdtContract}) {
		t.Errorf("valid = %v", valid)
	}
	if !reflect.DeepEqual(invalid, []string{"junk", "41zz"}) {
		t.Errorf("invalid = %v", invalid)
	}
}
