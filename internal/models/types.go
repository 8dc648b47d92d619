package models

import "time"

// RawTransfer is one undecoded transfer object as returned by the explorer.
// Numbers are kept as json.Number so quantities never lose precision.
type RawTransfer map[string]any

// PageRequest addresses one server-side page of a wallet's transfer history.
type PageRequest struct {
	Wallet string `json:"wallet"`
	Offset int    `json:"offset"`
	Limit  int    `json:"limit"`
}

// Page is one decoded explorer response.
type Page struct {
	Total     int           `json:"total"`
	Transfers []RawTransfer `json:"transfers"`
}

// TransferRow is the flattened, wallet-tagged form of one transfer.
// Column order matches RowColumns.
type TransferRow []string

// RowColumns names the output columns in write order. The store itself is
// written without a header.
var RowColumns = []string{
	"wallet",
	"block_ts",
	"transaction_id",
	"risk_transaction",
	"status",
	"from_address",
	"from_address_tag",
	"to_address",
	"to_address_tag",
	"quant",
	"token_id",
	"token_abbr",
	"token_name",
	"token_decimal",
	"token_type",
	"token_level",
	"contract_ret",
	"final_result",
}

// WalletState is the lifecycle of a wallet within one run.
type WalletState string

const (
	WalletPending  WalletState = "pending"
	WalletFetching WalletState = "fetching"
	WalletWritten  WalletState = "written"
	WalletDone     WalletState = "done"
	WalletFailed   WalletState = "failed"
)

// Summary reports the outcome of a run.
type Summary struct {
	RunID         string        `json:"runId"`
	Candidates    int           `json:"candidates"`
	Invalid       int           `json:"invalid"`
	Pending       int           `json:"pending"`
	Done          int           `json:"done"`
	Failed        int           `json:"failed"`
	PagesFetched  int           `json:"pagesFetched"`
	RowsWritten   int           `json:"rowsWritten"`
	CurrentWallet string        `json:"currentWallet,omitempty"`
	StartedAt     time.Time     `json:"startedAt"`
	Duration      time.Duration `json:"duration"`
	Finished      bool          `json:"finished"`
}
