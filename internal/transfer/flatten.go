package transfer

import (
	"encoding/json"
	"strconv"

	"github.com/Fantasim/tronxfer/internal/models"
)

// field locates one output column inside a raw transfer object.
type field struct {
	column string
	path   []string
}

// fields follows models.RowColumns after the leading wallet column.
var fields = []field{
	{"block_ts", []string{"block_ts"}},
	{"transaction_id", []string{"transaction_id"}},
	{"risk_transaction", []string{"riskTransaction"}},
	{"status", []string{"status"}},
	{"from_address", []string{"from_address"}},
	{"from_address_tag", []string{"from_address_tag", "from_address_tag"}},
	{"to_address", []string{"to_address"}},
	{"to_address_tag", []string{"to_address_tag", "to_address_tag"}},
	{"quant", []string{"quant"}},
	{"token_id", []string{"tokenInfo", "tokenId"}},
	{"token_abbr", []string{"tokenInfo", "tokenAbbr"}},
	{"token_name", []string{"tokenInfo", "tokenName"}},
	{"token_decimal", []string{"tokenInfo", "tokenDecimal"}},
	{"token_type", []string{"tokenInfo", "tokenType"}},
	{"token_level", []string{"tokenInfo", "tokenLevel"}},
	{"contract_ret", []string{"contractRet"}},
	{"final_result", []string{"finalResult"}},
}

// Flattener turns raw transfers into wallet-tagged rows. Lookups are
// permissive: any absent, null, or unreachable field becomes Missing.
type Flattener struct {
	Missing string
}

// NewFlattener returns a flattener writing missing for absent fields.
func NewFlattener(missing string) Flattener {
	return Flattener{Missing: missing}
}

// Flatten maps one transfer to a row of len(models.RowColumns) cells.
func (f Flattener) Flatten(wallet string, raw models.RawTransfer) models.TransferRow {
	row := make(models.TransferRow, 0, len(fields)+1)
	row = append(row, wallet)
	for _, fd := range fields {
		row = append(row, f.render(lookup(raw, fd.path)))
	}
	return row
}

// FlattenAll flattens transfers in order.
func (f Flattener) FlattenAll(wallet string, raws []models.RawTransfer) []models.TransferRow {
	rows := make([]models.TransferRow, 0, len(raws))
	for _, raw := range raws {
		rows = append(rows, f.Flatten(wallet, raw))
	}
	return rows
}

func lookup(obj map[string]any, path []string) any {
	var cur any = obj
	for _, key := range path {
		m, ok := asObject(cur)
		if !ok {
			return nil
		}
		cur = m[key]
	}
	return cur
}

func asObject(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case models.RawTransfer:
		return m, true
	default:
		return nil, false
	}
}

func (f Flattener) render(v any) string {
	switch val := v.(type) {
	case nil:
		return f.Missing
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return f.Missing
		}
		return string(b)
	}
}
