package google

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"rewards/internal/core"
)

// parsePurchases converts a values matrix (as returned by Sheets API) into
// purchase records. The first row must carry Account, Amount and Date
// headers in any order; blank rows are skipped.
func parsePurchases(values [][]interface{}) ([]core.PurchaseRecord, error) {
	if len(values) == 0 {
		return nil, nil
	}
	headers := toStrings(values[0])
	colAccount := indexOf(headers, "Account")
	colAmount := indexOf(headers, "Amount")
	colDate := indexOf(headers, "Date")
	if colAccount == -1 || colAmount == -1 || colDate == -1 {
		return nil, fmt.Errorf("unexpected purchases header: got headers=%v", headers)
	}

	out := make([]core.PurchaseRecord, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		row := values[i]
		account := strings.TrimSpace(safeGet(toStrings(row), colAccount))
		if account == "" {
			continue
		}
		amount, err := cellAmount(row, colAmount)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		date, err := core.ParseDate(safeGet(toStrings(row), colDate))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		out = append(out, core.PurchaseRecord{AccountID: account, Amount: amount, OccurredOn: date})
	}
	return out, nil
}

func cellAmount(row []interface{}, col int) (decimal.Decimal, error) {
	if col >= len(row) {
		return decimal.Zero, core.ErrInvalidAmount
	}
	switch v := row[col].(type) {
	case float64:
		return decimal.NewFromFloat(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	default:
		s := strings.TrimSpace(fmt.Sprint(v))
		s = strings.TrimPrefix(s, "$")
		return core.ParseAmount(s)
	}
}

func toStrings(row []interface{}) []string {
	out := make([]string, len(row))
	for i, v := range row {
		out[i] = fmt.Sprint(v)
	}
	return out
}

func indexOf(headers []string, name string) int {
	for i, h := range headers {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

func safeGet(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
