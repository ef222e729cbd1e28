package records

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"rewards/internal/core"
)

// SeedFile is the TOML layout for a list of purchases:
//
//	[[purchase]]
//	account = "cust1"
//	amount  = "120.00"
//	date    = "2025-01-15"
type SeedFile struct {
	Purchases []SeedPurchase `toml:"purchase"`
}

// SeedPurchase is one row of a seed file. Amount is a string so decimals
// survive without float rounding.
type SeedPurchase struct {
	Account string `toml:"account"`
	Amount  string `toml:"amount"`
	Date    string `toml:"date"`
}

// LoadSeedFile reads purchase records from a TOML seed file.
func LoadSeedFile(path string) ([]core.PurchaseRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return ParseSeed(string(data))
}

// ParseSeed decodes TOML seed content.
func ParseSeed(content string) ([]core.PurchaseRecord, error) {
	var seed SeedFile
	if _, err := toml.Decode(content, &seed); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}

	out := make([]core.PurchaseRecord, 0, len(seed.Purchases))
	for i, p := range seed.Purchases {
		amount, err := core.ParseAmount(p.Amount)
		if err != nil {
			return nil, fmt.Errorf("purchase %d: amount %q: %w", i+1, p.Amount, err)
		}
		date, err := core.ParseDate(p.Date)
		if err != nil {
			return nil, fmt.Errorf("purchase %d: %w", i+1, err)
		}
		out = append(out, core.PurchaseRecord{
			AccountID:  strings.TrimSpace(p.Account),
			Amount:     amount,
			OccurredOn: date,
		})
	}
	return out, nil
}
