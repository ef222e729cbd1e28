package core

import (
	"sort"
	"strings"
)

// Filter selects which accounts an aggregation covers.
type Filter struct {
	accountID string
	single    bool
}

// AllAccounts matches every record.
func AllAccounts() Filter { return Filter{} }

// ForAccount matches only the records of accountID.
func ForAccount(accountID string) Filter {
	return Filter{accountID: accountID, single: true}
}

// AccountID returns the requested account and whether the filter is narrowed.
func (f Filter) AccountID() (string, bool) { return f.accountID, f.single }

// Matches reports whether the record belongs to the filter.
func (f Filter) Matches(r PurchaseRecord) bool {
	return !f.single || r.AccountID == f.accountID
}

// Accumulation is the per-account, per-month state built by Aggregate.
type Accumulation map[string]MonthlyPoints

// Aggregate groups records by account and month and sums their points.
//
// Records rejected by the filter are skipped before validation. The first
// record with a negative amount aborts the whole call with an
// *InvalidTransactionError; no partial accumulation is returned.
func Aggregate(records []PurchaseRecord, filter Filter) (Accumulation, error) {
	acc := Accumulation{}
	if id, single := filter.AccountID(); single && strings.TrimSpace(id) == "" {
		return acc, nil
	}

	for _, r := range records {
		if !filter.Matches(r) {
			continue
		}
		if err := r.CheckAmount(); err != nil {
			return nil, err
		}
		monthly, ok := acc[r.AccountID]
		if !ok {
			monthly = MonthlyPoints{}
			acc[r.AccountID] = monthly
		}
		monthly.Add(MonthLabel(r.OccurredOn.Month()), CalculatePoints(r.Amount))
	}
	return acc, nil
}

// AssembleAll returns one summary per account, ordered by account id.
func AssembleAll(acc Accumulation) []AccountRewardSummary {
	ids := make([]string, 0, len(acc))
	for id := range acc {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]AccountRewardSummary, 0, len(ids))
	for _, id := range ids {
		out = append(out, summarize(id, acc[id]))
	}
	return out
}

// AssembleOne returns the summary for accountID.
//
// A blank id yields the sentinel with an empty identity rather than echoing
// the input; an unknown id yields the sentinel carrying that id.
func AssembleOne(acc Accumulation, accountID string) AccountRewardSummary {
	if strings.TrimSpace(accountID) == "" {
		return EmptySummary("")
	}
	monthly, ok := acc[accountID]
	if !ok {
		return EmptySummary(accountID)
	}
	return summarize(accountID, monthly)
}

func summarize(accountID string, monthly MonthlyPoints) AccountRewardSummary {
	copied := make(MonthlyPoints, len(monthly))
	for label, pts := range monthly {
		copied[label] = pts
	}
	return AccountRewardSummary{
		AccountID:     accountID,
		MonthlyPoints: copied,
		TotalPoints:   copied.Total(),
	}
}
