package core

import (
	"sort"
	"time"
)

// MonthlyPoints maps a month label to the points earned in that month.
type MonthlyPoints map[string]int64

// AccountRewardSummary is the externally visible reward view of one account.
type AccountRewardSummary struct {
	AccountID     string        `json:"accountId"`
	MonthlyPoints MonthlyPoints `json:"monthlyRewards"`
	TotalPoints   int64         `json:"totalRewards"`
}

// MonthLabel returns the full English month name used as the grouping key.
func MonthLabel(m time.Month) string {
	return m.String()
}

// Add merges points into the month, inserting the key when missing.
func (m MonthlyPoints) Add(label string, points int64) {
	m[label] += points
}

// Total sums every month.
func (m MonthlyPoints) Total() int64 {
	var total int64
	for _, p := range m {
		total += p
	}
	return total
}

// Months returns the labels in calendar order.
func (m MonthlyPoints) Months() []string {
	order := make(map[string]int, 12)
	for i := time.January; i <= time.December; i++ {
		order[MonthLabel(i)] = int(i)
	}
	labels := make([]string, 0, len(m))
	for label := range m {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		return order[labels[i]] < order[labels[j]]
	})
	return labels
}

// EmptySummary is the "no data" sentinel for an account.
func EmptySummary(accountID string) AccountRewardSummary {
	return AccountRewardSummary{
		AccountID:     accountID,
		MonthlyPoints: MonthlyPoints{},
	}
}

// IsEmpty reports whether the summary has the sentinel shape.
func (s AccountRewardSummary) IsEmpty() bool {
	return len(s.MonthlyPoints) == 0 && s.TotalPoints == 0
}
