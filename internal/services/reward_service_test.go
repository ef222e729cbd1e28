package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"

	"rewards/internal/core"
	"rewards/internal/log"
	"rewards/internal/metrics"
	"rewards/internal/records"
	"rewards/internal/records/memory"
)

type failingSource struct{ err error }

func (f failingSource) Records(context.Context, core.Filter) ([]core.PurchaseRecord, error) {
	return nil, f.err
}

// countingSource records the filters it was asked for.
type countingSource struct {
	records.Source
	calls []core.Filter
}

func (c *countingSource) Records(ctx context.Context, f core.Filter) ([]core.PurchaseRecord, error) {
	c.calls = append(c.calls, f)
	return c.Source.Records(ctx, f)
}

func quietLogger() *log.Logger {
	return log.New(log.Config{Component: log.ComponentRewards, Output: io.Discard})
}

func purchase(account, amount string, month, day int) core.PurchaseRecord {
	return core.PurchaseRecord{
		AccountID:  account,
		Amount:     decimal.RequireFromString(amount),
		OccurredOn: core.NewDate(2025, month, day),
	}
}

func TestRewardService_GetAllRewards(t *testing.T) {
	svc := NewRewardService(memory.New(memory.SampleRecords()), quietLogger())

	before := testutil.ToFloat64(metrics.Aggregations.WithLabelValues(log.OpGetAll, metrics.OutcomeOK))
	got, err := svc.GetAllRewards(context.Background())
	if err != nil {
		t.Fatalf("GetAllRewards() error = %v", err)
	}
	if after := testutil.ToFloat64(metrics.Aggregations.WithLabelValues(log.OpGetAll, metrics.OutcomeOK)); after != before+1 {
		t.Errorf("ok aggregations = %v, want %v", after, before+1)
	}

	want := []core.AccountRewardSummary{
		{AccountID: "cust1", MonthlyPoints: core.MonthlyPoints{"January": 90, "February": 30, "March": 90}, TotalPoints: 210},
		{AccountID: "cust2", MonthlyPoints: core.MonthlyPoints{"January": 30, "February": 90, "March": 30}, TotalPoints: 150},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d summaries, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].AccountID != want[i].AccountID || got[i].TotalPoints != want[i].TotalPoints {
			t.Errorf("summary[%d] = %+v, want %+v", i, got[i], want[i])
		}
		for month, pts := range want[i].MonthlyPoints {
			if got[i].MonthlyPoints[month] != pts {
				t.Errorf("summary[%d][%s] = %d, want %d", i, month, got[i].MonthlyPoints[month], pts)
			}
		}
	}
}

func TestRewardService_GetAllRewardsEmpty(t *testing.T) {
	svc := NewRewardService(memory.New(nil), quietLogger())

	got, err := svc.GetAllRewards(context.Background())
	if err != nil {
		t.Fatalf("GetAllRewards() error = %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestRewardService_GetRewardsForAccount(t *testing.T) {
	src := &countingSource{Source: memory.New(memory.SampleRecords())}
	svc := NewRewardService(src, quietLogger())
	ctx := context.Background()

	t.Run("known account", func(t *testing.T) {
		got, err := svc.GetRewardsForAccount(ctx, "cust2")
		if err != nil {
			t.Fatalf("error = %v", err)
		}
		if got.AccountID != "cust2" || got.TotalPoints != 150 || got.MonthlyPoints["February"] != 90 {
			t.Errorf("unexpected summary %+v", got)
		}
	})

	t.Run("unknown account echoes id", func(t *testing.T) {
		got, err := svc.GetRewardsForAccount(ctx, "custX")
		if err != nil {
			t.Fatalf("error = %v", err)
		}
		if got.AccountID != "custX" || !got.IsEmpty() {
			t.Errorf("expected empty summary for custX, got %+v", got)
		}
	})

	t.Run("blank account skips the source", func(t *testing.T) {
		calls := len(src.calls)
		got, err := svc.GetRewardsForAccount(ctx, "  ")
		if err != nil {
			t.Fatalf("error = %v", err)
		}
		if got.AccountID != "" || !got.IsEmpty() {
			t.Errorf("expected empty summary with blank id, got %+v", got)
		}
		if len(src.calls) != calls {
			t.Error("blank id should not query the source")
		}
	})

	t.Run("source is narrowed to the account", func(t *testing.T) {
		src.calls = nil
		if _, err := svc.GetRewardsForAccount(ctx, "cust1"); err != nil {
			t.Fatalf("error = %v", err)
		}
		if len(src.calls) != 1 {
			t.Fatalf("expected one source call, got %d", len(src.calls))
		}
		if id, single := src.calls[0].AccountID(); !single || id != "cust1" {
			t.Errorf("filter = (%q, %v), want (cust1, true)", id, single)
		}
	})
}

func TestRewardService_InvalidTransaction(t *testing.T) {
	recs := append(memory.SampleRecords(), purchase("cust3", "-5", 1, 20))
	svc := NewRewardService(memory.New(recs), quietLogger())
	ctx := context.Background()

	before := testutil.ToFloat64(metrics.InvalidTransactions)
	got, err := svc.GetAllRewards(ctx)
	if !errors.Is(err, core.ErrInvalidTransaction) {
		t.Fatalf("expected ErrInvalidTransaction, got %v", err)
	}
	if got != nil {
		t.Errorf("expected no partial result, got %+v", got)
	}
	if after := testutil.ToFloat64(metrics.InvalidTransactions); after != before+1 {
		t.Errorf("invalid transactions = %v, want %v", after, before+1)
	}

	// the bad record belongs to another account, so cust1 still answers
	sum, err := svc.GetRewardsForAccount(ctx, "cust1")
	if err != nil {
		t.Fatalf("GetRewardsForAccount(cust1) error = %v", err)
	}
	if sum.TotalPoints != 210 {
		t.Errorf("cust1 total = %d, want 210", sum.TotalPoints)
	}

	if _, err := svc.GetRewardsForAccount(ctx, "cust3"); !errors.Is(err, core.ErrInvalidTransaction) {
		t.Errorf("expected ErrInvalidTransaction for cust3, got %v", err)
	}
}

func TestRewardService_SourceError(t *testing.T) {
	boom := errors.New("connection refused")
	svc := NewRewardService(failingSource{err: boom}, quietLogger())

	if _, err := svc.GetAllRewards(context.Background()); !errors.Is(err, boom) {
		t.Errorf("expected wrapped source error, got %v", err)
	}
	_, err := svc.GetRewardsForAccount(context.Background(), "cust1")
	if !errors.Is(err, boom) || errors.Is(err, core.ErrInvalidTransaction) {
		t.Errorf("expected plain source error, got %v", err)
	}
}

func TestRewardService_BlankAccountLogsWarning(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Format: "text", Component: log.ComponentRewards, Output: &buf})
	svc := NewRewardService(memory.New(memory.SampleRecords()), logger)

	if _, err := svc.GetRewardsForAccount(context.Background(), " "); err != nil {
		t.Fatalf("error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{"level=WARN", "Invalid account id", "operation=get_account_rewards", "error_type=validation_error"} {
		if !strings.Contains(out, want) {
			t.Fatalf("log output %q missing %q", out, want)
		}
	}
}
