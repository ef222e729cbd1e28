package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"rewards/internal/core"
	"rewards/internal/log"
	"rewards/internal/metrics"
	"rewards/internal/records"
)

// RewardService answers reward queries from a record source.
// Every call reads a fresh snapshot; nothing is cached between calls.
type RewardService struct {
	source records.Source
	logger *log.StructuredLogger
}

func NewRewardService(source records.Source, logger *log.Logger) *RewardService {
	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentRewards)
	}
	return &RewardService{
		source: source,
		logger: log.NewStructuredLogger(logger),
	}
}

// GetAllRewards returns one summary per account, ordered by account id.
// An empty source yields an empty, non-nil slice.
func (s *RewardService) GetAllRewards(ctx context.Context) ([]core.AccountRewardSummary, error) {
	acc, err := s.aggregate(ctx, log.OpGetAll, core.AllAccounts())
	if err != nil {
		return nil, err
	}

	summaries := core.AssembleAll(acc)
	var points int64
	for _, sum := range summaries {
		points += sum.TotalPoints
		s.logger.LogRewardsComputed(ctx, log.OpGetAll, sum.AccountID, sum.MonthlyPoints.Months(), sum.MonthlyPoints, sum.TotalPoints)
	}
	metrics.PointsAwarded.Add(float64(points))
	metrics.Aggregations.WithLabelValues(log.OpGetAll, metrics.OutcomeOK).Inc()

	return summaries, nil
}

// GetRewardsForAccount returns the summary of one account. Blank and unknown
// ids are not errors: they produce the empty summary.
func (s *RewardService) GetRewardsForAccount(ctx context.Context, accountID string) (core.AccountRewardSummary, error) {
	if strings.TrimSpace(accountID) == "" {
		s.logger.LogWarning(ctx, "Invalid account id, returning empty rewards", log.ComponentRewards, log.OpGetAccount,
			log.LogFields{log.FieldAccountID: accountID, log.FieldErrorType: log.ErrorTypeValidation})
		metrics.Aggregations.WithLabelValues(log.OpGetAccount, metrics.OutcomeOK).Inc()
		return core.EmptySummary(""), nil
	}

	acc, err := s.aggregate(ctx, log.OpGetAccount, core.ForAccount(accountID))
	if err != nil {
		return core.AccountRewardSummary{}, err
	}

	sum := core.AssembleOne(acc, accountID)
	if !sum.IsEmpty() {
		s.logger.LogRewardsComputed(ctx, log.OpGetAccount, sum.AccountID, sum.MonthlyPoints.Months(), sum.MonthlyPoints, sum.TotalPoints)
	}
	metrics.PointsAwarded.Add(float64(sum.TotalPoints))
	metrics.Aggregations.WithLabelValues(log.OpGetAccount, metrics.OutcomeOK).Inc()

	return sum, nil
}

func (s *RewardService) aggregate(ctx context.Context, op string, filter core.Filter) (core.Accumulation, error) {
	recs, err := s.source.Records(ctx, filter)
	if err != nil {
		metrics.Aggregations.WithLabelValues(op, metrics.OutcomeError).Inc()
		s.logger.LogError(ctx, "Failed to load purchase records", err, log.ComponentRewards, op, nil)
		return nil, fmt.Errorf("load purchase records: %w", err)
	}

	acc, err := core.Aggregate(recs, filter)
	if err != nil {
		metrics.Aggregations.WithLabelValues(op, metrics.OutcomeInvalid).Inc()
		metrics.InvalidTransactions.Inc()
		fields := log.NewFields()
		var invalid *core.InvalidTransactionError
		if errors.As(err, &invalid) {
			fields[log.FieldAccountID] = invalid.Record.AccountID
			fields[log.FieldErrorType] = log.ErrorTypeValidation
		}
		s.logger.LogError(ctx, "Aggregation aborted", err, log.ComponentRewards, op, fields)
		return nil, err
	}
	return acc, nil
}
