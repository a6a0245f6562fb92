package ledger

import (
	"context"
	"fmt"

	"github.com/powerpay/backend/internal/models"
	"github.com/powerpay/backend/internal/settlement"
)

// DistributionResult summarizes a multi-draw probability test run.
type DistributionResult struct {
	TotalIterations int      `json:"totalIterations"`
	Executed        int      `json:"executed"`
	Skipped         int      `json:"skipped"`
	ExecutionRate   float64  `json:"executionRate"`
	ExpectedRate    float64  `json:"expectedRate"`
	TotalPaid       uint64   `json:"totalPaid"`
	Threshold       uint64   `json:"threshold"`
	RandomValues    []uint64 `json:"randomValues"`
}

// RunDistribution exercises the settlement rule repeatedly against one
// channel so the realized execution rate can be compared with the nominal
// threshold/10000 probability. Before each draw the accumulated intent is
// topped up by amount if it has fallen below it; an executed draw pays out
// amount rather than the whole accumulated intent.
//
// This is a test harness, not a settlement path: it writes
// test_payment_executed / test_payment_skipped records and is only reachable
// through the test-gated service route. The channel record is persisted once,
// after all iterations.
func (l *Ledger) RunDistribution(ctx context.Context, channelID string, iterations int, threshold, amount uint64) (*DistributionResult, error) {
	if iterations <= 0 || iterations > MaxDistributionIterations {
		return nil, fmt.Errorf("%w: iterations must be between 1 and %d", ErrInvalidParameters, MaxDistributionIterations)
	}
	if amount < 1 {
		return nil, fmt.Errorf("%w: amount must be at least 1", ErrInvalidParameters)
	}

	unlock := l.lockChannel(channelID)
	defer unlock()

	ch, err := l.load(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if ch.Status == models.StatusClosed {
		return nil, ErrChannelClosed
	}

	result := &DistributionResult{
		TotalIterations: iterations,
		ExpectedRate:    settlement.ExpectedRate(threshold),
		Threshold:       threshold,
		RandomValues:    make([]uint64, 0, iterations),
	}

	for i := 0; i < iterations; i++ {
		if ch.AccumulatedIntent < amount {
			if amount > ch.Remaining() {
				return nil, ErrInsufficientCapacity
			}
			ch.AccumulatedIntent += amount
		}

		seed, err := l.drawSeed(nil)
		if err != nil {
			return nil, err
		}
		outcome := settlement.Evaluate(seed, threshold)
		result.RandomValues = append(result.RandomValues, outcome.RandomValue)

		now := l.nowFn()
		rec := models.TransactionRecord{
			Amount:      amount,
			RandomSeed:  &seed,
			RandomValue: &outcome.RandomValue,
			Threshold:   &threshold,
			Iteration:   i + 1,
			Timestamp:   now.Unix(),
		}
		if outcome.Executed {
			result.Executed++
			result.TotalPaid += amount
			ch.PaidAmount += amount
			ch.AccumulatedIntent -= amount
			rec.Kind = models.KindTestPaymentExecuted
		} else {
			result.Skipped++
			rec.Kind = models.KindTestPaymentSkipped
		}
		ch.Transactions = append(ch.Transactions, rec)
	}

	result.ExecutionRate = float64(result.Executed) / float64(iterations)

	if err := l.save(ctx, ch); err != nil {
		return nil, err
	}
	return result, nil
}
