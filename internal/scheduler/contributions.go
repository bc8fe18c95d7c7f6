package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bngy/siminvest/internal/investment"
)

//go:generate mockgen -source=contributions.go -destination=contributions_mock.go -package=scheduler

// Investments is the slice of the position lifecycle manager the
// contribution job drives. Keeping fund movement behind it means the
// scheduler shares a single code path with request-serving callers.
type Investments interface {
	ListConfirmed(ctx context.Context) ([]*investment.Position, error)
	ApplyContribution(ctx context.Context, id uuid.UUID, now time.Time) error
}

// ContributionJob pays due periodic contributions, at most one period per
// position per run. Overdue positions catch up across consecutive runs
// rather than being charged several months at once.
type ContributionJob struct {
	investments Investments
	timeout     time.Duration // bound per position, so one stuck write cannot stall the batch
	now         func() time.Time
}

func NewContributionJob(investments Investments, timeout time.Duration) *ContributionJob {
	return &ContributionJob{
		investments: investments,
		timeout:     timeout,
		now:         time.Now,
	}
}

func (j *ContributionJob) Name() string { return "periodic-contributions" }

// Run processes every confirmed position with a positive monthly
// contribution. Each position is its own unit of work: a failure or skip on
// one never aborts the rest of the batch, and a position appearing twice in
// the listing is charged at most once.
func (j *ContributionJob) Run() error {
	ctx := context.Background()
	now := j.now()

	positions, err := j.investments.ListConfirmed(ctx)
	if err != nil {
		return fmt.Errorf("listing confirmed positions: %w", err)
	}

	seen := make(map[uuid.UUID]struct{}, len(positions))

	for _, p := range positions {
		if !p.MonthlyContribution.IsPositive() {
			continue
		}

		if _, dup := seen[p.ID]; dup {
			continue
		}

		seen[p.ID] = struct{}{}

		j.process(ctx, p.ID, now)
	}

	return nil
}

func (j *ContributionJob) process(ctx context.Context, id uuid.UUID, now time.Time) {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	err := j.investments.ApplyContribution(ctx, id, now)

	switch {
	case err == nil:
		slog.Info("periodic contribution applied", "position", id)
	case errors.Is(err, investment.ErrContributionNotDue):
		// Already current for this period.
	case errors.Is(err, investment.ErrInsufficientFunds):
		slog.Warn("skipping underfunded position", "position", id)
	default:
		slog.Error("applying contribution failed", "position", id, "error", err)
	}
}
