package stats

import (
	"context"
	"time"

	domain "github.com/deepfraud/deepfraud/internal/domain/analysis"
)

// Lister is the read side of the records facade.
type Lister interface {
	List(ctx context.Context) ([]*domain.Result, error)
}

// Snapshot is one poll tick: the current stats and chart series.
type Snapshot struct {
	Stats  [4]DashboardStat `json:"stats"`
	Series []ChartPoint     `json:"series"`
}

// Subscription is the handle returned by Subscribe. Consumers read from C
// and must call Stop when the view is torn down; the polling goroutine and
// the recurring timer stop with it.
type Subscription struct {
	C      <-chan Snapshot
	cancel context.CancelFunc
}

func (s *Subscription) Stop() { s.cancel() }

// Poller re-reads the full record list on a fixed interval for the lifetime
// of a subscription.
type Poller struct {
	Records   Lister
	Interval  time.Duration
	MaxPoints int
}

func NewPoller(records Lister, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Poller{Records: records, Interval: interval, MaxPoints: defaultMaxPoints}
}

// Subscribe starts a polling loop bound to ctx. The first snapshot is
// delivered immediately, then one per interval. Slow consumers miss ticks
// rather than blocking the loop.
func (p *Poller) Subscribe(ctx context.Context) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	ch := make(chan Snapshot, 1)

	go func() {
		ticker := time.NewTicker(p.Interval)
		defer ticker.Stop()
		defer close(ch)

		p.push(ctx, ch)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.push(ctx, ch)
			}
		}
	}()

	return &Subscription{C: ch, cancel: cancel}
}

func (p *Poller) push(ctx context.Context, ch chan Snapshot) {
	records, err := p.Records.List(ctx)
	if err != nil {
		// The facade already degrades to an empty list; a hard error here
		// means the context died mid-read. Skip the tick.
		return
	}
	snap := Snapshot{Stats: Summarize(records), Series: ChartSeries(records, p.MaxPoints)}
	select {
	case ch <- snap:
	default:
		// drop tick for slow consumer
	}
}
