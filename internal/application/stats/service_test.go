package stats

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/deepfraud/deepfraud/internal/domain/analysis"
)

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	assert.Equal(t, 0, s[0].Value)
	assert.Equal(t, 0, s[1].Value)
	assert.Equal(t, "0%", s[2].Value)
	assert.Equal(t, 0, s[3].Value)
}

func TestSummarizeCounters(t *testing.T) {
	records := []*domain.Result{
		{Score: 10, Verdict: domain.VerdictReal},
		{Score: 80, Verdict: domain.VerdictSuspicious},
		{Score: 95, Verdict: domain.VerdictFake},
	}
	s := Summarize(records)
	assert.Equal(t, 3, s[0].Value, "total")
	assert.Equal(t, 2, s[1].Value, "score > 70")
	assert.Equal(t, "62%", s[2].Value, "rounded average of 10,80,95")
	assert.Equal(t, 1, s[3].Value, "verdict FAKE")
	assert.Equal(t, "up", s[1].Trend)
}

func TestChartSeriesWindowAndOrder(t *testing.T) {
	base := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	// newest first, like the facade returns them
	var records []*domain.Result
	for i := 24; i >= 0; i-- {
		records = append(records, &domain.Result{
			Score:     i,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Verdict:   domain.VerdictReal,
			MediaType: domain.MediaImage,
		})
	}

	series := ChartSeries(records, 20)
	require.Len(t, series, 20)
	// most recent 20 of 25, ascending
	assert.Equal(t, 5, series[0].Value)
	assert.Equal(t, 24, series[19].Value)
	for i := 1; i < len(series); i++ {
		assert.False(t, series[i].Time.Before(series[i-1].Time), "series must ascend")
	}
}

func TestChartSeriesDefaultsMaxPoints(t *testing.T) {
	series := ChartSeries([]*domain.Result{{Timestamp: time.Now()}}, 0)
	assert.Len(t, series, 1)
}

type staticLister struct{ records []*domain.Result }

func (l staticLister) List(ctx context.Context) ([]*domain.Result, error) {
	return l.records, nil
}

func TestPollerDeliversAndStops(t *testing.T) {
	p := NewPoller(staticLister{records: []*domain.Result{{Score: 42}}}, 10*time.Millisecond)

	sub := p.Subscribe(context.Background())
	select {
	case snap := <-sub.C:
		assert.Equal(t, 1, snap.Stats[0].Value)
	case <-time.After(time.Second):
		t.Fatal("no snapshot delivered")
	}

	sub.Stop()
	// channel closes once the loop winds down
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-sub.C:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("subscription channel never closed after Stop")
		}
	}
}
