package stats

import (
	"fmt"
	"math"
	"sort"
	"time"

	domain "github.com/deepfraud/deepfraud/internal/domain/analysis"
)

// DashboardStat is derived, never persisted: recomputed from the full record
// snapshot on every read.
type DashboardStat struct {
	Label  string `json:"label"`
	Value  any    `json:"value"`
	Change int    `json:"change"`
	Trend  string `json:"trend"`
}

// ChartPoint is one entry of the time-ordered dashboard series.
type ChartPoint struct {
	Time      time.Time        `json:"time"`
	Value     int              `json:"value"`
	Verdict   domain.Verdict   `json:"verdict"`
	MediaType domain.MediaType `json:"mediaType"`
}

const defaultMaxPoints = 20

// Summarize computes the four dashboard counters: total verifications,
// high-risk alerts (score > 70), average score rounded to the nearest
// integer (0 when empty), and fraud blocked (verdict FAKE).
func Summarize(records []*domain.Result) [4]DashboardStat {
	total := len(records)
	var threats, blocked, sum int
	for _, r := range records {
		if r.Score > 70 {
			threats++
		}
		if r.Verdict == domain.VerdictFake {
			blocked++
		}
		sum += r.Score
	}

	avg := 0
	if total > 0 {
		avg = int(math.Round(float64(sum) / float64(total)))
	}

	threatTrend := "neutral"
	if threats > 0 {
		threatTrend = "up"
	}

	return [4]DashboardStat{
		{Label: "Total Verifications", Value: total, Trend: "up"},
		{Label: "High Risk Alerts", Value: threats, Trend: threatTrend},
		{Label: "Avg Risk Score", Value: fmt.Sprintf("%d%%", avg), Trend: "neutral"},
		{Label: "Fraud Blocked", Value: blocked, Trend: "up"},
	}
}

// ChartSeries sorts the snapshot ascending by timestamp and keeps the last
// maxPoints entries; older points are dropped, not aggregated.
func ChartSeries(records []*domain.Result, maxPoints int) []ChartPoint {
	if maxPoints <= 0 {
		maxPoints = defaultMaxPoints
	}

	sorted := make([]*domain.Result, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	if len(sorted) > maxPoints {
		sorted = sorted[len(sorted)-maxPoints:]
	}

	out := make([]ChartPoint, 0, len(sorted))
	for _, r := range sorted {
		out = append(out, ChartPoint{
			Time:      r.Timestamp,
			Value:     r.Score,
			Verdict:   r.Verdict,
			MediaType: r.MediaType,
		})
	}
	return out
}
