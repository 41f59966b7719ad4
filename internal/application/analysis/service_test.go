package analysis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/deepfraud/deepfraud/internal/domain/analysis"
)

type fakeClient struct {
	raw string
	err error
}

func (f *fakeClient) Analyze(ctx context.Context, in domain.Input) (string, error) {
	return f.raw, f.err
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func TestAnalyzeNormalizesVerdict(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	svc := NewService(&fakeClient{raw: `{"score": 87.4, "verdict": "FAKE",
		"reasoning": "Lip-sync drift.", "indicators": ["Lip-sync errors"],
		"liveness": {"score": 10, "analysis": "No micro-movements."}}`}, nil, fixedClock{now}, nil)

	res := svc.Analyze(context.Background(), domain.Input{MediaType: domain.MediaVideo, FileName: "clip.mp4"})
	require.NotNil(t, res)
	assert.Equal(t, 87, res.Score)
	assert.Equal(t, domain.VerdictFake, res.Verdict)
	assert.Equal(t, domain.RiskHigh, res.RiskLevel)
	assert.Equal(t, now, res.Timestamp)
	assert.Equal(t, "clip.mp4", res.FileName)
	require.NotNil(t, res.Liveness)
	assert.Equal(t, 10, res.Liveness.Score)
}

func TestAnalyzeRiskLevelAlwaysMatchesScore(t *testing.T) {
	for _, raw := range []string{
		`{"score": 30, "verdict": "REAL", "reasoning": "", "indicators": [], "liveness": {"score": 90, "analysis": ""}}`,
		`{"score": 31, "verdict": "SUSPICIOUS", "reasoning": "", "indicators": [], "liveness": {"score": 50, "analysis": ""}}`,
		`{"score": 91, "verdict": "FAKE", "reasoning": "", "indicators": [], "liveness": {"score": 1, "analysis": ""}}`,
	} {
		svc := NewService(&fakeClient{raw: raw}, nil, nil, nil)
		res := svc.Analyze(context.Background(), domain.Input{MediaType: domain.MediaImage})
		assert.Equal(t, domain.RiskLevelFor(res.Score), res.RiskLevel)
	}
}

func TestAnalyzeFailureYieldsSentinel(t *testing.T) {
	svc := NewService(&fakeClient{err: errors.New("connection refused")}, nil, nil, nil)

	res := svc.Analyze(context.Background(), domain.Input{MediaType: domain.MediaImage})
	require.NotNil(t, res)
	assert.Equal(t, 0, res.Score)
	assert.Equal(t, domain.VerdictUnknown, res.Verdict)
	assert.Equal(t, domain.RiskLow, res.RiskLevel)
	assert.Equal(t, []string{"API Error"}, res.Indicators)
	require.NotNil(t, res.Liveness)
	assert.Equal(t, 0, res.Liveness.Score)
}

func TestAnalyzeMalformedResponseYieldsSentinel(t *testing.T) {
	svc := NewService(&fakeClient{raw: "the model rambled instead of emitting JSON"}, nil, nil, nil)

	res := svc.Analyze(context.Background(), domain.Input{MediaType: domain.MediaText, Text: "hello"})
	assert.Equal(t, domain.VerdictUnknown, res.Verdict)
	assert.Equal(t, []string{"API Error"}, res.Indicators)
}

func TestAnalyzeClampsOutOfRangeScores(t *testing.T) {
	svc := NewService(&fakeClient{raw: `{"score": 140, "verdict": "FAKE", "reasoning": "", "indicators": [], "liveness": {"score": -3, "analysis": ""}}`}, nil, nil, nil)

	res := svc.Analyze(context.Background(), domain.Input{MediaType: domain.MediaImage})
	assert.Equal(t, 100, res.Score)
	assert.Equal(t, domain.RiskCritical, res.RiskLevel)
	assert.Equal(t, 0, res.Liveness.Score)
}
