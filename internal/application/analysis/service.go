package analysis

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	domain "github.com/deepfraud/deepfraud/internal/domain/analysis"
	"github.com/deepfraud/deepfraud/internal/infra/ai/prompt"
)

// Clock abstraction so timestamps are testable
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Service is the analysis gateway: it wraps the external inference call and
// turns raw input into a structured verdict. It fails open: every failure
// path returns a well-formed sentinel result with verdict UNKNOWN instead of
// an error, so callers always hold a renderable state.
type Service struct {
	Client    domain.AIClient
	Artifacts domain.ArtifactStore // optional evidence archive
	Clock     Clock
	Log       *zap.Logger
}

func NewService(client domain.AIClient, artifacts domain.ArtifactStore, clock Clock, log *zap.Logger) *Service {
	if clock == nil {
		clock = SystemClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{Client: client, Artifacts: artifacts, Clock: clock, Log: log}
}

// Analyze runs one inference request and normalizes the response.
// It never returns an error past this boundary.
func (s *Service) Analyze(ctx context.Context, in domain.Input) *domain.Result {
	raw, err := s.Client.Analyze(ctx, in)
	if err != nil {
		s.Log.Warn("analysis gateway failure", zap.String("media_type", string(in.MediaType)), zap.Error(err))
		return s.sentinel(in, err)
	}

	v, err := prompt.ParseVerdict(raw)
	if err != nil {
		s.Log.Warn("analysis response failed schema parse", zap.Error(err))
		return s.sentinel(in, err)
	}

	score := domain.ClampScore(int(math.Round(v.Score)))
	indicators := v.Indicators
	if indicators == nil {
		indicators = []string{}
	}

	return &domain.Result{
		Score:      score,
		Verdict:    domain.Verdict(v.Verdict),
		RiskLevel:  domain.RiskLevelFor(score),
		Reasoning:  v.Reasoning,
		Indicators: indicators,
		Timestamp:  s.Clock.Now().UTC(),
		MediaType:  in.MediaType,
		FileName:   in.FileName,
		Liveness: &domain.Liveness{
			Score:    domain.ClampScore(int(math.Round(v.Liveness.Score))),
			Analysis: v.Liveness.Analysis,
		},
		ArtifactURL: s.archive(ctx, in),
	}
}

// sentinel builds the fail-open result: score 0, UNKNOWN verdict, LOW risk,
// a single "API Error" indicator.
func (s *Service) sentinel(in domain.Input, cause error) *domain.Result {
	return &domain.Result{
		Score:      0,
		Verdict:    domain.VerdictUnknown,
		RiskLevel:  domain.RiskLevelFor(0),
		Reasoning:  fmt.Sprintf("Analysis failed due to API connection or format error: %v", cause),
		Indicators: []string{"API Error"},
		Timestamp:  s.Clock.Now().UTC(),
		MediaType:  in.MediaType,
		FileName:   in.FileName,
		Liveness: &domain.Liveness{
			Score:    0,
			Analysis: "Could not verify liveness due to error.",
		},
	}
}

// archive uploads the submitted media as audit evidence when an artifact
// store is configured. Failures are logged and ignored; evidence retention
// never blocks a verdict.
func (s *Service) archive(ctx context.Context, in domain.Input) string {
	if s.Artifacts == nil || len(in.Data) == 0 {
		return ""
	}
	key := fmt.Sprintf("%s/%d-%s", in.MediaType, s.Clock.Now().UnixMilli(), safeName(in.FileName))
	url, err := s.Artifacts.Upload(ctx, key, in.DefaultMIME(), in.Data)
	if err != nil {
		s.Log.Warn("evidence upload failed", zap.String("key", key), zap.Error(err))
		return ""
	}
	return url
}

func safeName(name string) string {
	if name == "" {
		return "upload"
	}
	return name
}
