package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/deepfraud/deepfraud/internal/domain/analysis"
)

// GetSystemPrompt provides strict directions for the forensic verdict.
// The output shape is enforced separately through the response schema.
func GetSystemPrompt() string {
	return `You are DeepFraud, a world-class forensic AI expert specializing in deepfake detection, synthetic identity fraud, and digital manipulation analysis.

Analyze the provided media artifact (Image, Audio, Video, or Text).

For Image/Video/Audio:
1. Look for visual artifacts (warping, inconsistencies in lighting, unnatural eye blinking, lip-sync errors).
2. Look for audio artifacts (robotic intonation, background noise gating inconsistencies, spectral anomalies).
3. Look for metadata or content context that suggests synthetic generation.

For Text:
1. Analyze for patterns typical of LLM generation (excessive balance, lack of perplexity, repetitive sentence structures).
2. Check for phishing indicators or social engineering tactics.
3. Verify factual consistency (hallucination checks).

Also perform a Liveness Verification assessment: is the subject a real, live human present at capture time, or a reproduction (screen, mask, deepfake)? For Text, liveness means "Human Written" vs "AI Generated".

Respond with one JSON object only:
- score: 0-100, where 0 is perfectly authentic and 100 is definitely fraud/deepfake/AI-generated
- verdict: "REAL" | "FAKE" | "SUSPICIOUS"
- reasoning: concise technical explanation of the findings (max 2 sentences)
- indicators: array of short strings naming specific detected anomalies
- liveness: {score: 0-100 where 100 is definitely a live real person/human author, analysis: brief explanation of liveness signs}

Be strict.`
}

// GetUserPrompt builds the text part that accompanies the media content.
func GetUserPrompt(in analysis.Input) string {
	if in.MediaType == analysis.MediaText {
		return fmt.Sprintf("Analyze this text content:\n\n%s", in.Text)
	}
	return fmt.Sprintf("Analyze the attached %s artifact and respond with the JSON verdict.", in.MediaType)
}

// VerdictSchema is the required response schema. A response failing to parse
// against it is a gateway failure.
var VerdictSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "score": {"type": "number"},
    "verdict": {"type": "string"},
    "reasoning": {"type": "string"},
    "indicators": {"type": "array", "items": {"type": "string"}},
    "liveness": {
      "type": "object",
      "properties": {
        "score": {"type": "number"},
        "analysis": {"type": "string"}
      },
      "required": ["score", "analysis"],
      "additionalProperties": false
    }
  },
  "required": ["score", "verdict", "reasoning", "indicators", "liveness"],
  "additionalProperties": false
}`)

// Verdict mirrors the schema above.
type Verdict struct {
	Score      float64  `json:"score"`
	Verdict    string   `json:"verdict"`
	Reasoning  string   `json:"reasoning"`
	Indicators []string `json:"indicators"`
	Liveness   struct {
		Score    float64 `json:"score"`
		Analysis string  `json:"analysis"`
	} `json:"liveness"`
}

// ParseVerdict decodes the raw model output. Models occasionally wrap JSON in
// code fences despite instructions; strip them before decoding.
func ParseVerdict(raw string) (*Verdict, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty model response")
	}

	var v Verdict
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, fmt.Errorf("decoding verdict: %w", err)
	}

	switch analysis.Verdict(v.Verdict) {
	case analysis.VerdictReal, analysis.VerdictFake, analysis.VerdictSuspicious:
	default:
		return nil, fmt.Errorf("unexpected verdict value: %q", v.Verdict)
	}
	return &v, nil
}
