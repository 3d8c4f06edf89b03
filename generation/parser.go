package generation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/carebridge-ai/symptom-core/corpus"
	"github.com/carebridge-ai/symptom-core/triage"
)

// modelAssessment is the raw JSON shape the provider is asked to emit.
type modelAssessment struct {
	Urgency             string              `json:"urgency"`
	ProbableConditions  []ProbableCondition `json:"probable_conditions"`
	Confidence          float64             `json:"confidence"`
	ClarifyingQuestions []string            `json:"clarifying_questions"`
	Reasoning           string              `json:"reasoning"`
	Recommendations     []string            `json:"recommendations"`
	BodySystemsAffected []string            `json:"body_systems_affected"`
}

// extractJSON pulls the JSON document out of a model response that may
// wrap it in a markdown code fence or surrounding prose.
func extractJSON(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)

	if idx := strings.Index(trimmed, "```"); idx >= 0 {
		rest := trimmed[idx+3:]
		rest = strings.TrimPrefix(rest, "json")
		if end := strings.Index(rest, "```"); end >= 0 {
			trimmed = strings.TrimSpace(rest[:end])
		}
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start < 0 || end <= start {
		return "", fmt.Errorf("no JSON object in model output")
	}
	return trimmed[start : end+1], nil
}

// parseAssessment decodes and sanitizes a model response. Conditions
// without a citation traceable to a retrieved entry are dropped rather
// than surfaced as evidence-based claims.
func parseAssessment(raw string, retrieved []corpus.ScoredEntry) (Assessment, error) {
	doc, err := extractJSON(raw)
	if err != nil {
		return Assessment{}, err
	}

	var parsed modelAssessment
	if err := json.Unmarshal([]byte(doc), &parsed); err != nil {
		return Assessment{}, fmt.Errorf("failed to decode model assessment: %w", err)
	}
	if parsed.Urgency == "" {
		return Assessment{}, fmt.Errorf("model assessment missing urgency")
	}

	conditions := make([]ProbableCondition, 0, len(parsed.ProbableConditions))
	for _, cond := range parsed.ProbableConditions {
		cited := citedBy(cond.Citations, retrieved)
		if len(cited) == 0 {
			continue
		}
		cond.Citations = cited
		cond.Probability = clamp01(cond.Probability)
		conditions = append(conditions, cond)
	}

	assessment := Assessment{
		Urgency:             triage.ParseUrgency(parsed.Urgency),
		ProbableConditions:  conditions,
		Confidence:          clamp01(parsed.Confidence),
		ClarifyingQuestions: parsed.ClarifyingQuestions,
		Reasoning:           parsed.Reasoning,
		Recommendations:     parsed.Recommendations,
		BodySystemsAffected: parsed.BodySystemsAffected,
		Disclaimer:          Disclaimer,
	}
	if assessment.ClarifyingQuestions == nil {
		assessment.ClarifyingQuestions = []string{}
	}
	return assessment, nil
}

// citedBy keeps only the citations that match a retrieved entry.
func citedBy(citations []string, retrieved []corpus.ScoredEntry) []string {
	kept := make([]string, 0, len(citations))
	for _, c := range citations {
		for _, entry := range retrieved {
			if citationMatches(c, entry.Entry) {
				kept = append(kept, c)
				break
			}
		}
	}
	return kept
}

func citationMatches(citation string, entry corpus.KnowledgeEntry) bool {
	c := strings.ToLower(strings.TrimSpace(citation))
	if c == "" {
		return false
	}
	source := strings.ToLower(entry.Citation)
	return strings.Contains(source, c) || strings.Contains(c, source)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
