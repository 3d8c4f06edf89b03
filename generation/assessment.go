package generation

import (
	"github.com/carebridge-ai/symptom-core/triage"
)

// Disclaimer is attached to every assessment verbatim.
const Disclaimer = "This assessment is generated for informational purposes only and is not a medical diagnosis. Always consult a qualified healthcare professional about your symptoms."

// ProbableCondition is one ranked diagnosis candidate. Citations must
// be traceable to retrieved knowledge entries.
type ProbableCondition struct {
	Name               string   `json:"name"`
	Probability        float64  `json:"probability"`
	Citations          []string `json:"citations"`
	RecommendedActions []string `json:"recommended_actions"`
}

// Assessment is the structured response for one conversation turn.
// Built fresh per turn and never mutated after being persisted.
type Assessment struct {
	Urgency             triage.Urgency      `json:"urgency"`
	EmergencyWarning    string              `json:"emergency_warning,omitempty"`
	ProbableConditions  []ProbableCondition `json:"probable_conditions"`
	Confidence          float64             `json:"confidence"`
	ClarifyingQuestions []string            `json:"clarifying_questions"`
	Reasoning           string              `json:"reasoning"`
	Recommendations     []string            `json:"recommendations"`
	BodySystemsAffected []string            `json:"body_systems_affected"`
	Degraded            bool                `json:"degraded,omitempty"`
	Disclaimer          string              `json:"disclaimer"`
}

// EmergencyAssessment is the fixed-format short-circuit response. No
// conditions are listed and no questions are asked; the only message
// is to seek emergency care.
func EmergencyAssessment(signals []triage.Signal, bodySystems []string) Assessment {
	return Assessment{
		Urgency:             triage.UrgencyEmergency,
		EmergencyWarning:    triage.EmergencyWarning(signals),
		ProbableConditions:  []ProbableCondition{},
		Confidence:          1.0,
		ClarifyingQuestions: []string{},
		Reasoning:           "Emergency indicator phrases were detected in the reported symptoms.",
		Recommendations:     []string{"Call 911 or go to the nearest emergency room immediately"},
		BodySystemsAffected: bodySystems,
		Disclaimer:          Disclaimer,
	}
}

// SafeFallbackAssessment is returned when no provider tier produced a
// usable assessment. It is deliberately conservative: urgent, no
// fabricated conditions, a generic recommendation to seek care.
func SafeFallbackAssessment(bodySystems []string) Assessment {
	return Assessment{
		Urgency:             triage.UrgencyUrgent,
		ProbableConditions:  []ProbableCondition{},
		Confidence:          0.3,
		ClarifyingQuestions: []string{},
		Reasoning:           "An automated assessment could not be produced for this message.",
		Recommendations: []string{
			"Contact your doctor or visit urgent care to have your symptoms evaluated",
			"If symptoms worsen, go to the emergency room",
		},
		BodySystemsAffected: bodySystems,
		Degraded:            true,
		Disclaimer:          Disclaimer,
	}
}
