package triage

import (
	"fmt"
	"strings"
)

// Urgency is the per-message triage outcome.
type Urgency string

const (
	UrgencyRoutine   Urgency = "routine"
	UrgencyUrgent    Urgency = "urgent"
	UrgencyEmergency Urgency = "emergency"
)

const (
	DefaultEmergencyThreshold = 0.85
	DefaultUrgentThreshold    = 0.55

	// DefaultSeverityWeight scales patient-reported severity (0-10) into
	// the combined score. At 0.8 a maximal self-report alone reaches the
	// urgent band but never the emergency band; emergencies require a
	// matched indicator phrase.
	DefaultSeverityWeight = 0.8

	// SeverityUnreported marks an absent severity self-report.
	SeverityUnreported = -1
)

// Signal is one matched emergency indicator.
type Signal struct {
	Category string `json:"category"`
	Phrase   string `json:"phrase"`
}

// Result is the classifier output for one message.
type Result struct {
	Urgency        Urgency  `json:"urgency"`
	MatchedSignals []Signal `json:"matched_signals"`
	Categories     []string `json:"categories"`
	Confidence     float64  `json:"confidence"`
}

// Classifier scores messages for urgency. Pure and stateless after
// construction; safe for concurrent use.
type Classifier struct {
	emergencyThreshold float64
	urgentThreshold    float64
	severityWeight     float64
}

func NewClassifier(emergencyThreshold, urgentThreshold, severityWeight float64) *Classifier {
	if emergencyThreshold <= 0 {
		emergencyThreshold = DefaultEmergencyThreshold
	}
	if urgentThreshold <= 0 {
		urgentThreshold = DefaultUrgentThreshold
	}
	if severityWeight <= 0 {
		severityWeight = DefaultSeverityWeight
	}

	return &Classifier{
		emergencyThreshold: emergencyThreshold,
		urgentThreshold:    urgentThreshold,
		severityWeight:     severityWeight,
	}
}

// Classify scores a message against the indicator phrase set and the
// reported severity. Pass SeverityUnreported when the patient gave no
// severity. Same input always yields the same Result.
//
// Scoring: each category's matched phrase weights are summed and capped,
// the signal score is the maximum category score (never an average, so
// one severe signal is not diluted by quiet categories), and reported
// severity contributes severityWeight*severity/10. The combined score is
// the maximum of the two.
func (c *Classifier) Classify(message string, severity int) Result {
	lower := strings.ToLower(message)

	var signals []Signal
	var categories []string
	var signalScore float64

	for _, cat := range indicatorCategories {
		var catScore float64
		matched := false
		for _, phrase := range cat.phrases {
			if strings.Contains(lower, phrase) {
				signals = append(signals, Signal{Category: cat.name, Phrase: phrase})
				catScore += cat.weight
				matched = true
			}
		}
		if !matched {
			continue
		}
		if catScore > cat.cap {
			catScore = cat.cap
		}
		categories = append(categories, cat.name)
		if catScore > signalScore {
			signalScore = catScore
		}
	}

	combined := signalScore
	if severity >= 0 {
		if severity > 10 {
			severity = 10
		}
		severityScore := c.severityWeight * float64(severity) / 10
		if severityScore > combined {
			combined = severityScore
		}
	}

	urgency := UrgencyRoutine
	switch {
	case combined >= c.emergencyThreshold:
		urgency = UrgencyEmergency
	case combined >= c.urgentThreshold:
		urgency = UrgencyUrgent
	}

	return Result{
		Urgency:        urgency,
		MatchedSignals: signals,
		Categories:     categories,
		Confidence:     combined,
	}
}

// Combine merges the keyword-based urgency with the model's stated
// urgency. The keyword result is never lowered; a model-reported
// emergency is only trusted outright above the confidence bar and is
// otherwise downgraded to urgent.
func (c *Classifier) Combine(keyword Urgency, modelUrgency string, modelConfidence float64) Urgency {
	model := ParseUrgency(modelUrgency)

	if keyword == UrgencyEmergency {
		return UrgencyEmergency
	}
	if model == UrgencyEmergency && modelConfidence > 0.7 {
		return UrgencyEmergency
	}
	if keyword == UrgencyUrgent {
		return UrgencyUrgent
	}
	if model == UrgencyEmergency || model == UrgencyUrgent {
		return UrgencyUrgent
	}
	return UrgencyRoutine
}

// ParseUrgency normalizes a free-form urgency string from a model
// response. Unrecognized values fall through to routine.
func ParseUrgency(s string) Urgency {
	lower := strings.ToLower(s)
	switch {
	case strings.Contains(lower, "emergency"):
		return UrgencyEmergency
	case strings.Contains(lower, "urgent"):
		return UrgencyUrgent
	default:
		return UrgencyRoutine
	}
}

// BodySystems tags a message with the body systems its wording touches.
// Falls back to general when nothing matches.
func BodySystems(message string) []string {
	lower := strings.ToLower(message)

	var affected []string
	for _, system := range bodySystemOrder {
		for _, keyword := range bodySystemKeywords[system] {
			if strings.Contains(lower, keyword) {
				affected = append(affected, system)
				break
			}
		}
	}

	if len(affected) == 0 {
		return []string{"general"}
	}
	return affected
}

// EmergencyWarning renders the fixed-format emergency response text.
func EmergencyWarning(signals []Signal) string {
	phrases := make([]string, 0, len(signals))
	for _, s := range signals {
		phrases = append(phrases, s.Phrase)
	}

	var b strings.Builder
	b.WriteString("MEDICAL EMERGENCY DETECTED\n\n")
	b.WriteString("Based on your symptoms, this appears to be a medical emergency.\n\n")
	b.WriteString("IMMEDIATE ACTION REQUIRED:\n")
	b.WriteString("- Call 911 or go to the nearest emergency room immediately\n")
	b.WriteString("- Do not drive yourself if possible\n")
	b.WriteString("- Stay calm and follow emergency operator instructions\n\n")
	fmt.Fprintf(&b, "Emergency indicators detected: %s\n\n", strings.Join(phrases, ", "))
	b.WriteString("This system cannot replace emergency medical care. Please seek immediate professional help.")
	return b.String()
}

// UrgentWarning renders the prompt-care advisory for urgent results.
func UrgentWarning(signals []Signal) string {
	phrases := make([]string, 0, len(signals))
	for _, s := range signals {
		phrases = append(phrases, s.Phrase)
	}

	var b strings.Builder
	b.WriteString("URGENT MEDICAL ATTENTION NEEDED\n\n")
	b.WriteString("Your symptoms require prompt medical evaluation.\n\n")
	b.WriteString("RECOMMENDED ACTION:\n")
	b.WriteString("- Contact your doctor immediately or visit urgent care\n")
	b.WriteString("- If symptoms worsen, go to the emergency room\n")
	b.WriteString("- Monitor your condition closely\n\n")
	if len(phrases) > 0 {
		fmt.Fprintf(&b, "Urgent indicators detected: %s\n\n", strings.Join(phrases, ", "))
	}
	b.WriteString("Please consult with a healthcare professional as soon as possible.")
	return b.String()
}
