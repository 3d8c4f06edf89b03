package triage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestClassifier() *Classifier {
	return NewClassifier(DefaultEmergencyThreshold, DefaultUrgentThreshold, DefaultSeverityWeight)
}

func TestClassify_CardiacEmergency(t *testing.T) {
	c := newTestClassifier()

	result := c.Classify("I have severe chest pain radiating to my left arm and I'm sweating", SeverityUnreported)

	assert.Equal(t, UrgencyEmergency, result.Urgency)
	assert.Contains(t, result.Categories, "cardiac")
	assert.GreaterOrEqual(t, result.Confidence, DefaultEmergencyThreshold)

	found := false
	for _, s := range result.MatchedSignals {
		if s.Category == "cardiac" {
			found = true
		}
	}
	assert.True(t, found, "expected a cardiac signal in %v", result.MatchedSignals)
}

func TestClassify_EmergencyPhrasesAcrossCategories(t *testing.T) {
	c := newTestClassifier()

	cases := map[string]string{
		"severe allergic reaction after a bee sting":   "allergic",
		"he is unresponsive and won't wake up":         "neurological",
		"I can't breathe at all":                       "respiratory",
		"there is heavy bleeding from the wound":       "trauma",
		"I want to end my life":                        "psychiatric",
	}

	for message, category := range cases {
		result := c.Classify(message, SeverityUnreported)
		assert.Equal(t, UrgencyEmergency, result.Urgency, "message: %s", message)
		assert.Contains(t, result.Categories, category, "message: %s", message)
	}
}

func TestClassify_UrgentTierNeverEscalatesToEmergency(t *testing.T) {
	c := newTestClassifier()

	// Several urgent-tier matches at once stay urgent.
	result := c.Classify("severe pain, persistent vomiting, blood in stool and a spreading rash", SeverityUnreported)

	assert.Equal(t, UrgencyUrgent, result.Urgency)
	assert.NotEmpty(t, result.MatchedSignals)
}

func TestClassify_RoutineWithLowSeverity(t *testing.T) {
	c := newTestClassifier()

	for severity := 0; severity <= 3; severity++ {
		result := c.Classify("I've had a mild headache for two days", severity)
		assert.NotEqual(t, UrgencyEmergency, result.Urgency, "severity %d", severity)
		assert.Equal(t, UrgencyRoutine, result.Urgency, "severity %d", severity)
	}
}

func TestClassify_SeverityAloneReachesUrgentNotEmergency(t *testing.T) {
	c := newTestClassifier()

	result := c.Classify("it just hurts a lot", 10)
	assert.Equal(t, UrgencyUrgent, result.Urgency)
	assert.Empty(t, result.MatchedSignals)
}

func TestClassify_SeverityUnreported(t *testing.T) {
	c := newTestClassifier()

	result := c.Classify("feeling a bit off today", SeverityUnreported)
	assert.Equal(t, UrgencyRoutine, result.Urgency)
	assert.Zero(t, result.Confidence)
}

func TestClassify_Deterministic(t *testing.T) {
	c := newTestClassifier()
	message := "crushing chest pain and difficulty breathing"

	first := c.Classify(message, 7)
	second := c.Classify(message, 7)

	assert.Equal(t, first, second)
}

func TestClassify_MaxCategoryNotAverage(t *testing.T) {
	c := newTestClassifier()

	// One emergency category plus low-signal text must not dilute below
	// the emergency threshold.
	result := c.Classify("anaphylaxis, otherwise feeling tired and a little stressed", SeverityUnreported)
	assert.Equal(t, UrgencyEmergency, result.Urgency)
}

func TestCombine(t *testing.T) {
	c := newTestClassifier()

	assert.Equal(t, UrgencyEmergency, c.Combine(UrgencyEmergency, "routine", 0.2))
	assert.Equal(t, UrgencyEmergency, c.Combine(UrgencyRoutine, "emergency", 0.9))
	assert.Equal(t, UrgencyUrgent, c.Combine(UrgencyRoutine, "emergency", 0.5))
	assert.Equal(t, UrgencyUrgent, c.Combine(UrgencyUrgent, "routine", 0.9))
	assert.Equal(t, UrgencyUrgent, c.Combine(UrgencyRoutine, "urgent", 0.4))
	assert.Equal(t, UrgencyRoutine, c.Combine(UrgencyRoutine, "routine", 0.9))
	assert.Equal(t, UrgencyRoutine, c.Combine(UrgencyRoutine, "", 0))
}

func TestParseUrgency(t *testing.T) {
	assert.Equal(t, UrgencyEmergency, ParseUrgency("EMERGENCY"))
	assert.Equal(t, UrgencyEmergency, ParseUrgency("medical emergency"))
	assert.Equal(t, UrgencyUrgent, ParseUrgency("Urgent"))
	assert.Equal(t, UrgencyRoutine, ParseUrgency("routine"))
	assert.Equal(t, UrgencyRoutine, ParseUrgency("no idea"))
	assert.Equal(t, UrgencyRoutine, ParseUrgency(""))
}

func TestBodySystems(t *testing.T) {
	assert.Equal(t, []string{"respiratory", "cardiovascular", "musculoskeletal"},
		BodySystems("chest pain and wheezing"))
	assert.Equal(t, []string{"neurological"}, BodySystems("a headache with dizziness"))
	assert.Equal(t, []string{"general"}, BodySystems("just not myself lately"))
}

func TestEmergencyWarning(t *testing.T) {
	warning := EmergencyWarning([]Signal{{Category: "cardiac", Phrase: "chest pain"}})

	assert.Contains(t, warning, "MEDICAL EMERGENCY DETECTED")
	assert.Contains(t, warning, "Call 911")
	assert.Contains(t, warning, "chest pain")
}

func TestUrgentWarning(t *testing.T) {
	warning := UrgentWarning([]Signal{{Category: "urgent", Phrase: "high fever"}})

	assert.Contains(t, warning, "URGENT MEDICAL ATTENTION NEEDED")
	assert.Contains(t, warning, "high fever")

	noSignals := UrgentWarning(nil)
	assert.NotContains(t, noSignals, "Urgent indicators detected")
}
