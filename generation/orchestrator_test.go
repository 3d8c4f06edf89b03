package generation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carebridge-ai/symptom-core/corpus"
	"github.com/carebridge-ai/symptom-core/llm"
	"github.com/carebridge-ai/symptom-core/retrieval"
	"github.com/carebridge-ai/symptom-core/triage"
)

type stubClient struct {
	model    string
	response string
	err      error
	calls    int
	messages []llm.Message
}

func (s *stubClient) GenerateInference(ctx context.Context, messages []llm.Message, callback func(chunk string) error, opts ...llm.LLMOption) error {
	s.calls++
	s.messages = messages
	if s.err != nil {
		return s.err
	}
	return callback(s.response)
}

func (s *stubClient) GetModel() string { return s.model }

const validResponse = `{
	"urgency": "routine",
	"probable_conditions": [
		{"name": "Tension headache", "probability": 0.7, "citations": ["Primary Care Reference, Ch. 3"], "recommended_actions": ["Rest and hydration"]}
	],
	"confidence": 0.8,
	"clarifying_questions": ["How long have you had the headache?"],
	"reasoning": "Bilateral pressure without deficits suggests a tension headache.",
	"recommendations": ["Monitor symptoms"],
	"body_systems_affected": ["neurological"]
}`

func retrievalResult() retrieval.Result {
	return retrieval.Result{Entries: []corpus.ScoredEntry{
		{Entry: corpus.KnowledgeEntry{ID: "e1", Content: "Tension headaches present as bilateral pressure.", Citation: "Primary Care Reference, Ch. 3"}, Score: 0.9},
	}}
}

func testPayload() Payload {
	return Payload{
		Message:   "I've had a mild headache for two days",
		Severity:  3,
		Retrieval: retrievalResult(),
	}
}

func TestGenerate_PrimarySucceeds(t *testing.T) {
	primary := &stubClient{model: "gemini-2.0-flash", response: validResponse}
	fallback := &stubClient{model: "llama-3.3-70b"}
	o := NewOrchestrator(primary, fallback, time.Second)

	outcome, err := o.Generate(context.Background(), testPayload())
	require.NoError(t, err)

	assert.Equal(t, TierPrimary, outcome.Tier)
	assert.Equal(t, "gemini-2.0-flash", outcome.Model)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 0, fallback.calls)
	assert.Equal(t, triage.UrgencyRoutine, outcome.Assessment.Urgency)
	require.Len(t, outcome.Assessment.ProbableConditions, 1)
	assert.NotEmpty(t, outcome.Assessment.ProbableConditions[0].Citations)
	assert.Equal(t, Disclaimer, outcome.Assessment.Disclaimer)
}

func TestGenerate_HistoryTravelsAsChatMessages(t *testing.T) {
	primary := &stubClient{model: "gemini-2.0-flash", response: validResponse}
	o := NewOrchestrator(primary, &stubClient{model: "fb"}, time.Second)

	payload := testPayload()
	payload.History = []llm.Message{
		{Role: "user", Content: "I reported fatigue yesterday"},
		{Role: "assistant", Content: "How long has the fatigue persisted?"},
	}

	_, err := o.Generate(context.Background(), payload)
	require.NoError(t, err)

	require.Len(t, primary.messages, 3)
	assert.Equal(t, payload.History[0], primary.messages[0])
	assert.Equal(t, payload.History[1], primary.messages[1])

	// The prompt body carries only the current turn, not the transcript.
	userPrompt := primary.messages[2].Content
	assert.Contains(t, userPrompt, payload.Message)
	assert.NotContains(t, userPrompt, "fatigue yesterday")
}

func TestGenerate_FallbackInvokedExactlyOnce(t *testing.T) {
	primary := &stubClient{model: "gemini-2.0-flash", err: &llm.ProviderError{Provider: "gemini", Kind: llm.ErrUnreachable}}
	fallback := &stubClient{model: "llama-3.3-70b", response: validResponse}
	o := NewOrchestrator(primary, fallback, time.Second)

	outcome, err := o.Generate(context.Background(), testPayload())
	require.NoError(t, err)

	assert.Equal(t, TierFallback, outcome.Tier)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, fallback.calls)
}

func TestGenerate_MalformedPrimaryTriggersFallback(t *testing.T) {
	primary := &stubClient{model: "gemini-2.0-flash", response: "I think you may have a headache."}
	fallback := &stubClient{model: "llama-3.3-70b", response: validResponse}
	o := NewOrchestrator(primary, fallback, time.Second)

	outcome, err := o.Generate(context.Background(), testPayload())
	require.NoError(t, err)
	assert.Equal(t, TierFallback, outcome.Tier)
}

func TestGenerate_BothTiersFail(t *testing.T) {
	primary := &stubClient{model: "gemini-2.0-flash", err: &llm.ProviderError{Provider: "gemini", Kind: llm.ErrTimeout}}
	fallback := &stubClient{model: "llama-3.3-70b", err: &llm.ProviderError{Provider: "groq", Kind: llm.ErrUnreachable}}
	o := NewOrchestrator(primary, fallback, time.Second)

	outcome, err := o.Generate(context.Background(), testPayload())
	assert.ErrorIs(t, err, ErrGenerationUnavailable)
	assert.Equal(t, TierNone, outcome.Tier)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, fallback.calls)
}

func TestGenerate_DegradedRetrievalCapsConfidence(t *testing.T) {
	primary := &stubClient{model: "gemini-2.0-flash", response: `{
		"urgency": "routine",
		"probable_conditions": [],
		"confidence": 0.9,
		"clarifying_questions": [],
		"reasoning": "r",
		"recommendations": [],
		"body_systems_affected": []
	}`}
	o := NewOrchestrator(primary, &stubClient{model: "fb"}, time.Second)

	payload := testPayload()
	payload.Retrieval = retrieval.Result{Degraded: true}

	outcome, err := o.Generate(context.Background(), payload)
	require.NoError(t, err)
	assert.True(t, outcome.Assessment.Degraded)
	assert.LessOrEqual(t, outcome.Assessment.Confidence, degradedConfidenceCap)
}

func TestGenerate_DropsUncitedConditions(t *testing.T) {
	primary := &stubClient{model: "gemini-2.0-flash", response: `{
		"urgency": "routine",
		"probable_conditions": [
			{"name": "Tension headache", "probability": 0.7, "citations": ["Primary Care Reference, Ch. 3"], "recommended_actions": []},
			{"name": "Invented syndrome", "probability": 0.9, "citations": ["Some Fabricated Journal"], "recommended_actions": []},
			{"name": "Uncited guess", "probability": 0.5, "citations": [], "recommended_actions": []}
		],
		"confidence": 0.8,
		"clarifying_questions": [],
		"reasoning": "r",
		"recommendations": [],
		"body_systems_affected": []
	}`}
	o := NewOrchestrator(primary, &stubClient{model: "fb"}, time.Second)

	outcome, err := o.Generate(context.Background(), testPayload())
	require.NoError(t, err)
	require.Len(t, outcome.Assessment.ProbableConditions, 1)
	assert.Equal(t, "Tension headache", outcome.Assessment.ProbableConditions[0].Name)
}

func TestParseAssessment_FencedJSON(t *testing.T) {
	raw := "Here is the assessment:\n```json\n" + validResponse + "\n```"

	assessment, err := parseAssessment(raw, retrievalResult().Entries)
	require.NoError(t, err)
	assert.Equal(t, triage.UrgencyRoutine, assessment.Urgency)
	assert.Len(t, assessment.ProbableConditions, 1)
}

func TestParseAssessment_ClampsProbability(t *testing.T) {
	raw := `{
		"urgency": "urgent",
		"probable_conditions": [
			{"name": "c", "probability": 1.7, "citations": ["Primary Care Reference, Ch. 3"], "recommended_actions": []}
		],
		"confidence": -0.5,
		"clarifying_questions": null,
		"reasoning": "r",
		"recommendations": [],
		"body_systems_affected": []
	}`

	assessment, err := parseAssessment(raw, retrievalResult().Entries)
	require.NoError(t, err)
	assert.Equal(t, 1.0, assessment.ProbableConditions[0].Probability)
	assert.Equal(t, 0.0, assessment.Confidence)
	assert.NotNil(t, assessment.ClarifyingQuestions)
}

func TestParseAssessment_MissingUrgency(t *testing.T) {
	_, err := parseAssessment(`{"reasoning": "r"}`, nil)
	assert.Error(t, err)
}

func TestEmergencyAssessment(t *testing.T) {
	a := EmergencyAssessment([]triage.Signal{{Category: "cardiac", Phrase: "chest pain"}}, []string{"cardiovascular"})

	assert.Equal(t, triage.UrgencyEmergency, a.Urgency)
	assert.Empty(t, a.ClarifyingQuestions)
	assert.Empty(t, a.ProbableConditions)
	assert.Contains(t, a.EmergencyWarning, "chest pain")
	assert.Equal(t, Disclaimer, a.Disclaimer)
}

func TestSafeFallbackAssessment(t *testing.T) {
	a := SafeFallbackAssessment([]string{"general"})

	assert.Equal(t, triage.UrgencyUrgent, a.Urgency)
	assert.Empty(t, a.ProbableConditions)
	assert.True(t, a.Degraded)
	assert.NotEmpty(t, a.Recommendations)
}
