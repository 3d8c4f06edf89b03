package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"go.uber.org/zap"

	"github.com/carebridge-ai/symptom-core/llm"
	"github.com/carebridge-ai/symptom-core/prompts"
	"github.com/carebridge-ai/symptom-core/retrieval"
)

// ErrGenerationUnavailable means both provider tiers failed to produce
// a usable assessment. Callers return a safe fallback instead of
// propagating this to the end user.
var ErrGenerationUnavailable = errors.New("all generation providers failed")

const DefaultProviderTimeout = 20 * time.Second

// degradedConfidenceCap bounds stated confidence when retrieval
// produced no supporting evidence.
const degradedConfidenceCap = 0.5

// Tier names which provider served the response.
type Tier string

const (
	TierPrimary  Tier = "primary"
	TierFallback Tier = "fallback"
	TierNone     Tier = "none"
)

// PatientInfo is the demographic snapshot embedded in the prompt.
type PatientInfo struct {
	History     []string
	Medications []string
	Allergies   []string
}

// Payload is the provider-agnostic generation request. The same
// payload is sent to whichever tier answers.
type Payload struct {
	Message   string
	Duration  string
	Severity  int // negative when unreported
	Patient   PatientInfo
	History   []llm.Message
	Retrieval retrieval.Result
}

// Outcome pairs the assessment with the provider tier that served it.
type Outcome struct {
	Assessment Assessment
	Tier       Tier
	Model      string
}

// Orchestrator invokes the primary provider and falls back to the
// secondary on timeout, transport failure, or unparseable output. At
// most one attempt per tier.
type Orchestrator struct {
	primary  llm.LLMClient
	fallback llm.LLMClient
	timeout  time.Duration
}

func NewOrchestrator(primary, fallback llm.LLMClient, timeout time.Duration) *Orchestrator {
	if timeout <= 0 {
		timeout = DefaultProviderTimeout
	}
	return &Orchestrator{primary: primary, fallback: fallback, timeout: timeout}
}

func (o *Orchestrator) Generate(ctx context.Context, payload Payload) (Outcome, error) {
	systemPrompt, userPrompt, err := o.renderPrompt(payload)
	if err != nil {
		return Outcome{Tier: TierNone}, fmt.Errorf("failed to render prompt: %w", err)
	}

	messages := make([]llm.Message, 0, len(payload.History)+1)
	messages = append(messages, payload.History...)
	messages = append(messages, llm.Message{Role: "user", Content: userPrompt})

	assessment, err := o.invoke(ctx, o.primary, systemPrompt, messages, payload)
	if err == nil {
		return Outcome{Assessment: assessment, Tier: TierPrimary, Model: o.primary.GetModel()}, nil
	}
	logger.Error("primary generation provider failed, falling back",
		zap.String("model", o.primary.GetModel()), zap.Error(err))

	assessment, err = o.invoke(ctx, o.fallback, systemPrompt, messages, payload)
	if err == nil {
		return Outcome{Assessment: assessment, Tier: TierFallback, Model: o.fallback.GetModel()}, nil
	}
	logger.Error("fallback generation provider failed",
		zap.String("model", o.fallback.GetModel()), zap.Error(err))

	return Outcome{Tier: TierNone}, fmt.Errorf("%w: %v", ErrGenerationUnavailable, err)
}

func (o *Orchestrator) invoke(ctx context.Context, client llm.LLMClient, systemPrompt string, messages []llm.Message, payload Payload) (Assessment, error) {
	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	var response strings.Builder
	err := client.GenerateInference(callCtx, messages,
		func(chunk string) error {
			response.WriteString(chunk)
			return nil
		},
		llm.WithSystemPrompt(systemPrompt),
		llm.WithTemperature(0.3),
	)
	if err != nil {
		return Assessment{}, err
	}

	assessment, err := parseAssessment(response.String(), payload.Retrieval.Entries)
	if err != nil {
		return Assessment{}, &llm.ProviderError{
			Provider: client.GetModel(),
			Kind:     llm.ErrMalformedResponse,
			Err:      err,
		}
	}

	if payload.Retrieval.Degraded {
		assessment.Degraded = true
		if assessment.Confidence > degradedConfidenceCap {
			assessment.Confidence = degradedConfidenceCap
		}
	}
	return assessment, nil
}

func (o *Orchestrator) renderPrompt(payload Payload) (string, string, error) {
	severity := ""
	if payload.Severity >= 0 {
		severity = fmt.Sprintf("%d", payload.Severity)
	}

	// History goes out as chat messages; the prompt body carries only
	// the current message and its supporting material.
	return prompts.RenderSymptomAnalysisPrompt(prompts.SymptomAnalysisData{
		Message:     payload.Message,
		Duration:    payload.Duration,
		Severity:    severity,
		History:     strings.Join(payload.Patient.History, ", "),
		Medications: strings.Join(payload.Patient.Medications, ", "),
		Allergies:   strings.Join(payload.Patient.Allergies, ", "),
		Knowledge:   FormatKnowledge(payload.Retrieval),
	})
}

// FormatKnowledge renders retrieved entries as a numbered block with
// their citations, the way the prompt instructs the model to cite them.
func FormatKnowledge(result retrieval.Result) string {
	if len(result.Entries) == 0 {
		return ""
	}

	var b strings.Builder
	for i, scored := range result.Entries {
		fmt.Fprintf(&b, "[%d] %s (Source: %s)\n", i+1, scored.Entry.Content, scored.Entry.Citation)
	}
	return b.String()
}
