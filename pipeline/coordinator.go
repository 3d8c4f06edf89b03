package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/go-collection-boot/async"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/carebridge-ai/symptom-core/audit"
	"github.com/carebridge-ai/symptom-core/conversation"
	"github.com/carebridge-ai/symptom-core/corpus"
	"github.com/carebridge-ai/symptom-core/generation"
	"github.com/carebridge-ai/symptom-core/llm"
	"github.com/carebridge-ai/symptom-core/retrieval"
	"github.com/carebridge-ai/symptom-core/triage"
)

const DefaultMessageDeadline = 45 * time.Second

// Retriever is the retrieval capability the coordinator depends on.
type Retriever interface {
	Retrieve(ctx context.Context, query string, filter *corpus.EntryFilter) retrieval.Result
}

// Generator is the generation capability the coordinator depends on.
type Generator interface {
	Generate(ctx context.Context, payload generation.Payload) (generation.Outcome, error)
}

// MessageRequest is one inbound patient message.
type MessageRequest struct {
	SessionID uuid.UUID
	Message   string
	Severity  int // negative when unreported
	Duration  string
}

// MessageResponse is the per-turn result handed back to the caller.
type MessageResponse struct {
	Assessment generation.Assessment
	TurnNumber int
	Timestamp  time.Time
}

// Coordinator composes triage, retrieval, generation, and session
// state into the per-message control flow. One instance serves all
// sessions; per-session ordering comes from the conversation manager's
// lock registry.
type Coordinator struct {
	sessions   *conversation.Manager
	classifier *triage.Classifier
	retriever  Retriever
	generator  Generator
	recorder   audit.Recorder
	deadline   time.Duration
}

func NewCoordinator(sessions *conversation.Manager, classifier *triage.Classifier, retriever Retriever, generator Generator, recorder audit.Recorder, deadline time.Duration) *Coordinator {
	if deadline <= 0 {
		deadline = DefaultMessageDeadline
	}

	return &Coordinator{
		sessions:   sessions,
		classifier: classifier,
		retriever:  retriever,
		generator:  generator,
		recorder:   recorder,
		deadline:   deadline,
	}
}

// ProcessMessage runs the full pipeline for one message. Session
// errors surface directly; every other failure degrades into a valid
// conservative assessment. Each stage that runs leaves exactly one
// audit record.
func (c *Coordinator) ProcessMessage(ctx context.Context, req MessageRequest) (*MessageResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.deadline)
	defer cancel()

	unlock := c.sessions.Lock(req.SessionID)
	defer unlock()

	session, err := c.sessions.ActiveSession(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}

	result, classifierPanicked := c.classify(req.Message, req.Severity)
	bodySystems := triage.BodySystems(req.Message)

	triageRecord := audit.NewRecord(session.ID, audit.EventTriage, result.Urgency)
	triageRecord.Signals = result.MatchedSignals
	triageRecord.Confidence = result.Confidence
	if classifierPanicked {
		triageRecord.Metadata = map[string]string{"degraded": "classifier_failure"}
	}
	c.commitAudit(ctx, triageRecord)

	var assessment generation.Assessment
	switch {
	case classifierPanicked:
		assessment = generation.SafeFallbackAssessment(bodySystems)

	case result.Urgency == triage.UrgencyEmergency:
		// Short-circuit: no retrieval or generation on the critical path.
		assessment = generation.EmergencyAssessment(result.MatchedSignals, bodySystems)

	default:
		assessment = c.assess(ctx, session, req, result, bodySystems)
	}

	// The turn still commits when the deadline fired mid-generation;
	// the degraded assessment above is what gets persisted.
	turn, err := c.sessions.AppendTurn(context.WithoutCancel(ctx), session, req.Message, req.Severity, assessment.Urgency, assessment)
	if err != nil {
		return nil, fmt.Errorf("failed to record turn: %w", err)
	}

	return &MessageResponse{
		Assessment: assessment,
		TurnNumber: turn.TurnNumber,
		Timestamp:  turn.CreatedAt,
	}, nil
}

// classify wraps the classifier so a panic degrades to a conservative
// urgent result instead of silently dropping to routine.
func (c *Coordinator) classify(message string, severity int) (result triage.Result, panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("triage classifier panicked", zap.Any("panic", r))
			result = triage.Result{Urgency: triage.UrgencyUrgent, Confidence: 0}
			panicked = true
		}
	}()

	return c.classifier.Classify(message, severity), false
}

// assess runs the non-emergency tail of the pipeline: retrieval,
// generation with fallback, and urgency merge.
func (c *Coordinator) assess(ctx context.Context, session *conversation.Session, req MessageRequest, keyword triage.Result, bodySystems []string) generation.Assessment {
	var filter *corpus.EntryFilter
	if len(bodySystems) > 0 && bodySystems[0] != "general" {
		filter = &corpus.EntryFilter{BodySystem: bodySystems[0]}
	}

	retrievalTask := async.Go(func() (retrieval.Result, error) {
		return c.retriever.Retrieve(ctx, req.Message, filter), nil
	})
	historyTask := async.Go(func() ([]llm.Message, error) {
		return c.sessions.ContextWindow(ctx, session.ID)
	})

	retrieved, _ := async.Await(retrievalTask)

	retrievalRecord := audit.NewRecord(session.ID, audit.EventRetrieval, keyword.Urgency)
	retrievalRecord.Metadata = map[string]string{
		"entries":  fmt.Sprintf("%d", len(retrieved.Entries)),
		"degraded": fmt.Sprintf("%t", retrieved.Degraded),
	}
	c.commitAudit(ctx, retrievalRecord)

	history, err := async.Await(historyTask)
	if err != nil {
		logger.Error("failed to assemble context window", zap.Error(err))
		history = nil
	}

	outcome, err := c.generator.Generate(ctx, generation.Payload{
		Message:  req.Message,
		Duration: req.Duration,
		Severity: req.Severity,
		Patient: generation.PatientInfo{
			History:     session.Patient.History,
			Medications: session.Patient.Medications,
			Allergies:   session.Patient.Allergies,
		},
		History:   history,
		Retrieval: retrieved,
	})

	var assessment generation.Assessment
	if err != nil {
		if !errors.Is(err, generation.ErrGenerationUnavailable) {
			logger.Error("generation failed", zap.Error(err))
		}
		assessment = generation.SafeFallbackAssessment(bodySystems)

		fallbackRecord := audit.NewRecord(session.ID, audit.EventFallback, assessment.Urgency)
		fallbackRecord.Metadata = map[string]string{"reason": err.Error()}
		c.commitAudit(ctx, fallbackRecord)
	} else {
		assessment = outcome.Assessment

		generationRecord := audit.NewRecord(session.ID, audit.EventGeneration, assessment.Urgency)
		generationRecord.Confidence = assessment.Confidence
		generationRecord.Metadata = map[string]string{
			"tier":  string(outcome.Tier),
			"model": outcome.Model,
		}
		c.commitAudit(ctx, generationRecord)
	}

	assessment.Urgency = c.classifier.Combine(keyword.Urgency, string(assessment.Urgency), assessment.Confidence)
	if assessment.Urgency == triage.UrgencyUrgent && assessment.EmergencyWarning == "" {
		assessment.EmergencyWarning = triage.UrgentWarning(keyword.MatchedSignals)
	}
	if assessment.Urgency == triage.UrgencyEmergency {
		assessment.ClarifyingQuestions = []string{}
		if assessment.EmergencyWarning == "" {
			assessment.EmergencyWarning = triage.EmergencyWarning(keyword.MatchedSignals)
		}
	}
	if len(assessment.BodySystemsAffected) == 0 {
		assessment.BodySystemsAffected = bodySystems
	}
	return assessment
}

// commitAudit appends a record even when the request context is
// cancelled or past deadline. Audit durability outranks client
// responsiveness; a failed append is logged, never propagated.
func (c *Coordinator) commitAudit(ctx context.Context, record *audit.Record) {
	if err := c.recorder.Record(context.WithoutCancel(ctx), record); err != nil {
		logger.Error("failed to append audit record",
			zap.String("event", string(record.Event)), zap.Error(err))
	}
}
