package transcription

import (
	"context"
	"time"

	"github.com/kbukum/audiopen/catalog"
	"github.com/kbukum/audiopen/diagnostics"
	apperrors "github.com/kbukum/audiopen/errors"
	"github.com/kbukum/audiopen/logger"
	"github.com/kbukum/audiopen/observability"
	"github.com/kbukum/audiopen/prompt"
	"github.com/kbukum/audiopen/resilience"
)

// State is the phase of one Transcribe invocation.
type State int

const (
	StateIdle State = iota
	StateSubmitting
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Signer reissues signed URLs for stored audio. *artifact.Gateway implements it.
type Signer interface {
	RefreshSignedURL(ctx context.Context, storagePath string, ttl time.Duration) (string, bool)
}

// UsageRecorder counts successful uses of a prompt. *prompt.Library implements it.
type UsageRecorder interface {
	IncrementUsage(ctx context.Context, promptID string) error
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithSigner refreshes URLs of recordings that have a storage path.
func WithSigner(s Signer) Option {
	return func(o *Orchestrator) { o.signer = s }
}

// WithUsage records prompt usage after each success.
func WithUsage(u UsageRecorder) Option {
	return func(o *Orchestrator) { o.usage = u }
}

// WithDiagnostics sets the introspection sink.
func WithDiagnostics(d diagnostics.Diagnostics) Option {
	return func(o *Orchestrator) { o.diag = diagnostics.OrNop(d) }
}

// WithMetrics records outcomes and latency.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// OnState observes every state change of every invocation.
func OnState(fn func(recordingID string, s State)) Option {
	return func(o *Orchestrator) { o.onState = fn }
}

// Orchestrator runs transcriptions of catalog recordings.
type Orchestrator struct {
	rpc     RPC
	signer  Signer
	usage   UsageRecorder
	log     *logger.Logger
	diag    diagnostics.Diagnostics
	metrics *observability.Metrics
	now     func() time.Time
	onState func(string, State)
}

// NewOrchestrator creates an orchestrator over rpc.
func NewOrchestrator(rpc RPC, log *logger.Logger, opts ...Option) *Orchestrator {
	if log == nil {
		log = logger.NewNop()
	}
	o := &Orchestrator{
		rpc:  rpc,
		log:  log.WithComponent("transcription"),
		diag: diagnostics.Nop{},
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) transition(id string, s State) {
	o.diag.Record("transcription", s.String(), map[string]any{"recording_id": id})
	if o.onState != nil {
		o.onState(id, s)
	}
}

// Transcribe sends rec's audio with p to the transcription function.
//
// A recording whose URL fails catalog.Fetchable is refused with
// INVALID_ARTIFACT before any network call. When rec has a storage path its
// URL is refreshed first; a 403 refreshes it again and retries once. A 503
// returns TRANSCRIPTION_OVERLOADED carrying the suggested wait, a 429
// returns RATE_LIMITED, and anything else is TRANSCRIPTION_FAILED with the
// server's message. On success a user prompt's usage count is incremented
// once.
func (o *Orchestrator) Transcribe(ctx context.Context, rec catalog.Recording, p prompt.Prompt) (_ *Result, err error) {
	start := o.now()
	o.transition(rec.ID, StateSubmitting)

	ctx, span := observability.StartSpan(ctx, observability.SpanTranscribe)
	observability.SetSpanAttribute(ctx, observability.AttrRecordingID, rec.ID)
	observability.SetSpanAttribute(ctx, observability.AttrPromptID, p.ID())
	log := o.log.WithFields(logger.Fields(logger.FieldRecordingID, rec.ID, logger.FieldPromptID, p.ID()))

	defer func() {
		outcome := outcomeOf(err)
		observability.SetSpanAttribute(ctx, observability.AttrOutcome, outcome)
		observability.EndSpan(span, err)
		o.metrics.RecordTranscription(ctx, outcome, o.now().Sub(start))
		if err != nil {
			o.transition(rec.ID, StateFailed)
			log.Error("transcription failed", logger.Fields(logger.FieldError, err.Error(), logger.FieldStatus, outcome))
			return
		}
		o.transition(rec.ID, StateSucceeded)
		log.Info("transcription succeeded", logger.DurationFields("transcribe", o.now().Sub(start)))
	}()

	if reason := catalog.Fetchable(rec.AudioURL); reason != nil {
		return nil, apperrors.InvalidArtifact(rec.AudioURL, reason.Error())
	}
	text := p.Text()
	if text == "" {
		return nil, apperrors.InvalidInput("prompt", "the prompt has no instructions")
	}

	canRefresh := rec.StoragePath != "" && o.signer != nil
	audioURL := rec.AudioURL
	if canRefresh {
		if audioURL, err = o.refresh(ctx, rec); err != nil {
			return nil, err
		}
	}

	retry := resilience.RetryConfig{
		MaxAttempts:    2,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     time.Millisecond,
		RetryIf: func(err error) bool {
			return canRefresh && apperrors.HasCode(err, apperrors.ErrCodeURLExpired)
		},
		OnRetry: func(_ int, _ error, _ time.Duration) {
			log.Warn("audio link rejected, refreshing it and retrying once")
		},
	}
	reply, err := resilience.Retry(ctx, retry, func(attempt int) (Reply, error) {
		if attempt > 1 {
			fresh, err := o.refresh(ctx, rec)
			if err != nil {
				return Reply{}, err
			}
			audioURL = fresh
		}
		return o.rpc.Transcribe(ctx, Request{AudioURL: audioURL, Prompt: text, RecordingID: rec.ID})
	})
	if err != nil {
		return nil, err
	}

	if p.Kind == prompt.KindUser && o.usage != nil {
		if uerr := o.usage.IncrementUsage(ctx, p.ID()); uerr != nil {
			log.Warn("prompt usage not recorded", logger.Fields(logger.FieldError, uerr.Error()))
		}
	}

	produced := reply.Timestamp
	if produced.IsZero() {
		produced = o.now()
	}
	return &Result{
		Text:        reply.Text,
		PromptUsed:  text,
		PromptID:    p.ID(),
		ProducedAt:  produced,
		RecordingID: rec.ID,
		Title:       rec.Title,
	}, nil
}

func (o *Orchestrator) refresh(ctx context.Context, rec catalog.Recording) (string, error) {
	url, ok := o.signer.RefreshSignedURL(ctx, rec.StoragePath, 0)
	if !ok {
		return "", apperrors.InvalidArtifact(rec.AudioURL, "recording no longer usable")
	}
	return url, nil
}

func outcomeOf(err error) string {
	appErr, ok := apperrors.AsAppError(err)
	switch {
	case err == nil:
		return observability.OutcomeSuccess
	case !ok:
		return observability.OutcomeFailed
	case appErr.Code == apperrors.ErrCodeTranscriptionOverloaded:
		return observability.OutcomeOverloaded
	case appErr.Code == apperrors.ErrCodeRateLimited:
		return observability.OutcomeRateLimited
	case appErr.Code == apperrors.ErrCodeURLExpired:
		return observability.OutcomeURLExpired
	default:
		return observability.OutcomeFailed
	}
}
