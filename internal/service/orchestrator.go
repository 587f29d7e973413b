package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"transferservice/internal/core/domain"
)

// JobProcessor processes a single record.
type JobProcessor interface {
	Process(ctx context.Context, rec *domain.Record) domain.Outcome
}

// AbortError is returned by Run in fail-fast mode. The batch is considered
// failed as a whole and its records must not be reported.
type AbortError struct {
	Index    int
	FileName string
	Err      error
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("batch aborted at job %d (%s): %v", e.Index, e.FileName, e.Err)
}

func (e *AbortError) Unwrap() error { return e.Err }

// Orchestrator runs batches of jobs in order.
type Orchestrator struct {
	processor JobProcessor
	fields    domain.FieldMapping
	failFast  bool
	logger    zerolog.Logger
}

// NewOrchestrator creates a new Orchestrator.
func NewOrchestrator(processor JobProcessor, fields domain.FieldMapping, failFast bool, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		processor: processor,
		fields:    fields,
		failFast:  failFast,
		logger:    logger,
	}
}

// Run processes records sequentially, annotating each with its outcome.
// In fail-fast mode the first failure stops the batch and is returned as an
// *AbortError; otherwise every record is attempted.
func (o *Orchestrator) Run(ctx context.Context, records []*domain.Record) (*domain.BatchResult, error) {
	result := &domain.BatchResult{
		RequestID: uuid.New().String(),
		Records:   records,
		Outcomes:  make([]domain.Outcome, 0, len(records)),
		Status:    domain.StatusSuccess,
	}
	log := o.logger.With().Str("request_id", result.RequestID).Logger()
	ctx = log.WithContext(ctx)

	log.Info().Int("jobs", len(records)).Bool("fail_fast", o.failFast).Msg("batch started")

	for i, rec := range records {
		outcome := o.processor.Process(ctx, rec)
		rec.SetString(domain.ResultField, outcome.Annotation())
		result.Outcomes = append(result.Outcomes, outcome)

		if outcome.OK() {
			continue
		}

		result.Failed++
		result.Status = domain.StatusPartialFailure
		fileName, _, _ := rec.String(o.fields.FileName)
		log.Error().Err(outcome.Err).Int("index", i).Str("file_name", fileName).Msg("job failed")

		if o.failFast {
			log.Warn().Int("index", i).Int("skipped", len(records)-i-1).Msg("batch aborted")
			return nil, &AbortError{Index: i, FileName: fileName, Err: outcome.Err}
		}
	}

	log.Info().
		Int("jobs", len(records)).
		Int("failed", result.Failed).
		Str("status", string(result.Status)).
		Msg("batch finished")
	return result, nil
}
