package service

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"

	"transferservice/internal/core/domain"
	"transferservice/internal/core/ports"
	"transferservice/internal/transfer"
)

// Processor moves one file from its source to the destination.
type Processor struct {
	fields    domain.FieldMapping
	fetcher   ports.Fetcher
	uploader  ports.Uploader
	store     ports.TempStore
	chunkSize int
	logger    zerolog.Logger
}

// NewProcessor creates a new Processor.
func NewProcessor(
	fields domain.FieldMapping,
	fetcher ports.Fetcher,
	uploader ports.Uploader,
	store ports.TempStore,
	chunkSize int,
	logger zerolog.Logger,
) *Processor {
	return &Processor{
		fields:    fields,
		fetcher:   fetcher,
		uploader:  uploader,
		store:     store,
		chunkSize: chunkSize,
		logger:    logger,
	}
}

// Process runs fetch, stage and upload for rec and reports the outcome.
// A staged file, once created, is always released before Process returns.
func (p *Processor) Process(ctx context.Context, rec *domain.Record) domain.Outcome {
	job, err := p.fields.Resolve(rec)
	if err != nil {
		return domain.Outcome{Err: err}
	}

	log := p.loggerFor(ctx).With().Str("file_name", job.FileName).Logger()
	log.Info().Msg("processing request")

	body, err := p.fetcher.Fetch(ctx, job.SourceURL)
	if err != nil {
		return domain.Outcome{Err: fmt.Errorf("%w: %w", domain.ErrFetch, err)}
	}
	defer body.Close()

	path, w, err := p.store.Acquire(ctx)
	if err != nil {
		return domain.Outcome{Err: fmt.Errorf("%w: %w", domain.ErrStorage, err)}
	}
	defer func() {
		log.Debug().Str("path", path).Msg("removing staged file")
		if err := p.store.Release(path); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("failed to remove staged file")
		}
	}()

	log.Debug().Str("path", path).Msg("staging download")
	digest := xxhash.New()
	n, err := transfer.Copy(ctx, io.MultiWriter(w, digest), body, p.chunkSize)
	closeErr := w.Close()
	if err != nil {
		return domain.Outcome{Err: fmt.Errorf("%w: %w", domain.ErrTransfer, err)}
	}
	if closeErr != nil {
		return domain.Outcome{Err: fmt.Errorf("%w: %w", domain.ErrStorage, closeErr)}
	}
	checksum := strconv.FormatUint(digest.Sum64(), 16)
	log.Debug().Int64("bytes", n).Str("xxh64", checksum).Msg("download staged")

	r, err := p.store.Open(path)
	if err != nil {
		return domain.Outcome{Err: fmt.Errorf("%w: %w", domain.ErrStorage, err)}
	}
	defer r.Close()

	log.Debug().Str("target_path", job.TargetPath).Msg("starting upload")
	err = p.uploader.Upload(ctx, ports.Upload{
		FileName:    job.FileName,
		ContentType: job.ContentType,
		TargetPath:  job.TargetPath,
		Checksum:    checksum,
		Body:        r,
	})
	if err != nil {
		return domain.Outcome{Err: fmt.Errorf("%w: %w", domain.ErrUpload, err)}
	}

	log.Info().Int64("bytes", n).Msg("transferred")
	return domain.Outcome{Bytes: n, Checksum: checksum}
}

// loggerFor prefers the request-scoped logger carried by ctx.
func (p *Processor) loggerFor(ctx context.Context) zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return *l
	}
	return p.logger
}
