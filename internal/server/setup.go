package server

import (
	"context"
	"fmt"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"transferservice/internal/adapters/downloader"
	"transferservice/internal/adapters/httpclient"
	"transferservice/internal/adapters/tempstore"
	"transferservice/internal/adapters/uploader"
	"transferservice/internal/config"
	"transferservice/internal/core/ports"
	"transferservice/internal/service"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Setup wires the adapters and services described by cfg into a router.
// The returned Closer releases the upload destination.
func Setup(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*gin.Engine, io.Closer, error) {
	client := httpclient.New(httpclient.Options{Timeout: cfg.HTTPTimeout})

	store, err := tempstore.NewFileStore(cfg.TempDir)
	if err != nil {
		return nil, nil, err
	}

	var up ports.Uploader
	var closer io.Closer = nopCloser{}
	if cfg.IsHTTPUpload() {
		up = uploader.NewHTTPUploader(client, cfg.UploadURL, cfg.TargetPathInURL, cfg.ChunkSize)
	} else {
		blobUp, err := uploader.OpenBlobUploader(ctx, cfg.UploadURL, cfg.ChunkSize)
		if err != nil {
			return nil, nil, fmt.Errorf("set up upload destination: %w", err)
		}
		up, closer = blobUp, blobUp
	}

	processor := service.NewProcessor(
		cfg.Fields,
		downloader.NewHTTPDownloader(client),
		up,
		store,
		cfg.ChunkSize,
		logger.With().Str("component", "processor").Logger(),
	)
	orchestrator := service.NewOrchestrator(
		processor,
		cfg.Fields,
		cfg.FailFast,
		logger.With().Str("component", "orchestrator").Logger(),
	)

	api := NewAPI(orchestrator, logger.With().Str("component", "api").Logger())
	return NewRouter(api), closer, nil
}
