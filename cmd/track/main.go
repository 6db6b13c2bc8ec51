// Command track читает запрос JSON из stdin (снимки в base64), пишет результат JSON в stdout.
package main

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"os"

	"go.uber.org/zap"

	"vitiligo-tracker/config"
	"vitiligo-tracker/internal/api/rest"
	"vitiligo-tracker/internal/container"
	apperrors "vitiligo-tracker/internal/errors"
	"vitiligo-tracker/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// stdout занят ответом, логи только в stderr
	level := cfg.LogLevel
	if level == "" {
		level = "warn"
	}
	logger, err := logging.NewLogger(level)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	code := run(context.Background(), cfg, logger, os.Stdin, os.Stdout)
	_ = logger.Sync()
	os.Exit(code)
}

// run код выхода 0 и при ответе status:"error"; 1 — только если ответ не записан
func run(ctx context.Context, cfg *config.Config, logger *zap.Logger, stdin io.Reader, stdout io.Writer) int {
	enc := json.NewEncoder(stdout)
	write := func(v any) int {
		if err := enc.Encode(v); err != nil {
			logger.Error("write response", zap.Error(err))
			return 1
		}
		return 0
	}
	fail := func(err error) int {
		logger.Warn("tracking failed", zap.Error(err))
		return write(rest.NewErrorResponse(err))
	}

	var req rest.TrackingRequest
	if err := json.NewDecoder(stdin).Decode(&req); err != nil {
		if _, ok := apperrors.KindOf(err); !ok {
			err = apperrors.NewInvalidInputError("invalid request format", err)
		}
		return fail(err)
	}
	in, err := req.Input()
	if err != nil {
		return fail(err)
	}

	tracker, _, err := container.NewPipeline(cfg, logger)
	if err != nil {
		return fail(err)
	}

	out, err := tracker.Track(ctx, in)
	if err != nil {
		return fail(err)
	}
	logging.WithRun(logger, "track", out.RunID).Info("tracking completed",
		zap.String("treatment", out.Result.TreatmentLabel))

	resp, err := rest.NewTrackingResponse(out, false)
	if err != nil {
		return fail(err)
	}
	return write(resp)
}
