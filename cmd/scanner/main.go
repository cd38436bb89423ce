package main

import (
	"bufio"
	"context"
	"errors"
	"farm-delivery-service/internal/config"
	"farm-delivery-service/internal/platform/logging"
	"farm-delivery-service/internal/scan"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// scanner bridges a keyboard-emulating barcode scanner to the loading server.
// Keystrokes are read from stdin, assembled into codes and submitted one at a
// time in scan order.
func main() {
	config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.New(logging.Config{
		Level:       cfg.LogLevel,
		ServiceName: "farm-delivery-scanner",
		Environment: cfg.Environment,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	codes := make(chan string, 64)
	buf := scan.NewBuffer(scan.Config{Debounce: cfg.ScannerDebounce, MinLength: 3}, func(code string) {
		select {
		case codes <- code:
		case <-ctx.Done():
		}
	})

	inputDone := make(chan struct{})
	go func() {
		defer close(inputDone)
		r := bufio.NewReader(os.Stdin)
		for {
			ch, _, err := r.ReadRune()
			if err != nil {
				if !errors.Is(err, io.EOF) {
					logger.Error("read input", "error", err)
				}
				// flush whatever was typed before the input closed
				buf.Press('\n')
				return
			}
			buf.Press(ch)
		}
	}()

	logger.Info("scanner ready", "server", cfg.ServerURL, "debounce", cfg.ScannerDebounce.String())
	submit(ctx, logger, scan.NewSubmitter(cfg.ServerURL, 0), codes, inputDone)
}

func submit(ctx context.Context, logger *slog.Logger, s *scan.Submitter, codes <-chan string, inputDone <-chan struct{}) {
	handle := func(code string) {
		out, err := s.Submit(ctx, code)
		switch {
		case errors.Is(err, scan.ErrNotFound):
			logger.Info("no order for code", "code", code)
		case err != nil:
			logger.Error("scan failed", "code", code, "error", err)
		case out.AlreadyLoaded:
			logger.Info("already loaded", "order_number", out.OrderNumber, "section", out.Section)
		default:
			logger.Info("loaded", "order_number", out.OrderNumber, "section", out.Section)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case code := <-codes:
			handle(code)
		case <-inputDone:
			for {
				select {
				case code := <-codes:
					handle(code)
				default:
					return
				}
			}
		}
	}
}
