package cli

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fitlens-dev/fitlens/pkg/cli/config"
	server "github.com/fitlens-dev/fitlens/pkg/controller/http"
	"github.com/fitlens-dev/fitlens/pkg/repository"
	"github.com/fitlens-dev/fitlens/pkg/service/extract"
	"github.com/fitlens-dev/fitlens/pkg/service/prompt"
	"github.com/fitlens-dev/fitlens/pkg/usecase"
	"github.com/fitlens-dev/fitlens/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/robfig/cron/v3"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var (
		addr          string
		maxUploadSize int
		sentryCfg     config.Sentry
		llmCfg        config.LLMCfg
		diagnosisCfg  config.Diagnosis
	)

	flags := joinFlags(
		[]cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Aliases:     []string{"a"},
				Sources:     cli.EnvVars("FITLENS_ADDR"),
				Usage:       "Listen address (default: 127.0.0.1:8080)",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.IntFlag{
				Name:        "max-upload-size",
				Sources:     cli.EnvVars("FITLENS_MAX_UPLOAD_SIZE"),
				Usage:       "Maximum upload size in bytes",
				Value:       server.DefaultMaxUploadSize,
				Destination: &maxUploadSize,
			},
		},
		sentryCfg.Flags(),
		llmCfg.Flags(),
		diagnosisCfg.Flags(),
	)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start the fit assessment HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.From(ctx)
			logger.Info("starting fitlens",
				"addr", addr,
				"llm", llmCfg,
				"diagnosis", diagnosisCfg,
				"sentry", sentryCfg,
			)

			if err := sentryCfg.Configure(); err != nil {
				return err
			}

			ucOpts := []usecase.Option{
				usecase.WithExtractor(extract.New()),
				usecase.WithPolicy(diagnosisCfg.Policy()),
			}

			// A missing provider keeps the server up. Interview requests fail
			// with a configuration error until one is set.
			llmClient, err := llmCfg.Configure(ctx)
			if err != nil {
				logger.Warn("LLM client is not available", "error", err)
			} else {
				ucOpts = append(ucOpts, usecase.WithLLMClient(llmClient))
			}

			promptOpts, err := diagnosisCfg.PromptOptions()
			if err != nil {
				return err
			}
			builder, err := prompt.New(promptOpts...)
			if err != nil {
				return err
			}
			ucOpts = append(ucOpts, usecase.WithPromptBuilder(builder))

			repo := repository.NewMemory(repository.WithTTL(diagnosisCfg.SessionTTL()))
			uc, err := usecase.New(repo, ucOpts...)
			if err != nil {
				return err
			}

			sweeper := cron.New()
			spec := fmt.Sprintf("@every %s", diagnosisCfg.SweepInterval())
			if _, err := sweeper.AddFunc(spec, func() {
				repo.Sweep(logging.With(context.Background(), logger))
			}); err != nil {
				return goerr.Wrap(err, "failed to schedule session sweep", goerr.V("spec", spec))
			}
			sweeper.Start()
			defer sweeper.Stop()

			httpServer := &http.Server{
				Addr:              addr,
				Handler:           server.New(uc, server.WithMaxUploadSize(int64(maxUploadSize))),
				ReadTimeout:       30 * time.Second,
				ReadHeaderTimeout: 10 * time.Second,
				BaseContext: func(net.Listener) context.Context {
					return ctx
				},
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("starting HTTP server", "addr", addr)
				if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to listen and serve")
				}
			}()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logger.Info("shutting down", "signal", sig.String())
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				return goerr.Wrap(err, "failed to shutdown server")
			}

			return nil
		},
	}
}
