package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/datallboy/gonzb-assembler/internal/api"
	"github.com/datallboy/gonzb-assembler/internal/app"
	"github.com/datallboy/gonzb-assembler/internal/domain"
	"github.com/datallboy/gonzb-assembler/internal/engine"
	"github.com/datallboy/gonzb-assembler/internal/nzb"
	"github.com/dustin/go-humanize"
	"github.com/labstack/echo/v5"
	"github.com/spf13/cobra"
)

type assembleOptions struct {
	nzbPath    string
	articleDir string
	listen     string
	progress   bool
}

func buildAssembleCommand() *cobra.Command {
	var opts assembleOptions

	cmd := &cobra.Command{
		Use:   "assemble",
		Short: "Assemble the files of an NZB from cached articles",
		Long: `Reads the NZB, loads each article from the article directory, writes the
files below download.dir and runs the encryption, unwanted extension and
rating checks. With --listen the status API keeps running until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runAssemble(ctx, opts)
		},
	}

	cmd.Flags().StringVar(&opts.nzbPath, "nzb", "", "NZB file to assemble")
	cmd.Flags().StringVar(&opts.articleDir, "articles", "", "directory holding downloaded articles (defaults to cache.dir)")
	cmd.Flags().StringVar(&opts.listen, "listen", "", "address for the status API, e.g. :8080 (defaults to api.listen)")
	cmd.Flags().BoolVar(&opts.progress, "progress", true, "show a progress line")
	_ = cmd.MarkFlagRequired("nzb")

	return cmd
}

func runAssemble(ctx context.Context, opts assembleOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log, err := newLogger(cfg, true)
	if err != nil {
		return fmt.Errorf("failed to open log: %w", err)
	}

	model, err := nzb.ParseFile(opts.nzbPath)
	if err != nil {
		return err
	}
	job, err := nzb.BuildJob(model, opts.nzbPath)
	if err != nil {
		return err
	}

	svc, err := newService(ctx, cfg, log, opts.articleDir)
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := svc.queue.Add(ctx, job); err != nil {
		return err
	}

	listen := opts.listen
	if listen == "" {
		listen = cfg.API.Listen
	}
	if listen != "" {
		appCtx := app.NewContext(cfg, log.Named("api"))
		appCtx.Queue = svc.queue
		appCtx.Gate = svc.gate
		appCtx.Gatherer = svc.registry

		e := echo.New()
		api.RegisterRoutes(e, appCtx)
		srv := &http.Server{Addr: listen, Handler: e}
		go func() {
			log.Info("API listening on %s", listen)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("API server failed: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	if opts.progress {
		progressCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go engine.StartCLIProgress(progressCtx, os.Stdout, job, time.Second)
	}

	runErr := make(chan error, 1)
	go func() { runErr <- svc.run(ctx) }()

	// Without the API nothing can resume a paused downloader
	svc.feeder.NoWait = listen == ""
	feedErr := svc.feeder.Feed(ctx, job)
	if errors.Is(feedErr, engine.ErrDownloaderPaused) {
		log.Warn("Downloader is paused, %s stays incomplete. Run with --listen to resume it over the API.", job.Name)
	} else if feedErr != nil {
		return feedErr
	}
	svc.assembler.Shutdown()

	if err := <-runErr; err != nil {
		return err
	}

	if opts.progress {
		fmt.Println()
	}
	reportJob(job)

	if listen != "" {
		log.Info("Assembly finished, API still serving. Press Ctrl+C to exit.")
		<-ctx.Done()
	}

	if job.Status() == domain.StatusFailed {
		return fmt.Errorf("job %s failed: %s", job.Name, job.FailMsg())
	}
	if feedErr != nil {
		return fmt.Errorf("job %s incomplete: %w", job.Name, feedErr)
	}
	return nil
}

func reportJob(job *domain.Job) {
	fmt.Printf("%s: %s, %s of %s written\n", job.Name, job.Status(),
		humanize.Bytes(job.BytesWritten.Load()), humanize.Bytes(job.TotalBytes))
	for _, f := range job.Snapshot().Files {
		if f.Path == "" {
			continue
		}
		fmt.Printf("  %s  %s\n", f.MD5, f.Path)
	}
}
