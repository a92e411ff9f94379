package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Tiliavir/tasktime/internal/bridge"
	"github.com/Tiliavir/tasktime/internal/config"
	"github.com/Tiliavir/tasktime/internal/host"
	"github.com/Tiliavir/tasktime/internal/sampler"
	"github.com/Tiliavir/tasktime/internal/storage"
)

var hostAddr string

var hostCmd = &cobra.Command{
	Use:   "host",
	Short: "Run the host process that samples the foreground window",
	Long: `Run the host process. While a session is tracked it samples which
application has focus and buffers the samples until the session stops.
It also serves one-off probes and the export save dialog.`,
	Args: cobra.NoArgs,
	RunE: runHost,
}

func init() {
	hostCmd.Flags().StringVar(&hostAddr, "addr", "", "Listen address (overrides config)")
}

func runHost(cmd *cobra.Command, args []string) error {
	base, err := storage.BaseDir()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	cfg, err := config.Load(base)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load config, using defaults")
		cfg = config.Default()
	}
	addr := cfg.Host.Addr
	if hostAddr != "" {
		addr = hostAddr
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := serveHost(ctx, base, addr, cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	return nil
}

// serveHost runs the sampling loop and the bridge server until ctx is done.
// The endpoint record is published once the listener is up and withdrawn on
// the way out.
func serveHost(ctx context.Context, base, addr string, cfg config.Config) error {
	if existing, _ := bridge.ReadEndpoint(base); existing != nil && bridge.New(base, nil, 0).IsHostAvailable() {
		return fmt.Errorf("host already running (pid %d, %s)", existing.PID, existing.Addr)
	}

	smp := sampler.New(sampler.PlatformProbe(), cfg.SampleTimeout())
	if !smp.Supported() {
		log.Warn().Msg("Activity sampling is not supported on this platform; samples will be empty")
	}

	token, err := host.NewToken()
	if err != nil {
		return fmt.Errorf("generating token: %w", err)
	}

	rec := host.NewRecorder()
	srv := host.NewServer(rec, smp, host.NewExporter(host.PlatformPicker(cfg.ExportDir())), token)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	httpSrv := &http.Server{
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	pid := int32(os.Getpid())
	if err := bridge.WriteEndpoint(base, bridge.Endpoint{
		Addr:      ln.Addr().String(),
		Token:     token,
		PID:       pid,
		StartedAt: time.Now(),
	}); err != nil {
		ln.Close()
		return err
	}
	defer func() {
		if err := bridge.RemoveEndpoint(base, pid); err != nil {
			log.Warn().Err(err).Msg("Failed to remove endpoint record")
		}
	}()

	log.Info().
		Str("addr", ln.Addr().String()).
		Dur("interval", cfg.SampleInterval()).
		Msg("Host listening")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("bridge server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return host.RunSampling(gctx, smp, rec, cfg.SampleInterval())
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down host")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
