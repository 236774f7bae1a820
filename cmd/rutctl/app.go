package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"bayi-rut/internal/common/config"
	apperrors "bayi-rut/internal/common/errors"
	httpclient "bayi-rut/internal/common/http"
	"bayi-rut/internal/common/logger"
	"bayi-rut/internal/common/observability"
	"bayi-rut/internal/common/session"
	"bayi-rut/internal/models"
	"bayi-rut/internal/rut/approval"
	"bayi-rut/internal/rut/delivery"
	"bayi-rut/internal/rut/editor"
	"bayi-rut/internal/rut/rutapi"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
)

// runtime holds everything a command needs; it is built once in Before.
type runtime struct {
	cfg       *config.Config
	log       logger.Logger
	store     session.Store
	api       *rutapi.Client
	obs       *observability.Observability
	presenter *apperrors.Presenter
	deliverer delivery.Deliverer

	out io.Writer
	in  *bufio.Reader

	metricsSrv *http.Server
}

func newCLI(out, errOut io.Writer, in io.Reader) *cli.App {
	rt := &runtime{out: out, in: bufio.NewReader(in)}

	app := &cli.App{
		Name:      "rutctl",
		Usage:     "edit route visit order and manage route change requests",
		Writer:    out,
		ErrWriter: errOut,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "config file (default: configs/config.yaml)",
				EnvVars: []string{"RUTCTL_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "serve /metrics on this address while the command runs",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "override logging.level",
			},
		},
		Before: func(c *cli.Context) error {
			return rt.init(c)
		},
		After: func(c *cli.Context) error {
			rt.close()
			return nil
		},
		ExitErrHandler: func(c *cli.Context, err error) {
			var exitErr cli.ExitCoder
			if err != nil && !errors.As(err, &exitErr) {
				fmt.Fprintln(errOut, err)
			}
		},
		Commands: commands(rt),
	}
	return app
}

func (rt *runtime) init(c *cli.Context) error {
	var (
		cfg *config.Config
		err error
	)
	if path := c.String("config"); path != "" {
		cfg, err = config.LoadFromFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if lvl := c.String("log-level"); lvl != "" {
		cfg.Logging.Level = lvl
	}
	rt.cfg = cfg

	rt.log = logger.NewStructured(logger.Options{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	}).WithFields(map[string]interface{}{"app": cfg.App.Name, "version": cfg.App.Version})
	rt.presenter = apperrors.NewPresenter(rt.log)

	rt.store, err = session.New(cfg.Session)
	if err != nil {
		return err
	}

	transport := httpclient.NewClient(cfg.Backend.BaseURL, cfg.RequestTimeout(), cfg.Backend.UserAgent, rt.log)
	rt.api = rutapi.NewClient(transport, rt.log)
	rt.deliverer = delivery.Select(cfg.Delivery, rt.log)

	addr := c.String("metrics-addr")
	if addr == "" && cfg.Metrics.Enabled {
		addr = cfg.Metrics.ListenAddr
	}
	if addr == "" {
		rt.obs = observability.Nop()
		return nil
	}
	rt.obs = observability.New(cfg.App.Name)
	return rt.serveMetrics(addr)
}

func (rt *runtime) serveMetrics(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	rt.metricsSrv = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := rt.metricsSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			rt.log.WithError(err).Error("metrics server stopped", nil)
		}
	}()
	rt.log.Info("serving metrics", map[string]interface{}{"addr": ln.Addr().String()})
	return nil
}

func (rt *runtime) close() {
	if rt.metricsSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = rt.metricsSrv.Shutdown(ctx)
	}
	if rt.obs != nil {
		rt.obs.Shutdown()
	}
	if closer, ok := rt.store.(io.Closer); ok {
		_ = closer.Close()
	}
}

func (rt *runtime) session(ctx context.Context) (*models.Session, error) {
	return session.Load(ctx, rt.store)
}

func (rt *runtime) newEditor(sess *models.Session) *editor.Editor {
	return editor.New(rt.api, sess, rt.obs, rt.log)
}

func (rt *runtime) newViewer(sess *models.Session, confirmer approval.Confirmer) *approval.Viewer {
	return approval.New(rt.api, sess, confirmer, rt.deliverer, rt.obs, rt.log)
}

// fail prints err as a notice and turns it into exit code 1.
func (rt *runtime) fail(operation string, err error) error {
	notice := rt.presenter.Present(operation, err)
	printNotice(rt.out, notice)
	return cli.Exit("", 1)
}

// confirm asks a yes/no question on the CLI input.
func (rt *runtime) confirm(question string) (bool, error) {
	fmt.Fprintf(rt.out, "%s [e/H]: ", question)
	line, err := rt.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "e", "evet", "y", "yes":
		return true, nil
	}
	return false, nil
}

func (rt *runtime) confirmer(skip bool) approval.Confirmer {
	if skip {
		return approval.AlwaysConfirm
	}
	return approval.ConfirmFunc(func(_ context.Context, req models.RouteChangeRequest, status models.RequestStatus) (bool, error) {
		return rt.confirm(fmt.Sprintf("Talep %s (%s, %s) %s olarak işaretlensin mi?",
			req.ID, req.RepresentativeID, req.Day, strings.ToLower(status.Label())))
	})
}
