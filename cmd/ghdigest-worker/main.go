package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"ghdigest/internal/adapters/github"
	"ghdigest/internal/adapters/mail"
	"ghdigest/internal/core/keys"
	"ghdigest/internal/modkit"
	"ghdigest/internal/modkit/repokit"
	"ghdigest/internal/platform/config"
	"ghdigest/internal/platform/logger"
	"ghdigest/internal/platform/metrics"
	phttp "ghdigest/internal/platform/net/http"
	"ghdigest/internal/platform/store"

	mailermod "ghdigest/internal/services/mailer/module"
)

func main() {
	mode := flag.String("mode", modeAll, "roles to run: all, scheduler, checker, builder or mailer")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := config.New()
	l := logger.Get()

	st, err := store.Open(ctx, store.FromEnv(root.Prefix("STORE_"), "ghdigest-worker"), store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()
	repokit.MustGuard(ctx, st)

	prom := metrics.NewProm("ghdigest")
	deps := modkit.Deps{
		Log:     *l,
		Cfg:     root,
		KV:      st.KV,
		Keys:    keys.New(root.Prefix("CORE_").MayString("NAMESPACE", "ghntfr")),
		Metrics: prom,
	}
	if st.PG != nil {
		deps.PG = st.PG.Pool
	}

	provider, err := mail.New(ctx, mailermod.MailConfig(root))
	if err != nil {
		l.Panic().Err(err).Msg("mail provider")
	}

	a := wire(deps, github.NewClient(github.FromConfig(root), prom), provider)
	if err := a.register(*mode); err != nil {
		l.Panic().Err(err).Msg("bad -mode")
	}

	// workers have no API; expose counters on their own listener when asked
	if addr := root.Prefix("WORKER_").MayString("METRICS_ADDR", ""); addr != "" {
		srv := phttp.NewServer(phttp.ServerConfig{Addr: addr})
		srv.Router().Handle("/metrics", prom.Handler())
		go func() {
			if err := srv.Run(ctx); err != nil {
				l.Error().Err(err).Msg("metrics listener stopped")
			}
		}()
	}

	if err := a.start(ctx); err != nil {
		l.Fatal().Err(err).Msg("worker failed")
	}
}
