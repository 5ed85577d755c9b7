package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ghdigest/internal/core/keys"
	"ghdigest/internal/modkit"
	"ghdigest/internal/modkit/module"
	"ghdigest/internal/modkit/repokit"
	"ghdigest/internal/platform/config"
	"ghdigest/internal/platform/logger"
	"ghdigest/internal/platform/metrics"
	phttp "ghdigest/internal/platform/net/http"
	"ghdigest/internal/platform/store"

	"ghdigest/internal/services/api"
	metamod "ghdigest/internal/services/api/meta/module"
	unsubmod "ghdigest/internal/services/api/unsubscribe/module"
	recmod "ghdigest/internal/services/recipients/module"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := config.New()
	l := logger.Get()

	st, err := store.Open(ctx, store.FromEnv(root.Prefix("STORE_"), "ghdigest-api"), store.WithLogger(*l))
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

	recipients := recmod.New(deps)
	mods := []module.Module{
		metamod.New(deps, "ghdigest-api"),
		unsubmod.New(deps, module.MustPortsOf[recmod.Ports](recipients).Preferences),
	}

	a := root.Prefix("API_")
	srv := phttp.NewServer(phttp.ServerConfig{
		Addr:          a.MayString("ADDR", ":4000"),
		ShutdownGrace: a.MayDuration("SHUTDOWN_GRACE", 10*time.Second),
	})

	opts := api.FromConfig(root)
	opts.Metrics = prom
	opts.MetricsHandler = prom.Handler()
	api.Mount(srv.Router(), opts, mods...)

	l.Info().Str("addr", srv.Addr()).Msg("api listening")
	if err := srv.Run(ctx); err != nil {
		l.Fatal().Err(err).Msg("api server failed")
	}
}
