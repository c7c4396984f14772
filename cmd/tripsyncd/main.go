package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"tripsync/internal/retention"
	"tripsync/pkg/api"
	"tripsync/pkg/banner"
	"tripsync/pkg/config"
	"tripsync/pkg/logger"
	"tripsync/pkg/mutate"
	"tripsync/pkg/poke"
	"tripsync/pkg/shutdown"
	"tripsync/pkg/store"
)

// build metadata - set via ldflags during build/release
var (
	version = "dev"
	commit  = "none"
)

func main() {
	_ = godotenv.Load(".env")

	var (
		addrFlag = flag.String("addr", "", "listen address (host:port), overrides config")
		dbFlag   = flag.String("db", "", "database directory, overrides config")
		cfgFlag  = flag.String("config", "config.yaml", "path to YAML config file")
	)
	flag.Parse()
	setFlags := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })

	cfg, err := config.Load(*cfgFlag)
	if err != nil {
		logger.Init("info")
		shutdown.Abort("failed to load config", err, "")
	}
	logger.Init(cfg.Logging.Level)
	defer logger.Sync()

	addr := cfg.Addr()
	if setFlags["addr"] {
		addr = *addrFlag
	}
	dbPath := cfg.Server.DBPath
	if setFlags["db"] {
		dbPath = *dbFlag
	}

	st, err := store.Open(dbPath)
	if err != nil {
		shutdown.Abort("failed to open store", err, dbPath)
	}
	defer st.Close()

	ctx, cancel := shutdown.SetupSignalHandler(context.Background())
	defer cancel()

	stopRetention, err := retention.Start(ctx, cfg.Retention, st)
	if err != nil {
		shutdown.Abort("failed to start retention", err, dbPath)
	}
	defer stopRetention()

	srv := api.New(st, mutate.NewRegistry(), poke.NewHub(), api.RateLimit{
		RPS:   cfg.Security.RateLimit.RPS,
		Burst: cfg.Security.RateLimit.Burst,
	})

	srcs := []string{"defaults"}
	if len(setFlags) > 0 {
		srcs = append(srcs, "flags")
	}
	verStr := version
	if commit != "none" {
		verStr = verStr + " (" + commit + ")"
	}
	banner.Print(addr, dbPath, strings.Join(srcs, ", "), verStr)

	httpSrv := &http.Server{
		Addr:    addr,
		Handler: srv.Router(),
		// no WriteTimeout: poke subscribers hold their response open
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- httpSrv.ListenAndServe() }()
	logger.Info("server_listening", "addr", addr)

	select {
	case err := <-errc:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			shutdown.Abort("http server failed", err, dbPath)
		}
	case <-ctx.Done():
		logger.Info("server_shutting_down")
		sctx, scancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer scancel()
		if err := httpSrv.Shutdown(sctx); err != nil {
			logger.Error("server_shutdown_error", "error", err)
		}
	}
	logger.Info("server_stopped")
}
