package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	persistlog "rovercraft.ai/internal/persistence/log"
	"rovercraft.ai/internal/persistence/indexdb"
	"rovercraft.ai/internal/sim/tuning"
	"rovercraft.ai/internal/sim/world"
	"rovercraft.ai/internal/transport/observer"
)

func main() {
	var (
		addr       = flag.String("addr", "127.0.0.1:8080", "http listen address")
		worldID    = flag.String("world", "", "world id (default: tuning id)")
		seed       = flag.Int64("seed", 0, "terrain and herd seed (default: tuning seed)")
		configDir  = flag.String("configs", "./configs", "config directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite index (ticks, captures, chunks)")
		verbose    = flag.Bool("v", false, "log chunk creation and culling")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", tp)
		tune = tuning.Defaults()
	}
	if id := strings.TrimSpace(*worldID); id != "" {
		tune.ID = id
	}
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			tune.Seed = *seed
		}
	})

	w, err := world.New(tune.WorldConfig())
	if err != nil {
		logger.Fatalf("world: %v", err)
	}
	if *verbose {
		w.SetLogger(log.New(os.Stdout, "[world] ", log.LstdFlags|log.Lmicroseconds))
	}

	worldDir := filepath.Join(*dataDir, "worlds", tune.ID)
	runDir := filepath.Join(worldDir, "runs", time.Now().UTC().Format("20060102T150405Z"))
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		logger.Fatalf("run dir: %v", err)
	}
	if err := tuning.WriteJSON(filepath.Join(runDir, "tuning.json"), tune); err != nil {
		logger.Fatalf("record tuning: %v", err)
	}

	// Optional: read-model index backend (does not affect sim determinism).
	idx, err := openRuntimeIndex(worldDir, *disableDB)
	if err != nil {
		logger.Fatalf("open index backend: %v", err)
	}
	if idx != nil {
		defer idx.Close()
		if err := idx.RecordTuning(tune.ID, tune); err != nil {
			logger.Printf("index tuning: %v", err)
		}
	}

	tickLog := persistlog.NewTickLogger(runDir)
	eventLog := persistlog.NewEventLogger(runDir)
	defer tickLog.Close()
	defer eventLog.Close()
	if idx != nil {
		w.SetTickLogger(multiTickLogger{a: tickLog, b: idx})
		w.SetEventLogger(multiEventLogger{a: eventLog, b: idx})
	} else {
		w.SetTickLogger(tickLog)
		w.SetEventLogger(eventLog)
	}

	ctx, cancel := signalContext()
	defer cancel()

	worldDone := make(chan struct{})
	go func() {
		defer close(worldDone)
		if err := w.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("world stopped: %v", err)
		}
	}()

	obsSrv := observer.NewServer(w, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		var st *indexdb.Stats
		if idx != nil {
			s := idx.Stats()
			st = &s
		}
		writeMetrics(rw, tune.ID, w.Metrics(), st, obsSrv.InputsDropped())
	})
	mux.HandleFunc("/admin/v1/state", func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		resp := struct {
			WorldID string             `json:"world_id"`
			RunDir  string             `json:"run_dir"`
			Metrics world.WorldMetrics `json:"metrics"`
		}{
			WorldID: tune.ID,
			RunDir:  runDir,
			Metrics: w.Metrics(),
		}
		_ = json.NewEncoder(rw).Encode(resp)
	})
	mux.HandleFunc("/v1/observer/bootstrap", obsSrv.BootstrapHandler())
	mux.HandleFunc("/v1/observer/ws", obsSrv.WSHandler())
	if envBool("RC_ENABLE_PPROF_HTTP", false) {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("world %s seed=%d run=%s", tune.ID, tune.Seed, runDir)
	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Printf("ListenAndServe: %v", err)
		cancel()
	}
	<-worldDone
	logger.Printf("stopped at tick %d", w.CurrentTick())
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
