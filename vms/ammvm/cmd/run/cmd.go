// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package run

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/luxfi/database"
	"github.com/luxfi/database/badgerdb"
	"github.com/luxfi/database/memdb"
	"github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/luxfi/amm/vms/ammvm"
)

const (
	apiPath = "/ext/amm"

	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
)

func Command() *cobra.Command {
	c := &cobra.Command{
		Use:   "ammvm",
		Short: "Runs a single node AMM chain",
		RunE:  runFunc,
	}
	AddFlags(c.Flags())
	return c
}

func runFunc(c *cobra.Command, _ []string) error {
	cfg, err := ParseFlags(c.Flags())
	if err != nil {
		return err
	}
	logger := log.Root()

	ctx, stop := signal.NotifyContext(c.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDB(cfg.DBDir)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	vm := ammvm.New(cfg.VM, logger)
	if err := vm.Initialize(ctx, db, cfg.Genesis, nil, registry); err != nil {
		return fmt.Errorf("failed to initialize VM: %w", err)
	}
	if err := vm.SetState(ctx, ammvm.Ready); err != nil {
		return err
	}

	router, err := newRouter(ctx, vm, registry)
	if err != nil {
		return err
	}
	server := &http.Server{
		Addr: net.JoinHostPort(cfg.HTTPHost, strconv.Itoa(int(cfg.HTTPPort))),
		Handler: cors.New(cors.Options{
			AllowedOrigins:   cfg.AllowedOrigins,
			AllowCredentials: true,
		}).Handler(router),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("serving API",
			log.String("address", server.Addr),
			log.String("path", apiPath),
		)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return buildBlocks(ctx, vm, cfg.VM.BuildInterval, logger)
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return errors.Join(
			server.Shutdown(shutdownCtx),
			vm.Shutdown(shutdownCtx),
		)
	})
	return g.Wait()
}

func openDB(dir string) (database.Database, error) {
	if dir == "" {
		return memdb.New(), nil
	}
	db, err := badgerdb.New(dir, nil, "", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %q: %w", dir, err)
	}
	return db, nil
}

func newRouter(ctx context.Context, vm *ammvm.VM, registry *prometheus.Registry) (*mux.Router, error) {
	handlers, err := vm.CreateHandlers(ctx)
	if err != nil {
		return nil, err
	}

	router := mux.NewRouter()
	for path, handler := range handlers {
		router.Handle(apiPath+path, handler)
	}
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		health, err := vm.HealthCheck(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(health)
	}).Methods(http.MethodGet)
	return router, nil
}

// buildBlocks builds and accepts a block of pending transactions every
// interval until ctx is done.
func buildBlocks(ctx context.Context, vm *ammvm.VM, interval time.Duration, logger log.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		blk, err := vm.BuildBlock(ctx)
		if errors.Is(err, ammvm.ErrNoPendingTxs) {
			continue
		}
		if err != nil {
			logger.Warn("failed to build block", log.Err(err))
			continue
		}
		result, err := vm.AcceptBlock(ctx, blk)
		if err != nil {
			return fmt.Errorf("failed to accept block %s: %w", blk.ID(), err)
		}

		failed := 0
		for _, tx := range result.Txs {
			if tx.Err != nil {
				failed++
			}
		}
		logger.Info("accepted block",
			log.Stringer("blkID", result.BlockID),
			log.Uint64("height", result.Height),
			log.Int("numTxs", len(result.Txs)),
			log.Int("numFailed", failed),
		)
	}
}
