package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"synthvault/config"
	"synthvault/native/bank"
	nativecommon "synthvault/native/common"
	"synthvault/native/oracle"
	"synthvault/native/synth"
	"synthvault/observability/logging"
	"synthvault/observability/metrics"
	"synthvault/rpc"
)

// custodyReserve seeds the vault account so liquidation rewards can be
// paid out before any fees accrue.
var custodyReserve = new(big.Int).Exp(big.NewInt(10), big.NewInt(24), nil)

// blockClock derives a logical block height from wall time at a fixed
// interval. The engine only needs monotonicity, not consensus.
type blockClock struct {
	height atomic.Uint64
}

func (c *blockClock) Height() uint64 {
	return c.height.Load()
}

func (c *blockClock) run(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.height.Add(1)
		case <-stop:
			return
		}
	}
}

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	logger := logging.Setup("synthvaultd", cfg.Env)

	admin, err := cfg.Admin()
	if err != nil {
		logger.Error("Failed to resolve admin address", slog.Any("error", err))
		os.Exit(1)
	}
	custody, err := cfg.Custody()
	if err != nil {
		logger.Error("Failed to resolve custody address", slog.Any("error", err))
		os.Exit(1)
	}

	params := synth.RiskParameters{
		MinCollateralRatio:      cfg.Risk.MinCollateralRatio,
		LiquidationThreshold:    cfg.Risk.LiquidationThreshold,
		LiquidationBonusPct:     cfg.Risk.LiquidationBonusPct,
		LiquidationPenaltyPct:   cfg.Risk.LiquidationPenaltyPct,
		MintingFeeBps:           cfg.Risk.MintingFeeBps,
		CooldownBlocks:          cfg.Risk.CooldownBlocks,
		OracleStalenessLimit:    cfg.Risk.OracleStalenessLimit,
		MaxPositionPct:          cfg.Risk.MaxPositionPct,
		MinDiversifiedRiskScore: cfg.Risk.MinDiversifiedRiskScore,
	}.Normalise()

	pauses := nativecommon.NewPauseRegistry(admin)
	registry := oracle.NewRegistry(admin)

	feed := oracle.NewFeed(registry, cfg.MinOracleConfidence, params.OracleStalenessLimit)
	feed.SetPauses(pauses)

	ledger := bank.NewLedger()
	if err := ledger.Credit(custody, custodyReserve); err != nil {
		logger.Error("Failed to seed custody reserve", slog.Any("error", err))
		os.Exit(1)
	}

	engine := synth.NewEngine(custody, params)
	engine.SetState(synth.NewMemoryState())
	engine.SetPauses(pauses)
	engine.SetPriceSource(feed)
	engine.SetLedger(ledger)

	clock := &blockClock{}
	stop := make(chan struct{})
	defer close(stop)
	go clock.run(time.Duration(cfg.BlockIntervalSeconds)*time.Second, stop)

	server := rpc.NewServer(engine, feed, registry, pauses, ledger, clock)

	router := chi.NewRouter()
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Handle("/metrics", promhttp.Handler())
	router.Handle("/rpc", server)

	metrics.Synth().SetPaused(false)

	logger.Info("Starting RPC server",
		slog.String("address", cfg.RPCAddress),
		slog.String("admin", admin.String()),
		slog.String("custody", custody.String()),
	)
	httpServer := &http.Server{
		Addr:              cfg.RPCAddress,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := httpServer.ListenAndServe(); err != nil {
		logger.Error("RPC server terminated", slog.Any("error", err))
		os.Exit(1)
	}
}
