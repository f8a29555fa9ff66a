/*
Copyright 2026 Jordi Gil.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Command imagewave-service wires the signal store, the vision LLM
// transport, the full wave registry and the ops/metrics surfaces into a
// running process. It is not the "outer pipeline registry" spec §1 scopes
// out — there is no HTTP intake endpoint here, just enough to run the
// library as a long-lived service and let an embedding caller (or a
// later, separately-scoped API layer) drive orchestrator.Analyze.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/jordigilh/imagewave/internal/config"
	"github.com/jordigilh/imagewave/pkg/autorouter"
	"github.com/jordigilh/imagewave/pkg/collab"
	"github.com/jordigilh/imagewave/pkg/contradiction"
	"github.com/jordigilh/imagewave/pkg/metrics"
	"github.com/jordigilh/imagewave/pkg/obslog"
	"github.com/jordigilh/imagewave/pkg/ocr"
	"github.com/jordigilh/imagewave/pkg/opsserver"
	"github.com/jordigilh/imagewave/pkg/orchestrator"
	"github.com/jordigilh/imagewave/pkg/store"
	"github.com/jordigilh/imagewave/pkg/visionllm"
	"github.com/jordigilh/imagewave/pkg/wave"
	"github.com/jordigilh/imagewave/pkg/wavecatalog"
	"github.com/jordigilh/imagewave/pkg/waveconfig"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the process YAML configuration")
	manifestDir := flag.String("wave-manifests", "", "optional directory of per-wave YAML manifests to hot-reload (spec §6)")
	analyzeOnce := flag.String("analyze", "", "run one image through the wave schedule, print the resulting profile as JSON, and exit (no servers started)")
	requestedSignals := flag.String("signals", "", "comma-separated signal keys to restrict -analyze to (empty means every wave)")
	flag.Parse()

	if err := run(*configPath, *manifestDir, *analyzeOnce, *requestedSignals); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath, manifestDir, analyzeOnce, requestedSignalsCSV string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	zlog, err := obslog.NewZapLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer zlog.Sync() //nolint:errcheck
	log := obslog.AsLogr(zlog)

	signalStore, closeStore, err := buildStore(cfg, zlog)
	if err != nil {
		return fmt.Errorf("build store: %w", err)
	}
	defer closeStore()

	visionClient, err := buildVisionLLM(cfg)
	if err != nil {
		return fmt.Errorf("build vision LLM client: %w", err)
	}

	registry := buildRegistry(cfg, signalStore, visionClient, zlog)

	if manifestDir != "" {
		watcher, err := waveconfig.NewWatcher(manifestDir, zlog)
		if err != nil {
			return fmt.Errorf("start wave manifest watcher: %w", err)
		}
		defer watcher.Close() //nolint:errcheck
		watcher.OnReload(func(manifests map[string]waveconfig.Manifest) {
			zlog.Info("wave manifests reloaded", zap.Int("count", len(manifests)))
		})
	}

	orch := orchestrator.New(registry, signalStore,
		orchestrator.WithLogger(log),
		orchestrator.WithMetrics(metrics.NewCollector()),
	)

	if analyzeOnce != "" {
		return runAnalyzeOnce(orch, analyzeOnce, requestedSignalsCSV)
	}

	opsSrv := opsserver.New(opsserver.Config{Addr: ":" + cfg.Server.Port}, signalStore, log)
	opsSrv.StartAsync()

	metricsSrv := metrics.NewServer(cfg.Server.MetricsPort, log)
	metricsSrv.StartAsync()

	zlog.Info("imagewave-service started",
		zap.String("ops_addr", ":"+cfg.Server.Port),
		zap.String("metrics_port", cfg.Server.MetricsPort),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	zlog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := opsSrv.Stop(shutdownCtx); err != nil {
		zlog.Warn("ops server shutdown error", zap.Error(err))
	}
	if err := metricsSrv.Stop(shutdownCtx); err != nil {
		zlog.Warn("metrics server shutdown error", zap.Error(err))
	}
	return nil
}

// runAnalyzeOnce drives the orchestrator for a single image and prints the
// resulting profile, mirroring the read-only introspection opsserver
// exposes over HTTP but for an operator working from a shell instead.
func runAnalyzeOnce(orch *orchestrator.Orchestrator, imagePath, requestedSignalsCSV string) error {
	var requested []string
	if requestedSignalsCSV != "" {
		requested = strings.Split(requestedSignalsCSV, ",")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	profile, err := orch.Analyze(ctx, imagePath, requested)
	if err != nil {
		return fmt.Errorf("analyze %s: %w", imagePath, err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(profile)
}

// buildStore wires the Redis-fronted, Postgres-backed tiered store and
// applies pending migrations. closeFn releases both connection pools.
func buildStore(cfg *config.Config, zlog *zap.Logger) (store.SignalStore, func(), error) {
	pg, err := store.NewPostgresStore(cfg.Store.DSN, cfg.Store.MaxOpenConns, cfg.Store.ConnMaxLifetime)
	if err != nil {
		return nil, nil, err
	}
	if err := store.Migrate(pg.DB()); err != nil {
		return nil, nil, fmt.Errorf("apply migrations: %w", err)
	}

	var cache *store.RedisCache
	if cfg.Cache.RedisAddr != "" {
		cache = store.NewRedisCache(cfg.Cache.RedisAddr, cfg.Cache.TTL)
	}

	tiered := store.NewTieredStore(cache, pg, zlog)
	closeFn := func() {
		if cache != nil {
			_ = cache.Close()
		}
		_ = pg.Close()
	}
	return tiered, closeFn, nil
}

func buildVisionLLM(cfg *config.Config) (collab.VisionLLMClient, error) {
	client, err := visionllm.New(visionllm.Config{
		Provider:    cfg.VisionLLM.Provider,
		Endpoint:    cfg.VisionLLM.Endpoint,
		Model:       cfg.VisionLLM.Model,
		Timeout:     cfg.VisionLLM.Timeout,
		RetryCount:  cfg.VisionLLM.RetryCount,
		Temperature: cfg.VisionLLM.Temperature,
		MaxTokens:   cfg.VisionLLM.MaxTokens,
	})
	if err != nil {
		return nil, err
	}
	return collab.NewGuardedVisionLLM(client), nil
}

// buildRegistry registers every wave in the catalog. Waves that depend on
// a collab.OCREngine or collab.EmbeddingModel are skipped with a startup
// warning when no such backend is configured: individual model backends
// are an explicit external plugin point (pkg/collab's doc comment), not
// something this process fabricates.
func buildRegistry(cfg *config.Config, st store.SignalStore, visionClient collab.VisionLLMClient, zlog *zap.Logger) *wave.Registry {
	registry := wave.NewRegistry()
	model := cfg.VisionLLM.Model

	registry.Register(wavecatalog.NewIdentityWave())
	registry.Register(wavecatalog.NewColorWave())
	registry.Register(autorouter.NewWave(st))
	registry.Register(wavecatalog.NewExifForensicsWave())
	registry.Register(wavecatalog.NewDigitalFingerprintWave())
	registry.Register(wavecatalog.NewTextDetectionWave())
	registry.Register(wavecatalog.NewFaceDetectionWave(visionClient, model))
	registry.Register(wavecatalog.NewStructureWave())
	registry.Register(wavecatalog.NewVisionLlmWave(visionClient, model))
	registry.Register(wavecatalog.NewMotionWave())
	registry.Register(wavecatalog.NewComplexModeWave())
	registry.Register(wavecatalog.NewTextLikelinessWave())
	registry.Register(wavecatalog.NewQualityWave())
	registry.Register(wavecatalog.NewMlOcrWave())

	slackToken := os.Getenv("SLACK_BOT_TOKEN")
	var notifier *contradiction.SlackNotifier
	if slackToken != "" {
		notifier = contradiction.NewSlackNotifier(slackToken, os.Getenv("SLACK_CHANNEL"))
	}
	registry.Register(contradiction.NewWave(contradiction.NewBuiltinRegistry(), true, notifier))

	ocrEngine, embeddingModel := externalCollaborators(zlog)
	if ocrEngine != nil {
		guarded := collab.NewGuardedOCREngine(ocrEngine)
		pipeline := ocr.NewPipeline(guarded, visionClient, model, ocr.DefaultConfig())
		registry.Register(ocr.NewAdvancedOcrWave(pipeline))
		registry.Register(ocr.NewSimpleOcrWave(guarded))
	} else {
		zlog.Warn("no collab.OCREngine configured; OCR waves disabled")
	}
	if embeddingModel != nil {
		guarded := collab.NewGuardedEmbeddingModel(embeddingModel)
		registry.Register(wavecatalog.NewEmbeddingWave(guarded))
		registry.Register(wavecatalog.NewClipEmbeddingWave(guarded))
	} else {
		zlog.Warn("no collab.EmbeddingModel configured; embedding waves disabled")
	}

	return registry
}

// externalCollaborators is the seam a deployment fills in with concrete
// OCR/embedding backends (Tesseract, CLIP, Florence-2, ...); none ship
// here (spec §1 Non-goals).
func externalCollaborators(*zap.Logger) (collab.OCREngine, collab.EmbeddingModel) {
	return nil, nil
}
