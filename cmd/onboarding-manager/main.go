// cmd/onboarding-manager/main.go
package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	awsclient "candidate-onboarding/internal/common/aws"
	"candidate-onboarding/internal/common/camunda"
	"candidate-onboarding/internal/common/config"
	"candidate-onboarding/internal/common/database"
	"candidate-onboarding/internal/common/logger"
	"candidate-onboarding/internal/common/observability"

	"candidate-onboarding/internal/api"
	"candidate-onboarding/internal/integrations/gateway"
	"candidate-onboarding/internal/integrations/interview"
	"candidate-onboarding/internal/integrations/notify"
	"candidate-onboarding/internal/integrations/simulated"
	"candidate-onboarding/internal/models"
	"candidate-onboarding/internal/onboarding/coordinator"
	"candidate-onboarding/internal/onboarding/ledger"
	"candidate-onboarding/internal/onboarding/state"
	"candidate-onboarding/pkg/guidance"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// infra holds the connections opened at startup so they can be closed together.
type infra struct {
	pg     *database.PostgresClient
	redis  *database.RedisClient
	es     *database.ElasticsearchClient
	zeebe  *camunda.Client
	mirror *ledger.Mirror
	checks map[string]api.ReadinessCheck
}

func (i *infra) close() {
	if i.mirror != nil {
		i.mirror.Close()
	}
	if i.zeebe != nil {
		_ = i.zeebe.Close()
	}
	if i.redis != nil {
		_ = i.redis.Close()
	}
	if i.pg != nil {
		_ = i.pg.Close()
	}
}

func (i *infra) connectRedis(ctx context.Context, cfg config.RedisConfig, zapLog *zap.Logger) {
	if i.redis != nil {
		return
	}
	err := retryWithBackoff(func() error {
		var err error
		i.redis, err = database.NewRedis(cfg)
		if err != nil {
			return err
		}
		return i.redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	i.checks["redis"] = i.redis.Ping
	zapLog.Info("Redis connected successfully")
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.NewWithOptions(logger.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{
		"service": cfg.App.Name,
		"version": cfg.App.Version,
	})

	zapLog.Info("Starting onboarding manager...",
		zap.String("environment", cfg.App.Environment),
		zap.String("integrations", cfg.Integrations.Mode),
		zap.String("snapshot_backend", cfg.Snapshot.Backend),
	)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	obs := observability.New(cfg.App.Name, log)
	tracing, err := observability.NewTracing(cfg.App.Name, cfg.Tracing)
	if err != nil {
		zapLog.Fatal("tracing init failed", zap.Error(err))
	}

	in := &infra{checks: map[string]api.ReadinessCheck{}}
	defer in.close()

	// --- Snapshot store ---
	var store state.Store
	switch cfg.Snapshot.Backend {
	case config.SnapshotBackendPostgres:
		err = retryWithBackoff(func() error {
			var err error
			in.pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return in.pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		pgStore := state.NewPostgresStore(in.pg.DB, cfg.Snapshot.Table, cfg.Snapshot.Key)
		if err := pgStore.EnsureSchema(ctx); err != nil {
			zapLog.Fatal("snapshot schema failed", zap.Error(err))
		}
		in.checks["postgres"] = in.pg.Ping
		store = pgStore
		zapLog.Info("PostgreSQL connected successfully")
	case config.SnapshotBackendRedis:
		in.connectRedis(ctx, cfg.Database.Redis, zapLog)
		store = state.NewRedisStore(in.redis.Client, in.redis.Key("snapshot", cfg.Snapshot.Key), time.Duration(cfg.Snapshot.TTL)*time.Second)
	}

	// --- Ledger mirror ---
	var sink ledger.Sink
	if cfg.Database.Elasticsearch.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			in.es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return in.es.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		if err := in.es.EnsureIndex(ctx, cfg.Database.Elasticsearch.LedgerIndex, ledger.IndexMapping); err != nil {
			zapLog.Fatal("ledger index setup failed", zap.Error(err))
		}
		in.mirror = ledger.NewMirror(
			ledger.NewElasticIndexer(in.es.Client, cfg.Database.Elasticsearch.LedgerIndex),
			cfg.Database.Elasticsearch.BufferSize, log,
		)
		in.mirror.Start(ctx)
		in.checks["elasticsearch"] = in.es.Ping
		sink = in.mirror
		zapLog.Info("Elasticsearch connected successfully")
	}

	// --- Collaborators ---
	var (
		deps  coordinator.Collaborators
		flags *simulated.Flags
	)
	switch cfg.Integrations.Mode {
	case config.ModeSimulated:
		flags, err = simulated.NewFlags(cfg.Integrations.Simulated.Flags)
		if err != nil {
			zapLog.Fatal("invalid simulation flags", zap.Error(err))
		}
		sim := simulated.New(flags, config.GetDuration(cfg.Integrations.Simulated.Latency), log)
		deps = coordinator.Collaborators{
			Verifier:     sim,
			LinkSender:   sim,
			Readiness:    sim,
			Counterparts: sim,
			Interviews:   sim,
			Notifier:     sim,
			Prefiller:    sim,
			Sharer:       sim,
		}
		zapLog.Info("Simulated collaborators enabled", zap.Any("flags", flags.All()))
	case config.ModeLive:
		deps = liveCollaborators(ctx, cfg, in, log, zapLog)
		zapLog.Info("All external service clients initialized")
	}

	// --- Workflow ---
	op := models.Operator{ID: cfg.Operator.ID, Name: cfg.Operator.Name, BranchID: cfg.Operator.BranchID}
	wopts := []state.Option{}
	if store != nil {
		wopts = append(wopts, state.WithStore(store))
	}
	if sink != nil {
		wopts = append(wopts, state.WithLedgerSink(sink))
	}
	workflow := state.NewWorkflow(op, log, wopts...)

	coord := coordinator.New(workflow, deps, log,
		coordinator.WithBackoff(cfg.Retry.Backoff(), cfg.Retry.MaxAttempts),
		coordinator.WithTracer(tracing.Tracer()),
		coordinator.WithObservability(obs),
	)

	restored, err := workflow.Restore(ctx)
	if err != nil {
		zapLog.Fatal("snapshot restore failed", zap.Error(err))
	}
	if restored {
		if _, err := coord.Resume(ctx); err != nil {
			zapLog.Error("resume failed", zap.Error(err))
		}
	}

	catalog, err := guidance.LoadCatalog(cfg.Guidance.CatalogPath)
	if err != nil {
		zapLog.Fatal("guidance catalog load failed", zap.Error(err))
	}

	// --- HTTP server ---
	hopts := []api.Option{}
	if flags != nil {
		hopts = append(hopts, api.WithSimulationFlags(flags))
	}
	for name, check := range in.checks {
		hopts = append(hopts, api.WithReadinessCheck(name, check))
	}
	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      api.NewRouter(api.NewHandler(coord, catalog, log, hopts...)),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining requests...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("http shutdown failed", zap.Error(err))
	}
	coord.Shutdown()
	stop()
	if err := tracing.Shutdown(shutdownCtx); err != nil {
		zapLog.Warn("tracer shutdown failed", zap.Error(err))
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Warn("meter shutdown failed", zap.Error(err))
	}

	zapLog.Info("Onboarding manager stopped")
}

// liveCollaborators wires the gateway, AWS notifications and the Zeebe-backed
// interview service.
func liveCollaborators(ctx context.Context, cfg *config.Config, in *infra, log logger.Logger, zapLog *zap.Logger) coordinator.Collaborators {
	in.connectRedis(ctx, cfg.Database.Redis, zapLog)
	cache := gateway.NewCounterpartCache(in.redis.Client, cfg.Database.Redis.KeyPrefix,
		time.Duration(cfg.Integrations.Gateway.CounterpartCacheTTL)*time.Second)
	gw := gateway.New(gateway.Config{
		BaseURL: cfg.Integrations.Gateway.BaseURL,
		APIKey:  cfg.Integrations.Gateway.APIKey,
		Timeout: config.GetDuration(cfg.Integrations.Gateway.Timeout),
	}, cache, log)

	awsCfg, err := awsclient.LoadConfig(ctx, cfg.Integrations.AWS.Region)
	if err != nil {
		zapLog.Fatal("aws config load failed", zap.Error(err))
	}
	var (
		mail notify.Mailer
		sms  notify.Texter
	)
	if cfg.Integrations.AWS.SES.Enabled {
		mail = awsclient.NewSESClient(awsCfg, cfg.Integrations.AWS.SES.FromEmail)
	}
	if cfg.Integrations.AWS.SNS.Enabled {
		sms = awsclient.NewSNSClient(awsCfg, cfg.Integrations.AWS.SNS.DefaultSMSSenderID)
	}
	notifier := notify.New(mail, sms, notify.Config{
		ReadinessLinkURL: cfg.Integrations.Notifications.ReadinessLinkURL,
		FormLinkURL:      cfg.Integrations.Notifications.FormLinkURL,
		CounterpartEmail: cfg.Integrations.Notifications.CounterpartEmail,
		WhatsAppTopicARN: cfg.Integrations.AWS.SNS.WhatsAppTopicARN,
	}, log)

	err = retryWithBackoff(func() error {
		var err error
		in.zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	in.checks["zeebe"] = in.zeebe.HealthCheck
	zapLog.Info("Zeebe client connected successfully")

	interviews := interview.New(in.zeebe, interview.Config{
		ProcessID:  cfg.Camunda.InterviewProcessID,
		MessageTTL: config.GetDuration(cfg.Camunda.MessageTTL),
	}, log)

	return coordinator.Collaborators{
		Verifier:     gw,
		LinkSender:   notifier,
		Readiness:    gw,
		Counterparts: gw,
		Interviews:   interviews,
		Notifier:     notifier,
		Prefiller:    gw,
		Sharer:       notifier,
	}
}
