package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/IBM/sarama"
	"github.com/vogiaan1904/spacehost/config"
	"github.com/vogiaan1904/spacehost/internal/agent"
	grpcDelivery "github.com/vogiaan1904/spacehost/internal/delivery/grpc"
	httpDelivery "github.com/vogiaan1904/spacehost/internal/delivery/http"
	"github.com/vogiaan1904/spacehost/internal/delivery/kafka/consumer"
	"github.com/vogiaan1904/spacehost/internal/delivery/kafka/producer"
	"github.com/vogiaan1904/spacehost/internal/delivery/ws"
	"github.com/vogiaan1904/spacehost/internal/filler"
	"github.com/vogiaan1904/spacehost/internal/infra/redis"
	"github.com/vogiaan1904/spacehost/internal/plugins"
	repo "github.com/vogiaan1904/spacehost/internal/repository/redis"
	"github.com/vogiaan1904/spacehost/internal/room/memroom"
	"github.com/vogiaan1904/spacehost/internal/space"
	pkgKafka "github.com/vogiaan1904/spacehost/pkg/kafka"
	pkgLog "github.com/vogiaan1904/spacehost/pkg/logger"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	l := pkgLog.InitializeZapLogger(pkgLog.ZapConfig{
		Level:    cfg.Log.Level,
		Mode:     cfg.Log.Mode,
		Encoding: cfg.Log.Encoding,
	})
	defer l.Sync()

	character := agent.DefaultCharacter()
	if cfg.Agent.CharacterFile != "" {
		character, err = agent.LoadCharacter(cfg.Agent.CharacterFile)
		if err != nil {
			l.Fatalf(ctx, "Failed to load character: %v", err)
		}
	}
	rt := agent.NewRuntime(cfg.Agent.ID, character, cfg.Agent.Services)

	registry := plugins.NewRegistry(l)
	if err := plugins.RegisterBuiltins(registry, l); err != nil {
		l.Fatalf(ctx, "Failed to register plugins: %v", err)
	}

	rooms := memroom.NewHub(l, cfg.Agent.RoomBaseURL)
	wsHub := ws.NewHub(l)
	health := grpcDelivery.NewHealthReporter(l)
	sinks := space.MultiSink{wsHub, health}

	deps := space.Deps{
		Runtime: rt,
		Rooms:   rooms,
		Filler:  filler.NewPhraseBank(l),
		Plugins: registry,
		Logger:  l,
	}

	var historyRepo repo.SpaceHistoryRepository
	if cfg.Redis.Enabled {
		redisCli, err := redis.Connect(ctx, cfg.Redis, l)
		if err != nil {
			l.Fatalf(ctx, "Failed to connect to Redis: %v", err)
		}
		defer redis.Disconnect(context.Background(), redisCli, l)

		historyRepo = repo.NewRedisSpaceHistoryRepository(redisCli, l, rt.AgentID())
		deps.History = historyRepo
	}

	var kafkaConsGr sarama.ConsumerGroup
	if cfg.Kafka.Enabled {
		kafkaSyncProd, err := pkgKafka.NewProducer(ctx, pkgKafka.ProducerConfig{
			Brokers:      cfg.Kafka.Brokers,
			RetryMax:     cfg.Kafka.ProducerRetryMax,
			RequiredAcks: cfg.Kafka.ProducerRequiredAcks,
			ClientID:     rt.AgentID(),
		}, l)
		if err != nil {
			l.Fatalf(ctx, "Failed to initialize Kafka producer: %v", err)
		}
		prod := producer.NewProducer(kafkaSyncProd, l)
		defer prod.Close()

		deps.Announcer = prod
		sinks = append(sinks, prod)

		kafkaConsGr, err = pkgKafka.NewConsumer(ctx, pkgKafka.ConsumerConfig{
			Brokers: cfg.Kafka.Brokers,
			GroupID: cfg.Kafka.ConsumerGroupID,
		}, l)
		if err != nil {
			l.Fatalf(ctx, "Failed to initialize Kafka consumer: %v", err)
		}
	}
	deps.Sink = sinks

	mgr, err := space.New(space.ResolveOptions(character.Settings.Spaces), space.Config{
		IdlePollInterval: cfg.Agent.IdlePollInterval,
		ManageInterval:   cfg.Agent.ManageInterval,
	}, deps)
	if err != nil {
		l.Fatalf(ctx, "Failed to create space manager: %v", err)
	}
	if err := mgr.Restore(ctx); err != nil {
		l.Warnf(ctx, "Failed to restore space history: %v", err)
	}

	var history httpDelivery.HistoryReader
	if historyRepo != nil {
		history = historyRepo
	}
	h := httpDelivery.NewHTTPHandler(mgr, history, l)
	httpSrv := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler: httpDelivery.NewRouter(h, httpDelivery.RouterConfig{
			JWTSecret: cfg.JWT.Secret,
			Events:    wsHub,
		}, l),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	lnr, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Server.GRpcPort))
	if err != nil {
		l.Fatalf(ctx, "gRPC server failed to listen: %v", err)
	}
	gRpcSrv := grpc.NewServer()
	health.Register(gRpcSrv)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return mgr.Run(gctx)
	})

	g.Go(func() error {
		l.Infof(gctx, "HTTP server is listening on port: %d", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		l.Infof(gctx, "gRPC server is listening on port: %d", cfg.Server.GRpcPort)
		return gRpcSrv.Serve(lnr)
	})

	if kafkaConsGr != nil {
		cons := consumer.NewConsumer(kafkaConsGr, mgr, rt.AgentID(), l)
		if err := cons.Start(gctx); err != nil {
			l.Fatalf(ctx, "Failed to start Kafka consumer: %v", err)
		}
		g.Go(func() error {
			<-gctx.Done()
			return cons.Close()
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		l.Info(context.Background(), "Server shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Agent.ShutdownTimeout)
		defer cancel()

		mgr.RequestShutdown(shutdownCtx)
		health.Shutdown()
		gRpcSrv.GracefulStop()
		return httpSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		l.Errorf(context.Background(), "Server exited with error: %v", err)
		return
	}

	l.Info(context.Background(), "Server exited")
}
