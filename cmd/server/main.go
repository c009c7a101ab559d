package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	httpapi "github.com/livestage/livestage/internal/api/http"
	appAccess "github.com/livestage/livestage/internal/application/access"
	appActivation "github.com/livestage/livestage/internal/application/activation"
	appLeaderboard "github.com/livestage/livestage/internal/application/leaderboard"
	appRoom "github.com/livestage/livestage/internal/application/room"
	appScoring "github.com/livestage/livestage/internal/application/scoring"
	appSession "github.com/livestage/livestage/internal/application/session"
	appVote "github.com/livestage/livestage/internal/application/vote"
	"github.com/livestage/livestage/internal/config"
	"github.com/livestage/livestage/internal/domain/activation"
	"github.com/livestage/livestage/internal/domain/participant"
	"github.com/livestage/livestage/internal/domain/room"
	"github.com/livestage/livestage/internal/domain/session"
	"github.com/livestage/livestage/internal/domain/vote"
	"github.com/livestage/livestage/internal/infrastructure/keystore"
	"github.com/livestage/livestage/internal/infrastructure/memory"
	"github.com/livestage/livestage/internal/infrastructure/postgres"
	"github.com/livestage/livestage/internal/infrastructure/sse"
)

type roomStore interface {
	room.Repository
	Ensure(ctx context.Context, rm *room.Room) error
}

type repositories struct {
	rooms        roomStore
	sessions     session.Repository
	activations  activation.Repository
	participants participant.Repository
	votes        vote.Repository
	close        func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLogger := zerolog.New(os.Stderr)
		bootLogger.Fatal().Err(err).Msg("config error")
	}
	logger := zerolog.New(os.Stdout).Level(cfg.LogLevel).With().Timestamp().Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repos, err := openRepositories(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("store error")
	}
	defer repos.close()

	if cfg.SeedRoomID != uuid.Nil {
		seed := &room.Room{RoomID: cfg.SeedRoomID, TenantID: uuid.Nil, Code: cfg.SeedRoomCode, Name: "Seed room", Active: true, CreatedAt: time.Now().UTC()}
		if err := repos.rooms.Ensure(ctx, seed); err != nil {
			logger.Fatal().Err(err).Msg("seed room error")
		}
		logger.Info().Str("room_id", cfg.SeedRoomID.String()).Msg("seed room ready")
	}

	formula, err := appScoring.NewFormula(cfg.ScoringFormula)
	if err != nil {
		logger.Fatal().Err(err).Msg("scoring formula error")
	}

	keyStore, err := keystore.NewFromEnv()
	if err != nil {
		logger.Fatal().Err(err).Msg("operator keys error")
	}

	// infrastructure
	hub := sse.NewHub(logger)
	defer hub.Stop()

	// services
	coordinator := appSession.NewCoordinator(repos.sessions, repos.activations, hub, logger)
	leaderboardSvc := appLeaderboard.NewService(repos.participants, hub, logger)
	activationSvc := appActivation.NewService(repos.activations, repos.rooms, coordinator, hub, logger)
	voteSvc := appVote.NewService(repos.votes, repos.activations, repos.participants, hub, logger)
	scoringSvc := appScoring.NewService(repos.activations, repos.participants, leaderboardSvc, formula, logger)
	roomSvc := appRoom.NewService(repos.rooms, repos.participants, repos.activations, coordinator, voteSvc, leaderboardSvc, hub, logger)
	checker := appAccess.NewKeyChecker(keyStore, logger)

	// API server
	apiServer := httpapi.NewServer(httpapi.Services{
		Rooms:       roomSvc,
		Activations: activationSvc,
		Sessions:    coordinator,
		Votes:       voteSvc,
		Scoring:     scoringSvc,
		Leaderboard: leaderboardSvc,
	}, hub, checker, logger)

	httpServer := &http.Server{
		Addr:        cfg.ServerAddr,
		Handler:     apiServer.Router(),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	httpServer.RegisterOnShutdown(apiServer.CloseStreams)

	sweeper := appVote.NewSweeper(voteSvc, cfg.VoteRetryInterval, cfg.VoteRetryBatch, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sweeper.Run(gctx)
	})
	g.Go(func() error {
		logger.Info().Str("addr", cfg.ServerAddr).Str("driver", cfg.StoreDriver).Msg("http server started")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	// graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(ctxShutdown)
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("server stopped with error")
	}
	logger.Info().Msg("server stopped")
}

func openRepositories(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*repositories, error) {
	if cfg.StoreDriver == config.StoreMemory {
		store := memory.NewStore()
		return &repositories{
			rooms:        store.Rooms(),
			sessions:     store.Sessions(),
			activations:  store.Activations(),
			participants: store.Participants(),
			votes:        store.Votes(),
			close:        func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := postgres.RunMigrations(ctx, pool, cfg.MigrationsDir, logger); err != nil {
		pool.Close()
		return nil, err
	}
	return &repositories{
		rooms:        postgres.NewRoomRepository(pool),
		sessions:     postgres.NewSessionRepository(pool),
		activations:  postgres.NewActivationRepository(pool),
		participants: postgres.NewParticipantRepository(pool),
		votes:        postgres.NewVoteRepository(pool),
		close:        pool.Close,
	}, nil
}
