package cli

import (
	"context"
	"log"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"quiz-session-service/internal/app"
	"quiz-session-service/internal/config"
	"quiz-session-service/internal/infra/memory"
	"quiz-session-service/internal/infra/mongodb"
	"quiz-session-service/internal/infra/postgres"
	rediscache "quiz-session-service/internal/infra/redis"
	"quiz-session-service/internal/session"
)

type services struct {
	quizzes *app.QuizService
	catalog *app.CatalogService
	auth    *app.AuthService
	closers []func()
}

func (s *services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// buildServices connects the configured stores (postgres, then mongo, then memory)
// and the optional redis cache, and assembles the use-case services.
func buildServices(ctx context.Context, cfg config.Config) (*services, error) {
	svc := &services{}

	var (
		quizStore  app.QuizStore
		scoreStore app.ScoreStore
		userStore  app.UserStore
	)
	switch {
	case cfg.Postgres.URL != "":
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}
		svc.closers = append(svc.closers, pool.Close)
		quizStore = postgres.NewQuizStore(pool)
		scoreStore = postgres.NewScoreStore(pool)
		userStore = postgres.NewUserStore(pool)
		log.Printf("using postgres store")
	case cfg.Mongo.URI != "":
		client, err := mongodb.Connect(ctx, cfg.Mongo.URI)
		if err != nil {
			return nil, err
		}
		svc.closers = append(svc.closers, func() { _ = client.Disconnect(context.Background()) })
		db := client.Database(cfg.Mongo.Database)
		if err := mongodb.EnsureIndexes(ctx, db); err != nil {
			svc.Close()
			return nil, err
		}
		quizStore = mongodb.NewQuizStore(db)
		scoreStore = mongodb.NewScoreStore(db)
		userStore = mongodb.NewUserStore(db)
		log.Printf("using mongo store (database %s)", cfg.Mongo.Database)
	default:
		quizStore = memory.NewQuizStore()
		scoreStore = memory.NewScoreStore()
		userStore = memory.NewUserStore()
		log.Printf("using in-memory store; data is lost on restart")
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	attemptTTL := config.TTLDuration(cfg.Attempt.TTL, config.TTLDuration(cfg.Redis.TTL, 2*time.Hour))

	var (
		quizRepo app.QuizRepository
		attempts app.AttemptRepository
	)
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		svc.closers = append(svc.closers, func() { _ = client.Close() })
		quizRepo = rediscache.NewQuizRepository(client, quizStore, quizTTL)
		attempts = rediscache.NewAttemptStore(client, attemptTTL)
	} else {
		quizRepo = memory.NewQuizRepository(quizStore, quizTTL)
		attempts = memory.NewAttemptStore()
	}

	svc.quizzes = app.NewQuizService(attempts, quizRepo, quizStore, scoreStore, session.NewDeriver(), sessionOptions(cfg))
	svc.catalog = app.NewCatalogService(quizStore, quizRepo, scoreStore)

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		secret = "quiz-session-dev-secret"
		log.Printf("auth.jwtSecret not set; using an insecure development secret")
	}
	svc.auth = app.NewAuthService(userStore, secret, config.TTLDuration(cfg.Auth.TokenTTL, time.Hour))
	return svc, nil
}

// bootstrap creates the admin account and seeds the sample catalog when it is empty.
func bootstrap(ctx context.Context, svc *services, cfg config.Config) error {
	admin, created, err := svc.auth.EnsureAdmin(ctx, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword)
	if err != nil {
		return err
	}
	if created {
		log.Printf("created admin account %q", admin.Username)
	}
	n, err := svc.catalog.SeedSamples(ctx, admin, sampleQuizzes())
	if err != nil {
		return err
	}
	if n > 0 {
		log.Printf("seeded %d sample quizzes", n)
	}
	return nil
}

// sessionOptions maps the quiz section onto session.Options. The cap is taken as
// configured because config.Load already starts from the default of 30, so an
// explicit 0 (or any negative value) turns the limit off.
func sessionOptions(cfg config.Config) session.Options {
	opts := session.DefaultOptions()
	opts.Cap = cfg.Quiz.Cap
	if cfg.Quiz.RepeatFactor > 0 {
		opts.RepeatFactor = cfg.Quiz.RepeatFactor
	}
	if cfg.Quiz.PassThreshold > 0 {
		opts.PassThreshold = cfg.Quiz.PassThreshold
	}
	return opts
}
