package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/onojaonoja2/ekonex/internal/config"
	"github.com/onojaonoja2/ekonex/internal/infra/ai"
	"github.com/onojaonoja2/ekonex/internal/infra/httpclient"
	"github.com/onojaonoja2/ekonex/internal/infra/paystack"
	s3infra "github.com/onojaonoja2/ekonex/internal/infra/s3"
	pgrepo "github.com/onojaonoja2/ekonex/internal/repo/postgres"
	redrepo "github.com/onojaonoja2/ekonex/internal/repo/redis"
	authsvc "github.com/onojaonoja2/ekonex/internal/services/auth"
	catalogsvc "github.com/onojaonoja2/ekonex/internal/services/catalog"
	certsvc "github.com/onojaonoja2/ekonex/internal/services/certificates"
	enrollsvc "github.com/onojaonoja2/ekonex/internal/services/enrollments"
	mediasvc "github.com/onojaonoja2/ekonex/internal/services/media"
	notifysvc "github.com/onojaonoja2/ekonex/internal/services/notifications"
	paymentsvc "github.com/onojaonoja2/ekonex/internal/services/payments"
	progresssvc "github.com/onojaonoja2/ekonex/internal/services/progress"
	quizsvc "github.com/onojaonoja2/ekonex/internal/services/quizzes"
	tutorsvc "github.com/onojaonoja2/ekonex/internal/services/tutor"
	userssvc "github.com/onojaonoja2/ekonex/internal/services/users"
)

const catalogCacheTTL = time.Minute

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	s3         *minio.Client
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
	}

	var redisClient *goredis.Client
	if c, err := redrepo.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB); err != nil {
		log.Warn("redis init failed, continuing in degraded mode", zap.Error(err))
	} else {
		redisClient = c
	}

	var s3Client *minio.Client
	if c, err := s3infra.NewClient(s3infra.Config{
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		UseSSL:    cfg.S3.UseSSL,
	}); err != nil {
		log.Warn("s3 init failed, continuing in degraded mode", zap.Error(err))
	} else {
		s3Client = c
	}

	sessionRepo := redrepo.NewSessionRepo(redisClient)
	catalogCache := redrepo.NewCatalogCacheRepo(redisClient, catalogCacheTTL)
	userRepo := pgrepo.NewUserRepo(pool)
	courseRepo := pgrepo.NewCourseRepo(pool)
	lessonRepo := pgrepo.NewLessonRepo(pool)
	enrollmentRepo := pgrepo.NewEnrollmentRepo(pool)
	purchaseRepo := pgrepo.NewPurchaseRepo(pool)
	progressRepo := pgrepo.NewProgressRepo(pool)
	certificateRepo := pgrepo.NewCertificateRepo(pool)
	quizRepo := pgrepo.NewQuizRepo(pool)
	notificationRepo := pgrepo.NewNotificationRepo(pool)
	embeddingRepo := pgrepo.NewEmbeddingRepo(pool)

	paystackClient := paystack.NewClient(
		httpclient.New(cfg.Paystack.Timeout),
		cfg.Paystack.BaseURL,
		cfg.Paystack.SecretKey,
	)
	aiClient := ai.NewClient(
		httpclient.New(0),
		cfg.AI.BaseURL,
		cfg.AI.APIKey,
		cfg.AI.ChatModel,
		cfg.AI.EmbeddingModel,
	)

	jwtManager := authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL)
	authService := authsvc.NewService(jwtManager, authsvc.Dependencies{
		Users:    userRepo,
		Sessions: sessionRepo,
	}, cfg.Auth.RefreshTTL)
	userService := userssvc.NewService(userssvc.Dependencies{
		Store:    userRepo,
		Sessions: sessionRepo,
		Logger:   log,
	})
	catalogService := catalogsvc.NewService(catalogsvc.Dependencies{
		Courses: courseRepo,
		Lessons: lessonRepo,
		Cache:   catalogCache,
		Logger:  log,
	})
	enrollmentService := enrollsvc.NewService(enrollsvc.Dependencies{
		Enrollments: enrollmentRepo,
		Courses:     courseRepo,
		Users:       userRepo,
	})
	notificationService := notifysvc.NewService(notificationRepo, log)
	paymentService := paymentsvc.NewService(paymentsvc.Dependencies{
		Purchases:   purchaseRepo,
		Courses:     courseRepo,
		Users:       userRepo,
		Gateway:     paystackClient,
		Enrollments: enrollmentService,
		Notifier:    notificationService,
		CallbackURL: cfg.App.BaseURL + "/payments/callback",
		Logger:      log,
	})
	progressService := progresssvc.NewService(progresssvc.Dependencies{
		Progress:    progressRepo,
		Lessons:     lessonRepo,
		Enrollments: enrollmentService,
	})
	certificateService := certsvc.NewService(certsvc.Dependencies{
		Certificates: certificateRepo,
		Lessons:      lessonRepo,
		Progress:     progressRepo,
		Enrollments:  enrollmentService,
	})
	quizService := quizsvc.NewService(quizsvc.Dependencies{
		Quizzes:     quizRepo,
		Courses:     courseRepo,
		Enrollments: enrollmentService,
	})
	tutorService := tutorsvc.NewService(tutorsvc.Dependencies{
		Embeddings:    embeddingRepo,
		Lessons:       lessonRepo,
		Courses:       courseRepo,
		Enrollments:   enrollmentService,
		Client:        aiClient,
		StreamTimeout: cfg.AI.StreamTimeout,
		Logger:        log,
	})
	mediaStorage := mediasvc.NewS3Storage(s3Client, cfg.S3.Bucket)
	mediaService := mediasvc.NewService(mediaStorage)

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	RegisterRoutes(r, Dependencies{
		AuthService:         authService,
		CatalogService:      catalogService,
		CertificateService:  certificateService,
		EnrollmentService:   enrollmentService,
		MediaService:        mediaService,
		NotificationService: notificationService,
		PaymentService:      paymentService,
		ProgressService:     progressService,
		QuizService:         quizService,
		TutorService:        tutorService,
		UserService:         userService,
		Logger:              log,
		Config:              cfg,
	})

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		s3:         s3Client,
		httpRouter: r,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
