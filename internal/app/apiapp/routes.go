package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/onojaonoja2/ekonex/internal/config"
	"github.com/onojaonoja2/ekonex/internal/domain/enums"
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
	"github.com/onojaonoja2/ekonex/internal/transport/http/handlers"
)

type Dependencies struct {
	AuthService         *authsvc.Service
	CatalogService      *catalogsvc.Service
	CertificateService  *certsvc.Service
	EnrollmentService   *enrollsvc.Service
	MediaService        *mediasvc.Service
	NotificationService *notifysvc.Service
	PaymentService      *paymentsvc.Service
	ProgressService     *progresssvc.Service
	QuizService         *quizsvc.Service
	TutorService        *tutorsvc.Service
	UserService         *userssvc.Service
	Logger              *zap.Logger
	Config              config.Config
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(deps.AuthService)
	profileHandler := handlers.NewProfileHandler(deps.UserService)
	courseHandler := handlers.NewCourseHandler(deps.CatalogService)
	enrollmentHandler := handlers.NewEnrollmentHandler(deps.EnrollmentService)
	paymentHandler := handlers.NewPaymentHandler(deps.PaymentService, deps.Logger)
	progressHandler := handlers.NewProgressHandler(deps.ProgressService)
	certificateHandler := handlers.NewCertificateHandler(deps.CertificateService)
	quizHandler := handlers.NewQuizHandler(deps.QuizService)
	tutorHandler := handlers.NewTutorHandler(deps.TutorService, deps.Logger)
	notificationHandler := handlers.NewNotificationHandler(deps.NotificationService)
	mediaHandler := handlers.NewMediaHandler(deps.MediaService)
	adminHandler := handlers.NewAdminHandler(deps.UserService, deps.CatalogService, deps.EnrollmentService)

	authMW := AuthMiddleware(deps.AuthService, deps.Logger)
	optionalAuthMW := OptionalAuthMiddleware(deps.AuthService)
	teachRoleMW := RequireRole(
		string(enums.RoleInstructor),
		string(enums.RoleSubAdmin),
		string(enums.RoleSystemAdmin),
	)
	adminRoleMW := RequireRole(
		string(enums.RoleSubAdmin),
		string(enums.RoleSystemAdmin),
	)

	r.Get("/healthz", healthHandler.Handle)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/refresh", authHandler.Refresh)
		r.With(authMW).Post("/logout", authHandler.Logout)
		r.With(authMW).Post("/logout_all", authHandler.LogoutAll)
	})

	r.With(authMW).Get("/me", profileHandler.Me)
	r.With(authMW).Put("/me", profileHandler.Update)

	r.Route("/courses", func(r chi.Router) {
		r.Get("/", courseHandler.List)
		r.With(authMW, teachRoleMW).Post("/", courseHandler.Create)
		r.With(authMW, teachRoleMW).Get("/mine", courseHandler.ListMine)

		r.Route("/{courseID}", func(r chi.Router) {
			r.With(optionalAuthMW).Get("/", courseHandler.Get)
			r.With(authMW, teachRoleMW).Put("/", courseHandler.Update)
			r.With(authMW, teachRoleMW).Delete("/", courseHandler.Delete)
			r.With(authMW, teachRoleMW).Post("/publish", courseHandler.Publish)
			r.With(authMW, teachRoleMW).Post("/modules", courseHandler.AddModule)
			r.With(authMW, teachRoleMW).Post("/lessons", courseHandler.AddLesson)
			r.With(authMW, teachRoleMW).Post("/media", mediaHandler.Upload)
			r.With(authMW).Get("/progress", progressHandler.CourseProgress)
			r.With(authMW).Get("/quizzes", quizHandler.List)
			r.With(authMW, teachRoleMW).Post("/quizzes", quizHandler.Create)
			r.With(authMW).Post("/certificate", certificateHandler.Claim)
			r.With(authMW).Get("/certificate", certificateHandler.Get)
			r.With(authMW, teachRoleMW).Post("/tutor/reindex", tutorHandler.Reindex)
		})
	})

	r.With(authMW, teachRoleMW).Put("/lessons/{lessonID}", courseHandler.UpdateLesson)

	r.Route("/enrollments", func(r chi.Router) {
		r.With(authMW).Post("/", enrollmentHandler.EnrollFree)
		r.With(authMW).Get("/", enrollmentHandler.ListMine)
	})

	r.Route("/payments", func(r chi.Router) {
		r.With(authMW).Post("/checkout", paymentHandler.Checkout)
		r.Post("/webhook", paymentHandler.Webhook)
		r.With(authMW).Get("/callback", paymentHandler.Callback)
		r.With(authMW).Get("/purchase", paymentHandler.GetPurchase)
	})

	r.With(authMW).Post("/progress", progressHandler.MarkComplete)

	r.Route("/quizzes/{quizID}", func(r chi.Router) {
		r.With(authMW).Get("/", quizHandler.Get)
		r.With(authMW).Post("/submit", quizHandler.Submit)
		r.With(authMW).Get("/attempts", quizHandler.ListAttempts)
		r.With(authMW, teachRoleMW).Post("/questions", quizHandler.AddQuestion)
	})

	r.Route("/questions/{questionID}", func(r chi.Router) {
		r.With(authMW, teachRoleMW).Put("/", quizHandler.UpdateQuestion)
		r.With(authMW, teachRoleMW).Delete("/", quizHandler.DeleteQuestion)
	})

	r.Get("/certificates/verify/{code}", certificateHandler.Verify)

	r.With(authMW).Post("/tutor/chat", tutorHandler.Chat)

	r.Route("/notifications", func(r chi.Router) {
		r.With(authMW).Get("/", notificationHandler.List)
		r.With(authMW).Post("/{notificationID}/read", notificationHandler.MarkRead)
		r.With(authMW).Post("/read_all", notificationHandler.MarkAllRead)
	})

	r.With(authMW).Get("/media/url", mediaHandler.SignedURL)

	r.Route("/admin", func(r chi.Router) {
		r.Use(authMW, adminRoleMW)
		r.Get("/users", adminHandler.ListUsers)
		r.Post("/users", adminHandler.CreateUser)
		r.Post("/enrollments", adminHandler.EnrollUser)
		r.Post("/users/{userID}/role", adminHandler.ChangeRole)
		r.Post("/users/{userID}/suspend", adminHandler.Suspend)
		r.Post("/users/{userID}/reinstate", adminHandler.Reinstate)
		r.Delete("/users/{userID}", adminHandler.DeleteUser)
		r.Get("/courses", adminHandler.ListCourses)
		r.Post("/courses/{courseID}/pause", adminHandler.PauseCourse)
	})
}
