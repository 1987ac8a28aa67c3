package quiz_server

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"meal-quiz/pkg/config"
	"meal-quiz/pkg/events"
	"meal-quiz/pkg/monitoring"
	"meal-quiz/pkg/navigation"
	"meal-quiz/pkg/questions"
	"meal-quiz/pkg/quiz"
	"meal-quiz/pkg/security"
	"meal-quiz/pkg/session"
	"meal-quiz/pkg/tracing"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Dependencies are the collaborators the server is built from.
type Dependencies struct {
	Questions *questions.Repository
	Store     session.Store
	Publisher events.Publisher
	Metrics   *monitoring.Metrics
	// Tracer is optional; requests are traced only when it is set.
	Tracer trace.TracerProvider
	Log    *zap.Logger
}

// QuizServer represents the main structure for the quiz server application.
type QuizServer struct {
	ctx            context.Context
	config         *config.Config
	SessionManager *SessionManager
	questions      *questions.Repository
	metrics        *monitoring.Metrics
	limiter        *security.RateLimiter
	log            *zap.Logger
	router         *gin.Engine
}

// NewQuizServer initializes a new QuizServer instance.
func NewQuizServer(ctx context.Context, cfg *config.Config, deps Dependencies) (*QuizServer, error) {
	if deps.Questions == nil {
		return nil, errors.New("quiz server: a question repository is required")
	}
	if deps.Store == nil {
		return nil, errors.New("quiz server: a session store is required")
	}
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}

	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	qs := &QuizServer{
		ctx:            ctx,
		config:         cfg,
		SessionManager: NewSessionManager(ctx, cfg.Session.MaxSessions, deps.Store, deps.Publisher, deps.Metrics, deps.Log),
		questions:      deps.Questions,
		metrics:        deps.Metrics,
		limiter:        security.NewRateLimiter(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window()),
		log:            deps.Log,
	}
	go qs.limiter.Run(ctx)

	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.SetHTMLTemplate(tmpl)
	router.Use(gin.Recovery())
	if cfg.Server.Mode == "debug" {
		router.Use(gin.Logger())
	}
	if deps.Tracer != nil {
		router.Use(tracing.GinMiddleware(deps.Tracer))
	}
	if deps.Metrics != nil {
		router.Use(deps.Metrics.MetricsMiddleware())
	}
	router.Use(security.Secure())
	qs.router = router
	qs.registerRoutes(router, deps)

	qs.log.Info("Quiz server started.")
	return qs, nil
}

func (qs *QuizServer) registerRoutes(router *gin.Engine, deps Dependencies) {
	router.GET("/health", qs.HealthHandler)
	if deps.Metrics != nil {
		router.GET("/metrics", deps.Metrics.PrometheusHandler())
	}

	pages := router.Group("/", clientIdentity())
	{
		pages.GET("/", qs.IndexHandler)
		pages.GET("/quiz/:q", qs.QuestionPageHandler)
		pages.POST("/quiz/:q/answer", qs.AnswerPageHandler)
		pages.POST("/quiz/:q/next", qs.NextPageHandler)
		pages.POST("/quiz/:q/random", qs.RandomPageHandler)
		pages.POST("/quiz/:q/goto", qs.GoToPageHandler)
		pages.POST("/session/reset-game", qs.ResetGamePageHandler)
		pages.POST("/session/full-reset", qs.FullResetPageHandler)
	}

	api := router.Group("/api", security.CORS(qs.config.CORS.AllowedOrigins), qs.limiter.Middleware(), clientIdentity())
	{
		api.GET("/questions", qs.ListQuestionsHandler)
		api.GET("/questions/count", qs.CountQuestionsHandler)
		api.GET("/questions/random", qs.RandomQuestionsHandler)
		api.GET("/questions/:id", qs.GetQuestionHandler)

		api.GET("/navigation/next", qs.NextNavigationHandler)
		api.GET("/navigation/random", qs.RandomNavigationHandler)
		api.GET("/navigation/goto", qs.GoToNavigationHandler)

		api.GET("/session", qs.SessionStateHandler)
		api.POST("/session/answers", qs.SubmitAnswerHandler)
		api.POST("/session/reset-game", qs.ResetGameHandler)
		api.POST("/session/full-reset", qs.FullResetHandler)
	}

	router.NoRoute(func(c *gin.Context) {
		c.HTML(http.StatusNotFound, "notfound.html", notFoundPage{Title: "Question not found", Requested: c.Request.URL.Path})
	})
}

// Handler returns the HTTP handler serving every route.
func (qs *QuizServer) Handler() http.Handler {
	return qs.router
}

// controller builds a quiz controller for the calling client at view.
func (qs *QuizServer) controller(c *gin.Context, view navigation.View) *quiz.Controller {
	return quiz.NewController(qs.questions, qs.SessionManager.For(clientID(c)), quiz.WithView(view))
}

// datasetFailed records a dataset error and logs it.
func (qs *QuizServer) datasetFailed(c *gin.Context, err error) {
	if qs.metrics != nil {
		qs.metrics.DatasetErrors.Inc()
	}
	qs.log.Error("Request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
}

// HealthHandler reports whether the question dataset can be served.
func (qs *QuizServer) HealthHandler(c *gin.Context) {
	total, err := qs.questions.Verify(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"questions":      total,
		"activeSessions": qs.SessionManager.ActiveSessions(),
	})
}

// Run serves until ctx is cancelled, then shuts down within five seconds.
func (qs *QuizServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + qs.config.Server.Port,
		Handler:           qs.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		qs.log.Info("Server running", zap.String("port", qs.config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	qs.log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	qs.log.Info("Server exiting")
	return nil
}
