package api

import (
	"fmt"
	"log"
	"net"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smartforge-lab/smartforge/internal/api/middleware"
	"github.com/smartforge-lab/smartforge/internal/chain"
	"github.com/smartforge-lab/smartforge/internal/compiler"
	"github.com/smartforge-lab/smartforge/internal/config"
	"github.com/smartforge-lab/smartforge/internal/services"
)

type APIServer struct {
	app       *fiber.App
	cfg       *config.Config
	validator *validator.Validate

	users         services.UserService
	projects      services.ProjectService
	subscriptions services.SubscriptionService
	jobs          services.JobService
	deploy        services.DeployService
	verification  services.VerificationService

	compiler *compiler.Compiler
	payments *chain.PaymentVerifier

	authConfig middleware.AuthConfig
	port       int
}

type Services struct {
	Users         services.UserService
	Projects      services.ProjectService
	Subscriptions services.SubscriptionService
	Jobs          services.JobService
	Deploy        services.DeployService
	Verification  services.VerificationService
}

func NewAPIServer(cfg *config.Config, svc Services, solc *compiler.Compiler, payments *chain.PaymentVerifier, authConfig middleware.AuthConfig) *APIServer {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	// Add middleware
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))

	server := &APIServer{
		app:           app,
		cfg:           cfg,
		validator:     validator.New(),
		users:         svc.Users,
		projects:      svc.Projects,
		subscriptions: svc.Subscriptions,
		jobs:          svc.Jobs,
		deploy:        svc.Deploy,
		verification:  svc.Verification,
		compiler:      solc,
		payments:      payments,
		authConfig:    authConfig,
	}
	server.setupRoutes()
	return server
}

func (s *APIServer) setupRoutes() {
	// Health check
	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(map[string]string{"status": "ok"})
	})
	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := s.app.Group("/api", middleware.AuthMiddleware(s.authConfig))

	api.Post("/compile", s.handleCompile)

	api.Post("/projects", s.handleCreateProject)
	api.Get("/projects", s.handleListProjects)
	api.Get("/projects/:id", s.handleGetProject)
	api.Put("/projects/:id", s.handleUpdateProject)
	api.Delete("/projects/:id", s.handleDeleteProject)

	api.Post("/projects/:id/deploy", s.handleDeployProject)
	api.Post("/projects/:id/record-deployment", s.handleRecordDeployment)
	api.Post("/projects/:id/verify", s.handleVerifyProject)

	api.Get("/jobs/:id", s.handleGetJob)

	api.Post("/subscriptions/payment-intent", s.handlePaymentIntent)
	api.Post("/subscriptions/verify-payment", s.handleVerifyPayment)
	api.Get("/subscriptions/current", s.handleCurrentSubscription)
}

// Start starts the server on the configured port; port 0 picks a random
// available one.
func (s *APIServer) Start(port int) (int, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return 0, fmt.Errorf("failed to listen on port %d: %w", port, err)
	}

	s.port = listener.Addr().(*net.TCPAddr).Port

	// Close the listener so Fiber can use it
	listener.Close()

	go func() {
		if err := s.app.Listen(fmt.Sprintf(":%d", s.port)); err != nil {
			log.Printf("Error starting API server: %v\n", err)
		}
	}()

	return s.port, nil
}

func (s *APIServer) Shutdown() error {
	return s.app.Shutdown()
}

func (s *APIServer) GetPort() int {
	return s.port
}

// App exposes the underlying Fiber app for tests.
func (s *APIServer) App() *fiber.App {
	return s.app
}
