package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/annalza/mint-stock-flow/internal/events"
)

const shutdownTimeout = 10 * time.Second

// Application holds all the components and manages the application lifecycle
type Application struct {
	ctx       context.Context
	cancel    context.CancelFunc
	container *Container
	server    *http.Server
	consumer  events.ConsumerService
}

// NewApplication creates and fully initializes a new Application instance
func NewApplication(ctx context.Context) (*Application, error) {
	// Set up signal handling
	appCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)

	app := &Application{
		ctx:    appCtx,
		cancel: cancel,
	}

	// Initialize container (expensive singletons)
	container, err := NewContainer(app.ctx)
	if err != nil {
		cancel() // Clean up context if initialization fails
		return nil, err
	}
	app.container = container

	gin.SetMode(gin.ReleaseMode)
	factory := NewServiceFactory(container)

	ops, err := factory.CreateOperations()
	if err != nil {
		app.Shutdown()
		return nil, err
	}
	if err := ops.Restore(app.ctx, container.Config().SeedCatalog); err != nil {
		app.Shutdown()
		return nil, fmt.Errorf("failed to restore state: %w", err)
	}

	app.server = factory.CreateHTTPServer(ops)
	app.consumer = factory.CreateConsumerService(ops)

	app.container.Logger().Info("Application initialized successfully",
		zap.String("addr", app.server.Addr),
		zap.Bool("strict_issue", container.Config().StrictIssue),
	)
	return app, nil
}

// Run serves HTTP and consumes goods receipts until a signal arrives or the server fails
func (app *Application) Run() error {
	logger := app.container.Logger()

	go app.container.Hub().Run(app.ctx)

	if app.consumer != nil {
		go func() {
			if err := app.consumer.Start(app.ctx); err != nil {
				logger.Error("❌ Consumer stopped", zap.Error(err))
			}
		}()
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("🚀 HTTP server listening", zap.String("addr", app.server.Addr))
		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-app.ctx.Done():
		logger.Info("Signal received, stopping HTTP server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return app.server.Shutdown(ctx)
}

// Shutdown gracefully shuts down all application components
func (app *Application) Shutdown() {
	if app.container != nil {
		app.container.Logger().Info("Starting application shutdown...")
	}

	// Cancel context
	if app.cancel != nil {
		app.cancel()
	}

	// Shutdown container
	if app.container != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		app.container.Shutdown(ctx)
	}
}
