// Package server exposes the repositories over a fiber HTTP API. Handlers
// return domain errors; the app-level error handler maps them to status
// codes and a JSON error body.
package server

import (
	"context"
	"errors"
	"time"

	"docstore/internal/shared/contextkeys"
	apperrors "docstore/internal/shared/errors"
	"docstore/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
)

// HealthFunc reports whether the backing services are reachable.
type HealthFunc func(ctx context.Context) error

// New builds the fiber app with the standard middleware chain and a /health
// endpoint. Resource routes are registered separately under /api/v1.
func New(log logger.Logger, health HealthFunc) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "docstore API v1.0",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		ErrorHandler: errorHandler(log),
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(requestID())

	app.Get("/health", func(c *fiber.Ctx) error {
		healthCtx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
		defer cancel()

		if health != nil {
			if err := health(healthCtx); err != nil {
				log.Error("Health check failed: ", err)
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"status": "UNHEALTHY",
					"error":  err.Error(),
				})
			}
		}
		return c.JSON(fiber.Map{
			"status":    "HEALTHY",
			"timestamp": time.Now().UTC(),
		})
	})

	return app
}

// API returns the /api/v1 group resource handlers register under.
func API(app *fiber.App) fiber.Router {
	return app.Group("/api/v1")
}

// requestID propagates the caller's X-Request-ID or assigns one, making it
// available to handlers through the user context and echoing it back.
func requestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.SetUserContext(context.WithValue(c.UserContext(), contextkeys.RequestIDKey, id))
		c.Set("X-Request-ID", id)
		return c.Next()
	}
}

func errorHandler(log logger.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(fiber.Map{
				"error": fiber.Map{"message": fiberErr.Message},
			})
		}

		status := apperrors.HTTPStatus(err)
		if status >= fiber.StatusInternalServerError {
			log.WithContext(c.UserContext()).Error("HTTP error: ", err)
		}

		body := fiber.Map{"message": err.Error()}
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			body["message"] = appErr.Message
			if appErr.Code != "" {
				body["code"] = appErr.Code
			}
		}
		return c.Status(status).JSON(fiber.Map{"error": body})
	}
}
