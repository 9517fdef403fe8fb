package server

import (
	"context"
	"strconv"
	"strings"

	"docstore/internal/repository"
	apperrors "docstore/internal/shared/errors"
	"docstore/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
)

// Resource is the repository surface a handler exposes. Both the plain
// repository and the cached decorator satisfy it.
type Resource[T repository.SingleKeyed[T, K], K comparable] interface {
	Add(ctx context.Context, model *T) (T, error)
	Update(ctx context.Context, model *T) (T, error)
	Delete(ctx context.Context, model *T) error
	Get(ctx context.Context, key K) (T, error)
	List(ctx context.Context) ([]T, error)
}

// KeyParser turns the :id path segment into a typed document key.
type KeyParser[K comparable] func(raw string) (K, error)

// StringKey parses string document keys.
func StringKey(raw string) (string, error) { return raw, nil }

// IntKey parses integer document keys.
func IntKey(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.NewValidationError("document key must be an integer")
	}
	return n, nil
}

// ResourceHandler registers CRUD routes for one model type under its
// container name, lowercased: /invoices, /invoices/:id and so on.
type ResourceHandler[T repository.SingleKeyed[T, K], K comparable] struct {
	name     string
	repo     Resource[T, K]
	parseKey KeyParser[K]
	log      logger.Logger
}

// NewResourceHandler builds a handler for one resource. name is usually the
// repository's ContainerID.
func NewResourceHandler[T repository.SingleKeyed[T, K], K comparable](name string, repo Resource[T, K], parseKey KeyParser[K], log logger.Logger) *ResourceHandler[T, K] {
	return &ResourceHandler[T, K]{
		name:     name,
		repo:     repo,
		parseKey: parseKey,
		log:      log.WithComponent("http"),
	}
}

// Register mounts the resource routes on the router, typically the /api/v1
// group.
func (h *ResourceHandler[T, K]) Register(router fiber.Router) {
	group := router.Group("/" + strings.ToLower(h.name))
	group.Get("/", h.list)
	group.Post("/", h.create)
	group.Get("/:id", h.get)
	group.Put("/:id", h.update)
	group.Delete("/:id", h.remove)
}

func (h *ResourceHandler[T, K]) list(c *fiber.Ctx) error {
	models, err := h.repo.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(models)
}

func (h *ResourceHandler[T, K]) get(c *fiber.Ctx) error {
	key, err := h.parseKey(c.Params("id"))
	if err != nil {
		return err
	}
	model, err := h.repo.Get(c.UserContext(), key)
	if err != nil {
		return err
	}
	return c.JSON(model)
}

func (h *ResourceHandler[T, K]) create(c *fiber.Ctx) error {
	var model T
	if err := c.BodyParser(&model); err != nil {
		return apperrors.NewValidationError("invalid request body").WithCause(err)
	}
	created, err := h.repo.Add(c.UserContext(), &model)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *ResourceHandler[T, K]) update(c *fiber.Ctx) error {
	key, err := h.parseKey(c.Params("id"))
	if err != nil {
		return err
	}
	var model T
	if err := c.BodyParser(&model); err != nil {
		return apperrors.NewValidationError("invalid request body").WithCause(err)
	}
	// The path segment is authoritative for the document key.
	model = model.WithDocumentKey(key)
	updated, err := h.repo.Update(c.UserContext(), &model)
	if err != nil {
		return err
	}
	return c.JSON(updated)
}

func (h *ResourceHandler[T, K]) remove(c *fiber.Ctx) error {
	key, err := h.parseKey(c.Params("id"))
	if err != nil {
		return err
	}
	var model T
	model = model.WithDocumentKey(key)
	if err := h.repo.Delete(c.UserContext(), &model); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
