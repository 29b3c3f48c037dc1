package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/chazu/kerf/pkg/config"
	"github.com/chazu/kerf/pkg/store"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
)

// ============================================================
// HTTP Server
// ============================================================

type server struct {
	app     *App
	timeout time.Duration
}

type evaluateRequest struct {
	Source string `json:"source"`
}

type saveRequest struct {
	Name   string `json:"name"`
	Source string `json:"source"`
}

type saveResponse struct {
	Model  *store.Model `json:"model"`
	Result EvalResult   `json:"result"`
}

// newServer builds the fiber app with its middleware and routes.
func newServer(a *App, cfg *config.Config) *fiber.App {
	s := &server{app: a, timeout: cfg.Engine.EvalTimeout}

	f := fiber.New(fiber.Config{
		AppName:      "kerf",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10*time.Second + cfg.Engine.EvalTimeout,
	})

	f.Use(recover.New())
	f.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))

	f.Get("/health/live", s.live)
	f.Get("/health/ready", s.ready)

	f.Post("/evaluate", s.evaluate)

	f.Post("/models", s.saveModel)
	f.Get("/models", s.listModels)
	f.Get("/models/:id", s.getModel)
	f.Delete("/models/:id", s.deleteModel)

	return f
}

func (s *server) live(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "alive"})
}

func (s *server) ready(c fiber.Ctx) error {
	if s.app.store != nil {
		if err := s.app.store.Ping(c.Context()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable", "error": err.Error()})
		}
	}
	return c.JSON(fiber.Map{"status": "ready"})
}

// evaluate accepts either a JSON {"source": ...} body or the raw script.
func (s *server) evaluate(c fiber.Ctx) error {
	body := c.Body()
	if len(body) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "empty body"})
	}

	source := string(body)
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		var req evaluateRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
		}
		source = req.Source
	}

	ctx, cancel := context.WithTimeout(c.Context(), s.timeout)
	defer cancel()

	result, err := s.app.Evaluate(ctx, source)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if len(result.Errors) > 0 {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(result)
	}
	return c.JSON(result)
}

func (s *server) saveModel(c fiber.Ctx) error {
	var req saveRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
	}
	if req.Name == "" || req.Source == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name and source required"})
	}

	ctx, cancel := context.WithTimeout(c.Context(), s.timeout)
	defer cancel()

	m, result, err := s.app.SaveModel(ctx, req.Name, req.Source)
	switch {
	case err != nil:
		log.Printf("[MODELS] save %q: %v", req.Name, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	case m == nil:
		return c.Status(fiber.StatusUnprocessableEntity).JSON(saveResponse{Result: result})
	}
	return c.Status(fiber.StatusCreated).JSON(saveResponse{Model: m, Result: result})
}

func (s *server) listModels(c fiber.Ctx) error {
	if s.app.store == nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": errNoStore.Error()})
	}
	models, err := s.app.store.List(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(models)
}

func (s *server) getModel(c fiber.Ctx) error {
	if s.app.store == nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": errNoStore.Error()})
	}
	m, err := s.app.store.Get(c.Context(), c.Params("id"))
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(m)
}

func (s *server) deleteModel(c fiber.Ctx) error {
	if s.app.store == nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": errNoStore.Error()})
	}
	if err := s.app.store.Delete(c.Context(), c.Params("id")); err != nil {
		return storeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func storeError(c fiber.Ctx, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "model not found"})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
}
