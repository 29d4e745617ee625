package server

import (
	"encoding/json"
	"log/slog"

	"github.com/aaronromeo/mailtrim/internal/cleanup"
	"github.com/aaronromeo/mailtrim/internal/matchers"
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
)

const (
	defaultOlderThanDays = 30
	kindInvalid          = "invalid"
)

var errMissingCredentials = errors.New("email and password are required")

type cleanupRequest struct {
	Email         string `json:"email"`
	Password      string `json:"password"`
	Domains       string `json:"domains"`
	Keywords      string `json:"keywords"`
	OlderThanDays *int   `json:"older_than_days"`
	Days          *int   `json:"days"`
	Action        string `json:"action"`
	DryRun        *bool  `json:"dry_run"`
}

func (r cleanupRequest) olderThanDays() int {
	switch {
	case r.OlderThanDays != nil:
		return *r.OlderThanDays
	case r.Days != nil:
		return *r.Days
	default:
		return defaultOlderThanDays
	}
}

type undoRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type handlers struct {
	workflows Workflows
	logger    *slog.Logger
}

// Home renders the home view
func (h *handlers) Home(c *fiber.Ctx) error {
	return c.Render("index", fiber.Map{
		"Title":         "mailtrim",
		"OlderThanDays": defaultOlderThanDays,
	})
}

func (h *handlers) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (h *handlers) NotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"status": "error",
		"error":  "not found",
		"kind":   kindInvalid,
	})
}

func (h *handlers) Cleanup(c *fiber.Ctx) error {
	var req cleanupRequest
	if err := decode(c, &req); err != nil {
		return invalid(c, err)
	}
	if req.Email == "" || req.Password == "" {
		return invalid(c, errMissingCredentials)
	}
	days := req.olderThanDays()
	if days < 0 {
		return invalid(c, errors.Errorf("older_than_days must not be negative, got %d", days))
	}
	dryRun := true
	if req.DryRun != nil {
		dryRun = *req.DryRun
	}

	rule := matchers.NewRule(matchers.SplitList(req.Domains), matchers.SplitList(req.Keywords)).
		WithAge(matchers.Days(days))
	result, err := h.workflows.Quarantine(c.UserContext(), cleanup.QuarantineRequest{
		Credentials: cleanup.Credentials{User: req.Email, Password: req.Password},
		Rule:        rule,
		Action:      req.Action,
		DryRun:      dryRun,
	})
	if err != nil {
		body := errorBody(err)
		// messages already copied and flagged before the failure
		if result != nil && len(result.Moved) > 0 {
			body["moved"] = result.Moved
		}
		return c.Status(statusFor(cleanup.KindOf(err))).JSON(body)
	}
	h.logger.Info("cleanup request finished",
		slog.String("status", string(result.Status)),
		slog.Int("count", result.Count),
		slog.Bool("dry_run", dryRun),
	)

	body := fiber.Map{
		"status": result.Status,
		"count":  result.Count,
	}
	switch {
	case result.State == cleanup.StateDryRunDone:
		body["samples"] = nonNil(result.Samples)
	case result.State == cleanup.StateMoved:
		body["moved"] = nonNil(result.Moved)
	}
	return c.JSON(body)
}

func (h *handlers) Undo(c *fiber.Ctx) error {
	var req undoRequest
	if err := decode(c, &req); err != nil {
		return invalid(c, err)
	}
	if req.Email == "" || req.Password == "" {
		return invalid(c, errMissingCredentials)
	}

	result, err := h.workflows.Restore(c.UserContext(), cleanup.RestoreRequest{
		Credentials: cleanup.Credentials{User: req.Email, Password: req.Password},
	})
	if err != nil {
		return workflowError(c, err)
	}
	h.logger.Info("undo request finished", slog.Int("restored", result.Restored))
	return c.JSON(fiber.Map{
		"status":   cleanup.StatusSuccess,
		"restored": result.Restored,
		"uids":     result.UIDs,
	})
}

func decode(c *fiber.Ctx, out any) error {
	if err := json.Unmarshal(c.Body(), out); err != nil {
		return errors.Wrap(err, "unable to decode request body")
	}
	return nil
}

func invalid(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"status": "error",
		"error":  err.Error(),
		"kind":   kindInvalid,
	})
}

func workflowError(c *fiber.Ctx, err error) error {
	return c.Status(statusFor(cleanup.KindOf(err))).JSON(errorBody(err))
}

func errorBody(err error) fiber.Map {
	return fiber.Map{
		"status": "error",
		"error":  err.Error(),
		"kind":   string(cleanup.KindOf(err)),
	}
}

func statusFor(kind cleanup.Kind) int {
	switch kind {
	case cleanup.KindAuth:
		return fiber.StatusUnauthorized
	case cleanup.KindFolder:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

func nonNil(results []matchers.MatchResult) []matchers.MatchResult {
	if results == nil {
		return []matchers.MatchResult{}
	}
	return results
}
