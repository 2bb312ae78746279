package routes

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/povlabs/povguard"
)

type upsertGrantRequest struct {
	Role         string `json:"role"`
	ResourceType string `json:"resourceType"`
	Action       string `json:"action"`
	Enabled      bool   `json:"enabled"`
}

type setChecklistItemRequest struct {
	Completed bool `json:"completed"`
}

func listGrants(svc *povguard.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		grants, err := svc.ListGrants(c.Context())
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(fiber.Map{"grants": grants})
	}
}

func upsertGrant(svc *povguard.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := povguard.PrincipalFromCtx(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "no authenticated principal")
		}

		var req upsertGrantRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "malformed body")
		}
		role, err := povguard.ParseRole(req.Role)
		if err != nil {
			return writeError(c, err)
		}
		resourceType, err := povguard.ParseResourceType(req.ResourceType)
		if err != nil {
			return writeError(c, err)
		}
		action, err := povguard.ParseAction(req.Action)
		if err != nil {
			return writeError(c, err)
		}

		grant, err := svc.UpsertGrant(c.Context(), principal, role, resourceType, action, req.Enabled)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(grant)
	}
}

func initiateLaunch(svc *povguard.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := povguard.PrincipalFromCtx(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "no authenticated principal")
		}
		launch, err := svc.InitiateLaunch(c.Context(), c.Params("id"), principal)
		if err != nil {
			return writeError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(launch)
	}
}

func getChecklist(svc *povguard.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := svc.LaunchChecklist(c.Context(), c.Params("id"))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(fiber.Map{"items": items})
	}
}

func setChecklistItem(svc *povguard.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := povguard.PrincipalFromCtx(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "no authenticated principal")
		}
		var req setChecklistItemRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "malformed body")
		}
		if err := svc.SetChecklistItem(c.Context(), c.Params("id"), c.Params("key"), req.Completed, principal); err != nil {
			return writeError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func validateLaunch(svc *povguard.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		result, err := svc.ValidateLaunch(c.Context(), c.Params("id"))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(result)
	}
}

func confirmLaunch(svc *povguard.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := povguard.PrincipalFromCtx(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "no authenticated principal")
		}
		launch, err := svc.ConfirmLaunch(c.Context(), c.Params("id"), c.Params("launchId"), principal)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(launch)
	}
}

func completePhaseApproval(svc *povguard.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := povguard.PrincipalFromCtx(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "no authenticated principal")
		}
		if err := svc.CompletePhaseApproval(c.Context(), c.Params("id"), c.Params("phaseId"), principal); err != nil {
			return writeError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func listAuditLogs(svc *povguard.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var actorID, action *string
		if v := c.Query("actorId"); v != "" {
			actorID = &v
		}
		if v := c.Query("action"); v != "" {
			action = &v
		}
		entries, err := svc.ListAuditLogs(c.Context(), actorID, action)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(fiber.Map{"entries": entries})
	}
}

// writeError maps domain errors onto the API's stable status codes.
func writeError(c *fiber.Ctx, err error) error {
	var verr *povguard.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"code":   "VALIDATION_FAILED",
			"valid":  false,
			"errors": verr.Errors,
		})
	case errors.Is(err, povguard.ErrPermissionDenied):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"code":   "FORBIDDEN",
			"reason": err.Error(),
		})
	case errors.Is(err, povguard.ErrAlreadyConfirmed):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"code": "ALREADY_CONFIRMED",
		})
	case errors.Is(err, povguard.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, "not found")
	case errors.Is(err, povguard.ErrInvalidInput):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "internal error")
	}
}
