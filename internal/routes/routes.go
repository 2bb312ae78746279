package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/povlabs/povguard"
)

// Setup wires the API surface. Every route runs behind the auth middleware;
// routes over unowned resources are additionally gated here, while PoV-scoped
// routes resolve ownership inside their handlers.
func Setup(app *fiber.App, svc *povguard.Service) {
	app.Use(povguard.AuthMiddleware())

	api := app.Group("/api/v1")

	perms := api.Group("/permissions")
	perms.Get("/", svc.RequirePermission(povguard.ResourcePermissions, povguard.ActionView), listGrants(svc))
	perms.Put("/", upsertGrant(svc))

	povs := api.Group("/povs")
	povs.Post("/:id/launch", initiateLaunch(svc))
	povs.Get("/:id/launch/checklist", getChecklist(svc))
	povs.Patch("/:id/launch/checklist/:key", setChecklistItem(svc))
	povs.Get("/:id/launch/validate", validateLaunch(svc))
	povs.Post("/:id/launch/:launchId/confirm", confirmLaunch(svc))
	povs.Post("/:id/phases/:phaseId/approval/complete", completePhaseApproval(svc))

	audit := api.Group("/audit")
	audit.Get("/", svc.RequirePermission(povguard.ResourceAudit, povguard.ActionView), listAuditLogs(svc))
}
