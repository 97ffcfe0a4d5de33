// handlers/battlepass_routes.go
package handlers

import (
	"errors"
	"time"

	"battlepass-backend/middleware"
	"battlepass-backend/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupBattlepassRoutes(app *fiber.App, bpService *services.BattlepassService, pointsService *services.PointsService) {
	// 🔐 Secured routes — require identity context forwarded by the Gateway
	secured := app.Group("/", middleware.IdentityContextMiddleware())

	secured.Post("/battlepasses/:id/join", func(c *fiber.Ctx) error {
		identityID := c.Locals("identity_id").(string)

		participant, err := bpService.JoinBattlepass(c.Params("id"), identityID)
		switch {
		case errors.Is(err, services.ErrNotJoinable):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, services.ErrAlreadyJoined):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, gorm.ErrRecordNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "battlepass not found"})
		case err != nil:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to join battlepass",
				"cause": err.Error(),
			})
		}
		return c.Status(fiber.StatusCreated).JSON(participant)
	})

	secured.Post("/participants/:id/claims/:rewardId", func(c *fiber.Ctx) error {
		claim, err := bpService.ClaimReward(c.Params("id"), c.Params("rewardId"))
		switch {
		case errors.Is(err, services.ErrClaimInFlight):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, services.ErrRewardUnavailable):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, gorm.ErrRecordNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "participant or reward not found"})
		case err != nil:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to claim reward",
				"cause": err.Error(),
			})
		}
		return c.Status(fiber.StatusCreated).JSON(claim)
	})

	secured.Get("/battlepasses/:id/points", func(c *fiber.Ctx) error {
		var since *time.Time
		if sinceStr := c.Query("since"); sinceStr != "" {
			parsed, err := time.Parse(time.RFC3339, sinceStr)
			if err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid since parameter, expected RFC3339"})
			}
			since = &parsed
		}

		entries, err := pointsService.Leaderboard(c.Params("id"), since)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to build leaderboard",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"entries": entries})
	})

	secured.Get("/battlepasses/:id/points/me", func(c *fiber.Ctx) error {
		identityID := c.Locals("identity_id").(string)
		total, err := pointsService.TotalPoints(c.Params("id"), identityID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to sum points",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"identity_id": identityID, "points": total})
	})

	// Admin endpoints
	admin := app.Group("/s/admin", middleware.IdentityContextMiddleware())

	admin.Post("/battlepasses", func(c *fiber.Ctx) error {
		var req struct {
			ChainID       string     `json:"chain_id"`
			OrgID         string     `json:"org_id"`
			Name          string     `json:"name"`
			StartDate     *time.Time `json:"start_date"`
			FreePasses    int        `json:"free_passes"`
			PremiumPasses int        `json:"premium_passes"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
		}
		if req.ChainID == "" || req.OrgID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "chain_id and org_id are required"})
		}
		start := time.Now().UTC()
		if req.StartDate != nil {
			start = *req.StartDate
		}

		bp, err := bpService.CreateBattlepass(req.ChainID, req.OrgID, req.Name, start, req.FreePasses, req.PremiumPasses)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to create battlepass",
				"cause": err.Error(),
			})
		}
		return c.Status(fiber.StatusCreated).JSON(bp)
	})

	admin.Post("/battlepasses/:id/close", func(c *fiber.Ctx) error {
		if err := bpService.CloseBattlepass(c.Params("id")); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"message": "battlepass closed"})
	})

	admin.Post("/battlepasses/:id/levels", func(c *fiber.Ctx) error {
		var req struct {
			Levels []services.LevelInput `json:"levels"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
		}

		levels, err := bpService.CreateLevels(c.Params("id"), req.Levels)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to create levels",
				"cause": err.Error(),
			})
		}
		return c.Status(fiber.StatusCreated).JSON(levels)
	})

	admin.Post("/battlepasses/:id/rewards", func(c *fiber.Ctx) error {
		var req struct {
			Name    string `json:"name"`
			CID     string `json:"cid"`
			Total   int    `json:"total"`
			Level   *int   `json:"level"`
			Premium bool   `json:"premium"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
		}
		if req.Total <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "total must be positive"})
		}

		reward, err := bpService.CreateReward(c.Params("id"), req.Name, req.CID, req.Total, req.Level, req.Premium)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to create reward",
				"cause": err.Error(),
			})
		}
		return c.Status(fiber.StatusCreated).JSON(reward)
	})

	admin.Post("/participants/:id/payment", func(c *fiber.Ctx) error {
		participant, err := bpService.PaymentReceived(c.Params("id"))
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "participant not found"})
		case err != nil:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(participant)
	})

	admin.Post("/battlepasses/:id/points/:identity/sync", func(c *fiber.Ctx) error {
		if err := bpService.SyncPoints(c.Params("id"), c.Params("identity")); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "battlepass not found"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to schedule points sync",
				"cause": err.Error(),
			})
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"message": "points sync scheduled"})
	})
}
