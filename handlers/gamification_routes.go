// handlers/gamification_routes.go
package handlers

import (
	"log"
	"strconv"
	"time"

	"learning-progress-system/middleware"
	"learning-progress-system/models"
	"learning-progress-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupGamificationRoutes(app *fiber.App, badgeService *services.BadgeService,
	challengeService *services.ChallengeService, pointsService *services.PointsService) {

	secured := app.Group("/s", middleware.UserContextMiddleware())

	secured.Post("/language/:language/summary-read", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		language := c.Params("language")

		if err := badgeService.TrackSummaryRead(userID, language); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "couldn't update your progress",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"message": "summary tracked", "language": language})
	})

	secured.Post("/language/:language/quiz", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		language := c.Params("language")

		var req struct {
			Passed bool  `json:"passed"`
			Score  int64 `json:"score"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}

		if err := badgeService.TrackQuizCompletion(userID, language, req.Passed, req.Score); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "couldn't update your progress",
				"cause": err.Error(),
			})
		}

		progress, err := badgeService.LanguageProgress(userID, language)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to read language progress",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"message": "quiz tracked", "progress": progress})
	})

	secured.Get("/user/badges", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		badges, err := badgeService.ListUserBadges(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to get badges",
				"cause": err.Error(),
			})
		}
		return c.JSON(badges)
	})

	secured.Get("/user/challenges", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		challenges, err := challengeService.GetUserChallenges(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to get challenges",
				"cause": err.Error(),
			})
		}
		return c.JSON(challenges)
	})

	secured.Get("/user/points", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		summary, err := pointsService.GetPoints(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to get points",
				"cause": err.Error(),
			})
		}
		return c.JSON(summary)
	})

	secured.Get("/leaderboard", func(c *fiber.Ctx) error {
		scope := c.Query("scope", "global")
		limit, _ := strconv.Atoi(c.Query("limit", "20"))

		rows, err := pointsService.Leaderboard(scope, limit)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "failed to get leaderboard",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"scope": scope, "entries": rows})
	})

	// Admin endpoints
	adminGroup := app.Group("/s/admin", middleware.UserContextMiddleware())

	adminGroup.Post("/points/grant", func(c *fiber.Ctx) error {
		var req struct {
			UserID string `json:"user_id" validate:"required,uuid"`
			Points int64  `json:"points" validate:"required,min=1"`
			Reason string `json:"reason" validate:"max=255"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		if req.UserID == "" || req.Points <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "user_id and a positive points amount are required",
			})
		}

		reason := req.Reason
		if reason == "" {
			reason = "admin_grant"
		}
		if err := pointsService.Credit(req.UserID, req.Points, reason); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "points grant failed",
				"cause": err.Error(),
			})
		}
		if err := challengeService.UpdateProgress(req.UserID, models.TriggerXPEarned, req.Points); err != nil {
			log.Printf("⚠️ [ADMIN] xp_earned challenge trigger failed for %s: %v", req.UserID, err)
		}

		return c.JSON(fiber.Map{
			"message": "points granted successfully",
			"user_id": req.UserID,
			"points":  req.Points,
		})
	})

	adminGroup.Post("/challenges", func(c *fiber.Ctx) error {
		var req struct {
			ChallengeType models.ChallengeType    `json:"challenge_type"`
			Title         string                  `json:"title"`
			TriggerType   models.ChallengeTrigger `json:"trigger_type"`
			Target        int64                   `json:"target"`
			RewardXP      int64                   `json:"reward_xp"`
			ExpiresAt     time.Time               `json:"expires_at"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		if req.Title == "" || req.Target <= 0 || req.ExpiresAt.IsZero() {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "title, a positive target and expires_at are required",
			})
		}

		def := models.Challenge{
			ChallengeType: req.ChallengeType,
			Title:         req.Title,
			TriggerType:   req.TriggerType,
			Target:        req.Target,
			RewardXP:      req.RewardXP,
			ExpiresAt:     req.ExpiresAt,
		}
		if err := challengeService.CreateChallenge(&def); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to create challenge",
				"cause": err.Error(),
			})
		}
		return c.Status(fiber.StatusCreated).JSON(def)
	})
}
