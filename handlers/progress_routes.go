// handlers/progress_routes.go
package handlers

import (
	"errors"
	"strconv"

	"learning-progress-system/middleware"
	"learning-progress-system/models"
	"learning-progress-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupProgressRoutes(app *fiber.App, activityService *services.ActivityService,
	metricsService *services.MetricsService, skillService *services.SkillService) {

	secured := app.Group("/s", middleware.UserContextMiddleware())

	// Record one activity event. Downstream aggregation runs synchronously;
	// a failed aggregation step is logged server-side and does not fail the
	// request once the event itself is stored.
	secured.Post("/activity/track", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var req struct {
			ActivityType models.ActivityType `json:"activity_type"`
			ActivityData models.ActivityData `json:"activity_data"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}

		if err := activityService.Record(userID, req.ActivityType, req.ActivityData); err != nil {
			if errors.Is(err, services.ErrUnknownActivityType) || errors.Is(err, services.ErrMissingUser) {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": err.Error(),
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "couldn't update your progress",
				"cause": err.Error(),
			})
		}

		return c.JSON(fiber.Map{"message": "activity recorded"})
	})

	secured.Get("/activity/logs", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		days, _ := strconv.Atoi(c.Query("days", "30"))

		logs, err := activityService.GetLogs(userID, days)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to get activity logs",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"days": days, "logs": logs})
	})

	secured.Get("/user/metrics", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		m, err := metricsService.Get(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to get metrics",
				"cause": err.Error(),
			})
		}
		if m == nil {
			// No activity yet — zeros, not a 404
			return c.JSON(fiber.Map{
				"user_id":             userID,
				"course_completions":  0,
				"exercises_completed": 0,
				"total_time_spent":    0,
			})
		}
		return c.JSON(m)
	})

	secured.Get("/user/skills", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		skills, err := skillService.List(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to get skills",
				"cause": err.Error(),
			})
		}
		return c.JSON(skills)
	})
}
