package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/theoremus-urban-solutions/subway-feeds/service"
)

// NewServer builds the HTTP surface over the feed service. The API is
// read-only; every route answers from the same aggregation service.
func NewServer(svc *service.Service) *fiber.App {
	webApp := fiber.New()
	webApp.Use(NewLogger())

	group := webApp.Group("/map")
	group.Get("/vehicles", func(c *fiber.Ctx) error {
		return c.JSON(svc.FetchVehicles(c.Context(), queryLines(c)))
	})
	group.Get("/arrivals/:stationID", func(c *fiber.Ctx) error {
		return c.JSON(svc.FetchArrivals(c.Context(), c.Params("stationID")))
	})
	group.Get("/alerts", func(c *fiber.Ctx) error {
		return c.JSON(svc.FetchAlerts(c.Context(), queryLines(c)))
	})
	group.Get("/snapshot", func(c *fiber.Ctx) error {
		return c.JSON(svc.FetchAll(c.Context(), queryLines(c)))
	})

	webApp.Get("/api/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":            "ok",
			"mode":              svc.Mode(),
			"latest_feed_epoch": svc.LatestFeedEpoch(),
		})
	})

	return webApp
}

// queryLines parses the optional comma-separated lines filter, e.g.
// ?lines=A,C,E. Empty means no filter.
func queryLines(c *fiber.Ctx) []string {
	raw := c.Query("lines")
	if raw == "" {
		return nil
	}
	var lines []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			lines = append(lines, part)
		}
	}
	return lines
}
