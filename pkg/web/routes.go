package web

import "github.com/gofiber/fiber/v3"

// Register mounts the outreach endpoints on router.
func (h *APIHandlers) Register(router fiber.Router) {
	router.Get("/health", h.HealthCheck)

	w := router.Group("/workflow")
	w.Get("/", h.GetWorkflow)
	w.Put("/", h.UpdateWorkflow)
	w.Get("/plan", h.GetPlan)

	s := router.Group("/sender")
	s.Get("/", h.GetSender)
	s.Put("/", h.UpdateSender)

	l := router.Group("/leads")
	l.Get("/", h.GetLeads)
	l.Post("/", h.AddLead)
	l.Post("/import", h.ImportLeads)
	l.Post("/reset", h.ResetLeads)
	l.Delete("/:index", h.DeleteLead)

	r := router.Group("/runs")
	r.Get("/", h.GetRuns)
	r.Post("/", h.StartRun)
	r.Get("/current", h.GetCurrentRun)
	r.Post("/current/cancel", h.CancelRun)
	r.Get("/:id", h.GetRun)

	router.Get("/log", h.GetLog)
	router.Delete("/log", h.ClearLog)
}
