package router

import (
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/consulto_backend/internal/api/http/handler"
	"github.com/Alijeyrad/consulto_backend/pkg/authorize"
)

const readinessTimeout = 2 * time.Second

func registerAuthRoutes(api fiber.Router, h *handler.AuthHandler, authRequired fiber.Handler) {
	a := api.Group("/auth")
	a.Post("/register", h.Register)
	a.Post("/login", h.Login)
	a.Post("/refresh", h.Refresh)
	a.Post("/logout", authRequired, h.Logout)
}

func registerUserRoutes(api fiber.Router, h *handler.UserHandler, rh *handler.ReviewHandler, authRequired fiber.Handler, requirePerm permFunc) {
	me := api.Group("/users/me", authRequired)
	me.Get("/", requirePerm(authorize.ResourceUser, authorize.ActionRead), h.GetMe)
	me.Patch("/", requirePerm(authorize.ResourceUser, authorize.ActionUpdate), h.UpdateMe)

	// Public directory.
	api.Get("/consultants", h.ListConsultants)

	c := api.Group("/consultant")
	c.Put("/profile", authRequired, requirePerm(authorize.ResourceConsultant, authorize.ActionUpdate), h.UpdateConsultantProfile)
	c.Get("/:id", h.GetConsultant)
	c.Get("/:id/availability", h.GetAvailability)
	c.Get("/:id/reviews", rh.ListForConsultant)
}

func registerBookingRoutes(api fiber.Router, h *handler.BookingHandler, authRequired fiber.Handler, requirePerm permFunc) {
	b := api.Group("/bookings", authRequired)
	b.Post("/", requirePerm(authorize.ResourceBooking, authorize.ActionCreate), h.Create)
	b.Get("/", requirePerm(authorize.ResourceBooking, authorize.ActionList), h.ListMine)

	one := b.Group("/:id")
	one.Get("/", requirePerm(authorize.ResourceBooking, authorize.ActionRead), h.Get)
	one.Put("/accept", requirePerm(authorize.ResourceBooking, authorize.ActionAccept), h.Accept)
	one.Put("/reject", requirePerm(authorize.ResourceBooking, authorize.ActionReject), h.Reject)
	one.Put("/cancel", requirePerm(authorize.ResourceBooking, authorize.ActionCancel), h.Cancel)
}

func registerChatRoutes(api fiber.Router, h *handler.ChatHandler, authRequired fiber.Handler, requirePerm permFunc) {
	c := api.Group("/chat", authRequired)
	c.Post("/request", requirePerm(authorize.ResourceChatRequest, authorize.ActionCreate), h.Open)
	c.Get("/requests", requirePerm(authorize.ResourceChatRequest, authorize.ActionList), h.ListRequests)
	c.Put("/requests/:id", requirePerm(authorize.ResourceChatRequest, authorize.ActionRespond), h.Respond)
	c.Post("/:chatRequestId/messages", requirePerm(authorize.ResourceMessage, authorize.ActionCreate), h.PostMessage)
	c.Get("/:chatRequestId/messages", requirePerm(authorize.ResourceMessage, authorize.ActionRead), h.ListMessages)
}

func registerReviewRoutes(api fiber.Router, h *handler.ReviewHandler, authRequired fiber.Handler, requirePerm permFunc) {
	api.Post("/reviews", authRequired, requirePerm(authorize.ResourceReview, authorize.ActionCreate), h.Post)
}

func registerHealthRecordRoutes(api fiber.Router, h *handler.HealthRecordHandler, authRequired fiber.Handler, requirePerm permFunc) {
	hr := api.Group("/health-records", authRequired)
	hr.Post("/", requirePerm(authorize.ResourceHealthRecord, authorize.ActionCreate), h.Append)
	hr.Post("/attachments", requirePerm(authorize.ResourceHealthRecord, authorize.ActionCreate), h.PresignAttachment)

	owner := api.Group("/users/:userId/health-records", authRequired, requirePerm(authorize.ResourceHealthRecord, authorize.ActionRead))
	owner.Get("/", h.List)
	owner.Get("/attachment", h.AttachmentURL)
}

func registerAdminRoutes(api fiber.Router, h *handler.AdminHandler, authRequired fiber.Handler, requirePerm permFunc) {
	a := api.Group("/admin", authRequired)
	a.Get("/consultants/pending", requirePerm(authorize.ResourceConsultant, authorize.ActionApprove), h.ListPendingConsultants)
	a.Put("/consultants/:id/approval", requirePerm(authorize.ResourceConsultant, authorize.ActionApprove), h.SetApproval)
	a.Get("/audit-logs", requirePerm(authorize.ResourceAudit, authorize.ActionRead), h.ListAuditLog)
	a.Get("/bookings", requirePerm(authorize.ResourceBooking, authorize.ActionManage), h.ListBookings)
}
