package delivery

import (
	"net/http"

	"github.com/Vovarama1992/go-utils/httputil"
	"github.com/Vovarama1992/teetimes/internal/ports"
	"github.com/go-chi/chi/v5"
)

type Handlers struct {
	Auth     *AuthHandler
	Uploads  *UploadHandler
	Courses  *CourseHandler
	Bookings *BookingHandler
	Settings *SettingsHandler
	Webhooks *WebhookHandler
}

func RegisterRoutes(r chi.Router, h Handlers, authSvc ports.AuthService) {
	r.Use(httputil.RecoverMiddleware)

	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	// --- auth ---
	r.Post("/auth/login", h.Auth.Login)

	// --- public ---
	r.Get("/courses", h.Courses.List)
	r.Get("/courses/{course_id}", h.Courses.Get)
	r.Get("/courses/{course_id}/tee-times", h.Courses.ListTeeTimes)
	r.Post("/bookings", h.Bookings.Create)
	r.Get("/bookings/{reference}", h.Bookings.GetByReference)

	// --- webhooks ---
	r.Post("/webhooks/foreup", h.Webhooks.ForeUp)
	r.Post("/webhooks/{provider}", h.Webhooks.Payment)

	// --- admin ---
	r.Route("/admin", func(ar chi.Router) {
		ar.Use(AuthMiddleware(authSvc))

		ar.Post("/uploads/presign", h.Uploads.Presign)
		ar.Post("/uploads/complete", h.Uploads.Complete)
		ar.Post("/uploads/abort", h.Uploads.Abort)
		ar.Post("/uploads/direct", h.Uploads.Direct)

		ar.Post("/courses", h.Courses.Create)
		ar.Put("/courses/{course_id}", h.Courses.Update)
		ar.Delete("/courses/{course_id}", h.Courses.Delete)
		ar.Put("/courses/{course_id}/image", h.Courses.AttachImage)
		ar.Post("/courses/{course_id}/tee-times", h.Courses.CreateTeeTime)
		ar.Delete("/tee-times/{tee_time_id}", h.Courses.DeleteTeeTime)

		ar.Get("/bookings", h.Bookings.List)
		ar.Post("/bookings/{booking_id}/cancel", h.Bookings.Cancel)

		ar.Get("/settings", h.Settings.List)
		ar.Put("/settings", h.Settings.Set)
	})
}
