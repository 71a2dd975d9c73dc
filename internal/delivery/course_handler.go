package delivery

import (
	"net/http"
	"strconv"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/teetimes/internal/courses"
	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
)

type CourseHandler struct {
	svc courses.Service
	log *logger.ZapLogger
}

func NewCourseHandler(svc courses.Service, log *logger.ZapLogger) *CourseHandler {
	return &CourseHandler{svc: svc, log: log}
}

func idParam(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}

// --------------------------------------------------
// Courses
// --------------------------------------------------

// GET /courses
func (h *CourseHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListCourses(r.Context())
	if err != nil {
		fail(w, h.log, "failed to list courses", err)
		return
	}
	if list == nil {
		list = []*courses.Course{}
	}
	writeJSON(w, http.StatusOK, list)
}

// GET /courses/{course_id}
func (h *CourseHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "course_id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid course_id")
		return
	}
	c, err := h.svc.GetCourse(r.Context(), id)
	if err != nil {
		fail(w, h.log, "failed to load course", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// POST /admin/courses
func (h *CourseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var c courses.Course
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.svc.CreateCourse(r.Context(), &c); err != nil {
		fail(w, h.log, "failed to create course", err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// PUT /admin/courses/{course_id}
func (h *CourseHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "course_id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid course_id")
		return
	}
	var c courses.Course
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	c.ID = id
	if err := h.svc.UpdateCourse(r.Context(), &c); err != nil {
		fail(w, h.log, "failed to update course", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// DELETE /admin/courses/{course_id}
func (h *CourseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "course_id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid course_id")
		return
	}
	if err := h.svc.DeleteCourse(r.Context(), id); err != nil {
		fail(w, h.log, "failed to delete course", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PUT /admin/courses/{course_id}/image
func (h *CourseHandler) AttachImage(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "course_id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid course_id")
		return
	}
	var req struct {
		AssetID string `json:"assetId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AssetID == "" {
		writeError(w, http.StatusBadRequest, "missing assetId")
		return
	}
	c, err := h.svc.AttachImage(r.Context(), id, req.AssetID)
	if err != nil {
		fail(w, h.log, "failed to attach image", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// --------------------------------------------------
// Tee Times
// --------------------------------------------------

// GET /courses/{course_id}/tee-times?date=2026-05-01
func (h *CourseHandler) ListTeeTimes(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "course_id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid course_id")
		return
	}

	var date courses.Date
	if s := r.URL.Query().Get("date"); s != "" {
		d, err := courses.ParseDate(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		date = d
	}

	list, err := h.svc.ListTeeTimes(r.Context(), id, date)
	if err != nil {
		fail(w, h.log, "failed to list tee times", err)
		return
	}
	if list == nil {
		list = []*courses.TeeTime{}
	}
	writeJSON(w, http.StatusOK, list)
}

// POST /admin/courses/{course_id}/tee-times
func (h *CourseHandler) CreateTeeTime(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "course_id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid course_id")
		return
	}
	var t courses.TeeTime
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	t.CourseID = id
	if err := h.svc.CreateTeeTime(r.Context(), &t); err != nil {
		fail(w, h.log, "failed to create tee time", err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// DELETE /admin/tee-times/{tee_time_id}
func (h *CourseHandler) DeleteTeeTime(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "tee_time_id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid tee_time_id")
		return
	}
	if err := h.svc.DeleteTeeTime(r.Context(), id); err != nil {
		fail(w, h.log, "failed to delete tee time", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
