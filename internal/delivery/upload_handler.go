package delivery

import (
	"net/http"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/teetimes/internal/domain"
	"github.com/Vovarama1992/teetimes/internal/ports"
	"github.com/goccy/go-json"
)

type UploadHandler struct {
	svc ports.AssetService
	log *logger.ZapLogger
}

func NewUploadHandler(svc ports.AssetService, log *logger.ZapLogger) *UploadHandler {
	return &UploadHandler{svc: svc, log: log}
}

// POST /admin/uploads/presign
func (h *UploadHandler) Presign(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FileName string `json:"fileName"`
		Size     int64  `json:"size"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	out, err := h.svc.Presign(r.Context(), req.FileName, req.Size)
	if err != nil {
		fail(w, h.log, "failed to presign upload", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// POST /admin/uploads/complete
func (h *UploadHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key      string                `json:"s3Key"`
		UploadID string                `json:"uploadId"`
		Parts    []ports.CompletedPart `json:"parts"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	asset, err := h.svc.Complete(r.Context(), req.Key, req.UploadID, req.Parts)
	if err != nil {
		fail(w, h.log, "failed to complete upload", err)
		return
	}
	writeJSON(w, http.StatusOK, asset)
}

// POST /admin/uploads/abort
func (h *UploadHandler) Abort(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key      string `json:"s3Key"`
		UploadID string `json:"uploadId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.svc.Abort(r.Context(), req.Key, req.UploadID); err != nil {
		fail(w, h.log, "failed to abort upload", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /admin/uploads/direct (multipart form, field "file")
func (h *UploadHandler) Direct(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, domain.ChunkSize+1<<20)
	if err := r.ParseMultipartForm(domain.ChunkSize); err != nil {
		h.log.Log(logger.LogEntry{Level: "warn", Message: "invalid multipart", Error: err})
		writeError(w, http.StatusBadRequest, "invalid multipart")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file")
		return
	}
	defer file.Close()

	asset, err := h.svc.Put(r.Context(), header.Filename, file, header.Size)
	if err != nil {
		fail(w, h.log, "failed to upload file", err)
		return
	}
	writeJSON(w, http.StatusCreated, asset)
}
