package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/catma/overlay/internal/service"
	"github.com/catma/overlay/pkg/overlayerr"
	"github.com/catma/overlay/pkg/response"
)

// OverlayHandler exposes HTTP endpoints over service.OverlayService.
type OverlayHandler struct {
	svc service.OverlayService
}

// NewOverlayHandler creates a handler backed by the given service.
func NewOverlayHandler(svc service.OverlayService) *OverlayHandler {
	return &OverlayHandler{svc: svc}
}

// Open handles POST /api/v1/standoff/open.
// Accepts a multipart form with a "file" field containing a version-5 TEI
// stand-off document. Returns JSON metadata about the collection.
func (h *OverlayHandler) Open(w http.ResponseWriter, r *http.Request) {
	data, err := readFormFile(r, "file")
	if err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	info, err := h.svc.Open(data)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, info)
}

// RoundTrip handles POST /api/v1/standoff/roundtrip.
// Accepts a stand-off document, parses it, re-serialises it, and returns
// the rewritten XML (spec §8 scenario 6).
func (h *OverlayHandler) RoundTrip(w http.ResponseWriter, r *http.Request) {
	data, err := readFormFile(r, "file")
	if err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	output, err := h.svc.RoundTrip(data)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/tei+xml")
	w.Header().Set("Content-Disposition", `attachment; filename="roundtrip.xml"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(output)
}

// Validate handles POST /api/v1/standoff/validate.
// Parses, round-trips, and re-parses the stand-off document, returning a
// JSON validation report comparing tagset/annotation counts.
func (h *OverlayHandler) Validate(w http.ResponseWriter, r *http.Request) {
	data, err := readFormFile(r, "file")
	if err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.svc.Validate(data)
	if err != nil {
		if result != nil {
			response.JSON(w, http.StatusUnprocessableEntity, map[string]any{
				"result": result,
				"error":  err.Error(),
			})
			return
		}
		writeEngineError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, result)
}

// Project handles POST /api/v1/project.
// Accepts a multipart form with a "source" field (the XML document to
// annotate) and a "standoff" field (the stand-off document naming the
// annotations to project). Returns the inline-annotated XML, with any
// out-of-bounds-anchor warnings (spec §7) surfaced as a response header.
func (h *OverlayHandler) Project(w http.ResponseWriter, r *http.Request) {
	source, err := readFormFile(r, "source")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "source: "+err.Error())
		return
	}
	standoff, err := readFormFile(r, "standoff")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "standoff: "+err.Error())
		return
	}

	result, err := h.svc.Project(source, standoff)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	for _, warning := range result.Warnings {
		w.Header().Add("X-Overlay-Warning", warning)
	}
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.XML)
}

// Merge handles POST /api/v1/standoff/merge.
// Accepts a multipart form with "first" and "second" fields (two stand-off
// documents) and optional "title"/"author" fields, and returns the merged
// collection, with tagsets deduplicated by id.
func (h *OverlayHandler) Merge(w http.ResponseWriter, r *http.Request) {
	first, err := readFormFile(r, "first")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "first: "+err.Error())
		return
	}
	second, err := readFormFile(r, "second")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "second: "+err.Error())
		return
	}

	title := r.FormValue("title")
	author := r.FormValue("author")

	output, err := h.svc.Merge(first, second, title, author)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/tei+xml")
	w.Header().Set("Content-Disposition", `attachment; filename="merged.xml"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(output)
}

// ConvertToText handles POST /api/v1/standoff/totext.
// Accepts a multipart form with a "standoff" field and a "source" field
// (the plain-text document the collection anchors against), and returns the
// stand-off document with its ptr/seg anchors replaced by literal text.
func (h *OverlayHandler) ConvertToText(w http.ResponseWriter, r *http.Request) {
	standoff, err := readFormFile(r, "standoff")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "standoff: "+err.Error())
		return
	}
	source, err := readFormFile(r, "source")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "source: "+err.Error())
		return
	}

	output, err := h.svc.ConvertToText(standoff, string(source))
	if err != nil {
		writeEngineError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(output)
}

// readFormFile extracts the named multipart field's bytes from the request.
func readFormFile(r *http.Request, field string) ([]byte, error) {
	if err := r.ParseMultipartForm(100 << 20); err != nil { // 100 MB max
		return nil, err
	}

	file, _, err := r.FormFile(field)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return io.ReadAll(file)
}

// writeEngineError maps an overlayerr taxonomy error (spec §7) to an HTTP
// status: any StructuralInvariantError is 500, every other error is 422.
// pkg/tei also returns StructuralInvariantError for some malformed input
// (a stand-off document missing teiHeader, text or body, a malformed ptr
// target, a ptr target past the end of the source text), so those
// requests get 500 as well.
func writeEngineError(w http.ResponseWriter, err error) {
	var structural *overlayerr.StructuralInvariantError
	if errors.As(err, &structural) {
		response.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	response.Error(w, http.StatusUnprocessableEntity, err.Error())
}
