package handler_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/catma/overlay/internal/handler"
	"github.com/catma/overlay/internal/service"
)

// mockService implements service.OverlayService for testing handlers in
// isolation from the real engine.
type mockService struct {
	openFn      func([]byte) (*service.CollectionInfo, error)
	roundTripFn func([]byte) ([]byte, error)
	validateFn  func([]byte) (*service.ValidationResult, error)
	projectFn   func([]byte, []byte) (*service.ProjectResult, error)
	mergeFn     func([]byte, []byte, string, string) ([]byte, error)
	convertFn   func([]byte, string) ([]byte, error)
}

func (m *mockService) Open(data []byte) (*service.CollectionInfo, error) {
	if m.openFn != nil {
		return m.openFn(data)
	}
	return &service.CollectionInfo{TagsetCount: 1, AnnotationCount: 2, TextLength: 10}, nil
}

func (m *mockService) RoundTrip(data []byte) ([]byte, error) {
	if m.roundTripFn != nil {
		return m.roundTripFn(data)
	}
	return data, nil
}

func (m *mockService) Validate(data []byte) (*service.ValidationResult, error) {
	if m.validateFn != nil {
		return m.validateFn(data)
	}
	return &service.ValidationResult{
		Info:         &service.CollectionInfo{TagsetCount: 1},
		OriginalSize: len(data),
		OutputSize:   len(data),
		Success:      true,
	}, nil
}

func (m *mockService) Project(source, standoff []byte) (*service.ProjectResult, error) {
	if m.projectFn != nil {
		return m.projectFn(source, standoff)
	}
	return &service.ProjectResult{XML: source}, nil
}

func (m *mockService) Merge(data1, data2 []byte, title, author string) ([]byte, error) {
	if m.mergeFn != nil {
		return m.mergeFn(data1, data2, title, author)
	}
	return data1, nil
}

func (m *mockService) ConvertToText(standoff []byte, source string) ([]byte, error) {
	if m.convertFn != nil {
		return m.convertFn(standoff, source)
	}
	return standoff, nil
}

func newMultipartRequest(t *testing.T, url string, fields map[string][]byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, data := range fields {
		fw, err := w.CreateFormFile(name, name+".xml")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write(data); err != nil {
			t.Fatal(err)
		}
	}
	w.Close()

	req := httptest.NewRequest(http.MethodPost, url, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestHealth(t *testing.T) {
	t.Parallel()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)

	handler.Health(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status=ok, got %s", body["status"])
	}
}

func TestOpenHandler_Success(t *testing.T) {
	t.Parallel()
	svc := &mockService{}
	h := handler.NewOverlayHandler(svc)

	req := newMultipartRequest(t, "/api/v1/standoff/open", map[string][]byte{"file": []byte("<TEI/>")})
	rec := httptest.NewRecorder()

	h.Open(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	var info service.CollectionInfo
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatal(err)
	}
	if info.AnnotationCount != 2 {
		t.Errorf("expected 2 annotations, got %d", info.AnnotationCount)
	}
}

func TestOpenHandler_NoFile(t *testing.T) {
	t.Parallel()
	svc := &mockService{}
	h := handler.NewOverlayHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/standoff/open", nil)
	req.Header.Set("Content-Type", "multipart/form-data")
	rec := httptest.NewRecorder()

	h.Open(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestRoundTripHandler_ReturnsXML(t *testing.T) {
	t.Parallel()
	testData := []byte("<TEI>fixture</TEI>")
	svc := &mockService{
		roundTripFn: func(data []byte) ([]byte, error) {
			return data, nil
		},
	}
	h := handler.NewOverlayHandler(svc)

	req := newMultipartRequest(t, "/api/v1/standoff/roundtrip", map[string][]byte{"file": testData})
	rec := httptest.NewRecorder()

	h.RoundTrip(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/tei+xml" {
		t.Errorf("expected content-type application/tei+xml, got %s", ct)
	}
	if !bytes.Equal(rec.Body.Bytes(), testData) {
		t.Error("response body doesn't match input")
	}
}

func TestValidateHandler_Success(t *testing.T) {
	t.Parallel()
	svc := &mockService{}
	h := handler.NewOverlayHandler(svc)

	req := newMultipartRequest(t, "/api/v1/standoff/validate", map[string][]byte{"file": []byte("<TEI/>")})
	rec := httptest.NewRecorder()

	h.Validate(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	var result service.ValidationResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if !result.Success {
		t.Error("expected success=true")
	}
}

func TestProjectHandler_Success(t *testing.T) {
	t.Parallel()
	xml := []byte(`<r>hello</r>`)
	svc := &mockService{
		projectFn: func(source, standoff []byte) (*service.ProjectResult, error) {
			return &service.ProjectResult{XML: source, Warnings: []string{"WARNING: test"}}, nil
		},
	}
	h := handler.NewOverlayHandler(svc)

	req := newMultipartRequest(t, "/api/v1/project", map[string][]byte{
		"source":   xml,
		"standoff": []byte("<TEI/>"),
	})
	rec := httptest.NewRecorder()

	h.Project(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !bytes.Equal(rec.Body.Bytes(), xml) {
		t.Error("response body doesn't match projected XML")
	}
	if got := rec.Header().Get("X-Overlay-Warning"); got != "WARNING: test" {
		t.Errorf("expected warning header, got %q", got)
	}
}

func TestProjectHandler_MissingSource(t *testing.T) {
	t.Parallel()
	svc := &mockService{}
	h := handler.NewOverlayHandler(svc)

	req := newMultipartRequest(t, "/api/v1/project", map[string][]byte{"standoff": []byte("<TEI/>")})
	rec := httptest.NewRecorder()

	h.Project(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestMergeHandler_Success(t *testing.T) {
	t.Parallel()
	merged := []byte("<TEI>merged</TEI>")
	svc := &mockService{
		mergeFn: func(d1, d2 []byte, title, author string) ([]byte, error) {
			return merged, nil
		},
	}
	h := handler.NewOverlayHandler(svc)

	req := newMultipartRequest(t, "/api/v1/standoff/merge", map[string][]byte{
		"first":  []byte("<TEI>one</TEI>"),
		"second": []byte("<TEI>two</TEI>"),
	})
	rec := httptest.NewRecorder()

	h.Merge(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !bytes.Equal(rec.Body.Bytes(), merged) {
		t.Error("response body doesn't match merged XML")
	}
}

func TestMergeHandler_MissingSecond(t *testing.T) {
	t.Parallel()
	svc := &mockService{}
	h := handler.NewOverlayHandler(svc)

	req := newMultipartRequest(t, "/api/v1/standoff/merge", map[string][]byte{"first": []byte("<TEI/>")})
	rec := httptest.NewRecorder()

	h.Merge(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestConvertToTextHandler_Success(t *testing.T) {
	t.Parallel()
	converted := []byte("<TEI>converted</TEI>")
	svc := &mockService{
		convertFn: func(standoff []byte, source string) ([]byte, error) {
			return converted, nil
		},
	}
	h := handler.NewOverlayHandler(svc)

	req := newMultipartRequest(t, "/api/v1/standoff/totext", map[string][]byte{
		"standoff": []byte("<TEI/>"),
		"source":   []byte("hello world"),
	})
	rec := httptest.NewRecorder()

	h.ConvertToText(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !bytes.Equal(rec.Body.Bytes(), converted) {
		t.Error("response body doesn't match converted XML")
	}
}
