package internal

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestResponseWriter_WriteHeader_OnlyOnce(t *testing.T) {
	w := httptest.NewRecorder()
	rw := NewResponseWriter(w)

	rw.WriteHeader(http.StatusCreated)
	rw.WriteHeader(http.StatusNotFound)

	if rw.Status() != http.StatusCreated {
		t.Errorf("Status() = %d, want %d", rw.Status(), http.StatusCreated)
	}
	if w.Code != http.StatusCreated {
		t.Errorf("underlying status = %d, want %d", w.Code, http.StatusCreated)
	}
}

func TestResponseWriter_WriteImpliesOK(t *testing.T) {
	w := httptest.NewRecorder()
	rw := NewResponseWriter(w)

	if rw.Written() {
		t.Fatal("Written() = true before any write")
	}
	if _, err := rw.Write([]byte("hi")); err != nil {
		t.Fatal(err)
	}
	if !rw.Written() || w.Code != http.StatusOK {
		t.Errorf("Written() = %v, code = %d", rw.Written(), w.Code)
	}
}

func TestResponseWriter_OnBeforeWrite(t *testing.T) {
	w := httptest.NewRecorder()
	rw := NewResponseWriter(w)

	calls := 0
	rw.OnBeforeWrite(func() {
		calls++
		rw.Header().Set("X-Hook", "1")
	})
	rw.WriteHeader(http.StatusOK)
	rw.WriteHeader(http.StatusOK)

	if calls != 1 {
		t.Errorf("hook ran %d times, want 1", calls)
	}
	if w.Header().Get("X-Hook") != "1" {
		t.Error("hook header missing")
	}
}

func TestNewResponseWriter_Reuses(t *testing.T) {
	rw := NewResponseWriter(httptest.NewRecorder())
	if NewResponseWriter(rw) != rw {
		t.Error("expected wrapper to be reused")
	}
}
