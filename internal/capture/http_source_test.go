package capture

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPFrameFunc_DataURI(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("data:image/jpeg;base64,QUJD\n"))
	}))
	defer server.Close()

	a := NewAdapter(Config{Mode: ModeExternal, Frame: HTTPFrameFunc(server.URL, nil)})
	frame, _ := a.CaptureFrame(context.Background())
	if frame != "QUJD" {
		t.Errorf("expected QUJD, got %q", frame)
	}
}

func TestHTTPFrameFunc_RawImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("ABC"))
	}))
	defer server.Close()

	frame, err := HTTPFrameFunc(server.URL, nil)(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if frame != "QUJD" {
		t.Errorf("expected base64 of body, got %q", frame)
	}
}

func TestHTTPFrameFunc_NoContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	frame, err := HTTPFrameFunc(server.URL, nil)(context.Background())
	if err != nil || frame != "" {
		t.Errorf("expected empty frame, got %q %v", frame, err)
	}
}

func TestHTTPFrameFunc_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	if _, err := HTTPFrameFunc(server.URL, nil)(context.Background()); err == nil {
		t.Error("expected error for non-200 status")
	}
}
