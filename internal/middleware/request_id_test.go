package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestRequestID_Generated(t *testing.T) {
	var got string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if _, err := uuid.Parse(got); err != nil {
		t.Errorf("generated request id %q is not a UUID: %v", got, err)
	}
	if rec.Header().Get(RequestIDHeader) != got {
		t.Errorf("response header = %q, want %q", rec.Header().Get(RequestIDHeader), got)
	}
	if rec.Header().Get(TraceIDHeader) != "" {
		t.Error("trace header should be absent without an incoming trace id")
	}
}

func TestRequestID_Propagated(t *testing.T) {
	var gotRequest, gotTrace string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRequest = GetRequestID(r.Context())
		gotTrace = GetTraceID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-abc")
	req.Header.Set(TraceIDHeader, "trace-xyz")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if gotRequest != "req-abc" || gotTrace != "trace-xyz" {
		t.Errorf("got request=%q trace=%q", gotRequest, gotTrace)
	}
	if rec.Header().Get(TraceIDHeader) != "trace-xyz" {
		t.Errorf("trace header = %q", rec.Header().Get(TraceIDHeader))
	}
}
