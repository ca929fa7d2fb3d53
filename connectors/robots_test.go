package connectors

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func TestRobotsGateDisallowedPath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			w.Write([]byte("User-agent: *\nDisallow: /carros\n"))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	gate := NewRobotsGate(server.URL, "TestBot/1.0", testLogger())

	if !gate.Allowed(server.URL + "/sobre") {
		t.Error("unrelated path should be allowed")
	}
	if gate.Allowed(server.URL + "/carros/listing-1") {
		t.Error("disallowed path should be blocked")
	}

	err := gate.Guard(server.URL + "/carros/listing-1")
	if !errors.Is(err, ErrFetchForbidden) {
		t.Errorf("Guard error = %v, want ErrFetchForbidden", err)
	}
	if err := gate.Guard(server.URL + "/sobre"); err != nil {
		t.Errorf("Guard on allowed path = %v, want nil", err)
	}
}

func TestRobotsGateUnreachableAllowsAll(t *testing.T) {
	// Nothing listens here, so the policy fetch fails.
	gate := NewRobotsGate("http://127.0.0.1:1", "TestBot/1.0", testLogger())

	if !gate.Allowed("http://127.0.0.1:1/carros/listing-1") {
		t.Error("unreachable robots.txt should default to allow")
	}
}

func TestRobotsGateNotFoundAllowsAll(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	gate := NewRobotsGate(server.URL, "TestBot/1.0", testLogger())
	if !gate.Allowed(server.URL + "/carros") {
		t.Error("missing robots.txt should default to allow")
	}
}
