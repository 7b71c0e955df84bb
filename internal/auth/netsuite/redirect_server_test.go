package netsuite

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"
)

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find free port: %v", err)
	}
	port := l.Addr().(*net.TCPAddr).Port
	l.Close()
	return port
}

func startTestServer(t *testing.T, state string, timeout time.Duration) (*RedirectServer, string) {
	t.Helper()
	port := freePort(t)
	uri := fmt.Sprintf("http://127.0.0.1:%d/callback", port)
	server, err := StartRedirectServer(uri, state, timeout)
	if err != nil {
		t.Fatalf("start redirect server: %v", err)
	}
	t.Cleanup(server.Stop)
	return server, uri
}

func get(t *testing.T, url string) string {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("callback request: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return string(body)
}

func TestRedirectServer_ValidCallback(t *testing.T) {
	server, uri := startTestServer(t, "state-ok", time.Minute)

	get(t, uri+"?code=auth-code-1&state=state-ok")

	result := server.Wait(context.Background())
	if result.Outcome != RedirectCompleted {
		t.Fatalf("expected Completed, got %v (%s)", result.Outcome, result.Reason)
	}
	if result.Code != "auth-code-1" {
		t.Fatalf("unexpected code: %s", result.Code)
	}
}

func TestRedirectServer_StateMismatch(t *testing.T) {
	server, uri := startTestServer(t, "expected-state", time.Minute)

	body := get(t, uri+"?code=auth-code-1&state=forged-state")
	if !strings.Contains(body, "State mismatch") {
		t.Fatalf("expected state-mismatch page, got %q", body)
	}

	result := server.Wait(context.Background())
	if result.Outcome != RedirectRejected {
		t.Fatalf("expected Rejected, got %v", result.Outcome)
	}
	if result.Code != "" {
		t.Fatalf("code must never be delivered on state mismatch, got %q", result.Code)
	}
	if !strings.Contains(result.Reason, "state mismatch") {
		t.Fatalf("unexpected reason: %s", result.Reason)
	}
}

func TestRedirectServer_ProviderError(t *testing.T) {
	server, uri := startTestServer(t, "state-ok", time.Minute)

	get(t, uri+"?error=access_denied&state=state-ok")

	result := server.Wait(context.Background())
	if result.Outcome != RedirectRejected {
		t.Fatalf("expected Rejected, got %v", result.Outcome)
	}
	if !strings.Contains(result.Reason, "access_denied") {
		t.Fatalf("unexpected reason: %s", result.Reason)
	}
}

func TestRedirectServer_NoCode(t *testing.T) {
	server, uri := startTestServer(t, "state-ok", time.Minute)

	get(t, uri+"?state=state-ok")

	result := server.Wait(context.Background())
	if result.Outcome != RedirectRejected {
		t.Fatalf("expected Rejected, got %v", result.Outcome)
	}
}

func TestRedirectServer_Timeout(t *testing.T) {
	server, _ := startTestServer(t, "state-ok", 50*time.Millisecond)

	result := server.Wait(context.Background())
	if result.Outcome != RedirectTimedOut {
		t.Fatalf("expected TimedOut, got %v", result.Outcome)
	}
}

// The port must be released after every terminal state, and Stop must
// be safe to call any number of times from any path.
func TestRedirectServer_RepeatedStartStopCycles(t *testing.T) {
	port := freePort(t)
	uri := fmt.Sprintf("http://127.0.0.1:%d/callback", port)

	for i := 0; i < 5; i++ {
		server, err := StartRedirectServer(uri, "state-ok", time.Minute)
		if err != nil {
			t.Fatalf("cycle %d: start: %v", i, err)
		}
		server.Stop()
		server.Stop() // idempotent
	}
}

// Stop must have released the port by the time it returns, not merely
// scheduled the release: a user who retries authorization right after a
// failed attempt rebinds the same address immediately.
func TestRedirectServer_PortFreeWhenStopReturns(t *testing.T) {
	port := freePort(t)
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	uri := fmt.Sprintf("http://%s/callback", addr)

	for i := 0; i < 50; i++ {
		server, err := StartRedirectServer(uri, "state-ok", time.Minute)
		if err != nil {
			t.Fatalf("iteration %d: start: %v", i, err)
		}
		server.Stop()

		l, err := net.Listen("tcp", addr)
		if err != nil {
			t.Fatalf("iteration %d: port not released when Stop returned: %v", i, err)
		}
		l.Close()
	}
}

func TestRedirectServer_SecondCallbackAfterCompletion(t *testing.T) {
	server, uri := startTestServer(t, "state-ok", time.Minute)

	get(t, uri+"?code=first&state=state-ok")
	result := server.Wait(context.Background())
	if result.Code != "first" {
		t.Fatalf("unexpected code: %s", result.Code)
	}

	// A second delivery attempt must not replace the terminal result.
	server.deliver(RedirectResult{Outcome: RedirectRejected, Reason: "late"})
	select {
	case extra := <-server.resultCh:
		t.Fatalf("unexpected second result: %+v", extra)
	case <-time.After(50 * time.Millisecond):
	}
}
