package netsuite

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// RedirectOutcome is the terminal state of one redirect capture.
type RedirectOutcome int

const (
	// RedirectCompleted means the callback carried a valid state and an
	// authorization code.
	RedirectCompleted RedirectOutcome = iota
	// RedirectRejected covers provider errors, state mismatches and
	// callbacks without a code.
	RedirectRejected
	// RedirectTimedOut means no callback arrived within the window.
	RedirectTimedOut
)

// RedirectResult is the single result produced by a RedirectServer.
type RedirectResult struct {
	Outcome RedirectOutcome
	Code    string
	Reason  string
}

// RedirectServer is an ephemeral HTTP listener bound to an account's
// registered redirect URI. It accepts at most one completing callback,
// races it against a timeout, and always tears itself down exactly
// once. One instance per authorization attempt; never reused.
type RedirectServer struct {
	expectedState string
	path          string
	server        *http.Server
	listener      net.Listener
	timer         *time.Timer
	resultCh      chan RedirectResult
	deliverOnce   sync.Once
	stopOnce      sync.Once
}

// StartRedirectServer binds a listener on the exact host:port of
// redirectURI, registers a handler for its path, and arms the timeout
// once the listener is ready.
func StartRedirectServer(redirectURI, expectedState string, timeout time.Duration) (*RedirectServer, error) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return nil, fmt.Errorf("invalid redirect URI %q: %w", redirectURI, err)
	}
	host := u.Host
	if u.Port() == "" {
		host = net.JoinHostPort(u.Hostname(), "80")
	}
	path := u.Path
	if path == "" {
		path = "/"
	}

	listener, err := net.Listen("tcp", host)
	if err != nil {
		return nil, fmt.Errorf("failed to bind redirect listener on %s: %w", host, err)
	}

	s := &RedirectServer{
		expectedState: expectedState,
		path:          path,
		listener:      listener,
		resultCh:      make(chan RedirectResult, 1),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(path, s.handleCallback)
	s.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		// Stop closes the listener directly, so a closed-listener
		// accept error is a normal shutdown too.
		if err := s.server.Serve(listener); err != nil &&
			!errors.Is(err, http.ErrServerClosed) && !errors.Is(err, net.ErrClosed) {
			s.deliver(RedirectResult{Outcome: RedirectRejected, Reason: fmt.Sprintf("redirect server error: %v", err)})
		}
	}()

	s.timer = time.AfterFunc(timeout, func() {
		log.Printf("⏳ Redirect server timed out after %s without receiving a callback", timeout)
		s.deliver(RedirectResult{Outcome: RedirectTimedOut, Reason: fmt.Sprintf("no authorization callback within %s", timeout)})
	})

	log.Printf("👂 Redirect server listening on http://%s%s", listener.Addr(), path)
	return s, nil
}

// Wait blocks until the capture reaches a terminal state or ctx is
// cancelled. Cancellation stops the server and reports a timeout-like
// rejection.
func (s *RedirectServer) Wait(ctx context.Context) RedirectResult {
	select {
	case res := <-s.resultCh:
		return res
	case <-ctx.Done():
		s.deliver(RedirectResult{Outcome: RedirectRejected, Reason: "authorization cancelled"})
		return <-s.resultCh
	}
}

// Addr returns the bound listener address.
func (s *RedirectServer) Addr() string {
	return s.listener.Addr().String()
}

func (s *RedirectServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if errParam := q.Get("error"); errParam != "" {
		writePage(w, "Authorization failed", fmt.Sprintf("NetSuite reported: %s. You can close this window.", errParam))
		s.deliver(RedirectResult{Outcome: RedirectRejected, Reason: fmt.Sprintf("authorization server returned error: %s", errParam)})
		return
	}

	if q.Get("state") != s.expectedState {
		log.Printf("🚫 State mismatch on redirect callback, possible CSRF attempt")
		writePage(w, "State mismatch", "The authorization response did not match this request. Please try again.")
		s.deliver(RedirectResult{Outcome: RedirectRejected, Reason: "state mismatch (possible cross-site request forgery)"})
		return
	}

	if code := q.Get("code"); code != "" {
		writePage(w, "Authorization successful", "You can close this window and return to the workbench.")
		s.deliver(RedirectResult{Outcome: RedirectCompleted, Code: code})
		return
	}

	writePage(w, "Authorization incomplete", "No authorization code was received. Please try again.")
	s.deliver(RedirectResult{Outcome: RedirectRejected, Reason: "callback carried no authorization code"})
}

// deliver publishes the terminal result once and triggers teardown. The
// timeout timer and the request handler may race here; only the first
// caller wins.
func (s *RedirectServer) deliver(res RedirectResult) {
	s.deliverOnce.Do(func() {
		if s.timer != nil {
			s.timer.Stop()
		}
		s.resultCh <- res
		go s.Stop()
	})
}

// Stop shuts the listener down. Idempotent; safe to call from the
// timeout path, the handler path, and deferred cleanup. The port is
// free for rebinding by the time Stop returns: the listener is closed
// here directly rather than through Shutdown, because the Serve
// goroutine may not have registered it with the server yet.
func (s *RedirectServer) Stop() {
	s.stopOnce.Do(func() {
		if s.timer != nil {
			s.timer.Stop()
		}
		s.listener.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.server.Shutdown(ctx); err != nil && !errors.Is(err, net.ErrClosed) {
			log.Printf("⚠️ Error shutting down redirect server: %v", err)
		}
	})
}

func writePage(w http.ResponseWriter, title, detail string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="UTF-8">
	<title>%s</title>
	<style>
		body { font-family: -apple-system, BlinkMacSystemFont, sans-serif; max-width: 600px; margin: 50px auto; padding: 20px; background: #1a1a2e; color: #eee; text-align: center; }
		h2 { color: #4ade80; }
	</style>
</head>
<body>
	<h2>%s</h2>
	<p>%s</p>
</body>
</html>`, title, title, detail)
}
