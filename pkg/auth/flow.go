package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/attache-ai/attache/pkg/logger"
)

// SignInFlow runs the browser-based OAuth2 authorization-code flow with
// PKCE against a loopback redirect, installing the resulting token into
// the TokenManager.
type SignInFlow struct {
	cfg *oauth2.Config
	tm  *TokenManager

	// Notify receives the authorization URL the user must open. Defaults
	// to printing it to stdout.
	Notify func(url string)
}

func NewSignInFlow(cfg *oauth2.Config, tm *TokenManager) *SignInFlow {
	return &SignInFlow{
		cfg: cfg,
		tm:  tm,
		Notify: func(url string) {
			fmt.Printf("Open this URL to sign in:\n\n  %s\n\n", url)
		},
	}
}

// Run blocks until the browser round trip completes or ctx is done.
func (f *SignInFlow) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("starting loopback listener: %w", err)
	}
	defer listener.Close()

	cfg := *f.cfg
	cfg.RedirectURL = fmt.Sprintf("http://%s/callback", listener.Addr().String())

	state, err := randomState()
	if err != nil {
		return err
	}
	verifier := oauth2.GenerateVerifier()

	authURL := cfg.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.S256ChallengeOption(verifier),
	)

	done := make(chan error, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("state") != state {
			http.Error(w, "State mismatch; restart the sign-in.", http.StatusBadRequest)
			done <- errors.New("oauth state mismatch")
			return
		}
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "Missing authorization code.", http.StatusBadRequest)
			done <- errors.New("authorization code missing from callback")
			return
		}

		token, err := cfg.Exchange(r.Context(), code, oauth2.VerifierOption(verifier))
		if err != nil {
			http.Error(w, "Code exchange failed.", http.StatusBadGateway)
			done <- fmt.Errorf("exchanging authorization code: %w", err)
			return
		}
		if err := f.tm.SetToken(token); err != nil {
			http.Error(w, "Could not store the token.", http.StatusInternalServerError)
			done <- fmt.Errorf("storing token: %w", err)
			return
		}

		fmt.Fprintln(w, "Signed in. You can close this tab.")
		done <- nil
	})

	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			done <- err
		}
	}()
	defer server.Close()

	f.Notify(authURL)
	logger.InfoCF("auth", "Waiting for browser sign-in", map[string]any{
		"redirect": cfg.RedirectURL,
	})

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func randomState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
