// Command fintrack-oauth-init runs the one-time OAuth consent flow and
// stores the token the sheets mirror authenticates with.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/sheets/v4"

	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/log"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(nil, log.ComponentSheets)

	cfg, err := config.Load()
	if err != nil {
		fatal(logger, "load configuration", err)
	}

	clientJSON, err := readClient(cfg)
	if err != nil {
		fatal(logger, "read oauth client", err)
	}
	oauthCfg, err := google.ConfigFromJSON(clientJSON, sheets.SpreadsheetsScope)
	if err != nil {
		fatal(logger, "oauth config", err)
	}

	// The OAuth client must list this redirect URI.
	redirectPort := os.Getenv("OAUTH_REDIRECT_PORT")
	if redirectPort == "" {
		redirectPort = "8085"
	}
	oauthCfg.RedirectURL = "http://localhost:" + redirectPort + "/callback"

	state := fmt.Sprintf("fintrack-%d", time.Now().UnixNano())
	codeCh := make(chan string, 1)
	mux := http.NewServeMux()
	srv := &http.Server{Addr: ":" + redirectPort, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if e := q.Get("error"); e != "" {
			http.Error(w, "OAuth error: "+e, http.StatusBadRequest)
			return
		}
		if q.Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}
		fmt.Fprintln(w, "You may close this window and return to the terminal.")
		select {
		case codeCh <- q.Get("code"):
		default:
		}
	})
	go func() { _ = srv.ListenAndServe() }()
	defer srv.Close()

	fmt.Printf("Open this URL to authorize:\n%s\n", oauthCfg.AuthCodeURL(state, oauth2.AccessTypeOffline))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)

	select {
	case code := <-codeCh:
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		tok, err := oauthCfg.Exchange(ctx, code)
		if err != nil {
			fatal(logger, "token exchange", err)
		}
		out := cfg.GoogleOAuthTokenFile
		if out == "" {
			out = "token.json"
		}
		if err := saveToken(out, tok); err != nil {
			fatal(logger, "write token", err)
		}
		logger.Info("Saved OAuth token", "path", out)
	case <-time.After(5 * time.Minute):
		fatal(logger, "authorization", fmt.Errorf("timed out"))
	case <-sig:
		fatal(logger, "authorization", fmt.Errorf("interrupted"))
	}
}

func readClient(cfg *config.Config) ([]byte, error) {
	switch {
	case cfg.GoogleOAuthClientJSON != "":
		return []byte(cfg.GoogleOAuthClientJSON), nil
	case cfg.GoogleOAuthClientFile != "":
		return os.ReadFile(cfg.GoogleOAuthClientFile)
	default:
		return nil, fmt.Errorf("set GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE")
	}
}

func saveToken(path string, tok *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(f).Encode(tok); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func fatal(logger *log.Logger, step string, err error) {
	logger.Error("OAuth init failed", "step", step, log.FieldError, err.Error())
	os.Exit(1)
}
