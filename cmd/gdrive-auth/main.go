// Command gdrive-auth runs the OAuth consent flow once and prints the
// refresh token expected in GDRIVE_REFRESH_TOKEN.
package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	drive "google.golang.org/api/drive/v3"

	"socialcard/internal/pkg/logger"
	"socialcard/internal/util"
)

const consentTimeout = 3 * time.Minute

func main() {
	log := logger.New(logger.Config{Level: "info", Format: "text", ServiceName: "gdrive-auth"})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		log.LogFatal("failed to listen for callback", err)
	}

	conf := &oauth2.Config{
		ClientID:     util.MustEnv("GDRIVE_CLIENT_ID"),
		ClientSecret: util.MustEnv("GDRIVE_CLIENT_SECRET"),
		Endpoint:     google.Endpoint,
		Scopes:       []string{drive.DriveFileScope},
		RedirectURL:  fmt.Sprintf("http://%s/callback", ln.Addr()),
	}
	state := randomState()

	// prompt=consent makes Google issue a refresh token on every run
	fmt.Println("Open this URL in your browser:")
	fmt.Println(conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent")))

	ctx, cancel := context.WithTimeout(context.Background(), consentTimeout)
	defer cancel()

	code, err := awaitCode(ctx, ln, state)
	if err != nil {
		log.LogFatal("authorization failed", err)
	}

	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		log.LogFatal("token exchange failed", err)
	}
	if tok.RefreshToken == "" {
		log.Warn("no refresh token returned; revoke the app at https://myaccount.google.com/permissions and run again")
		return
	}

	fmt.Println("GDRIVE_REFRESH_TOKEN=" + tok.RefreshToken)
}

// awaitCode serves the OAuth redirect on ln until one callback with the
// expected state arrives or ctx ends.
func awaitCode(ctx context.Context, ln net.Listener, state string) (string, error) {
	type result struct {
		code string
		err  error
	}
	done := make(chan result, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var res result
		switch {
		case q.Get("state") != state:
			res.err = fmt.Errorf("invalid state")
		case q.Get("error") != "":
			res.err = fmt.Errorf("consent denied: %s", q.Get("error"))
		case q.Get("code") == "":
			res.err = fmt.Errorf("missing code")
		default:
			res.code = q.Get("code")
		}

		if res.err != nil {
			http.Error(w, res.err.Error(), http.StatusBadRequest)
		} else {
			fmt.Fprintln(w, "Authorized. You can close this window.")
		}
		select {
		case done <- res:
		default:
		}
	})

	srv := &http.Server{Handler: mux, ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second}
	go func() { _ = srv.Serve(ln) }()
	defer srv.Close()

	select {
	case res := <-done:
		return res.code, res.err
	case <-ctx.Done():
		return "", fmt.Errorf("waiting for consent: %w", ctx.Err())
	}
}

func randomState() string {
	b := make([]byte, 18)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
