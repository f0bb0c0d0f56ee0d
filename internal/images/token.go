package images

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"golang.org/x/oauth2/google"
)

const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// TokenSource obtiene un access token fresco para llamar a Vertex AI.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticTokenSource devuelve siempre el mismo token (dev y tests).
type StaticTokenSource string

func (s StaticTokenSource) Token(context.Context) (string, error) {
	if strings.TrimSpace(string(s)) == "" {
		return "", errors.New("static token is empty")
	}
	return string(s), nil
}

// GoogleTokenSource usa Application Default Credentials.
type GoogleTokenSource struct{}

func (GoogleTokenSource) Token(ctx context.Context) (string, error) {
	ts, err := google.DefaultTokenSource(ctx, cloudPlatformScope)
	if err != nil {
		return "", fmt.Errorf("default credentials: %w", err)
	}
	tok, err := ts.Token()
	if err != nil {
		return "", fmt.Errorf("fetch token: %w", err)
	}
	if tok.AccessToken == "" {
		return "", errors.New("default credentials returned an empty token")
	}
	return tok.AccessToken, nil
}

// GcloudTokenSource ejecuta `gcloud auth print-access-token`.
type GcloudTokenSource struct {
	Binary string
}

func (g GcloudTokenSource) Token(ctx context.Context) (string, error) {
	bin := g.Binary
	if bin == "" {
		bin = "gcloud"
	}
	out, err := exec.CommandContext(ctx, bin, "auth", "print-access-token").Output()
	if err != nil {
		return "", fmt.Errorf("gcloud auth print-access-token: %w", err)
	}
	token := strings.TrimSpace(string(out))
	if token == "" {
		return "", errors.New("token is empty, is gcloud authenticated?")
	}
	return token, nil
}

// ChainTokenSource prueba cada fuente en orden y devuelve el primer token.
type ChainTokenSource []TokenSource

func (c ChainTokenSource) Token(ctx context.Context) (string, error) {
	var errs []error
	for _, src := range c {
		token, err := src.Token(ctx)
		if err == nil {
			return token, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return "", errors.New("no token sources configured")
	}
	return "", errors.Join(errs...)
}

// NewDefaultTokenSource prefiere un token explicito; si no hay, ADC y luego gcloud.
func NewDefaultTokenSource(staticToken string) TokenSource {
	if strings.TrimSpace(staticToken) != "" {
		return StaticTokenSource(staticToken)
	}
	return ChainTokenSource{GoogleTokenSource{}, GcloudTokenSource{}}
}
