package github

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"
)

type AuthTokenSource string

const (
	AuthTokenSourceExplicit AuthTokenSource = "explicit"
	AuthTokenSourceEnv      AuthTokenSource = "env:GITHUB_TOKEN"
	AuthTokenSourceGHEnv    AuthTokenSource = "env:GH_TOKEN"
	AuthTokenSourceGitHubCL AuthTokenSource = "gh"
)

// ghTimeout bounds `gh auth token` so a broken credential helper can't hang a sync.
const ghTimeout = 5 * time.Second

var envTokenSources = []struct {
	name   string
	source AuthTokenSource
}{
	{"GITHUB_TOKEN", AuthTokenSourceEnv},
	{"GH_TOKEN", AuthTokenSourceGHEnv},
}

// ResolveAuthToken finds a token for the code search API.
//
// Precedence:
//  1. provided (if non-empty)
//  2. GITHUB_TOKEN, then GH_TOKEN
//  3. GitHub CLI: `gh auth token -h github.com`
//
// An empty token with a nil error means no source had one. The token is never printed.
func ResolveAuthToken(ctx context.Context, provided string) (string, AuthTokenSource, error) {
	if tok := strings.TrimSpace(provided); tok != "" {
		return tok, AuthTokenSourceExplicit, nil
	}

	for _, src := range envTokenSources {
		if tok := strings.TrimSpace(os.Getenv(src.name)); tok != "" {
			return tok, src.source, nil
		}
	}

	tok, err := tokenFromGitHubCLI(ctx)
	if err != nil {
		return "", "", err
	}
	if tok == "" {
		return "", "", nil
	}
	return tok, AuthTokenSourceGitHubCL, nil
}

func tokenFromGitHubCLI(ctx context.Context) (string, error) {
	if _, err := exec.LookPath("gh"); err != nil {
		return "", nil
	}

	cmdCtx := ctx
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		cmdCtx, cancel = context.WithTimeout(ctx, ghTimeout)
		defer cancel()
	}

	cmd := exec.CommandContext(cmdCtx, "gh", "auth", "token", "-h", "github.com")
	cmd.Env = withEnv(os.Environ(), "GH_PAGER", "cat")
	out, err := cmd.Output()
	if err != nil {
		if cmdCtx.Err() != nil {
			return "", cmdCtx.Err()
		}
		// gh present but logged out: no token, and gh's output is not surfaced.
		return "", nil
	}

	tok := strings.TrimSpace(string(out))
	if strings.ContainsAny(tok, " \t\n\r") {
		return "", errors.New("invalid token returned by gh: contains whitespace")
	}
	return tok, nil
}

// withEnv returns env with key set to value exactly once.
func withEnv(env []string, key, value string) []string {
	prefix := key + "="
	out := make([]string, 0, len(env)+1)
	for _, entry := range env {
		if strings.HasPrefix(entry, prefix) {
			continue
		}
		out = append(out, entry)
	}
	return append(out, prefix+value)
}
