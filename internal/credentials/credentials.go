// Package credentials resolves provider API keys at call time. Keys are not
// read at process start so a deployment can add or rotate a credential
// without a restart, and so a request that never reaches a given provider
// never requires that provider's key.
package credentials

import (
	"context"
	"errors"
	"os"
	"strings"
)

// Source looks up a credential by its environment variable name. A missing
// or empty value must be returned as a *Missing error so callers can report
// the specific absent name before attempting any upstream call.
type Source interface {
	Lookup(ctx context.Context, name string) (string, error)
}

// Missing reports an unset credential by name.
type Missing struct {
	Name string
}

func (e *Missing) Error() string {
	return "credentials: " + e.Name + " is not set"
}

// IsMissing unwraps err and returns the missing credential name, if any.
func IsMissing(err error) (string, bool) {
	var m *Missing
	if errors.As(err, &m) {
		return m.Name, true
	}
	return "", false
}

// Env resolves credentials from process environment variables.
type Env struct{}

func (Env) Lookup(_ context.Context, name string) (string, error) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return "", &Missing{Name: name}
	}
	return v, nil
}

// Static is a fixed in-memory source, used by tests and local fixtures.
type Static map[string]string

func (s Static) Lookup(_ context.Context, name string) (string, error) {
	v, ok := s[name]
	if !ok || strings.TrimSpace(v) == "" {
		return "", &Missing{Name: name}
	}
	return v, nil
}
