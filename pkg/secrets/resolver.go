package secrets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"erpsweep/pkg/config"
)

// refRegex matches ${secret:name} references.
var refRegex = regexp.MustCompile(`\$\{secret:([^}]+)\}`)

// Resolver looks secrets up in its providers, first match wins.
type Resolver struct {
	providers []Provider
	logger    *slog.Logger
}

// NewResolver creates a resolver over providers.
func NewResolver(logger *slog.Logger, providers ...Provider) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		providers: providers,
		logger:    logger.With("component", "secrets"),
	}
}

// FromConfig builds the resolver described by cfg: the secrets directory
// when set, then the environment.
func FromConfig(cfg config.SecretsConfig, logger *slog.Logger) (*Resolver, error) {
	var providers []Provider
	if cfg.Dir != "" {
		fp, err := NewFileProvider(cfg.Dir)
		if err != nil {
			return nil, err
		}
		providers = append(providers, fp)
	}
	providers = append(providers, NewEnvProvider(cfg.EnvPrefix))
	return NewResolver(logger, providers...), nil
}

// GetSecret returns the value of name from the first provider holding it.
// A provider error other than ErrNotFound stops the lookup.
func (r *Resolver) GetSecret(ctx context.Context, name string) (string, error) {
	for _, p := range r.providers {
		value, err := p.GetSecret(ctx, name)
		if err == nil {
			r.logger.Debug("secret resolved", "provider", p.Name(), "name", redactName(name))
			return value, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return "", fmt.Errorf("%s provider: %w", p.Name(), err)
		}
	}
	return "", fmt.Errorf("%w: %q", ErrNotFound, name)
}

// Resolve replaces every ${secret:name} reference in input. Unresolved
// references are reported together.
func (r *Resolver) Resolve(ctx context.Context, input string) (string, error) {
	if !strings.Contains(input, "${secret:") {
		return input, nil
	}

	var errs []string
	output := refRegex.ReplaceAllStringFunc(input, func(match string) string {
		name := refRegex.FindStringSubmatch(match)[1]
		value, err := r.GetSecret(ctx, name)
		if err != nil {
			errs = append(errs, err.Error())
			return match
		}
		return value
	})

	if len(errs) > 0 {
		return "", fmt.Errorf("failed to resolve secret references: %s", strings.Join(errs, "; "))
	}
	return output, nil
}

// ResolveDatabase resolves the credentials of db in place.
func (r *Resolver) ResolveDatabase(ctx context.Context, db *config.DatabaseConfig) error {
	user, err := r.Resolve(ctx, db.User)
	if err != nil {
		return fmt.Errorf("database.user: %w", err)
	}
	password, err := r.Resolve(ctx, db.Password)
	if err != nil {
		return fmt.Errorf("database.password: %w", err)
	}
	db.User, db.Password = user, password
	return nil
}

// redactName keeps secret names recognizable in logs without printing them.
func redactName(name string) string {
	if len(name) <= 4 {
		return "***"
	}
	return name[:2] + "..." + name[len(name)-2:]
}
