package reader

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/OwenXu27/ereader/internal/render"
)

// ErrNavigation indicates no fallback step could display the target.
// Soft by contract: callers log it and leave the current location unchanged.
var ErrNavigation = errors.New("reader: navigation target not displayable")

// Resolver maps a requested navigation target to an actually displayable
// location. Tables of contents and manifests disagree about href forms in
// real-world books, so resolution runs an ordered fallback chain.
type Resolver struct {
	logger *slog.Logger
}

// NewResolver creates a Resolver.
func NewResolver(logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{logger: logger}
}

// Display resolves target against the surface, stopping at the first step
// that succeeds:
//
//  1. the href as given
//  2. the href with any fragment stripped
//  3. the first manifest entry matching either form by equality, suffix,
//     or prefix in either direction
//
// On failure it returns ErrNavigation; the surface's current location is
// untouched.
func (r *Resolver) Display(ctx context.Context, s render.Surface, target string) error {
	if err := s.Navigate(ctx, target); err == nil {
		return nil
	}

	base := stripFragment(target)
	if base != target {
		if err := s.Navigate(ctx, base); err == nil {
			return nil
		}
	}

	for _, item := range s.Manifest() {
		if pathsMatch(item.Path, target) || (base != target && pathsMatch(item.Path, base)) {
			if err := s.Navigate(ctx, item.Path); err == nil {
				return nil
			}
			break
		}
	}

	r.logger.Warn("navigation target not displayable", "target", target)
	return ErrNavigation
}

// pathsMatch reports equality, suffix, or prefix agreement in either
// direction between a manifest path and a requested href.
func pathsMatch(path, want string) bool {
	if path == "" || want == "" {
		return false
	}
	return path == want ||
		strings.HasSuffix(path, want) || strings.HasSuffix(want, path) ||
		strings.HasPrefix(path, want) || strings.HasPrefix(want, path)
}
