package attendance

import (
	"context"
	"strings"
)

// Verifier checks a proof-of-presence token for a student. Implementations
// decide what a valid token is; the pipeline treats it as opaque.
type Verifier interface {
	Verify(ctx context.Context, token, studentID string) (bool, error)
}

// VerifierFunc adapts a function to Verifier.
type VerifierFunc func(ctx context.Context, token, studentID string) (bool, error)

// Verify calls f.
func (f VerifierFunc) Verify(ctx context.Context, token, studentID string) (bool, error) {
	return f(ctx, token, studentID)
}

// PresenceVerifier accepts any token that is not blank.
type PresenceVerifier struct{}

// Verify implements Verifier.
func (PresenceVerifier) Verify(_ context.Context, token, _ string) (bool, error) {
	return strings.TrimSpace(token) != "", nil
}
