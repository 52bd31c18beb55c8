// Package identity resolves connecting participants from bearer tokens.
// Tokens are optional: a missing or invalid token yields the shared guest
// participant rather than an error, so anonymous visitors can still read
// and chat.
package identity

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/campfireapp/campfire-server/internal/domain"
)

// participantClaims is the internal claims type used for JWT parsing.
type participantClaims struct {
	jwt.RegisteredClaims
	DisplayName string `json:"displayName"`
}

// Resolver verifies HMAC-signed bearer tokens and maps them to participants.
type Resolver struct {
	secret []byte
	logger *slog.Logger
}

// NewResolver creates a resolver. An empty secret disables verification
// entirely and every connection resolves to a guest.
func NewResolver(secret string, logger *slog.Logger) *Resolver {
	var key []byte
	if secret != "" {
		key = []byte(secret)
	}
	return &Resolver{secret: key, logger: logger}
}

// Resolve verifies a token and returns the participant it identifies.
func (r *Resolver) Resolve(token string) (domain.Participant, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Participant{}, errors.New("token is required")
	}
	if len(r.secret) == 0 {
		return domain.Participant{}, errors.New("token verification is not configured")
	}

	var parsed participantClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(t *jwt.Token) (any, error) {
		return r.secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
	)
	if err != nil {
		return domain.Participant{}, err
	}

	if parsed.Subject == "" {
		return domain.Participant{}, errors.New("token sub is required")
	}

	displayName := strings.TrimSpace(parsed.DisplayName)
	if displayName == "" {
		displayName = parsed.Subject
	}
	return domain.Participant{
		ID:          parsed.Subject,
		DisplayName: displayName,
	}, nil
}

// ResolveOrGuest verifies a token, falling back to the guest participant
// when the token is missing or invalid. Invalid tokens are logged at debug
// level only; guests are an expected audience, not an attack signal.
func (r *Resolver) ResolveOrGuest(token string) domain.Participant {
	if strings.TrimSpace(token) == "" {
		return domain.Guest()
	}
	p, err := r.Resolve(token)
	if err != nil {
		r.logger.Debug("token resolution failed, treating as guest",
			slog.String("error", err.Error()))
		return domain.Guest()
	}
	return p
}

// Sign issues a token for a participant. Used by tests and local tooling;
// production tokens come from the identity provider that shares the secret.
func (r *Resolver) Sign(p domain.Participant) (string, error) {
	if len(r.secret) == 0 {
		return "", errors.New("token signing is not configured")
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, participantClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: p.ID},
		DisplayName:      p.DisplayName,
	})
	return token.SignedString(r.secret)
}
