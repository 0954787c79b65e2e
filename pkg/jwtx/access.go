package jwtx

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/schmeconomics/schmeconomics/pkg/clockx"
)

// DefaultAccessTokenLifetime is how long an access token is accepted.
const DefaultAccessTokenLifetime = 5 * time.Minute

var (
	ErrSecretProvider = errors.New("jwtx: secret provider error")
	ErrJWT            = errors.New("jwtx: jwt error")
	ErrTokenInvalid   = errors.New("jwtx: token invalid")
)

// SecretSource yields signing secrets, newest first.
type SecretSource interface {
	Secrets(ctx context.Context) iter.Seq2[[]byte, error]
}

// AccessTokenOptions configures an AccessTokenProvider.
type AccessTokenOptions struct {
	Secrets   SecretSource
	Algorithm HashAlgorithm
	Issuer    string
	Audience  string
	Lifetime  time.Duration
	Clock     clockx.Clock
}

// AccessTokenProvider mints and validates HMAC-signed JWT access tokens.
type AccessTokenProvider struct {
	secrets  SecretSource
	method   *jwt.SigningMethodHMAC
	issuer   string
	audience string
	lifetime time.Duration
	clock    clockx.Clock
	parser   *jwt.Parser
}

func NewAccessTokenProvider(opts AccessTokenOptions) (*AccessTokenProvider, error) {
	if opts.Secrets == nil {
		return nil, errors.New("jwtx: secret source is required")
	}
	if opts.Algorithm == "" {
		opts.Algorithm = HS256
	}
	method, err := opts.Algorithm.signingMethod()
	if err != nil {
		return nil, err
	}
	if opts.Lifetime <= 0 {
		opts.Lifetime = DefaultAccessTokenLifetime
	}
	clock := clockx.OrSystem(opts.Clock)

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(clock.Now),
	}
	if opts.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(opts.Issuer))
	}
	if opts.Audience != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(opts.Audience))
	}

	return &AccessTokenProvider{
		secrets:  opts.Secrets,
		method:   method,
		issuer:   opts.Issuer,
		audience: opts.Audience,
		lifetime: opts.Lifetime,
		clock:    clock,
		parser:   jwt.NewParser(parserOpts...),
	}, nil
}

// Lifetime returns the configured access token lifetime.
func (p *AccessTokenProvider) Lifetime() time.Duration { return p.lifetime }

// CreateToken signs claims with the newest secret. Registered time claims
// are whole seconds; iss and aud come from the provider and override any
// caller-supplied values.
func (p *AccessTokenProvider) CreateToken(ctx context.Context, claims map[string]any) (string, error) {
	var key []byte
	for secret, err := range p.secrets.Secrets(ctx) {
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrSecretProvider, err)
		}
		key = secret
		break
	}
	if key == nil {
		return "", fmt.Errorf("%w: %w", ErrSecretProvider, ErrNoSecretEntryFound)
	}

	now := p.clock.Now()
	mc := make(jwt.MapClaims, len(claims)+5)
	for k, v := range claims {
		mc[k] = v
	}
	if p.issuer != "" {
		mc[ClaimIssuer] = p.issuer
	}
	if p.audience != "" {
		mc[ClaimAudience] = p.audience
	}
	issued := now.Truncate(time.Second).Unix()
	mc[ClaimIssuedAt] = issued
	mc[ClaimNotBefore] = issued
	mc[ClaimExpiresAt] = now.Add(p.lifetime).Truncate(time.Second).Unix()

	signed, err := jwt.NewWithClaims(p.method, mc).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("%w: sign: %w", ErrJWT, err)
	}
	return signed, nil
}

// ValidateToken checks token against every valid secret, newest first, and
// returns the claims of the first one that verifies.
func (p *AccessTokenProvider) ValidateToken(ctx context.Context, token string) (ClaimSet, error) {
	var lastErr error
	for secret, err := range p.secrets.Secrets(ctx) {
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSecretProvider, err)
		}

		mc := jwt.MapClaims{}
		_, err := p.parser.ParseWithClaims(token, mc, func(*jwt.Token) (any, error) {
			return secret, nil
		})
		if err == nil {
			return newClaimSet(mc), nil
		}
		lastErr = err
	}

	if lastErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrJWT, lastErr)
	}
	return nil, ErrTokenInvalid
}
