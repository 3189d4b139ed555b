package proxy

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	defaultKeyCacheTTL = time.Hour
	// minimum gap between refetches triggered by an unknown kid
	minKeyRefresh = time.Minute
)

type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*jwt.RegisteredClaims, error)
}

type VerifierConfig struct {
	Issuer   string
	Audience string
	JWKSURL  string
	CacheTTL time.Duration
}

// JWKSVerifier checks RS256 bearer tokens against the issuer's published key set.
type JWKSVerifier struct {
	cfg    VerifierConfig
	client *http.Client
	logger *zap.Logger

	fetches singleflight.Group

	mu      sync.Mutex
	keys    map[string]*rsa.PublicKey
	fetched time.Time
	now     func() time.Time
}

func NewJWKSVerifier(cfg VerifierConfig, client *http.Client, logger *zap.Logger) (*JWKSVerifier, error) {
	if cfg.Issuer == "" || cfg.Audience == "" || cfg.JWKSURL == "" {
		return nil, fmt.Errorf("%w: issuer, audience and jwks url are required", ErrConfig)
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultKeyCacheTTL
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &JWKSVerifier{
		cfg:    cfg,
		client: client,
		logger: logger.Named("jwks"),
		keys:   map[string]*rsa.PublicKey{},
		now:    time.Now,
	}, nil
}

func (v *JWKSVerifier) parserOptions() []jwt.ParserOption {
	return []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithAudience(v.cfg.Audience),
		jwt.WithIssuer(v.cfg.Issuer),
		jwt.WithTimeFunc(v.now),
	}
}

// Verify validates the token's claims locally first, so a token that is expired or
// meant for someone else never costs a key fetch, then checks the signature.
func (v *JWKSVerifier) Verify(ctx context.Context, token string) (*jwt.RegisteredClaims, error) {
	if strings.Count(token, ".") != 2 {
		return nil, fmt.Errorf("%w: malformed token", ErrForbidden)
	}

	opts := v.parserOptions()
	claims := &jwt.RegisteredClaims{}
	unverified, _, err := jwt.NewParser(opts...).ParseUnverified(token, claims)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrForbidden, err)
	}
	if unverified.Method.Alg() != jwt.SigningMethodRS256.Alg() {
		return nil, fmt.Errorf("%w: unexpected signing method %s", ErrForbidden, unverified.Method.Alg())
	}
	if err := jwt.NewValidator(opts...).Validate(claims); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrForbidden, err)
	}

	verified := &jwt.RegisteredClaims{}
	_, err = jwt.ParseWithClaims(token, verified, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		return v.key(ctx, kid)
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrForbidden, err)
	}
	return verified, nil
}

func (v *JWKSVerifier) key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v.mu.Lock()
	age := v.now().Sub(v.fetched)
	key, ok := v.lookup(kid)
	stale := v.fetched.IsZero() || age >= minKeyRefresh
	v.mu.Unlock()

	if ok && age < v.cfg.CacheTTL {
		return key, nil
	}

	if stale {
		// concurrent misses share one fetch; the lock is not held while it runs
		if _, err, _ := v.fetches.Do("jwks", func() (any, error) {
			return nil, v.refresh(ctx)
		}); err != nil {
			return nil, err
		}
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	key, ok = v.lookup(kid)
	if !ok {
		return nil, fmt.Errorf("no signing key for kid %q", kid)
	}
	return key, nil
}

// lookup falls back to the only key in the set when the token names no kid.
// Callers hold v.mu.
func (v *JWKSVerifier) lookup(kid string) (*rsa.PublicKey, bool) {
	if kid == "" && len(v.keys) == 1 {
		for _, key := range v.keys {
			return key, true
		}
	}
	key, ok := v.keys[kid]
	return key, ok
}

func (v *JWKSVerifier) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.cfg.JWKSURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create jwks request: %w", err)
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch jwks: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to fetch jwks: status %d", resp.StatusCode)
	}

	var set jose.JSONWebKeySet
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return fmt.Errorf("failed to decode jwks: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, jwk := range set.Keys {
		if jwk.Use != "" && jwk.Use != "sig" {
			continue
		}
		pub, ok := jwk.Key.(*rsa.PublicKey)
		if !ok {
			continue
		}
		keys[jwk.KeyID] = pub
	}

	v.mu.Lock()
	v.keys = keys
	v.fetched = v.now()
	v.mu.Unlock()
	v.logger.Debug("refreshed signing keys", zap.Int("keys", len(keys)))
	return nil
}

// bearerToken pulls the token out of an Authorization header. A missing or
// ill-formed header is ErrUnauthenticated.
func bearerToken(header string) (string, error) {
	token, found := strings.CutPrefix(header, "Bearer ")
	token = strings.TrimSpace(token)
	if !found || token == "" {
		return "", ErrUnauthenticated
	}
	return token, nil
}
