// Package auth verifies Firebase ID tokens and resolves the caller's
// identity for tenant scoping.
package auth

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/codessa-project/inkwell/internal/services"
)

// GoogleCertsURL serves the x509 certificates Firebase signs ID tokens with.
const GoogleCertsURL = "https://www.googleapis.com/robot/v1/metadata/x509/securetoken@system.gserviceaccount.com"

// KeySource provides the RSA public keys for signature verification,
// keyed by certificate kid.
type KeySource interface {
	Keys(ctx context.Context) (map[string]*rsa.PublicKey, error)
}

// GoogleKeySource fetches Firebase signing certificates over HTTPS and
// caches them. Google rotates these keys, so the cache expires and
// refetches rather than pinning.
type GoogleKeySource struct {
	url    string
	client *http.Client

	mu      sync.Mutex
	keys    map[string]*rsa.PublicKey
	expires time.Time
}

// NewGoogleKeySource builds a key source against the public certificate
// endpoint.
func NewGoogleKeySource() *GoogleKeySource {
	return &GoogleKeySource{
		url:    GoogleCertsURL,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Keys returns the cached certificates, refetching after expiry.
func (g *GoogleKeySource) Keys(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.keys != nil && time.Now().Before(g.expires) {
		return g.keys, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build certificate request: %w", err)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch signing certificates: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("certificate endpoint returned status %d", resp.StatusCode)
	}

	var certs map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&certs); err != nil {
		return nil, fmt.Errorf("failed to decode certificate response: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(certs))
	for kid, certPEM := range certs {
		key, err := parseCertPEM(certPEM)
		if err != nil {
			return nil, fmt.Errorf("failed to parse certificate %s: %w", kid, err)
		}
		keys[kid] = key
	}

	g.keys = keys
	g.expires = time.Now().Add(time.Hour)
	return keys, nil
}

func parseCertPEM(certPEM string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(certPEM))
	if block == nil {
		return nil, fmt.Errorf("no PEM block found")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, err
	}
	key, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("certificate key is %T, not RSA", cert.PublicKey)
	}
	return key, nil
}

type idTokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenVerifier validates Firebase ID tokens for one project. It
// implements services.TenantAuthority.
type TokenVerifier struct {
	projectID string
	keys      KeySource
}

// NewTokenVerifier builds a verifier for the given Firebase project.
func NewTokenVerifier(projectID string, keys KeySource) (*TokenVerifier, error) {
	if projectID == "" {
		return nil, fmt.Errorf("NewTokenVerifier: projectID cannot be empty")
	}
	if keys == nil {
		keys = NewGoogleKeySource()
	}
	return &TokenVerifier{projectID: projectID, keys: keys}, nil
}

// Verify checks the token's signature and claims and returns the caller's
// identity. The subject claim is the Firebase uid, which doubles as the
// tenant id everywhere else.
func (v *TokenVerifier) Verify(ctx context.Context, rawToken string) (services.Identity, error) {
	keys, err := v.keys.Keys(ctx)
	if err != nil {
		return services.Identity{}, fmt.Errorf("failed to load signing keys: %w", err)
	}

	claims := &idTokenClaims{}
	_, err = jwt.ParseWithClaims(rawToken, claims, func(token *jwt.Token) (interface{}, error) {
		kid, _ := token.Header["kid"].(string)
		key, ok := keys[kid]
		if !ok {
			return nil, fmt.Errorf("no signing key for kid %q", kid)
		}
		return key, nil
	},
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithAudience(v.projectID),
		jwt.WithIssuer("https://securetoken.google.com/"+v.projectID),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return services.Identity{}, fmt.Errorf("invalid ID token: %w", err)
	}
	if claims.Subject == "" {
		return services.Identity{}, fmt.Errorf("ID token has no subject")
	}

	return services.Identity{UID: claims.Subject, Email: claims.Email}, nil
}
