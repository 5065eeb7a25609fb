package google

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

var errKidNotFound = errors.New("google: kid not found")

type jwk struct {
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type jwkSet struct {
	Keys []jwk `json:"keys"`
}

// keyCache cachea el JWKS con ETag. Un kid desconocido fuerza un refresh
// (rotación de claves); los refreshes concurrentes se colapsan en uno.
type keyCache struct {
	url  string
	http *http.Client
	ttl  time.Duration

	mu      sync.RWMutex
	keys    map[string]*rsa.PublicKey
	fetched time.Time
	etag    string

	group singleflight.Group
}

func newKeyCache(url string, hc *http.Client, ttl time.Duration) *keyCache {
	return &keyCache{url: url, http: hc, ttl: ttl}
}

func (c *keyCache) key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	c.mu.RLock()
	k, ok := c.keys[kid]
	fresh := time.Since(c.fetched) < c.ttl
	c.mu.RUnlock()
	if ok && fresh {
		return k, nil
	}

	if _, err, _ := c.group.Do("jwks", func() (any, error) { return nil, c.refresh(ctx, !ok) }); err != nil {
		// Con claves viejas en memoria seguimos sirviendo el kid conocido.
		if ok {
			return k, nil
		}
		return nil, err
	}

	c.mu.RLock()
	k, ok = c.keys[kid]
	c.mu.RUnlock()
	if !ok {
		return nil, errKidNotFound
	}
	return k, nil
}

// refresh baja el JWKS. force ignora el ETag (kid desconocido).
func (c *keyCache) refresh(ctx context.Context, force bool) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return err
	}
	c.mu.RLock()
	etag := c.etag
	c.mu.RUnlock()
	if etag != "" && !force {
		req.Header.Set("If-None-Match", etag)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("jwks fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		c.mu.Lock()
		c.fetched = time.Now()
		c.mu.Unlock()
		return nil
	}
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("jwks http %d", resp.StatusCode)
	}

	var set jwkSet
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return fmt.Errorf("jwks decode: %w", err)
	}
	keys := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, k := range set.Keys {
		if !strings.EqualFold(k.Kty, "RSA") {
			continue
		}
		pub, err := rsaKey(k)
		if err != nil {
			continue
		}
		keys[k.Kid] = pub
	}

	c.mu.Lock()
	c.keys = keys
	c.fetched = time.Now()
	c.etag = resp.Header.Get("ETag")
	c.mu.Unlock()
	return nil
}

func rsaKey(k jwk) (*rsa.PublicKey, error) {
	nb, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, err
	}
	eb, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, err
	}
	e := 65537
	if len(eb) > 0 {
		e = 0
		for _, b := range eb {
			e = e<<8 | int(b)
		}
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(nb), E: e}, nil
}
