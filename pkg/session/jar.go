package session

import (
	"encoding/json"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// storedCookie is the on-disk shape of one cookie.
type storedCookie struct {
	Name    string    `json:"name"`
	Value   string    `json:"value"`
	Expires time.Time `json:"expires,omitempty"`
}

// Jar is a minimal http.CookieJar keyed by host, persisted as JSON so the
// token cookies survive across CLI invocations. It intentionally skips
// path/domain matching; the client only ever talks to one backend host.
type Jar struct {
	mu      sync.Mutex
	cookies map[string]map[string]storedCookie // host -> name -> cookie
}

func NewJar() *Jar {
	return &Jar{cookies: make(map[string]map[string]storedCookie)}
}

func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()

	host := u.Hostname()
	if j.cookies[host] == nil {
		j.cookies[host] = make(map[string]storedCookie)
	}
	for _, c := range cookies {
		if c.MaxAge < 0 || (!c.Expires.IsZero() && c.Expires.Before(time.Now())) {
			delete(j.cookies[host], c.Name)
			continue
		}
		expires := c.Expires
		if c.MaxAge > 0 {
			expires = time.Now().Add(time.Duration(c.MaxAge) * time.Second)
		}
		j.cookies[host][c.Name] = storedCookie{Name: c.Name, Value: c.Value, Expires: expires}
	}
}

func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()

	var out []*http.Cookie
	for _, c := range j.cookies[u.Hostname()] {
		if !c.Expires.IsZero() && c.Expires.Before(time.Now()) {
			continue
		}
		out = append(out, &http.Cookie{Name: c.Name, Value: c.Value})
	}
	return out
}

// Clear drops all cookies.
func (j *Jar) Clear() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.cookies = make(map[string]map[string]storedCookie)
}

// Save writes the jar to path, creating parent directories as needed.
func (j *Jar) Save(path string) error {
	j.mu.Lock()
	data, err := json.MarshalIndent(j.cookies, "", "  ")
	j.mu.Unlock()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// Load reads the jar from path. A missing file leaves the jar empty.
func (j *Jar) Load(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	cookies := make(map[string]map[string]storedCookie)
	if err := json.Unmarshal(data, &cookies); err != nil {
		return err
	}

	j.mu.Lock()
	j.cookies = cookies
	j.mu.Unlock()
	return nil
}
