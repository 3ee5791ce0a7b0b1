package localstore

import (
	"database/sql"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"github.com/jrsteele09/contract-desk/apiclient"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// CookieJar keeps the API's cookies (the refresh token and its CSRF pair)
// across restarts. Matching rules come from net/http/cookiejar; every
// accepted cookie is mirrored to the cookies table.
type CookieJar struct {
	db   *sql.DB
	now  func() time.Time
	lock sync.RWMutex
	jar  *cookiejar.Jar
}

var _ apiclient.CookieJar = (*CookieJar)(nil)

// CookieJar loads the persisted cookies into a new jar.
func (d *DB) CookieJar() (*CookieJar, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, errors.Wrap(err, "[DB.CookieJar] new jar")
	}
	j := &CookieJar{db: d.db, now: time.Now, jar: jar}
	if err := j.load(); err != nil {
		return nil, err
	}
	return j, nil
}

func (j *CookieJar) load() error {
	rows, err := j.db.Query(`SELECT host, name, path, value, domain, expires, secure, http_only FROM cookies`)
	if err != nil {
		return errors.Wrap(err, "[CookieJar.load] query")
	}
	defer rows.Close()

	now := j.now()
	type key struct{ host, name, path string }
	var expired []key
	for rows.Next() {
		var (
			host, domain   string
			expires        int64
			secure, httpOn int
			c              http.Cookie
		)
		if err := rows.Scan(&host, &c.Name, &c.Path, &c.Value, &domain, &expires, &secure, &httpOn); err != nil {
			return errors.Wrap(err, "[CookieJar.load] scan")
		}
		c.Domain = domain
		c.Secure = secure == 1
		c.HttpOnly = httpOn == 1
		if expires > 0 {
			c.Expires = time.Unix(expires, 0)
			if !c.Expires.After(now) {
				expired = append(expired, key{host, c.Name, c.Path})
				continue
			}
		}
		j.jar.SetCookies(cookieURL(host, c.Path, c.Secure), []*http.Cookie{&c})
	}
	if err := rows.Err(); err != nil {
		return errors.Wrap(err, "[CookieJar.load] rows")
	}
	for _, k := range expired {
		j.forget(k.host, k.name, k.path)
	}
	return nil
}

func (j *CookieJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.lock.RLock()
	defer j.lock.RUnlock()
	j.jar.SetCookies(u, cookies)

	host := u.Hostname()
	for _, c := range cookies {
		path := c.Path
		if path == "" {
			path = defaultPath(u.Path)
		}
		if c.MaxAge < 0 || (!c.Expires.IsZero() && !c.Expires.After(j.now())) {
			j.forget(host, c.Name, path)
			continue
		}
		j.persist(host, path, c)
	}
}

func (j *CookieJar) Cookies(u *url.URL) []*http.Cookie {
	j.lock.RLock()
	defer j.lock.RUnlock()
	return j.jar.Cookies(u)
}

// Clear drops every cookie from memory and disk.
func (j *CookieJar) Clear() error {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return errors.Wrap(err, "[CookieJar.Clear] new jar")
	}
	j.lock.Lock()
	defer j.lock.Unlock()
	j.jar = jar
	_, err = j.db.Exec(`DELETE FROM cookies`)
	return errors.Wrap(err, "[CookieJar.Clear] delete")
}

func (j *CookieJar) persist(host, path string, c *http.Cookie) {
	var expires int64
	switch {
	case c.MaxAge > 0:
		expires = j.now().Add(time.Duration(c.MaxAge) * time.Second).Unix()
	case !c.Expires.IsZero():
		expires = c.Expires.Unix()
	}
	_, err := j.db.Exec(
		`INSERT INTO cookies (host, name, path, value, domain, expires, secure, http_only)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(host, name, path) DO UPDATE SET
		   value = excluded.value, domain = excluded.domain, expires = excluded.expires,
		   secure = excluded.secure, http_only = excluded.http_only`,
		host, c.Name, path, c.Value, c.Domain, expires, boolInt(c.Secure), boolInt(c.HttpOnly))
	if err != nil {
		log.Warn().Err(err).Str("cookie", c.Name).Msg("failed to persist cookie")
	}
}

func (j *CookieJar) forget(host, name, path string) {
	if _, err := j.db.Exec(`DELETE FROM cookies WHERE host = ? AND name = ? AND path = ?`, host, name, path); err != nil {
		log.Warn().Err(err).Str("cookie", name).Msg("failed to forget cookie")
	}
}

func cookieURL(host, path string, secure bool) *url.URL {
	scheme := "http"
	if secure {
		scheme = "https"
	}
	return &url.URL{Scheme: scheme, Host: host, Path: path}
}

// defaultPath mirrors RFC 6265 section 5.1.4.
func defaultPath(requestPath string) string {
	if requestPath == "" || requestPath[0] != '/' {
		return "/"
	}
	i := len(requestPath) - 1
	for i > 0 && requestPath[i] != '/' {
		i--
	}
	if i == 0 {
		return "/"
	}
	return requestPath[:i]
}
