package apiclient

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
)

// CookieJar is a jar that can forget everything, used on logout.
type CookieJar interface {
	http.CookieJar
	Clear() error
}

// MemoryJar is the default in-process jar.
type MemoryJar struct {
	lock sync.RWMutex
	jar  *cookiejar.Jar
}

var _ CookieJar = (*MemoryJar)(nil)

func NewMemoryJar() *MemoryJar {
	jar, _ := cookiejar.New(nil)
	return &MemoryJar{jar: jar}
}

func (j *MemoryJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.lock.RLock()
	defer j.lock.RUnlock()
	j.jar.SetCookies(u, cookies)
}

func (j *MemoryJar) Cookies(u *url.URL) []*http.Cookie {
	j.lock.RLock()
	defer j.lock.RUnlock()
	return j.jar.Cookies(u)
}

func (j *MemoryJar) Clear() error {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return err
	}
	j.lock.Lock()
	defer j.lock.Unlock()
	j.jar = jar
	return nil
}
