package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// CookiesKey is the store key holding the service cookies. Processes that
// do not outlive a single call, such as the CLI, keep the server session
// alive through it.
const CookiesKey = "cookies"

type storedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// LoadCookies puts the persisted cookies for baseURL into jar. A missing
// value is not an error.
func LoadCookies(ctx context.Context, store Store, jar http.CookieJar, baseURL string) error {
	u, err := cookieURL(baseURL)
	if err != nil {
		return err
	}
	b, err := store.Get(ctx, CookiesKey)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read cookies: %w", err)
	}

	var stored []storedCookie
	if err := json.Unmarshal(b, &stored); err != nil {
		return fmt.Errorf("decode cookies: %w", err)
	}
	cookies := make([]*http.Cookie, 0, len(stored))
	for _, c := range stored {
		cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value, Path: "/"})
	}
	jar.SetCookies(u, cookies)
	return nil
}

// SaveCookies persists the cookies jar holds for baseURL. An empty jar
// removes the stored value.
func SaveCookies(ctx context.Context, store Store, jar http.CookieJar, baseURL string) error {
	u, err := cookieURL(baseURL)
	if err != nil {
		return err
	}
	cookies := jar.Cookies(u)
	if len(cookies) == 0 {
		if err := store.Remove(ctx, CookiesKey); err != nil && !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("remove cookies: %w", err)
		}
		return nil
	}

	stored := make([]storedCookie, 0, len(cookies))
	for _, c := range cookies {
		stored = append(stored, storedCookie{Name: c.Name, Value: c.Value})
	}
	b, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("encode cookies: %w", err)
	}
	if err := store.Set(ctx, CookiesKey, b); err != nil {
		return fmt.Errorf("write cookies: %w", err)
	}
	return nil
}

func cookieURL(baseURL string) (*url.URL, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	u.Path = "/"
	return u, nil
}
