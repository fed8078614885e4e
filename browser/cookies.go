package browser

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-rod/rod/lib/proto"
)

// SaveCookies writes the browser's cookies to a JSON file so platform
// sessions survive restarts.
func (m *Manager) SaveCookies(path string) error {
	b := m.Browser()
	if b == nil {
		return fmt.Errorf("browser: no active browser")
	}

	cookies, err := b.GetCookies()
	if err != nil {
		return fmt.Errorf("browser: get cookies: %w", err)
	}
	data, err := json.MarshalIndent(cookies, "", "  ")
	if err != nil {
		return fmt.Errorf("browser: marshal cookies: %w", err)
	}
	// Session cookies are credentials. Keep the file owner-only.
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("browser: write cookies: %w", err)
	}
	return nil
}

// LoadCookies restores cookies saved by SaveCookies. A missing file is not an
// error; it just means a fresh session.
func (m *Manager) LoadCookies(path string) error {
	b := m.Browser()
	if b == nil {
		return fmt.Errorf("browser: no active browser")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("browser: read cookies: %w", err)
	}

	var cookies []*proto.NetworkCookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return fmt.Errorf("browser: parse cookies: %w", err)
	}

	params := make([]*proto.NetworkCookieParam, 0, len(cookies))
	for _, c := range cookies {
		params = append(params, &proto.NetworkCookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
			SameSite: c.SameSite,
			Expires:  c.Expires,
		})
	}
	if err := b.SetCookies(params); err != nil {
		return fmt.Errorf("browser: set cookies: %w", err)
	}
	return nil
}
