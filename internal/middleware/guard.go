package middleware

import (
	"path"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// RedirectCookie remembers where to send the user after signing in.
const RedirectCookie = "redirectAfterLogin"

var publicPages = map[string]struct{}{
	"/":        {},
	"/about":   {},
	"/contact": {},
	"/signin":  {},
	"/signup":  {},
}

var unguardedPrefixes = []string{"/api", "/_next", "/metrics"}

// PageGuard protects frontend pages. Visitors without a valid session are
// sent to /signin with the requested path remembered in a cookie; signed-in
// users are sent away from the sign-in and sign-up pages.
func PageGuard(verifier SessionVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := c.Path()
		if !isPage(p) {
			return c.Next()
		}

		signedIn := false
		if token := c.Cookies(SessionCookie); token != "" {
			if _, err := verifier.VerifySession(token); err == nil {
				signedIn = true
			} else {
				c.ClearCookie(SessionCookie)
			}
		}

		if signedIn && (p == "/signin" || p == "/signup") {
			return c.Redirect("/", fiber.StatusTemporaryRedirect)
		}
		if _, public := publicPages[p]; !signedIn && !public {
			c.Cookie(&fiber.Cookie{Name: RedirectCookie, Value: p, Path: "/", SameSite: fiber.CookieSameSiteLaxMode})
			return c.Redirect("/signin", fiber.StatusTemporaryRedirect)
		}
		return c.Next()
	}
}

// isPage reports whether p is a frontend route rather than an API call or a
// static asset.
func isPage(p string) bool {
	for _, prefix := range unguardedPrefixes {
		if p == prefix || strings.HasPrefix(p, prefix+"/") {
			return false
		}
	}
	return path.Ext(p) == ""
}
