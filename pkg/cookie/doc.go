// Package cookie provides HTTP cookie management with optional signing.
//
// The Manager handles plain and signed cookies with shared attribute
// defaults. A secret is only needed for signed operations; without one
// they return [ErrNoSecret].
//
// # Basic Usage
//
// Plain cookies work without a secret:
//
//	import (
//		"net/http"
//
//		"github.com/dmitrymomot/cachebox/pkg/cookie"
//	)
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//		m := cookie.New()
//		m.Set(w, "theme", "dark", 86400)
//		value, err := m.Get(r, "theme")
//		if err != nil {
//			// handle error
//		}
//	}
//
// # Signed Cookies
//
// Enable signing with a 32+ byte secret. Signed cookies detect tampering
// with HMAC-SHA256, and the cookie name is part of the signed input so a
// value cannot be replayed under a different name:
//
//	m := cookie.New(
//		cookie.WithSecret("your-32+-byte-secret-key-here!!"),
//		cookie.WithSecure(true),
//	)
//
//	err := m.SetSigned(w, "session", token, 86400)
//	token, err := m.GetSigned(r, "session")
//
// # Configuration
//
// Use options to configure cookie attributes:
//   - [WithSecret]: Set the secret for signing (32+ bytes)
//   - [WithDomain]: Set the cookie domain
//   - [WithPath]: Set the cookie path (default: "/")
//   - [WithSecure]: Set the Secure flag (HTTPS only)
//   - [WithHTTPOnly]: Set the HttpOnly flag (default: true)
//   - [WithSameSite]: Set the SameSite attribute (default: Lax)
//
// # Errors
//
// The package defines these sentinel errors:
//   - [ErrNotFound]: Cookie does not exist
//   - [ErrNoSecret]: Secret required for signed operations
//   - [ErrBadSecret]: Secret is present but shorter than 32 bytes
//   - [ErrBadSig]: Signature verification failed (tampering detected)
package cookie
