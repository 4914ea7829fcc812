package web

import (
	"time"

	"github.com/goliatone/go-router"
)

// SetTokenCookie stores the bearer token in an http only cookie that
// expires together with the token.
func SetTokenCookie(ctx router.Context, name, token string, expires time.Time, secure bool) {
	ctx.Cookie(&router.Cookie{
		Name:     name,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   secure,
		SameSite: "Lax",
	})
}

func ClearTokenCookie(ctx router.Context, name string, secure bool) {
	ctx.Cookie(&router.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   secure,
		SameSite: "Lax",
	})
}
