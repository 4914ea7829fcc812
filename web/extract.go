package web

import (
	"strings"

	"github.com/goliatone/go-router"
)

// TokenExtractor pulls a raw bearer token out of a request. An empty string
// means the source had no token.
type TokenExtractor func(ctx router.Context) string

// GetExtractors parses a lookup definition such as
// "header:Authorization,cookie:token,query:auth_token".
func GetExtractors(tokenLookup string, authSchemes ...string) []TokenExtractor {
	extractors := make([]TokenExtractor, 0)

	authScheme := "Bearer"
	if len(authSchemes) > 0 && authSchemes[0] != "" {
		authScheme = authSchemes[0]
	}

	for _, rootPart := range strings.Split(tokenLookup, ",") {
		parts := strings.SplitN(strings.TrimSpace(rootPart), ":", 2)
		if len(parts) != 2 {
			continue
		}
		source, name := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])

		switch source {
		case "header":
			extractors = append(extractors, tokenFromHeader(name, authScheme))
		case "query":
			extractors = append(extractors, tokenFromQuery(name))
		case "cookie":
			extractors = append(extractors, tokenFromCookie(name))
		}
	}

	return extractors
}

// ExtractToken returns the first token any extractor finds
func ExtractToken(ctx router.Context, extractors []TokenExtractor) string {
	for _, extract := range extractors {
		if token := extract(ctx); token != "" {
			return token
		}
	}
	return ""
}

func tokenFromHeader(header, authScheme string) TokenExtractor {
	authScheme = strings.TrimSpace(authScheme)
	l := len(authScheme)
	return func(ctx router.Context) string {
		a := ctx.Header(header)
		if len(a) > l+1 && strings.EqualFold(a[:l], authScheme) {
			return strings.TrimSpace(a[l:])
		}
		return ""
	}
}

func tokenFromQuery(param string) TokenExtractor {
	return func(ctx router.Context) string {
		return ctx.Query(param, "")
	}
}

func tokenFromCookie(name string) TokenExtractor {
	return func(ctx router.Context) string {
		return ctx.Cookies(name)
	}
}
