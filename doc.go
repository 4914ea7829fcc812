// Package session manages client side authentication state for the social
// network backend (posts, groups, comments, events, reactions,
// notifications, admin management).
//
// Session lifecycle:
//   - A bearer token is persisted in a TokenStore under a single key. Its
//     absence means the client is logged out.
//   - The Validator reads the token, decodes the claims, and compares the
//     expiry (minus a grace window) with the current time. The Store is then
//     either replaced with a fully decoded Session or cleared; consumers never
//     see a partially populated session.
//   - The RedirectPolicy is a pure function of (State, path) that tells the
//     Navigator where to go: login, home, admin home, or nowhere.
//
// Revalidation:
//   - Monitor owns a Ticker (fixed interval) and a Debouncer (user activity).
//     Both are created by the composition root and disposed with Close, no
//     package level state is involved.
//
// Auth operations:
//   - Service wraps the REST Client for login, register, verify, resend and
//     logout. Every operation either replaces or clears the session as a
//     whole, and returns errors so callers can show a notification.
package session
