// Package server provides HTTP routing, middleware, the login callback, and the local JSON API.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation registers [http.ServeMux] method patterns, so the mux answers 405 itself.
// [NewRouter] installs request ids, panic recovery, and request logging in that order.
//
// # Login Callback
//
// [CallbackHandler] completes a login started with [auth.Flow.BeginLogin]. The terminal login renders a small
// result page and reads the outcome from [CallbackHandler.Result]; the served app redirects to a landing path with
// the authorization parameters removed, so a reload never replays a consumed code.
//
// # JSON API
//
// [App] exposes search, the shared selection, and the merge over JSON:
//
//	GET    /                    login state, user, and selection summary
//	GET    /login               302 to the authorize URL
//	POST   /logout              forget the token
//	GET    /api/search?q=       artist search
//	GET    /api/selection       selected artists in insertion order
//	POST   /api/selection       add an artist
//	DELETE /api/selection       clear the selection
//	DELETE /api/selection/{id}  remove an artist
//	POST   /api/merge           create the merged playlist
//
// A missing or rejected token answers 401 with a login_url, other upstream failures answer 502, and a merge below
// the artist threshold answers 409.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
