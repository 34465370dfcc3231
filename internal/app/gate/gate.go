/*
Package gate decides which views a visitor may see.

Protected routes render only while a session is present; otherwise the visitor is sent to the
registration view. The decision is driven solely by the presence of a session value.
*/
package gate

import "whatsgram/internal/app/session"

// State is the authentication state of the visitor.
type State int

const (
	// Unauthenticated means no session is present.
	Unauthenticated State = iota
	// Authenticated means a session is present.
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

// Route names a view of the client.
type Route string

const (
	RouteLogin           Route = "/login"
	RouteRegister        Route = "/register"
	RouteHome            Route = "/"
	RouteProfile         Route = "/profile"
	RouteSelectedProfile Route = "/selectedProfile"
)

// RedirectRoute is where unauthenticated visitors of protected views land.
const RedirectRoute = RouteRegister

// Evaluate returns the state for sess.
func Evaluate(sess *session.Session) State {
	if sess.Valid() {
		return Authenticated
	}
	return Unauthenticated
}

// IsProtected reports whether route requires a session.
func IsProtected(route Route) bool {
	switch route {
	case RouteLogin, RouteRegister:
		return false
	default:
		return true
	}
}

// Resolve returns the route that actually renders when route is requested.
// Unknown routes sit behind the gate and render the registration view.
func Resolve(route Route, sess *session.Session) Route {
	if !IsProtected(route) {
		return route
	}

	if Evaluate(sess) == Unauthenticated {
		return RedirectRoute
	}

	switch route {
	case RouteHome, RouteProfile, RouteSelectedProfile:
		return route
	default:
		return RouteRegister
	}
}
