package portalsdk

import "sync"

// Decision is the admission verdict for a route.
type Decision int

const (
	// DecisionWait means the session is still resolving; render nothing yet.
	DecisionWait Decision = iota

	// DecisionAllow admits the route.
	DecisionAllow

	// DecisionRedirectLogin sends an unauthenticated user to the login route.
	DecisionRedirectLogin

	// DecisionRedirectHome sends an authenticated but unauthorized user to
	// the landing route. Authorization failure is a routing outcome, not an
	// error.
	DecisionRedirectHome
)

func (d Decision) String() string {
	switch d {
	case DecisionWait:
		return "wait"
	case DecisionAllow:
		return "allow"
	case DecisionRedirectLogin:
		return "redirect-login"
	case DecisionRedirectHome:
		return "redirect-home"
	default:
		return "unknown"
	}
}

// Decide is the pure admission rule. The administrator capability satisfies
// every other requirement; nothing but the administrator capability
// satisfies an Admin requirement.
func Decide(s Session, req Requirements) Decision {
	if s.Loading {
		return DecisionWait
	}
	if !s.SignedIn() {
		return DecisionRedirectLogin
	}

	if req.Admin && !s.Administrator {
		return DecisionRedirectHome
	}
	if req.StudentCouncil && !s.StudentCouncil && !s.Administrator {
		return DecisionRedirectHome
	}
	if req.Faculty && !s.Faculty && !s.Administrator {
		return DecisionRedirectHome
	}
	if req.Verified && !s.Verified && !s.Administrator {
		return DecisionRedirectHome
	}

	return DecisionAllow
}

// Guard re-evaluates a route's requirements on every session change, so a
// revoked capability takes effect without a reload.
type Guard struct {
	Sessions *SessionManager
}

// Watch evaluates req against the current session and again after every
// session change, invoking fn whenever the decision differs from the last
// one delivered. It returns an unsubscribe func.
func (g *Guard) Watch(req Requirements, fn func(Decision)) func() {
	var mu sync.Mutex
	last := Decide(g.Sessions.Snapshot(), req)
	fn(last)

	return g.Sessions.Subscribe(func(s Session) {
		d := Decide(s, req)

		mu.Lock()
		changed := d != last
		last = d
		mu.Unlock()

		if changed {
			fn(d)
		}
	})
}
