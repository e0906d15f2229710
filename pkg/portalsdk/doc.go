// Package portalsdk is the client SDK for the CampusLink portal service.
//
// It provides the HTTP Client plus the stateful building blocks a portal
// frontend composes: SessionManager (authentication and capability state),
// Guard (route admission), PostSync (live like/comment state for one post)
// and ThreadLoader (comment threads joined with author profiles).
package portalsdk
