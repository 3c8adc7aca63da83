package models

// User represents the identity attached to an authenticated session.
//
// Users are not persisted. They are built from the identity provider's
// userinfo response at login and carried in the session token afterwards.
type User struct {
	// ID is the provider's subject identifier ("sub").
	ID string

	// DisplayName is the provider's name, preferred_username or email,
	// whichever is present first.
	DisplayName string

	// Email is the user's email address, if the provider returned one.
	Email string
}
