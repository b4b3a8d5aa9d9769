package domain

// Identity describes the authenticated caller of a request.
type Identity struct {
	UserID string
	Tenant string
	Admin  bool
}

// Authenticated reports whether the identity belongs to a known caller.
func (i Identity) Authenticated() bool {
	return i.UserID != ""
}
