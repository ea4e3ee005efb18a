package model

// Identity is the logged-in user as the client knows it
type Identity struct {
	Username string `json:"username"`
}

// Credential is the opaque bearer token paired with an Identity
type Credential struct {
	Token string `json:"-"`
}

// Session pairs an Identity with its Credential. Either both are set or the
// user is logged out.
type Session struct {
	Identity   Identity
	Credential Credential
}

// Valid reports whether both halves of the session are present
func (s Session) Valid() bool {
	return s.Identity.Username != "" && s.Credential.Token != ""
}
