// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

// Account is the persisted credential record. It is created by a successful
// registration and is never edited or removed afterwards.
type Account struct {
	Username       string `json:"username"` // Unique, case-sensitive, letters and digits only.
	PasswordDigest string `json:"password"` // Output of the password hasher, never the plaintext.
}

// Credentials is the transient username/password pair carried by a registration
// candidate or a login attempt. Only its digest survives the request.
type Credentials struct {
	Username string
	Password string
}

// UsernameSet is a read-only view of the usernames already taken.
type UsernameSet map[string]struct{}

// NewUsernameSet collects the usernames of the given accounts.
func NewUsernameSet(accounts []Account) UsernameSet {
	set := make(UsernameSet, len(accounts))
	for _, account := range accounts {
		set[account.Username] = struct{}{}
	}

	return set
}

// Contains reports whether username is already taken (exact match).
func (s UsernameSet) Contains(username string) bool {
	_, ok := s[username]

	return ok
}
