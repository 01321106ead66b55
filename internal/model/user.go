package model

// Status is a user's presence status as shown to other participants.
type Status string

const (
	StatusOnline  Status = "online"
	StatusAway    Status = "away"
	StatusBusy    Status = "busy"
	StatusOffline Status = "offline"
)

// Valid reports whether s is one of the four known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusOnline, StatusAway, StatusBusy, StatusOffline:
		return true
	}
	return false
}

// User is a participant known to the directory. The username is the identity;
// there is no separate numeric key. Online must be false exactly when Status
// is offline, and true for any other status.
type User struct {
	Username string `json:"username"`
	Online   bool   `json:"online"`
	Status   Status `json:"status"`
}

// WithStatus returns a copy of u with the status applied and the Online flag
// kept consistent with it.
func (u User) WithStatus(s Status) User {
	u.Status = s
	u.Online = s != StatusOffline
	return u
}
