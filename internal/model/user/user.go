package user

// User is a registered account as stored in the database.
type User struct {
	ID           int64  `json:"-"`
	UserID       string `json:"userid"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Verified     bool   `json:"-"`
}

// Info is the public identity shared with other users.
type Info struct {
	UserID   string `json:"userid"`
	Username string `json:"username"`
}

// Info strips the account down to its public fields.
func (u User) Info() Info {
	return Info{UserID: u.UserID, Username: u.Username}
}

// PrivateInfo is returned to the account owner only.
type PrivateInfo struct {
	UserID   string `json:"userid"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Verified bool   `json:"verified"`
}

// PrivateInfo includes the fields only the owner may see.
func (u User) PrivateInfo() PrivateInfo {
	return PrivateInfo{UserID: u.UserID, Username: u.Username, Email: u.Email, Verified: u.Verified}
}

// CreateRequest is the registration payload.
type CreateRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
