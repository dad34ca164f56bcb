package authx

// Identity is what the external identity service asserts about a bearer
// token. The token itself stays opaque to this service.
type Identity struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Admin  bool   `json:"admin"`
}

// Anonymous is the zero identity for requests without a credential.
var Anonymous = Identity{}

func (id Identity) IsAnonymous() bool { return id.UserID == "" }
