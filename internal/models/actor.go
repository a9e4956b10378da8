package models

// Role identifies which side of the marketplace an actor acts for.
type Role string

const (
	RoleBrand   Role = "brand"
	RoleCreator Role = "creator"
)

// Actor is the authenticated caller, as asserted by the auth layer.
type Actor struct {
	ID   string `json:"actorId"`
	Role Role   `json:"actorRole"`
}

func (a Actor) Valid() bool {
	return a.ID != "" && (a.Role == RoleBrand || a.Role == RoleCreator)
}
