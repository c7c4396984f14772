package models

// Role is a collaborator's permission level within a trip.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// Valid reports whether r is one of the closed role set.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleEditor, RoleViewer:
		return true
	}
	return false
}

// Collaborator links a user to a trip with a role. Exactly one owner is
// created alongside the trip; the owner's id becomes the trip's OwnerID.
type Collaborator struct {
	ID        string `json:"id"`
	TripID    string `json:"tripId"`
	UserID    string `json:"userId"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	Role      Role   `json:"role"`
}

func (c *Collaborator) Validate() error {
	if c.ID == "" {
		return invalid("collaborator", "id", "must not be empty")
	}
	if c.TripID == "" {
		return invalid("collaborator", "tripId", "must not be empty")
	}
	if c.UserID == "" {
		return invalid("collaborator", "userId", "must not be empty")
	}
	if c.Username == "" {
		return invalid("collaborator", "username", "must not be empty")
	}
	if !c.Role.Valid() {
		return invalid("collaborator", "role", "must be owner, editor or viewer")
	}
	return nil
}

// CollaboratorPatch is a partial update onto an existing collaborator.
type CollaboratorPatch struct {
	ID        string  `json:"id"`
	Username  *string `json:"username,omitempty"`
	AvatarURL *string `json:"avatarUrl,omitempty"`
	Role      *Role   `json:"role,omitempty"`
}

func (p *CollaboratorPatch) Apply(c *Collaborator) {
	if p.Username != nil {
		c.Username = *p.Username
	}
	if p.AvatarURL != nil {
		c.AvatarURL = *p.AvatarURL
	}
	if p.Role != nil {
		c.Role = *p.Role
	}
}
