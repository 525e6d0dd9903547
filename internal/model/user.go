package model

import "time"

const (
	RoleFarmer = "Agriculteur"
	RoleVendor = "Vendeur"
	RoleAdmin  = "admin"
)

type User struct {
	ID                 string    `bson:"_id"`
	Name               string    `bson:"name"`
	Email              string    `bson:"email"`
	Phone              string    `bson:"phone"`
	Region             string    `bson:"region"`
	AgroEcologicalZone string    `bson:"agroEcologicalZone"`
	Address            string    `bson:"address"`
	Role               string    `bson:"role"`
	IsAdmin            bool      `bson:"isAdmin"`
	Disabled           bool      `bson:"disabled"`
	PasswordHash       string    `bson:"passwordHash,omitempty"`
	CreatedAt          time.Time `bson:"createdAt"`
	UpdatedAt          time.Time `bson:"updatedAt"`
}

// EffectiveRole returns the stored role, defaulting to farmer.
func (u *User) EffectiveRole() string {
	if u.Role == "" {
		return RoleFarmer
	}
	return u.Role
}

func (u *User) HasAdminRights() bool {
	return u.Role == RoleAdmin || u.IsAdmin
}
