package users

import "time"

// Roles a user can hold.
const (
	RoleStandard = "standard"
	RoleElevated = "elevated"
)

type User struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullName"`
	GivenName  string    `json:"givenName"`
	FamilyName string    `json:"familyName"`
	PictureURL string    `json:"pictureUrl"`
	Role       string    `json:"role"`
	IsActive   bool      `json:"isActive"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func normalizeRole(role string) string {
	if role == RoleElevated {
		return RoleElevated
	}
	return RoleStandard
}
