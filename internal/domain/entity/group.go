package entity

// UserGroup is a named tag attached to many users and many invites.
type UserGroup struct {
	ID   string
	Name string
}
