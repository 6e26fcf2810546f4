package domain

import "slices"

// User is one directory entry. ID is the sole key for equality, deletion
// matching and list identity.
type User struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Country   string `json:"country"`
	Thumbnail string `json:"thumbnail"`
}

// IndexOf returns the position of the user with the given ID, or -1.
func IndexOf(users []User, id string) int {
	return slices.IndexFunc(users, func(u User) bool { return u.ID == id })
}
