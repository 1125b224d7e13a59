package model

// Actor is the authenticated user behind a write, as carried in the JWT claims.
type Actor struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// SystemActor stamps writes made by seeders and operator tools.
var SystemActor = Actor{ID: "system", Name: "system"}
