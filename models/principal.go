package models

// Principal is the verified caller of a request. It is never persisted.
type Principal struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}
