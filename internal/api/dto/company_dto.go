package dto

import "time"

// CompanyRequest payload for create and update.
type CompanyRequest struct {
	Name string `json:"name"`
}

// CompanyResponse representation.
type CompanyResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
