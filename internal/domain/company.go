package domain

import "time"

// Company is the tenancy boundary; every user and ticket belongs to one.
type Company struct {
	ID        string
	Name      string
	CreatedAt time.Time
}
