package transport

import (
	"time"

	"github.com/google/uuid"
)

// SizeClass is the informational size classifier carried on an agency.
type SizeClass string

const (
	SizeClassSmall  SizeClass = "small"
	SizeClassMedium SizeClass = "medium"
	SizeClassLarge  SizeClass = "large"
)

// Request DTOs
type CreateAgencyRequest struct {
	Name         string   `json:"name" validate:"required,min=1,max=200"`
	Email        string   `json:"email" validate:"required,email"`
	Phone        string   `json:"phone,omitempty" validate:"omitempty,min=5,max=20"`
	LogoURL      string   `json:"logoUrl,omitempty" validate:"omitempty,url"`
	PrimaryColor string   `json:"primaryColor,omitempty" validate:"omitempty,hexcolor"`
	Postcodes    []string `json:"postcodes" validate:"required,min=1,dive,len=4"`
	RoutingMode  string   `json:"routingMode,omitempty" validate:"omitempty,oneof=territory round_robin"`
	SizeClass    SizeClass `json:"sizeClass,omitempty" validate:"omitempty,oneof=small medium large"`
}

type UpdateAgencyRequest struct {
	Name         *string   `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Email        *string   `json:"email,omitempty" validate:"omitempty,email"`
	Phone        *string   `json:"phone,omitempty" validate:"omitempty,min=5,max=20"`
	LogoURL      *string   `json:"logoUrl,omitempty" validate:"omitempty,url"`
	PrimaryColor *string   `json:"primaryColor,omitempty" validate:"omitempty,hexcolor"`
	Postcodes    []string  `json:"postcodes,omitempty" validate:"omitempty,dive,len=4"`
	RoutingMode  *string   `json:"routingMode,omitempty" validate:"omitempty,oneof=territory round_robin"`
	SizeClass    *SizeClass `json:"sizeClass,omitempty" validate:"omitempty,oneof=small medium large"`
}

// Response DTOs
type AgencyResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	LogoURL      string    `json:"logoUrl,omitempty"`
	PrimaryColor string    `json:"primaryColor,omitempty"`
	Postcodes    []string  `json:"postcodes"`
	RoutingMode  string    `json:"routingMode"`
	SizeClass    string    `json:"sizeClass"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
