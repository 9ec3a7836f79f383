// Package entity maps collection pages into typed, localized domain
// entities and applies the per-collection listing rules.
package entity

import (
	"strings"
	"time"
)

type FAQ struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Category string `json:"category"`
	Order    int    `json:"order"`
}

type TeamMember struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Role     string  `json:"role"`
	Bio      string  `json:"bio"`
	Image    string  `json:"image"`
	LinkedIn *string `json:"linkedin,omitempty"`
}

type Event struct {
	ID               string           `json:"id"`
	Title            string           `json:"title"`
	Description      string           `json:"description"`
	Date             time.Time        `json:"date"`
	Location         string           `json:"location"`
	Image            *string          `json:"image,omitempty"`
	Capacity         *int             `json:"capacity,omitempty"`
	RegisteredCount  *int             `json:"registered_count,omitempty"`
	RegistrationType RegistrationType `json:"registration_type"`
	RegistrationLink *string          `json:"registration_link,omitempty"`
}

// SpotsLeft returns the remaining capacity, or nil when capacity is
// unknown.
func (e Event) SpotsLeft() *int {
	if e.Capacity == nil {
		return nil
	}
	left := *e.Capacity
	if e.RegisteredCount != nil {
		left -= *e.RegisteredCount
	}
	if left < 0 {
		left = 0
	}
	return &left
}

type Author struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image"`
}

type BlogPost struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Excerpt     string    `json:"excerpt"`
	CoverImage  string    `json:"cover_image"`
	PublishedAt time.Time `json:"published_at"`
	Category    *string   `json:"category,omitempty"`
	Author      Author    `json:"author"`
}

// RegistrationType is the closed set of event registration channels.
type RegistrationType string

const (
	RegistrationNone     RegistrationType = "none"
	RegistrationWhatsApp RegistrationType = "whatsapp"
	RegistrationForms    RegistrationType = "forms"
)

// ParseRegistrationType case-folds a select label. Anything other than
// whatsapp or forms, including an empty label, is RegistrationNone.
func ParseRegistrationType(label string) RegistrationType {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "whatsapp":
		return RegistrationWhatsApp
	case "forms":
		return RegistrationForms
	}
	return RegistrationNone
}
