// Package item defines the lost-item model and its invariants.
package item

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mylost-cloud/mylost/internal/domain"
	"github.com/mylost-cloud/mylost/internal/domain/geo"
)

// FinderInfo is the contact block of the person who found the item.
// Shape is validated; reachability is not.
type FinderInfo struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Draft is an unvalidated lost-item submission.
type Draft struct {
	Latitude       float64
	Longitude      float64
	Category       string
	Description    string
	FoundAtAddress string
	Notes          string
	ImageURL       string
	Finder         FinderInfo
}

// LostItem is a reported item. Items are append-only: created once via the
// submission pipeline and never updated.
type LostItem struct {
	ID             string     `json:"id"`
	Latitude       float64    `json:"latitude"`
	Longitude      float64    `json:"longitude"`
	Category       string     `json:"category"`
	Description    string     `json:"description"`
	FoundAtAddress string     `json:"found_at_address"`
	Notes          string     `json:"notes,omitempty"`
	ImageURL       string     `json:"image_url,omitempty"`
	Finder         FinderInfo `json:"finder_info"`
	CreatedAt      time.Time  `json:"created_at"`
}

// New validates a draft and builds a LostItem with server-assigned identity.
// The category is stored trimmed and lowercased so lookups stay
// case-insensitive. createdAt is normalized to UTC.
func New(d Draft, id string, createdAt time.Time) (LostItem, error) {
	if err := d.Validate(); err != nil {
		return LostItem{}, err
	}
	return LostItem{
		ID:             id,
		Latitude:       d.Latitude,
		Longitude:      d.Longitude,
		Category:       NormalizeCategory(d.Category),
		Description:    strings.TrimSpace(d.Description),
		FoundAtAddress: strings.TrimSpace(d.FoundAtAddress),
		Notes:          strings.TrimSpace(d.Notes),
		ImageURL:       strings.TrimSpace(d.ImageURL),
		Finder: FinderInfo{
			Name:  strings.TrimSpace(d.Finder.Name),
			Email: strings.TrimSpace(d.Finder.Email),
			Phone: strings.TrimSpace(d.Finder.Phone),
		},
		CreatedAt: createdAt.UTC(),
	}, nil
}

// NormalizeCategory canonicalizes a category for storage and matching.
func NormalizeCategory(category string) string {
	return strings.ToLower(strings.TrimSpace(category))
}

// Validate checks the draft against the item invariants.
// Every violation wraps domain.ErrValidation.
func (d Draft) Validate() error {
	if !geo.ValidCoordinates(d.Latitude, d.Longitude) {
		return invalid("coordinates out of range: latitude must be in [-90,90], longitude in [-180,180]")
	}
	if n := runeLen(d.Category); n < 1 || n > 50 {
		return invalid("category must be between 1 and 50 characters")
	}
	if n := runeLen(d.Description); n < 10 || n > 500 {
		return invalid("description must be between 10 and 500 characters")
	}
	if n := runeLen(d.FoundAtAddress); n < 5 || n > 200 {
		return invalid("found_at_address must be between 5 and 200 characters")
	}
	if runeLen(d.Notes) > 1000 {
		return invalid("notes must be at most 1000 characters")
	}
	if n := runeLen(d.Finder.Name); n < 2 || n > 100 {
		return invalid("finder name must be between 2 and 100 characters")
	}
	if email := strings.TrimSpace(d.Finder.Email); email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return invalid("finder email is not a valid address")
		}
	}
	if phone := strings.TrimSpace(d.Finder.Phone); phone != "" {
		if n := runeLen(phone); n < 10 || n > 15 {
			return invalid("finder phone must be between 10 and 15 characters")
		}
	}
	return nil
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", domain.ErrValidation, msg)
}

func runeLen(s string) int {
	return utf8.RuneCountInString(strings.TrimSpace(s))
}
