package models

import (
	"time"

	"github.com/google/uuid"
)

// Property type constants
const (
	PropertyApartment = "apartment"
	PropertyHouse     = "house"
	PropertyCondo     = "condo"
	PropertyTownhouse = "townhouse"
	PropertyOther     = "other"
)

// PropertyTypes lists the accepted property types in display order.
var PropertyTypes = []string{PropertyApartment, PropertyHouse, PropertyCondo, PropertyTownhouse, PropertyOther}

// ValidPropertyType reports whether t is one of PropertyTypes.
func ValidPropertyType(t string) bool {
	for _, v := range PropertyTypes {
		if v == t {
			return true
		}
	}
	return false
}

// Property is a listed real-estate unit that can be reviewed.
type Property struct {
	ID           uuid.UUID       `json:"id"`
	Address      string          `json:"address"`
	City         string          `json:"city"`
	State        string          `json:"state"`
	Zip          string          `json:"zip"`
	PropertyType string          `json:"property_type"`
	Description  string          `json:"description,omitempty"`
	CreatedBy    *uuid.UUID      `json:"created_by,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	Images       []PropertyImage `json:"images,omitempty"`
}

// FullAddress joins the address parts for display.
func (p *Property) FullAddress() string {
	return p.Address + ", " + p.City + ", " + p.State + " " + p.Zip
}

// CanManage reports whether u may change the property's images.
func (p *Property) CanManage(u *User) bool {
	if u == nil || u.Suspended {
		return false
	}
	if u.IsAdmin() {
		return true
	}
	return p.CreatedBy != nil && *p.CreatedBy == u.ID
}

// PropertyImage is an uploaded image attached to a property.
type PropertyImage struct {
	ID         uuid.UUID `json:"id"`
	PropertyID uuid.UUID `json:"property_id"`
	URL        string    `json:"url"`
	StorageKey string    `json:"-"`
	Position   int       `json:"position"`
	CreatedAt  time.Time `json:"created_at"`
}
