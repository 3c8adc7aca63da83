package models

import "time"

// Person is someone the user tracks debts with.
type Person struct {
	// ID is the store-assigned identifier.
	ID int64

	// Name is the display name of the person (required).
	Name string

	// Relationship is a free-form label such as "friend" or "family".
	Relationship *string

	// Email is an optional contact address.
	Email *string

	// Phone is an optional contact number.
	Phone *string

	// CreatedAt is when the person was first recorded.
	CreatedAt time.Time
}

// PersonPatch holds a partial update for a Person.
// Nil fields are left unchanged. For the optional contact fields a non-nil
// pointer to the empty string clears the stored value.
type PersonPatch struct {
	Name         *string
	Relationship *string
	Email        *string
	Phone        *string
}

// Apply returns a copy of p with the patch applied.
func (patch PersonPatch) Apply(p Person) Person {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	p.Relationship = applyOptional(p.Relationship, patch.Relationship)
	p.Email = applyOptional(p.Email, patch.Email)
	p.Phone = applyOptional(p.Phone, patch.Phone)
	return p
}

func applyOptional(current, next *string) *string {
	if next == nil {
		return current
	}
	if *next == "" {
		return nil
	}
	v := *next
	return &v
}
