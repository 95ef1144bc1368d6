package model

import "time"

// Contact is the data structure for a person that we know.
// Name and Email are mandatory, Email is unique across all contacts.
type Contact struct {
	Id        int64     `json:"id"        db:"id"         gorm:"primaryKey"`
	Name      string    `json:"name"      db:"name"       gorm:"not null"`
	Email     string    `json:"email"     db:"email"      gorm:"not null;uniqueIndex"`
	Phone     *string   `json:"phone"     db:"phone"`
	CreatedAt time.Time `json:"createdAt" db:"created_at" gorm:"autoCreateTime"`
}

// TableName tells the OR mapper which table holds the contacts.
func (Contact) TableName() string {
	return "contacts"
}

// NewContact is the request body for creating a contact.
type NewContact struct {
	Name  string  `json:"name"  binding:"required"`
	Email string  `json:"email" binding:"required"`
	Phone *string `json:"phone"`
}

// Contact converts the request body into a contact without id and creation time. An empty phone
// number is treated as no phone number at all.
func (n NewContact) Contact() Contact {
	return Contact{
		Name:  n.Name,
		Email: n.Email,
		Phone: normalizePhone(n.Phone),
	}
}

// ContactPatch is the request body for a partial update. Fields that are absent or null keep
// their current value.
type ContactPatch struct {
	Name  *string `json:"name"  binding:"omitempty,min=1"`
	Email *string `json:"email" binding:"omitempty,min=1"`
	Phone *string `json:"phone"`
}

// ApplyTo overwrites the fields of the contact that are present in the patch. A present but empty
// phone number removes the phone number.
func (p ContactPatch) ApplyTo(c *Contact) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Email != nil {
		c.Email = *p.Email
	}
	if p.Phone != nil {
		c.Phone = normalizePhone(p.Phone)
	}
}

func normalizePhone(phone *string) *string {
	if phone == nil || *phone == "" {
		return nil
	}
	p := *phone
	return &p
}
