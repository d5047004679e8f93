package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Client is a billing counterparty in a user's address book.
// (UserID, Name) is unique.
type Client struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// UserID is the owner of this client (for multi-tenant isolation)
	UserID string `gorm:"type:varchar(36);not null;uniqueIndex:idx_clients_owner_name" json:"userId"`

	Name    string `gorm:"size:255;not null;uniqueIndex:idx_clients_owner_name" json:"name"`
	Address string `gorm:"size:500" json:"address"`
	Email   string `gorm:"size:255" json:"email"`
	Phone   string `gorm:"size:50" json:"phone"`
	Website string `gorm:"size:255" json:"website"`
}

func (c *Client) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// GetUserID implements the Ownable interface for authorization.
func (c *Client) GetUserID() string {
	if c == nil {
		return ""
	}
	return c.UserID
}

// Normalize trims text fields and lowercases the email.
func (c *Client) Normalize() {
	c.Name = strings.TrimSpace(c.Name)
	c.Address = strings.TrimSpace(c.Address)
	c.Email = NormalizeEmail(c.Email)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Website = strings.TrimSpace(c.Website)
}

// SetContact overwrites every contact field with the customer snapshot.
func (c *Client) SetContact(d CustomerDetails) {
	c.Name = d.Name
	c.Address = d.Address
	c.Email = d.Email
	c.Phone = d.Phone
	c.Website = d.Website
	c.Normalize()
}
