package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CompanyProfile is the user's own business identity printed on invoices.
type CompanyProfile struct {
	Name          string `gorm:"size:255" json:"name"`
	Address       string `gorm:"size:500" json:"address"`
	Phone         string `gorm:"size:50" json:"phone"`
	Email         string `gorm:"size:255" json:"email"`
	Website       string `gorm:"size:255" json:"website"`
	BankName      string `gorm:"size:255" json:"bankName"`
	AccountName   string `gorm:"size:255" json:"accountName"`
	AccountNumber string `gorm:"size:50" json:"accountNumber"`
	BSB           string `gorm:"size:20" json:"bsb"`
	ABN           string `gorm:"size:20" json:"abn"`
	ACN           string `gorm:"size:20" json:"acn"`
}

// User represents an authenticated user in the system.
type User struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Email     string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password  string    `gorm:"size:255;not null" json:"-"` // Hashed, never exposed in JSON

	CompanyProfile CompanyProfile `gorm:"embedded;embeddedPrefix:company_" json:"companyProfile"`

	// Only the SHA-256 digest of a reset token is stored.
	ResetTokenHash   *string    `gorm:"size:64;index" json:"-"`
	ResetTokenExpiry *time.Time `json:"-"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// ClearResetToken makes a consumed reset token unusable.
func (u *User) ClearResetToken() {
	u.ResetTokenHash = nil
	u.ResetTokenExpiry = nil
}

// NormalizeEmail trims and lowercases an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
