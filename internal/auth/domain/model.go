// Package domain contains core types for the auth service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// User represents a storefront account.
type User struct {
	ID           snowflake.ID `gorm:"primaryKey"`
	Firstname    string       `gorm:"type:text;not null"`
	Surname      string       `gorm:"type:text;not null"`
	Email        string       `gorm:"column:email;type:varchar(255);not null;uniqueIndex"`
	PasswordHash string       `gorm:"column:password_hash;type:text;not null"`
	Role         string       `gorm:"type:varchar(32);not null;default:customer"`
	CreatedAt    time.Time    `gorm:"not null"`
	UpdatedAt    time.Time    `gorm:"not null"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }

// Session represents an issued bearer token.
type Session struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	UserID    snowflake.ID `gorm:"column:user_id;not null;index"`
	TokenHash string       `gorm:"column:token_hash;type:varchar(64);not null;uniqueIndex"`
	UserAgent string       `gorm:"column:user_agent;type:text"`
	IPAddress string       `gorm:"column:ip_address;type:varchar(64)"`
	ExpiresAt time.Time    `gorm:"column:expires_at;not null;index"`
	RevokedAt *time.Time   `gorm:"column:revoked_at"`
	CreatedAt time.Time    `gorm:"column:created_at;not null"`
}

// TableName sets the database table name.
func (Session) TableName() string { return "sessions" }
