package models

import "time"

// Credential is the persisted login secret for one account.
type Credential struct {
	Email        string    `gorm:"primaryKey;size:254" json:"email"`
	UserID       string    `gorm:"uniqueIndex;size:36;not null" json:"userId"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// TableName pins the credential table name.
func (Credential) TableName() string { return "credentials" }

// CollectionSnapshot is one persisted store collection.
type CollectionSnapshot struct {
	Name      string    `gorm:"primaryKey;size:64" json:"name"`
	Payload   []byte    `gorm:"not null" json:"payload"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName pins the snapshot table name.
func (CollectionSnapshot) TableName() string { return "collection_snapshots" }
