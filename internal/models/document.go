package models

import "time"

// CollectionRecord marks a collection as provisioned in the relational backend
type CollectionRecord struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

func (CollectionRecord) TableName() string { return "seed_collections" }

// DocumentRecord stores one document; Data holds the fields as a JSON object
type DocumentRecord struct {
	CollectionID string    `gorm:"primaryKey;size:64" json:"collection_id"`
	ID           string    `gorm:"primaryKey;size:64" json:"id"`
	Data         string    `gorm:"type:text;not null" json:"data"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}

func (DocumentRecord) TableName() string { return "seed_documents" }
