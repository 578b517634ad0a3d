package model

import "time"

// CredentialDocumentModel mirrors the 'credential_documents' table. Each row holds
// one whole account collection as a JSON array.
type CredentialDocumentModel struct {
	Name      string    `gorm:"type:varchar(64);primaryKey"`
	Body      []byte    `gorm:"type:jsonb;not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName explicitly sets the table name for GORM.
func (CredentialDocumentModel) TableName() string {
	return "credential_documents"
}
