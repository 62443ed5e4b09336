package store

import (
	"time"

	"gorm.io/datatypes"

	"wizdomai/pkg/domain"
)

// GORM models used for persistence.
type UserModel struct {
	ID           string `gorm:"primaryKey"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Metadata     datatypes.JSONMap
	CreatedAt    time.Time `gorm:"not null"`
}

func userToModel(u domain.User) UserModel {
	var meta datatypes.JSONMap
	if len(u.Metadata) > 0 {
		meta = make(datatypes.JSONMap, len(u.Metadata))
		for k, v := range u.Metadata {
			meta[k] = v
		}
	}
	return UserModel{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Metadata:     meta,
		CreatedAt:    u.CreatedAt,
	}
}

func userFromModel(m UserModel) domain.User {
	var meta map[string]string
	if len(m.Metadata) > 0 {
		meta = make(map[string]string, len(m.Metadata))
		for k, v := range m.Metadata {
			if s, ok := v.(string); ok {
				meta[k] = s
			}
		}
	}
	return domain.User{
		ID:           m.ID,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Metadata:     meta,
		CreatedAt:    m.CreatedAt,
	}
}
