package models

import (
	"time"

	"github.com/google/uuid"
)

// Lead представляет заявку потенциального клиента с маркетинговых страниц
type Lead struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Name      string    `json:"name" db:"name"`
	Company   string    `json:"company,omitempty" db:"company"`
	Message   string    `json:"message,omitempty" db:"message"`
	Source    string    `json:"source" db:"source"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// LeadRequest представляет входящую форму захвата лида
type LeadRequest struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Company string `json:"company"`
	Message string `json:"message"`
	Source  string `json:"source"`
}
