package dto

import "time"

// ChatMessage is one turn of the conversation as the client holds it.
type ChatMessage struct {
	Id        string    `json:"id"`
	Role      string    `json:"role" validate:"required,oneof=user assistant system"`
	Content   string    `json:"content" validate:"required"`
	CreatedAt time.Time `json:"created_at"`
}

type ChatRequest struct {
	Messages []ChatMessage `json:"messages" validate:"required,min=1,dive"`
	UserId   string        `json:"user_id,omitempty"`
}

type IngestRequest struct {
	Urls []string `json:"urls" validate:"required,min=1,dive,url"`
}

type IngestResponse struct {
	Queued int `json:"queued"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Documents int64  `json:"documents"`
}
