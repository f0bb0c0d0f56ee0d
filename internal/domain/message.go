package domain

import "time"

// Message es un mensaje anonimo enviado por un trabajador al tablero.
type Message struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// AgentMessage es la forma en que el asistente consume los mensajes.
type AgentMessage struct {
	Content string `json:"content"`
}
