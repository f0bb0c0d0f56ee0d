package domain

import (
	"strings"
	"time"
)

const (
	AuthorUser = "user"

	RoleUser  = "user"
	RoleModel = "model"
	RoleTool  = "tool"

	// Claves del estado de sesion escritas por la herramienta de imagenes.
	StateGeneratedImageURLs  = "generated_image_urls"
	StateLastImageGeneration = "last_image_generation"
)

// Session es una conversacion continua con el runtime del modelo.
// State es espacio temporal, no datos de negocio durables.
type Session struct {
	ID         string         `json:"id"`
	AppName    string         `json:"app_name"`
	UserID     string         `json:"user_id"`
	Events     []Event        `json:"events"`
	State      map[string]any `json:"state"`
	LastUpdate time.Time      `json:"last_update"`
}

// Event es una contribucion de un autor dentro de un turno.
type Event struct {
	ID           string    `json:"id"`
	InvocationID string    `json:"invocation_id"`
	Author       string    `json:"author"`
	Content      *Content  `json:"content,omitempty"`
	Final        bool      `json:"final"`
	Timestamp    time.Time `json:"timestamp"`
}

type Content struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

// Part contiene exactamente uno de sus campos.
type Part struct {
	Text             string            `json:"text,omitempty"`
	FunctionCall     *FunctionCall     `json:"function_call,omitempty"`
	FunctionResponse *FunctionResponse `json:"function_response,omitempty"`
}

type FunctionCall struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// FunctionResponse es lo que una herramienta devuelve al modelo.
// Media viaja por fuera del transcript: nunca se envia al modelo.
type FunctionResponse struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
	Media    []string       `json:"media,omitempty"`
}

// NewTextContent arma un contenido de una sola parte de texto.
func NewTextContent(role, text string) *Content {
	return &Content{Role: role, Parts: []Part{{Text: text}}}
}

// IsUser indica si el evento lo escribio el usuario.
func (e Event) IsUser() bool {
	return e.Author == AuthorUser
}

// FirstText devuelve la primera parte de texto no vacia.
func (e Event) FirstText() string {
	if e.Content == nil {
		return ""
	}
	for _, p := range e.Content.Parts {
		if p.Text != "" {
			return p.Text
		}
	}
	return ""
}

// Text concatena todas las partes de texto del evento.
func (e Event) Text() string {
	if e.Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, p := range e.Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}

func (e Event) FunctionCalls() []FunctionCall {
	if e.Content == nil {
		return nil
	}
	var calls []FunctionCall
	for _, p := range e.Content.Parts {
		if p.FunctionCall != nil {
			calls = append(calls, *p.FunctionCall)
		}
	}
	return calls
}

func (e Event) FunctionResponses() []FunctionResponse {
	if e.Content == nil {
		return nil
	}
	var responses []FunctionResponse
	for _, p := range e.Content.Parts {
		if p.FunctionResponse != nil {
			responses = append(responses, *p.FunctionResponse)
		}
	}
	return responses
}

// Clone copia la sesion para que los stores no compartan slices ni mapas con el caller.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Events = append([]Event(nil), s.Events...)
	out.State = make(map[string]any, len(s.State))
	for k, v := range s.State {
		out.State[k] = v
	}
	return &out
}

// TrimEvents aplica el control de presion de historial: si hay mas de max eventos
// conserva solo los ultimos keep. Devuelve true si recorto.
func (s *Session) TrimEvents(max, keep int) bool {
	if len(s.Events) <= max {
		return false
	}
	s.Events = append([]Event(nil), s.Events[len(s.Events)-keep:]...)
	return true
}

// StringSlice normaliza un valor de estado a []string; tras pasar por JSON
// las listas llegan como []any.
func StringSlice(v any) []string {
	switch t := v.(type) {
	case []string:
		return append([]string(nil), t...)
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
