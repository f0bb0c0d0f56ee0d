package llm

import (
	"context"
	"sync"
)

// MockClient permite tests sin llamar a un LLM real. Devuelve Responses y Errs
// en orden; cuando se agotan repite Response/Err.
type MockClient struct {
	Response string
	Err      error

	mu        sync.Mutex
	Responses []ChatMessage
	Errs      []error
	Requests  []ChatRequest
}

func (m *MockClient) Generate(ctx context.Context, prompt string) (string, error) {
	msg, err := m.Complete(ctx, ChatRequest{Messages: []ChatMessage{{Role: "user", Content: prompt}}})
	if err != nil {
		return "", err
	}
	return msg.Content, nil
}

func (m *MockClient) Complete(_ context.Context, req ChatRequest) (ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests = append(m.Requests, req)

	if len(m.Errs) > 0 {
		err := m.Errs[0]
		m.Errs = m.Errs[1:]
		if err != nil {
			return ChatMessage{}, err
		}
	}
	if len(m.Responses) > 0 {
		msg := m.Responses[0]
		m.Responses = m.Responses[1:]
		return msg, nil
	}
	if m.Err != nil {
		return ChatMessage{}, m.Err
	}
	return ChatMessage{Role: "assistant", Content: m.Response}, nil
}

// Calls devuelve la cantidad de requests recibidos.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}
