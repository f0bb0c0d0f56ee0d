package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"hr-board/internal/llm"
)

// ToolContext da a la herramienta acceso al estado de la sesion actual.
// Los cambios en State se persisten cuando el runner guarda la sesion.
type ToolContext struct {
	InvocationID   string
	FunctionCallID string
	State          map[string]any
}

// ToolResult es lo que vuelve al runtime. Response se le muestra al modelo;
// Media viaja por un canal lateral hasta el orquestador y nunca entra al prompt.
type ToolResult struct {
	Response map[string]any
	Media    []string
}

// Tool es una funcion que el modelo puede invocar a mitad de turno.
// Invoke no devuelve error: las fallas van dentro de Response para que el modelo las narre.
type Tool interface {
	Declaration() llm.Tool
	Invoke(ctx context.Context, tc *ToolContext, args map[string]any) ToolResult
}

func errorResult(format string, a ...any) ToolResult {
	return ToolResult{Response: map[string]any{"error": fmt.Sprintf(format, a...)}}
}

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return strings.TrimSpace(v)
}

func stringListArg(args map[string]any, key string) []string {
	switch v := args[key].(type) {
	case []string:
		items := make([]any, len(v))
		for i, item := range v {
			items[i] = item
		}
		return stringListArg(map[string]any{key: items}, key)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out
	case string:
		var out []string
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part != "" && !strings.EqualFold(part, "none") {
				out = append(out, part)
			}
		}
		return out
	default:
		return []string{}
	}
}

// Registry guarda herramientas por nombre.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

func (r *Registry) Register(tool Tool) error {
	if tool == nil {
		return fmt.Errorf("tool is required")
	}
	name := tool.Declaration().Function.Name
	if name == "" {
		return fmt.Errorf("tool name is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool already registered: %s", name)
	}
	r.tools[name] = tool
	return nil
}

// MustRegister registra varias herramientas o entra en panic.
func (r *Registry) MustRegister(tools ...Tool) {
	for _, t := range tools {
		if err := r.Register(t); err != nil {
			panic(err)
		}
	}
}

func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Resolve devuelve las herramientas pedidas por una definicion de agente.
func (r *Registry) Resolve(names []string) (map[string]Tool, error) {
	out := make(map[string]Tool, len(names))
	for _, name := range names {
		t, ok := r.Get(name)
		if !ok {
			return nil, fmt.Errorf("unknown tool %q", name)
		}
		out[name] = t
	}
	return out, nil
}
