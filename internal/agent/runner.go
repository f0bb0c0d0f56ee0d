package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"hr-board/internal/domain"
	"hr-board/internal/llm"
	"hr-board/internal/repository"
)

const defaultMaxSteps = 8

var ErrMaxSteps = errors.New("agent exceeded max tool steps")

// Runner ejecuta un turno: agrega el mensaje del usuario, llama al modelo y a las
// herramientas hasta obtener una respuesta final y persiste la sesion.
type Runner struct {
	appName      string
	def          Definition
	tools        map[string]Tool
	declarations []llm.Tool
	client       llm.ChatClient
	sessions     repository.SessionStore
	logger       *zap.Logger
	maxSteps     int
	now          func() time.Time
}

func NewRunner(appName string, def Definition, registry *Registry, client llm.ChatClient, sessions repository.SessionStore, logger *zap.Logger) (*Runner, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	if client == nil || sessions == nil {
		return nil, fmt.Errorf("agent %s: client and session store are required", def.Name)
	}
	if registry == nil {
		registry = NewRegistry()
	}
	tools, err := registry.Resolve(def.Tools)
	if err != nil {
		return nil, fmt.Errorf("agent %s: %w", def.Name, err)
	}
	decls := make([]llm.Tool, 0, len(def.Tools))
	for _, name := range def.Tools {
		decls = append(decls, tools[name].Declaration())
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		appName:      appName,
		def:          def,
		tools:        tools,
		declarations: decls,
		client:       client,
		sessions:     sessions,
		logger:       logger,
		maxSteps:     defaultMaxSteps,
		now:          func() time.Time { return time.Now().UTC() },
	}, nil
}

// AppName es el nombre de aplicacion con el que se crean las sesiones.
func (r *Runner) AppName() string {
	return r.appName
}

// Run devuelve los eventos producidos en el turno, en orden. Si el modelo falla
// devuelve los eventos acumulados junto con el error; la sesion queda guardada.
func (r *Runner) Run(ctx context.Context, userID, sessionID string, msg *domain.Content) ([]domain.Event, error) {
	session, err := r.sessions.Get(ctx, r.appName, userID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session.State == nil {
		session.State = map[string]any{}
	}

	invocationID := "e-" + uuid.NewString()
	var produced []domain.Event
	appendEvent := func(e domain.Event) {
		e.ID = uuid.NewString()
		e.InvocationID = invocationID
		e.Timestamp = r.now()
		session.Events = append(session.Events, e)
		produced = append(produced, e)
	}

	appendEvent(domain.Event{Author: domain.AuthorUser, Content: msg})
	if err := r.save(ctx, session); err != nil {
		return nil, err
	}

	for step := 0; step < r.maxSteps; step++ {
		reply, err := r.client.Complete(ctx, r.buildRequest(session))
		if errors.Is(err, llm.ErrEmptyResponse) {
			// Sin texto ni herramientas: se cierra el turno con un evento final vacio.
			reply, err = llm.ChatMessage{Role: "assistant"}, nil
		}
		if err != nil {
			r.logger.Warn("agent model call failed",
				zap.String("agent", r.def.Name),
				zap.String("session_id", session.ID),
				zap.Int("step", step),
				zap.Error(err),
			)
			if saveErr := r.save(ctx, session); saveErr != nil {
				r.logger.Warn("save session after model failure", zap.Error(saveErr))
			}
			return produced, fmt.Errorf("agent %s: %w", r.def.Name, err)
		}

		if len(reply.ToolCalls) == 0 {
			appendEvent(domain.Event{
				Author:  r.def.Name,
				Content: domain.NewTextContent(domain.RoleModel, reply.Content),
				Final:   true,
			})
			return produced, r.save(ctx, session)
		}

		callContent := &domain.Content{Role: domain.RoleModel}
		if reply.Content != "" {
			callContent.Parts = append(callContent.Parts, domain.Part{Text: reply.Content})
		}
		calls := make([]domain.FunctionCall, 0, len(reply.ToolCalls))
		for _, tc := range reply.ToolCalls {
			call := domain.FunctionCall{ID: tc.ID, Name: tc.Function.Name, Args: decodeArgs(tc.Function.Arguments)}
			if call.ID == "" {
				call.ID = "call_" + uuid.NewString()
			}
			calls = append(calls, call)
			callContent.Parts = append(callContent.Parts, domain.Part{FunctionCall: &call})
		}
		appendEvent(domain.Event{Author: r.def.Name, Content: callContent})

		respContent := &domain.Content{Role: domain.RoleTool}
		for _, call := range calls {
			result := r.invoke(ctx, invocationID, session, call)
			respContent.Parts = append(respContent.Parts, domain.Part{FunctionResponse: &domain.FunctionResponse{
				ID:       call.ID,
				Name:     call.Name,
				Response: result.Response,
				Media:    result.Media,
			}})
		}
		appendEvent(domain.Event{Author: r.def.Name, Content: respContent})
	}

	if err := r.save(ctx, session); err != nil {
		r.logger.Warn("save session after max steps", zap.Error(err))
	}
	return produced, ErrMaxSteps
}

func (r *Runner) invoke(ctx context.Context, invocationID string, session *domain.Session, call domain.FunctionCall) ToolResult {
	tool, ok := r.tools[call.Name]
	if !ok {
		r.logger.Warn("model requested unknown tool", zap.String("tool", call.Name))
		return errorResult("unknown tool %q", call.Name)
	}
	if call.Args == nil {
		return errorResult("invalid arguments for %s", call.Name)
	}
	start := time.Now()
	result := tool.Invoke(ctx, &ToolContext{
		InvocationID:   invocationID,
		FunctionCallID: call.ID,
		State:          session.State,
	}, call.Args)
	if result.Response == nil {
		result.Response = map[string]any{}
	}
	r.logger.Info("tool invoked",
		zap.String("tool", call.Name),
		zap.String("session_id", session.ID),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result
}

func (r *Runner) save(ctx context.Context, session *domain.Session) error {
	session.LastUpdate = r.now()
	if err := r.sessions.Save(ctx, session); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// decodeArgs devuelve nil si los argumentos no son un objeto JSON valido.
func decodeArgs(raw string) map[string]any {
	if raw == "" {
		return map[string]any{}
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil
	}
	if args == nil {
		args = map[string]any{}
	}
	return args
}

// buildRequest traduce el historial a mensajes de chat. Tras un recorte pueden quedar
// llamadas sin respuesta o respuestas sin llamada; ambas se omiten.
func (r *Runner) buildRequest(session *domain.Session) llm.ChatRequest {
	answered := make(map[string]bool)
	for _, e := range session.Events {
		for _, fr := range e.FunctionResponses() {
			answered[fr.ID] = true
		}
	}

	messages := []llm.ChatMessage{{Role: "system", Content: r.def.Instruction}}
	called := make(map[string]bool)
	for _, e := range session.Events {
		if e.Content == nil {
			continue
		}
		if e.IsUser() {
			if text := e.Text(); text != "" {
				messages = append(messages, llm.ChatMessage{Role: "user", Content: text})
			}
			continue
		}

		if responses := e.FunctionResponses(); len(responses) > 0 {
			for _, fr := range responses {
				if !called[fr.ID] {
					continue
				}
				body, err := json.Marshal(fr.Response)
				if err != nil {
					body = []byte(`{}`)
				}
				messages = append(messages, llm.ChatMessage{Role: "tool", ToolCallID: fr.ID, Name: fr.Name, Content: string(body)})
			}
			continue
		}

		msg := llm.ChatMessage{Role: "assistant", Content: e.Text()}
		for _, fc := range e.FunctionCalls() {
			if !answered[fc.ID] {
				continue
			}
			called[fc.ID] = true
			args, err := json.Marshal(fc.Args)
			if err != nil {
				args = []byte(`{}`)
			}
			msg.ToolCalls = append(msg.ToolCalls, llm.ToolCall{
				ID:       fc.ID,
				Type:     "function",
				Function: llm.ToolCallFunction{Name: fc.Name, Arguments: string(args)},
			})
		}
		if msg.Content == "" && len(msg.ToolCalls) == 0 {
			continue
		}
		messages = append(messages, msg)
	}

	return llm.ChatRequest{Messages: messages, Tools: r.declarations}
}
