package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"hr-board/internal/llm"
)

const (
	IntakeDataToolName      = "intake_data"
	IntakeCompletedToolName = "is_intake_completed"
	UploadedFilesToolName   = "list_uploaded_files"

	statePipeline        = "pipeline"
	stateIntakeCompleted = "intake_completed"
	stateUploadedDocs    = "uploaded_docs"
)

// IntakeDataTool guarda los datos del negocio bajo el bucket "pipeline" del estado.
type IntakeDataTool struct{}

func (IntakeDataTool) Declaration() llm.Tool {
	return llm.NewFunctionTool(
		IntakeDataToolName,
		"Saves the confirmed intake data for the next pipeline stages.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"biz_name": map[string]any{"type": "string", "description": "Name of the business."},
				"biz_info": map[string]any{"type": "string", "description": "Description of the business."},
				"goal":     map[string]any{"type": "string", "description": "Main goal for implementing the CRM."},
				"kb_files": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Uploaded knowledge base files, may be empty.",
				},
			},
			"required": []string{"biz_name", "biz_info", "goal"},
		},
	)
}

func (IntakeDataTool) Invoke(_ context.Context, tc *ToolContext, args map[string]any) ToolResult {
	bizName := stringArg(args, "biz_name")
	bizInfo := stringArg(args, "biz_info")
	goal := stringArg(args, "goal")
	if bizName == "" || bizInfo == "" || goal == "" {
		return ToolResult{Response: map[string]any{"status": "error", "message": "Missing biz_name, biz_info or goal."}}
	}
	if tc == nil || tc.State == nil {
		return errorResult("session state unavailable")
	}

	businessID := existingBusinessID(tc.State)
	if businessID == "" {
		businessID = uuid.NewString()
	}

	tc.State[statePipeline] = map[string]any{
		"intake_data": map[string]any{
			"business_id": businessID,
			"biz_name":    bizName,
			"biz_info":    bizInfo,
			"goal":        goal,
			"kb_files":    stringListArg(args, "kb_files"),
		},
		"stages":             map[string]any{},
		"pipeline_completed": false,
	}
	tc.State[stateIntakeCompleted] = true

	return ToolResult{Response: map[string]any{"status": "success", "message": "Intake data saved.", "business_id": businessID}}
}

func existingBusinessID(state map[string]any) string {
	pipeline, _ := state[statePipeline].(map[string]any)
	intake, _ := pipeline["intake_data"].(map[string]any)
	id, _ := intake["business_id"].(string)
	return id
}

// IntakeCompletedTool informa si la etapa de intake ya termino.
type IntakeCompletedTool struct{}

func (IntakeCompletedTool) Declaration() llm.Tool {
	return llm.NewFunctionTool(
		IntakeCompletedToolName,
		"Reports whether the intake process has been completed.",
		map[string]any{"type": "object", "properties": map[string]any{}},
	)
}

func (IntakeCompletedTool) Invoke(_ context.Context, tc *ToolContext, _ map[string]any) ToolResult {
	completed := false
	if tc != nil && tc.State != nil {
		completed, _ = tc.State[stateIntakeCompleted].(bool)
		if !completed {
			tc.State[stateIntakeCompleted] = false
		}
	}
	return ToolResult{Response: map[string]any{"intake_completed": completed}}
}

// UploadedFilesTool lista los documentos registrados en uploaded_docs.
type UploadedFilesTool struct{}

func (UploadedFilesTool) Declaration() llm.Tool {
	return llm.NewFunctionTool(
		UploadedFilesToolName,
		"Lists the documents the user has uploaded in this session.",
		map[string]any{"type": "object", "properties": map[string]any{}},
	)
}

func (UploadedFilesTool) Invoke(_ context.Context, tc *ToolContext, _ map[string]any) ToolResult {
	var docs []string
	if tc != nil {
		docs = stringListArg(tc.State, stateUploadedDocs)
	}
	if len(docs) == 0 {
		return ToolResult{Response: map[string]any{"files": []string{}, "message": "You have not uploaded any documents yet."}}
	}
	return ToolResult{Response: map[string]any{
		"files":   docs,
		"message": fmt.Sprintf("Here are the documents the user has uploaded:\n- %s", strings.Join(docs, "\n- ")),
	}}
}
