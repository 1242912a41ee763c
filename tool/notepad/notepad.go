package notepad

import (
	"errors"
	"fmt"

	"github.com/hupe1980/agentoffice/core"
	"github.com/hupe1980/agentoffice/tool"
)

// Tool names.
const (
	WriteToolName = "notepad_write"
	ReadToolName  = "notepad_read"
	ListToolName  = "notepad_list"
)

// NewWriteTool returns notepad_write bound to one namespace.
func NewWriteTool(store Store, namespace string) tool.Tool {
	return tool.NewFunctionTool(
		WriteToolName,
		"Write content to a file in your notes directory. Existing files are overwritten.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"filename": map[string]any{"type": "string", "description": "Name of the file to write to"},
				"content":  map[string]any{"type": "string", "description": "Content to write to the file"},
			},
			"required": []string{"filename", "content"},
		},
		func(tc *core.ToolContext, args map[string]any) (any, error) {
			name, err := CleanName(args["filename"].(string))
			if err != nil {
				return nil, tool.NewToolError(WriteToolName, err.Error(), core.CodeValidation)
			}

			content := args["content"].(string)
			if err := store.Save(namespace, name, []byte(content)); err != nil {
				return nil, err
			}

			tc.LogInfo("notepad.write", "agent", tc.AgentName(), "namespace", namespace, "file", name, "bytes", len(content))

			return fmt.Sprintf("Content written to %s successfully", name), nil
		},
	)
}

// NewReadTool returns notepad_read bound to one namespace. A missing file is
// reported as a failed result.
func NewReadTool(store Store, namespace string) tool.Tool {
	return tool.NewFunctionTool(
		ReadToolName,
		"Read content from a file in your notes directory.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"filename": map[string]any{"type": "string", "description": "Name of the file to read from"},
			},
			"required": []string{"filename"},
		},
		func(tc *core.ToolContext, args map[string]any) (any, error) {
			name, err := CleanName(args["filename"].(string))
			if err != nil {
				return nil, tool.NewToolError(ReadToolName, err.Error(), core.CodeValidation)
			}

			data, err := store.Get(namespace, name)
			if errors.Is(err, ErrNotFound) {
				return nil, tool.NewToolError(ReadToolName, fmt.Sprintf("File %s not found", name), core.CodeExecution)
			}
			if err != nil {
				return nil, err
			}

			return map[string]any{"filename": name, "content": string(data)}, nil
		},
	)
}

// NewListTool returns notepad_list bound to one namespace.
func NewListTool(store Store, namespace string) tool.Tool {
	return tool.NewFunctionTool(
		ListToolName,
		"List the files in your notes directory.",
		map[string]any{"type": "object", "properties": map[string]any{}},
		func(tc *core.ToolContext, _ map[string]any) (any, error) {
			names, err := store.List(namespace)
			if err != nil {
				return nil, err
			}

			return map[string]any{"files": names}, nil
		},
	)
}

// NewTools returns the notepad tools for a namespace in a stable order.
func NewTools(store Store, namespace string) []tool.Tool {
	return []tool.Tool{
		NewWriteTool(store, namespace),
		NewReadTool(store, namespace),
		NewListTool(store, namespace),
	}
}
