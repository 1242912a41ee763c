// Package coderunner provides the code_runner tool, which executes Python
// snippets in an isolated sandbox.
package coderunner

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hupe1980/agentoffice/core"
	"github.com/hupe1980/agentoffice/tool"
)

// ToolName is the name the runner tool registers under.
const ToolName = "code_runner"

// maxOutput caps each captured stream before it is handed to the model.
const maxOutput = 16 * 1024

// Output is the captured result of one execution.
type Output struct {
	Stdout   string        `json:"stdout"`
	Stderr   string        `json:"stderr"`
	ExitCode int           `json:"exit_code"`
	Duration time.Duration `json:"-"`
}

// Success reports whether the program exited cleanly.
func (o Output) Success() bool { return o.ExitCode == 0 }

// Runner executes Python source.
type Runner interface {
	Run(ctx context.Context, code string) (Output, error)
}

// NewTool exposes runner as the code_runner tool. A program that exits
// non-zero is still a successful tool call; the model sees stderr and the
// exit code and can react.
func NewTool(runner Runner) tool.Tool {
	return tool.NewFunctionTool(
		ToolName,
		"Execute Python code in a sandbox without network access and return stdout, stderr and the exit code. "+
			"Print anything you want to see.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"code": map[string]any{"type": "string", "description": "The Python code to execute"},
			},
			"required": []string{"code"},
		},
		func(tc *core.ToolContext, args map[string]any) (any, error) {
			code, _ := tool.StringArg(args, "code")
			if strings.TrimSpace(code) == "" {
				return nil, tool.NewToolError(ToolName, "field 'code' must be non-empty", core.CodeValidation)
			}

			out, err := runner.Run(tc.Context(), code)
			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) {
					return nil, tool.NewToolError(ToolName, "execution timed out", core.CodeTimeout)
				}
				return nil, err
			}

			tc.LogInfo("coderunner.run", "agent", tc.AgentName(), "exit_code", out.ExitCode, "duration_ms", out.Duration.Milliseconds())

			return map[string]any{
				"stdout":    truncate(out.Stdout),
				"stderr":    truncate(out.Stderr),
				"exit_code": out.ExitCode,
				"success":   out.Success(),
			}, nil
		},
	)
}

func truncate(s string) string {
	if len(s) <= maxOutput {
		return s
	}

	cut := maxOutput
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}

	return s[:cut] + "\n... [output truncated]"
}
