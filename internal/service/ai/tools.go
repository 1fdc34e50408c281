package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// ToolCaller forwards a tool invocation to the worker session.
type ToolCaller interface {
	CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error)
}

// ToolInvocationError reports a tool call that could not be carried out.
type ToolInvocationError struct {
	Tool string
	Err  error
}

func (e *ToolInvocationError) Error() string {
	return fmt.Sprintf("tool %s failed: %v", e.Tool, e.Err)
}

func (e *ToolInvocationError) Unwrap() error {
	return e.Err
}

// remoteTool is the invocation stub the agent sees for one worker tool.
type remoteTool struct {
	caller  ToolCaller
	info    *schema.ToolInfo
	timeout time.Duration
}

var _ tool.InvokableTool = (*remoteTool)(nil)

// NewTools wraps every discovered tool descriptor in an invocation stub.
// Descriptors without a name are skipped.
func NewTools(descriptors []mcp.Tool, caller ToolCaller, timeout time.Duration) []tool.BaseTool {
	if timeout <= 0 {
		timeout = DefaultToolTimeout
	}
	tools := make([]tool.BaseTool, 0, len(descriptors))
	for _, d := range descriptors {
		if strings.TrimSpace(d.Name) == "" {
			continue
		}
		tools = append(tools, &remoteTool{
			caller:  caller,
			info:    toolInfo(d),
			timeout: timeout,
		})
	}
	return tools
}

func (t *remoteTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return t.info, nil
}

func (t *remoteTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	args, err := parseArguments(argumentsInJSON)
	if err != nil {
		return "", &ToolInvocationError{Tool: t.info.Name, Err: err}
	}

	callCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	res, err := t.caller.CallTool(callCtx, t.info.Name, args)
	if err != nil {
		log.Printf("tool %s invocation failed: %v", t.info.Name, err)
		return "", &ToolInvocationError{Tool: t.info.Name, Err: err}
	}
	text := formatResult(res)
	if res != nil && res.IsError {
		// surfaced to the model so it can report the failure in its answer
		log.Printf("tool %s returned an error: %s", t.info.Name, text)
		return ToolErrorPrefix + text, nil
	}
	return text, nil
}

func parseArguments(input string) (map[string]any, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(trimmed), &args); err != nil {
		return nil, fmt.Errorf("decode tool arguments: %w", err)
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}
