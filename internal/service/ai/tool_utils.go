package ai

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

const (
	DefaultToolTimeout = 60 * time.Second
	ToolErrorPrefix    = "tool error: "
)

func toolInfo(d mcp.Tool) *schema.ToolInfo {
	desc := strings.TrimSpace(d.Description)
	if desc == "" {
		desc = "Tool exposed by the document worker."
	}
	info := &schema.ToolInfo{
		Name: d.Name,
		Desc: desc,
	}
	if params := paramsFromSchema(d.InputSchema); len(params) > 0 {
		info.ParamsOneOf = schema.NewParamsOneOfByParams(params)
	}
	return info
}

func paramsFromSchema(in mcp.ToolInputSchema) map[string]*schema.ParameterInfo {
	if len(in.Properties) == 0 {
		return nil
	}
	required := make(map[string]bool, len(in.Required))
	for _, name := range in.Required {
		required[name] = true
	}
	params := make(map[string]*schema.ParameterInfo, len(in.Properties))
	for name, raw := range in.Properties {
		p := parameterInfo(raw)
		p.Required = required[name]
		params[name] = p
	}
	return params
}

func parameterInfo(raw any) *schema.ParameterInfo {
	prop, _ := raw.(map[string]any)
	p := &schema.ParameterInfo{Type: schema.String}
	if prop == nil {
		return p
	}
	if desc, ok := prop["description"].(string); ok {
		p.Desc = desc
	}
	if enum, ok := prop["enum"].([]any); ok {
		for _, v := range enum {
			p.Enum = append(p.Enum, fmt.Sprint(v))
		}
	}
	typ, _ := prop["type"].(string)
	switch schema.DataType(typ) {
	case schema.Object, schema.Number, schema.Integer, schema.String, schema.Boolean, schema.Null:
		p.Type = schema.DataType(typ)
	case schema.Array:
		p.Type = schema.Array
		p.ElemInfo = parameterInfo(prop["items"])
	}
	if p.Type == schema.Object {
		if props, ok := prop["properties"].(map[string]any); ok {
			sub := mcp.ToolInputSchema{Properties: props}
			if req, ok := prop["required"].([]any); ok {
				for _, r := range req {
					if s, ok := r.(string); ok {
						sub.Required = append(sub.Required, s)
					}
				}
			}
			p.SubParams = paramsFromSchema(sub)
		}
	}
	return p
}

// formatResult flattens a tool result into the text handed to the model.
func formatResult(res *mcp.CallToolResult) string {
	if res == nil {
		return ""
	}
	var parts []string
	for _, content := range res.Content {
		switch c := content.(type) {
		case mcp.TextContent:
			parts = append(parts, c.Text)
		case *mcp.TextContent:
			parts = append(parts, c.Text)
		case mcp.EmbeddedResource, *mcp.EmbeddedResource:
			parts = append(parts, "[embedded resource]")
		case mcp.ImageContent, *mcp.ImageContent:
			parts = append(parts, "[image]")
		default:
			if data, err := json.Marshal(content); err == nil {
				parts = append(parts, string(data))
			}
		}
	}
	return strings.Join(parts, "\n")
}
