package mcp

import (
	"encoding/json"
	"fmt"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// result renders data as indented JSON text. Non-empty Mermaid charts follow
// as separate blocks when charts are enabled.
func (s *Server) result(data any, charts ...string) (*sdk.CallToolResult, any, error) {
	text, err := formatResult(data)
	if err != nil {
		return nil, nil, err
	}
	content := []sdk.Content{&sdk.TextContent{Text: text}}
	if s.cfg.EnableMermaidCharts {
		for _, c := range charts {
			if c != "" {
				content = append(content, &sdk.TextContent{Text: c})
			}
		}
	}
	return &sdk.CallToolResult{Content: content}, nil, nil
}

func formatResult(data any) (string, error) {
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode result: %w", err)
	}
	return string(out), nil
}
