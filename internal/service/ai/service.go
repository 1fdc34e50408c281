package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/flow/agent/react"
	"github.com/cloudwego/eino/schema"
)

const DefaultMaxSteps = 12

// Agent is a ReAct agent bound to one model and one worker session's tools.
type Agent struct {
	agent *react.Agent
}

func NewAgent(ctx context.Context, chatModel model.ToolCallingChatModel, tools []tool.BaseTool, maxSteps int) (*Agent, error) {
	if chatModel == nil {
		return nil, errors.New("chat model is required")
	}
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	reactAgent, err := react.NewAgent(ctx, &react.AgentConfig{
		ToolCallingModel: chatModel,
		ToolsConfig: compose.ToolsNodeConfig{
			Tools: tools,
		},
		MaxStep: maxSteps,
	})
	if err != nil {
		return nil, fmt.Errorf("init react agent: %w", err)
	}
	return &Agent{agent: reactAgent}, nil
}

// Answer sends question as a single user turn and waits for the final reply.
func (a *Agent) Answer(ctx context.Context, question string) (string, error) {
	msg, err := a.agent.Generate(ctx, []*schema.Message{schema.UserMessage(question)})
	if err != nil {
		return "", err
	}
	return finalAnswer(msg), nil
}

func finalAnswer(msg *schema.Message) string {
	if msg == nil {
		return ""
	}
	return msg.Content
}
