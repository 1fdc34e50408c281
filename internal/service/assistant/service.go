package assistant

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/cloudwego/eino/components/model"

	"docnotes/internal/config"
	"docnotes/internal/models"
	"docnotes/internal/service/ai"
	"docnotes/internal/worker"
)

// ModelFactory builds the chat model for one request.
type ModelFactory func(ctx context.Context, cfg config.ModelConfig) (model.ToolCallingChatModel, error)

// Service answers questions by running an agent against a fresh worker
// session per request.
type Service struct {
	dial        worker.Dialer
	modelCfg    config.ModelConfig
	workerOpts  worker.Options
	toolTimeout time.Duration
	newModel    ModelFactory
}

type Option func(*Service)

func WithModelFactory(f ModelFactory) Option {
	return func(s *Service) {
		if f != nil {
			s.newModel = f
		}
	}
}

func NewService(cfg *config.Config, dial worker.Dialer, opts ...Option) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("config required")
	}
	if dial == nil {
		return nil, errors.New("worker dialer required")
	}
	s := &Service{
		dial:        dial,
		modelCfg:    cfg.Model,
		workerOpts:  worker.Options{HandshakeTimeout: cfg.Worker.HandshakeTimeout},
		toolTimeout: cfg.Worker.ToolTimeout,
		newModel:    ai.NewChatModel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Run opens a worker session, hands its tools to an agent and returns the
// agent's final answer. The session is closed on every path.
func (s *Service) Run(ctx context.Context, question string, doc *models.DocumentRef) (string, error) {
	session, err := worker.Open(ctx, s.dial, s.workerOpts)
	if err != nil {
		log.Printf("worker session failed: %v", err)
		return "", err
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			log.Printf("close worker session: %v", cerr)
		}
	}()

	tools := ai.NewTools(session.Tools(), session, s.toolTimeout)

	chatModel, err := s.newModel(ctx, s.modelCfg)
	if err != nil {
		return "", s.fail(StageModel, err)
	}
	agent, err := ai.NewAgent(ctx, chatModel, tools, s.modelCfg.MaxSteps)
	if err != nil {
		return "", s.fail(StageAgent, err)
	}

	answer, err := agent.Answer(ctx, ComposeQuestion(question, doc))
	if err != nil {
		return "", s.fail(StageAnswer, err)
	}
	return answer, nil
}

func (s *Service) fail(stage string, err error) error {
	log.Printf("assistant %s failed: %v", stage, err)
	return &OrchestrationError{Stage: stage, Err: err}
}
