package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

const (
	ClientName    = "docnotes-orchestrator"
	ClientVersion = "1.0.0"

	defaultHandshakeTimeout = 30 * time.Second

	// how long a failed handshake waits for the worker's last stderr lines
	exitGrace = 500 * time.Millisecond
)

var errWorkerExited = errors.New("worker process exited")

// Client is the part of an MCP client a session drives.
// *client.Client from mcp-go satisfies it.
type Client interface {
	Initialize(ctx context.Context, req mcp.InitializeRequest) (*mcp.InitializeResult, error)
	ListTools(ctx context.Context, req mcp.ListToolsRequest) (*mcp.ListToolsResult, error)
	CallTool(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
	Close() error
}

// Dialer starts a worker and returns a connected, not yet initialized client.
type Dialer func(ctx context.Context) (Client, error)

type Options struct {
	HandshakeTimeout time.Duration
}

// Session is one worker process plus its channel and tool catalog.
// It belongs to exactly one request and must be closed by it.
type Session struct {
	client     Client
	serverName string
	tools      []mcp.Tool

	closeOnce sync.Once
	closeErr  error
}

// Open spawns the worker, performs the initialize handshake and lists the
// worker's tools once. Anything acquired is released again on failure.
func Open(ctx context.Context, dial Dialer, opts Options) (*Session, error) {
	if dial == nil {
		return nil, &SubprocessError{Stage: StageSpawn, Err: errors.New("no worker dialer configured")}
	}
	c, err := dial(ctx)
	if err != nil {
		return nil, &SubprocessError{Stage: StageSpawn, Err: err}
	}
	s := &Session{client: c}

	timeout := opts.HandshakeTimeout
	if timeout <= 0 {
		timeout = defaultHandshakeTimeout
	}
	hsCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	hsCtx, stopWatch := s.untilExit(hsCtx)
	defer stopWatch()

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: ClientName, Version: ClientVersion}
	initRes, err := c.Initialize(hsCtx, initReq)
	if err != nil {
		return nil, s.fail(hsCtx, StageHandshake, err)
	}
	if initRes != nil {
		s.serverName = initRes.ServerInfo.Name
	}
	debugLog("worker %q initialized (protocol %s)", s.serverName, protocolVersion(initRes))

	listRes, err := c.ListTools(hsCtx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, s.fail(hsCtx, StageDiscover, err)
	}
	if listRes != nil {
		s.tools = append(s.tools, listRes.Tools...)
	}
	debugLog("worker %q advertised %d tools", s.serverName, len(s.tools))
	return s, nil
}

// untilExit derives a context that is cancelled as soon as the worker
// process exits, so callers do not wait out their deadline on a dead worker.
func (s *Session) untilExit(ctx context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancelCause(ctx)
	if w, ok := s.client.(exitWatcher); ok {
		go func() {
			select {
			case <-w.Exited():
				cancel(errWorkerExited)
			case <-ctx.Done():
			}
		}()
	}
	return ctx, func() { cancel(nil) }
}

// fail closes the session and reports err, with whatever the worker wrote
// to stderr before it went away.
func (s *Session) fail(ctx context.Context, stage string, err error) error {
	if errors.Is(context.Cause(ctx), errWorkerExited) {
		err = fmt.Errorf("%w: %w", errWorkerExited, err)
	}
	w, watched := s.client.(exitWatcher)
	if watched {
		select {
		case <-w.Exited():
		case <-time.After(exitGrace):
		}
	}
	s.Close()
	if watched {
		if out := w.Output(); out != "" {
			err = fmt.Errorf("%w; worker stderr: %s", err, out)
		}
	}
	return &SubprocessError{Stage: stage, Err: err}
}

// ServerName is the name the worker reported during the handshake.
func (s *Session) ServerName() string {
	return s.serverName
}

// Tools returns a copy of the catalog discovered at Open.
func (s *Session) Tools() []mcp.Tool {
	out := make([]mcp.Tool, len(s.tools))
	copy(out, s.tools)
	return out
}

// CallTool forwards one tool invocation to the worker.
func (s *Session) CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	callCtx, stopWatch := s.untilExit(ctx)
	defer stopWatch()
	res, err := s.client.CallTool(callCtx, req)
	if err != nil {
		if errors.Is(context.Cause(callCtx), errWorkerExited) {
			err = fmt.Errorf("%w: %w", errWorkerExited, err)
		}
		return nil, fmt.Errorf("call tool %s: %w", name, err)
	}
	return res, nil
}

// Close shuts the channel down, which ends the worker process.
// Safe to call more than once.
func (s *Session) Close() error {
	if s == nil {
		return nil
	}
	s.closeOnce.Do(func() {
		s.closeErr = s.client.Close()
		debugLog("worker %q closed", s.serverName)
	})
	return s.closeErr
}

func protocolVersion(res *mcp.InitializeResult) string {
	if res == nil {
		return "unknown"
	}
	return res.ProtocolVersion
}
