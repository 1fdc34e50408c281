package worker

import (
	"bufio"
	"errors"
	"io"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/client"
)

const stderrTailLines = 20

// exitWatcher is implemented by clients backed by a worker process whose
// stderr is being drained.
type exitWatcher interface {
	// Exited is closed once the worker's stderr reaches EOF.
	Exited() <-chan struct{}
	// Output returns the most recent stderr lines.
	Output() string
}

// stdioClient is an MCP client over a worker subprocess. The worker's stderr
// is forwarded to the log line by line and its tail kept for error reports.
type stdioClient struct {
	*client.Client

	exited chan struct{}
	mu     sync.Mutex
	tail   []string
}

func newStdioClient(c *client.Client, stderr io.Reader) *stdioClient {
	sc := &stdioClient{Client: c}
	if stderr == nil {
		// nil channel: never reports an exit
		return sc
	}
	sc.exited = make(chan struct{})
	go sc.drain(stderr)
	return sc
}

func (c *stdioClient) drain(r io.Reader) {
	defer close(c.exited)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		log.Printf("worker: %s", line)
		c.remember(line)
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, os.ErrClosed) {
		log.Printf("worker stderr: %v", err)
	}
	// keep the pipe empty so the worker never blocks on a write
	_, _ = io.Copy(io.Discard, r)
}

func (c *stdioClient) remember(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tail = append(c.tail, line)
	if len(c.tail) > stderrTailLines {
		c.tail = c.tail[len(c.tail)-stderrTailLines:]
	}
}

func (c *stdioClient) Exited() <-chan struct{} {
	return c.exited
}

func (c *stdioClient) Output() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return strings.TrimSpace(strings.Join(c.tail, "\n"))
}
