package llm

import (
	"context"
	"sync"
)

// MockReply is a canned reply for the MockPrompter.
type MockReply struct {
	Text string
	Err  error
}

// MockPrompter is a deterministic Prompter for tests and offline runs.
// It returns canned replies in FIFO order and records every prompt.
type MockPrompter struct {
	mu      sync.Mutex
	replies []MockReply
	Prompts []string
	// JSONCalls counts the PromptJSON calls among Prompts.
	JSONCalls int
}

// NewMockPrompter creates a MockPrompter with the given canned replies.
func NewMockPrompter(replies ...MockReply) *MockPrompter {
	return &MockPrompter{replies: replies}
}

// Prompt returns the next canned reply, or ErrProviderUnavailable once the
// queue is empty.
func (m *MockPrompter) Prompt(_ context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Prompts = append(m.Prompts, prompt)
	if len(m.replies) == 0 {
		return "", &ErrProviderUnavailable{}
	}
	r := m.replies[0]
	m.replies = m.replies[1:]
	return r.Text, r.Err
}

// PromptJSON behaves like Prompt and counts the call as a JSON request.
func (m *MockPrompter) PromptJSON(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.JSONCalls++
	m.mu.Unlock()
	return m.Prompt(ctx, prompt)
}

// AddReply appends a canned reply to the queue.
func (m *MockPrompter) AddReply(r MockReply) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, r)
}

// CallCount returns the number of Prompt calls made.
func (m *MockPrompter) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Prompts)
}
