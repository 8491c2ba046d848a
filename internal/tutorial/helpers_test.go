package tutorial

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// ---------- mocks ----------

type mockGenerator struct {
	responses map[string]string // substring match on prompt -> response
	calls     []string          // recorded prompts
	err       error
	mu        sync.Mutex
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, prompt)
	m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	for key, resp := range m.responses {
		if strings.Contains(prompt, key) {
			return resp, nil
		}
	}
	return "", fmt.Errorf("no canned response matches prompt: %.60s", prompt)
}

func (m *mockGenerator) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

type stubFileProvider struct {
	files []FileEntry
	err   error
}

func (s *stubFileProvider) ListFiles(ctx context.Context) ([]FileEntry, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.files, nil
}

func sampleFiles() []FileEntry {
	return []FileEntry{
		{Index: 0, Path: "server.go", Content: "package main\n\nfunc serve() {}\n"},
		{Index: 1, Path: "router.go", Content: "package main\n\nfunc route() {}\n"},
		{Index: 2, Path: "store.go", Content: "package main\n\nfunc store() {}\n"},
	}
}
