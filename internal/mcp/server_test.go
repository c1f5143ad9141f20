package mcp

import "testing"

func TestNewServerRegistersTools(t *testing.T) {
	s := NewServer()
	if s.mcpServer == nil {
		t.Fatalf("mcp server not constructed")
	}
	if s.client == nil {
		t.Fatalf("ipc client not constructed")
	}
}

func TestValidDisplay(t *testing.T) {
	for _, n := range []int{0, 5, 9} {
		if err := validDisplay(n); err != nil {
			t.Errorf("validDisplay(%d): %v", n, err)
		}
	}
	for _, n := range []int{-1, 10, 42} {
		if err := validDisplay(n); err == nil {
			t.Errorf("validDisplay(%d): expected error", n)
		}
	}
}
