package main

import (
	"testing"

	"github.com/realestate-mcp/realestate-mcp-server/internal/config"
)

func TestNewMetrics(t *testing.T) {
	tests := []struct {
		name      string
		transport config.Transport
		enabled   bool
		want      bool
	}{
		{"sse enabled", config.TransportSSE, true, true},
		{"sse disabled", config.TransportSSE, false, false},
		{"stdio enabled", config.TransportStdio, true, false},
		{"stdio disabled", config.TransportStdio, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{Transport: tt.transport, EnableMetrics: tt.enabled}
			if got := newMetrics(cfg) != nil; got != tt.want {
				t.Errorf("newMetrics() created = %v, want %v", got, tt.want)
			}
		})
	}
}
