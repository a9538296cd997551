package realestate

import (
	"time"

	"github.com/realestate-mcp/realestate-mcp-server/internal/host"
)

// ServerInfo is reported by the server_stats tool.
type ServerInfo struct {
	Name    string
	Version string
	Started time.Time
}

type service struct {
	store   *Store
	matcher *Matcher
	info    ServerInfo
}

// Modules returns the capability modules backed by store, in registration
// order.
func Modules(store *Store, info ServerInfo) []host.Module {
	if info.Started.IsZero() {
		info.Started = time.Now()
	}
	s := &service{store: store, matcher: NewMatcher(), info: info}
	return []host.Module{
		{Name: "property-tools", Register: s.registerPropertyTools},
		{Name: "agent-tools", Register: s.registerAgentTools},
		{Name: "market-tools", Register: s.registerMarketTools},
		{Name: "client-tools", Register: s.registerClientTools},
		{Name: "area-tools", Register: s.registerAreaTools},
		{Name: "system-tools", Register: s.registerSystemTools},
		{Name: "resources", Register: s.registerResources},
		{Name: "prompts", Register: s.registerPrompts},
	}
}
