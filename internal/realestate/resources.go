package realestate

import (
	"context"

	"github.com/realestate-mcp/realestate-mcp-server/internal/host"
	"github.com/realestate-mcp/realestate-mcp-server/internal/protocol"
)

const jsonMIME = "application/json"

func (s *service) registerResources(reg *host.Registry) error {
	regs := host.NewRegistrations(reg)

	regs.Add(reg.Register(protocol.ClassResource, "realestate://properties", protocol.Schema{},
		func(ctx context.Context, _ protocol.Arguments) (any, error) {
			props, err := s.store.SearchProperties(ctx, PropertyFilter{Status: "any"})
			if err != nil {
				return nil, err
			}
			summaries := make([]PropertySummary, len(props))
			for i, p := range props {
				summaries[i] = p.Summary()
			}
			return summaries, nil
		},
		protocol.WithTitle("All Properties"),
		protocol.WithDescription("Every property in the data set, active or not."),
		protocol.WithMIMEType(jsonMIME)))

	regs.Add(reg.Register(protocol.ClassResource, "realestate://properties/{property_id}",
		protocol.Params(protocol.String("property_id", "Property id", true)),
		func(ctx context.Context, args protocol.Arguments) (any, error) {
			return s.store.Property(ctx, args.String("property_id"))
		},
		protocol.WithTitle("Property"),
		protocol.WithDescription("One property by id."),
		protocol.WithMIMEType(jsonMIME)))

	regs.Add(reg.Register(protocol.ClassResource, "realestate://agents", protocol.Schema{},
		func(ctx context.Context, _ protocol.Arguments) (any, error) {
			return s.store.Agents(ctx, "", "")
		},
		protocol.WithTitle("All Agents"),
		protocol.WithMIMEType(jsonMIME)))

	regs.Add(reg.Register(protocol.ClassResource, "realestate://agents/{agent_id}",
		protocol.Params(protocol.String("agent_id", "Agent id", true)),
		func(ctx context.Context, args protocol.Arguments) (any, error) {
			return s.store.Agent(ctx, args.String("agent_id"))
		},
		protocol.WithTitle("Agent"),
		protocol.WithMIMEType(jsonMIME)))

	regs.Add(reg.Register(protocol.ClassResource, "realestate://market/summary", protocol.Schema{},
		func(ctx context.Context, _ protocol.Arguments) (any, error) {
			return s.store.MarketStats(ctx, "")
		},
		protocol.WithTitle("Market Summary"),
		protocol.WithDescription("Market-wide listing and sales statistics."),
		protocol.WithMIMEType(jsonMIME)))

	regs.Add(reg.Register(protocol.ClassResource, "realestate://clients/{client_id}",
		protocol.Params(protocol.String("client_id", "Client id", true)),
		func(ctx context.Context, args protocol.Arguments) (any, error) {
			return s.store.Client(ctx, args.String("client_id"))
		},
		protocol.WithTitle("Client"),
		protocol.WithMIMEType(jsonMIME)))

	regs.Add(reg.Register(protocol.ClassResource, "realestate://areas", protocol.Schema{},
		func(ctx context.Context, _ protocol.Arguments) (any, error) {
			return s.store.Areas(ctx)
		},
		protocol.WithTitle("All Areas"),
		protocol.WithMIMEType(jsonMIME)))

	regs.Add(reg.Register(protocol.ClassResource, "realestate://areas/{area_id}",
		protocol.Params(protocol.String("area_id", "Area id", true)),
		func(ctx context.Context, args protocol.Arguments) (any, error) {
			return s.areaReport(ctx, args.String("area_id"))
		},
		protocol.WithTitle("Area"),
		protocol.WithDescription("One area with its market statistics."),
		protocol.WithMIMEType(jsonMIME)))

	return regs.Err()
}
