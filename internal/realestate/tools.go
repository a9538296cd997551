package realestate

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/realestate-mcp/realestate-mcp-server/internal/host"
	"github.com/realestate-mcp/realestate-mcp-server/internal/protocol"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
	defaultSalesLimit  = 10
	defaultMatchLimit  = 5
)

func (s *service) registerPropertyTools(reg *host.Registry) error {
	regs := host.NewRegistrations(reg)
	regs.Add(reg.Register(protocol.ClassTool, "search_properties",
		protocol.Params(
			protocol.String("city", "City name, case-insensitive", false),
			protocol.String("area_id", "Area id such as 'downtown'", false),
			protocol.String("property_type", "single_family, condo, townhouse or multi_family", false),
			protocol.String("status", "active, pending, sold or any", false).WithDefault(StatusActive),
			protocol.Number("min_price", "Minimum list price", false),
			protocol.Number("max_price", "Maximum list price", false),
			protocol.Int("min_bedrooms", "Minimum bedrooms", false),
			protocol.Number("min_bathrooms", "Minimum bathrooms", false),
			protocol.Int("max_results", "Maximum properties to return", false).WithDefault(defaultSearchLimit),
		),
		s.searchProperties,
		protocol.WithTitle("Search Properties"),
		protocol.WithDescription("Search property listings by location, type, price and size.")))
	regs.Add(reg.Register(protocol.ClassTool, "get_property",
		protocol.Params(protocol.String("property_id", "Property id such as 'PROP001'", true)),
		s.getProperty,
		protocol.WithTitle("Get Property"),
		protocol.WithDescription("Full details of one property with its listing agent and area.")))
	regs.Add(reg.Register(protocol.ClassTool, "estimate_ownership_cost",
		protocol.Params(
			protocol.String("property_id", "Property id", true),
			protocol.Number("down_payment_percent", "Down payment as a percent of price", false).WithDefault(20.0),
			protocol.Number("interest_rate", "Annual mortgage rate in percent", false).WithDefault(6.5),
			protocol.Int("loan_years", "Loan term in years", false).WithDefault(30),
		),
		s.estimateOwnershipCost,
		protocol.WithTitle("Estimate Ownership Cost"),
		protocol.WithDescription("Monthly cost of owning a property: mortgage, tax, insurance, HOA and upkeep.")))
	return regs.Err()
}

func (s *service) searchProperties(ctx context.Context, args protocol.Arguments) (any, error) {
	limit := int(args.Int("max_results"))
	if limit <= 0 || limit > maxSearchLimit {
		return nil, fmt.Errorf("max_results must be between 1 and %d", maxSearchLimit)
	}
	props, err := s.store.SearchProperties(ctx, PropertyFilter{
		City:         args.String("city"),
		AreaID:       args.String("area_id"),
		Type:         args.String("property_type"),
		Status:       args.String("status"),
		MinPrice:     args.Float("min_price"),
		MaxPrice:     args.Float("max_price"),
		MinBedrooms:  int(args.Int("min_bedrooms")),
		MinBathrooms: args.Float("min_bathrooms"),
		Limit:        limit,
	})
	if err != nil {
		return nil, err
	}
	summaries := make([]PropertySummary, len(props))
	for i, p := range props {
		summaries[i] = p.Summary()
	}
	return map[string]any{"count": len(summaries), "properties": summaries}, nil
}

func (s *service) getProperty(ctx context.Context, args protocol.Arguments) (any, error) {
	p, err := s.store.Property(ctx, args.String("property_id"))
	if err != nil {
		return nil, err
	}
	out := map[string]any{
		"property":       p,
		"price_per_sqft": round(p.PricePerSquareFoot(), 2),
		"listing_agent":  nil,
		"area":           nil,
	}
	if a, err := s.store.Agent(ctx, p.AgentID); err == nil {
		out["listing_agent"] = a
	}
	if a, err := s.store.Area(ctx, p.AreaID); err == nil {
		out["area"] = a
	}
	return out, nil
}

func (s *service) estimateOwnershipCost(ctx context.Context, args protocol.Arguments) (any, error) {
	p, err := s.store.Property(ctx, args.String("property_id"))
	if err != nil {
		return nil, err
	}
	return EstimateOwnershipCost(p, Financing{
		DownPaymentPercent: args.Float("down_payment_percent"),
		InterestRate:       args.Float("interest_rate"),
		LoanYears:          int(args.Int("loan_years")),
	})
}

func (s *service) registerAgentTools(reg *host.Registry) error {
	regs := host.NewRegistrations(reg)
	regs.Add(reg.Register(protocol.ClassTool, "list_agents",
		protocol.Params(
			protocol.String("area_id", "Only agents covering this area", false),
			protocol.String("specialty", "Only agents with this specialty", false),
		),
		s.listAgents,
		protocol.WithTitle("List Agents"),
		protocol.WithDescription("List agents, optionally by area or specialty.")))
	regs.Add(reg.Register(protocol.ClassTool, "get_agent",
		protocol.Params(protocol.String("agent_id", "Agent id such as 'AGT001'", true)),
		s.getAgent,
		protocol.WithTitle("Get Agent"),
		protocol.WithDescription("Agent profile with current listings.")))
	return regs.Err()
}

func (s *service) listAgents(ctx context.Context, args protocol.Arguments) (any, error) {
	agents, err := s.store.Agents(ctx, args.String("area_id"), args.String("specialty"))
	if err != nil {
		return nil, err
	}
	return map[string]any{"count": len(agents), "agents": agents}, nil
}

func (s *service) getAgent(ctx context.Context, args protocol.Arguments) (any, error) {
	a, err := s.store.Agent(ctx, args.String("agent_id"))
	if err != nil {
		return nil, err
	}
	listings, err := s.store.AgentListings(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	summaries := make([]PropertySummary, len(listings))
	for i, p := range listings {
		summaries[i] = p.Summary()
	}
	return map[string]any{"agent": a, "listings": summaries}, nil
}

func (s *service) registerMarketTools(reg *host.Registry) error {
	regs := host.NewRegistrations(reg)
	regs.Add(reg.Register(protocol.ClassTool, "market_overview",
		protocol.Params(protocol.String("area_id", "Limit to one area", false)),
		s.marketOverview,
		protocol.WithTitle("Market Overview"),
		protocol.WithDescription("Listing and sales statistics for the whole market or one area.")))
	regs.Add(reg.Register(protocol.ClassTool, "recent_sales",
		protocol.Params(
			protocol.String("area_id", "Limit to one area", false),
			protocol.Int("limit", "Maximum sales to return", false).WithDefault(defaultSalesLimit),
		),
		s.recentSales,
		protocol.WithTitle("Recent Sales"),
		protocol.WithDescription("Closed sales, newest first.")))
	return regs.Err()
}

func (s *service) marketOverview(ctx context.Context, args protocol.Arguments) (any, error) {
	areaID := args.String("area_id")
	if areaID != "" {
		if _, err := s.store.Area(ctx, areaID); err != nil {
			return nil, err
		}
	}
	return s.store.MarketStats(ctx, areaID)
}

func (s *service) recentSales(ctx context.Context, args protocol.Arguments) (any, error) {
	limit := int(args.Int("limit"))
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}
	sales, err := s.store.RecentSales(ctx, args.String("area_id"), limit)
	if err != nil {
		return nil, err
	}
	return map[string]any{"count": len(sales), "sales": sales}, nil
}

func (s *service) registerClientTools(reg *host.Registry) error {
	regs := host.NewRegistrations(reg)
	regs.Add(reg.Register(protocol.ClassTool, "get_client",
		protocol.Params(protocol.String("client_id", "Client id such as 'CLI001'", true)),
		s.getClient,
		protocol.WithTitle("Get Client"),
		protocol.WithDescription("Client profile and search preferences.")))
	regs.Add(reg.Register(protocol.ClassTool, "match_properties_for_client",
		protocol.Params(
			protocol.String("client_id", "Client id", true),
			protocol.Int("max_results", "Maximum matches to return", false).WithDefault(defaultMatchLimit),
		),
		s.matchPropertiesForClient,
		protocol.WithTitle("Match Properties For Client"),
		protocol.WithDescription("Score active listings against a client's preferences.")))
	return regs.Err()
}

func (s *service) getClient(ctx context.Context, args protocol.Arguments) (any, error) {
	return s.store.Client(ctx, args.String("client_id"))
}

func (s *service) matchPropertiesForClient(ctx context.Context, args protocol.Arguments) (any, error) {
	c, err := s.store.Client(ctx, args.String("client_id"))
	if err != nil {
		return nil, err
	}
	return s.matcher.MatchClient(ctx, s.store, c, int(args.Int("max_results")))
}

func (s *service) registerAreaTools(reg *host.Registry) error {
	regs := host.NewRegistrations(reg)
	regs.Add(reg.Register(protocol.ClassTool, "get_area",
		protocol.Params(protocol.String("area_id", "Area id such as 'oak-hills'", true)),
		s.getArea,
		protocol.WithTitle("Get Area"),
		protocol.WithDescription("Neighborhood profile with its market statistics.")))
	regs.Add(reg.Register(protocol.ClassTool, "compare_areas",
		protocol.Params(protocol.Array("area_ids", "Two or more area ids", true)),
		s.compareAreas,
		protocol.WithTitle("Compare Areas"),
		protocol.WithDescription("Side-by-side profile and market statistics for several areas.")))
	return regs.Err()
}

type areaReport struct {
	Area   Area        `json:"area"`
	Market MarketStats `json:"market"`
}

func (s *service) areaReport(ctx context.Context, id string) (areaReport, error) {
	a, err := s.store.Area(ctx, id)
	if err != nil {
		return areaReport{}, err
	}
	stats, err := s.store.MarketStats(ctx, id)
	if err != nil {
		return areaReport{}, err
	}
	return areaReport{Area: a, Market: stats}, nil
}

func (s *service) getArea(ctx context.Context, args protocol.Arguments) (any, error) {
	return s.areaReport(ctx, args.String("area_id"))
}

func (s *service) compareAreas(ctx context.Context, args protocol.Arguments) (any, error) {
	ids := args.Strings("area_ids")
	if len(ids) < 2 {
		return nil, fmt.Errorf("compare_areas needs at least two area ids")
	}
	reports := make([]areaReport, 0, len(ids))
	for _, id := range ids {
		r, err := s.areaReport(ctx, id)
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return map[string]any{"areas": reports}, nil
}

func (s *service) registerSystemTools(reg *host.Registry) error {
	return reg.Register(protocol.ClassTool, "server_stats", protocol.Schema{},
		func(ctx context.Context, _ protocol.Arguments) (any, error) {
			counts, err := s.store.Counts(ctx)
			if err != nil {
				return nil, err
			}
			return map[string]any{
				"server":     s.info.Name,
				"version":    s.info.Version,
				"uptime":     time.Since(s.info.Started).Round(time.Second).String(),
				"go_version": runtime.Version(),
				"data":       counts,
				"capabilities": map[string]int{
					"tools":     reg.Len(protocol.ClassTool),
					"resources": reg.Len(protocol.ClassResource),
					"prompts":   reg.Len(protocol.ClassPrompt),
				},
			}, nil
		},
		protocol.WithTitle("Server Stats"),
		protocol.WithDescription("Loaded data counts, registered capabilities and uptime."))
}
