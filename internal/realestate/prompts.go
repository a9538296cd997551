package realestate

import (
	"context"
	"fmt"
	"strings"

	"github.com/realestate-mcp/realestate-mcp-server/internal/host"
	"github.com/realestate-mcp/realestate-mcp-server/internal/protocol"
)

// Prompt focus values for property_analysis.
var analysisFocus = map[string]string{
	"general":    "Give a balanced assessment of value, condition and location.",
	"investment": "Assess it as a rental investment: likely rent, cap rate and appreciation outlook.",
	"family":     "Assess it for a family: schools, space, safety and commute.",
}

func (s *service) registerPrompts(reg *host.Registry) error {
	regs := host.NewRegistrations(reg)
	regs.Add(reg.Register(protocol.ClassPrompt, "property_analysis",
		protocol.Params(
			protocol.String("property_id", "Property to analyze", true),
			protocol.String("focus", "general, investment or family", false).WithDefault("general"),
		),
		s.propertyAnalysisPrompt,
		protocol.WithTitle("Property Analysis"),
		protocol.WithDescription("Ask for an analysis of one property with its data attached.")))
	regs.Add(reg.Register(protocol.ClassPrompt, "client_match",
		protocol.Params(protocol.String("client_id", "Client to find homes for", true)),
		s.clientMatchPrompt,
		protocol.WithTitle("Client Match"),
		protocol.WithDescription("Ask for a shortlist of homes for a client, with scored candidates attached.")))
	regs.Add(reg.Register(protocol.ClassPrompt, "market_report",
		protocol.Params(protocol.String("area_id", "Area to report on; the whole market when omitted", false)),
		s.marketReportPrompt,
		protocol.WithTitle("Market Report"),
		protocol.WithDescription("Ask for a market report built from current statistics and sales.")))
	return regs.Err()
}

func (s *service) propertyAnalysisPrompt(ctx context.Context, args protocol.Arguments) (any, error) {
	focus := strings.ToLower(args.String("focus"))
	instruction, ok := analysisFocus[focus]
	if !ok {
		return nil, fmt.Errorf("unknown focus '%s'", focus)
	}
	p, err := s.store.Property(ctx, args.String("property_id"))
	if err != nil {
		return nil, err
	}
	stats, err := s.store.MarketStats(ctx, p.AreaID)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Analyze the property at %s, %s, %s (%s).\n\n", p.Address, p.City, p.State, p.ID)
	fmt.Fprintf(&b, "- Type: %s, status %s\n", p.Type, p.Status)
	fmt.Fprintf(&b, "- Price: %s (%s per sq ft)\n", money(p.Price), money(p.PricePerSquareFoot()))
	fmt.Fprintf(&b, "- Size: %d bed, %g bath, %d sq ft, built %d\n", p.Bedrooms, p.Bathrooms, p.SquareFeet, p.YearBuilt)
	if len(p.Features) > 0 {
		fmt.Fprintf(&b, "- Features: %s\n", strings.Join(p.Features, ", "))
	}
	if p.HOAMonthly > 0 {
		fmt.Fprintf(&b, "- HOA: %s per month\n", money(p.HOAMonthly))
	}
	fmt.Fprintf(&b, "- Description: %s\n\n", p.Description)
	fmt.Fprintf(&b, "Area %s: median list %s, average %s per sq ft, %d active listings, market %s.\n\n",
		p.AreaID, money(stats.MedianPrice), money(stats.AveragePricePerSF), stats.ActiveListings, stats.MarketTemperature)
	b.WriteString(instruction)
	return b.String(), nil
}

func (s *service) clientMatchPrompt(ctx context.Context, args protocol.Arguments) (any, error) {
	c, err := s.store.Client(ctx, args.String("client_id"))
	if err != nil {
		return nil, err
	}
	report, err := s.matcher.MatchClient(ctx, s.store, c, defaultMatchLimit)
	if err != nil {
		return nil, err
	}

	pref := c.Preferences
	var b strings.Builder
	fmt.Fprintf(&b, "Recommend homes for %s (%s, %s).\n\n", c.Name, c.ID, c.Type)
	fmt.Fprintf(&b, "Budget: %s to %s. At least %d bed and %g bath.\n", money(pref.MinPrice), money(pref.MaxPrice), pref.MinBedrooms, pref.MinBathrooms)
	if len(pref.PropertyTypes) > 0 {
		fmt.Fprintf(&b, "Types: %s.\n", strings.Join(pref.PropertyTypes, ", "))
	}
	if len(pref.Areas) > 0 {
		fmt.Fprintf(&b, "Areas: %s.\n", strings.Join(pref.Areas, ", "))
	}
	if len(pref.MustHave) > 0 {
		fmt.Fprintf(&b, "Must have: %s.\n", strings.Join(pref.MustHave, ", "))
	}
	if c.Notes != "" {
		fmt.Fprintf(&b, "Notes: %s\n", c.Notes)
	}

	fmt.Fprintf(&b, "\nScored candidates (%d of %d listings, %d excluded):\n", len(report.Matches), report.Evaluated, report.Excluded)
	if len(report.Matches) == 0 {
		b.WriteString("- none\n")
	}
	for _, m := range report.Matches {
		fmt.Fprintf(&b, "- %s %s, %s, score %d", m.Property.ID, m.Property.Address, money(m.Property.Price), m.Score)
		for _, f := range m.Findings {
			fmt.Fprintf(&b, "; %s", f.Message)
		}
		b.WriteByte('\n')
	}
	b.WriteString("\nRank the best three, explain the trade-offs, and suggest what to ask at a showing.")
	return b.String(), nil
}

func (s *service) marketReportPrompt(ctx context.Context, args protocol.Arguments) (any, error) {
	areaID := args.String("area_id")
	scope := "the whole market"
	if areaID != "" {
		a, err := s.store.Area(ctx, areaID)
		if err != nil {
			return nil, err
		}
		scope = fmt.Sprintf("%s (%s)", a.Name, a.City)
	}
	stats, err := s.store.MarketStats(ctx, areaID)
	if err != nil {
		return nil, err
	}
	sales, err := s.store.RecentSales(ctx, areaID, 5)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Write a market report for %s.\n\n", scope)
	fmt.Fprintf(&b, "- Active listings: %d, pending: %d\n", stats.ActiveListings, stats.PendingListings)
	fmt.Fprintf(&b, "- List prices: median %s, range %s to %s\n", money(stats.MedianPrice), money(stats.MinPrice), money(stats.MaxPrice))
	fmt.Fprintf(&b, "- Sales: %d closed, average %s, %.1f days on market, %.1f%% of list\n",
		stats.SalesCount, money(stats.AverageSalePrice), stats.AverageDaysOnMkt, stats.SaleToListRatio*100)
	fmt.Fprintf(&b, "- Temperature: %s\n", stats.MarketTemperature)
	if len(sales) > 0 {
		b.WriteString("\nRecent sales:\n")
		for _, sl := range sales {
			fmt.Fprintf(&b, "- %s %s sold %s for %s after %d days\n",
				sl.SaleDate, sl.Address, sl.Type, money(sl.SalePrice), sl.DaysOnMarket)
		}
	}
	b.WriteString("\nCover pricing trends, buyer and seller leverage, and an outlook for the next quarter.")
	return b.String(), nil
}
