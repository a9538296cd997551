// Package realestate provides the real estate data store and the tools,
// resources and prompts that expose it.
package realestate

// Property is a listed or recently sold home.
type Property struct {
	ID          string   `json:"id"`
	Address     string   `json:"address"`
	City        string   `json:"city"`
	State       string   `json:"state"`
	ZipCode     string   `json:"zip_code"`
	AreaID      string   `json:"area_id"`
	Type        string   `json:"property_type"`
	Status      string   `json:"status"`
	Price       float64  `json:"price"`
	Bedrooms    int      `json:"bedrooms"`
	Bathrooms   float64  `json:"bathrooms"`
	SquareFeet  int      `json:"square_feet"`
	LotAcres    float64  `json:"lot_size_acres,omitempty"`
	YearBuilt   int      `json:"year_built"`
	HOAMonthly  float64  `json:"hoa_monthly,omitempty"`
	AgentID     string   `json:"agent_id"`
	Features    []string `json:"features"`
	Description string   `json:"description"`
	ListedDate  string   `json:"listed_date"`
}

// Listing statuses.
const (
	StatusActive  = "active"
	StatusPending = "pending"
	StatusSold    = "sold"
)

// PropertySummary is the short form used in listings.
type PropertySummary struct {
	ID         string  `json:"id"`
	Address    string  `json:"address"`
	City       string  `json:"city"`
	AreaID     string  `json:"area_id"`
	Type       string  `json:"property_type"`
	Status     string  `json:"status"`
	Price      float64 `json:"price"`
	Bedrooms   int     `json:"bedrooms"`
	Bathrooms  float64 `json:"bathrooms"`
	SquareFeet int     `json:"square_feet"`
}

// Summary returns the short form of p.
func (p Property) Summary() PropertySummary {
	return PropertySummary{
		ID:         p.ID,
		Address:    p.Address,
		City:       p.City,
		AreaID:     p.AreaID,
		Type:       p.Type,
		Status:     p.Status,
		Price:      p.Price,
		Bedrooms:   p.Bedrooms,
		Bathrooms:  p.Bathrooms,
		SquareFeet: p.SquareFeet,
	}
}

// PricePerSquareFoot returns 0 when the size is unknown.
func (p Property) PricePerSquareFoot() float64 {
	if p.SquareFeet <= 0 {
		return 0
	}
	return p.Price / float64(p.SquareFeet)
}

// Agent is a licensed agent.
type Agent struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Email           string   `json:"email"`
	Phone           string   `json:"phone"`
	Agency          string   `json:"agency"`
	Specialties     []string `json:"specialties"`
	Areas           []string `json:"areas"`
	YearsExperience int      `json:"years_experience"`
	Rating          float64  `json:"rating"`
	SalesLastYear   int      `json:"sales_last_year"`
}

// Client is a buyer, seller or investor working with an agent.
type Client struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	Phone       string      `json:"phone"`
	Type        string      `json:"client_type"`
	AgentID     string      `json:"agent_id"`
	Preferences Preferences `json:"preferences"`
	Notes       string      `json:"notes,omitempty"`
}

// Preferences describe what a client is looking for.
type Preferences struct {
	MinPrice      float64  `json:"min_price"`
	MaxPrice      float64  `json:"max_price"`
	MinBedrooms   int      `json:"min_bedrooms"`
	MinBathrooms  float64  `json:"min_bathrooms"`
	PropertyTypes []string `json:"property_types"`
	Areas         []string `json:"areas"`
	MustHave      []string `json:"must_have"`
}

// Sale is a closed transaction.
type Sale struct {
	ID           string  `json:"id"`
	PropertyID   string  `json:"property_id"`
	Address      string  `json:"address"`
	AreaID       string  `json:"area_id"`
	Type         string  `json:"property_type"`
	ListPrice    float64 `json:"list_price"`
	SalePrice    float64 `json:"sale_price"`
	SaleDate     string  `json:"sale_date"`
	DaysOnMarket int     `json:"days_on_market"`
	AgentID      string  `json:"agent_id"`
}

// Area is a neighborhood.
type Area struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	City         string   `json:"city"`
	State        string   `json:"state"`
	Description  string   `json:"description"`
	Population   int      `json:"population"`
	MedianIncome float64  `json:"median_income"`
	SchoolRating float64  `json:"school_rating"`
	WalkScore    int      `json:"walk_score"`
	CrimeIndex   float64  `json:"crime_index"`
	Amenities    []string `json:"amenities"`
}

// MarketStats aggregates listings and sales, overall or for one area.
type MarketStats struct {
	AreaID            string  `json:"area_id,omitempty"`
	ActiveListings    int64   `json:"active_listings"`
	PendingListings   int64   `json:"pending_listings"`
	AveragePrice      float64 `json:"average_list_price"`
	MedianPrice       float64 `json:"median_list_price"`
	MinPrice          float64 `json:"min_list_price"`
	MaxPrice          float64 `json:"max_list_price"`
	AveragePricePerSF float64 `json:"average_price_per_sqft"`
	SalesCount        int64   `json:"sales_count"`
	AverageSalePrice  float64 `json:"average_sale_price"`
	AverageDaysOnMkt  float64 `json:"average_days_on_market"`
	SaleToListRatio   float64 `json:"sale_to_list_ratio"`
	MarketTemperature string  `json:"market_temperature"`
}
