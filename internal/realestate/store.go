package realestate

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE properties (
	id            TEXT PRIMARY KEY,
	area_id       TEXT NOT NULL,
	city          TEXT NOT NULL,
	property_type TEXT NOT NULL,
	status        TEXT NOT NULL,
	price         REAL NOT NULL,
	bedrooms      INTEGER NOT NULL,
	bathrooms     REAL NOT NULL,
	square_feet   INTEGER NOT NULL,
	agent_id      TEXT NOT NULL,
	listed_date   TEXT NOT NULL,
	doc           TEXT NOT NULL
);
CREATE INDEX properties_area ON properties (area_id, status);
CREATE TABLE agents (
	id   TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	doc  TEXT NOT NULL
);
CREATE TABLE clients (
	id       TEXT PRIMARY KEY,
	agent_id TEXT NOT NULL,
	doc      TEXT NOT NULL
);
CREATE TABLE sales (
	id             TEXT PRIMARY KEY,
	property_id    TEXT NOT NULL,
	area_id        TEXT NOT NULL,
	list_price     REAL NOT NULL,
	sale_price     REAL NOT NULL,
	sale_date      TEXT NOT NULL,
	days_on_market INTEGER NOT NULL,
	doc            TEXT NOT NULL
);
CREATE TABLE areas (
	id   TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	doc  TEXT NOT NULL
);
`

// Store serves read queries over an in-memory SQLite copy of a Dataset.
// It is safe for concurrent use.
type Store struct {
	db *sql.DB
	q  *goqu.Database
}

// Counts is the number of records of each kind.
type Counts struct {
	Properties int64 `json:"properties"`
	Agents     int64 `json:"agents"`
	Clients    int64 `json:"clients"`
	Sales      int64 `json:"sales"`
	Areas      int64 `json:"areas"`
}

// Open creates a private in-memory database and seeds it from ds.
func Open(ctx context.Context, ds *Dataset) (*Store, error) {
	if err := ds.Validate(); err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("file:realestate_%s?mode=memory&cache=shared", ulid.Make())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// The shared in-memory database lives as long as one connection does.
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	s := &Store{db: db, q: goqu.New("sqlite3", db)}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	if err := s.seed(ctx, ds); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("seed data: %w", err)
	}
	return s, nil
}

// Close releases the database. The data is gone afterwards.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) seed(ctx context.Context, ds *Dataset) error {
	tx, err := s.q.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	return tx.Wrap(func() error {
		insert := func(table string, rows []any) error {
			_, err := tx.Insert(table).Rows(rows...).Executor().ExecContext(ctx)
			if err != nil {
				return fmt.Errorf("insert %s: %w", table, err)
			}
			return nil
		}

		rows := make([]any, 0, len(ds.Properties))
		for _, p := range ds.Properties {
			rows = append(rows, goqu.Record{
				"id": p.ID, "area_id": p.AreaID, "city": p.City,
				"property_type": p.Type, "status": p.Status, "price": p.Price,
				"bedrooms": p.Bedrooms, "bathrooms": p.Bathrooms, "square_feet": p.SquareFeet,
				"agent_id": p.AgentID, "listed_date": p.ListedDate, "doc": mustDoc(p),
			})
		}
		if err := insert("properties", rows); err != nil {
			return err
		}

		rows = rows[:0]
		for _, a := range ds.Agents {
			rows = append(rows, goqu.Record{"id": a.ID, "name": a.Name, "doc": mustDoc(a)})
		}
		if err := insert("agents", rows); err != nil {
			return err
		}

		rows = rows[:0]
		for _, c := range ds.Clients {
			rows = append(rows, goqu.Record{"id": c.ID, "agent_id": c.AgentID, "doc": mustDoc(c)})
		}
		if err := insert("clients", rows); err != nil {
			return err
		}

		rows = rows[:0]
		for _, sl := range ds.Sales {
			rows = append(rows, goqu.Record{
				"id": sl.ID, "property_id": sl.PropertyID, "area_id": sl.AreaID,
				"list_price": sl.ListPrice, "sale_price": sl.SalePrice, "sale_date": sl.SaleDate,
				"days_on_market": sl.DaysOnMarket, "doc": mustDoc(sl),
			})
		}
		if err := insert("sales", rows); err != nil {
			return err
		}

		rows = rows[:0]
		for _, a := range ds.Areas {
			rows = append(rows, goqu.Record{"id": a.ID, "name": a.Name, "doc": mustDoc(a)})
		}
		return insert("areas", rows)
	})
}

// mustDoc encodes a record loaded from JSON, which always re-encodes.
func mustDoc(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}

func getDoc(ctx context.Context, ds *goqu.SelectDataset, dst any) error {
	var doc string
	found, err := ds.Select("doc").ScanValContext(ctx, &doc)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	return json.Unmarshal([]byte(doc), dst)
}

func queryDocs[T any](ctx context.Context, ds *goqu.SelectDataset) ([]T, error) {
	var docs []string
	if err := ds.Select("doc").ScanValsContext(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		var v T
		if err := json.Unmarshal([]byte(doc), &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func notFound(kind, id string, err error) error {
	if err == ErrNotFound {
		return fmt.Errorf("%s '%s' %w", kind, id, ErrNotFound)
	}
	return err
}

// PropertyFilter narrows a property search. Zero fields do not filter.
// Status defaults to active; "any" disables the status filter.
type PropertyFilter struct {
	City         string
	AreaID       string
	Areas        []string
	Type         string
	Types        []string
	Status       string
	MinPrice     float64
	MaxPrice     float64
	MinBedrooms  int
	MinBathrooms float64
	Limit        int
}

// SearchProperties returns matching properties, cheapest first.
func (s *Store) SearchProperties(ctx context.Context, f PropertyFilter) ([]Property, error) {
	var where []exp.Expression
	if f.City != "" {
		where = append(where, goqu.Func("LOWER", goqu.C("city")).Eq(strings.ToLower(strings.TrimSpace(f.City))))
	}
	if f.AreaID != "" {
		where = append(where, goqu.C("area_id").Eq(f.AreaID))
	}
	if len(f.Areas) > 0 {
		where = append(where, goqu.C("area_id").In(f.Areas))
	}
	if f.Type != "" {
		where = append(where, goqu.C("property_type").Eq(NormalizeType(f.Type)))
	}
	if len(f.Types) > 0 {
		types := make([]string, len(f.Types))
		for i, t := range f.Types {
			types[i] = NormalizeType(t)
		}
		where = append(where, goqu.C("property_type").In(types))
	}
	switch status := strings.ToLower(f.Status); status {
	case "any":
	case "":
		where = append(where, goqu.C("status").Eq(StatusActive))
	default:
		where = append(where, goqu.C("status").Eq(status))
	}
	if f.MinPrice > 0 {
		where = append(where, goqu.C("price").Gte(f.MinPrice))
	}
	if f.MaxPrice > 0 {
		where = append(where, goqu.C("price").Lte(f.MaxPrice))
	}
	if f.MinBedrooms > 0 {
		where = append(where, goqu.C("bedrooms").Gte(f.MinBedrooms))
	}
	if f.MinBathrooms > 0 {
		where = append(where, goqu.C("bathrooms").Gte(f.MinBathrooms))
	}

	ds := s.q.From("properties").Where(where...).Order(goqu.C("price").Asc(), goqu.C("id").Asc())
	if f.Limit > 0 {
		ds = ds.Limit(uint(f.Limit))
	}
	return queryDocs[Property](ctx, ds)
}

// NormalizeType maps user spellings like "Single Family" to stored types.
func NormalizeType(t string) string {
	t = strings.ToLower(strings.TrimSpace(t))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(t)
}

// Property returns one property by id.
func (s *Store) Property(ctx context.Context, id string) (Property, error) {
	var p Property
	err := getDoc(ctx, s.q.From("properties").Where(goqu.C("id").Eq(id)), &p)
	return p, notFound("property", id, err)
}

// AgentListings returns every property an agent represents.
func (s *Store) AgentListings(ctx context.Context, agentID string) ([]Property, error) {
	return queryDocs[Property](ctx, s.q.From("properties").
		Where(goqu.C("agent_id").Eq(agentID)).
		Order(goqu.C("listed_date").Desc()))
}

// Agents lists agents, optionally those covering an area or holding a
// specialty.
func (s *Store) Agents(ctx context.Context, areaID, specialty string) ([]Agent, error) {
	ds := s.q.From("agents").Order(goqu.C("name").Asc())
	if areaID != "" {
		ds = ds.Where(goqu.L("EXISTS (SELECT 1 FROM json_each(agents.doc, '$.areas') WHERE value = ?)", areaID))
	}
	if specialty != "" {
		ds = ds.Where(goqu.L("EXISTS (SELECT 1 FROM json_each(agents.doc, '$.specialties') WHERE LOWER(value) = ?)",
			strings.ToLower(strings.TrimSpace(specialty))))
	}
	return queryDocs[Agent](ctx, ds)
}

// Agent returns one agent by id.
func (s *Store) Agent(ctx context.Context, id string) (Agent, error) {
	var a Agent
	err := getDoc(ctx, s.q.From("agents").Where(goqu.C("id").Eq(id)), &a)
	return a, notFound("agent", id, err)
}

// Client returns one client by id.
func (s *Store) Client(ctx context.Context, id string) (Client, error) {
	var c Client
	err := getDoc(ctx, s.q.From("clients").Where(goqu.C("id").Eq(id)), &c)
	return c, notFound("client", id, err)
}

// RecentSales returns closed sales, newest first.
func (s *Store) RecentSales(ctx context.Context, areaID string, limit int) ([]Sale, error) {
	ds := s.q.From("sales").Order(goqu.C("sale_date").Desc(), goqu.C("id").Asc())
	if areaID != "" {
		ds = ds.Where(goqu.C("area_id").Eq(areaID))
	}
	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}
	return queryDocs[Sale](ctx, ds)
}

// Areas lists every area by name.
func (s *Store) Areas(ctx context.Context) ([]Area, error) {
	return queryDocs[Area](ctx, s.q.From("areas").Order(goqu.C("name").Asc()))
}

// Area returns one area by id.
func (s *Store) Area(ctx context.Context, id string) (Area, error) {
	var a Area
	err := getDoc(ctx, s.q.From("areas").Where(goqu.C("id").Eq(id)), &a)
	return a, notFound("area", id, err)
}

// Counts returns the number of records of each kind.
func (s *Store) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	for _, t := range []struct {
		table string
		dst   *int64
	}{
		{"properties", &c.Properties},
		{"agents", &c.Agents},
		{"clients", &c.Clients},
		{"sales", &c.Sales},
		{"areas", &c.Areas},
	} {
		n, err := s.q.From(t.table).CountContext(ctx)
		if err != nil {
			return Counts{}, fmt.Errorf("count %s: %w", t.table, err)
		}
		*t.dst = n
	}
	return c, nil
}
