package realestate

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/hashicorp/go-multierror"
)

//go:embed data/*.json
var seedData embed.FS

// Dataset is the raw data the store is seeded from.
type Dataset struct {
	Properties []Property
	Agents     []Agent
	Clients    []Client
	Sales      []Sale
	Areas      []Area
}

// LoadDataset reads the five data files from dir, or the built-in sample
// data when dir is empty. Every file must exist and hold at least one record.
func LoadDataset(dir string) (*Dataset, error) {
	var fsys fs.FS
	if dir == "" {
		sub, err := fs.Sub(seedData, "data")
		if err != nil {
			return nil, err
		}
		fsys = sub
	} else {
		fsys = os.DirFS(dir)
	}

	ds := &Dataset{}
	var errs *multierror.Error
	for _, f := range []struct {
		name string
		dst  any
	}{
		{"properties.json", &ds.Properties},
		{"agents.json", &ds.Agents},
		{"clients.json", &ds.Clients},
		{"sales.json", &ds.Sales},
		{"areas.json", &ds.Areas},
	} {
		if err := readJSON(fsys, f.name, f.dst); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("load data: %w", err)
	}
	if err := ds.Validate(); err != nil {
		return nil, fmt.Errorf("load data: %w", err)
	}
	return ds, nil
}

func readJSON(fsys fs.FS, name string, dst any) error {
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

// Validate reports empty collections and missing or duplicate ids.
func (d *Dataset) Validate() error {
	var errs *multierror.Error
	check := func(kind string, ids []string) {
		if len(ids) == 0 {
			errs = multierror.Append(errs, fmt.Errorf("no %s", kind))
			return
		}
		seen := make(map[string]bool, len(ids))
		for i, id := range ids {
			switch {
			case id == "":
				errs = multierror.Append(errs, fmt.Errorf("%s #%d has no id", kind, i+1))
			case seen[id]:
				errs = multierror.Append(errs, fmt.Errorf("duplicate %s id '%s'", kind, id))
			}
			seen[id] = true
		}
	}

	check("properties", ids(d.Properties, func(p Property) string { return p.ID }))
	check("agents", ids(d.Agents, func(a Agent) string { return a.ID }))
	check("clients", ids(d.Clients, func(c Client) string { return c.ID }))
	check("sales", ids(d.Sales, func(s Sale) string { return s.ID }))
	check("areas", ids(d.Areas, func(a Area) string { return a.ID }))
	return errs.ErrorOrNil()
}

func ids[T any](items []T, id func(T) string) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = id(it)
	}
	return out
}

// ErrNotFound is wrapped by lookups for unknown ids.
var ErrNotFound = errors.New("not found")
