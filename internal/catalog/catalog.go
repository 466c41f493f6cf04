// Package catalog holds the static menu: categories mapped to products with
// their prices and point values. It is loaded once at startup and read-only
// at runtime.
package catalog

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var ErrProductNotFound = errors.New("product not found in catalog")

type Product struct {
	ID          int64   `yaml:"id"`
	Name        string  `yaml:"name"`
	Price       float64 `yaml:"price"`
	Points      int     `yaml:"points"`
	Recommended bool    `yaml:"recommended"`
}

type Category struct {
	Name     string    `yaml:"name"`
	Products []Product `yaml:"products"`
}

type Catalog struct {
	categories []Category
	byID       map[int64]Product
	byName     map[string]Product
}

type file struct {
	Categories []Category `yaml:"categories"`
}

func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog yaml: %w", err)
	}

	c := &Catalog{
		categories: f.Categories,
		byID:       make(map[int64]Product),
		byName:     make(map[string]Product),
	}
	for _, cat := range f.Categories {
		for _, p := range cat.Products {
			if p.ID <= 0 {
				return nil, fmt.Errorf("product %q has invalid id %d", p.Name, p.ID)
			}
			if p.Price < 0 || p.Points < 0 {
				return nil, fmt.Errorf("product %q has negative price or points", p.Name)
			}
			if _, dup := c.byID[p.ID]; dup {
				return nil, fmt.Errorf("duplicate product id %d", p.ID)
			}
			if _, dup := c.byName[p.Name]; dup {
				return nil, fmt.Errorf("duplicate product name %q", p.Name)
			}
			c.byID[p.ID] = p
			c.byName[p.Name] = p
		}
	}
	return c, nil
}

func (c *Catalog) Product(id int64) (Product, error) {
	p, ok := c.byID[id]
	if !ok {
		return Product{}, ErrProductNotFound
	}
	return p, nil
}

func (c *Catalog) ProductByName(name string) (Product, error) {
	p, ok := c.byName[name]
	if !ok {
		return Product{}, ErrProductNotFound
	}
	return p, nil
}

func (c *Catalog) Categories() []Category {
	return c.categories
}
