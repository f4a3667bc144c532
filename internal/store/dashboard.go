package store

import (
	"context"

	"github.com/uptrace/bun"
)

// Overview is the dashboard summary across the relational tables.
type Overview struct {
	Users struct {
		Total  int `json:"total"`
		Active int `json:"activos"`
	} `json:"usuarios"`
	Clients struct {
		Total  int `json:"total"`
		Active int `json:"activos"`
	} `json:"clientes"`
	Products *ProductStats `json:"productos"`
	Sales    *SaleTotals   `json:"ventas"`
}

// Stores bundles the relational stores over one database.
type Stores struct {
	DB       *bun.DB
	Products *Products
	Users    *Users
	Clients  *Clients
	Sales    *Sales
}

// NewStores wires every store on db.
func NewStores(db *bun.DB) *Stores {
	users := NewUsers(db)
	clients := NewClients(db, users)
	return &Stores{
		DB:       db,
		Products: NewProducts(db),
		Users:    users,
		Clients:  clients,
		Sales:    NewSales(db, users, clients),
	}
}

// Overview collects the dashboard counts and sums.
func (s *Stores) Overview(ctx context.Context) (*Overview, error) {
	var (
		out Overview
		err error
	)
	if out.Users.Active, out.Users.Total, err = s.Users.CountActive(ctx); err != nil {
		return nil, err
	}
	if out.Clients.Active, out.Clients.Total, err = s.Clients.CountActive(ctx); err != nil {
		return nil, err
	}
	if out.Products, err = s.Products.Stats(ctx); err != nil {
		return nil, err
	}
	if out.Sales, err = s.Sales.Totals(ctx); err != nil {
		return nil, err
	}
	return &out, nil
}
