package v1

import (
	"fmt"

	"atelier/internal/core/numerator"
	"atelier/internal/core/tx"
	"atelier/internal/domain/audit"
	"atelier/internal/domain/catalogs/customer"
	"atelier/internal/domain/catalogs/employee"
	"atelier/internal/domain/catalogs/finance"
	"atelier/internal/domain/catalogs/itemtype"
	"atelier/internal/domain/catalogs/job"
	"atelier/internal/domain/catalogs/material"
	"atelier/internal/domain/catalogs/measurement"
	"atelier/internal/domain/catalogs/notification"
	"atelier/internal/domain/catalogs/style"
	"atelier/internal/domain/catalogs/supplier"
	"atelier/internal/domain/catalogs/user"
	"atelier/internal/domain/documents/order"
	"atelier/internal/domain/documents/purchase_order"
	"atelier/internal/domain/stock"
	"atelier/internal/domain/trash"
)

// Repositories is the storage behind the API, either postgres or memory.
type Repositories struct {
	Customers           customer.Repository
	Employees           employee.Repository
	Measurements        measurement.Repository
	Styles              style.Repository
	Jobs                job.Repository
	ItemTypes           itemtype.Repository
	Suppliers           supplier.Repository
	Users               user.Repository
	Notifications       notification.Repository
	FinanceTransactions finance.Repository
	Materials           material.Repository
	Orders              order.Repository
	PurchaseOrders      purchase_order.Repository
}

// Dependencies are the cross-cutting collaborators of the services.
type Dependencies struct {
	TxManager   tx.Manager
	Journal     audit.Recorder
	Numerator   numerator.Generator
	FanoutLimit int
}

// Services holds every domain service.
type Services struct {
	Customers           *customer.Service
	Employees           *employee.Service
	Measurements        *measurement.Service
	Styles              *style.Service
	Jobs                *job.Service
	ItemTypes           *itemtype.Service
	Suppliers           *supplier.Service
	Users               *user.Service
	Notifications       *notification.Service
	FinanceTransactions *finance.Service
	Materials           *material.Service
	Orders              *order.Service
	PurchaseOrders      *purchase_order.Service
	Trash               *trash.Aggregator
}

// NewServices wires the services over repos.
func NewServices(repos Repositories, deps Dependencies) (*Services, error) {
	txm, journal := deps.TxManager, deps.Journal
	ledger := stock.NewLedger(repos.Materials, journal)

	s := &Services{
		Customers:           customer.NewService(repos.Customers, txm, journal),
		Employees:           employee.NewService(repos.Employees, txm, journal),
		Styles:              style.NewService(repos.Styles, txm, journal),
		Jobs:                job.NewService(repos.Jobs, txm, journal),
		ItemTypes:           itemtype.NewService(repos.ItemTypes, txm, journal),
		Suppliers:           supplier.NewService(repos.Suppliers, txm, journal),
		Users:               user.NewService(repos.Users, txm, journal),
		Notifications:       notification.NewService(repos.Notifications, txm, journal),
		FinanceTransactions: finance.NewService(repos.FinanceTransactions, txm, journal),
	}
	s.Measurements = measurement.NewService(repos.Measurements, s.Customers, txm, journal)
	s.Materials = material.NewService(material.ServiceConfig{
		Repo:           repos.Materials,
		Orders:         repos.Orders,
		PurchaseOrders: repos.PurchaseOrders,
		TxManager:      txm,
		Journal:        journal,
	})
	s.Orders = order.NewService(order.ServiceConfig{
		Repo:      repos.Orders,
		Ledger:    ledger,
		Customers: s.Customers,
		Numerator: deps.Numerator,
		TxManager: txm,
		Journal:   journal,
	})
	s.PurchaseOrders = purchase_order.NewService(purchase_order.ServiceConfig{
		Repo:      repos.PurchaseOrders,
		Ledger:    ledger,
		Suppliers: s.Suppliers,
		Materials: s.Materials,
		Numerator: deps.Numerator,
		TxManager: txm,
		Journal:   journal,
	})

	aggregator, err := trash.NewAggregator(trash.Collections{
		Customers:           s.Customers,
		Employees:           s.Employees,
		Orders:              s.Orders,
		Measurements:        s.Measurements,
		Styles:              s.Styles,
		Jobs:                s.Jobs,
		Materials:           s.Materials,
		ItemTypes:           s.ItemTypes,
		Suppliers:           s.Suppliers,
		PurchaseOrders:      s.PurchaseOrders,
		Users:               s.Users,
		Notifications:       s.Notifications,
		FinanceTransactions: s.FinanceTransactions,
	}, deps.FanoutLimit, journal)
	if err != nil {
		return nil, fmt.Errorf("trash aggregator: %w", err)
	}
	s.Trash = aggregator

	return s, nil
}
