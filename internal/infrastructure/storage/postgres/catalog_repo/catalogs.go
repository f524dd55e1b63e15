package catalog_repo

import (
	"atelier/internal/domain/catalogs/customer"
	"atelier/internal/domain/catalogs/employee"
	"atelier/internal/domain/catalogs/finance"
	"atelier/internal/domain/catalogs/itemtype"
	"atelier/internal/domain/catalogs/job"
	"atelier/internal/domain/catalogs/measurement"
	"atelier/internal/domain/catalogs/notification"
	"atelier/internal/domain/catalogs/style"
	"atelier/internal/domain/catalogs/supplier"
	"atelier/internal/domain/catalogs/user"
	"atelier/internal/infrastructure/storage/postgres"
)

// NewCustomerRepo creates the customers repository.
func NewCustomerRepo(txm *postgres.TxManager) *BaseCatalogRepo[*customer.Customer] {
	return NewBaseCatalogRepo[customer.Customer](txm, Config[*customer.Customer]{
		TableName:  "customers",
		EntityName: "customer",
		SearchCols: []string{"name", "phone", "email"},
	})
}

// NewEmployeeRepo creates the employees repository.
func NewEmployeeRepo(txm *postgres.TxManager) *BaseCatalogRepo[*employee.Employee] {
	return NewBaseCatalogRepo[employee.Employee](txm, Config[*employee.Employee]{
		TableName:  "employees",
		EntityName: "employee",
		SearchCols: []string{"name", "role"},
	})
}

// NewMeasurementRepo creates the measurements repository.
func NewMeasurementRepo(txm *postgres.TxManager) *BaseCatalogRepo[*measurement.Measurement] {
	return NewBaseCatalogRepo[measurement.Measurement](txm, Config[*measurement.Measurement]{
		TableName:  "measurements",
		EntityName: "measurement",
		SearchCols: []string{"garment"},
	})
}

// NewStyleRepo creates the styles repository.
func NewStyleRepo(txm *postgres.TxManager) *BaseCatalogRepo[*style.Style] {
	return NewBaseCatalogRepo[style.Style](txm, Config[*style.Style]{
		TableName:  "styles",
		EntityName: "style",
		SearchCols: []string{"name"},
	})
}

// NewJobRepo creates the jobs repository.
func NewJobRepo(txm *postgres.TxManager) *BaseCatalogRepo[*job.Job] {
	return NewBaseCatalogRepo[job.Job](txm, Config[*job.Job]{
		TableName:  "jobs",
		EntityName: "job",
		SearchCols: []string{"title"},
	})
}

// NewItemTypeRepo creates the item types repository.
func NewItemTypeRepo(txm *postgres.TxManager) *BaseCatalogRepo[*itemtype.ItemType] {
	return NewBaseCatalogRepo[itemtype.ItemType](txm, Config[*itemtype.ItemType]{
		TableName:  "item_types",
		EntityName: "item type",
		SearchCols: []string{"name"},
	})
}

// NewSupplierRepo creates the suppliers repository.
func NewSupplierRepo(txm *postgres.TxManager) *BaseCatalogRepo[*supplier.Supplier] {
	return NewBaseCatalogRepo[supplier.Supplier](txm, Config[*supplier.Supplier]{
		TableName:  "suppliers",
		EntityName: "supplier",
		SearchCols: []string{"name", "contact_person", "email"},
	})
}

// NewUserRepo creates the users repository.
func NewUserRepo(txm *postgres.TxManager) *BaseCatalogRepo[*user.User] {
	return NewBaseCatalogRepo[user.User](txm, Config[*user.User]{
		TableName:  "users",
		EntityName: "user",
		SearchCols: []string{"username", "email", "display_name"},
	})
}

// NewNotificationRepo creates the notifications repository.
func NewNotificationRepo(txm *postgres.TxManager) *BaseCatalogRepo[*notification.Notification] {
	return NewBaseCatalogRepo[notification.Notification](txm, Config[*notification.Notification]{
		TableName:  "notifications",
		EntityName: "notification",
		SearchCols: []string{"title", "message"},
	})
}

// NewFinanceRepo creates the finance transactions repository.
func NewFinanceRepo(txm *postgres.TxManager) *BaseCatalogRepo[*finance.Transaction] {
	return NewBaseCatalogRepo[finance.Transaction](txm, Config[*finance.Transaction]{
		TableName:  "finance_transactions",
		EntityName: "finance transaction",
		SearchCols: []string{"category", "description"},
	})
}
