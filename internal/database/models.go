package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type Settings struct {
	ID             int32
	RestaurantName string
	TaxRate        pgtype.Numeric
	OpensAt        string
	ClosesAt       string
	Phone          pgtype.Text
	Address        pgtype.Text
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Category struct {
	ID          uuid.UUID
	Name        string
	Description pgtype.Text
	SortOrder   int32
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Product struct {
	ID          uuid.UUID
	CategoryID  uuid.UUID
	Name        string
	Description pgtype.Text
	Price       pgtype.Numeric
	Active      bool
	Available   bool
	LowStock    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Order struct {
	ID             uuid.UUID
	OrderNumber    string
	Status         string
	TableNumber    pgtype.Int4
	Subtotal       pgtype.Numeric
	TaxAmount      pgtype.Numeric
	TotalWithTax   pgtype.Numeric
	Discount       pgtype.Numeric
	TotalFinal     pgtype.Numeric
	PaymentMethod  pgtype.Text
	AmountReceived pgtype.Numeric
	ChangeGiven    pgtype.Numeric
	Notes          pgtype.Text
	PickupTime     pgtype.Text
	ReceiptPath    pgtype.Text
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type OrderItem struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	ProductID uuid.UUID
	Quantity  int32
	UnitPrice pgtype.Numeric
	Subtotal  pgtype.Numeric
	Notes     pgtype.Text
	CreatedAt time.Time
}

type Table struct {
	Number        int32
	State         string
	OpenOrderID   pgtype.UUID
	CustomerName  pgtype.Text
	CustomerPhone pgtype.Text
	OpenedAt      pgtype.Timestamptz
	ClosedAt      pgtype.Timestamptz
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
