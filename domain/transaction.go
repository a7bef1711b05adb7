package domain

import "time"

// CREATE TABLE sales (
//     id           BIGSERIAL PRIMARY KEY,
//     customer_id  BIGINT NOT NULL,
//     order_date   TIMESTAMPTZ NOT NULL,
//     sales_amount NUMERIC NOT NULL,
//     product_key  BIGINT,
//     territory    TEXT
// );

// Transaction is one cleaned sales line from the Sales Store.
// CustomerID and OrderDate are never zero once loaded.
type Transaction struct {
	ID          uint      `gorm:"primaryKey" json:"-"`
	CustomerID  int64     `gorm:"column:customer_id;not null;index" json:"customer_id"`
	OrderDate   time.Time `gorm:"column:order_date;not null" json:"order_date"`
	SalesAmount float64   `gorm:"column:sales_amount;type:numeric;not null" json:"sales_amount"`
	ProductKey  int64     `gorm:"column:product_key" json:"product_key,omitempty"`
	Territory   string    `gorm:"column:territory;type:text" json:"territory,omitempty"`
}

func (Transaction) TableName() string {
	return "sales"
}
