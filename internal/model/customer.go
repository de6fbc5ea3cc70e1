package model

// Customer is the cached, normalized customer record.
type Customer struct {
	ID     int    `db:"id" json:"id" gorm:"primaryKey;autoIncrement:false"`
	CgID   string `db:"cg_id" json:"cgId" gorm:"column:cg_id"`
	Name   string `db:"name" json:"name"`
	Email  string `db:"email" json:"email"`
	Mobile string `db:"mobile" json:"mobile"`
}

// TableName keeps the gorm table aligned with the raw SQL repository.
func (Customer) TableName() string {
	return "customers"
}
