package feed

import (
	"fmt"

	"gorm.io/gorm"
)

// Counter cache maintenance. Every increment/decrement runs inside the
// transaction that created or destroyed the counted row; a failed counter
// update aborts the whole mutation.

func incrementCounter(tx *gorm.DB, model interface{}, id int, column string) error {
	res := tx.Model(model).Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("counter target missing: %T id=%d", model, id)
	}
	return nil
}

func decrementCounter(tx *gorm.DB, model interface{}, id int, column string) error {
	// The counted row may vanish together with its counter's owner during
	// a cascade; a missing target is not an error on the way down.
	return tx.Model(model).Where("id = ?", id).
		UpdateColumn(column, gorm.Expr("GREATEST("+column+" - 1, 0)")).Error
}
