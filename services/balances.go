package services

import (
	"aura-api/models"

	"gorm.io/gorm"
)

const (
	colAura   = "aura_points"
	colSteeze = "steeze_balance"
)

// debit subtracts amount from a balance column only if the row still holds
// enough, so two racing requests cannot overdraw.
func debit(tx *gorm.DB, column, userID string, amount int64) error {
	res := tx.Model(&models.User{}).
		Where("id = ? AND "+column+" >= ?", userID, amount).
		UpdateColumn(column, gorm.Expr(column+" - ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientBalance
	}
	return nil
}

func credit(tx *gorm.DB, column, userID string, amount int64) error {
	if amount == 0 {
		return nil
	}
	res := tx.Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn(column, gorm.Expr(column+" + ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// bumpCounter increments one of the badge counters on users.
func bumpCounter(tx *gorm.DB, column, userID string) error {
	return tx.Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn(column, gorm.Expr(column+" + 1")).Error
}
