package valueobject

import (
	"fmt"
	"math"

	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/pkg/apperror"
)

type Money struct {
	Amount   float64
	Currency string
}

func NewMoney(amount float64, currency string) (Money, error) {
	if amount < 0 {
		return Money{}, apperror.New(apperror.ErrCodeValidation, "сумма не может быть отрицательной")
	}
	if currency == "" {
		currency = "NPR"
	}
	return Money{Amount: RoundAmount(amount), Currency: currency}, nil
}

// RoundAmount округляет сумму до копеек (пайс).
func RoundAmount(amount float64) float64 {
	return math.Round(amount*100) / 100
}

// MinorUnits переводит сумму в минимальные единицы валюты (paisa, cents).
func MinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// FromMinorUnits выполняет обратное преобразование.
func FromMinorUnits(units int64) float64 {
	return float64(units) / 100
}

type Budget struct {
	Min Money
	Max Money
}

func NewBudget(min, max float64) (Budget, error) {
	if min < 0 || max < 0 {
		return Budget{}, apperror.New(apperror.ErrCodeValidation, "бюджет не может быть отрицательным")
	}
	if min > max {
		return Budget{}, apperror.New(apperror.ErrCodeValidation, "минимальный бюджет не может превышать максимальный")
	}

	minMoney, _ := NewMoney(min, "")
	maxMoney, _ := NewMoney(max, "")

	return Budget{Min: minMoney, Max: maxMoney}, nil
}

func (b Budget) IsInRange(amount float64) bool {
	return amount >= b.Min.Amount && amount <= b.Max.Amount
}

func (b Budget) String() string {
	return fmt.Sprintf("%s %.2f - %.2f", b.Min.Currency, b.Min.Amount, b.Max.Amount)
}
