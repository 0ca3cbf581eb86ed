// Package pricing содержит чистые расчёты цен: итоговая цена по активной
// версии скидок, сравнение версий и калькуляторы рассрочки. Пакет не ходит
// в базу, все данные передаются аргументами, результат детерминирован.
package pricing

import (
	"math"

	"apartment-finder/internal/app/apperr"
	"apartment-finder/internal/app/ds"
)

const (
	// Административный вычет из цены прайса, применяется только к квартирам
	DeductionAmount = 3_000_000
	// Максимальное тело льготной ипотеки
	MaxMortgage = 420_000_000
	// Минимальный первоначальный взнос по ипотеке
	MinInitialPaymentPercent = 0.15
	// Потолок тела ипотеки для рассрочки на ПВ
	MaxMortgageBody = 840_000_000
)

// Deduction возвращает административный вычет для типа недвижимости
func Deduction(propertyType ds.PropertyType) float64 {
	if propertyType == ds.PropertyFlat {
		return DeductionAmount
	}
	return 0
}

// BaseRate суммирует базовые составляющие скидки. МПП, РОП и акция
// применяются всегда, остальные поля задают потолки дополнительных скидок.
func BaseRate(d *ds.Discount) float64 {
	return d.Mpp + d.Rop + d.Action
}

// QuoteInput — запрос на расчёт цены одного объекта
type QuoteInput struct {
	ComplexName   string
	PropertyType  ds.PropertyType
	PaymentMethod ds.PaymentMethod
	ListPrice     float64
	// Дополнительные скидки сверх базовой ставки по именам полей
	// (kd, opt, gd, holding, shareholder)
	Extra map[string]float64
	// Первоначальный взнос для ипотеки; ноль означает минимальный
	DownPayment float64
}

// Quote — результат расчёта
type Quote struct {
	ListPrice     float64
	Deduction     float64
	TotalRate     float64
	FinalPrice    float64
	DownPayment   float64
	MortgageBody  float64
	VersionNumber int
}

// QuoteUnit считает итоговую цену объекта по активной версии скидок.
// Версия обязательна: без активной версии расчёт невозможен. Отсутствие
// скидки для связки (ЖК, тип, способ оплаты) означает нулевые ставки,
// а не ошибку.
func QuoteUnit(active *ds.DiscountVersion, input QuoteInput) (*Quote, error) {
	if active == nil {
		return nil, apperr.New(apperr.Domain, "система скидок не настроена: нет активной версии")
	}
	if input.ListPrice <= 0 {
		return nil, apperr.New(apperr.Validation, "цена объекта должна быть больше нуля")
	}

	discount := findDiscount(active, input.ComplexName, input.PropertyType, input.PaymentMethod)

	totalRate := BaseRate(discount)
	extraRate, err := validateExtra(discount, input.Extra)
	if err != nil {
		return nil, err
	}
	totalRate += extraRate

	deduction := Deduction(input.PropertyType)
	priceAfterDeduction := input.ListPrice - deduction
	if priceAfterDeduction <= 0 {
		return nil, apperr.New(apperr.Validation, "цена объекта не покрывает вычет %d", DeductionAmount)
	}

	finalPrice := priceAfterDeduction * (1 - totalRate)

	quote := &Quote{
		ListPrice:     input.ListPrice,
		Deduction:     deduction,
		TotalRate:     totalRate,
		FinalPrice:    finalPrice,
		VersionNumber: active.VersionNumber,
	}

	if input.PaymentMethod == ds.Mortgage {
		if err := applyMortgage(quote, input.DownPayment); err != nil {
			return nil, err
		}
	}

	return quote, nil
}

// applyMortgage проверяет минимальный взнос и потолок тела ипотеки
func applyMortgage(q *Quote, downPayment float64) error {
	minDP := q.FinalPrice * MinInitialPaymentPercent
	if downPayment == 0 {
		// Минимально возможный взнос: не меньше 15% и не меньше
		// остатка сверх максимального тела ипотеки
		downPayment = math.Max(minDP, q.FinalPrice-MaxMortgage)
	}
	if downPayment < minDP {
		return apperr.New(apperr.Validation,
			"первоначальный взнос не может быть меньше %.0f%% (%.0f UZS)",
			MinInitialPaymentPercent*100, minDP)
	}

	body := q.FinalPrice - downPayment
	if body > MaxMortgageBody {
		needed := body - MaxMortgageBody
		return apperr.New(apperr.Validation,
			"тело ипотеки превышает лимит %.0f UZS, увеличьте первоначальный взнос на %.0f UZS",
			float64(MaxMortgageBody), needed)
	}
	if body < 0 {
		body = 0
	}

	q.DownPayment = downPayment
	q.MortgageBody = body
	return nil
}

// BottomPrice считает нижнюю границу стоимости объекта для отчёта по
// остаткам: скидки связки со 100% оплатой плюс скидка КД вместо акции.
// Без цены или при цене ниже вычета возвращает ноль.
func BottomPrice(active *ds.DiscountVersion, complexName string, pt ds.PropertyType, listPrice float64) float64 {
	if active == nil || listPrice <= 0 {
		return 0
	}
	priceAfterDeduction := listPrice - Deduction(pt)
	if priceAfterDeduction <= 0 {
		return 0
	}
	d := findDiscount(active, complexName, pt, ds.FullPayment)
	return priceAfterDeduction * (1 - (d.Mpp + d.Rop + d.Kd))
}

// findDiscount ищет скидку по ключу в версии; пустая скидка при отсутствии
func findDiscount(version *ds.DiscountVersion, complexName string, pt ds.PropertyType, pm ds.PaymentMethod) *ds.Discount {
	for i := range version.Discounts {
		d := &version.Discounts[i]
		if d.ComplexName == complexName && d.PropertyType == pt && d.PaymentMethod == pm {
			return d
		}
	}
	return &ds.Discount{}
}

// validateExtra проверяет дополнительные скидки против потолков версии.
// Превышение потолка поля отклоняет расчёт целиком.
func validateExtra(discount *ds.Discount, extra map[string]float64) (float64, error) {
	total := 0.0
	for _, field := range ds.DiscountRateFields {
		value, ok := extra[field]
		if !ok || value == 0 {
			continue
		}
		maxValue := discount.Rate(field)
		if value > maxValue+ds.RateEpsilon {
			return 0, apperr.New(apperr.Validation,
				"скидка %s превышает максимум %.1f%%", field, maxValue*100)
		}
		total += value
	}
	return total, nil
}
