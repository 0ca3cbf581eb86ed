package excel

import (
	"bytes"
	"testing"

	"apartment-finder/internal/app/apperr"
	"apartment-finder/internal/app/ds"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cellRef, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func headerRow() []interface{} {
	row := make([]interface{}, len(DiscountHeaders))
	for i, h := range DiscountHeaders {
		row[i] = h
	}
	return row
}

func TestParseDiscountWorkbook(t *testing.T) {
	data := buildWorkbook(t, [][]interface{}{
		headerRow(),
		{"Солнечный", "Квартира", "100% оплата", "2027-06-01", "5", "3", "2", "0", "0", "0", "0", "1,5"},
		{"Солнечный", "Квартира", "Ипотека", "", "4%", "2", "0", "0", "0", "0", "0", "0"},
	})

	discounts, err := ParseDiscountWorkbook(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, discounts, 2)

	first := discounts[0]
	assert.Equal(t, "Солнечный", first.ComplexName)
	assert.Equal(t, ds.PropertyFlat, first.PropertyType)
	assert.Equal(t, ds.FullPayment, first.PaymentMethod)
	// Значения больше единицы трактуются как проценты
	assert.InDelta(t, 0.05, first.Mpp, 1e-9)
	assert.InDelta(t, 0.03, first.Rop, 1e-9)
	assert.InDelta(t, 0.02, first.Kd, 1e-9)
	// Запятая как разделитель дробной части
	assert.InDelta(t, 0.015, first.Action, 1e-9)
	require.NotNil(t, first.CadastreDate)
	assert.Equal(t, 2027, first.CadastreDate.Year())

	second := discounts[1]
	assert.Equal(t, ds.Mortgage, second.PaymentMethod)
	// Знак процента отбрасывается
	assert.InDelta(t, 0.04, second.Mpp, 1e-9)
	assert.Nil(t, second.CadastreDate)
}

func TestParseDiscountWorkbook_SkipsBadRows(t *testing.T) {
	data := buildWorkbook(t, [][]interface{}{
		headerRow(),
		{"", "Квартира", "100% оплата"},
		{"Солнечный", "Пентхаус", "100% оплата"},
		{"Солнечный", "Квартира", "Бартер"},
		{"Солнечный", "Квартира", "100% оплата", "", "5"},
	})

	discounts, err := ParseDiscountWorkbook(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, discounts, 1)
	assert.InDelta(t, 0.05, discounts[0].Mpp, 1e-9)
}

func TestParseDiscountWorkbook_MissingColumn(t *testing.T) {
	data := buildWorkbook(t, [][]interface{}{
		{"ЖК", "Тип недвижимости"},
		{"Солнечный", "Квартира"},
	})

	_, err := ParseDiscountWorkbook(bytes.NewReader(data))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Validation))
	assert.Contains(t, err.Error(), "Тип оплаты")
}

func TestParseDiscountWorkbook_EmptyFile(t *testing.T) {
	data := buildWorkbook(t, [][]interface{}{headerRow()})

	_, err := ParseDiscountWorkbook(bytes.NewReader(data))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Validation))
}

func TestParseDiscountWorkbook_NotExcel(t *testing.T) {
	_, err := ParseDiscountWorkbook(bytes.NewReader([]byte("definitely not a workbook")))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Validation))
}

func TestNormalizePercentage(t *testing.T) {
	assert.InDelta(t, 0.05, normalizePercentage("5"), 1e-9)
	assert.InDelta(t, 0.05, normalizePercentage("5%"), 1e-9)
	assert.InDelta(t, 0.055, normalizePercentage("5,5"), 1e-9)
	assert.InDelta(t, 0.5, normalizePercentage("0.5"), 1e-9)
	assert.Zero(t, normalizePercentage("abc"))
	assert.Zero(t, normalizePercentage(""))
}

func TestGenerateDiscountTemplate(t *testing.T) {
	data, err := GenerateDiscountTemplate([]string{"Солнечный"})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Скидки")
	require.NoError(t, err)

	// Заголовок плюс строка на каждую связку (тип, способ оплаты)
	expected := 1 + len(ds.AllPropertyTypes())*len(ds.AllPaymentMethods())
	assert.Len(t, rows, expected)
	assert.Equal(t, DiscountHeaders, rows[0][:len(DiscountHeaders)])

	// Шаблон разбирается обратно без ошибок
	parsed, err := ParseDiscountWorkbook(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Len(t, parsed, expected-1)
}

func TestGenerateInventoryWorkbook(t *testing.T) {
	data, err := GenerateInventoryWorkbook([]InventoryRow{
		{ComplexName: "Солнечный", PropertyType: ds.PropertyFlat, Units: 12, TotalArea: 720.5, TotalValue: 54_000_000_000},
	})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Остатки")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Солнечный", rows[1][0])
	assert.Equal(t, "Квартира", rows[1][1])
	assert.Equal(t, "12", rows[1][2])
}
