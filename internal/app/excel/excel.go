// Package excel разбирает и собирает книги Excel: импорт скидок,
// шаблон для заполнения и выгрузка отчёта по остаткам.
package excel

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"apartment-finder/internal/app/apperr"
	"apartment-finder/internal/app/ds"

	"github.com/xuri/excelize/v2"
)

// DiscountHeaders — колонки книги скидок. Ставки указываются в файле
// в диапазоне 0-100 и нормализуются к долям при разборе.
var DiscountHeaders = []string{
	"ЖК", "Тип недвижимости", "Тип оплаты", "Дата кадастра",
	"МПП", "РОП", "КД", "ОПТ", "ГД", "Холдинг", "Акционер", "Акция",
}

// rateColumns сопоставляет заголовок колонки системному имени поля
var rateColumns = map[string]string{
	"МПП":      "mpp",
	"РОП":      "rop",
	"КД":       "kd",
	"ОПТ":      "opt",
	"ГД":       "gd",
	"Холдинг":  "holding",
	"Акционер": "shareholder",
	"Акция":    "action",
}

var cadastreLayouts = []string{"2006-01-02", "02.01.2006", "01-02-06", "2006-01-02 15:04:05"}

// ParseDiscountWorkbook разбирает загруженную книгу в строки скидок.
// Строки с нераспознанным типом недвижимости или способом оплаты
// пропускаются, полностью пустой файл считается ошибкой.
func ParseDiscountWorkbook(r io.Reader) ([]ds.Discount, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperr.Wrap(apperr.Validation, err, "не удалось открыть файл Excel")
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, apperr.Wrap(apperr.Validation, err, "не удалось прочитать лист")
	}
	if len(rows) < 2 {
		return nil, apperr.New(apperr.Validation, "файл Excel пуст или не содержит данных")
	}

	// Колонки ищутся по заголовкам, порядок не важен
	columnIndex := map[string]int{}
	for i, header := range rows[0] {
		columnIndex[strings.TrimSpace(header)] = i
	}
	for _, required := range []string{"ЖК", "Тип недвижимости", "Тип оплаты"} {
		if _, ok := columnIndex[required]; !ok {
			return nil, apperr.New(apperr.Validation, "в файле отсутствует колонка %q", required)
		}
	}

	var discounts []ds.Discount
	for _, row := range rows[1:] {
		complexName := strings.TrimSpace(cell(row, columnIndex["ЖК"]))
		if complexName == "" {
			continue
		}

		propertyType, err := ds.ParsePropertyType(strings.TrimSpace(cell(row, columnIndex["Тип недвижимости"])))
		if err != nil {
			continue
		}
		paymentMethod, err := ds.ParsePaymentMethod(strings.TrimSpace(cell(row, columnIndex["Тип оплаты"])))
		if err != nil {
			continue
		}

		d := ds.Discount{
			ComplexName:   complexName,
			PropertyType:  propertyType,
			PaymentMethod: paymentMethod,
		}
		for header, field := range rateColumns {
			idx, ok := columnIndex[header]
			if !ok {
				continue
			}
			d.SetRate(field, normalizePercentage(cell(row, idx)))
		}
		if idx, ok := columnIndex["Дата кадастра"]; ok {
			if date := parseCadastreDate(cell(row, idx)); date != nil {
				d.CadastreDate = date
			}
		}

		discounts = append(discounts, d)
	}

	if len(discounts) == 0 {
		return nil, apperr.New(apperr.Validation, "в файле не найдено ни одной корректной строки скидок")
	}
	return discounts, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// normalizePercentage приводит значение к доле: всё больше единицы
// трактуется как проценты и делится на 100.
func normalizePercentage(raw string) float64 {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", "."))
	raw = strings.TrimSuffix(raw, "%")
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	if value > 1.0 {
		return value / 100.0
	}
	return value
}

func parseCadastreDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range cadastreLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}

// GenerateDiscountTemplate собирает шаблон книги скидок: по строке на
// каждую связку (ЖК, тип, способ оплаты) с нулевыми ставками.
func GenerateDiscountTemplate(complexNames []string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Скидки"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	if err := writeHeader(f, sheet, DiscountHeaders); err != nil {
		return nil, err
	}

	rowNum := 2
	for _, name := range complexNames {
		for _, propertyType := range ds.AllPropertyTypes() {
			for _, paymentMethod := range ds.AllPaymentMethods() {
				values := []interface{}{name, propertyType.Display(), paymentMethod.Display(), ""}
				for range rateColumns {
					values = append(values, 0)
				}
				cellRef, _ := excelize.CoordinatesToCellName(1, rowNum)
				if err := f.SetSheetRow(sheet, cellRef, &values); err != nil {
					return nil, err
				}
				rowNum++
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// InventoryHeaders — колонки выгрузки отчёта по остаткам
var InventoryHeaders = []string{"ЖК", "Тип недвижимости", "Объектов", "Площадь, м²", "Стоимость по низу, UZS"}

// InventoryRow — агрегированная строка отчёта по остаткам
type InventoryRow struct {
	ComplexName  string
	PropertyType ds.PropertyType
	Units        int
	TotalArea    float64
	TotalValue   float64
}

// GenerateInventoryWorkbook выгружает отчёт по остаткам в книгу Excel
func GenerateInventoryWorkbook(rows []InventoryRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Остатки"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	if err := writeHeader(f, sheet, InventoryHeaders); err != nil {
		return nil, err
	}

	for i, row := range rows {
		values := []interface{}{
			row.ComplexName,
			row.PropertyType.Display(),
			row.Units,
			row.TotalArea,
			row.TotalValue,
		}
		cellRef, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cellRef, &values); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeHeader(f *excelize.File, sheet string, headers []string) error {
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return err
	}

	values := make([]interface{}, len(headers))
	for i, h := range headers {
		values[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &values); err != nil {
		return err
	}

	lastCell, _ := excelize.CoordinatesToCellName(len(headers), 1)
	return f.SetCellStyle(sheet, "A1", lastCell, headerStyle)
}
