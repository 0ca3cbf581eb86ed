package pricing

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"apartment-finder/internal/app/ds"
)

// DiscountKey адресует строку скидки внутри версии
type DiscountKey struct {
	ComplexName   string           `json:"complex_name"`
	PropertyType  ds.PropertyType  `json:"property_type"`
	PaymentMethod ds.PaymentMethod `json:"payment_method"`
}

func (k DiscountKey) String() string {
	return fmt.Sprintf("%s / %s / %s", k.ComplexName, k.PropertyType.Display(), k.PaymentMethod.Display())
}

// FieldChange — изменение одного процентного поля
type FieldChange struct {
	Field  string  `json:"field"`
	Before float64 `json:"before"`
	After  float64 `json:"after"`
}

// Increased истинно, если ставка выросла
func (c FieldChange) Increased() bool { return c.After > c.Before }

// DeltaPoints возвращает величину изменения в процентных пунктах
func (c FieldChange) DeltaPoints() float64 {
	return math.Abs(c.After-c.Before) * 100
}

type ModifiedEntry struct {
	Key     DiscountKey   `json:"key"`
	Changes []FieldChange `json:"changes"`
}

// VersionDiff — структурное сравнение двух версий скидок
type VersionDiff struct {
	Added    []DiscountKey   `json:"added"`
	Removed  []DiscountKey   `json:"removed"`
	Modified []ModifiedEntry `json:"modified"`
}

// Empty истинно, когда версии неразличимы
func (d VersionDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Modified) == 0
}

// JSON сериализует сравнение для хранения на версии
func (d VersionDiff) JSON() string {
	raw, err := json.Marshal(d)
	if err != nil {
		return ""
	}
	return string(raw)
}

// DiffVersions строит сравнение: строки только в новой версии считаются
// добавленными, только в старой — удалёнными, общие сравниваются по всем
// процентным полям с допуском ds.RateEpsilon.
func DiffVersions(old, new *ds.DiscountVersion) VersionDiff {
	oldMap := discountMap(old)
	newMap := discountMap(new)

	var diff VersionDiff

	for key, newDiscount := range newMap {
		oldDiscount, ok := oldMap[key]
		if !ok {
			diff.Added = append(diff.Added, key)
			continue
		}
		var changes []FieldChange
		for _, field := range ds.DiscountRateFields {
			before := oldDiscount.Rate(field)
			after := newDiscount.Rate(field)
			if math.Abs(after-before) > ds.RateEpsilon {
				changes = append(changes, FieldChange{Field: field, Before: before, After: after})
			}
		}
		if len(changes) > 0 {
			diff.Modified = append(diff.Modified, ModifiedEntry{Key: key, Changes: changes})
		}
	}

	for key := range oldMap {
		if _, ok := newMap[key]; !ok {
			diff.Removed = append(diff.Removed, key)
		}
	}

	sortKeys(diff.Added)
	sortKeys(diff.Removed)
	sort.Slice(diff.Modified, func(i, j int) bool {
		return diff.Modified[i].Key.String() < diff.Modified[j].Key.String()
	})

	return diff
}

func discountMap(version *ds.DiscountVersion) map[DiscountKey]*ds.Discount {
	m := make(map[DiscountKey]*ds.Discount)
	if version == nil {
		return m
	}
	for i := range version.Discounts {
		d := &version.Discounts[i]
		m[DiscountKey{d.ComplexName, d.PropertyType, d.PaymentMethod}] = d
	}
	return m
}

func sortKeys(keys []DiscountKey) {
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})
}

// ActivationEmail — письмо об активации версии
type ActivationEmail struct {
	Subject string
	Body    string
}

// RenderActivationEmail собирает письмо со сводкой изменений между
// предыдущей активной версией и новой. При первой активации письма нет.
func RenderActivationEmail(previous, activated *ds.DiscountVersion) *ActivationEmail {
	if previous == nil {
		return nil
	}

	diff := DiffVersions(previous, activated)

	var b strings.Builder
	fmt.Fprintf(&b, "<h2>Активирована версия скидок №%d</h2>", activated.VersionNumber)
	fmt.Fprintf(&b, "<p>Предыдущая версия: №%d</p>", previous.VersionNumber)
	if activated.Comment != "" {
		fmt.Fprintf(&b, "<p>Комментарий: %s</p>", activated.Comment)
	}

	if diff.Empty() {
		b.WriteString("<p>Ставки не изменились.</p>")
	}

	if len(diff.Added) > 0 {
		b.WriteString("<h3>Добавлены</h3><ul>")
		for _, key := range diff.Added {
			fmt.Fprintf(&b, "<li>%s</li>", key)
		}
		b.WriteString("</ul>")
	}
	if len(diff.Removed) > 0 {
		b.WriteString("<h3>Удалены</h3><ul>")
		for _, key := range diff.Removed {
			fmt.Fprintf(&b, "<li>%s</li>", key)
		}
		b.WriteString("</ul>")
	}
	if len(diff.Modified) > 0 {
		b.WriteString("<h3>Изменены</h3><ul>")
		for _, entry := range diff.Modified {
			fmt.Fprintf(&b, "<li>%s:<ul>", entry.Key)
			for _, change := range entry.Changes {
				direction := "снижена"
				if change.Increased() {
					direction = "повышена"
				}
				fmt.Fprintf(&b, "<li>%s %s на %.2f п.п. (%.2f%% → %.2f%%)</li>",
					strings.ToUpper(change.Field), direction, change.DeltaPoints(),
					change.Before*100, change.After*100)
			}
			b.WriteString("</ul></li>")
		}
		b.WriteString("</ul>")
	}

	if len(activated.ComplexComments) > 0 {
		b.WriteString("<h3>Комментарии по ЖК</h3><ul>")
		for _, c := range activated.ComplexComments {
			fmt.Fprintf(&b, "<li><b>%s</b>: %s</li>", c.ComplexName, c.Comment)
		}
		b.WriteString("</ul>")
	}

	return &ActivationEmail{
		Subject: fmt.Sprintf("Активирована версия скидок №%d", activated.VersionNumber),
		Body:    b.String(),
	}
}
