package repository

import (
	"errors"
	"fmt"
	"math"

	"apartment-finder/internal/app/apperr"
	"apartment-finder/internal/app/ds"

	"gorm.io/gorm"
)

// TenantRepository работает с локальной базой компании в рамках одного
// запроса. Создаётся заново на каждый запрос из соединения брокера.
type TenantRepository struct {
	db *gorm.DB
}

func NewTenantRepository(db *gorm.DB) *TenantRepository {
	return &TenantRepository{db: db}
}

// errNoChanges откатывает транзакцию сохранения, когда ни одно числовое
// поле фактически не изменилось. Наружу не отдаётся.
var errNoChanges = errors.New("no field changes")

// FieldUpdate — одно изменение ставки, адресованное ключом строки
type FieldUpdate struct {
	ComplexName   string
	PropertyType  ds.PropertyType
	PaymentMethod ds.PaymentMethod
	Field         string
	Value         float64
}

func (r *TenantRepository) VersionByID(id uint) (*ds.DiscountVersion, error) {
	var version ds.DiscountVersion
	err := r.db.
		Preload("Discounts").
		Preload("ComplexComments").
		First(&version, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.NotFound, "версия скидок не найдена")
	}
	if err != nil {
		return nil, err
	}
	return &version, nil
}

// ActiveVersion возвращает активную версию или nil, если скидки
// ещё ни разу не активировались.
func (r *TenantRepository) ActiveVersion() (*ds.DiscountVersion, error) {
	var version ds.DiscountVersion
	err := r.db.
		Preload("Discounts").
		Preload("ComplexComments").
		Where("is_active = ?", true).
		First(&version).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &version, nil
}

func (r *TenantRepository) Versions() ([]ds.DiscountVersion, error) {
	var versions []ds.DiscountVersion
	err := r.db.Order("version_number DESC").Find(&versions).Error
	return versions, err
}

func (r *TenantRepository) DiscountCount(versionID uint) (int64, error) {
	var count int64
	err := r.db.Model(&ds.Discount{}).Where("version_id = ?", versionID).Count(&count).Error
	return count, err
}

// CreateDraft создаёт пустой черновик со следующим порядковым номером.
// Номера строго растут и не переиспользуются после удаления черновиков.
func (r *TenantRepository) CreateDraft(comment string) (*ds.DiscountVersion, error) {
	var version *ds.DiscountVersion
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var err error
		version, err = createDraftTx(tx, comment)
		return err
	})
	if err != nil {
		return nil, err
	}
	return version, nil
}

func createDraftTx(tx *gorm.DB, comment string) (*ds.DiscountVersion, error) {
	nextNumber, err := nextVersionNumberTx(tx)
	if err != nil {
		return nil, err
	}

	version := ds.DiscountVersion{
		VersionNumber: nextNumber,
		Comment:       comment,
		IsActive:      false,
	}
	if err := tx.Create(&version).Error; err != nil {
		return nil, err
	}
	return &version, nil
}

func nextVersionNumberTx(tx *gorm.DB) (int, error) {
	var maxNumber int
	// MAX по удалённым черновикам не возвращается: номер только растёт
	err := tx.Model(&ds.DiscountVersion{}).
		Select("COALESCE(MAX(version_number), 0)").
		Scan(&maxNumber).Error
	if err != nil {
		return 0, err
	}
	return maxNumber + 1, nil
}

// CloneForEditing создаёт черновик-копию версии: все скидки и комментарии
// к ЖК переносятся как есть. Пустой comment наследует комментарий источника.
// Клонирование атомарно, частичная копия не наблюдаема.
func (r *TenantRepository) CloneForEditing(sourceID uint, comment string) (*ds.DiscountVersion, error) {
	source, err := r.VersionByID(sourceID)
	if err != nil {
		return nil, err
	}
	if comment == "" {
		comment = source.Comment
	}

	var draft *ds.DiscountVersion
	err = r.db.Transaction(func(tx *gorm.DB) error {
		var err error
		draft, err = createDraftTx(tx, comment)
		if err != nil {
			return err
		}

		for _, d := range source.Discounts {
			copied := d
			copied.ID = 0
			copied.VersionID = draft.ID
			copied.Version = nil
			if err := tx.Create(&copied).Error; err != nil {
				return err
			}
		}
		for _, c := range source.ComplexComments {
			copied := c
			copied.ID = 0
			copied.VersionID = draft.ID
			copied.Version = nil
			if err := tx.Create(&copied).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return r.VersionByID(draft.ID)
}

// DeleteDraft удаляет черновик вместе со скидками и комментариями.
// Версию, которая хоть раз была активирована, удалить нельзя.
func (r *TenantRepository) DeleteDraft(id uint) error {
	version, err := r.VersionByID(id)
	if err != nil {
		return err
	}
	if version.WasEverActivated {
		return apperr.New(apperr.Permission,
			"версия №%d была активирована и не может быть удалена", version.VersionNumber)
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("version_id = ?", id).Delete(&ds.Discount{}).Error; err != nil {
			return err
		}
		if err := tx.Where("version_id = ?", id).Delete(&ds.ComplexComment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&ds.DiscountVersion{}, id).Error
	})
}

// ReplaceDiscounts заменяет все скидки черновика разом (импорт из файла).
// Либо встают все строки, либо ни одной.
func (r *TenantRepository) ReplaceDiscounts(versionID uint, rows []ds.Discount) error {
	version, err := r.VersionByID(versionID)
	if err != nil {
		return err
	}
	if version.IsActive {
		return apperr.New(apperr.Permission, "активная версия не редактируется, создайте черновик")
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("version_id = ?", versionID).Delete(&ds.Discount{}).Error; err != nil {
			return err
		}
		for i := range rows {
			rows[i].ID = 0
			rows[i].VersionID = versionID
			if err := tx.Create(&rows[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// UpdateDiscounts применяет точечные изменения ставок черновика.
// Значения, неотличимые от текущих (порог ds.RateEpsilon), и правки
// по связкам, которых нет в версии, пропускаются.
// Если не изменилось ни одно поле, транзакция откатывается целиком,
// сводка изменений при этом не сохраняется. Возвращает число
// изменённых полей и сообщение для пользователя.
func (r *TenantRepository) UpdateDiscounts(versionID uint, updates []FieldUpdate, changeSummary string) (int, string, error) {
	version, err := r.VersionByID(versionID)
	if err != nil {
		return 0, "", err
	}
	if version.IsActive {
		return 0, "", apperr.New(apperr.Permission, "активная версия не редактируется, создайте черновик")
	}

	changed := 0
	err = r.db.Transaction(func(tx *gorm.DB) error {
		for _, u := range updates {
			var discount ds.Discount
			err := tx.Where(
				"version_id = ? AND complex_name = ? AND property_type = ? AND payment_method = ?",
				versionID, u.ComplexName, u.PropertyType, u.PaymentMethod,
			).First(&discount).Error

			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Связки нет в версии: правка пропускается, новые строки
				// заводятся только импортом книги скидок
				continue
			}
			if err != nil {
				return err
			}

			if math.Abs(discount.Rate(u.Field)-u.Value) <= ds.RateEpsilon {
				continue
			}
			discount.SetRate(u.Field, u.Value)
			if err := tx.Save(&discount).Error; err != nil {
				return err
			}
			changed++
		}

		if changed == 0 {
			return errNoChanges
		}

		return tx.Model(&ds.DiscountVersion{}).
			Where("id = ?", versionID).
			Update("changes_summary_json", changeSummary).Error
	})

	if errors.Is(err, errNoChanges) {
		return 0, "изменений не обнаружено, сохранение отменено", nil
	}
	if err != nil {
		return 0, "", err
	}

	return changed, fmt.Sprintf("сохранено изменений: %d", changed), nil
}

// UpsertComplexComment сохраняет комментарий к ЖК внутри черновика
func (r *TenantRepository) UpsertComplexComment(versionID uint, complexName, comment string) error {
	version, err := r.VersionByID(versionID)
	if err != nil {
		return err
	}
	if version.IsActive {
		return apperr.New(apperr.Permission, "активная версия не редактируется, создайте черновик")
	}

	var existing ds.ComplexComment
	err = r.db.Where("version_id = ? AND complex_name = ?", versionID, complexName).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.Create(&ds.ComplexComment{
			VersionID:   versionID,
			ComplexName: complexName,
			Comment:     comment,
		}).Error
	}
	if err != nil {
		return err
	}

	existing.Comment = comment
	return r.db.Save(&existing).Error
}

// ActivationResult — итог активации: новая активная версия и версия,
// которая была активной до неё (nil при первой активации).
type ActivationResult struct {
	Activated *ds.DiscountVersion
	Previous  *ds.DiscountVersion
}

// ActivateVersion переключает активную версию одной транзакцией:
// старая активная гаснет, целевая загорается, флаг was_ever_activated
// взводится навсегда. Ни в какой момент не видно ноль или две
// активные версии.
func (r *TenantRepository) ActivateVersion(versionID uint, comment string) (*ActivationResult, error) {
	target, err := r.VersionByID(versionID)
	if err != nil {
		return nil, err
	}

	previous, err := r.ActiveVersion()
	if err != nil {
		return nil, err
	}
	if previous != nil && previous.ID == target.ID {
		return nil, apperr.New(apperr.Validation, "версия №%d уже активна", target.VersionNumber)
	}

	err = r.db.Transaction(func(tx *gorm.DB) error {
		// Гасятся все активные строки разом, а не только прочитанная до
		// транзакции: при одновременных активациях прочитанная версия
		// могла устареть, и точечное обновление оставило бы две активные
		err := tx.Model(&ds.DiscountVersion{}).
			Where("is_active = ?", true).
			Update("is_active", false).Error
		if err != nil {
			return err
		}

		values := map[string]interface{}{
			"is_active":          true,
			"was_ever_activated": true,
		}
		if comment != "" {
			values["comment"] = comment
		}
		return tx.Model(&ds.DiscountVersion{}).
			Where("id = ?", target.ID).
			Updates(values).Error
	})
	if err != nil {
		return nil, err
	}

	activated, err := r.VersionByID(versionID)
	if err != nil {
		return nil, err
	}
	return &ActivationResult{Activated: activated, Previous: previous}, nil
}

// MarkSummarySent фиксирует момент отправки письма со сводкой изменений
func (r *TenantRepository) MarkSummarySent(versionID uint, summaryJSON string) error {
	return r.db.Model(&ds.DiscountVersion{}).
		Where("id = ?", versionID).
		Updates(map[string]interface{}{
			"changes_summary_json": summaryJSON,
			"summary_sent_at":      gorm.Expr("CURRENT_TIMESTAMP"),
		}).Error
}
