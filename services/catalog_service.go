package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-ordering/database"
	"github.com/yeremiapane/restaurant-ordering/models"
	"github.com/yeremiapane/restaurant-ordering/utils"
)

// CatalogService manages categories and menu items.
type CatalogService struct {
	gw  *database.Gateway
	log logrus.FieldLogger
	now func() time.Time
}

func NewCatalogService(gw *database.Gateway, log logrus.FieldLogger) *CatalogService {
	return &CatalogService{gw: gw, log: utils.Logger(log), now: time.Now}
}

type CategoryInput struct {
	Name         string
	Description  *string
	DisplayOrder int
}

type MenuItemInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	CategoryID  uint
	ImageURL    *string
	// IsAvailable nil keeps the current value on update and means true on create.
	IsAvailable *bool
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	err := s.gw.DB(ctx).Order("display_order ASC, name ASC").Find(&categories).Error
	if err != nil {
		return nil, persistence("list categories", err)
	}
	return categories, nil
}

func (s *CatalogService) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	if err := s.gw.DB(ctx).First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, persistence("load category", err)
	}
	return &category, nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, in CategoryInput) (*models.Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, withDetail(ErrInvalidInput, "category name is required")
	}

	var category models.Category
	err := s.gw.Transaction(ctx, func(tx *gorm.DB) error {
		if err := ensureCategoryNameFree(tx, name, 0); err != nil {
			return err
		}
		now := s.now()
		category = models.Category{
			Name:         name,
			Description:  in.Description,
			DisplayOrder: in.DisplayOrder,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		return database.CreateIn(tx, &category)
	})
	if err != nil {
		return nil, persistence("create category", err)
	}
	s.log.WithFields(logrus.Fields{"category_id": category.ID, "name": name}).Info("category created")
	return &category, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id uint, in CategoryInput) (*models.Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, withDetail(ErrInvalidInput, "category name is required")
	}

	var category models.Category
	err := s.gw.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&category, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCategoryNotFound
			}
			return err
		}
		if err := ensureCategoryNameFree(tx, name, id); err != nil {
			return err
		}
		category.Name = name
		category.Description = in.Description
		category.DisplayOrder = in.DisplayOrder
		category.UpdatedAt = s.now()
		return tx.Save(&category).Error
	})
	if err != nil {
		return nil, persistence("update category", err)
	}
	return &category, nil
}

func ensureCategoryNameFree(tx *gorm.DB, name string, exceptID uint) error {
	var n int64
	if err := tx.Model(&models.Category{}).Where("name = ? AND id <> ?", name, exceptID).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return withDetail(ErrCategoryNameTaken, name)
	}
	return nil
}

// DeleteCategory removes a category that no menu item references. Soft-deleted
// items still count as references.
func (s *CatalogService) DeleteCategory(ctx context.Context, id uint) error {
	err := s.gw.Transaction(ctx, func(tx *gorm.DB) error {
		var category models.Category
		if err := tx.Select("id").First(&category, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCategoryNotFound
			}
			return err
		}

		var inUse int64
		if err := tx.Model(&models.MenuItem{}).Where("category_id = ?", id).Count(&inUse).Error; err != nil {
			return err
		}
		if inUse > 0 {
			return withDetail(ErrCategoryInUse, fmt.Sprintf("%d menu item(s)", inUse))
		}
		return tx.Delete(&models.Category{}, id).Error
	})
	if err != nil {
		return persistence("delete category", err)
	}
	s.log.WithField("category_id", id).Info("category deleted")
	return nil
}

func (s *CatalogService) menuQuery(ctx context.Context, includeUnavailable bool) *gorm.DB {
	q := s.gw.DB(ctx).
		Model(&models.MenuItem{}).
		Joins("LEFT JOIN categories ON categories.id = menu_items.category_id").
		Preload("Category")
	if !includeUnavailable {
		q = q.Where("menu_items.is_available = ?", true)
	}
	return q
}

func toEntries(items []models.MenuItem) []models.MenuEntry {
	entries := make([]models.MenuEntry, 0, len(items))
	for _, it := range items {
		entries = append(entries, models.MenuEntry{MenuItem: it, CategoryName: it.Category.Name})
	}
	return entries
}

// ListMenuItems returns the menu ordered by category then name. The public
// menu passes includeUnavailable=false.
func (s *CatalogService) ListMenuItems(ctx context.Context, includeUnavailable bool) ([]models.MenuEntry, error) {
	var items []models.MenuItem
	err := s.menuQuery(ctx, includeUnavailable).
		Order("categories.display_order ASC, menu_items.name ASC, menu_items.id ASC").
		Find(&items).Error
	if err != nil {
		return nil, persistence("list menu items", err)
	}
	return toEntries(items), nil
}

func (s *CatalogService) ListMenuItemsByCategory(ctx context.Context, categoryID uint, includeUnavailable bool) ([]models.MenuEntry, error) {
	if _, err := s.GetCategory(ctx, categoryID); err != nil {
		return nil, err
	}
	var items []models.MenuItem
	err := s.menuQuery(ctx, includeUnavailable).
		Where("menu_items.category_id = ?", categoryID).
		Order("menu_items.name ASC, menu_items.id ASC").
		Find(&items).Error
	if err != nil {
		return nil, persistence("list menu items", err)
	}
	return toEntries(items), nil
}

// GetMenuItem hides unavailable items unless includeUnavailable is set.
func (s *CatalogService) GetMenuItem(ctx context.Context, id uint, includeUnavailable bool) (*models.MenuEntry, error) {
	var items []models.MenuItem
	err := s.menuQuery(ctx, includeUnavailable).Where("menu_items.id = ?", id).Limit(1).Find(&items).Error
	if err != nil {
		return nil, persistence("load menu item", err)
	}
	if len(items) == 0 {
		return nil, ErrMenuItemNotFound
	}
	return &toEntries(items)[0], nil
}

// validateMenuItem returns the trimmed name and the price as it will be
// stored. The positivity check runs on the stored (cent-rounded) value.
func validateMenuItem(tx *gorm.DB, in MenuItemInput) (string, decimal.Decimal, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return "", decimal.Zero, withDetail(ErrInvalidInput, "menu item name is required")
	}
	price := in.Price.Round(2)
	if !price.IsPositive() {
		return "", decimal.Zero, ErrInvalidPrice
	}
	var n int64
	if err := tx.Model(&models.Category{}).Where("id = ?", in.CategoryID).Count(&n).Error; err != nil {
		return "", decimal.Zero, err
	}
	if n == 0 {
		return "", decimal.Zero, ErrCategoryNotFound
	}
	return name, price, nil
}

func (s *CatalogService) CreateMenuItem(ctx context.Context, in MenuItemInput) (*models.MenuItem, error) {
	var item models.MenuItem
	err := s.gw.Transaction(ctx, func(tx *gorm.DB) error {
		name, price, err := validateMenuItem(tx, in)
		if err != nil {
			return err
		}
		available := true
		if in.IsAvailable != nil {
			available = *in.IsAvailable
		}
		now := s.now()
		item = models.MenuItem{
			Name:        name,
			Description: in.Description,
			Price:       price,
			CategoryID:  in.CategoryID,
			ImageURL:    in.ImageURL,
			IsAvailable: available,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		return database.CreateIn(tx, &item)
	})
	if err != nil {
		return nil, persistence("create menu item", err)
	}
	s.log.WithFields(logrus.Fields{"menu_item_id": item.ID, "name": item.Name}).Info("menu item created")
	return &item, nil
}

// UpdateMenuItem replaces the editable fields. Price changes never touch
// existing order lines, which carry their own unit price.
func (s *CatalogService) UpdateMenuItem(ctx context.Context, id uint, in MenuItemInput) (*models.MenuItem, error) {
	var item models.MenuItem
	err := s.gw.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&item, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrMenuItemNotFound
			}
			return err
		}
		name, price, err := validateMenuItem(tx, in)
		if err != nil {
			return err
		}
		item.Name = name
		item.Description = in.Description
		item.Price = price
		item.CategoryID = in.CategoryID
		item.ImageURL = in.ImageURL
		if in.IsAvailable != nil {
			item.IsAvailable = *in.IsAvailable
		}
		item.UpdatedAt = s.now()
		return tx.Omit("Category").Save(&item).Error
	})
	if err != nil {
		return nil, persistence("update menu item", err)
	}
	return &item, nil
}

// DeleteMenuItem is a soft delete: the item leaves the public menu but keeps
// its row for historical order lines.
func (s *CatalogService) DeleteMenuItem(ctx context.Context, id uint) error {
	err := s.gw.Transaction(ctx, func(tx *gorm.DB) error {
		var item models.MenuItem
		if err := tx.Select("id").First(&item, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrMenuItemNotFound
			}
			return err
		}
		return tx.Model(&models.MenuItem{}).Where("id = ?", id).
			Updates(map[string]interface{}{"is_available": false, "updated_at": s.now()}).Error
	})
	if err != nil {
		return persistence("delete menu item", err)
	}
	s.log.WithField("menu_item_id", id).Info("menu item marked unavailable")
	return nil
}
