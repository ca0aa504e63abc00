package handlers

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/example/vitrina/internal/i18n"
	"github.com/example/vitrina/internal/middleware"
	"github.com/example/vitrina/internal/models"
	"github.com/example/vitrina/internal/utils"
)

const effectivePriceExpr = "COALESCE(NULLIF(discount_price, 0), price)"

var productOrdering = map[string]string{
	"price":       effectivePriceExpr + " ASC",
	"-price":      effectivePriceExpr + " DESC",
	"created_at":  "created_at ASC",
	"-created_at": "created_at DESC",
	"id":          "id ASC",
	"-id":         "id DESC",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// likePattern lowercases s and escapes LIKE wildcards for a substring match.
func likePattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

// nameSearchExpr matches a LIKE pattern against the translated values of
// products.name, never its locale keys.
func nameSearchExpr(dialect string) string {
	if dialect == "postgres" {
		return `EXISTS (SELECT 1 FROM jsonb_each_text(products.name) AS t(locale, value) WHERE LOWER(t.value) LIKE ? ESCAPE '\')`
	}
	return `EXISTS (SELECT 1 FROM json_each(products.name) WHERE LOWER(json_each.value) LIKE ? ESCAPE '\')`
}

// CatalogHandler serves the read-only storefront catalog.
type CatalogHandler struct {
	db            *gorm.DB
	defaultLocale string
}

// NewCatalogHandler constructs CatalogHandler.
func NewCatalogHandler(db *gorm.DB, defaultLocale string) *CatalogHandler {
	return &CatalogHandler{db: db, defaultLocale: defaultLocale}
}

type productView struct {
	ID             uint                 `json:"id"`
	Name           string               `json:"name"`
	Description    string               `json:"description"`
	Translations   map[string]i18n.Text `json:"translations"`
	Brand          string               `json:"brand"`
	Thumbnail      string               `json:"thumbnail"`
	Price          decimal.Decimal      `json:"price"`
	DiscountPrice  *decimal.Decimal     `json:"discount_price"`
	EffectivePrice decimal.Decimal      `json:"effective_price"`
	HasDiscount    bool                 `json:"has_discount"`
	InStock        bool                 `json:"in_stock"`
	Stock          int                  `json:"stock"`
	IsPopular      bool                 `json:"is_popular"`
	IsNew          bool                 `json:"is_new"`
}

func (h *CatalogHandler) productView(p models.Product, locale string) productView {
	view := productView{
		ID:          p.ID,
		Name:        p.LocalizedName(locale, h.defaultLocale),
		Description: p.Description.Data().Get(locale, h.defaultLocale),
		Translations: map[string]i18n.Text{
			"name":        p.Name.Data(),
			"description": p.Description.Data(),
		},
		Brand:          p.Brand,
		Thumbnail:      p.Thumbnail,
		Price:          p.Price,
		EffectivePrice: p.EffectivePrice(),
		HasDiscount:    p.HasDiscount(),
		InStock:        p.Stock > 0,
		Stock:          p.Stock,
		IsPopular:      p.IsPopular,
		IsNew:          p.IsNew,
	}
	if p.HasDiscount() {
		d := p.DiscountPrice.Decimal
		view.DiscountPrice = &d
	}
	return view
}

func queryBool(c *fiber.Ctx, key string) (bool, bool) {
	v := c.Query(key)
	if v == "" {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}

// ListProducts returns paginated products with filters.
func (h *CatalogHandler) ListProducts(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	locale := middleware.GetLocale(c)
	query := h.db.Model(&models.Product{})

	if search := strings.TrimSpace(c.Query("search")); search != "" {
		q := likePattern(search)
		query = query.Where("("+nameSearchExpr(h.db.Dialector.Name())+` OR LOWER(brand) LIKE ? ESCAPE '\')`, q, q)
	}

	if v := c.Query("min_price"); v != "" {
		if val, err := decimal.NewFromString(v); err == nil {
			query = query.Where(effectivePriceExpr+" >= ?", val.InexactFloat64())
		}
	}

	if v := c.Query("max_price"); v != "" {
		if val, err := decimal.NewFromString(v); err == nil {
			query = query.Where(effectivePriceExpr+" <= ?", val.InexactFloat64())
		}
	}

	if v, ok := queryBool(c, "has_discount"); ok {
		if v {
			query = query.Where("discount_price IS NOT NULL AND discount_price > 0")
		} else {
			query = query.Where("discount_price IS NULL OR discount_price = 0")
		}
	}

	if brand := strings.TrimSpace(c.Query("brand")); brand != "" {
		query = query.Where("brand = ?", brand)
	}
	if v, ok := queryBool(c, "is_popular"); ok {
		query = query.Where("is_popular = ?", v)
	}
	if v, ok := queryBool(c, "is_new"); ok {
		query = query.Where("is_new = ?", v)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	order, ok := productOrdering[c.Query("ordering")]
	if !ok {
		order = "created_at DESC"
	}

	var products []models.Product
	if err := query.Limit(pg.Limit).Offset(pg.Offset).
		Order(order).Order("id DESC").
		Find(&products).Error; err != nil {
		return err
	}

	views := make([]productView, 0, len(products))
	for _, p := range products {
		views = append(views, h.productView(p, locale))
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       views,
		"pagination": pg.Meta(total),
	})
}

// GetProduct returns a single product.
func (h *CatalogHandler) GetProduct(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var product models.Product
	if err := h.db.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": h.productView(product, middleware.GetLocale(c))})
}

type contentView struct {
	ID           uint                 `json:"id"`
	Title        string               `json:"title"`
	Description  string               `json:"description,omitempty"`
	Content      string               `json:"content,omitempty"`
	Translations map[string]i18n.Text `json:"translations"`
	Image        string               `json:"image"`
	Link         string               `json:"link"`
	CreatedAt    time.Time            `json:"created_at"`
}

func (h *CatalogHandler) showcaseView(s models.Showcase, locale string) contentView {
	return contentView{
		ID:          s.ID,
		Title:       s.Title.Data().Get(locale, h.defaultLocale),
		Description: s.Description.Data().Get(locale, h.defaultLocale),
		Translations: map[string]i18n.Text{
			"title":       s.Title.Data(),
			"description": s.Description.Data(),
		},
		Image:     s.Image,
		Link:      s.Link,
		CreatedAt: s.CreatedAt,
	}
}

func (h *CatalogHandler) blogView(b models.Blog, locale string) contentView {
	return contentView{
		ID:      b.ID,
		Title:   b.Title.Data().Get(locale, h.defaultLocale),
		Content: b.Content.Data().Get(locale, h.defaultLocale),
		Translations: map[string]i18n.Text{
			"title":   b.Title.Data(),
			"content": b.Content.Data(),
		},
		Image:     b.Image,
		Link:      b.Link,
		CreatedAt: b.CreatedAt,
	}
}

// listContent pages through one content table, newest first.
func listContent[T any](h *CatalogHandler, c *fiber.Ctx, view func(T, string) contentView) error {
	pg := utils.ParsePagination(c)
	locale := middleware.GetLocale(c)

	var total int64
	if err := h.db.Model(new(T)).Count(&total).Error; err != nil {
		return err
	}

	var rows []T
	if err := h.db.Limit(pg.Limit).Offset(pg.Offset).Order("created_at desc").Order("id desc").
		Find(&rows).Error; err != nil {
		return err
	}

	views := make([]contentView, 0, len(rows))
	for _, row := range rows {
		views = append(views, view(row, locale))
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       views,
		"pagination": pg.Meta(total),
	})
}

// ListBanners returns paginated banners.
func (h *CatalogHandler) ListBanners(c *fiber.Ctx) error {
	return listContent(h, c, func(b models.Banner, locale string) contentView {
		return h.showcaseView(b.Showcase, locale)
	})
}

// ListPartners returns paginated partners.
func (h *CatalogHandler) ListPartners(c *fiber.Ctx) error {
	return listContent(h, c, func(p models.Partner, locale string) contentView {
		return h.showcaseView(p.Showcase, locale)
	})
}

// ListAdvertisements returns paginated advertisements.
func (h *CatalogHandler) ListAdvertisements(c *fiber.Ctx) error {
	return listContent(h, c, func(a models.Advertisement, locale string) contentView {
		return h.showcaseView(a.Showcase, locale)
	})
}

// ListBlogs returns paginated blog posts.
func (h *CatalogHandler) ListBlogs(c *fiber.Ctx) error {
	return listContent(h, c, h.blogView)
}

// GetBlog returns a single blog post.
func (h *CatalogHandler) GetBlog(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var blog models.Blog
	if err := h.db.First(&blog, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "blog not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": h.blogView(blog, middleware.GetLocale(c))})
}

// ListBrands returns the distinct product brands in alphabetical order.
func (h *CatalogHandler) ListBrands(c *fiber.Ctx) error {
	var brands []string
	if err := h.db.Model(&models.Product{}).Where("brand <> ''").
		Distinct().Order("brand").Pluck("brand", &brands).Error; err != nil {
		return err
	}
	if brands == nil {
		brands = []string{}
	}
	return c.JSON(fiber.Map{"success": true, "data": brands})
}
