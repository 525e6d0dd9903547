package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/flicky/agri-backoffice/internal/dto"
	"github.com/flicky/agri-backoffice/internal/model"
	"github.com/flicky/agri-backoffice/internal/qrcode"
	"github.com/flicky/agri-backoffice/internal/repository"
	"github.com/flicky/agri-backoffice/internal/storage"
)

const productCacheTTL = 60 * time.Second

// ImageUpload is a product image received with the product form.
type ImageUpload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

type CatalogService struct {
	products    repository.ProductRepository
	images      storage.ObjectStorage
	qr          qrcode.Renderer
	ids         *qrcode.Generator
	redisClient *redis.Client
	notifier    *Notifier
	qrSize      int
	log         *zap.Logger
	now         func() time.Time
}

func NewCatalogService(
	products repository.ProductRepository,
	images storage.ObjectStorage,
	qr qrcode.Renderer,
	ids *qrcode.Generator,
	redisClient *redis.Client,
	notifier *Notifier,
	qrSize int,
	log *zap.Logger,
) *CatalogService {
	if log == nil {
		log = zap.NewNop()
	}
	return &CatalogService{
		products: products, images: images, qr: qr, ids: ids,
		redisClient: redisClient, notifier: notifier, qrSize: qrSize,
		log: log, now: time.Now,
	}
}

func (s *CatalogService) List(ctx context.Context) ([]dto.ProductListItem, error) {
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ProductListItem, 0, len(products))
	for i := range products {
		p := &products[i]
		out = append(out, dto.ProductListItem{
			ID:          p.ID,
			Name:        p.Name,
			Category:    p.Category,
			Price:       DisplayPrice(p),
			Stock:       p.Stock,
			StockClass:  p.StockClass(),
			IsAvailable: p.IsAvailable,
			QRCode:      p.QRCode,
			ImageURL:    p.ImageURL,
		})
	}
	return out, nil
}

// DisplayPrice strikes the base price through only when a non-zero deferred
// price is set; the deferred price then becomes the current one.
func DisplayPrice(p *model.Product) dto.PriceDisplay {
	if p.DeferredPrice == nil || p.DeferredPrice.IsZero() {
		return dto.PriceDisplay{Current: p.Price}
	}
	base := p.Price
	return dto.PriceDisplay{Current: *p.DeferredPrice, Strikethrough: &base}
}

func (s *CatalogService) Get(ctx context.Context, id string) (*dto.ProductResponse, error) {
	cacheKey := productCacheKey(id)

	if s.redisClient != nil {
		if cached, err := s.redisClient.Get(ctx, cacheKey).Result(); err == nil {
			var resp dto.ProductResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				return &resp, nil
			}
		}
	}

	p, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toProductResponse(p)

	if s.redisClient != nil {
		if data, err := json.Marshal(resp); err == nil {
			s.redisClient.Set(ctx, cacheKey, data, productCacheTTL)
		}
	}
	return &resp, nil
}

// Save creates the product when id is empty and updates it otherwise. A new
// image is uploaded before the record is written; without one an update
// keeps the stored image.
func (s *CatalogService) Save(ctx context.Context, id string, in dto.ProductInput, image *ImageUpload, actorID string) (*dto.ProductResponse, error) {
	p, err := parseProductInput(in)
	if err != nil {
		return nil, err
	}

	var existing *model.Product
	if id != "" {
		if existing, err = s.find(ctx, id); err != nil {
			return nil, err
		}
	}

	now := s.now().UTC()
	switch {
	case image != nil:
		url, err := s.uploadImage(ctx, now, image)
		if err != nil {
			return nil, err
		}
		p.ImageURL = &url
	case existing != nil:
		p.ImageURL = existing.ImageURL
	}

	if p.QRCode == "" && existing != nil {
		p.QRCode = existing.QRCode
	}
	if p.QRCode == "" {
		p.QRCode = s.ids.TraceabilityID(p.Name)
	}

	p.UpdatedAt = now
	if existing == nil {
		p.ID = uuid.NewString()
		p.CreatedAt = now
		if err := s.products.Create(ctx, p); err != nil {
			return nil, fmt.Errorf("create product: %w", err)
		}
	} else {
		p.ID = existing.ID
		p.CreatedAt = existing.CreatedAt
		if err := s.products.Update(ctx, p); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrProductNotFound
			}
			return nil, fmt.Errorf("update product: %w", err)
		}
		s.invalidateCache(ctx, p.ID)
	}

	s.notifier.Notify(ctx, model.NewEvent(model.EventProductSaved, "product", p.ID, actorID, map[string]any{
		"name":    p.Name,
		"qr_code": p.QRCode,
		"created": existing == nil,
	}))
	resp := toProductResponse(p)
	return &resp, nil
}

// Delete removes the record only; the stored image is left in place.
func (s *CatalogService) Delete(ctx context.Context, id string, confirmed bool, actorID string) error {
	if !confirmed {
		return ErrConfirmationRequired
	}
	if err := s.products.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("delete product: %w", err)
	}
	s.invalidateCache(ctx, id)
	s.notifier.Notify(ctx, model.NewEvent(model.EventProductDeleted, "product", id, actorID, nil))
	return nil
}

// QRCode renders the product's traceability id as a PNG.
func (s *CatalogService) QRCode(ctx context.Context, id string) ([]byte, error) {
	p, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.QRCode == "" {
		return nil, ErrMissingTraceability
	}
	img, err := s.qr.Render(ctx, p.QRCode, s.qrSize)
	if err != nil {
		return nil, fmt.Errorf("render product qr: %w", err)
	}
	return img, nil
}

func (s *CatalogService) find(ctx context.Context, id string) (*model.Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProductNotFound
	}
	return p, nil
}

func (s *CatalogService) uploadImage(ctx context.Context, now time.Time, img *ImageUpload) (string, error) {
	name := path.Base(strings.ReplaceAll(img.Filename, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "", invalid("image", "missing file name")
	}
	contentType, ok := imageContentType(img.ContentType)
	if !ok {
		return "", invalid("image", "must be a PNG, JPEG, GIF or WebP image")
	}
	objectPath := fmt.Sprintf("products/%d_%s", now.UnixMilli(), name)
	url, err := s.images.Upload(ctx, objectPath, contentType, img.Body)
	if err != nil {
		return "", fmt.Errorf("upload product image: %w", err)
	}
	s.log.Info("product image uploaded", zap.String("path", objectPath))
	return url, nil
}

var imageContentTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

// imageContentType normalizes a declared upload type. SVG is not accepted.
func imageContentType(declared string) (string, bool) {
	ct, _, err := mime.ParseMediaType(declared)
	if err != nil || !imageContentTypes[ct] {
		return "", false
	}
	return ct, true
}

func (s *CatalogService) invalidateCache(ctx context.Context, id string) {
	if s.redisClient != nil {
		s.redisClient.Del(ctx, productCacheKey(id))
	}
}

func productCacheKey(id string) string { return "product:" + id }

func parseProductInput(in dto.ProductInput) (*model.Product, error) {
	p := &model.Product{
		Name:                strings.TrimSpace(in.Name),
		Description:         strings.TrimSpace(in.Description),
		DetailedDescription: optionalString(in.DetailedDescription),
		Category:            strings.TrimSpace(in.Category),
		Zone:                optionalString(in.Zone),
		IsAvailable:         in.IsAvailable,
		Certification:       optionalString(in.Certification),
		QRCode:              strings.TrimSpace(in.QRCode),
		Traceability: model.Traceability{
			Origin:              strings.TrimSpace(in.Origin),
			CertificationNumber: strings.TrimSpace(in.CertificationNumber),
			Producer:            strings.TrimSpace(in.Producer),
			PackagingLocation:   strings.TrimSpace(in.PackagingLocation),
			Season:              strings.TrimSpace(in.Season),
			AgroEcologicalZone:  strings.TrimSpace(in.AgroEcologicalZone),
		},
	}
	if p.Name == "" {
		return nil, invalid("name", "is required")
	}
	if p.Category == "" {
		return nil, invalid("category", "is required")
	}

	price, err := parseAmount("price", in.Price, true)
	if err != nil {
		return nil, err
	}
	p.Price = *price
	if p.DeferredPrice, err = parseAmount("deferred_price", in.DeferredPrice, false); err != nil {
		return nil, err
	}
	if p.Stock, err = parseCount("stock", in.Stock); err != nil {
		return nil, err
	}
	if p.ReviewCount, err = parseCount("review_count", in.ReviewCount); err != nil {
		return nil, err
	}
	if s := strings.TrimSpace(in.Rating); s != "" {
		r, err := strconv.ParseFloat(s, 64)
		if err != nil || r < 0 || r > 5 {
			return nil, invalid("rating", "must be a number between 0 and 5")
		}
		p.Rating = r
	}
	if p.Traceability.PackagingDate, err = parseDate("packaging_date", in.PackagingDate); err != nil {
		return nil, err
	}
	return p, nil
}

// parseAmount returns nil for an empty optional amount.
func parseAmount(field, raw string, required bool) (*decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if required {
			return nil, invalid(field, "is required")
		}
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, invalid(field, "must be a number")
	}
	if d.IsNegative() {
		return nil, invalid(field, "must not be negative")
	}
	return &d, nil
}

func parseCount(field, raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, invalid(field, "must be an integer")
	}
	if n < 0 {
		return 0, invalid(field, "must not be negative")
	}
	return n, nil
}

func parseDate(field, raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, invalid(field, "must be a date (YYYY-MM-DD)")
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func toProductResponse(p *model.Product) dto.ProductResponse {
	return dto.ProductResponse{
		ID:                  p.ID,
		Name:                p.Name,
		Description:         p.Description,
		DetailedDescription: p.DetailedDescription,
		Category:            p.Category,
		Zone:                p.Zone,
		Price:               p.Price,
		DeferredPrice:       p.DeferredPrice,
		Stock:               p.Stock,
		StockClass:          p.StockClass(),
		IsAvailable:         p.IsAvailable,
		Certification:       p.Certification,
		Rating:              p.Rating,
		ReviewCount:         p.ReviewCount,
		Traceability:        p.Traceability,
		QRCode:              p.QRCode,
		ImageURL:            p.ImageURL,
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
	}
}
