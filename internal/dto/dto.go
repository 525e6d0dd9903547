package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/flicky/agri-backoffice/internal/model"
)

// --- Session ---

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SessionResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// SessionDecision tells the front-end which top-level view to show.
type SessionDecision struct {
	View    string        `json:"view"`
	Section string        `json:"section,omitempty"`
	Message string        `json:"message,omitempty"`
	User    *UserResponse `json:"user,omitempty"`
}

// --- Orders ---

type OrderItemResponse struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

type OrderResponse struct {
	ID          string              `json:"id"`
	UserID      string              `json:"user_id"`
	Address     string              `json:"address"`
	Items       []OrderItemResponse `json:"items"`
	TotalAmount decimal.Decimal     `json:"total_amount"`
	Status      model.OrderStatus   `json:"status"`
	StatusLabel string              `json:"status_label"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type OrderStatsResponse struct {
	Pending    int `json:"pending"`
	Confirmed  int `json:"confirmed"`
	Processing int `json:"processing"`
	Shipping   int `json:"shipping"`
	Delivered  int `json:"delivered"`
	Cancelled  int `json:"cancelled"`
	Total      int `json:"total"`
}

// --- Vendors ---

type VendorResponse struct {
	ID              string             `json:"id"`
	UserID          string             `json:"user_id,omitempty"`
	Name            string             `json:"name"`
	Email           string             `json:"email"`
	PhoneNumber     string             `json:"phone_number"`
	Address         string             `json:"address"`
	Status          model.VendorStatus `json:"status"`
	StatusLabel     string             `json:"status_label"`
	Documents       []model.NamedLink  `json:"documents,omitempty"`
	ApprovedAt      *time.Time         `json:"approved_at,omitempty"`
	ApprovedBy      string             `json:"approved_by,omitempty"`
	RejectedAt      *time.Time         `json:"rejected_at,omitempty"`
	RejectedBy      string             `json:"rejected_by,omitempty"`
	RejectionReason string             `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
}

type RejectVendorRequest struct {
	Reason string `json:"reason"`
}

// --- Products ---

// ProductInput is the product form. Numeric fields arrive as text and are
// parsed by the catalog service.
type ProductInput struct {
	Name                string `form:"name"`
	Description         string `form:"description"`
	DetailedDescription string `form:"detailed_description"`
	Category            string `form:"category"`
	Zone                string `form:"zone"`
	Price               string `form:"price"`
	DeferredPrice       string `form:"deferred_price"`
	Stock               string `form:"stock"`
	IsAvailable         bool   `form:"is_available"`
	Certification       string `form:"certification"`
	Rating              string `form:"rating"`
	ReviewCount         string `form:"review_count"`
	Origin              string `form:"origin"`
	CertificationNumber string `form:"certification_number"`
	Producer            string `form:"producer"`
	PackagingDate       string `form:"packaging_date"`
	PackagingLocation   string `form:"packaging_location"`
	Season              string `form:"season"`
	AgroEcologicalZone  string `form:"agro_ecological_zone"`
	QRCode              string `form:"qr_code"`
}

type ProductResponse struct {
	ID                  string             `json:"id"`
	Name                string             `json:"name"`
	Description         string             `json:"description"`
	DetailedDescription *string            `json:"detailed_description"`
	Category            string             `json:"category"`
	Zone                *string            `json:"zone"`
	Price               decimal.Decimal    `json:"price"`
	DeferredPrice       *decimal.Decimal   `json:"deferred_price"`
	Stock               int                `json:"stock"`
	StockClass          string             `json:"stock_class"`
	IsAvailable         bool               `json:"is_available"`
	Certification       *string            `json:"certification"`
	Rating              float64            `json:"rating"`
	ReviewCount         int                `json:"review_count"`
	Traceability        model.Traceability `json:"traceability"`
	QRCode              string             `json:"qr_code"`
	ImageURL            *string            `json:"image_url"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
}

// PriceDisplay is how a listing row shows the price: the base price is
// struck through only when a deferred price exists.
type PriceDisplay struct {
	Current       decimal.Decimal  `json:"current"`
	Strikethrough *decimal.Decimal `json:"strikethrough,omitempty"`
}

type ProductListItem struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Category    string       `json:"category"`
	Price       PriceDisplay `json:"price"`
	Stock       int          `json:"stock"`
	StockClass  string       `json:"stock_class"`
	IsAvailable bool         `json:"is_available"`
	QRCode      string       `json:"qr_code"`
	ImageURL    *string      `json:"image_url"`
}

// --- Subsidies ---

type SubsidyRequest struct {
	Name          string     `json:"name"`
	Type          string     `json:"type"`
	Amount        string     `json:"amount"`
	Beneficiaries []string   `json:"beneficiaries"`
	StartDate     *time.Time `json:"start_date"`
	EndDate       *time.Time `json:"end_date"`
}

type SubsidyResponse struct {
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	Type          string              `json:"type"`
	Amount        decimal.Decimal     `json:"amount"`
	Beneficiaries []string            `json:"beneficiaries"`
	StartDate     *time.Time          `json:"start_date"`
	EndDate       *time.Time          `json:"end_date"`
	Status        model.SubsidyStatus `json:"status"`
	StatusLabel   string              `json:"status_label"`
}

// --- Training ---

type TrainingRequest struct {
	Title       string   `json:"title"`
	Category    string   `json:"category"`
	Duration    int      `json:"duration"`
	Content     string   `json:"content"`
	MediaURLs   []string `json:"media_urls"`
	IsPublished bool     `json:"is_published"`
}

type PublishTrainingRequest struct {
	Published bool `json:"published"`
}

type TrainingResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Category    string    `json:"category"`
	Duration    int       `json:"duration"`
	Content     string    `json:"content"`
	MediaURLs   []string  `json:"media_urls"`
	IsPublished bool      `json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// --- Users ---

type UpdateUserRequest struct {
	Name               *string `json:"name"`
	Phone              *string `json:"phone"`
	Region             *string `json:"region"`
	AgroEcologicalZone *string `json:"agro_ecological_zone"`
	Address            *string `json:"address"`
	Disabled           *bool   `json:"disabled"`
}

type UserResponse struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	Phone              string    `json:"phone"`
	Region             string    `json:"region"`
	AgroEcologicalZone string    `json:"agro_ecological_zone"`
	Address            string    `json:"address"`
	Role               string    `json:"role"`
	IsAdmin            bool      `json:"is_admin"`
	Disabled           bool      `json:"disabled"`
	CreatedAt          time.Time `json:"created_at"`
}

// --- Weather ---

type WeatherAlertResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Region      string    `json:"region"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Severity    string    `json:"severity"`
	RiskLevel   string    `json:"risk_level,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// --- Dashboard ---

type DashboardResponse struct {
	Users          int64            `json:"users"`
	Vendors        int64            `json:"vendors"`
	Orders         int64            `json:"orders"`
	Products       int64            `json:"products"`
	RecentOrders   []OrderResponse  `json:"recent_orders"`
	PendingVendors []VendorResponse `json:"pending_vendors"`
}

// --- Statistics ---

type SeriesPoint struct {
	Label string          `json:"label"`
	Value decimal.Decimal `json:"value"`
}

type ChartResponse struct {
	ID     string        `json:"id"`
	Type   string        `json:"type"`
	Title  string        `json:"title"`
	Series []SeriesPoint `json:"series"`
}

type StatisticsResponse struct {
	Period string          `json:"period"`
	Orders int             `json:"orders"`
	Charts []ChartResponse `json:"charts"`
}

// --- Audit ---

type AuditEntryResponse struct {
	ID        uuid.UUID      `json:"id"`
	EventID   uuid.UUID      `json:"event_id"`
	Action    string         `json:"action"`
	ActorID   string         `json:"actor_id"`
	Data      map[string]any `json:"data,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
