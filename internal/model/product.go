package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID                  string           `bson:"_id"`
	Name                string           `bson:"name"`
	Description         string           `bson:"description"`
	DetailedDescription *string          `bson:"detailedDescription"`
	Category            string           `bson:"category"`
	Zone                *string          `bson:"zone"`
	Price               decimal.Decimal  `bson:"price"`
	DeferredPrice       *decimal.Decimal `bson:"deferredPrice"`
	Stock               int              `bson:"stock"`
	IsAvailable         bool             `bson:"isAvailable"`
	Certification       *string          `bson:"certification"`
	Rating              float64          `bson:"rating"`
	ReviewCount         int              `bson:"reviewCount"`
	Traceability        Traceability     `bson:",inline"`
	QRCode              string           `bson:"qrCode"`
	ImageURL            *string          `bson:"imageUrl"`
	CreatedAt           time.Time        `bson:"createdAt"`
	UpdatedAt           time.Time        `bson:"updatedAt"`
}

// Traceability carries the provenance fields printed behind a product QR code.
type Traceability struct {
	Origin              string     `bson:"origin" json:"origin"`
	CertificationNumber string     `bson:"certificationNumber" json:"certification_number"`
	Producer            string     `bson:"producer" json:"producer"`
	PackagingDate       *time.Time `bson:"packagingDate" json:"packaging_date,omitempty"`
	PackagingLocation   string     `bson:"packagingLocation" json:"packaging_location"`
	Season              string     `bson:"season" json:"season"`
	AgroEcologicalZone  string     `bson:"agroEcologicalZone" json:"agro_ecological_zone"`
}

// StockClass buckets the stock level for display.
func (p *Product) StockClass() string {
	switch {
	case p.Stock > 10:
		return "success"
	case p.Stock > 0:
		return "warning"
	default:
		return "error"
	}
}
