package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type SubsidyStatus string

const (
	SubsidyStatusPending  SubsidyStatus = "pending"
	SubsidyStatusApproved SubsidyStatus = "approved"
	SubsidyStatusRejected SubsidyStatus = "rejected"
)

var subsidyStatusLabels = map[SubsidyStatus]string{
	SubsidyStatusPending:  "À venir",
	SubsidyStatusApproved: "Active",
	SubsidyStatusRejected: "Expirée",
}

func (s SubsidyStatus) Label() string { return subsidyStatusLabels[s] }

type Subsidy struct {
	ID            string          `bson:"_id"`
	Name          string          `bson:"name"`
	Type          string          `bson:"type"`
	Amount        decimal.Decimal `bson:"amount"`
	Beneficiaries []string        `bson:"beneficiaries"`
	StartDate     *time.Time      `bson:"startDate"`
	EndDate       *time.Time      `bson:"endDate"`
	CreatedAt     time.Time       `bson:"createdAt"`
	UpdatedAt     time.Time       `bson:"updatedAt"`
}

// StatusAt derives the display status from the stored date range. Both
// bounds are inclusive; a subsidy without dates is pending.
func StatusAt(now time.Time, start, end *time.Time) SubsidyStatus {
	if start == nil || end == nil {
		return SubsidyStatusPending
	}
	if now.Before(*start) {
		return SubsidyStatusPending
	}
	if now.After(*end) {
		return SubsidyStatusRejected
	}
	return SubsidyStatusApproved
}

func (s *Subsidy) StatusAt(now time.Time) SubsidyStatus {
	return StatusAt(now, s.StartDate, s.EndDate)
}
