package model

import (
	"fmt"
	"sort"
	"time"
)

type VendorStatus string

const (
	VendorStatusPending  VendorStatus = "pending"
	VendorStatusApproved VendorStatus = "approved"
	VendorStatusRejected VendorStatus = "rejected"
)

var vendorStatusLabels = map[VendorStatus]string{
	VendorStatusPending:  "En attente",
	VendorStatusApproved: "Approuvé",
	VendorStatusRejected: "Rejeté",
}

func (s VendorStatus) Normalize() VendorStatus {
	if s == "" {
		return VendorStatusPending
	}
	return s
}

func (s VendorStatus) Valid() bool {
	_, ok := vendorStatusLabels[s]
	return ok
}

// Terminal reports whether a decision has been recorded. Decided
// applications never return to pending.
func (s VendorStatus) Terminal() bool {
	s = s.Normalize()
	return s == VendorStatusApproved || s == VendorStatusRejected
}

func (s VendorStatus) Label() string {
	if l, ok := vendorStatusLabels[s]; ok {
		return l
	}
	return string(s)
}

func ValidateVendorTransition(from, to VendorStatus) error {
	if from.Terminal() || to == VendorStatusPending || !to.Valid() {
		return &TransitionError{Entity: "vendor", From: string(from.Normalize()), To: string(to)}
	}
	return nil
}

// VendorFilterAll disables the status predicate when listing vendors.
const VendorFilterAll = "all"

// ParseVendorFilter returns the status to filter on, or "" for all.
func ParseVendorFilter(s string) (VendorStatus, error) {
	if s == "" || s == VendorFilterAll {
		return "", nil
	}
	st := VendorStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
	return st, nil
}

type Vendor struct {
	ID                     string            `bson:"_id"`
	UserID                 string            `bson:"userId,omitempty"`
	Name                   string            `bson:"name"`
	Email                  string            `bson:"email"`
	PhoneNumber            string            `bson:"phoneNumber"`
	Address                string            `bson:"address"`
	Status                 VendorStatus      `bson:"status"`
	CertificationDocuments map[string]string `bson:"certificationDocuments,omitempty"`
	ApprovedAt             *time.Time        `bson:"approvedAt,omitempty"`
	ApprovedBy             string            `bson:"approvedBy,omitempty"`
	RejectedAt             *time.Time        `bson:"rejectedAt,omitempty"`
	RejectedBy             string            `bson:"rejectedBy,omitempty"`
	RejectionReason        string            `bson:"rejectionReason,omitempty"`
	CreatedAt              time.Time         `bson:"createdAt"`
	UpdatedAt              time.Time         `bson:"updatedAt"`
}

type NamedLink struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Documents returns the certification documents sorted by name.
func (v *Vendor) Documents() []NamedLink {
	links := make([]NamedLink, 0, len(v.CertificationDocuments))
	for name, url := range v.CertificationDocuments {
		links = append(links, NamedLink{Name: name, URL: url})
	}
	sort.Slice(links, func(i, j int) bool { return links[i].Name < links[j].Name })
	return links
}
