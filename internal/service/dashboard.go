package service

import (
	"context"

	"github.com/flicky/agri-backoffice/internal/dto"
	"github.com/flicky/agri-backoffice/internal/repository"
)

const (
	dashboardRecentOrders   = 5
	dashboardPendingVendors = 5
)

type DashboardService struct {
	users    repository.UserRepository
	vendors  repository.VendorRepository
	orders   repository.OrderRepository
	products repository.ProductRepository
}

func NewDashboardService(
	users repository.UserRepository,
	vendors repository.VendorRepository,
	orders repository.OrderRepository,
	products repository.ProductRepository,
) *DashboardService {
	return &DashboardService{users: users, vendors: vendors, orders: orders, products: products}
}

func (s *DashboardService) Summary(ctx context.Context) (*dto.DashboardResponse, error) {
	var (
		resp dto.DashboardResponse
		err  error
	)
	if resp.Users, err = s.users.Count(ctx); err != nil {
		return nil, err
	}
	if resp.Vendors, err = s.vendors.Count(ctx); err != nil {
		return nil, err
	}
	if resp.Orders, err = s.orders.Count(ctx); err != nil {
		return nil, err
	}
	if resp.Products, err = s.products.Count(ctx); err != nil {
		return nil, err
	}

	recent, err := s.orders.Recent(ctx, dashboardRecentOrders)
	if err != nil {
		return nil, err
	}
	resp.RecentOrders = toOrderResponses(recent)

	pending, err := s.vendors.ListPending(ctx, dashboardPendingVendors)
	if err != nil {
		return nil, err
	}
	resp.PendingVendors = make([]dto.VendorResponse, 0, len(pending))
	for i := range pending {
		resp.PendingVendors = append(resp.PendingVendors, toVendorResponse(&pending[i], false))
	}
	return &resp, nil
}
