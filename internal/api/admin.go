package api

import (
	"context"
	"fmt"
	"net/http"
)

// AdminDashboard returns the admin summary
func (c *Client) AdminDashboard(ctx context.Context) (Dashboard, error) {
	var d Dashboard
	if err := c.get(ctx, "/admin/dashboard", &d); err != nil {
		return nil, err
	}
	return d, nil
}

// AdminParkingLots lists every lot with occupancy counters
func (c *Client) AdminParkingLots(ctx context.Context) ([]ParkingLot, error) {
	var lots []ParkingLot
	if err := c.getList(ctx, "/admin/parking-lots", "lots", &lots); err != nil {
		return nil, err
	}
	return lots, nil
}

// AdminUsers lists every registered account
func (c *Client) AdminUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.getList(ctx, "/admin/users", "users", &users); err != nil {
		return nil, err
	}
	return users, nil
}

// AdminAnalytics returns spot, revenue and utilization figures
func (c *Client) AdminAnalytics(ctx context.Context) (*Analytics, error) {
	var a Analytics
	if err := c.get(ctx, "/admin/analytics", &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateParkingLot adds a lot. The backend creates its spots.
func (c *Client) CreateParkingLot(ctx context.Context, in LotInput) (*ParkingLot, error) {
	var lot ParkingLot
	if err := c.send(ctx, http.MethodPost, "/admin/parking-lots", in, &lot); err != nil {
		return nil, err
	}
	return &lot, nil
}

// UpdateParkingLot changes the fields set in in
func (c *Client) UpdateParkingLot(ctx context.Context, id int64, in LotInput) (*ParkingLot, error) {
	var lot ParkingLot
	if err := c.send(ctx, http.MethodPut, fmt.Sprintf("/admin/parking-lots/%d", id), in, &lot); err != nil {
		return nil, err
	}
	return &lot, nil
}

// DeleteParkingLot removes a lot. The backend refuses while spots are occupied.
func (c *Client) DeleteParkingLot(ctx context.Context, id int64) error {
	_, err := c.Delete(ctx, fmt.Sprintf("/admin/parking-lots/%d", id))
	return err
}
