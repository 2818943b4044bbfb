package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// ParkingLots lists lots on the public endpoint
func (c *Client) ParkingLots(ctx context.Context) ([]ParkingLot, error) {
	var lots []ParkingLot
	if err := c.getList(ctx, "/parking/lots", "lots", &lots); err != nil {
		return nil, err
	}
	return lots, nil
}

// LotSpots lists the spots of one lot
func (c *Client) LotSpots(ctx context.Context, lotID int64) ([]ParkingSpot, error) {
	var spots []ParkingSpot
	if err := c.getList(ctx, fmt.Sprintf("/parking/spots/%d", lotID), "spots", &spots); err != nil {
		return nil, err
	}
	return spots, nil
}

// Reservations lists the signed-in user's reservations
func (c *Client) Reservations(ctx context.Context) ([]Reservation, error) {
	var out []Reservation
	if err := c.getList(ctx, "/user/reservations", "reservations", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateReservation books a spot
func (c *Client) CreateReservation(ctx context.Context, req ReservationRequest) (*Reservation, error) {
	var out Reservation
	if err := c.send(ctx, http.MethodPost, "/user/reservations", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// LegacyParkingLots lists lots on the pre-v1 endpoint
func (c *Client) LegacyParkingLots(ctx context.Context) ([]ParkingLot, error) {
	var lots []ParkingLot
	if err := c.getList(ctx, "/parking-lots", "lots", &lots); err != nil {
		return nil, err
	}
	return lots, nil
}

// ReserveSpot books a specific spot on the legacy endpoint
func (c *Client) ReserveSpot(ctx context.Context, spotID int64) (*Reservation, error) {
	var out Reservation
	body := map[string]int64{"spot_id": spotID}
	if err := c.send(ctx, http.MethodPost, "/user/reserve", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ReleaseSpot ends a reservation on the legacy endpoint
func (c *Client) ReleaseSpot(ctx context.Context, reservationID int64) error {
	return c.send(ctx, http.MethodPost, fmt.Sprintf("/user/release/%d", reservationID), nil, nil)
}

// PublicStats returns the anonymous service figures. No token is needed.
func (c *Client) PublicStats(ctx context.Context) (*PublicStats, error) {
	var st PublicStats
	if err := c.get(ctx, "/public/stats", &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// getList decodes either a bare JSON array or an object that wraps the
// array under key (or under "data").
func (c *Client) getList(ctx context.Context, path, key string, target interface{}) error {
	resp, err := c.Get(ctx, path)
	if err != nil {
		return err
	}

	data := bytes.TrimSpace(resp.Data)
	if len(data) > 0 && data[0] == '{' {
		var wrapped map[string]json.RawMessage
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return resp.Decode(target)
		}
		inner, ok := wrapped[key]
		if !ok {
			inner, ok = wrapped["data"]
		}
		if !ok {
			return &APIError{
				Kind:      KindDecode,
				Status:    resp.Status,
				Method:    http.MethodGet,
				Path:      path,
				RequestID: resp.RequestID,
				Message:   fmt.Sprintf("response has no %q list", key),
			}
		}
		resp = &Response{Status: resp.Status, Data: inner, RequestID: resp.RequestID}
	}
	return resp.Decode(target)
}
