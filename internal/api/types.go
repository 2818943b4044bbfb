package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Roles known to the backend
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Spot status codes
const (
	SpotAvailable = "A"
	SpotOccupied  = "O"
)

// User is the account record returned by the auth endpoints
type User struct {
	ID          int64      `json:"id" yaml:"id"`
	Username    string     `json:"username" yaml:"username"`
	Email       string     `json:"email,omitempty" yaml:"email,omitempty"`
	PhoneNumber string     `json:"phone_number,omitempty" yaml:"phone_number,omitempty"`
	Role        string     `json:"role" yaml:"role"`
	IsActive    bool       `json:"is_active" yaml:"is_active"`
	CreatedAt   *Timestamp `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	LastLogin   *Timestamp `json:"last_login,omitempty" yaml:"last_login,omitempty"`
}

// IsAdmin reports whether the user has the admin role
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Credentials is the login request body
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Registration is the register request body
type Registration struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

// AuthResponse is returned by login, admin-login and register
type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// ParkingLot is a lot with its pricing and occupancy
type ParkingLot struct {
	ID             int64         `json:"id" yaml:"id"`
	Name           string        `json:"name" yaml:"name"`
	Price          Money         `json:"price" yaml:"price"`
	Address        string        `json:"address" yaml:"address"`
	PinCode        string        `json:"pin_code" yaml:"pin_code"`
	NumberOfSpots  int           `json:"number_of_spots" yaml:"number_of_spots"`
	Description    string        `json:"description,omitempty" yaml:"description,omitempty"`
	Latitude       *float64      `json:"latitude,omitempty" yaml:"latitude,omitempty"`
	Longitude      *float64      `json:"longitude,omitempty" yaml:"longitude,omitempty"`
	IsActive       bool          `json:"is_active" yaml:"is_active"`
	AvailableSpots int           `json:"available_spots" yaml:"available_spots"`
	OccupiedSpots  int           `json:"occupied_spots" yaml:"occupied_spots"`
	Spots          []ParkingSpot `json:"spots,omitempty" yaml:"spots,omitempty"`
	CreatedAt      *Timestamp    `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt      *Timestamp    `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// UnmarshalJSON accepts both the current lot shape and the older one
// that used prime_location_name, price_per_hour and parking_spots.
func (l *ParkingLot) UnmarshalJSON(data []byte) error {
	type lotAlias ParkingLot
	aux := struct {
		*lotAlias
		PrimeLocationName string        `json:"prime_location_name"`
		PricePerHour      *Money        `json:"price_per_hour"`
		ParkingSpots      []ParkingSpot `json:"parking_spots"`
	}{lotAlias: (*lotAlias)(l)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if l.Name == "" {
		l.Name = aux.PrimeLocationName
	}
	if l.Price == 0 && aux.PricePerHour != nil {
		l.Price = *aux.PricePerHour
	}
	if len(l.Spots) == 0 {
		l.Spots = aux.ParkingSpots
	}
	return nil
}

// HasAvailableSpot reports whether the lot has at least one spot with
// status A. Listings often omit the spots array, so a lot without spot
// detail counts as available when its AvailableSpots counter is
// positive; with spot detail present only the statuses decide.
func (l ParkingLot) HasAvailableSpot() bool {
	if len(l.Spots) == 0 {
		return l.AvailableSpots > 0
	}
	for _, s := range l.Spots {
		if s.Status == SpotAvailable {
			return true
		}
	}
	return false
}

// ParkingSpot is a single spot inside a lot
type ParkingSpot struct {
	ID         int64  `json:"id" yaml:"id"`
	SpotNumber string `json:"spot_number,omitempty" yaml:"spot_number,omitempty"`
	LotID      int64  `json:"lot_id" yaml:"lot_id"`
	Status     string `json:"status" yaml:"status"`
	IsActive   bool   `json:"is_active" yaml:"is_active"`
}

// Reservation is a booking of a spot by a user
type Reservation struct {
	ID               int64      `json:"id" yaml:"id"`
	SpotID           int64      `json:"spot_id" yaml:"spot_id"`
	UserID           int64      `json:"user_id" yaml:"user_id"`
	LotID            int64      `json:"lot_id,omitempty" yaml:"lot_id,omitempty"`
	LotName          string     `json:"lot_name,omitempty" yaml:"lot_name,omitempty"`
	SpotNumber       string     `json:"spot_number,omitempty" yaml:"spot_number,omitempty"`
	VehicleNumber    string     `json:"vehicle_number,omitempty" yaml:"vehicle_number,omitempty"`
	ParkingTimestamp *Timestamp `json:"parking_timestamp,omitempty" yaml:"parking_timestamp,omitempty"`
	LeavingTimestamp *Timestamp `json:"leaving_timestamp,omitempty" yaml:"leaving_timestamp,omitempty"`
	ParkingCost      Money      `json:"parking_cost" yaml:"parking_cost"`
}

// Active reports whether the vehicle is still parked
func (r Reservation) Active() bool {
	return r.LeavingTimestamp == nil
}

// ReservationRequest is the body for creating a reservation
type ReservationRequest struct {
	LotID         int64  `json:"lot_id,omitempty"`
	SpotID        int64  `json:"spot_id,omitempty"`
	VehicleNumber string `json:"vehicle_number,omitempty"`
}

// LotInput is the body for creating or updating a lot. Nil and empty
// fields are omitted, so an update only touches what is set.
type LotInput struct {
	Name          string   `json:"prime_location_name,omitempty"`
	Price         *float64 `json:"price,omitempty"`
	Address       string   `json:"address,omitempty"`
	PinCode       string   `json:"pin_code,omitempty"`
	NumberOfSpots *int     `json:"number_of_spots,omitempty"`
	Description   string   `json:"description,omitempty"`
}

// ValidateCreate checks the fields the backend requires for a new lot
func (in LotInput) ValidateCreate() error {
	var missing []string
	if strings.TrimSpace(in.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(in.Address) == "" {
		missing = append(missing, "address")
	}
	if strings.TrimSpace(in.PinCode) == "" {
		missing = append(missing, "pin code")
	}
	if in.Price == nil {
		missing = append(missing, "price")
	}
	if in.NumberOfSpots == nil {
		missing = append(missing, "number of spots")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	return in.validateValues()
}

// ValidateUpdate checks only the fields that are set
func (in LotInput) ValidateUpdate() error {
	if in == (LotInput{}) {
		return fmt.Errorf("nothing to update")
	}
	return in.validateValues()
}

func (in LotInput) validateValues() error {
	if in.Price != nil && (*in.Price <= 0 || math.IsNaN(*in.Price)) {
		return fmt.Errorf("price must be positive")
	}
	if in.NumberOfSpots != nil && *in.NumberOfSpots < 0 {
		return fmt.Errorf("number of spots cannot be negative")
	}
	return nil
}

// Dashboard is the free-form summary returned by the dashboard endpoints
type Dashboard map[string]interface{}

// Message returns the greeting the backend puts in the dashboard, if any
func (d Dashboard) Message() string {
	if s, ok := d["message"].(string); ok {
		return s
	}
	return ""
}

// SpotCounts tallies spots by status
type SpotCounts struct {
	Available int `json:"available" yaml:"available"`
	Occupied  int `json:"occupied" yaml:"occupied"`
	Reserved  int `json:"reserved" yaml:"reserved"`
}

// RevenueSeries pairs period labels with the revenue booked in each
type RevenueSeries struct {
	Labels  []string `json:"labels" yaml:"labels"`
	Amounts []Money  `json:"amounts" yaml:"amounts"`
}

// Analytics is the admin reporting payload. The backend labels the two
// revenue series "dates" and "weeks"; both decode into Labels.
type Analytics struct {
	ParkingStatus  SpotCounts     `json:"parking_status" yaml:"parking_status"`
	DailyRevenue   RevenueSeries  `json:"daily_revenue" yaml:"daily_revenue"`
	WeeklyRevenue  RevenueSeries  `json:"weekly_revenue" yaml:"weekly_revenue"`
	LotUtilization LotUtilization `json:"lot_utilization" yaml:"lot_utilization"`
	PeakHours      PeakHours      `json:"peak_hours" yaml:"peak_hours"`
	Summary        AnalyticsTotal `json:"summary_stats" yaml:"summary_stats"`
}

// UnmarshalJSON implements json.Unmarshaler
func (a *Analytics) UnmarshalJSON(data []byte) error {
	type analyticsAlias Analytics
	aux := struct {
		*analyticsAlias
		Daily *struct {
			Dates   []string `json:"dates"`
			Labels  []string `json:"labels"`
			Amounts []Money  `json:"amounts"`
		} `json:"daily_revenue"`
		Weekly *struct {
			Weeks   []string `json:"weeks"`
			Labels  []string `json:"labels"`
			Amounts []Money  `json:"amounts"`
		} `json:"weekly_revenue"`
	}{analyticsAlias: (*analyticsAlias)(a)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if d := aux.Daily; d != nil {
		a.DailyRevenue = RevenueSeries{Labels: firstNonEmpty(d.Labels, d.Dates), Amounts: d.Amounts}
	}
	if w := aux.Weekly; w != nil {
		a.WeeklyRevenue = RevenueSeries{Labels: firstNonEmpty(w.Labels, w.Weeks), Amounts: w.Amounts}
	}
	return nil
}

func firstNonEmpty(a, b []string) []string {
	if len(a) > 0 {
		return a
	}
	return b
}

// LotUtilization is the occupancy percentage per lot
type LotUtilization struct {
	LotNames []string  `json:"lot_names" yaml:"lot_names"`
	Rates    []float64 `json:"utilization_rates" yaml:"utilization_rates"`
}

// PeakHours is the number of parked vehicles per hour of the day
type PeakHours struct {
	Hours     []string `json:"hours" yaml:"hours"`
	Occupancy []int    `json:"occupancy" yaml:"occupancy"`
}

// AnalyticsTotal holds the all-time figures of the analytics payload
type AnalyticsTotal struct {
	CompletedReservations int     `json:"total_completed_reservations" yaml:"total_completed_reservations"`
	Revenue               Money   `json:"total_revenue" yaml:"total_revenue"`
	AverageDurationHours  float64 `json:"average_parking_duration" yaml:"average_parking_duration"`
}

// PublicStats are the anonymous service figures shown on the home page
type PublicStats struct {
	TotalLots         int     `json:"total_parking_lots" yaml:"total_parking_lots"`
	TotalSpots        int     `json:"total_parking_spots" yaml:"total_parking_spots"`
	AvailableSpots    int     `json:"available_spots" yaml:"available_spots"`
	UtilizationRate   float64 `json:"utilization_rate" yaml:"utilization_rate"`
	TotalReservations int     `json:"total_reservations" yaml:"total_reservations"`
}

// Money is an amount that the backend sends either as a JSON number or
// as a numeric string (Numeric columns serialize that way).
type Money float64

// UnmarshalJSON implements json.Unmarshaler
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*m = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if strings.TrimSpace(s) == "" {
			*m = 0
			return nil
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return fmt.Errorf("invalid money value %q: %w", s, err)
		}
		*m = Money(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*m = Money(f)
	return nil
}

// Timestamp parses the ISO-8601 forms the backend emits, which may lack
// a zone offset (Python isoformat of naive UTC datetimes).
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC1123,
}

// UnmarshalJSON implements json.Unmarshaler
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", s)
}

// MarshalJSON implements json.Marshaler
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time.Format(time.RFC3339))
}

// MarshalYAML implements yaml.Marshaler
func (t Timestamp) MarshalYAML() (interface{}, error) {
	return t.Time.Format(time.RFC3339), nil
}
