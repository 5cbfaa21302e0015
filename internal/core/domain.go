package core

import (
	"errors"
)

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationCancelled ReservationStatus = "cancelled"
)

const (
	ReservationAccommodation ReservationType = "accommodation"
	ReservationTransport     ReservationType = "transport"
	ReservationActivity      ReservationType = "activity"
	ReservationRestaurant    ReservationType = "restaurant"
	ReservationOther         ReservationType = "other"
)

type (
	ReservationStatus string
	ReservationType   string

	// Record is implemented by every cached entity. Ids mirror spreadsheet
	// row positions, so they are dense and 1-based within a collection.
	Record[E any] interface {
		Identity() int
		WithID(id int) E
	}

	Budget struct {
		ID          int     `json:"id"`
		Origin      string  `json:"origin"`
		Description string  `json:"description"`
		Amount      float64 `json:"amount"`
		Date        Date    `json:"date"`
	}

	Expense struct {
		ID           int     `json:"id"`
		Description  string  `json:"description"`
		Amount       float64 `json:"amount"`
		Currency     string  `json:"currency"`
		AmountInBRL  float64 `json:"amountInBRL"`
		Category     string  `json:"category"`
		BudgetOrigin string  `json:"budgetOrigin"`
		Date         Date    `json:"date"`
		Country      string  `json:"country,omitempty"`
		Notes        string  `json:"notes,omitempty"`
		ReceiptURL   string  `json:"receiptUrl,omitempty"`
	}

	Attraction struct {
		ID                int               `json:"id"`
		Name              string            `json:"name"`
		Country           string            `json:"country"`
		City              string            `json:"city"`
		Region            string            `json:"region,omitempty"`
		Day               int               `json:"day"`
		Date              Date              `json:"date"`
		Order             int               `json:"order"`
		Type              string            `json:"type"`
		Visited           bool              `json:"visited"`
		NeedsReservation  bool              `json:"needsReservation"`
		ReservationStatus ReservationStatus `json:"reservationStatus,omitempty"`
		CouplePrice       float64           `json:"couplePrice"`
		Currency          string            `json:"currency"`
		PriceInBRL        float64           `json:"priceInBRL"`
		Lat               *float64          `json:"lat,omitempty"`
		Lng               *float64          `json:"lng,omitempty"`
		Duration          int               `json:"duration,omitempty"` // minutes
		Notes             string            `json:"notes,omitempty"`
		ImageURL          string            `json:"imageUrl,omitempty"`
	}

	ChecklistItem struct {
		ID          int    `json:"id"`
		Description string `json:"description"`
		Category    string `json:"category"`
		IsPacked    bool   `json:"isPacked"`
		Quantity    int    `json:"quantity,omitempty"`
		Notes       string `json:"notes,omitempty"`
	}

	Reservation struct {
		ID               int               `json:"id"`
		Type             ReservationType   `json:"type"`
		Title            string            `json:"title"`
		Description      string            `json:"description,omitempty"`
		Status           ReservationStatus `json:"status"`
		Date             Date              `json:"date"`
		EndDate          Date              `json:"endDate"`
		Provider         string            `json:"provider,omitempty"`
		ConfirmationCode string            `json:"confirmationCode,omitempty"`
		Amount           float64           `json:"amount,omitempty"`
		Currency         string            `json:"currency,omitempty"`
		Country          string            `json:"country,omitempty"`
		Notes            string            `json:"notes,omitempty"`
	}
)

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidDate      = errors.New("invalid date")
	ErrEmptyDescription = errors.New("empty description")
	ErrUnknownOrigin    = errors.New("unknown budget origin")
)

func (b Budget) Identity() int { return b.ID }

func (b Budget) WithID(id int) Budget {
	b.ID = id
	return b
}

func (e Expense) Identity() int { return e.ID }

func (e Expense) WithID(id int) Expense {
	e.ID = id
	return e
}

func (a Attraction) Identity() int { return a.ID }

func (a Attraction) WithID(id int) Attraction {
	a.ID = id
	return a
}

func (c ChecklistItem) Identity() int { return c.ID }

func (c ChecklistItem) WithID(id int) ChecklistItem {
	c.ID = id
	return c
}

func (r Reservation) Identity() int { return r.ID }

func (r Reservation) WithID(id int) Reservation {
	r.ID = id
	return r
}

// IsValid reports whether s is one of the known reservation states.
func (s ReservationStatus) IsValid() bool {
	switch s {
	case ReservationPending, ReservationConfirmed, ReservationCancelled:
		return true
	default:
		return false
	}
}

func (t ReservationType) IsValid() bool {
	switch t {
	case ReservationAccommodation, ReservationTransport, ReservationActivity, ReservationRestaurant, ReservationOther:
		return true
	default:
		return false
	}
}

// PendingReservation reports whether the attraction still needs a booking.
// Anything other than a confirmed status counts as pending.
func (a Attraction) PendingReservation() bool {
	return a.NeedsReservation && a.ReservationStatus != ReservationConfirmed
}
