package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// VendorKind names the vendor integration a booking is confirmed against.
type VendorKind string

const (
	KindHotel  VendorKind = "HOTEL"
	KindFlight VendorKind = "FLIGHT"
	KindBus    VendorKind = "BUS"
)

func ParseVendorKind(s string) (VendorKind, bool) {
	k := VendorKind(strings.ToUpper(strings.TrimSpace(s)))
	switch k {
	case KindHotel, KindFlight, KindBus:
		return k, true
	}
	return "", false
}

type Traveller struct {
	Title     string `json:"title,omitempty"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Age       int    `json:"age,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

type HotelRequest struct {
	TraceID       string      `json:"traceId"`
	HotelID       string      `json:"hotelId"`
	RoomKey       string      `json:"roomKey"`
	CheckIn       string      `json:"checkIn"`
	CheckOut      string      `json:"checkOut"`
	TransactionID string      `json:"transactionId,omitempty"`
	Guests        []Traveller `json:"guests"`
}

type FlightRequest struct {
	TraceID       string      `json:"traceId"`
	TransactionID string      `json:"transactionId"`
	FareKey       string      `json:"fareKey"`
	Passengers    []Traveller `json:"passengers"`
}

type BusRequest struct {
	TraceID       string      `json:"traceId"`
	ServiceID     string      `json:"serviceId"`
	SeatNumbers   []string    `json:"seatNumbers"`
	TransactionID string      `json:"transactionId,omitempty"`
	Passengers    []Traveller `json:"passengers"`
}

// VendorPayload is the document sent to the vendor on confirmation. Exactly one
// typed variant is set for a known kind; Raw keeps the original bytes so the
// vendor receives fields this service does not model.
type VendorPayload struct {
	Kind   VendorKind
	Hotel  *HotelRequest
	Flight *FlightRequest
	Bus    *BusRequest
	Raw    json.RawMessage
}

// ParseVendorPayload decodes raw into the variant for kind and validates it.
func ParseVendorPayload(kind VendorKind, raw json.RawMessage) (VendorPayload, error) {
	p, err := DecodeVendorPayload(kind, raw)
	if err != nil {
		return VendorPayload{}, err
	}
	return p, p.validate()
}

// DecodeVendorPayload decodes without validation; used when reading stored rows.
func DecodeVendorPayload(kind VendorKind, raw json.RawMessage) (VendorPayload, error) {
	p := VendorPayload{Kind: kind, Raw: raw}
	if len(raw) == 0 {
		return p, nil
	}
	var target any
	switch kind {
	case KindHotel:
		p.Hotel = &HotelRequest{}
		target = p.Hotel
	case KindFlight:
		p.Flight = &FlightRequest{}
		target = p.Flight
	case KindBus:
		p.Bus = &BusRequest{}
		target = p.Bus
	default:
		return p, fmt.Errorf("unknown vendor kind %q", kind)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return VendorPayload{}, fmt.Errorf("decode %s payload: %w", strings.ToLower(string(kind)), err)
	}
	return p, nil
}

func (p VendorPayload) validate() error {
	switch p.Kind {
	case KindHotel:
		if p.Hotel == nil || p.Hotel.HotelID == "" || p.Hotel.RoomKey == "" {
			return fmt.Errorf("hotel payload requires hotelId and roomKey")
		}
		if len(p.Hotel.Guests) == 0 {
			return fmt.Errorf("hotel payload requires at least one guest")
		}
	case KindFlight:
		if p.Flight == nil || p.Flight.TransactionID == "" {
			return fmt.Errorf("flight payload requires transactionId")
		}
		if len(p.Flight.Passengers) == 0 {
			return fmt.Errorf("flight payload requires at least one passenger")
		}
	case KindBus:
		if p.Bus == nil || p.Bus.ServiceID == "" || len(p.Bus.SeatNumbers) == 0 {
			return fmt.Errorf("bus payload requires serviceId and seatNumbers")
		}
	default:
		return fmt.Errorf("unknown vendor kind %q", p.Kind)
	}
	return nil
}

// TransactionRef is the vendor-side reference used to poll booking status.
func (p VendorPayload) TransactionRef() string {
	switch {
	case p.Flight != nil:
		return strings.TrimSpace(p.Flight.TransactionID)
	case p.Hotel != nil:
		return strings.TrimSpace(p.Hotel.TransactionID)
	case p.Bus != nil:
		return strings.TrimSpace(p.Bus.TransactionID)
	}
	return ""
}

// Body returns the bytes forwarded to the vendor.
func (p VendorPayload) Body() ([]byte, error) {
	if len(p.Raw) > 0 {
		return p.Raw, nil
	}
	switch {
	case p.Hotel != nil:
		return json.Marshal(p.Hotel)
	case p.Flight != nil:
		return json.Marshal(p.Flight)
	case p.Bus != nil:
		return json.Marshal(p.Bus)
	}
	return nil, fmt.Errorf("empty vendor payload")
}
