package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/phpdave11/gofpdf"

	"travelbackend/internal/domain"
	"travelbackend/internal/domain/models"
	"travelbackend/internal/repositories"
	"travelbackend/internal/utils"
)

// DocsService renders the PDF voucher for a confirmed booking.
type DocsService struct {
	Store     repositories.Store
	RequestID string
	Loader    func(ctx context.Context, bookingID, userID int64) (voucherData, error)
}

type voucherData struct {
	BookingID   int64
	Kind        models.VendorKind
	Reference   string
	PaymentID   string
	Amount      int64
	Currency    string
	Travellers  []string
	Details     []string
	ConfirmedAt string
}

func (s DocsService) GenerateVoucher(ctx context.Context, bookingID, userID int64) ([]byte, string, error) {
	load := s.Loader
	if load == nil {
		load = s.loadVoucherData
	}
	data, err := load(ctx, bookingID, userID)
	if err != nil {
		return nil, "", err
	}
	utils.LogEvent(s.RequestID, "docs", "generate_voucher", "voucher rendered", "booking_id", bookingID)
	return buildVoucherPDF(data)
}

func (s DocsService) loadVoucherData(ctx context.Context, bookingID, userID int64) (voucherData, error) {
	b, err := BookingService{Store: s.Store, RequestID: s.RequestID}.ownedBooking(ctx, bookingID, userID)
	if err != nil {
		return voucherData{}, err
	}
	if b.Status != models.StatusConfirmed {
		return voucherData{}, domain.InvalidStateError{Resource: "booking", State: string(b.Status), Msg: "voucher is only available for confirmed bookings"}
	}
	return voucherFromBooking(b), nil
}

func voucherFromBooking(b models.Booking) voucherData {
	d := voucherData{
		BookingID:   b.ID,
		Kind:        b.Kind,
		Reference:   b.VendorReference,
		PaymentID:   b.GatewayPayID,
		Amount:      b.Amount,
		Currency:    b.Currency,
		ConfirmedAt: b.UpdatedAt.Format("2006-01-02 15:04 MST"),
	}
	p := b.VendorRequest
	switch {
	case p.Hotel != nil:
		d.Travellers = travellerNames(p.Hotel.Guests)
		d.Details = []string{
			"Hotel    : " + safe(p.Hotel.HotelID, "-"),
			"Check-in : " + safe(p.Hotel.CheckIn, "-"),
			"Check-out: " + safe(p.Hotel.CheckOut, "-"),
		}
	case p.Flight != nil:
		d.Travellers = travellerNames(p.Flight.Passengers)
		d.Details = []string{"Transaction: " + safe(p.Flight.TransactionID, "-")}
	case p.Bus != nil:
		d.Travellers = travellerNames(p.Bus.Passengers)
		d.Details = []string{
			"Service: " + safe(p.Bus.ServiceID, "-"),
			"Seats  : " + safe(strings.Join(p.Bus.SeatNumbers, ", "), "-"),
		}
	}
	return d
}

func travellerNames(ts []models.Traveller) []string {
	out := make([]string, 0, len(ts))
	for _, t := range ts {
		name := strings.TrimSpace(strings.Join([]string{t.Title, t.FirstName, t.LastName}, " "))
		out = append(out, safe(name, "-"))
	}
	return out
}

func buildVoucherPDF(d voucherData) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Booking Voucher", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, strings.ToUpper(string(d.Kind))+" VOUCHER")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Booking       : #%d", d.BookingID),
		fmt.Sprintf("Confirmation  : %s", safe(d.Reference, "pending")),
		fmt.Sprintf("Payment       : %s", safe(d.PaymentID, "-")),
		fmt.Sprintf("Amount paid   : %s", utils.FormatMinor(d.Amount, d.Currency)),
		fmt.Sprintf("Confirmed at  : %s", safe(d.ConfirmedAt, "-")),
	}
	for _, s := range lines {
		pdf.Cell(0, 7, s)
		pdf.Ln(7)
	}

	if len(d.Details) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 7, "Itinerary")
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 11)
		for _, s := range d.Details {
			pdf.Cell(0, 6, s)
			pdf.Ln(6)
		}
	}

	if len(d.Travellers) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 7, "Travellers")
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 11)
		for i, name := range d.Travellers {
			pdf.Cell(0, 6, fmt.Sprintf("%d) %s", i+1, name))
			pdf.Ln(6)
		}
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Present this voucher together with a valid photo ID at check-in or boarding.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("VOUCHER_%d_%s.pdf", d.BookingID, safeFilenamePart(d.Reference))
	return buf.Bytes(), filename, nil
}

func safe(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}

func safeFilenamePart(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "NA"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_")
	s = replacer.Replace(s)
	if len(s) > 40 {
		s = s[:40]
	}
	return s
}
