package query

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/servicehub/marketplace/internal/repository"
	"github.com/servicehub/marketplace/shared/cqrs"
	"github.com/servicehub/marketplace/shared/models"
	"github.com/servicehub/marketplace/shared/utils"
)

// ReceiptQueryService renders a one-page PDF receipt for a ledger row.
type ReceiptQueryService struct {
	transactions *TransactionQueryService
	bookings     *repository.BookingRepository
	serviceReads *repository.ServiceReadRepository
}

func NewReceiptQueryService(
	transactions *TransactionQueryService,
	bookings *repository.BookingRepository,
	serviceReads *repository.ServiceReadRepository,
) *ReceiptQueryService {
	return &ReceiptQueryService{transactions: transactions, bookings: bookings, serviceReads: serviceReads}
}

func (s *ReceiptQueryService) Receipt(ctx context.Context, q cqrs.GetTransactionQuery) (*models.Receipt, error) {
	transaction, err := s.transactions.GetTransaction(ctx, q)
	if err != nil {
		return nil, err
	}
	booking, err := s.bookings.GetByID(ctx, transaction.BookingID)
	if err != nil {
		return nil, err
	}
	service, err := s.serviceReads.GetByID(ctx, transaction.ServiceID)
	if err != nil {
		return nil, err
	}

	content, err := renderReceipt(transaction, booking, service)
	if err != nil {
		return nil, fmt.Errorf("failed to render receipt: %w", err)
	}
	return &models.Receipt{
		Filename: fmt.Sprintf("receipt-%s.pdf", transaction.ID),
		Content:  content,
	}, nil
}

func renderReceipt(t *models.Transaction, b *models.Booking, svc *models.ServiceView) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()
	pdf.SetAutoPageBreak(false, 0)

	pdf.SetFont("Helvetica", "B", 20)
	pdf.Cell(0, 12, "PAYMENT RECEIPT")
	pdf.Ln(16)

	pdf.SetDrawColor(220, 220, 220)
	pdf.Line(15, pdf.GetY(), 195, pdf.GetY())
	pdf.Ln(6)

	section(pdf, "TRANSACTION")
	line(pdf, "Transaction ID", t.ID)
	line(pdf, "Status", strings.ToUpper(string(t.Status)))
	line(pdf, "Amount", utils.FormatMinorUnits(t.Amount)+" "+strings.ToUpper(t.Currency))
	line(pdf, "Date", t.CreatedAt.UTC().Format("2006-01-02 15:04 MST"))
	if t.ChargeID != "" {
		line(pdf, "Charge reference", t.ChargeID)
	}
	if t.FailureReason != "" {
		pdf.MultiCell(0, 7, "Reason: "+t.FailureReason, "", "", false)
	}
	pdf.Ln(4)

	section(pdf, "BOOKING")
	line(pdf, "Booking ID", b.ID)
	line(pdf, "Service", svc.Name)
	if svc.CategoryName != "" {
		line(pdf, "Category", svc.CategoryName)
	}
	line(pdf, "Scheduled", b.Date+" "+b.Time)
	if b.Recurrence != "" {
		line(pdf, "Repeats", b.Recurrence)
	}

	pdf.SetDrawColor(200, 200, 200)
	pdf.Line(15, 285, 195, 285)
	pdf.SetY(288)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.CellFormat(0, 6, "Keep this receipt for your records.", "", 0, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func section(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 13)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(0, 9, title, "", 1, "L", true, 0, "")
	pdf.Ln(2)
	pdf.SetFont("Helvetica", "", 11)
}

func line(pdf *gofpdf.Fpdf, label, value string) {
	pdf.Cell(0, 7, fmt.Sprintf("%s: %s", label, value))
	pdf.Ln(6)
}
