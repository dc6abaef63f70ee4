package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"opsboard-services/internal/auth"
	"opsboard-services/internal/domain"
	"opsboard-services/internal/mailer"
	"opsboard-services/internal/reports"
	"opsboard-services/internal/store"

	"go.uber.org/zap"
)

const pdfContentType = "application/pdf"

// ReportArchive keeps rendered reports somewhere a recipient can download
// them from.
type ReportArchive interface {
	ArchiveReport(ctx context.Context, filename string, body []byte, contentType string) (string, error)
	DeleteURL(ctx context.Context, raw string) error
}

type Mailer interface {
	Send(ctx context.Context, msg mailer.Message) (string, error)
}

type SalesReport struct {
	Summary SalesSummary  `json:"summary"`
	Sales   []domain.Sale `json:"sales"`
}

type ShareReportInput struct {
	To      string     `json:"to"`
	Subject string     `json:"subject"`
	From    *time.Time `json:"from"`
	ToDate  *time.Time `json:"toDate"`
}

type ShareReportResult struct {
	URL       string `json:"url"`
	MessageID string `json:"messageId"`
	Filename  string `json:"filename"`
}

func (s *Service) validateReportRange(from, to *time.Time) error {
	if from != nil && to != nil {
		if to.Before(*from) {
			return domain.ValidationError("Invalid date range", map[string]any{"from": from, "to": to})
		}
		if s.ReportMaxRangeDays > 0 && to.Sub(*from) > time.Duration(s.ReportMaxRangeDays)*24*time.Hour {
			return domain.ValidationError("Date range is too long", map[string]any{"maxDays": s.ReportMaxRangeDays})
		}
	}
	return nil
}

func (s *Service) SalesReport(ctx context.Context, from, to *time.Time) (SalesReport, error) {
	if err := s.validateReportRange(from, to); err != nil {
		return SalesReport{}, err
	}
	sales, err := s.Store.ListSales(ctx, store.SaleFilter{From: from, To: to, Limit: store.NoLimit})
	if err != nil {
		return SalesReport{}, err
	}
	return SalesReport{Summary: summarize(sales, from, to), Sales: sales}, nil
}

func (s *Service) buildReportDocument(report SalesReport) reports.SalesReport {
	doc := reports.SalesReport{
		Title:         "Sales Report",
		Currency:      s.Currency,
		From:          report.Summary.From,
		To:            report.Summary.To,
		GeneratedAt:   s.now(),
		SaleCount:     report.Summary.SaleCount,
		Revenue:       report.Summary.Revenue,
		RefundedTotal: report.Summary.RefundedTotal,
	}
	for _, ct := range report.Summary.ByCategory {
		doc.ByCategory = append(doc.ByCategory, reports.BreakdownRow{Label: string(ct.Category), Count: ct.Count, Total: ct.Total})
	}
	for _, pt := range report.Summary.ByPaymentMethod {
		doc.ByPayment = append(doc.ByPayment, reports.BreakdownRow{Label: string(pt.PaymentMethod), Count: pt.Count, Total: pt.Total})
	}
	for _, sale := range report.Sales {
		doc.Sales = append(doc.Sales, reports.SaleRow{
			CustomSalesID: sale.CustomSalesID,
			Date:          sale.SaleDate,
			Category:      string(sale.Category),
			PaymentMethod: string(sale.PaymentMethod),
			Status:        string(sale.Status),
			TotalAmount:   sale.TotalAmount,
		})
	}
	return doc
}

// RenderSalesReportPDF returns the report file name and its PDF bytes.
func (s *Service) RenderSalesReportPDF(ctx context.Context, from, to *time.Time) (string, []byte, error) {
	report, err := s.SalesReport(ctx, from, to)
	if err != nil {
		return "", nil, err
	}
	doc := s.buildReportDocument(report)
	buf, err := reports.RenderSalesPDF(doc)
	if err != nil {
		return "", nil, fmt.Errorf("render sales report: %w", err)
	}
	return doc.Filename(), buf.Bytes(), nil
}

// ShareSalesReport renders the report, archives it and emails the link.
// The archived copy is removed again when the email cannot be sent.
func (s *Service) ShareSalesReport(ctx context.Context, input ShareReportInput) (ShareReportResult, error) {
	if _, err := requireIdentity(ctx); err != nil {
		return ShareReportResult{}, err
	}
	recipient := strings.TrimSpace(input.To)
	if recipient == "" || !strings.Contains(recipient, "@") {
		return ShareReportResult{}, domain.ValidationError("A valid recipient is required", map[string]any{"field": "to"})
	}
	if s.Archive == nil || s.Mailer == nil {
		return ShareReportResult{}, domain.UpstreamFailure("Report sharing is not configured", nil)
	}

	filename, body, err := s.RenderSalesReportPDF(ctx, input.From, input.ToDate)
	if err != nil {
		return ShareReportResult{}, err
	}

	url, err := s.Archive.ArchiveReport(ctx, filename, body, pdfContentType)
	if err != nil {
		return ShareReportResult{}, domain.UpstreamFailure("Failed to archive report", err)
	}

	subject := strings.TrimSpace(input.Subject)
	if subject == "" {
		subject = "Sales report"
	}
	messageID, err := s.Mailer.Send(ctx, mailer.Message{
		To:       recipient,
		Subject:  subject,
		Template: domain.TemplateReportNotification,
		Data: map[string]any{
			"reportUrl": url,
			"filename":  filename,
			"from":      formatReportDate(input.From),
			"to":        formatReportDate(input.ToDate),
		},
	})
	if err != nil {
		if delErr := s.Archive.DeleteURL(ctx, url); delErr != nil {
			s.Logger.Warn("archived report cleanup failed", zap.String("url", url), zap.Error(delErr))
		}
		if _, ok := domain.AsError(err); ok {
			return ShareReportResult{}, err
		}
		return ShareReportResult{}, domain.UpstreamFailure("Failed to send report email", err)
	}

	result := ShareReportResult{URL: url, MessageID: messageID, Filename: filename}
	err = s.mutate(ctx, []string{domain.CollectionActivity}, func(ctx context.Context, tx store.Tx, identity auth.Identity) error {
		resType, resID := resourceRef(domain.ResourceReport, filename)
		if err := s.writeActivity(ctx, tx, identity.Subject, ActivityEntry{
			Action:       domain.ActionShareSalesReport,
			Details:      fmt.Sprintf("Shared sales report %s with %s", filename, recipient),
			ResourceType: resType,
			ResourceID:   resID,
			Metadata: map[string]any{
				"to":        recipient,
				"url":       url,
				"messageId": messageID,
				"from":      formatReportDate(input.From),
				"toDate":    formatReportDate(input.ToDate),
			},
		}); err != nil {
			return err
		}
		return s.enqueue(ctx, tx, domain.EventReportShared, map[string]any{
			"to":        recipient,
			"url":       url,
			"filename":  filename,
			"messageId": messageID,
		})
	})
	if err != nil {
		return ShareReportResult{}, err
	}
	return result, nil
}

func formatReportDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}
