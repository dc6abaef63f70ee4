package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"opsboard-services/internal/auth"
	"opsboard-services/internal/domain"
	"opsboard-services/internal/ids"
	"opsboard-services/internal/store"
)

type PropertyInput struct {
	Name        string  `json:"name"`
	Address     *string `json:"address"`
	NightlyRate float64 `json:"nightlyRate"`
	IsActive    *bool   `json:"isActive"`
}

type BookingInput struct {
	GuestName     string    `json:"guestName"`
	GuestEmail    *string   `json:"guestEmail"`
	CheckIn       time.Time `json:"checkIn"`
	CheckOut      time.Time `json:"checkOut"`
	PaymentMethod string    `json:"paymentMethod"`
}

func (s *Service) CreateProperty(ctx context.Context, input PropertyInput) (domain.Property, error) {
	if strings.TrimSpace(input.Name) == "" {
		return domain.Property{}, domain.ValidationError("Name is required", map[string]any{"field": "name"})
	}
	if input.NightlyRate < 0 {
		return domain.Property{}, domain.ValidationError("Nightly rate must not be negative", map[string]any{"field": "nightlyRate"})
	}

	var property domain.Property
	collections := []string{domain.CollectionProperties, domain.CollectionActivity}
	err := s.mutate(ctx, collections, func(ctx context.Context, tx store.Tx, identity auth.Identity) error {
		active := true
		if input.IsActive != nil {
			active = *input.IsActive
		}
		property = domain.Property{
			ID:          ids.New(),
			Name:        strings.TrimSpace(input.Name),
			Address:     trimmedPtr(input.Address),
			NightlyRate: input.NightlyRate,
			IsActive:    active,
			CreatedAt:   s.now(),
		}
		if err := tx.InsertProperty(ctx, property); err != nil {
			return fmt.Errorf("insert property: %w", err)
		}
		resType, resID := resourceRef(domain.ResourceProperty, property.ID)
		return s.writeActivity(ctx, tx, identity.Subject, ActivityEntry{
			Action:       domain.ActionCreateProperty,
			Details:      fmt.Sprintf("Added property %s", property.Name),
			Category:     strPtr(string(domain.CategoryRentals)),
			ResourceType: resType,
			ResourceID:   resID,
			Metadata:     map[string]any{"property": property},
		})
	})
	if err != nil {
		return domain.Property{}, err
	}
	return property, nil
}

func (s *Service) ListProperties(ctx context.Context) ([]domain.Property, error) {
	return s.Store.ListProperties(ctx)
}

// stayNights counts calendar nights between the two dates.
func stayNights(checkIn, checkOut time.Time) int32 {
	in := time.Date(checkIn.Year(), checkIn.Month(), checkIn.Day(), 0, 0, 0, 0, time.UTC)
	out := time.Date(checkOut.Year(), checkOut.Month(), checkOut.Day(), 0, 0, 0, 0, time.UTC)
	return int32(out.Sub(in).Hours() / 24)
}

// CreateBooking books a stay, records its rental sale and queues the guest
// confirmation.
func (s *Service) CreateBooking(ctx context.Context, propertyID string, input BookingInput) (domain.Booking, error) {
	if strings.TrimSpace(input.GuestName) == "" {
		return domain.Booking{}, domain.ValidationError("Guest name is required", map[string]any{"field": "guestName"})
	}
	if input.CheckIn.IsZero() || input.CheckOut.IsZero() {
		return domain.Booking{}, domain.ValidationError("Check-in and check-out dates are required", nil)
	}
	nights := stayNights(input.CheckIn.UTC(), input.CheckOut.UTC())
	if nights < 1 {
		return domain.Booking{}, domain.ValidationError("Check-out must be at least one night after check-in", map[string]any{
			"checkIn":  input.CheckIn,
			"checkOut": input.CheckOut,
		})
	}
	method := domain.PaymentCash
	if strings.TrimSpace(input.PaymentMethod) != "" {
		var err error
		if method, err = domain.ParsePaymentMethod(input.PaymentMethod); err != nil {
			return domain.Booking{}, err
		}
	}

	var booking domain.Booking
	collections := []string{domain.CollectionBookings, domain.CollectionSales, domain.CollectionActivity}
	err := s.mutate(ctx, collections, func(ctx context.Context, tx store.Tx, identity auth.Identity) error {
		property, err := tx.GetProperty(ctx, propertyID)
		if err != nil {
			return err
		}
		if !property.IsActive {
			return domain.ValidationError("Property is not accepting bookings", map[string]any{"propertyId": property.ID})
		}

		customSalesID, err := s.nextDisplayID(ctx, tx, ids.SeqSales)
		if err != nil {
			return err
		}
		now := s.now()
		total := float64(nights) * property.NightlyRate
		guestEmail := trimmedPtr(input.GuestEmail)
		guestName := strings.TrimSpace(input.GuestName)

		bookingID := ids.New()
		sale := domain.Sale{
			ID:            ids.New(),
			OrderID:       &bookingID,
			CustomSalesID: customSalesID,
			Items: []domain.SaleLine{{
				Name:     fmt.Sprintf("%s (%d nights)", property.Name, nights),
				Price:    property.NightlyRate,
				Quantity: nights,
				Subtotal: total,
				Category: domain.CategoryRentals,
			}},
			Category:      domain.CategoryRentals,
			TotalAmount:   total,
			PaymentMethod: method,
			CustomerName:  &guestName,
			CustomerEmail: guestEmail,
			SaleDate:      now,
			CreatedBy:     identity.Subject,
			Status:        domain.SaleCompleted,
		}
		booking = domain.Booking{
			ID:          bookingID,
			PropertyID:  property.ID,
			GuestName:   guestName,
			GuestEmail:  guestEmail,
			CheckIn:     input.CheckIn.UTC(),
			CheckOut:    input.CheckOut.UTC(),
			Nights:      nights,
			TotalAmount: total,
			Status:      domain.BookingConfirmed,
			SaleID:      sale.ID,
			CreatedAt:   now,
			CreatedBy:   identity.Subject,
		}

		if err := tx.InsertBooking(ctx, booking); err != nil {
			return fmt.Errorf("insert booking: %w", err)
		}
		if err := tx.InsertSale(ctx, sale); err != nil {
			return fmt.Errorf("insert sale: %w", err)
		}

		resType, resID := resourceRef(domain.ResourceBooking, booking.ID)
		if err := s.writeActivity(ctx, tx, identity.Subject, ActivityEntry{
			Action:       domain.ActionCreateBooking,
			Details:      fmt.Sprintf("Booked %s for %s (%d nights, total %.2f)", property.Name, guestName, nights, total),
			Category:     strPtr(string(domain.CategoryRentals)),
			ResourceType: resType,
			ResourceID:   resID,
			Metadata: map[string]any{
				"bookingId":     booking.ID,
				"propertyId":    property.ID,
				"saleId":        sale.ID,
				"customSalesId": sale.CustomSalesID,
				"nights":        nights,
				"totalAmount":   total,
			},
		}); err != nil {
			return err
		}

		return s.enqueue(ctx, tx, domain.EventBookingCreated, map[string]any{
			"bookingId":    booking.ID,
			"propertyId":   property.ID,
			"propertyName": property.Name,
			"guestName":    guestName,
			"guestEmail":   derefString(guestEmail),
			"checkIn":      booking.CheckIn.Format("2006-01-02"),
			"checkOut":     booking.CheckOut.Format("2006-01-02"),
			"nights":       nights,
			"totalAmount":  total,
		})
	})
	if err != nil {
		return domain.Booking{}, err
	}
	return booking, nil
}

func (s *Service) ListBookings(ctx context.Context, filter store.BookingFilter) ([]domain.Booking, error) {
	return s.Store.ListBookings(ctx, filter)
}
