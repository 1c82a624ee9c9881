package reservations

import (
	"context"
	"errors"
	"time"

	"github.com/joao-fontenele/storefront/internal/domain"
)

const (
	ReasonProductNotFound = "product_not_found"
	ReasonSizeNotFound    = "size_not_found"
	ReasonExpiredAndTaken = "expired_and_taken"
	ReasonInsufficient    = "insufficient_stock"
)

type LineInput struct {
	ProductID     int64
	SizeID        *int64
	Quantity      int
	ReservationID *int64
}

type LineStatus struct {
	ProductID         int64  `json:"product_id"`
	SizeID            *int64 `json:"size_id,omitempty"`
	Quantity          int    `json:"quantity"`
	ReservationID     *int64 `json:"reservation_id,omitempty"`
	AvailableStock    int    `json:"available_stock"`
	IsAvailable       bool   `json:"is_available"`
	IsExpired         bool   `json:"is_expired"`
	IsExpiredAndTaken bool   `json:"is_expired_and_taken"`
	Reason            string `json:"reason,omitempty"`
}

type Validation struct {
	Items []LineStatus
	// Expired holds lines whose reservation lapsed and whose stock went to
	// other sessions.
	Expired []LineStatus
	// Unavailable holds every other line that cannot be bought.
	Unavailable []LineStatus
}

func (v Validation) HasExpired() bool {
	return len(v.Expired) > 0
}

type Renewal struct {
	ProductID             int64     `json:"product_id"`
	SizeID                *int64    `json:"size_id,omitempty"`
	PreviousReservationID *int64    `json:"previous_reservation_id,omitempty"`
	ReservationID         int64     `json:"reservation_id"`
	ExpiresAt             time.Time `json:"expires_at"`
}

type CheckoutValidation struct {
	Validation
	Renewed []Renewal
}

func (c CheckoutValidation) CanCheckout() bool {
	return len(c.Expired) == 0 && len(c.Unavailable) == 0
}

// ValidateCart reports per-line availability without creating holds and
// without running the expiry sweep. A line stays available after its hold
// lapsed as long as nobody else claimed the stock.
func (a *Arbiter) ValidateCart(ctx context.Context, sessionID string, lines []LineInput) (Validation, error) {
	now := a.clock.Now()

	var v Validation
	for _, line := range lines {
		st, _, err := a.checkLine(ctx, sessionID, line, now)
		if err != nil {
			return Validation{}, err
		}
		v.add(st)
	}
	return v, nil
}

// ValidateForCheckout runs ValidateCart and then renews every lapsed line
// that is still available. A failed renewal is logged and does not block
// checkout.
func (a *Arbiter) ValidateForCheckout(ctx context.Context, sessionID string, lines []LineInput) (CheckoutValidation, error) {
	now := a.clock.Now()

	var cv CheckoutValidation
	for _, line := range lines {
		st, owner, err := a.checkLine(ctx, sessionID, line, now)
		if err != nil {
			return CheckoutValidation{}, err
		}
		cv.add(st)

		if !st.IsExpired || !st.IsAvailable {
			continue
		}

		renewFor := sessionID
		if renewFor == "" {
			renewFor = owner
		}
		if renewFor == "" {
			a.logger.Warn("cannot renew reservation without a session", "product_id", line.ProductID)
			continue
		}

		result, err := a.Reserve(ctx, ReserveInput{
			SessionID: renewFor,
			ProductID: line.ProductID,
			SizeID:    line.SizeID,
			Quantity:  line.Quantity,
		})
		if err != nil {
			a.logger.Warn("failed to renew reservation",
				"error", err,
				"session_id", renewFor,
				"product_id", line.ProductID,
			)
			continue
		}

		a.instruments.ReservationRenewed(ctx)
		cv.Renewed = append(cv.Renewed, Renewal{
			ProductID:             line.ProductID,
			SizeID:                line.SizeID,
			PreviousReservationID: line.ReservationID,
			ReservationID:         result.Reservation.ID,
			ExpiresAt:             result.Reservation.ExpiresAt,
		})
	}
	return cv, nil
}

// checkLine returns the line status and the session that owned the line's
// reservation, if it was found.
func (a *Arbiter) checkLine(ctx context.Context, sessionID string, line LineInput, now time.Time) (LineStatus, string, error) {
	st := LineStatus{
		ProductID:     line.ProductID,
		SizeID:        line.SizeID,
		Quantity:      line.Quantity,
		ReservationID: line.ReservationID,
	}
	if line.Quantity <= 0 {
		return st, "", domain.ErrInvalidQuantity
	}

	var own *domain.Reservation
	if line.ReservationID != nil {
		res, err := a.repo.Get(ctx, *line.ReservationID)
		if err != nil {
			return st, "", err
		}
		if res != nil && res.Covers(line.ProductID, line.SizeID) && (sessionID == "" || res.SessionID == sessionID) {
			own = res
		}
	}

	exclude := sessionID
	owner := ""
	if own != nil {
		exclude = own.SessionID
		owner = own.SessionID
	}

	available, err := a.available(ctx, line.ProductID, line.SizeID, exclude, now)
	if isNotFound(err) {
		st.Reason = ReasonProductNotFound
		if errors.Is(err, domain.ErrSizeNotFound) {
			st.Reason = ReasonSizeNotFound
		}
		return st, owner, nil
	}
	if err != nil {
		return st, "", err
	}
	st.AvailableStock = max(available, 0)

	held := own != nil && own.Live(now)
	st.IsExpired = line.ReservationID != nil && !held
	st.IsAvailable = (held && own.Quantity >= line.Quantity) || line.Quantity <= available
	st.IsExpiredAndTaken = st.IsExpired && !st.IsAvailable

	switch {
	case st.IsExpiredAndTaken:
		st.Reason = ReasonExpiredAndTaken
	case !st.IsAvailable:
		st.Reason = ReasonInsufficient
	}
	return st, owner, nil
}

func (v *Validation) add(st LineStatus) {
	v.Items = append(v.Items, st)
	switch {
	case st.IsExpiredAndTaken:
		v.Expired = append(v.Expired, st)
	case !st.IsAvailable:
		v.Unavailable = append(v.Unavailable, st)
	}
}
