package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brightstay/booking-backend/pkg/db"
	"github.com/brightstay/booking-backend/pkg/db/models"
	"github.com/brightstay/booking-backend/pkg/errors"
	"github.com/brightstay/booking-backend/pkg/types"
)

const dateLayout = "2006-01-02"

var clientKeyRe = regexp.MustCompile(`^[0-9a-f]{64}$`)

// DeriveKey fingerprints a reservation request. Two requests produce the
// same key exactly when every field matches; the stay dates enter as
// calendar days so clock precision cannot split otherwise-equal requests.
func DeriveKey(userID, roomTypeID uuid.UUID, start, end time.Time, rooms int) string {
	payload := fmt.Sprintf("%s|%s|%s|%s|%d",
		userID, roomTypeID,
		start.Format(dateLayout), end.Format(dateLayout),
		rooms)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// AcceptClientKey returns a caller-supplied key verbatim when it already has
// the derived-key shape (64 lowercase hex chars). Anything else is rejected
// so malformed headers fall back to server-side derivation.
func AcceptClientKey(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if !clientKeyRe.MatchString(trimmed) {
		return "", false
	}
	return trimmed, true
}

// Lookup fetches the binding for key inside the caller's transaction.
// A missing key returns (nil, nil).
func Lookup(tx *gorm.DB, key string) (*models.IdempotencyKey, error) {
	var record models.IdempotencyKey
	err := tx.Where("key = ?", key).First(&record).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("looking up idempotency key: %w", err)
	}
	return &record, nil
}

// Bind inserts the key-to-booking binding. It must run in the same
// transaction that creates the booking so the pair commits atomically.
// A concurrent insert of the same key surfaces as IDEMPOTENCY_CONFLICT;
// the caller retries the lookup path.
func Bind(tx *gorm.DB, key string, bookingID uuid.UUID, metadata types.JSONMap) error {
	record := models.IdempotencyKey{
		Key:       key,
		BookingID: bookingID,
		Metadata:  metadata,
	}
	if err := tx.Create(&record).Error; err != nil {
		if db.IsUniqueViolation(err, "idempotency_keys_pkey") {
			return errors.Wrap(errors.CodeIdempotencyConflict, err, "idempotency key already bound")
		}
		return fmt.Errorf("binding idempotency key: %w", err)
	}
	return nil
}

// DeleteOlderThan sweeps bindings created before cutoff. Bookings and
// inventory are never touched; after the sweep a replayed request simply
// behaves as a new reservation attempt.
func DeleteOlderThan(tx *gorm.DB, cutoff time.Time) (int64, error) {
	res := tx.Where("created_at < ?", cutoff).Delete(&models.IdempotencyKey{})
	if res.Error != nil {
		return 0, fmt.Errorf("sweeping idempotency keys: %w", res.Error)
	}
	return res.RowsAffected, nil
}
