package booking

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewBookingID returns a locally generated id such as "QEP-20261020-3FA9C1".
func NewBookingID(now time.Time) string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "QEP-" + now.Format("20060102") + "-" + strings.ToUpper(hex[:6])
}
