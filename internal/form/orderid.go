package form

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewOrderID returns a timestamp with a short random suffix. Ids are
// practically unique, not guaranteed.
func NewOrderID(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return now.Format("20060102-150405") + "-" + suffix
}
