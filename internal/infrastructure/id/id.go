package id

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string { return uuid.NewString() }

// OrderNumberGenerator produces ORD-<yyyymmddHHMMSS>-<8 hex>, the suffix taken
// from a random UUID. Collisions are possible in principle and are caught by
// the order store.
type OrderNumberGenerator struct{}

const numberLayout = "20060102150405"

func (OrderNumberGenerator) NewNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return "ORD-" + now.UTC().Format(numberLayout) + "-" + suffix
}
