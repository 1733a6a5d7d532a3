package providers

import (
	"pickme/internal/structures"
	"strings"
	"time"
)

// NewLocationProvider resolves locale.timezone. Unknown names fall back to
// the local zone with a warning.
func NewLocationProvider(conf *structures.Config, logger Logger) *time.Location {
	name := strings.TrimSpace(conf.Locale.Timezone)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		logger.Warnf(TypeApp, "Unknown timezone %q, using local time: %s", name, err)
		return time.Local
	}
	return loc
}
