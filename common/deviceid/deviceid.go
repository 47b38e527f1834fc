// Package deviceid assigns this installation a stable identifier used by the backend to
// distinguish devices on one account.
package deviceid

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/divvyapp/divvy/common/settings"
)

// Get returns a unique identifier for this device. The identifier is a random UUID that's stored
// in the local settings file on first use.
func Get() string {
	existingID := settings.GetString(settings.DeviceIDKey)
	if existingID != "" {
		return existingID
	}
	return newDeviceID()
}

func newDeviceID() string {
	newID, err := uuid.NewRandom()
	if err != nil {
		// uuid.NewRandom only fails if the system's entropy source is broken
		slog.Error("Error generating new deviceID", "error", err)
		return uuid.Nil.String()
	}
	idStr := newID.String()
	if err := settings.Set(settings.DeviceIDKey, idStr); err != nil {
		slog.Error("Error persisting new deviceID", "error", err)
	}
	return idStr
}
