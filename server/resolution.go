package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// errDeviceResetFailed marks a resolution where the event was committed as
// resolved but the device status reset did not happen. There is no
// compensating write; the caller retries the reset.
var errDeviceResetFailed = errors.New("device status reset failed")

// ResolutionCoordinator runs the operator acknowledgement sequence: mark one
// event resolved, then reset the device status through the privileged path.
// The two writes are deliberately separate, not one transaction.
type ResolutionCoordinator struct {
	events *EventStore
	state  *DeviceStateManager
	logger zerolog.Logger
}

func NewResolutionCoordinator(events *EventStore, state *DeviceStateManager, logger zerolog.Logger) *ResolutionCoordinator {
	return &ResolutionCoordinator{events: events, state: state, logger: logger}
}

// Resolve acknowledges an incident for a device. When eventID is empty the
// newest unresolved event for the device is used; when the device has no
// open events the status reset still runs. A failure before the event write
// aborts the whole call; a failure after it leaves the event permanently
// resolved and returns errDeviceResetFailed.
func (rc *ResolutionCoordinator) Resolve(deviceID, eventID string) error {
	now := time.Now().UTC()

	if eventID == "" {
		event, err := rc.events.LatestUnresolvedForDevice(deviceID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			// nothing open for this device; still reset its status below
		case err != nil:
			return fmt.Errorf("load unresolved event: %w", err)
		default:
			eventID = event.ID
		}
	}

	if eventID != "" {
		if err := rc.events.Resolve(eventID, now); err != nil {
			return fmt.Errorf("mark event resolved: %w", err)
		}
	}

	if err := rc.state.MarkRecovered(deviceID, now); err != nil {
		rc.logger.Error().Err(err).
			Str("device_id", deviceID).
			Str("event_id", eventID).
			Msg("event resolved but device status reset failed; reset must be retried")
		return errDeviceResetFailed
	}

	return nil
}
