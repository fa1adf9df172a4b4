// internal/writer/builder.go
package writer

import (
	"errors"
	"time"

	"github.com/tamzrod/ecatlink/internal/config"
	wmodbus "github.com/tamzrod/ecatlink/internal/writer/modbus"
)

// BuildStatusPlan converts the status section into a plan.
// Returns false when no status block is configured.
// Assumes config has already passed validation.
func BuildStatusPlan(sc *config.StatusConfig) (StatusPlan, bool) {
	if sc == nil {
		return StatusPlan{}, false
	}
	return StatusPlan{
		Endpoint:   sc.Endpoint,
		UnitID:     sc.UnitID,
		BaseSlot:   sc.Slot,
		DeviceName: sc.DeviceName,
	}, true
}

// BuildStatusClient opens the Modbus TCP connection for the status block.
func BuildStatusClient(sc *config.StatusConfig) (*wmodbus.StatusClient, error) {
	if sc == nil {
		return nil, errors.New("writer: status section required")
	}
	return wmodbus.NewStatusClient(wmodbus.Config{
		Endpoint: sc.Endpoint,
		Timeout:  time.Duration(sc.TimeoutMs) * time.Millisecond,
	})
}
