// internal/status/constants.go
package status

// Link Status Block layout constants.
// These values define the protocol and MUST NOT be configurable.

// ---- BLOCK GEOMETRY ----

// SlotsPerDevice is the fixed number of logical slots per master.
const SlotsPerDevice = 20

// ---- SLOT INDICES ----

// SlotHealthCode holds the link health state.
const SlotHealthCode = 0

// SlotLastErrorCode holds the last error code.
const SlotLastErrorCode = 1

// SlotSecondsInError holds the duration (in seconds) the link has been in error.
const SlotSecondsInError = 2

// SlotWorkcounter holds the workcounter of the first probe read of the last cycle.
const SlotWorkcounter = 3

// SlotRedundancyState holds the ring state of a redundant master.
const SlotRedundancyState = 4

// SlotTimeouts counts timed out exchanges, saturating at 65535.
const SlotTimeouts = 5

// ---- RESERVED RANGE ----

// Slots 6-10 are reserved for future use.
const SlotReservedStart = 6
const SlotReservedEnd = 10

// ---- DEVICE NAME ----

// SlotDeviceNameStart is the first slot used for the device name.
// Device name is always placed at the END of the status block.
const SlotDeviceNameStart = 11

// SlotDeviceNameSlots is the number of slots reserved for the device name.
const SlotDeviceNameSlots = 8

// SlotDeviceNameEnd is the last slot used for the device name (inclusive).
const SlotDeviceNameEnd = SlotDeviceNameStart + SlotDeviceNameSlots - 1

// ---- LIMITS ----

// DeviceNameMaxChars is the maximum number of ASCII characters stored for device name.
const DeviceNameMaxChars = 16

// ---- HEALTH CODES ----

// HealthUnknown represents an unknown or boot state.
const HealthUnknown uint16 = 0

// HealthOK represents a link answering every probe read.
const HealthOK uint16 = 1

// HealthError represents a link in error.
const HealthError uint16 = 2

// HealthStale represents a link whose last answer is older than one probe interval.
const HealthStale uint16 = 3

// HealthDisabled represents a disabled link.
const HealthDisabled uint16 = 4

// ---- ERROR CODES ----

const (
	ErrorNone        uint16 = 0
	ErrorGeneric     uint16 = 1
	ErrorNoFrame     uint16 = 2 // no frame returned before the deadline
	ErrorTxRejected  uint16 = 3 // link refused the frame
	ErrorExhausted   uint16 = 4 // no free frame slot
	ErrorNoResponder uint16 = 5 // frame returned, workcounter 0
)
