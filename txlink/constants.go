package txlink

// Fan-out flags; a target receives a message when its mask covers the
// message flag.
const (
	FlagTemperature = 1
	FlagDiagnostics = 2
	FlagRaw         = 4
)

// Wire protocol constants shared by the hex and binary encodings.
const (
	HeaderByte0 = 0xAA
	HeaderByte1 = 0x55

	// Hex protocol: temperatures are fixed-point, value*10, int16
	// big-endian, clamped to the plausible band. Invalid tags carry
	// the sentinel.
	TempScale       = 10
	TempMinScaled   = -400
	TempMaxScaled   = 1500
	InvalidSentinel = 0xFFFF

	// Binary protocol type marker for a full result record.
	BinaryTypeFull = 0x01
)
