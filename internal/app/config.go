package app

// Default configuration constants
const (
	DefaultFrequency  = 1090000000 // 1090 MHz
	DefaultSampleRate = 2000000    // 2 MHz: the decoder expects 2 samples per microsecond
	DefaultGain       = 40         // Manual gain
)

// Config holds application configuration
type Config struct {
	Frequency    uint32
	SampleRate   uint32
	Gain         int
	DeviceIndex  int
	LogDir       string
	LogRotateUTC bool
	Verbose      bool
	ShowVersion  bool

	// FixErrors enables single (and, with Aggressive, two) bit CRC repair.
	FixErrors bool
	// Aggressive enables the second-candidate and phase-correction demod
	// paths, plus two-bit repair, at the cost of a higher false-positive
	// rate.
	Aggressive bool
	// CheckCRC discards any frame whose CRC does not validate (directly or
	// via repair/cache authentication) instead of surfacing it anyway.
	CheckCRC bool

	// BeastAddr, when non-empty, makes the application read already
	// bit-packed Mode S frames from a Beast-protocol TCP feed (e.g. a
	// dump1090 "raw" network port) instead of an RTL-SDR device. Frames
	// land directly on adsb.Decoder.DecodeFrame, skipping magnitude
	// computation, preamble scanning and bit slicing entirely.
	BeastAddr string
}
