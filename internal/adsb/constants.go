package adsb

// ADSBCharset is the 6-bit IA5 subset used by the ADS-B aircraft
// identification ME subtype (metype 1-4) to encode callsigns; index 32 is
// space, 48-57 are digits.
const ADSBCharset = "@ABCDEFGHIJKLMNOPQRSTUVWXYZ[\\]^_ !\"#$%&'()*+,-./0123456789:;<=>?"

// Frame sizes, in bits and bytes.
const (
	ShortMsgBits  = 56
	LongMsgBits   = 112
	ShortMsgBytes = ShortMsgBits / 8
	LongMsgBytes  = LongMsgBits / 8
)

// AltitudeUnit distinguishes feet vs. meters altitude encodings (AC13 M bit).
type AltitudeUnit int

const (
	UnitFeet AltitudeUnit = iota
	UnitMeters
)

// Squawk digit multipliers: the identity field decodes to four octal digits
// A, B, C, D combined as a decimal-looking 4-digit code.
const (
	SquawkAMultiplier = 1000
	SquawkBMultiplier = 100
	SquawkCMultiplier = 10
	SquawkDMultiplier = 1
)

// NoErrorBit is the sentinel for DecodedMessage.ErrorBit when fix_errors is
// off, or no repair was needed/found.
const NoErrorBit = -1
