package adsb

// ParseMessage reads a validated frame's bit fields into a DecodedMessage,
// dispatching on DF/type/subtype. Parsing never fails: an unrecognized
// metype/mesub yields a well-formed message with its type-specific fields
// left at their zero defaults.
func ParseMessage(data []byte, bits int) *DecodedMessage {
	msg := &DecodedMessage{
		RawBytes: append([]byte(nil), data...),
		Bits:     bits,
		ErrorBit: NoErrorBit,
	}
	msg.DF = int(getBits(data, 1, 5))

	switch msg.DF {
	case 0, 16:
		ac13 := getBits(data, 20, 32)
		msg.Altitude, msg.AltitudeUnit = decodeAC13(ac13)

	case 4, 20:
		msg.FS = int(getBits(data, 6, 8))
		msg.DR = int(getBits(data, 9, 13))
		msg.UM = int(getBits(data, 14, 19))
		ac13 := getBits(data, 20, 32)
		msg.Altitude, msg.AltitudeUnit = decodeAC13(ac13)

	case 5, 21:
		msg.FS = int(getBits(data, 6, 8))
		msg.DR = int(getBits(data, 9, 13))
		msg.UM = int(getBits(data, 14, 19))
		id13 := getBits(data, 20, 32)
		msg.Identity = decodeSquawk(id13)

	case 11:
		msg.CA = int(getBits(data, 6, 8))
		msg.ICAO = directICAOFromPayload(data)

	case 17, 18:
		msg.CA = int(getBits(data, 6, 8))
		msg.ICAO = directICAOFromPayload(data)
		msg.METype = int(getBits(data, 33, 37))
		msg.MESub = int(getBits(data, 38, 40))
		parseExtendedSquitter(data, msg)
	}

	return msg
}

// decodeAC13 decodes a 13-bit altitude code (AC13) per Mode S: the M bit
// (field bit 6) selects feet vs. meters, and within feet the Q bit (field
// bit 4) selects the 25ft-increment encoding vs. Gillham (untested, left at
// zero per the source's own behavior).
func decodeAC13(field uint32) (int, AltitudeUnit) {
	const mBit = 1 << 6 // field bit 6, 0-indexed from the LSB of a 13-bit value
	const qBit = 1 << 4 // field bit 4

	if field&mBit != 0 {
		return int(field & 0xFFF), UnitMeters
	}
	if field&qBit != 0 {
		n := removeBits13(field, 4, 6)
		return int(n)*25 - 1000, UnitFeet
	}
	return 0, UnitFeet
}

// removeBits13 drops the bits at the given 0-based LSB positions from a
// 13-bit value, compacting the remaining bits down without gaps.
func removeBits13(field uint32, remove ...int) uint32 {
	var n uint32
	shift := 0
	for pos := 0; pos < 13; pos++ {
		skip := false
		for _, r := range remove {
			if r == pos {
				skip = true
				break
			}
		}
		if skip {
			continue
		}
		n |= ((field >> uint(pos)) & 1) << uint(shift)
		shift++
	}
	return n
}

// squawkInterleave maps each of the 13 transmitted identity bits (0-based
// from the LSB of the 13-bit field) to its position in the de-interleaved
// A4 A2 A1 B4 B2 B1 C4 C2 C1 D4 D2 D1 nibble layout, bit 6 (the X/M spare
// bit) having no destination.
var squawkInterleave = [13]int{
	// source bit -> destination bit in the 16-bit A|B|C|D nibble word
	0:  2,  // D4
	1:  10, // B4
	2:  1,  // D2
	3:  9,  // B2
	4:  0,  // D1
	5:  8,  // B1
	6:  -1, // spare/X, unused
	7:  14, // A4
	8:  6,  // C4
	9:  13, // A2
	10: 5,  // C2
	11: 12, // A1
	12: 4,  // C1
}

// decodeSquawk de-interleaves the 13-bit Gillham identity field into four
// octal digits and combines them into the conventional 4-digit squawk code.
func decodeSquawk(field uint32) int {
	var word uint32
	for srcBit, dstBit := range squawkInterleave {
		if dstBit < 0 {
			continue
		}
		if field&(1<<uint(srcBit)) != 0 {
			word |= 1 << uint(dstBit)
		}
	}
	a := (word >> 12) & 0x07
	b := (word >> 8) & 0x07
	c := (word >> 4) & 0x07
	d := word & 0x07
	return int(a)*SquawkAMultiplier + int(b)*SquawkBMultiplier + int(c)*SquawkCMultiplier + int(d)*SquawkDMultiplier
}

// parseExtendedSquitter dispatches the 56-bit ME payload (message bits
// 33-88) by metype, per the spec's type-code table.
func parseExtendedSquitter(data []byte, msg *DecodedMessage) {
	switch {
	case msg.METype >= 1 && msg.METype <= 4:
		msg.AircraftType = 4 - msg.METype
		msg.Flight = decodeFlight(data)

	case msg.METype >= 5 && msg.METype <= 8:
		msg.FFlag = uint8(getBits(data, 54, 54))
		msg.RawLatitude = getBits(data, 55, 71)
		msg.RawLongitude = getBits(data, 72, 88)

	case msg.METype >= 9 && msg.METype <= 18:
		ac12 := getBits(data, 41, 52)
		msg.Altitude, msg.AltitudeUnit = decodeAC12(ac12)
		msg.TFlag = uint8(getBits(data, 53, 53))
		msg.FFlag = uint8(getBits(data, 54, 54))
		msg.RawLatitude = getBits(data, 55, 71)
		msg.RawLongitude = getBits(data, 72, 88)

	case msg.METype == 19:
		parseVelocity(data, msg)
	}
}

// decodeAC12 decodes the 12-bit altitude code used by airborne-position ME
// types: identical to AC13's Q-bit/25ft path but without an M bit, since
// these messages are always in feet.
func decodeAC12(field uint32) (int, AltitudeUnit) {
	const qBit = 1 << 4 // field bit 8 of 12, 1-indexed from MSB
	if field&qBit != 0 {
		n := removeBits12(field, 4)
		return int(n)*25 - 1000, UnitFeet
	}
	return 0, UnitFeet
}

func removeBits12(field uint32, remove ...int) uint32 {
	var n uint32
	shift := 0
	for pos := 0; pos < 12; pos++ {
		skip := false
		for _, r := range remove {
			if r == pos {
				skip = true
				break
			}
		}
		if skip {
			continue
		}
		n |= ((field >> uint(pos)) & 1) << uint(shift)
		shift++
	}
	return n
}

// decodeFlight extracts the 8-character flight identification from an ME
// payload using the 6-bit character set, one character per 6 bits starting
// at ME-relative bit 9 (absolute message bit 41).
func decodeFlight(data []byte) string {
	buf := make([]byte, 8)
	for i := 0; i < 8; i++ {
		first := 41 + i*6
		c := getBits(data, first, first+5)
		if int(c) < len(ADSBCharset) {
			buf[i] = ADSBCharset[c]
		} else {
			buf[i] = '?'
		}
	}
	return string(buf)
}

// parseVelocity handles metype 19: ground velocity (mesub 1-2) or air
// velocity/heading (mesub 3-4), plus the vertical rate fields common to both.
func parseVelocity(data []byte, msg *DecodedMessage) {
	switch msg.MESub {
	case 1, 2:
		msg.EWDir = int(getBits(data, 46, 46))
		ewRaw := int(getBits(data, 47, 56))
		msg.EWVelocity = ewRaw - 1

		msg.NSDir = int(getBits(data, 57, 57))
		nsRaw := int(getBits(data, 58, 67))
		msg.NSVelocity = nsRaw - 1

	case 3, 4:
		headingAvailable := getBits(data, 46, 46) == 1
		headingRaw := int(getBits(data, 47, 56))
		msg.HeadingIsValid = headingAvailable
		if headingAvailable {
			msg.Heading = float64(headingRaw) * 360.0 / 128.0
		}
	}

	msg.VertRateSource = int(getBits(data, 68, 68))
	msg.VertRateSign = int(getBits(data, 69, 69))
	vrRaw := int(getBits(data, 70, 78))
	msg.VertRate = (vrRaw - 1) * 64
}
