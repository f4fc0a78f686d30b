package adsb

import "testing"

func buildFrameMag(frame []byte, bits int) []uint16 {
	mag := validPreamble()
	mag = append(mag, ppmEncode(frame, bits)...)
	return mag
}

func TestDecoderDetectSurfacesDirectMaskFrame(t *testing.T) {
	frame := []byte{0x58, 0x4B, 0x1A, 0x1E, 0x9E, 0xD2, 0x0D}
	mag := buildFrameMag(frame, ShortMsgBits)

	d := NewDecoder(false, false, false)
	var got *DecodedMessage
	d.Detect(mag, 0, func(msg *DecodedMessage) { got = msg })

	if got == nil {
		t.Fatal("expected a decoded message")
	}
	if !got.CRCOk {
		t.Fatal("expected CRCOk")
	}
	if got.ICAO != 0x4B1A1E {
		t.Fatalf("ICAO = %06X, want 4B1A1E", got.ICAO)
	}
	if d.Stats().Preambles == 0 || d.Stats().Valid == 0 {
		t.Fatalf("stats not updated: %+v", d.Stats())
	}
}

func TestDecoderDetectAuthenticatesOverlaidFrameViaIcaoCache(t *testing.T) {
	direct := []byte{0x58, 0x4B, 0x1A, 0x1E, 0x9E, 0xD2, 0x0D}

	d := NewDecoder(false, false, false)
	var seen []*DecodedMessage
	sink := func(msg *DecodedMessage) { seen = append(seen, msg) }

	d.Detect(buildFrameMag(direct, ShortMsgBits), 0, sink)
	if len(seen) != 1 || !seen[0].CRCOk {
		t.Fatalf("expected the direct-mask frame to validate and seed the cache, got %+v", seen)
	}

	// A DF4 surveillance reply whose address-overlaid CRC syndrome is 3C6589
	// should authenticate on a decoder whose cache already holds 3C6589.
	df4 := []byte{0x20, 0x00, 0x1A, 0x18, 0x07, 0xF0, 0x8E}
	d2 := NewDecoder(false, false, false)
	d2.cache.Add(0x3C6589, 0)
	var df4msg *DecodedMessage
	d2.Detect(buildFrameMag(df4, ShortMsgBits), 1, func(msg *DecodedMessage) { df4msg = msg })
	if df4msg == nil || !df4msg.CRCOk || df4msg.ICAO != 0x3C6589 {
		t.Fatalf("expected DF4 to authenticate via the ICAO cache, got %+v", df4msg)
	}
}

func TestDecoderDetectDiscardsUnknownOverlaidFrame(t *testing.T) {
	df4 := []byte{0x20, 0x00, 0x1A, 0x18, 0x07, 0xF0, 0x8E}
	d := NewDecoder(false, false, true) // check_crc: discard non-CRC-OK frames
	var seen []*DecodedMessage
	d.Detect(buildFrameMag(df4, ShortMsgBits), 0, func(msg *DecodedMessage) { seen = append(seen, msg) })

	if len(seen) != 0 {
		t.Fatalf("expected the frame to be discarded (unknown ICAO, check_crc on), got %+v", seen)
	}
	if d.Stats().Discarded == 0 {
		t.Fatal("expected Discarded to be incremented")
	}
}

func TestDecoderDetectFixErrorsRepairsSingleBit(t *testing.T) {
	original := []byte{0x58, 0x4B, 0x1A, 0x1E, 0x9E, 0xD2, 0x0D}
	corrupted := append([]byte(nil), original...)
	flipBit(corrupted, 20)

	d := NewDecoder(true, false, false)
	var got *DecodedMessage
	d.Detect(buildFrameMag(corrupted, ShortMsgBits), 0, func(msg *DecodedMessage) { got = msg })

	if got == nil || !got.CRCOk {
		t.Fatalf("expected fix_errors to repair the single-bit corruption, got %+v", got)
	}
	if got.ErrorBit != 20 {
		t.Fatalf("ErrorBit = %d, want 20", got.ErrorBit)
	}
	if d.Stats().SingleBit == 0 {
		t.Fatal("expected SingleBit stat to be incremented")
	}
}

func TestDecoderDetectWithoutFixErrorsLeavesErrorBitUnset(t *testing.T) {
	original := []byte{0x58, 0x4B, 0x1A, 0x1E, 0x9E, 0xD2, 0x0D}
	corrupted := append([]byte(nil), original...)
	flipBit(corrupted, 20)

	d := NewDecoder(false, false, false)
	var got *DecodedMessage
	d.Detect(buildFrameMag(corrupted, ShortMsgBits), 0, func(msg *DecodedMessage) { got = msg })

	if got == nil {
		t.Fatal("expected a message even though CRC does not validate")
	}
	if got.CRCOk {
		t.Fatal("expected CRCOk false without fix_errors")
	}
	if got.ErrorBit != NoErrorBit {
		t.Fatalf("ErrorBit = %d, want NoErrorBit", got.ErrorBit)
	}
}

func TestDecodeFrameBypassesDemodulationPipeline(t *testing.T) {
	frame := []byte{0x88, 0xAB, 0xCD, 0xEF, 0x20, 0x2C, 0xC3, 0x71, 0xC3, 0x2C, 0xE0, 0x84, 0xAA, 0xCD}
	d := NewDecoder(false, false, false)

	msg := d.DecodeFrame(frame, 0)
	if msg == nil {
		t.Fatal("expected a decoded message")
	}
	if msg.DF != 17 || msg.ICAO != 0xABCDEF {
		t.Fatalf("DF=%d ICAO=%06X, want DF=17 ICAO=ABCDEF", msg.DF, msg.ICAO)
	}
	if msg.Flight != "KLM1023 " {
		t.Fatalf("Flight = %q, want %q", msg.Flight, "KLM1023 ")
	}
	if d.Stats().Valid == 0 {
		t.Fatal("expected Valid stat to be incremented")
	}
}
