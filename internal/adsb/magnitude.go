package adsb

import "math"

// magnitudeTable is a 65,536-entry lookup table indexed by (I<<8)|Q,
// precomputed once at init so ComputeMagnitude is a pure table lookup per
// sample pair. Scale factor 360 is load-bearing: every downstream threshold
// (preamble acceptance, signal/noise comparisons) is calibrated to it.
var magnitudeTable [65536]uint16

func init() {
	for i := 0; i < 256; i++ {
		for q := 0; q < 256; q++ {
			di := float64(i) - 127.0
			dq := float64(q) - 127.0
			mag := math.Sqrt(di*di+dq*dq) * 360.0
			mag = math.Round(mag)
			if mag > 65535 {
				mag = 65535
			}
			magnitudeTable[(i<<8)|q] = uint16(mag)
		}
	}
}

// ComputeMagnitude converts N interleaved (I,Q) 8-bit sample pairs into N
// u16 magnitude samples via magnitudeTable. Odd-length input is a caller
// bug: the trailing unpaired byte is ignored.
func ComputeMagnitude(samples []byte) []uint16 {
	n := len(samples) / 2
	mag := make([]uint16, n)
	for i := 0; i < n; i++ {
		iq := (uint32(samples[2*i]) << 8) | uint32(samples[2*i+1])
		mag[i] = magnitudeTable[iq]
	}
	return mag
}
