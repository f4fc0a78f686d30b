package adsb

import "testing"

func TestIcaoCacheTTLBoundary(t *testing.T) {
	c := NewIcaoCache(DefaultIcaoCacheCapacity)
	const addr = uint32(0x4B1A1E)
	const t0 = uint32(1000)

	c.Add(addr, t0)

	if !c.ContainsRecent(addr, t0+60) {
		t.Fatal("expected address to still be recent at t0+60")
	}
	if c.ContainsRecent(addr, t0+61) {
		t.Fatal("expected address to have expired at t0+61")
	}
}

func TestIcaoCacheMissForUnknown(t *testing.T) {
	c := NewIcaoCache(DefaultIcaoCacheCapacity)
	if c.ContainsRecent(0x123456, 0) {
		t.Fatal("empty cache should never report a hit")
	}
}

func TestNextPowerOfTwo(t *testing.T) {
	cases := map[uint32]uint32{
		1:    1,
		2:    2,
		3:    4,
		1023: 1024,
		1024: 1024,
	}
	for in, want := range cases {
		if got := nextPowerOfTwo(in); got != want {
			t.Errorf("nextPowerOfTwo(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestIcaoCacheCapacityRoundsUp(t *testing.T) {
	c := NewIcaoCache(100)
	if c.capacity != 128 {
		t.Fatalf("expected capacity rounded to 128, got %d", c.capacity)
	}
}
