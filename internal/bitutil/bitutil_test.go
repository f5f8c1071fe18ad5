package bitutil

import "testing"

func TestBitRoundTrip(t *testing.T) {
	cases := []struct {
		x        uint32
		lo, hi   uint
		newValue uint32
	}{
		{0x00000000, 0, 4, 0xF},
		{0xFFFFFFFF, 8, 16, 0x00},
		{0xDEADBEEF, 0, 32, 0x12345678},
		{0x00000001, 28, 32, 0xA},
	}
	for _, c := range cases {
		written := SetBits(c.x, c.lo, c.hi, c.newValue)
		got := Bits(written, c.lo, c.hi)
		width := c.hi - c.lo
		want := c.newValue & (uint32(1)<<width - 1)
		if got != want {
			t.Fatalf("SetBits/Bits round trip: x=%#x lo=%d hi=%d wrote=%#x got=%#x want=%#x",
				c.x, c.lo, c.hi, c.newValue, got, want)
		}
		// untouched fields preserved
		for b := uint(0); b < 32; b++ {
			if b >= c.lo && b < c.hi {
				continue
			}
			if Bit(written, b) != Bit(c.x, b) {
				t.Fatalf("SetBits clobbered untouched bit %d", b)
			}
		}
	}
}

func TestSetBitReadBit(t *testing.T) {
	var x uint8
	x = SetBit(x, 3, true)
	if !Bit(x, 3) {
		t.Fatal("expected bit 3 set")
	}
	x = SetBit(x, 3, false)
	if Bit(x, 3) {
		t.Fatal("expected bit 3 clear")
	}
}

func TestRotateRight32(t *testing.T) {
	if RotateRight32(0x1, 1) != 0x80000000 {
		t.Fatalf("got %#x", RotateRight32(0x1, 1))
	}
	if RotateRight32(0xABCD1234, 0) != 0xABCD1234 {
		t.Fatal("rotate by 0 must be identity")
	}
}

func TestSignExtend(t *testing.T) {
	if SignExtend(0x800000, 24) != 0xFF800000 {
		t.Fatalf("got %#x", SignExtend(0x800000, 24))
	}
	if SignExtend(0x7FFFFF, 24) != 0x7FFFFF {
		t.Fatalf("got %#x", SignExtend(0x7FFFFF, 24))
	}
}
