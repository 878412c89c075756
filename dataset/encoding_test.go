package dataset

import "testing"

func TestEncodeDecodePoint_RoundTrip(t *testing.T) {
	orig := []float64{0.0, 1.5, -2.25, 3.75, 1e-300}

	decoded, err := DecodePoint(EncodePoint(orig))
	if err != nil {
		t.Fatalf("DecodePoint failed: %v", err)
	}
	if len(decoded) != len(orig) {
		t.Fatalf("decoded length = %d, want %d", len(decoded), len(orig))
	}
	for i := range orig {
		if got, want := decoded[i], orig[i]; got != want {
			t.Fatalf("decoded[%d] = %v, want %v", i, got, want)
		}
	}
}

func TestEncodeDecodePoint_Empty(t *testing.T) {
	if b := EncodePoint(nil); len(b) != 0 {
		t.Fatalf("expected empty blob for nil slice, got len=%d", len(b))
	}
	coords, err := DecodePoint(nil)
	if err != nil {
		t.Fatalf("DecodePoint(nil) failed: %v", err)
	}
	if len(coords) != 0 {
		t.Fatalf("expected empty slice for nil blob, got len=%d", len(coords))
	}
}

func TestDecodePoint_InvalidLength(t *testing.T) {
	if _, err := DecodePoint(make([]byte, 12)); err == nil {
		t.Fatalf("expected error for 12-byte blob")
	}
}
