package rfb

import "testing"

func TestBGRAToServerRGBA(t *testing.T) {
	bgra := []byte{
		255, 0, 0, 255, // blue pixel (B=255,G=0,R=0)
		0, 255, 0, 0, // green pixel, alpha ignored on input
		0, 0, 255, 255, // red pixel
	}

	rgba := BGRAToServerRGBA(bgra, nil)

	want := []byte{
		0, 0, 255, 255,
		0, 255, 0, 255,
		255, 0, 0, 255,
	}
	for i := range want {
		if rgba[i] != want[i] {
			t.Fatalf("byte %d = %d, want %d (got %v)", i, rgba[i], want[i], rgba)
		}
	}
}

func TestBGRAToServerRGBAReusesDst(t *testing.T) {
	bgra := []byte{10, 20, 30, 99}
	dst := make([]byte, 4)

	got := BGRAToServerRGBA(bgra, dst)
	if &got[0] != &dst[0] {
		t.Fatal("BGRAToServerRGBA should write into the supplied dst buffer")
	}
	if got[0] != 30 || got[1] != 20 || got[2] != 10 || got[3] != 255 {
		t.Fatalf("got %v, want [30 20 10 255]", got)
	}
}
