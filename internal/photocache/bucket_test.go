package photocache

import "testing"

func TestBucket(t *testing.T) {
	tests := []struct {
		size int
		want int
	}{
		{size: 1, want: 1},
		{size: 2, want: 2},
		{size: 3, want: 4},
		{size: 5, want: 8},
		{size: 17, want: 32},
		{size: 64, want: 64},
		{size: 65, want: 128},
		{size: 1000, want: 1024},
		{size: 0, want: 0},
		{size: -5, want: 0},
		{size: maxBucket + 1, want: 0},
	}

	for _, tt := range tests {
		if got := Bucket(tt.size); got != tt.want {
			t.Errorf("Bucket(%d) = %d, want %d", tt.size, got, tt.want)
		}
	}
}

func TestBucketProperties(t *testing.T) {
	for n := 1; n <= 5000; n++ {
		b := Bucket(n)
		if b&(b-1) != 0 {
			t.Fatalf("Bucket(%d) = %d is not a power of two", n, b)
		}
		if b < n {
			t.Fatalf("Bucket(%d) = %d is smaller than the request", n, b)
		}
		if n > 1 && b >= 2*n {
			t.Fatalf("Bucket(%d) = %d is not the smallest power of two", n, b)
		}
	}
}

func TestDerivedLongSide(t *testing.T) {
	tests := []struct {
		name         string
		bucket, w, h int
		want         int
	}{
		{name: "landscape 2:1", bucket: 64, w: 200, h: 100, want: 128},
		{name: "portrait 1:2", bucket: 64, w: 100, h: 200, want: 128},
		{name: "square", bucket: 32, w: 300, h: 300, want: 32},
		{name: "rounds", bucket: 8, w: 300, h: 200, want: 12},
		{name: "wide 2:1", bucket: 50, w: 200, h: 100, want: 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := derivedLongSide(tt.bucket, tt.w, tt.h); got != tt.want {
				t.Errorf("derivedLongSide(%d, %d, %d) = %d, want %d", tt.bucket, tt.w, tt.h, got, tt.want)
			}
		})
	}
}

func TestContactKeyFolder(t *testing.T) {
	a := NewContactKey(1, "card.vcf")
	b := NewContactKey(1, "card.vcf")
	c := NewContactKey(2, "card.vcf")

	if a.Folder() != b.Folder() {
		t.Error("same address book and card should map to the same folder")
	}
	if a.Folder() == c.Folder() {
		t.Error("different address books should map to different folders")
	}
	if got, want := a.Folder(), "5fefd9ea6f9e330cc8f0d54b4f982f99"; got != want {
		t.Errorf("Folder() = %q, want md5 of \"1 card.vcf\" %q", got, want)
	}
}
