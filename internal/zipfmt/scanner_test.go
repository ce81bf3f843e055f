package zipfmt_test

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/ossyrian/zipfix/internal/zipfmt"
)

func TestScanner_Find(t *testing.T) {
	dd := zipfmt.DataDescriptorMagic[:]
	filler := func(n int) []byte { return bytes.Repeat([]byte{'x'}, n) }

	tests := []struct {
		name      string
		input     []byte
		start     int64
		chunkSize int
		want      int64
		wantErr   error
	}{
		{
			name:      "in first chunk",
			input:     append(filler(10), append(dd, filler(2000)...)...),
			chunkSize: 1024,
			want:      10,
		},
		{
			name:      "in later chunk",
			input:     append(filler(3000), append(dd, filler(2000)...)...),
			chunkSize: 1024,
			want:      3000,
		},
		{
			name:      "split across chunk boundary",
			input:     append(filler(14), append(dd, filler(40)...)...),
			chunkSize: 16,
			want:      14,
		},
		{
			name:      "in final short chunk",
			input:     append(filler(30), dd...),
			chunkSize: 1024,
			want:      30,
		},
		{
			name:      "starts from current position",
			input:     append(dd, append(filler(7), append(dd, filler(5)...)...)...),
			start:     1,
			chunkSize: 8,
			want:      11,
		},
		{
			name:      "missing",
			input:     filler(5000),
			chunkSize: 1024,
			wantErr:   zipfmt.ErrNotFound,
		},
		{
			name:      "partial magic at end",
			input:     append(filler(20), dd[:3]...),
			chunkSize: 8,
			wantErr:   zipfmt.ErrNotFound,
		},
		{
			name:      "empty stream",
			input:     []byte{},
			chunkSize: 1024,
			wantErr:   zipfmt.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := bytes.NewReader(tt.input)
			if _, err := r.Seek(tt.start, io.SeekStart); err != nil {
				t.Fatal(err)
			}

			got, magic, err := zipfmt.NewScanner(r, tt.chunkSize).Find(zipfmt.DataDescriptorMagic)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Find() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Find() failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Find() = %d, want %d", got, tt.want)
			}
			if magic != zipfmt.DataDescriptorMagic {
				t.Errorf("Find() magic = %q", magic)
			}
			if pos, _ := r.Seek(0, io.SeekCurrent); pos != tt.want {
				t.Errorf("stream position = %d, want %d", pos, tt.want)
			}
		})
	}
}

func TestScanner_FindAny(t *testing.T) {
	input := []byte("xxxxPK\x01\x02yyyyPK\x03\x04")
	r := bytes.NewReader(input)

	off, magic, err := zipfmt.NewScanner(r, 0).Find(zipfmt.LocalHeaderMagic, zipfmt.CentralDirMagic)
	if err != nil {
		t.Fatalf("Find() failed: %v", err)
	}
	if off != 4 || magic != zipfmt.CentralDirMagic {
		t.Errorf("Find() = %d, %q, want 4, %q", off, magic, zipfmt.CentralDirMagic)
	}
}
