// firmware_image_test.go - Firmware image format tests

package main

import (
	"bytes"
	"errors"
	"testing"
)

func testImage(t *testing.T) []byte {
	t.Helper()
	img, err := BuildFirmwareImage(
		bytes.Repeat([]byte{0xC1}, BANK_SIZE),
		bytes.Repeat([]byte{0xA1}, BANK_SIZE),
		bytes.Repeat([]byte{0xB1}, BANK_SIZE),
	)
	if err != nil {
		t.Fatalf("BuildFirmwareImage: %v", err)
	}
	return img
}

func TestFirmwareImageRoundTrip(t *testing.T) {
	data := testImage(t)
	img, err := ParseFirmwareImage(data)
	if err != nil {
		t.Fatalf("ParseFirmwareImage: %v", err)
	}
	if img.Version != FW_VERSION {
		t.Errorf("version = %d, want %d", img.Version, FW_VERSION)
	}
	if img.Common[0] != 0xC1 || img.BankA[0] != 0xA1 || img.BankB[0] != 0xB1 {
		t.Error("segments split in the wrong order")
	}
}

func TestFirmwareImageRejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(data []byte) []byte
		wantErr error
	}{
		{
			name:    "truncated",
			mutate:  func(d []byte) []byte { return d[:100] },
			wantErr: ErrImageSize,
		},
		{
			name: "bad magic",
			mutate: func(d []byte) []byte {
				d[3*BANK_SIZE] = 'X'
				return d
			},
			wantErr: ErrImageMagic,
		},
		{
			name: "corrupt bank B",
			mutate: func(d []byte) []byte {
				d[2*BANK_SIZE+17] ^= 0xFF
				return d
			},
			wantErr: ErrImageCRC,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.mutate(testImage(t))
			_, err := ParseFirmwareImage(data)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestFirmwareImageInstall(t *testing.T) {
	img, err := ParseFirmwareImage(testImage(t))
	if err != nil {
		t.Fatalf("ParseFirmwareImage: %v", err)
	}

	bc := NewBankController()
	if err := img.Install(bc); err != nil {
		t.Fatalf("Install: %v", err)
	}

	if got := bc.CodeRead(0x0100); got != 0xC1 {
		t.Errorf("common byte = 0x%02X, want 0xC1", got)
	}
	if got := bc.CodeRead(0x8100); got != 0xA1 {
		t.Errorf("bank A byte through window = 0x%02X, want 0xA1", got)
	}
}

func TestBuildFirmwareImagePadsShortSegments(t *testing.T) {
	img, err := BuildFirmwareImage([]byte{1, 2, 3}, nil, nil)
	if err != nil {
		t.Fatalf("BuildFirmwareImage: %v", err)
	}
	parsed, err := ParseFirmwareImage(img)
	if err != nil {
		t.Fatalf("ParseFirmwareImage of padded image: %v", err)
	}
	if parsed.Common[2] != 3 || parsed.Common[3] != 0 {
		t.Error("short segment not zero-padded in place")
	}

	if _, err := BuildFirmwareImage(make([]byte, BANK_SIZE+1), nil, nil); !errors.Is(err, ErrImageSize) {
		t.Errorf("oversized segment error = %v, want ErrImageSize", err)
	}
}
