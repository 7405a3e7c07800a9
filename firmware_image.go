// firmware_image.go - NB583 firmware image loading and installation

/*
 ██████╗ ██████╗ ██████╗ ███████╗██████╗ ██████╗ ██╗██████╗  ██████╗ ███████╗
██╔════╝██╔═══██╗██╔══██╗██╔════╝██╔══██╗██╔══██╗██║██╔══██╗██╔════╝ ██╔════╝
██║     ██║   ██║██████╔╝█████╗  ██████╔╝██████╔╝██║██║  ██║██║  ███╗█████╗
██║     ██║   ██║██╔══██╗██╔══╝  ██╔══██╗██╔══██╗██║██║  ██║██║   ██║██╔══╝
╚██████╗╚██████╔╝██║  ██║███████╗██████╔╝██║  ██║██║██████╔╝╚██████╔╝███████╗
 ╚═════╝ ╚═════╝ ╚═╝  ╚═╝╚══════╝╚═════╝ ╚═╝  ╚═╝╚═╝╚═════╝  ╚═════╝ ╚══════╝

(c) 2025 - 2026 CoreBridge Project
https://github.com/corebridge/CoreBridge
License: GPLv3 or later
*/

/*
firmware_image.go - Firmware Image Format

An NB583 firmware image is three 32KB code segments back to back,
common segment first, then bank A, then bank B, followed by a 16-byte
trailer:

	offset  size  field
	0       4     magic "NB58"
	4       1     image format version (currently 1)
	5       1     CRC8 of the common segment
	6       1     CRC8 of bank A
	7       1     CRC8 of bank B
	8       8     reserved, zero

The per-segment checksum is CRC8/MAXIM, the polynomial the chip's
serial-bus peripherals already speak. Images with the wrong size, a
bad magic, an unknown version or a checksum mismatch are rejected
before anything is installed.
*/

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/sigurn/crc8"
)

const (
	FW_MAGIC       = "NB58"
	FW_VERSION     = 1
	FW_TRAILER_LEN = 16
	FW_IMAGE_LEN   = 3*BANK_SIZE + FW_TRAILER_LEN
)

var (
	ErrImageSize  = errors.New("firmware image: wrong size")
	ErrImageMagic = errors.New("firmware image: bad magic")
	ErrImageCRC   = errors.New("firmware image: checksum mismatch")
)

var fwCRCTable = crc8.MakeTable(crc8.CRC8_MAXIM)

// FirmwareImage is a parsed, checksum-verified image.
type FirmwareImage struct {
	Version uint8
	Common  []byte
	BankA   []byte
	BankB   []byte
}

// LoadFirmwareImage reads and parses an image file.
func LoadFirmwareImage(path string) (*FirmwareImage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("firmware image: %w", err)
	}
	return ParseFirmwareImage(data)
}

// ParseFirmwareImage validates geometry, magic, version and the three
// segment checksums, then returns the split segments.
func ParseFirmwareImage(data []byte) (*FirmwareImage, error) {
	if len(data) != FW_IMAGE_LEN {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrImageSize, len(data), FW_IMAGE_LEN)
	}

	trailer := data[3*BANK_SIZE:]
	if string(trailer[:4]) != FW_MAGIC {
		return nil, fmt.Errorf("%w: %q", ErrImageMagic, trailer[:4])
	}
	version := trailer[4]
	if version != FW_VERSION {
		return nil, fmt.Errorf("firmware image: unsupported version %d", version)
	}

	img := &FirmwareImage{
		Version: version,
		Common:  data[0*BANK_SIZE : 1*BANK_SIZE],
		BankA:   data[1*BANK_SIZE : 2*BANK_SIZE],
		BankB:   data[2*BANK_SIZE : 3*BANK_SIZE],
	}

	segs := []struct {
		name string
		data []byte
		want uint8
	}{
		{"common", img.Common, trailer[5]},
		{"bankA", img.BankA, trailer[6]},
		{"bankB", img.BankB, trailer[7]},
	}
	for _, s := range segs {
		if got := crc8.Checksum(s.data, fwCRCTable); got != s.want {
			return nil, fmt.Errorf("%w: segment %s got 0x%02X want 0x%02X", ErrImageCRC, s.name, got, s.want)
		}
	}

	return img, nil
}

// Install loads the three segments into the bank controller.
func (img *FirmwareImage) Install(bc *BankController) error {
	if err := bc.InstallSegment(BankCommon, img.Common); err != nil {
		return err
	}
	if err := bc.InstallSegment(BankA, img.BankA); err != nil {
		return err
	}
	return bc.InstallSegment(BankB, img.BankB)
}

// BuildFirmwareImage assembles a valid image from three segments,
// computing the trailer. Segments shorter than a bank are zero-padded;
// longer ones are an error. Used by tooling and tests.
func BuildFirmwareImage(common, bankA, bankB []byte) ([]byte, error) {
	out := make([]byte, FW_IMAGE_LEN)
	for i, seg := range [][]byte{common, bankA, bankB} {
		if len(seg) > BANK_SIZE {
			return nil, fmt.Errorf("%w: segment %d is %d bytes", ErrImageSize, i, len(seg))
		}
		copy(out[i*BANK_SIZE:(i+1)*BANK_SIZE], seg)
	}
	trailer := out[3*BANK_SIZE:]
	copy(trailer, FW_MAGIC)
	trailer[4] = FW_VERSION
	trailer[5] = crc8.Checksum(out[0*BANK_SIZE:1*BANK_SIZE], fwCRCTable)
	trailer[6] = crc8.Checksum(out[1*BANK_SIZE:2*BANK_SIZE], fwCRCTable)
	trailer[7] = crc8.Checksum(out[2*BANK_SIZE:3*BANK_SIZE], fwCRCTable)
	return out, nil
}
