// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package efivarfs

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// Device path node types and subtypes understood by this package.
const (
	typeMessaging uint8 = 0x03
	typeMedia     uint8 = 0x04
	typeEnd       uint8 = 0x7f

	subTypeURI       uint8 = 24
	subTypeHardDrive uint8 = 0x01
	subTypeFilePath  uint8 = 0x04

	subTypeEndInstance uint8 = 0x01
	subTypeEndEntire   uint8 = 0xff
)

// DevicePathElement is a single node of an EFI device path.
type DevicePathElement interface {
	typ() uint8
	subType() uint8
	data() ([]byte, error)
	clone() DevicePathElement
	String() string
}

// DevicePath is a sequence of device path nodes, terminated by an end node
// when marshaled.
type DevicePath []DevicePathElement

// FilePath is a media file path node.
type FilePath string

func (FilePath) typ() uint8     { return typeMedia }
func (FilePath) subType() uint8 { return subTypeFilePath }

func (p FilePath) data() ([]byte, error) {
	if strings.IndexByte(string(p), 0x00) != -1 {
		return nil, errors.New("file path contains null bytes")
	}

	out, err := Encoding.NewEncoder().Bytes([]byte(p))
	if err != nil {
		return nil, fmt.Errorf("failed to encode file path: %w", err)
	}

	return append(out, 0x00, 0x00), nil
}

func (p FilePath) clone() DevicePathElement { return p }

func (p FilePath) String() string { return string(p) }

// HardDrivePartition is a GPT hard drive media node.
type HardDrivePartition struct {
	Number        uint32
	StartBlock    uint64
	SizeBlocks    uint64
	PartitionUUID uuid.UUID
}

func (*HardDrivePartition) typ() uint8     { return typeMedia }
func (*HardDrivePartition) subType() uint8 { return subTypeHardDrive }

func (p *HardDrivePartition) data() ([]byte, error) {
	out := make([]byte, 38)

	binary.LittleEndian.PutUint32(out[0:4], p.Number)
	binary.LittleEndian.PutUint64(out[4:12], p.StartBlock)
	binary.LittleEndian.PutUint64(out[12:20], p.SizeBlocks)

	guid := mixedEndianGUID([16]byte(p.PartitionUUID))
	copy(out[20:36], guid[:])

	out[36] = 0x02 // GPT
	out[37] = 0x02 // GUID signature

	return out, nil
}

func (p *HardDrivePartition) clone() DevicePathElement {
	c := *p

	return &c
}

func (p *HardDrivePartition) String() string {
	return fmt.Sprintf("HD(%d,GPT,%s)", p.Number, p.PartitionUUID)
}

// URI is a messaging URI node, used by HTTP boot entries.
type URI string

func (URI) typ() uint8     { return typeMessaging }
func (URI) subType() uint8 { return subTypeURI }

func (u URI) data() ([]byte, error) { return []byte(u), nil }

func (u URI) clone() DevicePathElement { return u }

func (u URI) String() string { return fmt.Sprintf("Uri(%s)", string(u)) }

// UnknownPath is a node this package does not interpret.
type UnknownPath struct {
	TypeVal    uint8
	SubTypeVal uint8
	DataVal    []byte
}

func (p *UnknownPath) typ() uint8     { return p.TypeVal }
func (p *UnknownPath) subType() uint8 { return p.SubTypeVal }

func (p *UnknownPath) data() ([]byte, error) { return p.DataVal, nil }

func (p *UnknownPath) clone() DevicePathElement {
	return &UnknownPath{
		TypeVal:    p.TypeVal,
		SubTypeVal: p.SubTypeVal,
		DataVal:    slices.Clone(p.DataVal),
	}
}

func (p *UnknownPath) String() string {
	return fmt.Sprintf("Path(%d,%d,%s)", p.TypeVal, p.SubTypeVal, hex.EncodeToString(p.DataVal))
}

// Clone returns a deep copy of the device path.
func (d DevicePath) Clone() DevicePath {
	if d == nil {
		return nil
	}

	out := make(DevicePath, 0, len(d))

	for _, e := range d {
		out = append(out, e.clone())
	}

	return out
}

// String formats the device path in a form close to the UEFI text representation.
func (d DevicePath) String() string {
	parts := make([]string, 0, len(d))

	for _, e := range d {
		parts = append(parts, e.String())
	}

	return strings.Join(parts, "/")
}

// FilePath returns the first file path node of the device path, if any.
func (d DevicePath) FilePath() (string, bool) {
	for _, e := range d {
		if p, ok := e.(FilePath); ok {
			return string(p), true
		}
	}

	return "", false
}

// Marshal encodes the device path into its binary representation, including
// the end-of-path node.
func (d DevicePath) Marshal() ([]byte, error) {
	var buf []byte

	for _, e := range d {
		data, err := e.data()
		if err != nil {
			return nil, fmt.Errorf("failed marshaling %s: %w", e, err)
		}

		if len(data)+4 > math.MaxUint16 {
			return nil, fmt.Errorf("device path node %s too big: %d bytes", e, len(data))
		}

		buf = append(buf, e.typ(), e.subType())
		buf = append16(buf, uint16(len(data)+4))
		buf = append(buf, data...)
	}

	return append(buf, typeEnd, subTypeEndEntire, 0x04, 0x00), nil
}

// UnmarshalDevicePath decodes one device path from data and returns the
// remaining bytes following its end node.
func UnmarshalDevicePath(data []byte) (DevicePath, []byte, error) {
	var path DevicePath

	for {
		if len(data) < 4 {
			return nil, nil, fmt.Errorf("device path node header needs 4 bytes, got %d", len(data))
		}

		typ, subType := data[0], data[1]
		length := int(binary.LittleEndian.Uint16(data[2:4]))

		if length < 4 || length > len(data) {
			return nil, nil, fmt.Errorf("invalid device path node length %d (available %d)", length, len(data))
		}

		payload := data[4:length]
		data = data[length:]

		if typ == typeEnd {
			if subType == subTypeEndEntire || subType == subTypeEndInstance {
				return path, data, nil
			}

			return nil, nil, fmt.Errorf("invalid end node subtype %#x", subType)
		}

		elem, err := unmarshalElement(typ, subType, payload)
		if err != nil {
			return nil, nil, err
		}

		path = append(path, elem)
	}
}

func unmarshalElement(typ, subType uint8, payload []byte) (DevicePathElement, error) {
	switch {
	case typ == typeMedia && subType == subTypeFilePath:
		decoded, err := Encoding.NewDecoder().Bytes(payload)
		if err != nil {
			return nil, fmt.Errorf("error decoding file path: %w", err)
		}

		return FilePath(bytes.TrimRight(decoded, "\x00")), nil
	case typ == typeMedia && subType == subTypeHardDrive && len(payload) == 38 && payload[36] == 0x02:
		var guid [16]byte

		copy(guid[:], payload[20:36])

		return &HardDrivePartition{
			Number:        binary.LittleEndian.Uint32(payload[0:4]),
			StartBlock:    binary.LittleEndian.Uint64(payload[4:12]),
			SizeBlocks:    binary.LittleEndian.Uint64(payload[12:20]),
			PartitionUUID: uuid.UUID(mixedEndianGUID(guid)),
		}, nil
	case typ == typeMessaging && subType == subTypeURI:
		return URI(payload), nil
	default:
		return &UnknownPath{
			TypeVal:    typ,
			SubTypeVal: subType,
			DataVal:    slices.Clone(payload),
		}, nil
	}
}

// mixedEndianGUID converts between the RFC 4122 byte order and the EFI one,
// where the first three fields are little-endian. The conversion is its own inverse.
func mixedEndianGUID(in [16]byte) [16]byte {
	out := in

	out[0], out[1], out[2], out[3] = in[3], in[2], in[1], in[0]
	out[4], out[5] = in[5], in[4]
	out[6], out[7] = in[7], in[6]

	return out
}
