// Package webm is a minimal, write-only EBML muxer that produces a
// self-contained WebM segment carrying one Opus audio track. No WebM
// muxing library exists anywhere in the retrieval pack this module was
// built from, so this is hand-rolled, following the same low-level
// byte-oriented style the pack's binary PCM decoders use elsewhere.
package webm

import (
	"bytes"
	"encoding/binary"
	"math"
)

// EBML element IDs relevant to a WebM audio-only segment.
const (
	idEBML               = 0x1A45DFA3
	idEBMLVersion        = 0x4286
	idEBMLReadVersion    = 0x42F7
	idDocType            = 0x4282
	idDocTypeVersion     = 0x4287
	idDocTypeReadVersion = 0x4285

	idSegment = 0x18538067

	idInfo          = 0x1549A966
	idTimecodeScale = 0x2AD7B1
	idDuration      = 0x4489
	idMuxingApp     = 0x4D80
	idWritingApp    = 0x5741

	idTracks            = 0x1654AE6B
	idTrackEntry        = 0xAE
	idTrackNumber       = 0xD7
	idTrackUID          = 0x73C5
	idTrackType         = 0x83
	idCodecID           = 0x86
	idCodecPrivate      = 0x63A2
	idAudio             = 0xE1
	idSamplingFrequency = 0xB5
	idChannels          = 0x9F

	idCluster     = 0x1F43B675
	idTimecode    = 0xE7
	idSimpleBlock = 0xA3
)

// element writes one EBML element (id + vint size + payload).
func element(id uint32, payload []byte) []byte {
	var buf bytes.Buffer

	writeID(&buf, id)
	buf.Write(encodeVint(uint64(len(payload))))
	buf.Write(payload)

	return buf.Bytes()
}

func writeID(buf *bytes.Buffer, id uint32) {
	switch {
	case id <= 0xFF:
		buf.WriteByte(byte(id))
	case id <= 0xFFFF:
		var b [2]byte
		binary.BigEndian.PutUint16(b[:], uint16(id))
		buf.Write(b[:])
	case id <= 0xFFFFFF:
		buf.WriteByte(byte(id >> 16))
		buf.WriteByte(byte(id >> 8))
		buf.WriteByte(byte(id))
	default:
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], id)
		buf.Write(b[:])
	}
}

// encodeVint encodes v as an EBML variable-length integer, choosing the
// smallest width that fits (1-8 bytes).
func encodeVint(v uint64) []byte {
	for length := 1; length <= 8; length++ {
		maxVal := uint64(1)<<(7*length) - 1
		if v <= maxVal {
			out := make([]byte, length)

			marker := byte(1) << (8 - length)
			out[0] = marker

			for i := length - 1; i >= 0; i-- {
				out[i] |= byte(v) & 0xFF
				v >>= 8
			}

			return out
		}
	}

	return []byte{0x01, 0, 0, 0, 0, 0, 0, 0}
}

func uintElement(id uint32, v uint64) []byte {
	var payload []byte

	if v == 0 {
		payload = []byte{0}
	} else {
		for shift := 56; shift >= 0; shift -= 8 {
			b := byte(v >> shift)
			if len(payload) > 0 || b != 0 {
				payload = append(payload, b)
			}
		}
	}

	return element(id, payload)
}

func floatElement(id uint32, v float64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], math.Float64bits(v))

	return element(id, b[:])
}

func stringElement(id uint32, s string) []byte {
	return element(id, []byte(s))
}
