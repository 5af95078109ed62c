package webm

const (
	timecodeScaleNs = 1_000_000 // 1ms per timecode tick
	trackNumber     = 1
	trackUID        = 1
)

// Packet is one encoded Opus packet with its presentation timestamp in
// milliseconds relative to the start of the segment.
type Packet struct {
	TimecodeMs int64
	Data       []byte
}

// Mux builds a self-contained WebM segment carrying opusHeader (the Opus
// ID header, used verbatim as CodecPrivate) and the given Opus packets on
// a single audio track.
func Mux(sampleRate int, channels int, opusHeader []byte, packets []Packet) []byte {
	var out []byte

	out = append(out, ebmlHeader()...)

	var segmentBody []byte
	segmentBody = append(segmentBody, infoElement()...)
	segmentBody = append(segmentBody, tracksElement(sampleRate, channels, opusHeader)...)
	segmentBody = append(segmentBody, clusterElement(packets)...)

	out = append(out, element(idSegment, segmentBody)...)

	return out
}

func ebmlHeader() []byte {
	body := append([]byte{}, uintElement(idEBMLVersion, 1)...)
	body = append(body, uintElement(idEBMLReadVersion, 1)...)
	body = append(body, stringElement(idDocType, "webm")...)
	body = append(body, uintElement(idDocTypeVersion, 2)...)
	body = append(body, uintElement(idDocTypeReadVersion, 2)...)

	return element(idEBML, body)
}

func infoElement() []byte {
	body := append([]byte{}, uintElement(idTimecodeScale, timecodeScaleNs)...)
	body = append(body, stringElement(idMuxingApp, "auralis")...)
	body = append(body, stringElement(idWritingApp, "auralis")...)

	return element(idInfo, body)
}

func tracksElement(sampleRate, channels int, opusHeader []byte) []byte {
	audioBody := append([]byte{}, floatElement(idSamplingFrequency, float64(sampleRate))...)
	audioBody = append(audioBody, uintElement(idChannels, uint64(channels))...)

	entryBody := append([]byte{}, uintElement(idTrackNumber, trackNumber)...)
	entryBody = append(entryBody, uintElement(idTrackUID, trackUID)...)
	entryBody = append(entryBody, uintElement(idTrackType, 2)...) // 2 = audio
	entryBody = append(entryBody, stringElement(idCodecID, "A_OPUS")...)
	entryBody = append(entryBody, element(idCodecPrivate, opusHeader)...)
	entryBody = append(entryBody, element(idAudio, audioBody)...)

	entry := element(idTrackEntry, entryBody)

	return element(idTracks, entry)
}

func clusterElement(packets []Packet) []byte {
	if len(packets) == 0 {
		body := uintElement(idTimecode, 0)

		return element(idCluster, body)
	}

	baseTimecode := packets[0].TimecodeMs

	body := uintElement(idTimecode, uint64(baseTimecode))

	for _, p := range packets {
		rel := p.TimecodeMs - baseTimecode
		body = append(body, simpleBlock(rel, p.Data)...)
	}

	return element(idCluster, body)
}

// simpleBlock encodes one SimpleBlock: track number (vint) + 16-bit signed
// relative timecode + flags byte (0x80 = keyframe, every Opus frame is
// independently decodable) + frame data.
func simpleBlock(relativeTimecodeMs int64, data []byte) []byte {
	var payload []byte

	payload = append(payload, encodeVint(trackNumber)...)
	payload = append(payload, byte(relativeTimecodeMs>>8), byte(relativeTimecodeMs))
	payload = append(payload, 0x80)
	payload = append(payload, data...)

	return element(idSimpleBlock, payload)
}
