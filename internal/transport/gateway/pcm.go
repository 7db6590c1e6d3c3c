package gateway

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/pion/rtp"
)

// pcmPayloadType is the dynamic payload type used for 16-bit linear PCM.
const pcmPayloadType = 96

var errOddPayload = errors.New("pcm payload has an odd length")

// packetizer turns captured float32 frames into RTP packets carrying
// little-endian int16 samples.
type packetizer struct {
	ssrc      uint32
	seq       uint16
	timestamp uint32
}

func (p *packetizer) packet(samples []float32) ([]byte, error) {
	payload := make([]byte, 2*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(payload[2*i:], uint16(floatToPCM(s)))
	}
	pkt := rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			PayloadType:    pcmPayloadType,
			SequenceNumber: p.seq,
			Timestamp:      p.timestamp,
			SSRC:           p.ssrc,
		},
		Payload: payload,
	}
	p.seq++
	p.timestamp += uint32(len(samples))
	return pkt.Marshal()
}

// depacketize parses one RTP packet and decodes its samples.
func depacketize(data []byte) (rtp.Header, []float32, error) {
	var pkt rtp.Packet
	if err := pkt.Unmarshal(data); err != nil {
		return rtp.Header{}, nil, err
	}
	if len(pkt.Payload)%2 != 0 {
		return pkt.Header, nil, errOddPayload
	}
	samples := make([]float32, len(pkt.Payload)/2)
	for i := range samples {
		samples[i] = pcmToFloat(int16(binary.LittleEndian.Uint16(pkt.Payload[2*i:])))
	}
	return pkt.Header, samples, nil
}

func floatToPCM(s float32) int16 {
	s = max(-1, min(1, s))
	return int16(math.Round(float64(s) * math.MaxInt16))
}

func pcmToFloat(v int16) float32 {
	return max(-1, float32(v)/math.MaxInt16)
}
