package decoder

import (
	"encoding/hex"
	"sort"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/DavidRicoCodes/AmarisoftAPI/internal/core"
)

// Datagram lays rows out at their declared offsets and returns the
// contiguous prefix starting at offset 0. A row contributes at most the
// bytes up to the next declared offset, so trailing ASCII columns of a dump
// are not read as data. Decoding of a row stops at its first non-hex pair.
func Datagram(block core.HexBlock) []byte {
	if len(block) == 0 {
		return nil
	}
	rows := make(core.HexBlock, len(block))
	copy(rows, block)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Offset < rows[j].Offset })

	var out []byte
	for i, row := range rows {
		if int(row.Offset) != len(out) {
			if int(row.Offset) < len(out) {
				continue // duplicate or overlapping row
			}
			break // gap
		}
		limit := row.Len()
		if i+1 < len(rows) && rows[i+1].Offset > row.Offset {
			if gap := int(rows[i+1].Offset - row.Offset); gap < limit {
				limit = gap
			}
		}
		out = append(out, decodePairs(row.Data, limit)...)
		if len(out) < int(row.Offset)+limit {
			break // row ended early, anything after would be misplaced
		}
	}
	return out
}

func decodePairs(digits string, limit int) []byte {
	out := make([]byte, 0, limit)
	for i := 0; i < limit; i++ {
		b, err := hex.DecodeString(digits[2*i : 2*i+2])
		if err != nil {
			break
		}
		out = append(out, b[0])
	}
	return out
}

// Inspect decodes the reconstructed datagram with gopacket and reports the
// IP and UDP header values it finds. It returns nil when no IP layer can be
// decoded.
func Inspect(block core.HexBlock) *core.Inspection {
	data := Datagram(block)
	if len(data) == 0 {
		return nil
	}

	var first gopacket.LayerType
	switch data[0] >> 4 {
	case 4:
		first = layers.LayerTypeIPv4
	case 6:
		first = layers.LayerTypeIPv6
	default:
		return nil
	}

	pkt := gopacket.NewPacket(data, first, gopacket.DecodeOptions{Lazy: true, NoCopy: true})

	ins := &core.Inspection{}
	if l := pkt.Layer(layers.LayerTypeIPv4); l != nil {
		ip := l.(*layers.IPv4)
		ins.Version = core.SomeUint(uint64(ip.Version))
		ins.TotalLength = core.SomeUint(uint64(ip.Length))
		ins.TTL = core.SomeUint(uint64(ip.TTL))
		ins.Protocol = core.SomeUint(uint64(ip.Protocol))
	} else if l := pkt.Layer(layers.LayerTypeIPv6); l != nil {
		ip := l.(*layers.IPv6)
		ins.Version = core.SomeUint(uint64(ip.Version))
		ins.TotalLength = core.SomeUint(40 + uint64(ip.Length))
		ins.TTL = core.SomeUint(uint64(ip.HopLimit))
		ins.Protocol = core.SomeUint(uint64(ip.NextHeader))
	} else {
		return nil
	}

	if l := pkt.Layer(layers.LayerTypeUDP); l != nil {
		ins.UDPLength = core.SomeUint(uint64(l.(*layers.UDP).Length))
	}
	return ins
}
