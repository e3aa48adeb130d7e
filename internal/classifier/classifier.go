// Package classifier tags log lines as MCS updates, flow headers, hex dump
// rows or other text.
package classifier

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/DavidRicoCodes/AmarisoftAPI/internal/core"
)

var (
	mcsPattern  = regexp.MustCompile(`(?i)^\s*mcs=(\d+)`)
	flowPattern = regexp.MustCompile(
		`^(\d{2}:\d{2}:\d{2}\.\d{3}).*\[IP\].*? (\d+\.\d+\.\d+\.\d+):(\d+) > (\d+\.\d+\.\d+\.\d+):(\d+)`)
	hexPattern = regexp.MustCompile(`^\s*([0-9a-fA-F]{4}):\s*(.*)`)
)

// Classify tags one line. Grammars are tried in a fixed order (MCS, flow
// header, hex row) and the first match wins.
func Classify(text string) core.Line {
	if v, ok := matchMcs(text); ok {
		return core.Line{Kind: core.KindMcs, Mcs: v}
	}
	if flow, ok := MatchFlowHeader(text); ok {
		return core.Line{Kind: core.KindFlowHeader, Flow: flow}
	}
	if row, ok := MatchHexRow(text); ok {
		return core.Line{Kind: core.KindHexRow, Row: row}
	}
	return core.Line{Kind: core.KindOther}
}

// matchMcs reports the MCS value of an `mcs=<n>` line. A digit run that
// does not fit in uint64 is not an MCS line.
func matchMcs(text string) (uint64, bool) {
	m := mcsPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseUint(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// MatchFlowHeader parses an `HH:MM:SS.mmm ... [IP] a.b.c.d:p > e.f.g.h:q` line.
func MatchFlowHeader(text string) (core.FlowHeader, bool) {
	m := flowPattern.FindStringSubmatch(text)
	if m == nil {
		return core.FlowHeader{}, false
	}
	return core.FlowHeader{
		LogTimestamp: m[1],
		SrcIP:        m[2],
		SrcPort:      m[3],
		DstIP:        m[4],
		DstPort:      m[5],
	}, true
}

// MatchHexRow parses an `oooo: hh hh ...` dump row. The remainder is kept
// with all whitespace removed.
func MatchHexRow(text string) (core.HexRow, bool) {
	m := hexPattern.FindStringSubmatch(text)
	if m == nil {
		return core.HexRow{}, false
	}
	off, err := strconv.ParseUint(m[1], 16, 16)
	if err != nil {
		return core.HexRow{}, false
	}
	return core.HexRow{Offset: uint16(off), Data: stripSpace(m[2])}, true
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
