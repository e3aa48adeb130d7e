package summary

import (
	"strconv"
	"strings"

	"github.com/DavidRicoCodes/AmarisoftAPI/internal/config"
)

// RequestedBandwidth reads iperf client commands of a descriptor and
// returns the requested rate per destination port in MBps. A command
// counts when it has both -b and -p. Rates ending in M are Mbit/s, in K
// Kbit/s (1024 per M), and bare numbers are taken as Mbit/s. A later
// command for the same port wins.
func RequestedBandwidth(d *config.Descriptor) map[int]float64 {
	out := make(map[int]float64)
	if d == nil {
		return out
	}
	for _, c := range d.Commands {
		parts := strings.Fields(c.Command)
		bw, okB := flagValue(parts, "-b")
		portStr, okP := flagValue(parts, "-p")
		if !okB || !okP {
			continue
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			continue
		}
		mbits, ok := parseMbits(bw)
		if !ok {
			continue
		}
		out[port] = mbits / 8
	}
	return out
}

func flagValue(parts []string, flag string) (string, bool) {
	for i, p := range parts {
		if p == flag {
			if i+1 < len(parts) {
				return parts[i+1], true
			}
			return "", false
		}
	}
	return "", false
}

func parseMbits(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	div := 1.0
	switch strings.ToLower(s[len(s)-1:]) {
	case "m":
		s = s[:len(s)-1]
	case "k":
		s, div = s[:len(s)-1], 1024
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v / div, true
}
