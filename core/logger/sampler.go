package logger

import (
	"strconv"
	"strings"
	"sync/atomic"
)

// sampler admits n of every d calls. A zero ratio admits everything.
type sampler struct {
	ratio atomic.Uint64 // n<<32 | d
	seq   atomic.Uint64
}

func (s *sampler) set(n, d int) {
	s.seq.Store(0)
	if n <= 0 || d <= 0 || n >= d {
		s.ratio.Store(0)
		return
	}
	s.ratio.Store(uint64(n)<<32 | uint64(d))
}

func (s *sampler) allow() bool {
	r := s.ratio.Load()
	if r == 0 {
		return true
	}
	n, d := r>>32, r&0xffffffff
	return (s.seq.Add(1)-1)%d < n
}

// parseRatio reads "n/d" or a bare "d" (meaning 1/d). "0", "off" and "all"
// disable sampling. Unreadable input yields the default 1/50.
func parseRatio(raw string) (int, int) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	switch raw {
	case "":
		return 1, 50
	case "0", "off", "all", "none":
		return 0, 0
	}
	num, den := "1", raw
	if a, b, ok := strings.Cut(raw, "/"); ok {
		num, den = a, b
	}
	n, err1 := strconv.Atoi(strings.TrimSpace(num))
	d, err2 := strconv.Atoi(strings.TrimSpace(den))
	if err1 != nil || err2 != nil || n <= 0 || d <= 0 {
		return 1, 50
	}
	return n, d
}
