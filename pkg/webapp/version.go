package webapp

import (
	"strconv"
	"strings"
)

// CompareVersions compares two dotted version strings segment by numeric
// segment, returning -1, 0 or 1. Missing segments count as zero, so
// "6.1" == "6.1.0"; non-numeric segments also count as zero.
func CompareVersions(a, b string) int {
	as := strings.Split(strings.TrimSpace(a), ".")
	bs := strings.Split(strings.TrimSpace(b), ".")
	n := len(as)
	if len(bs) > n {
		n = len(bs)
	}
	for i := 0; i < n; i++ {
		av, bv := 0, 0
		if i < len(as) {
			av, _ = strconv.Atoi(as[i])
		}
		if i < len(bs) {
			bv, _ = strconv.Atoi(bs[i])
		}
		if av != bv {
			if av < bv {
				return -1
			}
			return 1
		}
	}
	return 0
}

// IsVersionAtLeast reports whether the host version is at least v.
func (w *WebApp) IsVersionAtLeast(v string) bool {
	return CompareVersions(w.version, v) >= 0
}
