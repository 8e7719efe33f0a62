package cartview

import "strconv"

// FormatRupiah renders an integer Rupiah amount with id-ID dot grouping,
// e.g. 30000 -> "Rp 30.000". Negative amounts keep the sign after the label.
func FormatRupiah(v int64) string {
	s := strconv.FormatInt(v, 10)
	neg := false
	if len(s) > 0 && s[0] == '-' {
		neg = true
		s = s[1:]
	}
	n := len(s)
	if n > 3 {
		rem := n % 3
		if rem == 0 {
			rem = 3
		}
		out := s[:rem]
		for i := rem; i < n; i += 3 {
			out += "." + s[i:i+3]
		}
		s = out
	}
	if neg {
		return "Rp -" + s
	}
	return "Rp " + s
}
