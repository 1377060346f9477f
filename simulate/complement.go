package simulate

// complementTable maps each IUPAC base code to its Watson-Crick
// complement; '-' maps to itself; anything else maps to 0 and must never
// occur in a mutated read (spec.md §4.6).
var complementTable = buildComplementTable()

func buildComplementTable() [256]byte {
	var t [256]byte
	pairs := map[byte]byte{
		'A': 'T', 'T': 'A', 'C': 'G', 'G': 'C',
		'R': 'Y', 'Y': 'R', 'S': 'S', 'W': 'W',
		'K': 'M', 'M': 'K', 'B': 'V', 'V': 'B',
		'D': 'H', 'H': 'D', 'N': 'N', '-': '-',
	}
	for k, v := range pairs {
		t[k] = v
		t[byte(lower(k))] = byte(lower(v))
	}
	return t
}

func lower(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}

// Complement returns the Watson-Crick complement of b, or 0 if b is not a
// recognized IUPAC code.
func Complement(b byte) byte { return complementTable[b] }

// ReverseComplement returns the reverse complement of s. It is the
// caller's responsibility to ensure every byte in s is a recognized IUPAC
// code; an unrecognized byte reverse-complements to 0.
func ReverseComplement(s []byte) []byte {
	out := make([]byte, len(s))
	n := len(s)
	for i, b := range s {
		out[n-1-i] = Complement(b)
	}
	return out
}
