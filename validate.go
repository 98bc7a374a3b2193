package hashcache

// Validator reports whether hash is a syntactically valid digest for algo.
// It must be pure: the cache calls it once per row while loading.
type Validator func(hash string, algo Algorithm) bool

// ValidateHash is the default Validator. A hash is valid when the algorithm is
// known and the string is exactly the hex encoding of a digest of that
// algorithm's size. Both letter cases are accepted.
func ValidateHash(hash string, algo Algorithm) bool {
	size := algo.DigestSize()
	if size == 0 || len(hash) != size*2 {
		return false
	}
	for i := 0; i < len(hash); i++ {
		if !isHexDigit(hash[i]) {
			return false
		}
	}
	return true
}

func isHexDigit(c byte) bool {
	switch {
	case '0' <= c && c <= '9':
		return true
	case 'a' <= c && c <= 'f':
		return true
	case 'A' <= c && c <= 'F':
		return true
	}
	return false
}
