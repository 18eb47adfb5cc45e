// Package mora splits kana readings into morae, the rhythmic unit that
// Japanese pitch is assigned to.
package mora

// smallKana lists the contracted kana that fuse with the preceding kana
// into a single mora (拗音 and small vowels). ッ, ン and ー are full morae.
const smallKana = "ゃゅょャュョぁぃぅぇぉァィゥェォ"

var smallSet map[rune]bool

func init() {
	smallSet = make(map[rune]bool)
	for _, r := range smallKana {
		smallSet[r] = true
	}
}

// IsSmall reports whether r is a contracted kana that does not form a mora
// on its own.
func IsSmall(r rune) bool { return smallSet[r] }

// Split breaks a kana reading into morae.
// A small kana joins the kana before it (longest match); everything else is
// its own mora.
func Split(reading string) []string {
	runes := []rune(reading)
	var result []string
	for i := 0; i < len(runes); {
		if i+1 < len(runes) && smallSet[runes[i+1]] {
			result = append(result, string(runes[i:i+2]))
			i += 2
			continue
		}
		result = append(result, string(runes[i:i+1]))
		i++
	}
	return result
}

// Count returns the number of morae in a reading without allocating.
func Count(reading string) int {
	n := 0
	for _, r := range reading {
		if !smallSet[r] {
			n++
		}
	}
	return n
}

// ToKatakana converts hiragana to katakana, leaving other runes untouched.
func ToKatakana(s string) string {
	out := []rune(s)
	for i, r := range out {
		if r >= 'ぁ' && r <= 'ゖ' {
			out[i] = r + 0x60
		}
	}
	return string(out)
}
