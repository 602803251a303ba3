package tail

// FontSize is one step of the log font scale.
type FontSize string

// FontScale is ordered smallest first.
var FontScale = []FontSize{"xs", "sm", "md", "lg", "xl", "xxl"}

// DefaultFont is used when no preference is configured.
const DefaultFont FontSize = "md"

// FontIndex returns the scale position of name, or the default's position.
func FontIndex(name string) int {
	for i, f := range FontScale {
		if string(f) == name {
			return i
		}
	}
	for i, f := range FontScale {
		if f == DefaultFont {
			return i
		}
	}
	return 0
}
