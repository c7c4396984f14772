package mutate

// Fractional-index positions order a trip's tasks by plain byte comparison.
// The alphabet is 'a'..'z'; FirstPosition seeds an empty trip.
const (
	FirstPosition = "a"
	maxPosChar    = 'z'
)

// NextPosition returns the successor of the last position in a trip:
// the final byte bumped by one, or, when the final byte is already at the
// top of the alphabet, the string extended with FirstPosition so the key
// grows instead of overflowing. The result always compares strictly
// greater than its input.
func NextPosition(last string) string {
	if last == "" {
		return FirstPosition
	}
	c := last[len(last)-1]
	if c >= maxPosChar {
		return last + FirstPosition
	}
	return last[:len(last)-1] + string(c+1)
}
