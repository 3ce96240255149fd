package canvas

import "fmt"

// HashColor derives a stable "#RRGGBB" accent from a marker's identity.
// It uses the 32-bit rolling hash h = c + (h<<5) - h with int32 wrap-around
// and keeps the low 24 bits.
func HashColor(id, name string) string {
	var h int32
	for _, r := range id + name {
		h = int32(r) + (h << 5) - h
	}
	return fmt.Sprintf("#%06X", uint32(h)&0x00FFFFFF)
}
