package processor

import "fmt"

// HumanSize renders n bytes as KB below one megabyte and MB from there on,
// with two decimals.
func HumanSize(n int64) string {
	const unit = 1024
	if n < unit*unit {
		return fmt.Sprintf("%.2f KB", float64(n)/unit)
	}
	return fmt.Sprintf("%.2f MB", float64(n)/(unit*unit))
}
