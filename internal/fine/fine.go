package fine

import (
	"math"
	"time"
)

// PerHour is the fee charged for every started hour past the due date.
const PerHour = 5

// Calculate returns the fine owed for a loan due at dueDate as of now.
// On-time returns owe nothing; late returns owe PerHour per started hour,
// with no cap and no grace period.
func Calculate(dueDate, now time.Time) int {
	if !now.After(dueDate) {
		return 0
	}
	lateHours := int(math.Ceil(now.Sub(dueDate).Hours()))
	return lateHours * PerHour
}
