package capture

import (
	"fmt"
	"time"
)

// FormatDuration renders d as mm:ss; minutes are not wrapped at an hour.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
