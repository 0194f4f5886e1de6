package models

import "fmt"

// KSh formats an amount in cents as Kenyan shillings for mail and reports.
func KSh(cents int64) string {
	return fmt.Sprintf("KSh %.2f", float64(cents)/100)
}
