package calculator

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/mmynk/streamsplit/internal/models"
)

// AllMembers is the member filter value that matches every payment.
const AllMembers = "all"

var yearPattern = regexp.MustCompile(`\d{4}`)

// FilterPayments returns the payments matching both filters, in input order.
//
// memberFilter is AllMembers or an exact member ID. yearFilter matches when
// the payment's month label contains it as a substring; an empty yearFilter
// matches everything.
func FilterPayments(payments []models.Payment, memberFilter, yearFilter string) []models.Payment {
	var out []models.Payment
	for _, p := range payments {
		matchesMember := memberFilter == AllMembers || p.MemberID == memberFilter
		matchesYear := strings.Contains(p.Month, yearFilter)
		if matchesMember && matchesYear {
			out = append(out, p)
		}
	}
	return out
}

// AvailableYears returns the years that can be selected in reports: the first
// 4-digit run of every payment's month label plus the year of now, newest first.
func AvailableYears(payments []models.Payment, now time.Time) []string {
	seen := map[string]struct{}{strconv.Itoa(now.Year()): {}}
	for _, p := range payments {
		if y := yearPattern.FindString(p.Month); y != "" {
			seen[y] = struct{}{}
		}
	}

	years := make([]string, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	slices.Sort(years)
	slices.Reverse(years)
	return years
}
