package scheduler

import "strings"

// UnknownSlotCode is emitted by Encode for times outside the catalog.
const UnknownSlotCode = "?"

// DayTime is a decoded (days, time) pair.
type DayTime struct {
	Days string `json:"days"`
	Time string `json:"time"`
}

// Encode builds a compact token such as "ST1" or "MWL2".
func Encode(days, time string) string {
	slot, ok := SlotByLabel(time)
	if !ok {
		return days + UnknownSlotCode
	}
	return days + slot.Code
}

// Decode parses <days><digit> or <days>L<digit>. It returns false for malformed
// tokens and for slot codes that are not in the catalog.
func Decode(token string) (DayTime, bool) {
	idx := 0
	for idx < len(token) && IsSingleDay(token[idx:idx+1]) {
		idx++
	}
	if idx == 0 {
		return DayTime{}, false
	}
	days, code := token[:idx], token[idx:]

	switch {
	case len(code) == 1 && isDigit(code[0]):
	case len(code) == 2 && code[0] == 'L' && isDigit(code[1]):
	default:
		return DayTime{}, false
	}
	slot, ok := SlotByCode(code)
	if !ok {
		return DayTime{}, false
	}
	return DayTime{Days: days, Time: slot.Label}, true
}

// Label renders a human readable label, e.g. "ST 08:00 AM - 09:30 AM".
func Label(days, time string) string {
	return strings.TrimSpace(days + " " + time)
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
