// Package scheduler holds the slot catalog, overlap predicates, conflict checks
// and the constraint-based schedule generator. It performs no I/O.
package scheduler

import (
	"sort"
	"strings"
)

// SlotKind distinguishes standard theory slots from 3-hour lab slots.
type SlotKind string

const (
	SlotStandard SlotKind = "STANDARD"
	SlotLab      SlotKind = "LAB"
)

// Slot is one entry of the closed time-slot catalog.
type Slot struct {
	Code  string   `json:"code"`
	Label string   `json:"label"`
	Kind  SlotKind `json:"kind"`
}

var standardSlots = []Slot{
	{Code: "1", Label: "08:00 AM - 09:30 AM", Kind: SlotStandard},
	{Code: "2", Label: "09:40 AM - 11:10 AM", Kind: SlotStandard},
	{Code: "3", Label: "11:20 AM - 12:50 PM", Kind: SlotStandard},
	{Code: "4", Label: "01:00 PM - 02:30 PM", Kind: SlotStandard},
	{Code: "5", Label: "02:40 PM - 04:10 PM", Kind: SlotStandard},
	{Code: "6", Label: "04:20 PM - 05:50 PM", Kind: SlotStandard},
}

var labSlots = []Slot{
	{Code: "L1", Label: "08:00 AM - 11:10 AM", Kind: SlotLab},
	{Code: "L2", Label: "09:40 AM - 12:50 PM", Kind: SlotLab},
	{Code: "L3", Label: "11:20 AM - 02:30 PM", Kind: SlotLab},
	{Code: "L4", Label: "01:00 PM - 04:10 PM", Kind: SlotLab},
	{Code: "L5", Label: "02:40 PM - 05:50 PM", Kind: SlotLab},
}

// StandardSlots returns the 90-minute theory slots in catalog order.
func StandardSlots() []Slot {
	return append([]Slot(nil), standardSlots...)
}

// LabSlots returns the 3-hour lab slots in catalog order.
func LabSlots() []Slot {
	return append([]Slot(nil), labSlots...)
}

// LabEligibleSlots returns every slot a lab may occupy: 3-hour lab slots first,
// then the 90-minute standard slots.
func LabEligibleSlots() []Slot {
	out := make([]Slot, 0, len(labSlots)+len(standardSlots))
	out = append(out, labSlots...)
	return append(out, standardSlots...)
}

// SlotByLabel resolves a time label such as "08:00 AM - 09:30 AM".
func SlotByLabel(label string) (Slot, bool) {
	label = strings.TrimSpace(label)
	for _, slot := range standardSlots {
		if slot.Label == label {
			return slot, true
		}
	}
	for _, slot := range labSlots {
		if slot.Label == label {
			return slot, true
		}
	}
	return Slot{}, false
}

// SlotByCode resolves a slot code such as "3" or "L2".
func SlotByCode(code string) (Slot, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, slot := range standardSlots {
		if slot.Code == code {
			return slot, true
		}
	}
	for _, slot := range labSlots {
		if slot.Code == code {
			return slot, true
		}
	}
	return Slot{}, false
}

// ResolveSlot accepts a slot code or a catalog label. Labels match ignoring case
// and whitespace, so "08:00 AM-09:30 AM" resolves to slot 1.
func ResolveSlot(value string) (Slot, bool) {
	if slot, ok := SlotByCode(value); ok {
		return slot, true
	}
	return slotByLooseLabel(value)
}

func slotByLooseLabel(label string) (Slot, bool) {
	key := compactLabel(label)
	if key == "" {
		return Slot{}, false
	}
	for _, slot := range LabEligibleSlots() {
		if compactLabel(slot.Label) == key {
			return slot, true
		}
	}
	return Slot{}, false
}

func compactLabel(label string) string {
	return strings.ToUpper(strings.Join(strings.Fields(label), ""))
}

// SameSlot reports slot identity. Catalog labels compare by slot code; anything
// outside the catalog falls back to exact string equality.
func SameSlot(a, b string) bool {
	slotA, okA := slotByLooseLabel(a)
	slotB, okB := slotByLooseLabel(b)
	if okA && okB {
		return slotA.Code == slotB.Code
	}
	return a == b
}

// Day tokens.
const (
	DaysST = "ST"
	DaysMW = "MW"
	DaysRA = "RA"
)

var pairedDays = []string{DaysST, DaysMW, DaysRA}

// single-letter day -> canonical position (S=Sunday ... A=Saturday).
var dayOrder = map[string]int{"S": 0, "M": 1, "T": 2, "W": 3, "R": 4, "A": 5}

var complementaryDay = map[string]string{
	"S": "T", "T": "S",
	"M": "W", "W": "M",
	"R": "A", "A": "R",
}

// PairedDays returns the paired theory day tokens.
func PairedDays() []string {
	return append([]string(nil), pairedDays...)
}

// IsPairedDays reports whether token is ST, MW or RA.
func IsPairedDays(token string) bool {
	for _, pair := range pairedDays {
		if pair == token {
			return true
		}
	}
	return false
}

// IsSingleDay reports whether token is one of S, M, T, W, R, A.
func IsSingleDay(token string) bool {
	_, ok := dayOrder[token]
	return ok
}

// ExpandDays splits a day pattern into its single-letter days.
// Unknown letters are ignored.
func ExpandDays(pattern string) []string {
	seen := make(map[string]bool, len(pattern))
	days := make([]string, 0, len(pattern))
	for _, r := range strings.ToUpper(pattern) {
		day := string(r)
		if !IsSingleDay(day) || seen[day] {
			continue
		}
		seen[day] = true
		days = append(days, day)
	}
	return days
}

func sortDays(days []string) {
	sort.SliceStable(days, func(i, j int) bool {
		return dayOrder[days[i]] < dayOrder[days[j]]
	})
}

// RoomKind partitions rooms into disjoint universes.
type RoomKind string

const (
	RoomTheory RoomKind = "THEORY"
	RoomLab    RoomKind = "LAB"
)

// LabBuildingPrefix identifies the lab building.
const LabBuildingPrefix = "LIB"

// Room is a bookable room code.
type Room struct {
	Code string   `json:"code"`
	Kind RoomKind `json:"kind"`
}

// RoomKindOf derives the room universe from the building prefix.
func RoomKindOf(code string) RoomKind {
	if strings.HasPrefix(strings.ToUpper(strings.TrimSpace(code)), LabBuildingPrefix) {
		return RoomLab
	}
	return RoomTheory
}

// Catalog holds the room universes used for placement and availability.
type Catalog struct {
	TheoryRooms []Room
	LabRooms    []Room
}

var defaultRoomCodes = []string{
	"ARC201", "ARC202", "ARC203", "ARC204",
	"BUS301", "BUS302", "BUS303",
	"SCI401", "SCI402", "SCI403",
	"LIB601", "LIB602", "LIB603", "LIB604", "LIB605",
}

// DefaultCatalog returns the built-in room catalog.
func DefaultCatalog() Catalog {
	return NewCatalog(defaultRoomCodes...)
}

// NewCatalog partitions room codes into theory and lab universes, dropping
// blanks and duplicates while keeping input order.
func NewCatalog(codes ...string) Catalog {
	var catalog Catalog
	seen := make(map[string]bool, len(codes))
	for _, raw := range codes {
		code := strings.ToUpper(strings.TrimSpace(raw))
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		room := Room{Code: code, Kind: RoomKindOf(code)}
		if room.Kind == RoomLab {
			catalog.LabRooms = append(catalog.LabRooms, room)
		} else {
			catalog.TheoryRooms = append(catalog.TheoryRooms, room)
		}
	}
	return catalog
}

// Rooms returns the universe for the requested class kind.
func (c Catalog) Rooms(isLab bool) []Room {
	if isLab {
		return c.LabRooms
	}
	return c.TheoryRooms
}

// WithFallback fills an empty universe from fallback and reports which
// universes were filled.
func (c Catalog) WithFallback(fallback Catalog) (Catalog, []RoomKind) {
	var filled []RoomKind
	if len(c.TheoryRooms) == 0 && len(fallback.TheoryRooms) > 0 {
		c.TheoryRooms = append([]Room(nil), fallback.TheoryRooms...)
		filled = append(filled, RoomTheory)
	}
	if len(c.LabRooms) == 0 && len(fallback.LabRooms) > 0 {
		c.LabRooms = append([]Room(nil), fallback.LabRooms...)
		filled = append(filled, RoomLab)
	}
	return c, filled
}

// Empty reports whether the catalog has no rooms at all.
func (c Catalog) Empty() bool {
	return len(c.TheoryRooms) == 0 && len(c.LabRooms) == 0
}
