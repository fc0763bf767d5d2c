package domain

type GuestType string

const (
	GuestSingle GuestType = "single"
	GuestCouple GuestType = "couple"
	GuestGroup  GuestType = "group"
)

var AllGuestTypes = []GuestType{GuestSingle, GuestCouple, GuestGroup}

func (g GuestType) Valid() bool {
	switch g {
	case GuestSingle, GuestCouple, GuestGroup:
		return true
	}
	return false
}

// DefaultCapacity is the guest count per unit used by the current room schema.
const DefaultCapacity = 4

// Room is a bookable room type with Stock interchangeable units.
type Room struct {
	ID          string      `json:"id"`
	Code        string      `json:"code"`
	Name        string      `json:"name"`
	PriceSingle float64     `json:"price_single"`
	PriceCouple float64     `json:"price_couple"`
	PriceGroup  float64     `json:"price_group"`
	LegacyPrice float64     `json:"price,omitempty"`
	Stock       int         `json:"stock"`
	Capacity    int         `json:"capacity"`
	Deposit     float64     `json:"deposit"`
	GuestTypes  []GuestType `json:"guest_types"`
	Images      []string    `json:"images"`
	GroupOwner  string      `json:"group_owner,omitempty"`
	LegacyGroup string      `json:"group,omitempty"`
}

// PricePerNight is the single-tier price used for default display and booking totals.
func (r Room) PricePerNight() float64 {
	if r.PriceSingle > 0 {
		return r.PriceSingle
	}
	return r.LegacyPrice
}

// TierPrice returns the nightly price for a guest tier, falling back to the
// single-tier price when the tier has no price of its own.
func (r Room) TierPrice(g GuestType) float64 {
	var p float64
	switch g {
	case GuestCouple:
		p = r.PriceCouple
	case GuestGroup:
		p = r.PriceGroup
	}
	if p > 0 {
		return p
	}
	return r.PricePerNight()
}

func (r Room) EffectiveCapacity() int {
	if r.Capacity > 0 {
		return r.Capacity
	}
	return DefaultCapacity
}

func (r Room) EffectiveGuestTypes() []GuestType {
	if len(r.GuestTypes) == 0 {
		return append([]GuestType(nil), AllGuestTypes...)
	}
	return r.GuestTypes
}

func (r Room) PrimaryImage() string {
	if len(r.Images) == 0 {
		return ""
	}
	return r.Images[0]
}

// Matches reports whether value refers to this room by id, code or name.
func (r Room) Matches(value string) bool {
	for _, ident := range r.identifiers() {
		if KeysMatch(ident, value) {
			return true
		}
	}
	return false
}

func (r Room) identifiers() []string {
	out := make([]string, 0, 3)
	for _, s := range []string{r.ID, r.Code, r.Name} {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// IdentityKeySet lists every comparison key of every identifier of the room.
func (r Room) IdentityKeySet() []string {
	seen := make(map[string]struct{})
	var keys []string
	for _, ident := range r.identifiers() {
		for _, k := range IdentityKeys(ident) {
			if k == "" {
				continue
			}
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	return keys
}

// GuestTierFor maps a guest count to the tier it is priced under.
func GuestTierFor(guests int) GuestType {
	switch {
	case guests <= 1:
		return GuestSingle
	case guests == 2:
		return GuestCouple
	default:
		return GuestGroup
	}
}

// Group is a named, shortcode-addressable collection of rooms.
type Group struct {
	Name         string   `json:"name"`
	Code         string   `json:"code"`
	Rooms        []string `json:"rooms"`
	AdvanceExtra float64  `json:"advance_extra"`
}

// RoomAvailability is one room's computed availability and price breakdown
// for a date range.
type RoomAvailability struct {
	RoomID        string      `json:"room_id"`
	RoomName      string      `json:"room_name"`
	Images        []string    `json:"images"`
	UnitsLeft     int         `json:"units_left"`
	IsAvailable   bool        `json:"is_available"`
	Capacity      int         `json:"capacity"`
	PriceSingle   float64     `json:"price_single"`
	PriceCouple   float64     `json:"price_couple"`
	PriceGroup    float64     `json:"price_group"`
	PricePerNight float64     `json:"price_per_night"`
	Deposit       float64     `json:"deposit"`
	GuestTypes    []GuestType `json:"guest_types"`
	Nights        int         `json:"nights"`
	Total         float64     `json:"total"`
	Balance       float64     `json:"balance"`
}
