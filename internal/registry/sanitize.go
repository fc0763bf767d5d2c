package registry

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode"

	"github.com/Domenick1991/resortbooking/internal/domain"
)

var tagPattern = regexp.MustCompile(`<[^>]*>`)

func sanitizeText(s string) string {
	s = tagPattern.ReplaceAllString(s, "")
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

func sanitizeKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func sanitizeURL(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, " <>\"") {
		return ""
	}
	return s
}

func nonNegative(v float64) float64 {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// unique returns base, or base with the first free sep-N suffix.
func unique(base, sep string, used map[string]struct{}) string {
	candidate := base
	for n := 1; ; n++ {
		if _, taken := used[candidate]; !taken {
			used[candidate] = struct{}{}
			return candidate
		}
		candidate = fmt.Sprintf("%s%s%d", base, sep, n)
	}
}

func sanitizeRooms(rows []json.RawMessage) []domain.Room {
	rooms := make([]domain.Room, 0, len(rows))
	codes := make(map[string]struct{})
	ids := make(map[string]struct{})

	for i, row := range rows {
		var in domain.Room
		if err := json.Unmarshal(row, &in); err != nil {
			continue
		}
		name := sanitizeText(in.Name)
		if name == "" {
			continue
		}

		code := domain.Slugify(in.Code)
		if code == "" {
			code = domain.Slugify(name)
		}
		if code == "" {
			code = fmt.Sprintf("room%d", i+1)
		}
		code = unique(code, "-", codes)

		id := sanitizeKey(in.ID)
		if id == "" {
			id = strings.ReplaceAll(code, "-", "_")
		}
		id = unique(id, "_", ids)

		priceSingle := nonNegative(in.PriceSingle)
		if priceSingle == 0 {
			priceSingle = nonNegative(in.LegacyPrice)
		}

		images := make([]string, 0, len(in.Images))
		for _, img := range in.Images {
			if u := sanitizeURL(img); u != "" {
				images = append(images, u)
			}
		}

		stock := in.Stock
		if stock < 0 {
			stock = 0
		}

		rooms = append(rooms, domain.Room{
			ID:          id,
			Code:        code,
			Name:        name,
			PriceSingle: priceSingle,
			PriceCouple: nonNegative(in.PriceCouple),
			PriceGroup:  nonNegative(in.PriceGroup),
			Stock:       stock,
			Capacity:    domain.DefaultCapacity,
			Deposit:     nonNegative(in.Deposit),
			GuestTypes:  sanitizeGuestTypes(in.GuestTypes),
			Images:      images,
			GroupOwner:  domain.Slugify(in.GroupOwner),
			LegacyGroup: sanitizeText(in.LegacyGroup),
		})
	}
	return rooms
}

func sanitizeGuestTypes(in []domain.GuestType) []domain.GuestType {
	seen := make(map[domain.GuestType]struct{})
	out := make([]domain.GuestType, 0, len(in))
	for _, g := range in {
		if !g.Valid() {
			continue
		}
		if _, dup := seen[g]; dup {
			continue
		}
		seen[g] = struct{}{}
		out = append(out, g)
	}
	if len(out) == 0 {
		return append([]domain.GuestType(nil), domain.AllGuestTypes...)
	}
	return out
}

// sanitizeGroups drops room references owned by another group, keeping
// ownership exclusive.
func sanitizeGroups(rows []json.RawMessage, rooms []domain.Room) []domain.Group {
	byID := make(map[string]domain.Room, len(rooms))
	for _, room := range rooms {
		byID[room.ID] = room
	}

	groups := make([]domain.Group, 0, len(rows))
	codes := make(map[string]struct{})

	for i, row := range rows {
		var in domain.Group
		if err := json.Unmarshal(row, &in); err != nil {
			continue
		}
		name := sanitizeText(in.Name)
		code := domain.Slugify(in.Code)
		if name == "" && code == "" {
			continue
		}
		if code == "" {
			code = domain.Slugify(name)
		}
		if code == "" {
			code = fmt.Sprintf("group%d", i+1)
		}
		code = unique(code, "-", codes)
		if name == "" {
			name = code
		}

		seen := make(map[string]struct{})
		roomIDs := make([]string, 0, len(in.Rooms))
		for _, ref := range in.Rooms {
			ref = sanitizeKey(ref)
			if ref == "" {
				continue
			}
			if _, dup := seen[ref]; dup {
				continue
			}
			if room, ok := byID[ref]; ok && room.GroupOwner != "" && room.GroupOwner != code {
				continue
			}
			seen[ref] = struct{}{}
			roomIDs = append(roomIDs, ref)
		}

		groups = append(groups, domain.Group{
			Name:         name,
			Code:         code,
			Rooms:        roomIDs,
			AdvanceExtra: nonNegative(in.AdvanceExtra),
		})
	}
	return groups
}
