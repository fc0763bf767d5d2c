package availability

import (
	"strings"

	"github.com/Domenick1991/resortbooking/internal/domain"
)

// identityKey is one comparison form of an identifier. The form index keeps
// a slug from ever colliding with an alphanumeric-only key.
type identityKey struct {
	form  int
	value string
}

type membershipIndex map[identityKey]map[string]struct{}

func buildMembership(groups []domain.Group) membershipIndex {
	index := make(membershipIndex)
	for _, g := range groups {
		for _, ref := range g.Rooms {
			for form, v := range domain.IdentityKeys(ref) {
				if v == "" {
					continue
				}
				key := identityKey{form: form, value: v}
				if index[key] == nil {
					index[key] = make(map[string]struct{})
				}
				index[key][g.Code] = struct{}{}
			}
		}
	}
	return index
}

// referencing returns the codes of every group listing the room under any of
// its identifiers.
func (idx membershipIndex) referencing(room domain.Room) map[string]struct{} {
	codes := make(map[string]struct{})
	for _, ident := range []string{room.ID, room.Code, room.Name} {
		if ident == "" {
			continue
		}
		for form, v := range domain.IdentityKeys(ident) {
			if v == "" {
				continue
			}
			for code := range idx[identityKey{form: form, value: v}] {
				codes[code] = struct{}{}
			}
		}
	}
	return codes
}

// resolveGroupCode maps a filter to a canonical group code. Legacy per-room
// group fields count as known groups when no group record matches.
func resolveGroupCode(groups []domain.Group, rooms []domain.Room, filter string) (string, bool) {
	for _, g := range groups {
		if domain.KeysMatch(g.Code, filter) || (g.Name != "" && domain.KeysMatch(g.Name, filter)) {
			return g.Code, true
		}
	}
	for _, room := range rooms {
		if room.LegacyGroup != "" && domain.KeysMatch(room.LegacyGroup, filter) {
			return domain.Slugify(filter), true
		}
	}
	return "", false
}

// resolveOwner picks the group a room belongs to. ok is false when the room
// is claimed by several groups and nothing breaks the tie.
func resolveOwner(room domain.Room, groups []domain.Group, referencing map[string]struct{}) (owner string, ok bool) {
	if room.GroupOwner != "" {
		for _, g := range groups {
			if domain.Slugify(g.Code) == domain.Slugify(room.GroupOwner) {
				return g.Code, true
			}
		}
		return domain.Slugify(room.GroupOwner), true
	}

	if len(referencing) == 1 {
		for code := range referencing {
			return code, true
		}
	}

	name := domain.Slugify(room.Name)
	var prefixed []string
	for _, g := range groups {
		code := domain.Slugify(g.Code)
		if name != "" && code != "" && strings.HasPrefix(name, code) {
			prefixed = append(prefixed, g.Code)
		}
	}
	if len(prefixed) == 1 {
		return prefixed[0], true
	}

	if len(referencing) > 1 {
		return "", false
	}
	return "", true
}

func filterByGroup(rooms []domain.Room, groups []domain.Group, filter string) []domain.Room {
	code, known := resolveGroupCode(groups, rooms, filter)
	if !known {
		return nil
	}
	index := buildMembership(groups)

	out := make([]domain.Room, 0, len(rooms))
	for _, room := range rooms {
		referencing := index.referencing(room)
		owner, ok := resolveOwner(room, groups, referencing)
		if !ok {
			continue
		}

		_, member := referencing[code]
		if !member && room.LegacyGroup != "" {
			member = domain.KeysMatch(room.LegacyGroup, code) || domain.KeysMatch(room.LegacyGroup, filter)
		}
		if !member {
			continue
		}
		if owner != "" && owner != code {
			continue
		}
		out = append(out, room)
	}
	return out
}
