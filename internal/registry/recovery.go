package registry

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/Domenick1991/resortbooking/internal/domain"
	"github.com/sirupsen/logrus"
)

const (
	RecoveredGroupName = "Recovered Group"
	RecoveredGroupCode = "recovered-group"
)

type RecoveryReport struct {
	BookingsScanned int      `json:"bookings_scanned"`
	RoomsAdded      []string `json:"rooms_added"`
	GroupAdded      bool     `json:"group_added"`
}

type recoveredRoom struct {
	id     string
	name   string
	image  string
	stock  int
	prices map[domain.GuestType]float64
}

// RecoverFromBookings rebuilds rooms missing from the registry out of booking
// history. Existing rooms and groups are never modified.
func (r *Registry) RecoverFromBookings(ctx context.Context) (*RecoveryReport, error) {
	bookings, err := r.bookings.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	rooms, err := r.Rooms(ctx)
	if err != nil {
		return nil, err
	}
	groups, err := r.Groups(ctx)
	if err != nil {
		return nil, err
	}

	report := &RecoveryReport{BookingsScanned: len(bookings), RoomsAdded: []string{}}
	found := collectRecoveredRooms(bookings)

	ids := make([]string, 0, len(found))
	for id := range found {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	codes := make(map[string]struct{}, len(rooms))
	for _, room := range rooms {
		codes[room.Code] = struct{}{}
	}

	added := make([]domain.Room, 0)
	for _, id := range ids {
		rec := found[id]
		if roomExists(rooms, rec) {
			continue
		}
		name := rec.name
		if name == "" {
			name = id
		}
		code := domain.Slugify(name)
		if code == "" {
			code = domain.Slugify(id)
		}
		code = unique(code, "-", codes)

		var images []string
		if rec.image != "" {
			images = []string{rec.image}
		}
		stock := rec.stock
		if stock < 1 {
			stock = 1
		}

		room := domain.Room{
			ID:          id,
			Code:        code,
			Name:        name,
			PriceSingle: rec.prices[domain.GuestSingle],
			PriceCouple: rec.prices[domain.GuestCouple],
			PriceGroup:  rec.prices[domain.GuestGroup],
			Stock:       stock,
			Capacity:    domain.DefaultCapacity,
			GuestTypes:  append([]domain.GuestType(nil), domain.AllGuestTypes...),
			Images:      images,
		}
		if room.PriceSingle == 0 {
			room.PriceSingle = math.Max(room.PriceCouple, room.PriceGroup)
		}
		added = append(added, room)
		report.RoomsAdded = append(report.RoomsAdded, id)
	}

	if len(added) == 0 {
		r.logger.WithField("bookings", len(bookings)).Info("registry recovery found nothing to add")
		return report, nil
	}

	if err := r.backup(ctx, KeyRooms, KeyRoomsBackup); err != nil {
		return nil, err
	}
	if err := r.save(ctx, KeyRooms, append(rooms, added...)); err != nil {
		return nil, err
	}

	if !hasGroup(groups, RecoveredGroupCode) {
		group := domain.Group{Name: RecoveredGroupName, Code: RecoveredGroupCode, Rooms: report.RoomsAdded}
		if err := r.backup(ctx, KeyGroups, KeyGroupsBackup); err != nil {
			return nil, err
		}
		if err := r.save(ctx, KeyGroups, append(groups, group)); err != nil {
			return nil, err
		}
		report.GroupAdded = true
	}

	r.logger.WithFields(logrus.Fields{
		"bookings":    len(bookings),
		"rooms_added": len(added),
		"group_added": report.GroupAdded,
	}).Warn("registry recovered from bookings")
	return report, nil
}

func collectRecoveredRooms(bookings []domain.Booking) map[string]*recoveredRoom {
	found := make(map[string]*recoveredRoom)

	for _, b := range bookings {
		usage := make(map[string]int)
		names := make(map[string]string)
		if len(b.LineItems) > 0 {
			for _, item := range b.LineItems {
				id := recoveredID(item.RoomID, item.RoomName)
				if id == "" {
					continue
				}
				usage[id]++
				if item.RoomName != "" {
					names[id] = item.RoomName
				}
			}
		} else if id := recoveredID(b.RoomID, b.RoomName); id != "" {
			n := b.RoomsNeeded
			if n < 1 {
				n = 1
			}
			usage[id] = n
			names[id] = b.RoomName
		}

		// A booking total spans every unit it holds, so the per-guest nightly
		// price is only attributable when a single room type is involved.
		var price float64
		if len(usage) == 1 && b.Nights > 0 && b.Guests > 0 {
			price = math.Round(b.Total/float64(b.Nights)/float64(b.Guests)*100) / 100
		}
		tier := domain.GuestTierFor(b.Guests)

		for id, n := range usage {
			rec, ok := found[id]
			if !ok {
				rec = &recoveredRoom{id: id, prices: make(map[domain.GuestType]float64)}
				found[id] = rec
			}
			if n > rec.stock {
				rec.stock = n
			}
			if rec.name == "" {
				rec.name = strings.TrimSpace(names[id])
			}
			if rec.image == "" && b.Meta != nil {
				rec.image = sanitizeURL(b.Meta[domain.MetaRoomImage])
			}
			if price > rec.prices[tier] {
				rec.prices[tier] = price
			}
		}
	}
	return found
}

func recoveredID(roomID, roomName string) string {
	if id := sanitizeKey(roomID); id != "" {
		return id
	}
	return strings.ReplaceAll(domain.Slugify(roomName), "-", "_")
}

func roomExists(rooms []domain.Room, rec *recoveredRoom) bool {
	slug := domain.Slugify(rec.name)
	for _, room := range rooms {
		if room.ID == rec.id {
			return true
		}
		if slug != "" && domain.Slugify(room.Name) == slug {
			return true
		}
	}
	return false
}

func hasGroup(groups []domain.Group, code string) bool {
	for _, g := range groups {
		if g.Code == code {
			return true
		}
	}
	return false
}
