package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Stored room and group lists went through several shapes over time. The flex
// types below accept every historical shape and normalise it on decode, so the
// rest of the code only ever sees the canonical representation.

type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexString(n.String())
		return nil
	}
	*f = ""
	return nil
}

type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	var n float64
	switch {
	case len(data) == 0, bytes.Equal(data, []byte("null")):
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		n, _ = strconv.ParseFloat(strings.TrimSpace(s), 64)
	default:
		_ = json.Unmarshal(data, &n)
	}
	*f = flexFloat(n)
	return nil
}

type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	var v flexFloat
	if err := v.UnmarshalJSON(data); err != nil {
		return err
	}
	*f = flexInt(int(v))
	return nil
}

// flexList accepts a JSON list of strings/numbers or a comma-joined string.
type flexList []string

func (f *flexList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = nil
		return nil
	}
	var out []string
	switch data[0] {
	case '[':
		var items []flexString
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		for _, it := range items {
			out = append(out, string(it))
		}
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		out = strings.Split(s, ",")
	default:
		return nil
	}

	cleaned := make([]string, 0, len(out))
	for _, s := range out {
		if s = strings.TrimSpace(s); s != "" {
			cleaned = append(cleaned, s)
		}
	}
	*f = cleaned
	return nil
}

type roomJSON struct {
	ID          flexString `json:"id"`
	Code        flexString `json:"code"`
	Name        flexString `json:"name"`
	PriceSingle flexFloat  `json:"price_single"`
	PriceCouple flexFloat  `json:"price_couple"`
	PriceGroup  flexFloat  `json:"price_group"`
	Price       flexFloat  `json:"price"`
	Stock       flexInt    `json:"stock"`
	Capacity    flexInt    `json:"capacity"`
	Deposit     flexFloat  `json:"deposit"`
	GuestTypes  flexList   `json:"guest_types"`
	Images      flexList   `json:"images"`
	Image       flexString `json:"image"`
	GroupOwner  flexString `json:"group_owner"`
	Group       flexString `json:"group"`
}

func (r *Room) UnmarshalJSON(data []byte) error {
	var raw roomJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	images := []string(raw.Images)
	if len(images) == 0 && raw.Image != "" {
		images = []string{strings.TrimSpace(string(raw.Image))}
	}

	guestTypes := make([]GuestType, 0, len(raw.GuestTypes))
	for _, g := range raw.GuestTypes {
		guestTypes = append(guestTypes, GuestType(strings.ToLower(g)))
	}

	*r = Room{
		ID:          strings.TrimSpace(string(raw.ID)),
		Code:        strings.TrimSpace(string(raw.Code)),
		Name:        strings.TrimSpace(string(raw.Name)),
		PriceSingle: float64(raw.PriceSingle),
		PriceCouple: float64(raw.PriceCouple),
		PriceGroup:  float64(raw.PriceGroup),
		LegacyPrice: float64(raw.Price),
		Stock:       int(raw.Stock),
		Capacity:    int(raw.Capacity),
		Deposit:     float64(raw.Deposit),
		GuestTypes:  guestTypes,
		Images:      images,
		GroupOwner:  strings.TrimSpace(string(raw.GroupOwner)),
		LegacyGroup: strings.TrimSpace(string(raw.Group)),
	}
	return nil
}

type groupJSON struct {
	Name         flexString `json:"name"`
	Code         flexString `json:"code"`
	Rooms        flexList   `json:"rooms"`
	AdvanceExtra flexFloat  `json:"advance_extra"`
}

func (g *Group) UnmarshalJSON(data []byte) error {
	var raw groupJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*g = Group{
		Name:         strings.TrimSpace(string(raw.Name)),
		Code:         strings.TrimSpace(string(raw.Code)),
		Rooms:        []string(raw.Rooms),
		AdvanceExtra: float64(raw.AdvanceExtra),
	}
	return nil
}

// DecodeRows splits a stored or submitted list into its raw rows. Anything that
// is not a JSON list yields no rows.
func DecodeRows(payload []byte) []json.RawMessage {
	var rows []json.RawMessage
	if err := json.Unmarshal(payload, &rows); err != nil {
		return nil
	}
	return rows
}
