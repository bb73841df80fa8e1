package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// TokenMetadata is the off-chain descriptive document of a token.
// The zero value is the default used whenever metadata cannot be resolved.
type TokenMetadata struct {
	Image           *string     `json:"image,omitempty"`
	ImageData       *string     `json:"image_data,omitempty"`
	ExternalURL     *string     `json:"external_url,omitempty"`
	Description     *string     `json:"description,omitempty"`
	Name            *string     `json:"name,omitempty"`
	Attributes      []Attribute `json:"attributes,omitempty"`
	BackgroundColor *string     `json:"background_color,omitempty"`
	AnimationURL    *string     `json:"animation_url,omitempty"`
	YoutubeURL      *string     `json:"youtube_url,omitempty"`
}

// IsEmpty reports whether no field was resolved
func (m TokenMetadata) IsEmpty() bool {
	return m.Image == nil && m.ImageData == nil && m.ExternalURL == nil &&
		m.Description == nil && m.Name == nil && len(m.Attributes) == 0 &&
		m.BackgroundColor == nil && m.AnimationURL == nil && m.YoutubeURL == nil
}

// Sanitized returns a copy every store backend can encode. Strings lose NUL characters and
// invalid UTF-8; attributes holding a number outside the 64-bit integer or float range are
// dropped.
func (m TokenMetadata) Sanitized() TokenMetadata {
	out := TokenMetadata{
		Image:           sanitizePtr(m.Image),
		ImageData:       sanitizePtr(m.ImageData),
		ExternalURL:     sanitizePtr(m.ExternalURL),
		Description:     sanitizePtr(m.Description),
		Name:            sanitizePtr(m.Name),
		BackgroundColor: sanitizePtr(m.BackgroundColor),
		AnimationURL:    sanitizePtr(m.AnimationURL),
		YoutubeURL:      sanitizePtr(m.YoutubeURL),
	}
	for _, attr := range m.Attributes {
		value, ok := attr.Value.sanitized()
		if !ok {
			continue
		}
		out.Attributes = append(out.Attributes, Attribute{
			TraitType:   sanitizePtr(attr.TraitType),
			DisplayType: attr.DisplayType,
			Value:       value,
		})
	}
	return out
}

// SanitizeString removes NUL characters and invalid UTF-8 sequences
func SanitizeString(s string) string {
	return strings.ReplaceAll(strings.ToValidUTF8(s, ""), "\x00", "")
}

func sanitizePtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := SanitizeString(*s)
	return &v
}

// UnmarshalJSON decodes the document attribute by attribute: an attribute whose value has
// an unsupported shape is dropped instead of failing the whole document
func (m *TokenMetadata) UnmarshalJSON(data []byte) error {
	type alias TokenMetadata
	var aux struct {
		alias
		Attributes json.RawMessage `json:"attributes"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	*m = TokenMetadata(aux.alias)
	m.Attributes = nil

	var rawAttributes []json.RawMessage
	if err := json.Unmarshal(aux.Attributes, &rawAttributes); err != nil {
		// attributes absent, null or not a list
		return nil
	}

	for _, raw := range rawAttributes {
		var attr Attribute
		if err := json.Unmarshal(raw, &attr); err != nil {
			continue
		}
		m.Attributes = append(m.Attributes, attr)
	}
	return nil
}

// DisplayType is the rendering hint of an attribute
type DisplayType string

const (
	DisplayTypeNumber          DisplayType = "Number"
	DisplayTypeBoostPercentage DisplayType = "BoostPercentage"
	DisplayTypeBoostNumber     DisplayType = "BoostNumber"
	DisplayTypeDate            DisplayType = "Date"
)

// ParseDisplayType accepts both the canonical names and the snake_case spelling used by
// most marketplaces. Unknown values return false.
func ParseDisplayType(s string) (DisplayType, bool) {
	switch s {
	case "Number", "number":
		return DisplayTypeNumber, true
	case "BoostPercentage", "boost_percentage":
		return DisplayTypeBoostPercentage, true
	case "BoostNumber", "boost_number":
		return DisplayTypeBoostNumber, true
	case "Date", "date":
		return DisplayTypeDate, true
	default:
		return "", false
	}
}

// Attribute is one trait of a token
type Attribute struct {
	TraitType   *string        `json:"trait_type,omitempty"`
	DisplayType *DisplayType   `json:"display_type,omitempty"`
	Value       AttributeValue `json:"value"`
}

// UnmarshalJSON tolerates unknown display types and rejects attributes without a value
func (a *Attribute) UnmarshalJSON(data []byte) error {
	var aux struct {
		TraitType   *string         `json:"trait_type"`
		DisplayType *string         `json:"display_type"`
		Value       json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if len(aux.Value) == 0 {
		return errors.New("attribute without value")
	}

	var value AttributeValue
	if err := value.UnmarshalJSON(aux.Value); err != nil {
		return err
	}

	a.TraitType = aux.TraitType
	a.DisplayType = nil
	if aux.DisplayType != nil {
		if dt, ok := ParseDisplayType(*aux.DisplayType); ok {
			a.DisplayType = &dt
		}
	}
	a.Value = value
	return nil
}

// ValueKind tags the variant held by an AttributeValue
type ValueKind string

const (
	ValueKindString     ValueKind = "string"
	ValueKindNumber     ValueKind = "number"
	ValueKindBool       ValueKind = "bool"
	ValueKindStringList ValueKind = "string_list"
	ValueKindNumberList ValueKind = "number_list"
	ValueKindBoolList   ValueKind = "bool_list"
)

// AttributeValue is a tagged union over string, number, boolean and homogeneous lists of
// each. On the wire it is the bare JSON value.
type AttributeValue struct {
	Kind    ValueKind
	String  string
	Number  json.Number
	Bool    bool
	Strings []string
	Numbers []json.Number
	Bools   []bool
}

// StringValue builds a string attribute value
func StringValue(s string) AttributeValue {
	return AttributeValue{Kind: ValueKindString, String: s}
}

// NumberValue builds a number attribute value
func NumberValue(n json.Number) AttributeValue {
	return AttributeValue{Kind: ValueKindNumber, Number: n}
}

// BoolValue builds a boolean attribute value
func BoolValue(b bool) AttributeValue {
	return AttributeValue{Kind: ValueKindBool, Bool: b}
}

// sanitized cleans the strings of the value and reports false when a number cannot be
// represented by every backend
func (v AttributeValue) sanitized() (AttributeValue, bool) {
	switch v.Kind {
	case ValueKindString:
		v.String = SanitizeString(v.String)
	case ValueKindNumber:
		if !storableNumber(v.Number) {
			return AttributeValue{}, false
		}
	case ValueKindStringList:
		strs := make([]string, len(v.Strings))
		for i, s := range v.Strings {
			strs[i] = SanitizeString(s)
		}
		v.Strings = strs
	case ValueKindNumberList:
		for _, n := range v.Numbers {
			if !storableNumber(n) {
				return AttributeValue{}, false
			}
		}
	}
	return v, true
}

// storableNumber accepts integers that fit an int64 and finite float64 values
func storableNumber(n json.Number) bool {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		_, err := strconv.ParseInt(s, 10, 64)
		return err == nil
	}
	f, err := strconv.ParseFloat(s, 64)
	return err == nil && !math.IsInf(f, 0)
}

// MarshalJSON writes the bare value
func (v AttributeValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case ValueKindString:
		return json.Marshal(v.String)
	case ValueKindNumber:
		return json.Marshal(v.Number)
	case ValueKindBool:
		return json.Marshal(v.Bool)
	case ValueKindStringList:
		return json.Marshal(nonNil(v.Strings))
	case ValueKindNumberList:
		return json.Marshal(nonNil(v.Numbers))
	case ValueKindBoolList:
		return json.Marshal(nonNil(v.Bools))
	default:
		return nil, fmt.Errorf("attribute value has no kind")
	}
}

// UnmarshalJSON probes the value shapes in a fixed order: string, number, boolean, then
// lists of strings, numbers and booleans. The first shape that decodes wins. Lists mixing
// element types match no shape and fail.
func (v *AttributeValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return errors.New("attribute value is null")
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = StringValue(s)
		return nil
	}

	var n json.Number
	if data[0] != '"' {
		if err := json.Unmarshal(data, &n); err == nil {
			*v = NumberValue(n)
			return nil
		}
	}

	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*v = BoolValue(b)
		return nil
	}

	if data[0] != '[' {
		return fmt.Errorf("unsupported attribute value: %s", data)
	}

	var strs []string
	if err := json.Unmarshal(data, &strs); err == nil {
		*v = AttributeValue{Kind: ValueKindStringList, Strings: strs}
		return nil
	}

	var nums []json.Number
	if err := decodeNumberList(data, &nums); err == nil {
		*v = AttributeValue{Kind: ValueKindNumberList, Numbers: nums}
		return nil
	}

	var bools []bool
	if err := json.Unmarshal(data, &bools); err == nil {
		*v = AttributeValue{Kind: ValueKindBoolList, Bools: bools}
		return nil
	}

	return fmt.Errorf("unsupported attribute value: %s", data)
}

// decodeNumberList accepts only bare JSON numbers; encoding/json would otherwise accept
// quoted numerals into a json.Number
func decodeNumberList(data []byte, out *[]json.Number) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	nums := make([]json.Number, 0, len(raw))
	for _, r := range raw {
		r = bytes.TrimSpace(r)
		if len(r) == 0 || r[0] == '"' {
			return errors.New("not a number")
		}
		var n json.Number
		if err := json.Unmarshal(r, &n); err != nil {
			return err
		}
		nums = append(nums, n)
	}
	*out = nums
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
