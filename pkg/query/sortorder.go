package query

import "strings"

// Direction is a sort direction token.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// Token renders the combined "<field>_<direction>" form.
func Token(field string, dir Direction) string {
	return field + "_" + string(dir)
}

// ParseSortOrder splits a "<field>_asc" / "<field>_desc" token on its last
// underscore. ok is false for anything else.
func ParseSortOrder(token string) (field string, dir Direction, ok bool) {
	idx := strings.LastIndex(token, "_")
	if idx <= 0 || idx == len(token)-1 {
		return "", "", false
	}
	field, suffix := token[:idx], token[idx+1:]
	switch Direction(suffix) {
	case Ascending, Descending:
		return field, Direction(suffix), true
	default:
		return "", "", false
	}
}

// NextSortToken returns the token a sort link for field should carry: inactive
// fields always start ascending, the active field flips direction.
func NextSortToken(field, activeField string, activeDir Direction) string {
	if field != activeField {
		return Token(field, Ascending)
	}
	if activeDir == Ascending {
		return Token(field, Descending)
	}
	return Token(field, Ascending)
}
