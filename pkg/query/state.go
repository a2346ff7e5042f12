package query

// State bag keys written by Composer.List.
const (
	KeyCurrentSort          = "CurrentSort"
	KeyCurrentSortField     = "CurrentSortField"
	KeyCurrentSortDirection = "CurrentSortDirection"
	KeyCurrentFilter        = "CurrentFilter"
	KeyCurrentSearchField   = "CurrentSearchField"
	KeySortTokens           = "SortTokens"
	KeyTotalCount           = "TotalCount"
	KeyTotalPages           = "TotalPages"
	KeyPageIndex            = "PageIndex"
	KeyPageSize             = "PageSize"
	KeyHasPrevious          = "HasPrevious"
	KeyHasNext              = "HasNext"
)

// SortParamKey is the per-field key holding the next sort token, e.g. "NameSortParm".
func SortParamKey(field string) string {
	return field + "SortParm"
}

// StateWriter receives presentation state. *gin.Context satisfies it.
type StateWriter interface {
	Set(key string, value any)
}

// State is a map-backed StateWriter with typed accessors.
type State map[string]any

// Set stores a value.
func (s State) Set(key string, value any) {
	s[key] = value
}

// String returns the string stored at key or "".
func (s State) String(key string) string {
	v, _ := s[key].(string)
	return v
}

// Int returns the int stored at key or 0.
func (s State) Int(key string) int {
	v, _ := s[key].(int)
	return v
}

// Bool returns the bool stored at key or false.
func (s State) Bool(key string) bool {
	v, _ := s[key].(bool)
	return v
}

// SortTokens returns the next sort token per sortable field.
func (s State) SortTokens() map[string]string {
	v, _ := s[KeySortTokens].(map[string]string)
	return v
}
