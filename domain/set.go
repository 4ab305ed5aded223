package domain

import (
	"encoding/json"
	"sort"
)

// UserSet holds user ids with set semantics: adding twice keeps one entry,
// removing an absent id is a no-op. The original arrays-as-sets scheme is
// replaced by a real set so concurrent updates cannot introduce duplicates.
type UserSet map[UserID]struct{}

func NewUserSet(ids ...UserID) UserSet {
	s := make(UserSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s UserSet) Add(id UserID)      { s[id] = struct{}{} }
func (s UserSet) Remove(id UserID)   { delete(s, id) }
func (s UserSet) Has(id UserID) bool { _, ok := s[id]; return ok }
func (s UserSet) Len() int           { return len(s) }

// Values returns the members in a stable order.
func (s UserSet) Values() []UserID {
	ids := make([]UserID, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s UserSet) Clone() UserSet {
	c := make(UserSet, len(s))
	for id := range s {
		c[id] = struct{}{}
	}
	return c
}

// Sets are stored as sorted JSON arrays, matching the document shape of the
// membership lists they replace.
func (s UserSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Values())
}

func (s *UserSet) UnmarshalJSON(data []byte) error {
	var ids []UserID
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = NewUserSet(ids...)
	return nil
}
