package domain

// LikeList is the set of items a user has liked
type LikeList struct {
	Entity
	CreatedBy *User  `json:"createdBy,omitempty"`
	Items     []Item `json:"items"`
}

// IndexOf returns the position of the item or -1
func (l LikeList) IndexOf(itemID string) int {
	for i, item := range l.Items {
		if item.ID == itemID {
			return i
		}
	}
	return -1
}

// Contains reports whether the item is liked
func (l LikeList) Contains(itemID string) bool {
	return l.IndexOf(itemID) >= 0
}
