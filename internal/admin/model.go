package admin

import "time"

// Admin is a roster entry granting reviewer rights. The owner identity is
// configured statically and is never stored in the roster.
type Admin struct {
	UserID  int64     `json:"user_id"`
	AddedBy int64     `json:"added_by"`
	AddedOn time.Time `json:"added_on"`
}
