package domain

import (
	"bytes"
	"encoding/json"
)

// User is the identity of the logged-in user as cached by the session layer.
//
// The service may send more than id, name and email. Those fields are kept
// in Extra, written back by MarshalJSON and included in Filter, so the cached
// user is the object the service returned.
type User struct {
	ID    ID     `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`

	// Extra holds the remaining fields. Numbers are json.Number.
	Extra map[string]any `json:"-"`
}

type userFields struct {
	ID    ID     `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

var userKeys = []string{"id", "name", "email"}

// UnmarshalJSON decodes the typed fields and keeps the rest in Extra.
func (u *User) UnmarshalJSON(b []byte) error {
	var typed userFields
	if err := json.Unmarshal(b, &typed); err != nil {
		return err
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var all map[string]any
	if err := dec.Decode(&all); err != nil {
		return err
	}
	for _, k := range userKeys {
		delete(all, k)
	}
	if len(all) == 0 {
		all = nil
	}

	*u = User{ID: typed.ID, Name: typed.Name, Email: typed.Email, Extra: all}
	return nil
}

// MarshalJSON writes Extra alongside the typed fields. Typed fields win on
// a key clash.
func (u User) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(u.Extra)+len(userKeys))
	for k, v := range u.Extra {
		out[k] = v
	}
	out["id"] = u.ID
	if u.Name != "" {
		out["name"] = u.Name
	}
	if u.Email != "" {
		out["email"] = u.Email
	}
	return json.Marshal(out)
}

// Filter returns every populated field of the user as request parameters.
// The sidebar scopes account listing by the whole identity, not just the id.
// Nested values are sent as their JSON text.
func (u User) Filter() map[string]any {
	f := make(map[string]any, len(u.Extra)+len(userKeys))
	for k, v := range u.Extra {
		switch v.(type) {
		case map[string]any, []any:
			b, err := json.Marshal(v)
			if err != nil {
				continue
			}
			f[k] = string(b)
		default:
			f[k] = v
		}
	}
	f["id"] = u.ID.String()
	if u.Name != "" {
		f["name"] = u.Name
	}
	if u.Email != "" {
		f["email"] = u.Email
	}
	return f
}
