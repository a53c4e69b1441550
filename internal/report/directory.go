package report

import "github.com/segyhp/dialoger-export/internal/domain"

// UnknownName is shown when a referenced user or location is not in the directory
const UnknownName = "Unbekannt"

// Directory is an ordered id -> display name snapshot, built once per report run
type Directory struct {
	ids   []string
	names map[string]string
}

// NewUserDirectory builds the dialoger directory in the order the users were returned
func NewUserDirectory(users []*domain.User) *Directory {
	d := &Directory{names: make(map[string]string, len(users))}
	for _, u := range users {
		d.add(u.ID, u.DisplayName())
	}
	return d
}

// NewLocationDirectory builds the location directory
func NewLocationDirectory(locations []*domain.Location) *Directory {
	d := &Directory{names: make(map[string]string, len(locations))}
	for _, l := range locations {
		d.add(l.ID, l.DisplayName())
	}
	return d
}

func (d *Directory) add(id, name string) {
	if _, exists := d.names[id]; !exists {
		d.ids = append(d.ids, id)
	}
	d.names[id] = name
}

// Lookup returns the display name for id
func (d *Directory) Lookup(id string) (string, bool) {
	if d == nil {
		return "", false
	}
	name, ok := d.names[id]
	return name, ok
}

// Name returns the display name for id, or UnknownName
func (d *Directory) Name(id string) string {
	if name, ok := d.Lookup(id); ok {
		return name
	}
	return UnknownName
}

// IDs returns the ids in insertion order
func (d *Directory) IDs() []string {
	if d == nil {
		return nil
	}
	return d.ids
}

// Len returns the number of entries
func (d *Directory) Len() int {
	if d == nil {
		return 0
	}
	return len(d.ids)
}
