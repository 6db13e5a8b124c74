package student

import (
	"strings"
	"time"
)

// Record is a registered student. Only ID and FullName are required; every
// other field is optional and may be empty. Extra carries fields the
// registration form sends that this service does not know about. Templates
// never read it.
type Record struct {
	ID                  string    `json:"id"`
	FullName            string    `json:"fullName"`
	MatricNumber        string    `json:"matricNumber,omitempty"`
	Level               string    `json:"level,omitempty"`
	Department          string    `json:"department,omitempty"`
	PhotoURL            string    `json:"photoURL,omitempty"`
	Quote               string    `json:"quote,omitempty"`
	Bio                 string    `json:"bio,omitempty"`
	Hobbies             string    `json:"hobbies,omitempty"`
	Achievements        string    `json:"achievements,omitempty"`
	FavoriteCourse      string    `json:"favoriteCourse,omitempty"`
	LeastFavoriteCourse string    `json:"leastFavoriteCourse,omitempty"`
	BestMoment          string    `json:"bestMoment,omitempty"`
	WorstMoment         string    `json:"worstMoment,omitempty"`
	FavoriteLecturer    string    `json:"favoriteLecturer,omitempty"`
	Advice              string    `json:"advice,omitempty"`
	Instagram           string    `json:"instagram,omitempty"`
	Twitter             string    `json:"twitter,omitempty"`
	LinkedIn            string    `json:"linkedIn,omitempty"`
	RelationshipStatus  string    `json:"relationshipStatus,omitempty"`
	BirthMonth          string    `json:"birthMonth,omitempty"`
	BirthDay            string    `json:"birthDay,omitempty"`
	Track               string    `json:"track,omitempty"`
	IfNotThisProgram    string    `json:"ifNotThisProgram,omitempty"`
	FavoriteColor       string    `json:"favoriteColor,omitempty"`
	Featured            bool      `json:"featured"`
	CardImageURL        *string   `json:"cardImageURL"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`

	Extra map[string]any `json:"extra,omitempty"`
}

// Field is one labelled, non-empty optional attribute of a record.
type Field struct {
	Key   string
	Label string
	Value string
}

// KnownFields returns the non-empty descriptive fields in a fixed display
// order. Identity, photo, quote, bio and social handles are rendered in
// dedicated slots and are not included.
func (r Record) KnownFields() []Field {
	all := []Field{
		{"hobbies", "Hobbies", r.Hobbies},
		{"achievements", "Achievements", r.Achievements},
		{"favoriteCourse", "Favourite Course", r.FavoriteCourse},
		{"leastFavoriteCourse", "Least Favourite Course", r.LeastFavoriteCourse},
		{"favoriteLecturer", "Favourite Lecturer", r.FavoriteLecturer},
		{"bestMoment", "Best Moment", r.BestMoment},
		{"worstMoment", "Worst Moment", r.WorstMoment},
		{"track", "Track", r.Track},
		{"ifNotThisProgram", "If Not This Program", r.IfNotThisProgram},
		{"relationshipStatus", "Relationship Status", r.RelationshipStatus},
		{"birthday", "Birthday", r.Birthday()},
		{"advice", "Advice to Freshers", r.Advice},
	}
	out := make([]Field, 0, len(all))
	for _, f := range all {
		f.Value = strings.TrimSpace(f.Value)
		if f.Value != "" {
			out = append(out, f)
		}
	}
	return out
}

// Socials returns the non-empty social handles as label/value pairs.
func (r Record) Socials() []Field {
	all := []Field{
		{"instagram", "IG", r.Instagram},
		{"twitter", "X", r.Twitter},
		{"linkedIn", "in", r.LinkedIn},
	}
	out := make([]Field, 0, len(all))
	for _, f := range all {
		v := strings.TrimSpace(f.Value)
		if v == "" {
			continue
		}
		if f.Key != "linkedIn" && !strings.HasPrefix(v, "@") {
			v = "@" + v
		}
		f.Value = v
		out = append(out, f)
	}
	return out
}

func (r Record) Birthday() string {
	m, d := strings.TrimSpace(r.BirthMonth), strings.TrimSpace(r.BirthDay)
	switch {
	case m != "" && d != "":
		return m + " " + d
	default:
		return m
	}
}

// Initial is the uppercased first letter of the full name, or "?" when the
// name is empty.
func (r Record) Initial() string {
	for _, ch := range strings.TrimSpace(r.FullName) {
		return strings.ToUpper(string(ch))
	}
	return "?"
}

// Subtitle joins level and department, e.g. "300 Level · Computer Science".
func (r Record) Subtitle() string {
	parts := make([]string, 0, 2)
	if lvl := strings.TrimSpace(r.Level); lvl != "" {
		if !strings.Contains(strings.ToLower(lvl), "level") {
			lvl += " Level"
		}
		parts = append(parts, lvl)
	}
	if dep := strings.TrimSpace(r.Department); dep != "" {
		parts = append(parts, dep)
	}
	return strings.Join(parts, " · ")
}

// Slug is a filesystem-safe version of the full name used for file names.
func (r Record) Slug() string {
	var b strings.Builder
	dash := false
	for _, ch := range strings.ToLower(strings.TrimSpace(r.FullName)) {
		switch {
		case ch >= 'a' && ch <= 'z', ch >= '0' && ch <= '9':
			b.WriteRune(ch)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
