package student

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// csvColumns maps accepted header spellings to a setter on Record. Headers
// are matched case-insensitively with spaces and underscores ignored, so the
// spreadsheet export of the registration form loads without renaming.
var csvColumns = map[string]func(*Record, string){
	"id":                  func(r *Record, v string) { r.ID = v },
	"fullname":            func(r *Record, v string) { r.FullName = v },
	"name":                func(r *Record, v string) { r.FullName = v },
	"matricnumber":        func(r *Record, v string) { r.MatricNumber = v },
	"matricno":            func(r *Record, v string) { r.MatricNumber = v },
	"level":               func(r *Record, v string) { r.Level = v },
	"department":          func(r *Record, v string) { r.Department = v },
	"photourl":            func(r *Record, v string) { r.PhotoURL = v },
	"quote":               func(r *Record, v string) { r.Quote = v },
	"bio":                 func(r *Record, v string) { r.Bio = v },
	"hobbies":             func(r *Record, v string) { r.Hobbies = v },
	"achievements":        func(r *Record, v string) { r.Achievements = v },
	"favoritecourse":      func(r *Record, v string) { r.FavoriteCourse = v },
	"leastfavoritecourse": func(r *Record, v string) { r.LeastFavoriteCourse = v },
	"bestmoment":          func(r *Record, v string) { r.BestMoment = v },
	"worstmoment":         func(r *Record, v string) { r.WorstMoment = v },
	"favoritelecturer":    func(r *Record, v string) { r.FavoriteLecturer = v },
	"advice":              func(r *Record, v string) { r.Advice = v },
	"instagram":           func(r *Record, v string) { r.Instagram = v },
	"twitter":             func(r *Record, v string) { r.Twitter = v },
	"linkedin":            func(r *Record, v string) { r.LinkedIn = v },
	"relationshipstatus":  func(r *Record, v string) { r.RelationshipStatus = v },
	"birthmonth":          func(r *Record, v string) { r.BirthMonth = v },
	"birthday":            func(r *Record, v string) { r.BirthDay = v },
	"track":               func(r *Record, v string) { r.Track = v },
	"ifnotthisprogram":    func(r *Record, v string) { r.IfNotThisProgram = v },
	"favoritecolor":       func(r *Record, v string) { r.FavoriteColor = v },
	"featured": func(r *Record, v string) {
		switch strings.ToLower(v) {
		case "true", "1", "yes", "y":
			r.Featured = true
		}
	},
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.ReplaceAll(h, "favourite", "favorite")
	return strings.NewReplacer(" ", "", "_", "", "-", "", ".", "").Replace(h)
}

// LoadFromDataDir loads student CSVs from a data directory (best-effort).
// students.csv is required; featured.csv is optional and marks its rows as
// featured.
func LoadFromDataDir(dataDir string) ([]Record, error) {
	files := []struct {
		path     string
		featured bool
	}{
		{filepath.Join(dataDir, "students.csv"), false},
		{filepath.Join(dataDir, "featured.csv"), true},
	}

	var all []Record
	var found bool
	for _, f := range files {
		if _, err := os.Stat(f.path); err != nil {
			continue
		}
		found = true
		rs, err := loadSingleCSV(f.path)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", f.path, err)
		}
		for i := range rs {
			rs[i].Featured = rs[i].Featured || f.featured
		}
		all = append(all, rs...)
	}
	if !found {
		return nil, fmt.Errorf("no student CSVs found in %s", dataDir)
	}
	return all, nil
}

func loadSingleCSV(path string) ([]Record, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fp.Close()

	r := csv.NewReader(fp)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) < 1 {
		return nil, fmt.Errorf("csv %s has no header", path)
	}

	setters := make([]func(*Record, string), len(rows[0]))
	for i, h := range rows[0] {
		setters[i] = csvColumns[normalizeHeader(h)]
	}

	out := []Record{}
	for n, row := range rows[1:] {
		var rec Record
		for i, cell := range row {
			v := strings.TrimSpace(cell)
			if i >= len(setters) || v == "" || v == "-" {
				continue
			}
			if set := setters[i]; set != nil {
				set(&rec, v)
				continue
			}
			if rec.Extra == nil {
				rec.Extra = map[string]any{}
			}
			rec.Extra[strings.TrimSpace(rows[0][i])] = v
		}
		if rec.FullName == "" {
			return nil, fmt.Errorf("csv %s row %d: %w", path, n+2, ErrNameRequired)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Seed inserts records whose ID (when set) is not already present. It
// returns the number of records created.
func Seed(ctx context.Context, repo Repository, records []Record) (int, error) {
	created := 0
	for _, r := range records {
		if r.ID != "" {
			if _, err := repo.Get(ctx, r.ID); err == nil {
				continue
			}
		}
		if _, err := repo.Create(ctx, r); err != nil {
			return created, fmt.Errorf("seed %q: %w", r.FullName, err)
		}
		created++
	}
	return created, nil
}
