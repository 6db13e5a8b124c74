package student

import "strings"

type FilterOptions struct {
	Departments []string `json:"departments"`
	Levels      []string `json:"levels"`
	Tracks      []string `json:"tracks"`
	FreeWords   string   `json:"freeWords"`
	// FeaturedMode is "featured", "regular" or "" for both.
	FeaturedMode string `json:"featuredMode"`
	HasCard      *bool  `json:"hasCard"`
}

func equalsAnyFold(v string, options []string) bool {
	for _, o := range options {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(o)) {
			return true
		}
	}
	return false
}

func Filter(records []Record, opt FilterOptions) []Record {
	out := []Record{}
	for _, r := range records {
		if opt.FeaturedMode == "featured" && !r.Featured {
			continue
		}
		if opt.FeaturedMode == "regular" && r.Featured {
			continue
		}
		if opt.HasCard != nil {
			has := r.CardImageURL != nil && *r.CardImageURL != ""
			if has != *opt.HasCard {
				continue
			}
		}
		if len(opt.Departments) > 0 && !equalsAnyFold(r.Department, opt.Departments) {
			continue
		}
		if len(opt.Levels) > 0 && !equalsAnyFold(strings.TrimSuffix(strings.TrimSpace(r.Level), " Level"), opt.Levels) {
			continue
		}
		if len(opt.Tracks) > 0 && !equalsAnyFold(r.Track, opt.Tracks) {
			continue
		}
		if opt.FreeWords != "" && !matchesAllWords(r, strings.Fields(opt.FreeWords)) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func matchesAllWords(r Record, words []string) bool {
	hay := []string{r.FullName, r.MatricNumber, r.Department, r.Quote, r.Bio, r.Hobbies}
	for _, f := range r.KnownFields() {
		hay = append(hay, f.Value)
	}
	text := strings.ToLower(strings.Join(hay, " "))
	for _, w := range words {
		if !strings.Contains(text, strings.ToLower(w)) {
			return false
		}
	}
	return true
}
