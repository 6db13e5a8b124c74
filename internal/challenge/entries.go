package challenge

import (
	"errors"
	"fmt"
)

// Days is the number of prompt days; day 0 is the introduction.
const Days = 30

var ErrDayNotFound = errors.New("challenge day not found")

// Entry is one day of the challenge.
type Entry struct {
	Day    int    `json:"day"`
	Prompt string `json:"prompt"`
}

const Title = "30-Day Personality Challenge"

var entries = [Days + 1]string{
	"Thirty days, thirty prompts. Share one answer a day and tag a classmate to join you.",
	"Introduce yourself in three words.",
	"Post a photo from your first week on campus.",
	"Which course surprised you the most?",
	"Your go-to spot for studying.",
	"The lecturer whose class you never skip.",
	"One skill you picked up outside the classroom.",
	"Your most-played song during exams.",
	"A group project story you still laugh about.",
	"The best advice a senior ever gave you.",
	"What does a perfect Saturday look like for you?",
	"Share your workspace setup.",
	"A book, podcast or video that changed how you think.",
	"Your favourite meal on campus.",
	"The moment you knew you chose the right program.",
	"Something you are proud of this semester.",
	"A hobby nobody in class knows about.",
	"Your dream job in ten years.",
	"Describe your department in one emoji.",
	"A tool or app you cannot study without.",
	"Your toughest exam and how you got through it.",
	"Shout out a friend who always has your back.",
	"One thing you would tell your first-year self.",
	"Your favourite campus event so far.",
	"A habit you are trying to build.",
	"The place you want to visit after graduation.",
	"A project you would love to build with classmates.",
	"Your comfort snack during late-night reading.",
	"What does community mean to you?",
	"One goal for the rest of the session.",
	"Thank someone who made this year better.",
}

// Lookup returns the entry for day, or ErrDayNotFound outside 0..30.
func Lookup(day int) (Entry, error) {
	if day < 0 || day > Days {
		return Entry{}, fmt.Errorf("%w: %d", ErrDayNotFound, day)
	}
	return Entry{Day: day, Prompt: entries[day]}, nil
}

// All returns every entry including the introduction.
func All() []Entry {
	out := make([]Entry, 0, len(entries))
	for d, p := range entries {
		out = append(out, Entry{Day: d, Prompt: p})
	}
	return out
}
