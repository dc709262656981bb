package planner

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the calendar-date form used as the entry key.
const DateLayout = "2006-01-02"

// ValidDate reports whether value is an ISO calendar date (YYYY-MM-DD).
func ValidDate(value string) bool {
	_, err := time.Parse(DateLayout, value)
	return err == nil
}

// ToDocument serializes an entry to its persisted form. The date must be an
// ISO calendar date; everything else is written as-is so no defined field is
// lost on round-trip.
func ToDocument(doc Document) ([]byte, error) {
	if !ValidDate(doc.Date) {
		return nil, fmt.Errorf("invalid entry date %q", doc.Date)
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal entry: %w", err)
	}
	return raw, nil
}

// FromDocument parses a persisted record and fills any missing field with its
// same-shape default: empty string scalars, three blank strings, four blank
// habit items, three blank priority items, an empty schedule. Documents never
// assume field presence; older records may omit anything.
func FromDocument(raw []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Document{}, fmt.Errorf("unmarshal entry: %w", err)
	}
	fillDefaults(&doc)
	return doc, nil
}

func fillDefaults(doc *Document) {
	if doc.GratefulFor == nil {
		doc.GratefulFor = blankStrings(FreeTextSlots)
	}
	if doc.ExcitedAbout == nil {
		doc.ExcitedAbout = blankStrings(FreeTextSlots)
	}
	if doc.PeopleToSee == nil {
		doc.PeopleToSee = blankStrings(FreeTextSlots)
	}
	if doc.PositiveThings == nil {
		doc.PositiveThings = blankStrings(FreeTextSlots)
	}
	if doc.MindHabits == nil {
		doc.MindHabits = blankItems(HabitSlots)
	}
	if doc.BodyHabits == nil {
		doc.BodyHabits = blankItems(HabitSlots)
	}
	if doc.SpiritHabits == nil {
		doc.SpiritHabits = blankItems(HabitSlots)
	}
	if doc.TopPriorities == nil {
		doc.TopPriorities = blankItems(PrioritySlots)
	}
	if doc.ProfessionalPriorities == nil {
		doc.ProfessionalPriorities = blankItems(PrioritySlots)
	}
	if doc.PersonalPriorities == nil {
		doc.PersonalPriorities = blankItems(PrioritySlots)
	}
	if doc.ScheduleEvents == nil {
		doc.ScheduleEvents = []ScheduleEvent{}
	}
}
