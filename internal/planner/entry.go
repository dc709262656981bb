// Package planner holds the daily planner entry model, the codec between the
// in-memory entry and its persisted document form, and the carry-forward rules
// for seeding a new day from the previous one.
package planner

// Nominal list shapes. Entries created in the app always carry these lengths;
// documents read back may carry any length and are preserved as-is.
const (
	FreeTextSlots = 3
	HabitSlots    = 4
	PrioritySlots = 3
)

// ChecklistItem is one habit or priority row.
type ChecklistItem struct {
	Text    string `json:"text"`
	Checked bool   `json:"checked"`
}

// ScheduleEvent is one calendar block on an entry's date.
type ScheduleEvent struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Description string `json:"description,omitempty"`
}

// Document is the persisted form of a planner entry. Any field may be absent
// in older documents; FromDocument fills the gaps.
type Document struct {
	Date                   string          `json:"date"`
	EnergyLevel            string          `json:"energyLevel"`
	Mood                   string          `json:"mood"`
	GratefulFor            []string        `json:"gratefulFor"`
	ExcitedAbout           []string        `json:"excitedAbout"`
	PeopleToSee            []string        `json:"peopleToSee"`
	MindHabits             []ChecklistItem `json:"mindHabits"`
	BodyHabits             []ChecklistItem `json:"bodyHabits"`
	SpiritHabits           []ChecklistItem `json:"spiritHabits"`
	Meals                  string          `json:"meals"`
	Water                  string          `json:"water"`
	Intention              string          `json:"intention"`
	IAm                    string          `json:"iAm"`
	ScheduleEvents         []ScheduleEvent `json:"scheduleEvents"`
	TopPriorities          []ChecklistItem `json:"topPriorities"`
	ProfessionalPriorities []ChecklistItem `json:"professionalPriorities"`
	PersonalPriorities     []ChecklistItem `json:"personalPriorities"`
	InfinitePossibilities  string          `json:"infinitePossibilities"`
	WhatInspiredMe         string          `json:"whatInspiredMe"`
	PositiveThings         []string        `json:"positiveThings"`
	WhatDidIDoWell         string          `json:"whatDidIDoWell"`
	WhatDidILearn          string          `json:"whatDidILearn"`
	CreatedAt              string          `json:"createdAt,omitempty"`
	UpdatedAt              string          `json:"updatedAt,omitempty"`
}

func blankStrings(n int) []string {
	return make([]string, n)
}

func blankItems(n int) []ChecklistItem {
	return make([]ChecklistItem, n)
}

// Blank returns a fully blank document for the given date: empty scalars,
// nominal-length lists, no schedule events.
func Blank(date string) Document {
	return Document{
		Date:                   date,
		GratefulFor:            blankStrings(FreeTextSlots),
		ExcitedAbout:           blankStrings(FreeTextSlots),
		PeopleToSee:            blankStrings(FreeTextSlots),
		PositiveThings:         blankStrings(FreeTextSlots),
		MindHabits:             blankItems(HabitSlots),
		BodyHabits:             blankItems(HabitSlots),
		SpiritHabits:           blankItems(HabitSlots),
		TopPriorities:          blankItems(PrioritySlots),
		ProfessionalPriorities: blankItems(PrioritySlots),
		PersonalPriorities:     blankItems(PrioritySlots),
		ScheduleEvents:         []ScheduleEvent{},
	}
}
