package planner

// An item is incomplete when it has text but was never checked off. Blank
// rows and completed rows both count as done for carry-forward purposes.
func incomplete(item ChecklistItem) bool {
	return item.Text != "" && !item.Checked
}

func hasIncomplete(items []ChecklistItem) bool {
	for _, item := range items {
		if incomplete(item) {
			return true
		}
	}
	return false
}

// extractIncomplete rebuilds a list position-by-position: incomplete items
// keep their text with the checkbox reset, everything else becomes a blank
// row. List length is preserved.
func extractIncomplete(items []ChecklistItem) []ChecklistItem {
	out := make([]ChecklistItem, len(items))
	for i, item := range items {
		if incomplete(item) {
			out[i] = ChecklistItem{Text: item.Text}
		}
	}
	return out
}

// CarryForward seeds a new entry for date from the most recent prior entry.
// It returns (entry, true) when at least one habit or priority in prev is
// incomplete; the produced entry carries only those items, with all other
// fields blank. When nothing is incomplete it returns (zero, false) and the
// caller starts from a blank entry instead.
func CarryForward(prev Document, date string) (Document, bool) {
	carried := hasIncomplete(prev.MindHabits) ||
		hasIncomplete(prev.BodyHabits) ||
		hasIncomplete(prev.SpiritHabits) ||
		hasIncomplete(prev.TopPriorities) ||
		hasIncomplete(prev.ProfessionalPriorities) ||
		hasIncomplete(prev.PersonalPriorities)
	if !carried {
		return Document{}, false
	}

	next := Blank(date)
	next.MindHabits = extractIncomplete(prev.MindHabits)
	next.BodyHabits = extractIncomplete(prev.BodyHabits)
	next.SpiritHabits = extractIncomplete(prev.SpiritHabits)
	next.TopPriorities = extractIncomplete(prev.TopPriorities)
	next.ProfessionalPriorities = extractIncomplete(prev.ProfessionalPriorities)
	next.PersonalPriorities = extractIncomplete(prev.PersonalPriorities)
	return next, true
}
