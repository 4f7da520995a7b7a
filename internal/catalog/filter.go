package catalog

import "ticketHub/internal/model"

// FilterByCategory keeps events whose category equals category exactly.
// AllCategories keeps everything.
func FilterByCategory(events []model.CatalogEvent, category string) []model.CatalogEvent {
	out := make([]model.CatalogEvent, 0, len(events))
	for _, event := range events {
		if category == AllCategories || event.Category == category {
			out = append(out, event)
		}
	}
	return out
}

func Find(events []model.CatalogEvent, id string) (model.CatalogEvent, bool) {
	for _, event := range events {
		if event.ID == id {
			return event, true
		}
	}
	return model.CatalogEvent{}, false
}

func Featured(events []model.CatalogEvent) []model.CatalogEvent {
	out := make([]model.CatalogEvent, 0)
	for _, event := range events {
		if event.Featured {
			out = append(out, event)
		}
	}
	return out
}

func Categories(events []model.CatalogEvent) []string {
	seen := map[string]bool{AllCategories: true}
	out := []string{AllCategories}
	for _, event := range events {
		if event.Category == "" || seen[event.Category] {
			continue
		}
		seen[event.Category] = true
		out = append(out, event.Category)
	}
	return out
}
