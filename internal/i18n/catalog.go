package i18n

import (
	"sort"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var messages = map[language.Tag]map[string]string{
	language.English: {
		"app.title":             "Is It Up",
		"state.current":         "Current state",
		"state.on":              "On",
		"state.off":             "Off",
		"state.unknown":         "Unknown",
		"lastChange.label":      "Last change",
		"lastChange.switchedTo": "Switched to",
		"lastChange.ago":        "%s ago",
		"lastChange.previous":   "Before that: %s for %s",
		"history.title":         "History",
		"history.hours6":        "6 hours",
		"history.hours12":       "12 hours",
		"history.hours24":       "24 hours",
		"history.hours48":       "48 hours",
		"history.days7":         "7 days",
		"history.empty":         "No history in this range.",
		"footer.source":         "Data from %s · refreshes every %d s",
		"error.failed":          "Failed to load data",
		"chart.state":           "State",
		"chart.time":            "Time",
		"units.h":               "h",
		"units.m":               "m",
		"lang.en":               "English",
		"lang.uk":               "Українська",
		"theme.light":           "Light mode",
		"theme.dark":            "Dark mode",
	},
	language.Ukrainian: {
		"app.title":             "Чи є світло",
		"state.current":         "Поточний стан",
		"state.on":              "Увімкнено",
		"state.off":             "Вимкнено",
		"state.unknown":         "Невідомо",
		"lastChange.label":      "Остання зміна",
		"lastChange.switchedTo": "Змінено на",
		"lastChange.ago":        "%s тому",
		"lastChange.previous":   "До того: %s протягом %s",
		"history.title":         "Історія",
		"history.hours6":        "6 годин",
		"history.hours12":       "12 годин",
		"history.hours24":       "24 години",
		"history.hours48":       "48 годин",
		"history.days7":         "7 днів",
		"history.empty":         "Немає даних за обраний період.",
		"footer.source":         "Дані з %s · оновлення кожні %d с",
		"error.failed":          "Не вдалося завантажити дані",
		"chart.state":           "Стан",
		"chart.time":            "Час",
		"units.h":               "год",
		"units.m":               "хв",
		"lang.en":               "English",
		"lang.uk":               "Українська",
		"theme.light":           "Світла тема",
		"theme.dark":            "Темна тема",
	},
}

func init() {
	for tag, msgs := range messages {
		keys := make([]string, 0, len(msgs))
		for key := range msgs {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if err := message.SetString(tag, key, msgs[key]); err != nil {
				panic("i18n: register " + tag.String() + " " + key + ": " + err.Error())
			}
		}
	}
}

// Keys returns the message keys known for tag, sorted.
func Keys(tag language.Tag) []string {
	msgs := messages[tag]
	keys := make([]string, 0, len(msgs))
	for key := range msgs {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
