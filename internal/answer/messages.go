package answer

// Canned responses for states where the LLM is not consulted.
const (
	notReadyHU = "Az adatbázis még nincs betöltve. Kérlek várj egy pillanatot, majd próbáld újra."
	notReadyEN = "Database is not loaded yet. Please wait a moment and try again."

	noResultsHU = "Sajnos nem találtam találatot a telefonkönyvben a keresésre."
	noResultsEN = "Sorry, I couldn't find any results in the phonebook for your search."
)

// NotReadyMessage is the answer while the collection is still being built.
func NotReadyMessage(language string) string {
	if language == "en" {
		return notReadyEN
	}
	return notReadyHU
}

// NoResultsMessage is the answer when retrieval finds nothing.
func NoResultsMessage(language string) string {
	if language == "en" {
		return noResultsEN
	}
	return noResultsHU
}
