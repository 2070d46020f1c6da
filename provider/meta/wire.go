package meta

type episodeWire struct {
	ID     string  `json:"id"`
	Number float64 `json:"number"`
	Title  string  `json:"title"`
	Image  string  `json:"image"`
}

type titleWire struct {
	Romaji  string `json:"romaji"`
	English string `json:"english"`
	Native  string `json:"native"`
}

type infoWire struct {
	ID       string    `json:"id"`
	Title    titleWire `json:"title"`
	Synonyms []string  `json:"synonyms"`
}

type searchResultWire struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type searchWire struct {
	Results []searchResultWire `json:"results"`
}

type targetInfoWire struct {
	ID       string        `json:"id"`
	Episodes []episodeWire `json:"episodes"`
}
