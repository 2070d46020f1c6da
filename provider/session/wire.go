package session

import "encoding/json"

type lookupWire struct {
	Session string `json:"session"`
	Title   string `json:"title"`
}

type episodeWire struct {
	Session  string  `json:"session"`
	Number   float64 `json:"number"`
	Title    string  `json:"title"`
	Snapshot string  `json:"snapshot"`
}

type pageWire struct {
	Episodes []episodeWire `json:"episodes"`
	LastPage int           `json:"last_page"`
}

type sourceWire struct {
	URL     string `json:"url"`
	Quality string `json:"quality"`
	IsDub   bool   `json:"isDub"`
	IsM3U8  bool   `json:"isM3U8"`
}

type subtitleWire struct {
	URL  string `json:"url"`
	Lang string `json:"lang"`
}

type sourcesWire struct {
	Sources   []sourceWire    `json:"sources"`
	Subtitles []subtitleWire  `json:"subtitles"`
	Downloads json.RawMessage `json:"downloads"`
	Headers   struct {
		Referer   string `json:"Referer"`
		UserAgent string `json:"User-Agent"`
	} `json:"headers"`
}
