package legacy

import "encoding/json"

type episodeWire struct {
	ID     string  `json:"id"`
	Number float64 `json:"number"`
	Title  string  `json:"title"`
	Image  string  `json:"image"`
}

type infoWire struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Episodes []episodeWire `json:"episodes"`
}

type headersWire struct {
	Referer   string `json:"Referer"`
	UserAgent string `json:"User-Agent"`
}

type sourceWire struct {
	URL     string `json:"url"`
	Quality string `json:"quality"`
	IsM3U8  bool   `json:"isM3U8"`
	// Type is "embed" for player pages that still need scraping.
	Type string `json:"type"`
}

type subtitleWire struct {
	URL  string `json:"url"`
	Lang string `json:"lang"`
}

type watchWire struct {
	Headers   headersWire     `json:"headers"`
	Sources   []sourceWire    `json:"sources"`
	Subtitles []subtitleWire  `json:"subtitles"`
	Download  json.RawMessage `json:"download"`
}
