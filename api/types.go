package api

import (
	"errors"
	"fmt"
)

// ErrPageNotFound is returned when the requested page does not exist.
var ErrPageNotFound = errors.New("page not found")

// ErrorResponse represents an API error.
type ErrorResponse struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Info       string `json:"info"`
}

func (e *ErrorResponse) Error() string {
	if e.Code == "" {
		return e.Info
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Info)
}

// Page is a page with the wikitext of its latest revision.
type Page struct {
	PageID       int    `json:"pageid"`
	Title        string `json:"title"`
	RevisionID   int    `json:"revid"`
	ContentModel string `json:"contentmodel"`
	Source       string `json:"source"`
}

// SiteInfo holds general information about a wiki.
type SiteInfo struct {
	SiteName  string `json:"sitename"`
	Generator string `json:"generator"`
	MainPage  string `json:"mainpage"`
	Base      string `json:"base"`
}

type queryResponse struct {
	Query struct {
		Pages   []queryPage `json:"pages"`
		General *SiteInfo   `json:"general"`
	} `json:"query"`
}

type queryPage struct {
	PageID    int             `json:"pageid"`
	Title     string          `json:"title"`
	Missing   bool            `json:"missing"`
	Invalid   bool            `json:"invalid"`
	Revisions []queryRevision `json:"revisions"`
}

type queryRevision struct {
	RevID int `json:"revid"`
	Slots struct {
		Main struct {
			ContentModel string `json:"contentmodel"`
			Content      string `json:"content"`
		} `json:"main"`
	} `json:"slots"`
}

// StatusCode returns the HTTP status of the *ErrorResponse in err's chain,
// or 0 if there is none.
func StatusCode(err error) int {
	var apiErr *ErrorResponse
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
