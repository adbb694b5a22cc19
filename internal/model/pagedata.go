package model

import "strconv"

// PageData holds the content substituted into a thing's page.
type PageData struct {
	Name        string
	Title       string
	Grid        string
	Number      int
	Description string
}

// Placeholders returns the placeholder name to content mapping of the page.
func (p PageData) Placeholders() map[string]string {
	return map[string]string{
		"name":        p.Name,
		"title":       p.Title,
		"grid":        p.Grid,
		"number":      strconv.Itoa(p.Number),
		"description": p.Description,
	}
}

// IndexData holds the content substituted into the top-level index page.
type IndexData struct {
	Grid string
}

func (i IndexData) Placeholders() map[string]string {
	return map[string]string{"grid": i.Grid}
}
