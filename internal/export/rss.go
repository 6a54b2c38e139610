// Package export renders link collections into external formats.
package export

import (
	"encoding/xml"
	"fmt"
	"html"
	"sort"
	"time"

	"github.com/starford/raido/internal/models"
)

// FeedOptions configures RSS generation.
type FeedOptions struct {
	Title       string
	Description string
	SiteURL     string
	// Limit caps the number of items. 0 means all.
	Limit int
}

type rssGUID struct {
	IsPermaLink string `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

type rssItem struct {
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	Description string   `xml:"description,omitempty"`
	PubDate     string   `xml:"pubDate,omitempty"`
	GUID        rssGUID  `xml:"guid"`
	Categories  []string `xml:"category"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	LastBuildDate string    `xml:"lastBuildDate"`
	Items         []rssItem `xml:"item"`
}

type rssRoot struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

// GenerateRSS renders links as an RSS 2.0 feed, newest source date first.
// Item categories come from the Tags already loaded on each record.
func GenerateRSS(links []models.LinkRecord, opts FeedOptions) (string, error) {
	sorted := append([]models.LinkRecord(nil), links...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SourceDate.After(sorted[j].SourceDate)
	})
	if opts.Limit > 0 && len(sorted) > opts.Limit {
		sorted = sorted[:opts.Limit]
	}

	channel := rssChannel{
		Title:         opts.Title,
		Link:          opts.SiteURL,
		Description:   opts.Description,
		LastBuildDate: time.Now().Format(time.RFC1123Z),
	}

	for _, link := range sorted {
		item := rssItem{
			Title: html.UnescapeString(itemTitle(link)),
			Link:  link.URL,
			GUID:  rssGUID{IsPermaLink: "true", Value: link.URL},
		}
		if desc := itemDescription(link); desc != "" {
			item.Description = desc
		}
		if !link.SourceDate.IsZero() {
			item.PubDate = pubDate(link.SourceDate)
		}
		for _, tag := range link.Tags {
			item.Categories = append(item.Categories, tag.Name)
		}
		channel.Items = append(channel.Items, item)
	}

	out, err := xml.MarshalIndent(rssRoot{Version: "2.0", Channel: channel}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("export: marshal rss: %w", err)
	}
	return xml.Header + string(out), nil
}

func itemTitle(link models.LinkRecord) string {
	switch {
	case link.PageTitle != "":
		return link.PageTitle
	case link.Title != "":
		return link.Title
	case link.Description != "":
		return link.Description
	}
	return link.URL
}

func itemDescription(link models.LinkRecord) string {
	if link.Summary != "" {
		return link.Summary
	}
	return link.Description
}

// pubDate renders a date-only timestamp at noon in RFC 822 form, so
// readers in nearby timezones still show the right day.
func pubDate(d time.Time) string {
	noon := time.Date(d.Year(), d.Month(), d.Day(), 12, 0, 0, 0, d.Location())
	return noon.Format(time.RFC1123Z)
}
