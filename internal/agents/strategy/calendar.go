package strategy

import (
	"fmt"
	"time"
)

// ContentItem is one scheduled calendar entry.
type ContentItem struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	ProjectType   string         `json:"project_type"`
	ContentTopic  string         `json:"content_topic"`
	ScheduledDate string         `json:"scheduled_date"`
	Status        string         `json:"status"`
	AssignedTo    string         `json:"assigned_to,omitempty"`
	ContentBrief  map[string]any `json:"content_brief"`
}

// Campaign is a monthly theme grouping related content items.
type Campaign struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	StartDate         string   `json:"start_date"`
	EndDate           string   `json:"end_date"`
	PrimaryTopic      string   `json:"primary_topic"`
	RelatedContentIDs []string `json:"related_content_ids"`
}

// SeriesPart is one entry of a multi-part content series.
type SeriesPart struct {
	ContentID  string `json:"content_id"`
	PartNumber int    `json:"part_number"`
	Title      string `json:"title"`
}

// Series is a multi-part sequence over one (topic, project type).
type Series struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	ProjectType  string       `json:"project_type"`
	ContentTopic string       `json:"content_topic"`
	Parts        []SeriesPart `json:"parts"`
}

// Calendar is the generated content_calendar_creation result.
type Calendar struct {
	BrandID      string         `json:"brand_id"`
	Timeframe    map[string]any `json:"timeframe"`
	ContentItems []ContentItem  `json:"content_items"`
	Campaigns    []Campaign     `json:"campaigns"`
	Series       []Series       `json:"series"`
	Distribution map[string]any `json:"distribution"`
}

// defaultFrequencies holds per-week posting frequency defaults
// (fractional entries mean "once every N weeks").
var defaultFrequencies = map[string]float64{
	"Blog":         1,
	"Social Post":  3,
	"Email":        1,
	"Landing Page": 0.25,
}

// GenerateCalendar implements this module's calendar generation
// contract: for each (topic, project-type) the item count approximates
// frequency×weeks, topics rotate via `topics[(week+i) mod |T|]`, no
// item lands past end, monthly campaign themes (≤3, one per topic) are
// emitted once the range spans ≥4 weeks, and Blog/Email project types
// with ≥3 items per (topic, project-type) get a 3-part series. Only the
// first two topics are considered for series.
func GenerateCalendar(brandID string, topics, projectTypes []string, postingFrequency map[string]float64, start, end time.Time) Calendar {
	totalDays := end.Sub(start).Hours() / 24
	totalWeeks := totalDays / 7

	var items []ContentItem
	current := start
	for week := 0; week <= int(totalWeeks); week++ {
		if current.After(end) {
			break
		}
		weekStart := current
		for _, projectType := range projectTypes {
			freq, ok := postingFrequency[projectType]
			if !ok {
				freq, ok = defaultFrequencies[projectType]
				if !ok {
					freq = 1
				}
			}
			postsThisWeek := int(freq)
			if freq < 1 && freq > 0 {
				interval := int(1 / freq)
				if interval == 0 {
					interval = 1
				}
				if week%interval == 0 {
					postsThisWeek = 1
				} else {
					postsThisWeek = 0
				}
			}
			for i := 0; i < postsThisWeek; i++ {
				topicIndex := (week + i) % maxInt(1, len(topics))
				topic := "General"
				if len(topics) > 0 {
					topic = topics[topicIndex]
				}
				postDay := i
				if postDay > 6 {
					postDay = 6
				}
				postDate := weekStart.AddDate(0, 0, postDay)
				if postDate.After(end) {
					continue
				}
				items = append(items, ContentItem{
					ID:            fmt.Sprintf("content_%d", len(items)+1),
					Title:         titleFor(projectType, topic, postDate),
					ProjectType:   projectType,
					ContentTopic:  topic,
					ScheduledDate: postDate.Format("2006-01-02"),
					Status:        "planned",
					ContentBrief: map[string]any{
						"objective":        fmt.Sprintf("Educate audience about %s", topic),
						"key_points":       []string{topic + " best practices", topic + " implementation tips"},
						"target_audience":  "Marketing professionals",
						"call_to_action":   "Contact for consultation",
					},
				})
			}
		}
		current = current.AddDate(0, 0, 7)
	}

	var campaigns []Campaign
	if totalWeeks >= 4 {
		campaignTopics := topics
		if len(campaignTopics) > 3 {
			campaignTopics = campaignTopics[:3]
		}
		if len(campaignTopics) == 0 {
			campaignTopics = []string{"General"}
		}
		for i, topic := range campaignTopics {
			monthNumber := i % 3
			monthStart := start.AddDate(0, 0, monthNumber*30)
			monthEnd := monthStart.AddDate(0, 0, 30)
			var related []string
			for _, item := range items {
				if item.ContentTopic != topic {
					continue
				}
				d, err := time.Parse("2006-01-02", item.ScheduledDate)
				if err != nil {
					continue
				}
				if !d.Before(monthStart) && !d.After(monthEnd) {
					related = append(related, item.ID)
				}
			}
			campaigns = append(campaigns, Campaign{
				ID:                fmt.Sprintf("campaign_%d", i+1),
				Name:              topic + " Focus Month",
				StartDate:         monthStart.Format("2006-01-02"),
				EndDate:           monthEnd.Format("2006-01-02"),
				PrimaryTopic:      topic,
				RelatedContentIDs: related,
			})
		}
	}

	var series []Series
	seriesTopics := topics
	if len(seriesTopics) > 2 {
		seriesTopics = seriesTopics[:2]
	}
	if len(seriesTopics) > 0 && len(projectTypes) > 0 {
		for _, topic := range seriesTopics {
			for _, projectType := range projectTypes {
				if projectType != "Blog" && projectType != "Email" {
					continue
				}
				var related []ContentItem
				for _, item := range items {
					if item.ContentTopic == topic && item.ProjectType == projectType {
						related = append(related, item)
					}
				}
				if len(related) < 3 {
					continue
				}
				related = related[:3]
				series = append(series, Series{
					ID:           fmt.Sprintf("series_%d", len(series)+1),
					Name:         fmt.Sprintf("%s %s Series", topic, projectType),
					Description:  fmt.Sprintf("A 3-part series covering key aspects of %s", topic),
					ProjectType:  projectType,
					ContentTopic: topic,
					Parts: []SeriesPart{
						{ContentID: related[0].ID, PartNumber: 1, Title: topic + " Fundamentals: Getting Started"},
						{ContentID: related[1].ID, PartNumber: 2, Title: topic + " Advanced: Best Practices"},
						{ContentID: related[2].ID, PartNumber: 3, Title: topic + " Mastery: Expert Techniques"},
					},
				})
			}
		}
	}

	byProjectType := map[string]any{}
	for _, projectType := range projectTypes {
		count := 0
		for _, item := range items {
			if item.ProjectType == projectType {
				count++
			}
		}
		byProjectType[projectType] = count
	}
	byTopic := map[string]any{}
	for _, topic := range topics {
		count := 0
		for _, item := range items {
			if item.ContentTopic == topic {
				count++
			}
		}
		byTopic[topic] = count
	}
	byMonth := map[string]any{}
	for _, item := range items {
		d, err := time.Parse("2006-01-02", item.ScheduledDate)
		if err != nil {
			continue
		}
		key := d.Format("2006-01")
		if v, ok := byMonth[key].(int); ok {
			byMonth[key] = v + 1
		} else {
			byMonth[key] = 1
		}
	}

	return Calendar{
		BrandID: brandID,
		Timeframe: map[string]any{
			"start_date": start.Format("2006-01-02"),
			"end_date":   end.Format("2006-01-02"),
		},
		ContentItems: items,
		Campaigns:    campaigns,
		Series:       series,
		Distribution: map[string]any{
			"by_project_type": byProjectType,
			"by_topic":        byTopic,
			"by_month":        byMonth,
		},
	}
}

func titleFor(projectType, topic string, postDate time.Time) string {
	switch projectType {
	case "Blog":
		return fmt.Sprintf("The Complete Guide to %s (%s)", topic, postDate.Format("January 2006"))
	case "Social Post":
		return fmt.Sprintf("Did you know? %s tip of the day", topic)
	case "Email":
		return fmt.Sprintf("%s Insights: Your Weekly Update", topic)
	case "Landing Page":
		return fmt.Sprintf("%s Solutions for Your Business", topic)
	default:
		return fmt.Sprintf("%s Content for %s", topic, projectType)
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
