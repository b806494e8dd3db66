package domain

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Platform is the social network a post was published on.
type Platform string

const (
	PlatformInstagram Platform = "Instagram"
	PlatformTwitter   Platform = "Twitter"
	PlatformFacebook  Platform = "Facebook"
	PlatformLinkedIn  Platform = "LinkedIn"
	PlatformUnknown   Platform = "Unknown"
)

// KnownPlatforms lists the platforms the loaders recognise, in display order.
var KnownPlatforms = []Platform{PlatformInstagram, PlatformTwitter, PlatformFacebook, PlatformLinkedIn}

// ParsePlatform normalises a free-form platform label. Unrecognised labels are
// title-cased and kept so they still group consistently.
func ParsePlatform(s string) Platform {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(key)
	switch key {
	case "instagram", "ig", "insta":
		return PlatformInstagram
	case "twitter", "x", "tweet":
		return PlatformTwitter
	case "facebook", "fb":
		return PlatformFacebook
	case "linkedin":
		return PlatformLinkedIn
	case "":
		return PlatformUnknown
	}
	return Platform(cases.Title(language.English).String(strings.TrimSpace(s)))
}

// Known reports whether p is one of the four supported platforms.
func (p Platform) Known() bool {
	for _, k := range KnownPlatforms {
		if p == k {
			return true
		}
	}
	return false
}

func (p Platform) String() string { return string(p) }

// Record is one observed post. Records are never mutated after loading.
type Record struct {
	PostID         string   `json:"post_id"`
	Platform       Platform `json:"platform"`
	PostType       string   `json:"post_type"`
	MediaType      string   `json:"media_type"`
	Content        string   `json:"content"`
	PostedDate     string   `json:"posted_date"`
	PostedTime     string   `json:"posted_time,omitempty"`
	Impressions    float64  `json:"impressions"`
	Reach          float64  `json:"reach"`
	Likes          float64  `json:"likes"`
	Comments       float64  `json:"comments"`
	Shares         float64  `json:"shares"`
	Saves          float64  `json:"saves"`
	EngagementRate float64  `json:"engagement_rate"`
}

// TotalEngagement is likes + comments + shares + saves.
func (r Record) TotalEngagement() float64 {
	return r.Likes + r.Comments + r.Shares + r.Saves
}
