package platform

import (
	"time"

	"brandcraft/pkg/domain"
)

// Built-in specs mirror the published platform constraints. They can be
// overridden at runtime via Registry.LoadFile.
func defaultSpecs() map[domain.Platform]Spec {
	return map[domain.Platform]Spec{
		domain.PlatformInstagram: {
			Platform: domain.PlatformInstagram,
			ImageDimensions: map[domain.ContentType][2]int{
				domain.ContentPost:        {1080, 1080},
				domain.ContentStory:       {1080, 1920},
				domain.ContentCarousel:    {1080, 1080},
				domain.ContentInfographic: {1080, 1350},
			},
			CaptionLimit:    2200,
			MaxHashtags:     30,
			OptimalHashtags: 11,
			PeakDays:        []time.Weekday{time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
			PeakHours:       []int{6, 11, 14, 17, 19},
			CallToActions: []string{
				"Save this post for later",
				"Share with your team",
				"DM us to learn more",
				"Tag someone who needs this",
				"Follow for daily insights",
			},
		},
		domain.PlatformLinkedIn: {
			Platform: domain.PlatformLinkedIn,
			ImageDimensions: map[domain.ContentType][2]int{
				domain.ContentPost:        {1200, 627},
				domain.ContentArticle:     {1200, 627},
				domain.ContentInfographic: {1080, 1350},
				domain.ContentCarousel:    {1080, 1080},
			},
			CaptionLimit:    3000,
			MaxHashtags:     3,
			OptimalHashtags: 3,
			PeakDays:        []time.Weekday{time.Tuesday, time.Wednesday, time.Thursday},
			PeakHours:       []int{7, 10, 12, 17},
			CallToActions: []string{
				"Share your thoughts below",
				"Connect for strategic discussions",
				"What's been your experience?",
				"Let's discuss in the comments",
				"Share this with your network",
			},
		},
		domain.PlatformTwitter: {
			Platform: domain.PlatformTwitter,
			ImageDimensions: map[domain.ContentType][2]int{
				domain.ContentPost:  {1200, 675},
				domain.ContentStory: {1080, 1920},
			},
			CaptionLimit:    280,
			MaxHashtags:     2,
			OptimalHashtags: 2,
			PeakDays:        []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday},
			PeakHours:       []int{9, 12, 15, 18},
			CallToActions: []string{
				"Retweet if you agree",
				"What's your take?",
				"Thoughts?",
				"Your experience?",
			},
		},
		domain.PlatformFacebook: {
			Platform: domain.PlatformFacebook,
			ImageDimensions: map[domain.ContentType][2]int{
				domain.ContentPost:  {1200, 630},
				domain.ContentStory: {1080, 1920},
			},
			CaptionLimit:    8000,
			MaxHashtags:     5,
			OptimalHashtags: 2,
			PeakDays:        []time.Weekday{time.Monday, time.Wednesday, time.Friday},
			PeakHours:       []int{9, 13, 15},
			CallToActions: []string{
				"What do you think?",
				"Share your experience",
				"Join the discussion",
				"Connect with us",
			},
		},
	}
}
