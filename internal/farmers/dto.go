package farmers

import (
	"time"

	"github.com/google/uuid"

	"github.com/farmfresh/farmfresh-backend/pkg/db/models"
)

// FarmerSummaryDTO is the list view of a farm.
type FarmerSummaryDTO struct {
	ID                 uuid.UUID `json:"id"`
	FarmName           string    `json:"farmName"`
	Region             string    `json:"region"`
	AvatarURL          *string   `json:"avatarUrl,omitempty"`
	Intro              *string   `json:"intro,omitempty"`
	Verified           bool      `json:"verified"`
	ActiveProductCount int64     `json:"activeProductCount"`
}

// FarmerDTO is the public storefront: profile plus story.
type FarmerDTO struct {
	FarmerSummaryDTO
	Story       *string   `json:"story,omitempty"`
	StoryImages []string  `json:"storyImages"`
	JoinedAt    time.Time `json:"joinedAt"`
}

// UpdateProfileInput edits the caller's own farm. Nil fields stay unchanged; an
// empty string clears an optional text field.
type UpdateProfileInput struct {
	FarmName    *string   `json:"farmName,omitempty" validate:"omitempty,min=1,max=100"`
	Region      *string   `json:"region,omitempty" validate:"omitempty,max=100"`
	AvatarURL   *string   `json:"avatarUrl,omitempty" validate:"omitempty,url"`
	Intro       *string   `json:"intro,omitempty" validate:"omitempty,max=500"`
	Story       *string   `json:"story,omitempty" validate:"omitempty,max=5000"`
	StoryImages *[]string `json:"storyImages,omitempty" validate:"omitempty,max=9,dive,url"`
}

func toSummary(p models.FarmerProfile, count int64) FarmerSummaryDTO {
	return FarmerSummaryDTO{
		ID:                 p.ID,
		FarmName:           p.FarmName,
		Region:             p.Region,
		AvatarURL:          p.AvatarURL,
		Intro:              p.Intro,
		Verified:           p.Verified,
		ActiveProductCount: count,
	}
}

func toDTO(p models.FarmerProfile, count int64) *FarmerDTO {
	images := p.StoryImages
	if images == nil {
		images = []string{}
	}
	return &FarmerDTO{
		FarmerSummaryDTO: toSummary(p, count),
		Story:            p.Story,
		StoryImages:      images,
		JoinedAt:         p.CreatedAt,
	}
}
