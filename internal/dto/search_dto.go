package dto

type SearchQuery struct {
	Q     string `form:"q" binding:"required"`
	Limit int    `form:"limit,default=20" binding:"omitempty,min=1,max=50"`
}

type ThreadHit struct {
	ID     string `json:"id"`
	Text   string `json:"text"`
	Author string `json:"author"`
}

type UserHit struct {
	ExternalID string `json:"external_id"`
	Username   string `json:"username"`
	Name       string `json:"name"`
	Image      string `json:"image,omitempty"`
}
