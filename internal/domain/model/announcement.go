package model

type Announcement struct {
	ID        int64  `json:"id"`
	Message   string `json:"message"`
	Link      string `json:"link,omitempty"`
	IsActive  bool   `json:"is_active"`
	SortOrder int    `json:"sort_order"`
}

// トップのヒーローカルーセル
type CarouselSlide struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Subtitle  string `json:"subtitle,omitempty"`
	ImageURL  string `json:"image_url"`
	Link      string `json:"link,omitempty"`
	IsActive  bool   `json:"is_active"`
	SortOrder int    `json:"sort_order"`
}
