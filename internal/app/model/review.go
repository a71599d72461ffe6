package model

import (
	"time"
)

// 리뷰 카테고리. 저장 값과 응답 그룹 키가 동일하다.
const (
	CategoryRestaurant  = "식당" // 식당
	CategoryDessertCafe = "카페" // 디저트 카페
)

// Review 음식점/카페 리뷰 모델
type Review struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Category       string    `gorm:"type:varchar(50);not null;index" json:"category"` // 식당 / 카페
	StoreName      string    `gorm:"not null" json:"store_name"`                      // 가게 이름
	ReviewTitle    string    `json:"review_title"`                                    // 리뷰 제목
	MenuName       string    `json:"menu_name"`                                       // 메뉴 이름
	ReviewContent  string    `gorm:"type:text" json:"review_content"`                 // 리뷰 내용
	Stars          int       `json:"stars"`                                           // 별점 (0-5, 검증하지 않음)
	ReviewDateTime time.Time `gorm:"not null;index" json:"review_date_time"`          // 방문/작성 일시 (로컬 시각)
	Price          string    `json:"price"`                                           // 가격 (자유 형식)

	UserID uint `gorm:"not null;index" json:"user_id"` // 작성자 ID
	User   User `gorm:"foreignKey:UserID" json:"-"`    // 작성자

	Images []ReviewImage `gorm:"foreignKey:ReviewID" json:"images,omitempty"` // 첫 번째 이미지가 썸네일
}

func (Review) TableName() string {
	return "reviews"
}

// ImagePaths 저장 순서대로 이미지 경로 반환
func (r *Review) ImagePaths() []string {
	paths := make([]string, 0, len(r.Images))
	for _, img := range r.Images {
		paths = append(paths, img.ImagePath)
	}
	return paths
}

// ReviewImage 리뷰 이미지 모델
type ReviewImage struct {
	ID        uint   `gorm:"primarykey" json:"id"`
	ImagePath string `gorm:"not null" json:"image_path"`     // 저장소 절대 경로
	ReviewID  uint   `gorm:"not null;index" json:"review_id"` // 리뷰 ID
}

func (ReviewImage) TableName() string {
	return "review_images"
}
