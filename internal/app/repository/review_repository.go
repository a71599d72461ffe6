package repository

import (
	"context"

	"github.com/soonsulleng/guide-backend/internal/app/model"
	"github.com/soonsulleng/guide-backend/pkg/logger"
	"gorm.io/gorm"
)

// ReviewRepository 리뷰 저장소. 모든 조회는 이미지를 저장 순서대로 함께 불러온다.
type ReviewRepository interface {
	Create(ctx context.Context, review *model.Review) error
	BulkCreate(ctx context.Context, reviews []model.Review, batchSize int) error
	FindByID(ctx context.Context, id uint) (*model.Review, error)
	FindAll(ctx context.Context) ([]model.Review, error)
	FindAllNewestFirst(ctx context.Context) ([]model.Review, error)
}

type reviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

// preloadImages 이미지 삽입 순서 유지
func preloadImages(db *gorm.DB) *gorm.DB {
	return db.Order("review_images.id ASC")
}

// Create 리뷰와 이미지를 하나의 트랜잭션으로 저장
func (r *reviewRepository) Create(ctx context.Context, review *model.Review) error {
	if err := r.db.WithContext(ctx).Create(review).Error; err != nil {
		logger.Error("Failed to create review in database", err, map[string]interface{}{
			"user_id":     review.UserID,
			"image_count": len(review.Images),
		})
		return err
	}

	logger.Debug("Review created in database", map[string]interface{}{
		"review_id":   review.ID,
		"user_id":     review.UserID,
		"image_count": len(review.Images),
	})
	return nil
}

// BulkCreate 배치 단위 일괄 저장 (가져오기 도구용)
func (r *reviewRepository) BulkCreate(ctx context.Context, reviews []model.Review, batchSize int) error {
	if len(reviews) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(reviews, batchSize).Error
}

// FindByID ID로 리뷰 조회
func (r *reviewRepository) FindByID(ctx context.Context, id uint) (*model.Review, error) {
	var review model.Review
	err := r.db.WithContext(ctx).
		Preload("Images", preloadImages).
		First(&review, id).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// FindAll 전체 리뷰 조회 (작성자 구분 없음)
func (r *reviewRepository) FindAll(ctx context.Context) ([]model.Review, error) {
	var reviews []model.Review
	err := r.db.WithContext(ctx).
		Preload("Images", preloadImages).
		Order("id ASC").
		Find(&reviews).Error
	if err != nil {
		return nil, err
	}
	return reviews, nil
}

// FindAllNewestFirst 방문 일시 최신순 전체 리뷰 조회
func (r *reviewRepository) FindAllNewestFirst(ctx context.Context) ([]model.Review, error) {
	var reviews []model.Review
	err := r.db.WithContext(ctx).
		Preload("Images", preloadImages).
		Order("review_date_time DESC").
		Order("id DESC").
		Find(&reviews).Error
	if err != nil {
		return nil, err
	}
	return reviews, nil
}
