package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/soonsulleng/guide-backend/internal/app/model"
	"github.com/soonsulleng/guide-backend/internal/app/repository"
	"github.com/soonsulleng/guide-backend/internal/storage"
	"github.com/soonsulleng/guide-backend/pkg/imageurl"
	"github.com/soonsulleng/guide-backend/pkg/logger"
	"github.com/soonsulleng/guide-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrReviewNotFound        = errors.New("review not found")
	ErrInvalidReviewDateTime = errors.New("invalid review date-time")
)

// SubmitReviewInput 리뷰 등록 입력. Stars는 호출 측에서 정수로 변환한다.
type SubmitReviewInput struct {
	Category       string
	StoreName      string
	ReviewTitle    string
	MenuName       string
	ReviewContent  string
	Stars          int
	ReviewDateTime string // ISO-8601 로컬 일시
	Price          string
	Images         []*storage.UploadInput
}

// ReviewSummary 목록 응답 항목
type ReviewSummary struct {
	ID             uint   `json:"id"`
	Category       string `json:"category"`
	StoreName      string `json:"storeName"`
	ReviewTitle    string `json:"reviewTitle"`
	MenuName       string `json:"menuName"`
	ReviewContent  string `json:"reviewContent"`
	Stars          int    `json:"stars"`
	Price          string `json:"price"`
	ReviewDateTime string `json:"reviewDateTime"`
	Thumbnail      string `json:"thumbnail"`
}

// ReviewDetail 단건 응답
type ReviewDetail struct {
	ID             uint     `json:"id"`
	Category       string   `json:"category"`
	StoreName      string   `json:"storeName"`
	ReviewTitle    string   `json:"reviewTitle"`
	MenuName       string   `json:"menuName"`
	ReviewContent  string   `json:"reviewContent"`
	Stars          int      `json:"stars"`
	Price          string   `json:"price"`
	ReviewDateTime string   `json:"reviewDateTime"`
	Images         []string `json:"images"`
}

// ReviewService 리뷰 등록/조회
type ReviewService interface {
	SubmitReview(ctx context.Context, author *model.User, input SubmitReviewInput) (*model.Review, error)
	ListGrouped(ctx context.Context) (map[string][]ReviewSummary, error)
	GetByID(ctx context.Context, id uint) (*ReviewDetail, error)
	ListAll(ctx context.Context) ([]ReviewSummary, error)
}

type reviewService struct {
	reviewRepo repository.ReviewRepository
	images     storage.ImageStore
	urls       *imageurl.Rewriter
}

func NewReviewService(
	reviewRepo repository.ReviewRepository,
	images storage.ImageStore,
	urls *imageurl.Rewriter,
) ReviewService {
	return &reviewService{
		reviewRepo: reviewRepo,
		images:     images,
		urls:       urls,
	}
}

// SubmitReview 일시를 검증하고 이미지를 업로드 순서대로 저장한 뒤 리뷰와 이미지 레코드를 함께 저장한다.
// 이후 단계가 실패해도 이미 저장된 파일은 지우지 않는다.
func (s *reviewService) SubmitReview(ctx context.Context, author *model.User, input SubmitReviewInput) (*model.Review, error) {
	logger.Info("Submitting review", map[string]interface{}{
		"user_id":     author.ID,
		"category":    input.Category,
		"image_count": len(input.Images),
	})

	reviewDateTime, err := util.ParseLocalDateTime(input.ReviewDateTime)
	if err != nil {
		logger.Warn("Review date-time rejected", map[string]interface{}{
			"user_id":          author.ID,
			"review_date_time": input.ReviewDateTime,
		})
		return nil, fmt.Errorf("%w: %v", ErrInvalidReviewDateTime, err)
	}

	images := make([]model.ReviewImage, 0, len(input.Images))
	for _, upload := range input.Images {
		path, err := s.images.Save(ctx, upload)
		if err != nil {
			logger.Error("Failed to store review image", err, map[string]interface{}{
				"user_id":  author.ID,
				"filename": upload.Filename,
			})
			return nil, fmt.Errorf("store image %s: %w", upload.Filename, err)
		}
		images = append(images, model.ReviewImage{ImagePath: path})
	}

	review := &model.Review{
		Category:       input.Category,
		StoreName:      input.StoreName,
		ReviewTitle:    input.ReviewTitle,
		MenuName:       input.MenuName,
		ReviewContent:  input.ReviewContent,
		Stars:          input.Stars,
		ReviewDateTime: reviewDateTime,
		Price:          input.Price,
		UserID:         author.ID,
		Images:         images,
	}

	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, err
	}

	logger.Info("Review submitted", map[string]interface{}{
		"review_id": review.ID,
		"user_id":   author.ID,
	})
	return review, nil
}

// ListGrouped 카테고리별 리뷰 목록. 두 카테고리 키는 항상 포함되고 다른 카테고리는 제외된다.
// TODO: restrict to the caller's own reviews once clients send the author filter.
func (s *reviewService) ListGrouped(ctx context.Context) (map[string][]ReviewSummary, error) {
	reviews, err := s.reviewRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	grouped := map[string][]ReviewSummary{
		model.CategoryRestaurant:  {},
		model.CategoryDessertCafe: {},
	}
	for i := range reviews {
		category := reviews[i].Category
		if _, ok := grouped[category]; !ok {
			continue
		}
		grouped[category] = append(grouped[category], s.summarize(&reviews[i], imageurl.KeepPath))
	}
	return grouped, nil
}

func (s *reviewService) GetByID(ctx context.Context, id uint) (*ReviewDetail, error) {
	review, err := s.reviewRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}

	return &ReviewDetail{
		ID:             review.ID,
		Category:       review.Category,
		StoreName:      review.StoreName,
		ReviewTitle:    review.ReviewTitle,
		MenuName:       review.MenuName,
		ReviewContent:  review.ReviewContent,
		Stars:          review.Stars,
		Price:          review.Price,
		ReviewDateTime: util.FormatLocalDateTime(review.ReviewDateTime),
		Images:         s.urls.URLs(review.ImagePaths(), imageurl.KeepPath),
	}, nil
}

// ListAll 방문 일시 최신순 전체 목록. 루트가 없는 경로에도 기본 URL을 붙인다.
func (s *reviewService) ListAll(ctx context.Context) ([]ReviewSummary, error) {
	reviews, err := s.reviewRepo.FindAllNewestFirst(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]ReviewSummary, 0, len(reviews))
	for i := range reviews {
		summaries = append(summaries, s.summarize(&reviews[i], imageurl.PrefixBaseURL))
	}
	return summaries, nil
}

func (s *reviewService) summarize(review *model.Review, fallback imageurl.Fallback) ReviewSummary {
	return ReviewSummary{
		ID:             review.ID,
		Category:       review.Category,
		StoreName:      review.StoreName,
		ReviewTitle:    review.ReviewTitle,
		MenuName:       review.MenuName,
		ReviewContent:  review.ReviewContent,
		Stars:          review.Stars,
		Price:          review.Price,
		ReviewDateTime: util.FormatLocalDateTime(review.ReviewDateTime),
		Thumbnail:      s.urls.Thumbnail(review.ImagePaths(), fallback),
	}
}
