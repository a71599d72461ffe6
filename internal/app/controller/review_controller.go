package controller

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/soonsulleng/guide-backend/internal/app/service"
	apperrors "github.com/soonsulleng/guide-backend/internal/errors"
	"github.com/soonsulleng/guide-backend/internal/middleware"
	"github.com/soonsulleng/guide-backend/internal/storage"
)

const (
	msgReviewSubmitted = "Review submitted successfully"
	msgUserNotFound    = "User not found."
	msgSubmitFailed    = "Error while submitting review: "
)

// 리뷰 API는 모바일 클라이언트 계약에 따라 경로마다 다른 빈 응답을 돌려준다.

// RespondUserNotFound 리뷰 등록 시 호출자 확인 실패 응답
func RespondUserNotFound(c *gin.Context) {
	apperrors.PlainText(c, http.StatusNotFound, msgUserNotFound)
}

// RespondEmptyObject 그룹 목록/단건 조회 실패 응답
func RespondEmptyObject(c *gin.Context) {
	apperrors.EmptyObject(c, http.StatusNotFound)
}

// RespondEmptyArray 전체 목록 조회 실패 응답
func RespondEmptyArray(c *gin.Context) {
	apperrors.EmptyArray(c, http.StatusNotFound)
}

type ReviewController struct {
	reviewService service.ReviewService
	maxUploadSize int64
}

// NewReviewController maxUploadSize limits the whole multipart body; 0 disables the limit.
func NewReviewController(reviewService service.ReviewService, maxUploadSize int64) *ReviewController {
	return &ReviewController{
		reviewService: reviewService,
		maxUploadSize: maxUploadSize,
	}
}

// SubmitReview 리뷰 등록 (multipart)
// POST /api/reviews
func (ctrl *ReviewController) SubmitReview(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	caller, ok := middleware.GetCaller(c)
	if !ok {
		RespondUserNotFound(c)
		return
	}

	if ctrl.maxUploadSize > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, ctrl.maxUploadSize)
	}

	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			log.Warn("Review upload too large", map[string]interface{}{
				"user_id": caller.ID,
				"limit":   tooLarge.Limit,
			})
			apperrors.PlainText(c, http.StatusRequestEntityTooLarge, "Upload exceeds the maximum allowed size.")
			return
		}
		log.Warn("Invalid review form", map[string]interface{}{
			"user_id": caller.ID,
			"error":   err.Error(),
		})
		apperrors.PlainText(c, http.StatusBadRequest, "Invalid multipart form.")
		return
	}

	stars, err := strconv.Atoi(c.PostForm("stars"))
	if err != nil {
		log.Warn("Invalid stars value", map[string]interface{}{
			"user_id": caller.ID,
			"stars":   c.PostForm("stars"),
		})
		apperrors.PlainText(c, http.StatusBadRequest, "Invalid stars value.")
		return
	}

	uploads, closeAll, err := openUploads(form.File["images"])
	defer closeAll()
	if err != nil {
		log.Error("Failed to open uploaded image", err, map[string]interface{}{
			"user_id": caller.ID,
		})
		apperrors.PlainText(c, http.StatusInternalServerError, msgSubmitFailed+err.Error())
		return
	}

	review, err := ctrl.reviewService.SubmitReview(c.Request.Context(), caller, service.SubmitReviewInput{
		Category:       c.PostForm("category"),
		StoreName:      c.PostForm("storeName"),
		ReviewTitle:    c.PostForm("reviewTitle"),
		MenuName:       c.PostForm("menuName"),
		ReviewContent:  c.PostForm("reviewContent"),
		Stars:          stars,
		ReviewDateTime: c.PostForm("reviewDateTime"),
		Price:          c.PostForm("price"),
		Images:         uploads,
	})
	if err != nil {
		log.Error("Failed to submit review", err, map[string]interface{}{
			"user_id": caller.ID,
		})
		apperrors.PlainText(c, http.StatusInternalServerError, msgSubmitFailed+err.Error())
		return
	}

	log.Info("Review submitted", map[string]interface{}{
		"review_id":   review.ID,
		"user_id":     caller.ID,
		"image_count": len(uploads),
	})
	apperrors.PlainText(c, http.StatusOK, msgReviewSubmitted)
}

// ListGrouped 카테고리별 리뷰 목록
// GET /api/reviews/getReviews
func (ctrl *ReviewController) ListGrouped(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	grouped, err := ctrl.reviewService.ListGrouped(c.Request.Context())
	if err != nil {
		log.Error("Failed to list grouped reviews", err)
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "list reviews")
		return
	}

	c.JSON(http.StatusOK, grouped)
}

// GetByID 리뷰 상세 조회
// GET /api/reviews/:id
func (ctrl *ReviewController) GetByID(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		log.Debug("Invalid review ID", map[string]interface{}{
			"id": c.Param("id"),
		})
		RespondEmptyObject(c)
		return
	}

	detail, err := ctrl.reviewService.GetByID(c.Request.Context(), uint(id))
	if err != nil {
		if errors.Is(err, service.ErrReviewNotFound) {
			RespondEmptyObject(c)
			return
		}
		log.Error("Failed to get review", err, map[string]interface{}{
			"review_id": id,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "get review")
		return
	}

	c.JSON(http.StatusOK, detail)
}

// ListAll 전체 리뷰 최신순 목록
// GET /api/reviews/allReviews
func (ctrl *ReviewController) ListAll(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	reviews, err := ctrl.reviewService.ListAll(c.Request.Context())
	if err != nil {
		log.Error("Failed to list all reviews", err)
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "list reviews")
		return
	}

	c.JSON(http.StatusOK, reviews)
}

// openUploads opens every part in order. The returned close func is always safe to call.
func openUploads(files []*multipart.FileHeader) ([]*storage.UploadInput, func(), error) {
	opened := make([]multipart.File, 0, len(files))
	closeAll := func() {
		for _, f := range opened {
			f.Close()
		}
	}

	uploads := make([]*storage.UploadInput, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, closeAll, err
		}
		opened = append(opened, f)
		uploads = append(uploads, &storage.UploadInput{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Data:        f,
		})
	}
	return uploads, closeAll, nil
}
