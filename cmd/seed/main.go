package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/soonsulleng/guide-backend/config"
	"github.com/soonsulleng/guide-backend/internal/app/model"
	"github.com/soonsulleng/guide-backend/internal/app/repository"
	"github.com/soonsulleng/guide-backend/internal/db"
	"gorm.io/gorm"
)

func main() {
	// 명령줄 인자 확인
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run cmd/seed/main.go <xlsx_file_path>")
	}

	filePath := os.Args[1]
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	userRepo := repository.NewUserRepository(db.GetDB())
	reviewRepo := repository.NewReviewRepository(db.GetDB())

	fmt.Printf("Reading XLSX file: %s\n", filePath)
	rows, skipped, err := readReviewsFromXLSX(filePath)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}

	reviews, unknown, err := attachAuthors(ctx, userRepo, rows)
	if err != nil {
		log.Fatal("Failed to resolve review authors:", err)
	}

	fmt.Printf("Total reviews to import: %d (skipped: %d invalid, %d unknown author)\n", len(reviews), skipped, unknown)

	// 사용자 확인
	fmt.Print("Do you want to proceed with the import? (yes/no): ")
	var confirm string
	fmt.Scanln(&confirm)
	if confirm != "yes" && confirm != "y" {
		fmt.Println("Import cancelled.")
		return
	}

	batchSize := 500
	fmt.Printf("Starting bulk import with batch size: %d\n", batchSize)
	if err := reviewRepo.BulkCreate(ctx, reviews, batchSize); err != nil {
		log.Fatal("Failed to bulk create reviews:", err)
	}

	fmt.Println("Import completed successfully!")
	fmt.Printf("Total reviews imported: %d\n", len(reviews))
}

// attachAuthors resolves each row's email once and drops rows whose author does not exist
func attachAuthors(ctx context.Context, userRepo repository.UserRepository, rows []reviewRow) ([]model.Review, int, error) {
	authors := make(map[string]uint)
	reviews := make([]model.Review, 0, len(rows))
	unknown := 0

	for _, row := range rows {
		userID, seen := authors[row.Email]
		if !seen {
			user, err := userRepo.FindByEmail(ctx, row.Email)
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				userID = 0
			case err != nil:
				return nil, 0, err
			default:
				userID = user.ID
			}
			authors[row.Email] = userID
		}
		if userID == 0 {
			unknown++
			continue
		}

		review := row.Review
		review.UserID = userID
		reviews = append(reviews, review)
	}
	return reviews, unknown, nil
}
