package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/soonsulleng/guide-backend/internal/app/model"
	"github.com/soonsulleng/guide-backend/pkg/util"
	"github.com/xuri/excelize/v2"
)

// 시트 컬럼 순서
const (
	colEmail = iota
	colCategory
	colStoreName
	colReviewTitle
	colMenuName
	colReviewContent
	colStars
	colReviewDateTime
	colPrice
	columnCount
)

type reviewRow struct {
	Email  string
	Review model.Review
}

func readReviewsFromXLSX(filePath string) ([]reviewRow, int, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, 0, fmt.Errorf("no sheets found in XLSX file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, 0, fmt.Errorf("no data found in XLSX file")
	}

	parsed, skipped := parseReviewRows(rows[1:])
	return parsed, skipped, nil
}

// parseReviewRows converts data rows (header excluded) and counts the rows it had to skip
func parseReviewRows(rows [][]string) ([]reviewRow, int) {
	var parsed []reviewRow
	skipped := 0

	for _, row := range rows {
		// 빈 칸으로 끝나는 행은 GetRows가 잘라서 돌려준다
		cells := make([]string, columnCount)
		for i := 0; i < columnCount && i < len(row); i++ {
			cells[i] = strings.TrimSpace(row[i])
		}

		if cells[colEmail] == "" || cells[colStoreName] == "" || !isKnownCategory(cells[colCategory]) {
			skipped++
			continue
		}

		stars, err := strconv.Atoi(cells[colStars])
		if err != nil {
			skipped++
			continue
		}

		reviewDateTime, err := util.ParseLocalDateTime(cells[colReviewDateTime])
		if err != nil {
			skipped++
			continue
		}

		parsed = append(parsed, reviewRow{
			Email: cells[colEmail],
			Review: model.Review{
				Category:       cells[colCategory],
				StoreName:      cells[colStoreName],
				ReviewTitle:    cells[colReviewTitle],
				MenuName:       cells[colMenuName],
				ReviewContent:  cells[colReviewContent],
				Stars:          stars,
				ReviewDateTime: reviewDateTime,
				Price:          cells[colPrice],
			},
		})
	}
	return parsed, skipped
}

func isKnownCategory(category string) bool {
	return category == model.CategoryRestaurant || category == model.CategoryDessertCafe
}
