package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/diewo77/freelance/internal/models"
	"github.com/diewo77/freelance/validation"
)

// DayInput is one entry of the calendar JSON payload.
type DayInput struct {
	Date string `json:"date"`
	Half bool   `json:"half"`
}

// DayDTO is the JSON form of a day.
type DayDTO struct {
	Date    string `json:"date"`
	Half    bool   `json:"half"`
	Invoice *uint  `json:"invoice"`
}

func PresentDay(d models.Day) DayDTO {
	return DayDTO{Date: d.Date.Format(models.DateLayout), Half: d.Half, Invoice: d.InvoiceID}
}

func PresentDays(days []models.Day) []DayDTO {
	out := make([]DayDTO, 0, len(days))
	for _, d := range days {
		out = append(out, PresentDay(d))
	}
	return out
}

type DayService struct{ DB *gorm.DB }

func NewDayService(db *gorm.DB) *DayService { return &DayService{DB: db} }

// List returns every day of the user ordered by date.
func (s *DayService) List(userID uint) ([]models.Day, error) {
	var days []models.Day
	if err := s.DB.Where("user_id = ?", userID).Order("date").Find(&days).Error; err != nil {
		return nil, fmt.Errorf("list days: %w", err)
	}
	return days, nil
}

// Upsert creates missing days and updates the half flag of unbilled ones. Billed days are
// left untouched and omitted from the result.
func (s *DayService) Upsert(userID uint, in []DayInput) ([]models.Day, error) {
	dates, err := parseDates(in)
	if err != nil {
		return nil, err
	}
	written := make([]models.Day, 0, len(in))
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		for i, date := range dates {
			var d models.Day
			err := tx.Where("user_id = ? AND date = ?", userID, date).First(&d).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				d = models.Day{UserID: userID, Date: date, Half: in[i].Half}
				if err := tx.Create(&d).Error; err != nil {
					return err
				}
			case err != nil:
				return err
			case d.IsBilled():
				continue
			default:
				d.Half = in[i].Half
				if err := tx.Save(&d).Error; err != nil {
					return err
				}
			}
			written = append(written, d)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("upsert days: %w", err)
	}
	return written, nil
}

// Delete removes the unbilled days matching the given dates. Unknown or billed days are skipped.
func (s *DayService) Delete(userID uint, in []DayInput) error {
	dates, err := parseDates(in)
	if err != nil {
		return err
	}
	if len(dates) == 0 {
		return nil
	}
	err = s.DB.Where("user_id = ? AND date IN ? AND invoice_id IS NULL", userID, dates).
		Delete(&models.Day{}).Error
	if err != nil {
		return fmt.Errorf("delete days: %w", err)
	}
	return nil
}

// Unbilled returns the days not yet bound to an invoice.
func (s *DayService) Unbilled(userID uint) ([]models.Day, error) {
	var days []models.Day
	err := s.DB.Where("user_id = ? AND invoice_id IS NULL", userID).Order("date").Find(&days).Error
	return days, err
}

func parseDates(in []DayInput) ([]time.Time, error) {
	v := make(validation.Errors)
	dates := make([]time.Time, len(in))
	for i, d := range in {
		t, err := models.ParseDay(d.Date)
		if err != nil {
			v.Add("date", "invalid_date")
			continue
		}
		dates[i] = t
	}
	if err := v.Err(); err != nil {
		return nil, err
	}
	return dates, nil
}
