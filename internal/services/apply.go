package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/diewo77/freelance/internal/models"
	"github.com/diewo77/freelance/validation"
)

// Apply copies a JSON field mapping onto inv. Values are coerced to the field types:
// client is a client id, date fields use the user's date format or ISO, money fields accept
// numbers or numeric strings. Nothing is persisted; call Save afterwards.
func (s *InvoiceService) Apply(userID uint, inv *models.Invoice, fields map[string]any, st *models.Settings) error {
	v := make(validation.Errors)
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		val := fields[key]
		switch key {
		case "client":
			if err := s.applyClient(userID, inv, val); err != nil {
				if errors.Is(err, ErrNotFound) {
					v.Add(key, "does_not_exist")
					continue
				}
				var ve validation.Errors
				if errors.As(err, &ve) {
					v.Merge(ve)
					continue
				}
				return err
			}
		case "date", "date_due", "date_paid":
			t, err := dateValue(val, st)
			if err != nil {
				v.Add(key, "invalid_date")
				continue
			}
			switch key {
			case "date":
				inv.Date = t
			case "date_due":
				inv.DateDue = t
			default:
				inv.DatePaid = t
			}
		case "daily_rate", "tax":
			d, err := decimalValue(val)
			if err != nil {
				v.Add(key, "invalid_number")
				continue
			}
			if key == "tax" {
				inv.Tax = d
			} else {
				inv.DailyRate = d
			}
		case "status":
			n, err := intValue(val)
			status := models.InvoiceStatus(n)
			if err != nil || !status.Valid() {
				v.Add(key, "invalid_choice")
				continue
			}
			inv.Status = status
			if status == models.InvoiceStatusPaid && inv.DatePaid == nil {
				today := s.today()
				inv.DatePaid = &today
			}
		case "description":
			str, ok := stringValue(val)
			if !ok {
				v.Add(key, "invalid_choice")
				continue
			}
			inv.Description = str
		case "number":
			str, _ := stringValue(val)
			str = strings.TrimSpace(str)
			if str == "" {
				v.Add(key, "required")
				continue
			}
			// "new" is the creation route.
			if str == "new" {
				v.Add(key, "invalid_choice")
				continue
			}
			var count int64
			if err := s.DB.Model(&models.Invoice{}).
				Where("user_id = ? AND number = ? AND id <> ?", userID, str, inv.ID).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				v.Add(key, "already_exists")
				continue
			}
			inv.Number = str
		default:
			v.Add(key, "unknown_field")
		}
	}
	return v.Err()
}

func (s *InvoiceService) applyClient(userID uint, inv *models.Invoice, val any) error {
	if val == nil {
		inv.ClientID, inv.Client = nil, nil
		return nil
	}
	if str, ok := val.(string); ok && strings.TrimSpace(str) == "" {
		inv.ClientID, inv.Client = nil, nil
		return nil
	}
	id, err := intValue(val)
	if err != nil || id <= 0 {
		return validation.Errors{"client": {"invalid_choice"}}
	}
	var c models.Client
	if err := s.DB.Where("user_id = ?", userID).First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	cid := c.ID
	inv.ClientID, inv.Client = &cid, &c
	return nil
}

func stringValue(val any) (string, bool) {
	switch x := val.(type) {
	case nil:
		return "", true
	case string:
		return x, true
	default:
		return "", false
	}
}

func dateValue(val any, st *models.Settings) (*time.Time, error) {
	str, ok := stringValue(val)
	if !ok {
		return nil, fmt.Errorf("date must be a string, got %T", val)
	}
	if strings.TrimSpace(str) == "" {
		return nil, nil
	}
	t, err := st.ParseDate(str)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func decimalValue(val any) (decimal.Decimal, error) {
	switch x := val.(type) {
	case float64:
		return decimal.NewFromFloat(x), nil
	case int:
		return decimal.NewFromInt(int64(x)), nil
	case json.Number:
		return decimal.NewFromString(x.String())
	case string:
		return decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(x), ",", "."))
	default:
		return decimal.Zero, fmt.Errorf("not a number: %T", val)
	}
}

func intValue(val any) (int, error) {
	switch x := val.(type) {
	case float64:
		if x != math.Trunc(x) {
			return 0, fmt.Errorf("not an integer: %v", x)
		}
		return int(x), nil
	case int:
		return x, nil
	case json.Number:
		n, err := x.Int64()
		return int(n), err
	case string:
		return strconv.Atoi(strings.TrimSpace(x))
	default:
		return 0, fmt.Errorf("not an integer: %T", val)
	}
}
