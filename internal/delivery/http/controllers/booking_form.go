package controllers

import (
	"regexp"
	"slices"
	"strings"

	"eventx/internal/domain"
)

var (
	emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRegex = regexp.MustCompile(`^[0-9]{10}$`)

	allowedDegrees     = []string{"B.E/B.Tech", "MBA", "MTECH", "MCA"}
	allowedColleges    = []string{"CBIT", "Other"}
	allowedDepartments = []string{"CSE", "AIML", "AIDS", "EEE", "ECE", "MECH", "CHEMICAL", "CIVIL", "BIOTECH", "IT"}
	allowedYears       = []string{"1", "2", "3", "4"}
)

// BookingForm is the personal and academic snapshot submitted with a booking
// or payment request.
type BookingForm struct {
	FullName   string `json:"fullName"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	RollNumber string `json:"rollNumber"`
	Degree     string `json:"degree"`
	College    string `json:"college"`
	Department string `json:"department"`
	Section    int    `json:"section"`
	Year       string `json:"year"`
}

// Validate implements helpers.Validator. Surrounding whitespace is trimmed
// and the email lower-cased before the checks run.
func (f *BookingForm) Validate() []string {
	f.FullName = strings.TrimSpace(f.FullName)
	f.Email = strings.ToLower(strings.TrimSpace(f.Email))
	f.Phone = strings.TrimSpace(f.Phone)
	f.RollNumber = strings.TrimSpace(f.RollNumber)
	f.Year = strings.TrimSpace(f.Year)

	var errs []string
	if n := len([]rune(f.FullName)); n < 2 || n > 100 {
		errs = append(errs, "fullName must be between 2 and 100 characters")
	}
	if !emailRegex.MatchString(f.Email) {
		errs = append(errs, "email must be a valid email address")
	}
	if !phoneRegex.MatchString(f.Phone) {
		errs = append(errs, "phone must be exactly 10 digits")
	}
	if n := len(f.RollNumber); n < 1 || n > 20 {
		errs = append(errs, "rollNumber must be between 1 and 20 characters")
	}
	if !slices.Contains(allowedDegrees, f.Degree) {
		errs = append(errs, "degree must be one of "+strings.Join(allowedDegrees, ", "))
	}
	if !slices.Contains(allowedColleges, f.College) {
		errs = append(errs, "college must be one of "+strings.Join(allowedColleges, ", "))
	}
	if !slices.Contains(allowedDepartments, f.Department) {
		errs = append(errs, "department must be one of "+strings.Join(allowedDepartments, ", "))
	}
	if f.Section < 1 {
		errs = append(errs, "section must be at least 1")
	}
	if !slices.Contains(allowedYears, f.Year) {
		errs = append(errs, "year must be one of 1, 2, 3, 4")
	}
	return errs
}

func (f *BookingForm) details() domain.BookingDetails {
	return domain.BookingDetails{
		FullName:   f.FullName,
		Email:      f.Email,
		Phone:      f.Phone,
		RollNumber: f.RollNumber,
		Degree:     f.Degree,
		College:    f.College,
		Department: f.Department,
		Section:    f.Section,
		Year:       f.Year,
	}
}
