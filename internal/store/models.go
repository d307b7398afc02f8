package store

import "time"

type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Role         string
}

type Guide struct {
	ID              int64
	Title           string
	Description     string
	NumberOfDays    int
	Destination     *string
	CoverImageURL   *string
	Mobility        Mobility
	Season          Season
	ForWho          ForWho
	CreatedByUserID int64
}

type GuideDay struct {
	ID        int64
	GuideID   int64
	DayNumber int
	Title     string
	Date      *time.Time
}

type Activity struct {
	ID           int64
	GuideDayID   int64
	Title        string
	Description  string
	Category     ActivityCategory
	Address      string
	PhoneNumber  *string
	OpeningHours *string
	Website      *string
	StartTime    *string
	EndTime      *string
	ForWho       ForWho
	VisitOrder   int
}

type Invitation struct {
	GuideID int64
	UserID  int64
}

// InvitedUser is an invitation joined with the invited user's account.
type InvitedUser struct {
	GuideID int64
	UserID  int64
	Email   string
	Role    string
}

// VisitOrder assigns a visit order to one activity.
type VisitOrder struct {
	ActivityID int64
	VisitOrder int
}

// DateLayout is the wire format of GuideDay.Date.
const DateLayout = "2006-01-02"
