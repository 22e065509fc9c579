package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Freeeeeet/peer_tutoring/internal/model"
	"github.com/Freeeeeet/peer_tutoring/internal/schedule"
	"github.com/Freeeeeet/peer_tutoring/internal/service"
	"github.com/google/uuid"
)

// Рисует неделю с демонстрационными занятиями в PNG без базы данных
func main() {
	out := flag.String("out", "week.png", "output file")
	flag.Parse()

	weekStart := service.WeekStart(time.Now())

	tutor := &model.AccountSummary{ID: uuid.New(), Name: "Tess Tutor"}
	ann := &model.AccountSummary{ID: uuid.New(), Name: "Ann Student"}
	ben := &model.AccountSummary{ID: uuid.New(), Name: "Benjamin Longname-Student"}

	session := func(day, hour, minutes int, subject string, student *model.AccountSummary, status model.BookingStatus) *model.Booking {
		return &model.Booking{
			ID:        uuid.New(),
			StudentID: student.ID,
			TutorID:   tutor.ID,
			Subject:   subject,
			Date:      weekStart.AddDate(0, 0, day).Add(time.Duration(hour) * time.Hour),
			Duration:  minutes,
			Location:  model.DefaultBookingLocation,
			Status:    status,
			Student:   student,
			Tutor:     tutor,
		}
	}

	bookings := []*model.Booking{
		session(0, 9, 60, "Calculus", ann, model.BookingStatusConfirmed),
		session(0, 14, 90, "Linear Algebra", ben, model.BookingStatusPending),
		session(1, 10, 45, "Physics", ann, model.BookingStatusCompleted),
		session(2, 16, 120, "Organic Chemistry", ben, model.BookingStatusConfirmed),
		session(3, 11, 30, "Statistics", ann, model.BookingStatusCancelled),
		session(4, 13, 60, "Calculus", ben, model.BookingStatusConfirmed),
	}

	imageData, err := schedule.NewRenderer().RenderWeek(weekStart, tutor.ID, bookings)
	if err != nil {
		fmt.Fprintf(os.Stderr, "render week: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile(*out, imageData, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write %s: %v\n", *out, err)
		os.Exit(1)
	}

	fmt.Printf("Saved %s (%s - %s, %d sessions)\n",
		*out,
		weekStart.Format("02.01.2006"),
		weekStart.AddDate(0, 0, 6).Format("02.01.2006"),
		len(bookings),
	)
}
