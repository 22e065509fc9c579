package telegram

import (
	"fmt"
	"html"
	"time"

	"github.com/Freeeeeet/peer_tutoring/internal/model"
)

// statusDisplay emoji и подпись статуса занятия
type statusDisplay struct {
	Emoji string
	Text  string
}

func bookingStatusDisplay(status model.BookingStatus) statusDisplay {
	displays := map[model.BookingStatus]statusDisplay{
		model.BookingStatusPending:   {"⏳", "Pending approval"},
		model.BookingStatusConfirmed: {"✅", "Confirmed"},
		model.BookingStatusCompleted: {"✔️", "Completed"},
		model.BookingStatusCancelled: {"❌", "Cancelled"},
	}

	if display, ok := displays[status]; ok {
		return display
	}
	return statusDisplay{"❓", "Unknown"}
}

func formatDuration(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%d min", minutes)
	}
	hours := minutes / 60
	mins := minutes % 60
	if mins == 0 {
		return fmt.Sprintf("%d h", hours)
	}
	return fmt.Sprintf("%d h %d min", hours, mins)
}

func formatSessionTime(b *model.Booking, loc *time.Location) string {
	start := b.Date.In(loc)
	end := b.EndsAt().In(loc)
	return fmt.Sprintf("%s, %s-%s", start.Format("Mon 02.01.2006"), start.Format("15:04"), end.Format("15:04"))
}

func nameOf(a *model.Account) string {
	if a == nil {
		return "Someone"
	}
	return html.EscapeString(a.Name)
}

func connectionRequestedText(student *model.Account) string {
	return fmt.Sprintf(
		"🤝 <b>New connection request</b>\n\n"+
			"%s wants to study with you.\n"+
			"Open your requests to accept or decline.",
		nameOf(student),
	)
}

func connectionDecidedText(tutor *model.Account, c *model.Connection) string {
	if c.IsAccepted() {
		return fmt.Sprintf(
			"🎉 <b>%s accepted your request</b>\n\nYou can now message each other and book sessions.",
			nameOf(tutor),
		)
	}
	return fmt.Sprintf("😔 %s declined your connection request.", nameOf(tutor))
}

func formatBookingInfo(b *model.Booking, counterpart *model.Account, loc *time.Location) string {
	display := bookingStatusDisplay(b.Status)
	return fmt.Sprintf(
		"📚 Subject: %s\n"+
			"👤 With: %s\n"+
			"📅 When: %s\n"+
			"⏱ Duration: %s\n"+
			"📍 Where: %s\n"+
			"📊 Status: %s %s",
		html.EscapeString(b.Subject),
		nameOf(counterpart),
		formatSessionTime(b, loc),
		formatDuration(b.Duration),
		html.EscapeString(b.Location),
		display.Emoji,
		display.Text,
	)
}

func bookingCreatedText(b *model.Booking, counterpart *model.Account, loc *time.Location) string {
	title := "🗓 <b>New session scheduled</b>"
	if b.Status == model.BookingStatusPending {
		title = "📥 <b>New booking request</b>"
	}
	return title + "\n\n" + formatBookingInfo(b, counterpart, loc)
}

func bookingStatusText(b *model.Booking, counterpart *model.Account, loc *time.Location) string {
	display := bookingStatusDisplay(b.Status)
	return fmt.Sprintf("%s <b>Session %s</b>\n\n", display.Emoji, display.Text) + formatBookingInfo(b, counterpart, loc)
}
