package schedule

import (
	"bytes"
	"image/color"
	"strconv"
	"time"

	"github.com/Freeeeeet/peer_tutoring/internal/model"
	"github.com/fogleman/gg"
	"github.com/google/uuid"
	"golang.org/x/image/font/basicfont"
)

// Размеры и отступы
const (
	imageWidth       = 1120
	imageHeight      = 760
	headerHeight     = 70
	leftLabelsWidth  = 60
	legendWidth      = 130
	dayPaddingX      = 6
	minBlockHeight   = 10.0
	blockRadius      = 5.0
	shadowOffset     = 2.0
	daysInWeek       = 7
	hourPaddingTop   = 1
	hourPaddingBot   = 1
	defaultMinHour   = 8
	defaultMaxHour   = 20
	maxLabelRunes    = 18
	textLineHeight   = 14.0
	textInsetX       = 6.0
	textInsetY       = 14.0
	minTwoLineHeight = 32.0
)

// Цветовая схема
var (
	bgColor          = color.RGBA{245, 246, 248, 255}
	textColor        = color.RGBA{80, 85, 90, 255}
	hourLabelColor   = color.RGBA{110, 115, 120, 255}
	hourLineColor    = color.NRGBA{150, 150, 150, 255}
	todayBgColor     = color.NRGBA{255, 99, 71, 90}
	evenDayColor     = color.NRGBA{240, 240, 240, 255}
	oddDayColor      = color.NRGBA{225, 225, 225, 255}
	currentTimeColor = color.NRGBA{255, 80, 80, 200}

	pendingColor   = color.RGBA{255, 214, 102, 230}
	confirmedColor = color.RGBA{133, 193, 85, 230}
	completedColor = color.RGBA{150, 180, 220, 230}
	defaultColor   = color.RGBA{220, 220, 220, 200}
	blockTextColor = color.RGBA{20, 24, 28, 240}
	shadowColor    = color.RGBA{0, 0, 0, 20}
)

type hourRange struct {
	start int
	end   int
	total int
}

// Renderer рисует PNG с занятиями на неделю
type Renderer struct {
	now func() time.Time
}

func NewRenderer() *Renderer {
	return &Renderer{now: time.Now}
}

// RenderWeek рисует неделю, начинающуюся в weekStart (понедельник).
// На каждом блоке время, предмет и имя собеседника viewerID.
func (r *Renderer) RenderWeek(weekStart time.Time, viewerID uuid.UUID, bookings []*model.Booking) ([]byte, error) {
	weekEnd := weekStart.AddDate(0, 0, daysInWeek)
	now := r.now().In(weekStart.Location())
	highlightToday := !now.Before(weekStart) && now.Before(weekEnd)

	byDay := groupByDay(bookings, weekStart.Location())
	hours := calculateHourRange(bookings, weekStart.Location())

	dc := gg.NewContext(imageWidth, imageHeight)
	dc.SetColor(bgColor)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	dayWidth := (imageWidth - leftLabelsWidth - legendWidth) / daysInWeek
	dayHeight := imageHeight - headerHeight
	cellHeight := float64(dayHeight) / float64(hours.total)

	drawHeader(dc, weekStart)
	drawHourLabels(dc, hours, cellHeight)

	day := weekStart
	for i := 0; i < daysInWeek; i++ {
		x := float64(leftLabelsWidth + i*dayWidth)
		isToday := highlightToday && sameDay(day, now)

		drawDayBackground(dc, x, dayWidth, dayHeight, i, isToday)
		drawDayHeader(dc, day, x, dayWidth)
		drawHourLines(dc, x, dayWidth, hours, cellHeight)
		for _, b := range byDay[day.Format(time.DateOnly)] {
			drawBooking(dc, b, viewerID, weekStart.Location(), x, dayWidth, hours, cellHeight)
		}

		day = day.AddDate(0, 0, 1)
	}

	if highlightToday {
		drawCurrentTimeLine(dc, now, hours, cellHeight, dayWidth)
	}
	drawLegend(dc, dayWidth)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func groupByDay(bookings []*model.Booking, loc *time.Location) map[string][]*model.Booking {
	byDay := make(map[string][]*model.Booking)
	for _, b := range bookings {
		if b.Status == model.BookingStatusCancelled {
			continue
		}
		key := b.Date.In(loc).Format(time.DateOnly)
		byDay[key] = append(byDay[key], b)
	}
	return byDay
}

// calculateHourRange диапазон часов, покрывающий все занятия, с отступами
func calculateHourRange(bookings []*model.Booking, loc *time.Location) hourRange {
	minHour, maxHour := 24, 0
	for _, b := range bookings {
		start := b.Date.In(loc)
		end := b.EndsAt().In(loc)
		endH := end.Hour()
		if end.Minute() > 0 || !sameDay(start, end) {
			endH++
		}
		if !sameDay(start, end) {
			endH = 24
		}
		minHour = min(minHour, start.Hour())
		maxHour = max(maxHour, endH)
	}

	if minHour == 24 {
		minHour, maxHour = defaultMinHour, defaultMaxHour
	}

	start := max(minHour-hourPaddingTop, 0)
	end := min(maxHour+hourPaddingBot, 24)
	return hourRange{start: start, end: end, total: end - start}
}

func drawHeader(dc *gg.Context, weekStart time.Time) {
	weekEnd := weekStart.AddDate(0, 0, daysInWeek-1)
	title := "Week of " + weekStart.Format("Jan 2") + " - " + weekEnd.Format("Jan 2, 2006")
	dc.SetColor(textColor)
	dc.DrawStringAnchored(title, float64(leftLabelsWidth), float64(headerHeight)/4, 0, 0.5)
}

func drawHourLabels(dc *gg.Context, hours hourRange, cellHeight float64) {
	dc.SetColor(hourLabelColor)
	for i := 0; i <= hours.total; i++ {
		y := float64(headerHeight) + float64(i)*cellHeight
		dc.DrawStringAnchored(formatHourLabel(hours.start+i), float64(leftLabelsWidth)-8, y, 1, 0.5)
	}
}

func drawDayBackground(dc *gg.Context, x float64, dayWidth, dayHeight, index int, isToday bool) {
	switch {
	case isToday:
		dc.SetColor(todayBgColor)
	case index%2 == 0:
		dc.SetColor(evenDayColor)
	default:
		dc.SetColor(oddDayColor)
	}
	dc.DrawRectangle(x, float64(headerHeight), float64(dayWidth), float64(dayHeight))
	dc.Fill()
}

func drawDayHeader(dc *gg.Context, day time.Time, x float64, dayWidth int) {
	dc.SetColor(textColor)
	center := x + float64(dayWidth)/2
	dc.DrawStringAnchored(day.Format("Mon"), center, float64(headerHeight)-28, 0.5, 0.5)
	dc.DrawStringAnchored(day.Format("02.01"), center, float64(headerHeight)-12, 0.5, 0.5)
}

func drawHourLines(dc *gg.Context, x float64, dayWidth int, hours hourRange, cellHeight float64) {
	dc.SetLineWidth(0.3)
	dc.SetColor(hourLineColor)
	for i := 0; i <= hours.total; i++ {
		y := float64(headerHeight) + float64(i)*cellHeight
		dc.DrawLine(x, y, x+float64(dayWidth), y)
		dc.Stroke()
	}
}

func drawBooking(dc *gg.Context, b *model.Booking, viewerID uuid.UUID, loc *time.Location, x float64, dayWidth int, hours hourRange, cellHeight float64) {
	start := b.Date.In(loc)
	startHour := float64(start.Hour()) + float64(start.Minute())/60
	endHour := startHour + float64(b.Duration)/60
	if endHour > float64(hours.end) {
		endHour = float64(hours.end)
	}

	y := float64(headerHeight) + (startHour-float64(hours.start))*cellHeight
	height := max((endHour-startHour)*cellHeight, minBlockHeight)
	width := float64(dayWidth) - dayPaddingX*2
	fill := statusColor(b.Status)

	dc.SetColor(shadowColor)
	dc.DrawRoundedRectangle(x+dayPaddingX+shadowOffset, y+1+shadowOffset, width, height-2, blockRadius)
	dc.Fill()

	dc.SetColor(fill)
	dc.DrawRoundedRectangle(x+dayPaddingX, y+1, width, height-2, blockRadius)
	dc.Fill()

	dc.SetColor(darkenColor(fill, 0.8))
	dc.SetLineWidth(1)
	dc.DrawRoundedRectangle(x+dayPaddingX, y+1, width, height-2, blockRadius)
	dc.Stroke()

	dc.SetColor(blockTextColor)
	textX := x + dayPaddingX + textInsetX
	textY := y + textInsetY
	dc.DrawString(start.Format("15:04")+" "+truncate(b.Subject), textX, textY)

	if height >= minTwoLineHeight {
		if name := counterpartName(b, viewerID); name != "" {
			dc.DrawString(truncate(name), textX, textY+textLineHeight)
		}
	}
}

func counterpartName(b *model.Booking, viewerID uuid.UUID) string {
	other := b.Student
	if viewerID == b.StudentID {
		other = b.Tutor
	}
	if other == nil {
		return ""
	}
	return other.Name
}

func statusColor(status model.BookingStatus) color.RGBA {
	switch status {
	case model.BookingStatusPending:
		return pendingColor
	case model.BookingStatusConfirmed:
		return confirmedColor
	case model.BookingStatusCompleted:
		return completedColor
	default:
		return defaultColor
	}
}

func darkenColor(c color.RGBA, factor float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c.R) * factor),
		G: uint8(float64(c.G) * factor),
		B: uint8(float64(c.B) * factor),
		A: c.A,
	}
}

func drawCurrentTimeLine(dc *gg.Context, now time.Time, hours hourRange, cellHeight float64, dayWidth int) {
	current := float64(now.Hour()) + float64(now.Minute())/60
	if current < float64(hours.start) || current > float64(hours.end) {
		return
	}

	y := float64(headerHeight) + (current-float64(hours.start))*cellHeight
	dc.SetColor(currentTimeColor)
	dc.SetLineWidth(2)
	dc.DrawLine(float64(leftLabelsWidth), y, float64(leftLabelsWidth+daysInWeek*dayWidth), y)
	dc.Stroke()
}

func drawLegend(dc *gg.Context, dayWidth int) {
	items := []struct {
		label string
		clr   color.Color
	}{
		{"Pending", pendingColor},
		{"Confirmed", confirmedColor},
		{"Completed", completedColor},
	}

	const boxW, boxH = 18.0, 12.0
	x := float64(leftLabelsWidth+daysInWeek*dayWidth) + 12
	y := float64(imageHeight) - 90

	for _, item := range items {
		dc.SetColor(item.clr)
		dc.DrawRoundedRectangle(x, y, boxW, boxH, 3)
		dc.Fill()

		dc.SetColor(textColor)
		dc.DrawStringAnchored(item.label, x+boxW+8, y+boxH/2, 0, 0.5)
		y += boxH + 12
	}
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

func formatHourLabel(h int) string {
	if h < 10 {
		return "0" + strconv.Itoa(h) + ":00"
	}
	return strconv.Itoa(h) + ":00"
}

func truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= maxLabelRunes {
		return s
	}
	return string(runes[:maxLabelRunes-3]) + "..."
}
