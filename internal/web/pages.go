package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"

	"github.com/hackgods/doctor-booking-web/internal/backend"
	"github.com/hackgods/doctor-booking-web/internal/booking"
	"github.com/hackgods/doctor-booking-web/internal/slot"
)

//go:embed templates/*.html
var templateFS embed.FS

type pages struct {
	t *template.Template
}

var templateFuncs = template.FuncMap{
	"fee":       formatFee,
	"minor":     formatMinorUnits,
	"doctorURL": doctorURL,
}

func mustParsePages() *pages {
	t := template.Must(template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html"))
	return &pages{t: t}
}

// render executes into a buffer so a template error still yields a clean 500.
func (p *pages) render(w http.ResponseWriter, status int, name string, data any) error {
	var buf bytes.Buffer
	if err := p.t.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

func formatFee(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatMinorUnits renders an order amount given in paise as rupees.
func formatMinorUnits(n int64) string {
	return fmt.Sprintf("%d.%02d", n/100, n%100)
}

type basePage struct {
	Title    string
	Toasts   []Toast
	LoggedIn bool
	Currency string
}

type homePage struct {
	basePage
	Doctors []backend.Doctor
}

type dayChip struct {
	Weekday    string
	DayOfMonth int
	Href       string
	Selected   bool
}

type timeChip struct {
	Label    slot.TimeLabel
	Href     string
	Selected bool
}

type doctorPage struct {
	basePage
	Doctor       *backend.Doctor
	Days         []dayChip
	Times        []timeChip
	Date         slot.DateKey
	Time         slot.TimeLabel
	CanBook      bool
	Appointments []booking.Card
	Related      []backend.Doctor
}

type appointmentsPage struct {
	basePage
	Cards []booking.Card
}

type checkoutPage struct {
	basePage
	Key           string
	Order         backend.Order
	AppointmentID string
}

type loginPage struct {
	basePage
}

func (s *Server) base(title, token string, toasts []Toast) basePage {
	ac := s.appContext(token)
	return basePage{
		Title:    title,
		Toasts:   toasts,
		LoggedIn: ac.LoggedIn(),
		Currency: ac.CurrencySymbol,
	}
}

func newDoctorPage(base basePage, v *booking.BookingView) doctorPage {
	page := doctorPage{
		basePage:     base,
		Doctor:       v.Doctor,
		Time:         v.Time,
		CanBook:      v.CanBook(),
		Appointments: booking.CardsOf(v.UserAppointments),
		Related:      v.Related,
	}

	for i, day := range v.Days {
		page.Days = append(page.Days, dayChip{
			Weekday:    day.Weekday(),
			DayOfMonth: day.Date().Day(),
			Href:       selectionURL(v.DocID, day.Key(), ""),
			Selected:   i == v.DayIndex,
		})
	}

	if day, ok := v.SelectedDay(); ok {
		page.Date = day.Key()
		for _, sl := range day {
			page.Times = append(page.Times, timeChip{
				Label:    sl.Label,
				Href:     selectionURL(v.DocID, page.Date, sl.Label),
				Selected: sl.Label == v.Time,
			})
		}
	}

	return page
}

func doctorURL(docID string) string {
	return "/appointment/" + url.PathEscape(docID)
}

func selectionURL(docID string, date slot.DateKey, label slot.TimeLabel) string {
	q := url.Values{}
	if date != "" {
		q.Set("date", string(date))
	}
	if label != "" {
		q.Set("time", string(label))
	}
	if len(q) == 0 {
		return doctorURL(docID)
	}
	return doctorURL(docID) + "?" + q.Encode()
}
