package web

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
)

const (
	tokenCookie = "token"
	flashCookie = "flash"
)

// Toast is a short message shown once on the next rendered page.
type Toast struct {
	Kind string `json:"k"` // success, warn, error
	Msg  string `json:"m"`
}

func tokenFrom(r *http.Request) string {
	c, err := r.Cookie(tokenCookie)
	if err != nil {
		return ""
	}
	return c.Value
}

func (s *Server) setToken(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearToken(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookie,
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cookieSecure,
	})
}

// pageUI collects what the booking screens tell the user during one
// request. Toasts are rendered directly or carried over a redirect in the
// flash cookie.
type pageUI struct {
	toasts   []Toast
	redirect string
}

func (u *pageUI) Success(msg string) { u.add("success", msg) }
func (u *pageUI) Warn(msg string)    { u.add("warn", msg) }
func (u *pageUI) Error(msg string)   { u.add("error", msg) }

func (u *pageUI) Navigate(route string) {
	// first navigation wins
	if u.redirect == "" {
		u.redirect = route
	}
}

func (u *pageUI) add(kind, msg string) {
	if msg == "" {
		return
	}
	u.toasts = append(u.toasts, Toast{Kind: kind, Msg: msg})
}

// redirectTo stores pending toasts in the flash cookie and sends a 303.
func (s *Server) redirectTo(w http.ResponseWriter, r *http.Request, ui *pageUI, target string) {
	if len(ui.toasts) > 0 {
		if data, err := json.Marshal(ui.toasts); err == nil {
			http.SetCookie(w, &http.Cookie{
				Name:     flashCookie,
				Value:    base64.RawURLEncoding.EncodeToString(data),
				Path:     "/",
				HttpOnly: true,
				Secure:   s.cookieSecure,
				SameSite: http.SameSiteLaxMode,
			})
		}
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// takeFlash reads and clears the flash cookie.
func (s *Server) takeFlash(w http.ResponseWriter, r *http.Request) []Toast {
	c, err := r.Cookie(flashCookie)
	if err != nil {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Path: "/", MaxAge: -1})

	data, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	var toasts []Toast
	if err := json.Unmarshal(data, &toasts); err != nil {
		return nil
	}
	return toasts
}
