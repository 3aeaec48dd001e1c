package http

import (
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"tally/internal/core"
	"tally/internal/storage"
)

// clientIP extracts the caller's address, honoring proxy headers first.
func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

// sanitizeInput removes control characters (except tab/newline/CR) and trims
// whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// pathID parses the {id} route variable. The router's regexp already
// guarantees digits.
func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}

// filterFromQuery maps the index/export query parameters onto a store filter.
func filterFromQuery(q url.Values) storage.Filter {
	return storage.Filter{
		StartDate: strings.TrimSpace(q.Get("from")),
		EndDate:   strings.TrimSpace(q.Get("to")),
		Category:  sanitizeInput(q.Get("category")),
	}
}

func todayISO() string {
	return time.Now().Format(core.DateLayout)
}

// redirectWithMessage sends the browser home (or wherever) with a flash-style
// message carried in the query string.
func redirectWithMessage(w http.ResponseWriter, r *http.Request, path, msg string) {
	u := url.URL{Path: path}
	if msg != "" {
		q := url.Values{}
		q.Set("msg", msg)
		u.RawQuery = q.Encode()
	}
	http.Redirect(w, r, u.String(), http.StatusSeeOther)
}

// writeErrorPage renders a minimal HTML error fragment with the message
// escaped.
func writeErrorPage(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`<div class="error">` + template.HTMLEscapeString(msg) + `</div>`))
}
