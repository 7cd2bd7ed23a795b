// Package portaltest provides an in-process fake SchoolSoft portal for tests.
package portaltest

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

const (
	// SessionCookie is the cookie the fake portal issues on a successful login
	SessionCookie = "JSESSIONID"
	// LandingPath is where a successful login POST redirects to
	LandingPath = "/jsp/student/right_student_startpage.jsp"
)

// Server is a fake portal for one school. Pages registered with Handle are
// only served to requests carrying a valid session cookie; everything else
// is redirected to the login page.
type Server struct {
	*httptest.Server

	School   string
	Username string
	Password string

	mu        sync.Mutex
	token     string
	pages     map[string]string
	public    map[string]string
	hits      map[string]int
	logins    []LoginAttempt
	delay     time.Duration
	rejectAll bool
}

// LoginAttempt records one POST to the login endpoint
type LoginAttempt struct {
	Action   string
	UserType string
	Username string
	Password string
	Cookies  []*http.Cookie
}

// NewServer starts a fake portal. Call Close when done.
func NewServer(school, username, password string) *Server {
	s := &Server{
		School:   school,
		Username: username,
		Password: password,
		token:    "session-token",
		pages:    make(map[string]string),
		public:   make(map[string]string),
		hits:     make(map[string]int),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	return s
}

// Handle registers an authenticated page. pathAndQuery is relative to the
// school root, e.g. "/jsp/student/right_student_news.jsp?menu=news".
func (s *Server) Handle(pathAndQuery, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages["/"+s.School+pathAndQuery] = body
}

// HandlePublic registers a page served without a session
func (s *Server) HandlePublic(pathAndQuery, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.public["/"+s.School+pathAndQuery] = body
}

// SetDelay makes every response wait before being written
func (s *Server) SetDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

// RejectAllLogins makes the login endpoint accept nothing, even valid credentials
func (s *Server) RejectAllLogins() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejectAll = true
}

// ExpireSession invalidates the currently issued session cookie
func (s *Server) ExpireSession() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = s.token + "-rotated"
}

// Token returns the currently valid session cookie value
func (s *Server) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// BaseURL returns the portal base URL (without the school segment)
func (s *Server) BaseURL() string {
	return s.URL
}

// Logins returns a copy of all login attempts so far
func (s *Server) Logins() []LoginAttempt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]LoginAttempt(nil), s.logins...)
}

// Hits returns how many times pathAndQuery (relative to the school root)
// was requested, including requests redirected to login.
func (s *Server) Hits(pathAndQuery string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits["/"+s.School+pathAndQuery]
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	delay := s.delay
	key := r.URL.Path
	if r.URL.RawQuery != "" {
		key += "?" + r.URL.RawQuery
	}
	s.hits[key]++
	s.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	switch r.URL.Path {
	case "/" + s.School + "/jsp/Login.jsp":
		s.serveLogin(w, r)
		return
	case "/" + s.School + "/html/redirect_login.htm":
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<html><body><form id="login"></form></body></html>`))
		return
	}

	s.mu.Lock()
	body, isPublic := s.public[key]
	if !isPublic {
		body = s.pages[key]
	}
	_, isPage := s.pages[key]
	token := s.token
	s.mu.Unlock()

	if isPublic {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(body))
		return
	}

	if c, err := r.Cookie(SessionCookie); err != nil || c.Value != token {
		http.Redirect(w, r, "/"+s.School+"/html/redirect_login.htm", http.StatusFound)
		return
	}

	if !isPage {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(body))
}

func (s *Server) serveLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	attempt := LoginAttempt{
		Action:   r.PostForm.Get("action"),
		UserType: r.PostForm.Get("usertype"),
		Username: r.PostForm.Get("ssusername"),
		Password: r.PostForm.Get("sspassword"),
		Cookies:  r.Cookies(),
	}

	s.mu.Lock()
	s.logins = append(s.logins, attempt)
	ok := !s.rejectAll &&
		attempt.Action == "login" &&
		attempt.Username == s.Username &&
		attempt.Password == s.Password
	token := s.token
	s.mu.Unlock()

	if ok {
		http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: token, Path: "/"})
		http.Redirect(w, r, "/"+s.School+LandingPath, http.StatusFound)
		return
	}
	http.Redirect(w, r, "/"+s.School+"/html/redirect_login.htm", http.StatusFound)
}
