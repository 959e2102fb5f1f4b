package bkpertest

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kbukum/bkper/errors"
)

const headerRequestID = "X-Request-Id"

// BasePath is the API prefix the fake serves under; Server.URL includes it.
const BasePath = "/v5"

const defaultPageSize = 100

// RecordedRequest is one request seen by the server.
type RecordedRequest struct {
	Method string
	// Path is relative to BasePath, e.g. "books/b1".
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// APIKey returns the bkper-api-key header, or the "key" query parameter.
func (r RecordedRequest) APIKey() string {
	if k := r.Header.Get("bkper-api-key"); k != "" {
		return k
	}
	return r.Query.Get("key")
}

// Bearer returns the token of an "Authorization: Bearer" header.
func (r RecordedRequest) Bearer() string {
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}

type forced struct {
	status int
	body   string
}

// Option configures a Server.
type Option func(*Server)

// WithBooks seeds books.
func WithBooks(books ...Book) Option {
	return func(s *Server) {
		for _, b := range books {
			s.addBook(b)
		}
	}
}

// WithUser replaces DefaultUser.
func WithUser(u User) Option {
	return func(s *Server) { s.user = u }
}

// WithTransactions seeds transactions for a book.
func WithTransactions(bookID string, txs ...Transaction) Option {
	return func(s *Server) {
		s.transactions[bookID] = append(s.transactions[bookID], txs...)
	}
}

// RequireAuth makes every route answer 401 unless the request carries a
// bearer token or an API key.
func RequireAuth() Option {
	return func(s *Server) { s.requireAuth = true }
}

// Server is a fake Bkper API.
type Server struct {
	// URL is the base URL to configure clients with.
	URL string

	srv    *httptest.Server
	engine *gin.Engine

	mu           sync.Mutex
	books        map[string]Book
	bookOrder    []string
	user         User
	transactions map[string][]Transaction
	forced       map[string]forced
	requests     []RecordedRequest
	requireAuth  bool
	nextID       int
	certs        *Certs
}

// NewServer starts a fake API that is closed when the test ends.
func NewServer(t testing.TB, opts ...Option) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := &Server{
		books:        make(map[string]Book),
		user:         DefaultUser,
		transactions: make(map[string][]Transaction),
		forced:       make(map[string]forced),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.engine = gin.New()
	s.engine.Use(gin.CustomRecovery(recovered), requestID, s.record, s.force, s.authenticate)

	api := s.engine.Group(BasePath)
	api.GET("/user", s.getUser)
	api.GET("/books", s.listBooks)
	api.GET("/books/:id", s.getBook)
	api.GET("/books/:id/transactions", s.listTransactions)
	api.POST("/books/:id/transactions", s.createTransaction)

	if s.certs != nil {
		s.srv = httptest.NewUnstartedServer(s.engine)
		s.srv.TLS = &tls.Config{Certificates: []tls.Certificate{s.certs.Certificate}, MinVersion: tls.VersionTLS12}
		s.srv.StartTLS()
	} else {
		s.srv = httptest.NewServer(s.engine)
	}
	s.URL = s.srv.URL + BasePath
	t.Cleanup(s.Close)
	return s
}

// Close shuts the server down.
func (s *Server) Close() {
	s.srv.Close()
}

// Force makes every request to path (relative to BasePath, e.g.
// "books/b1") answer with status and body. An empty body sends nothing.
func (s *Server) Force(path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forced[strings.Trim(path, "/")] = forced{status: status, body: body}
}

// ClearForced removes all forced responses.
func (s *Server) ClearForced() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forced = make(map[string]forced)
}

// Requests returns a copy of the requests received so far.
func (s *Server) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RecordedRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

// LastRequest returns the most recent request. ok is false if there was none.
func (s *Server) LastRequest() (req RecordedRequest, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return RecordedRequest{}, false
	}
	return s.requests[len(s.requests)-1], true
}

// Transactions returns the stored transactions of a book.
func (s *Server) Transactions(bookID string) []Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Transaction(nil), s.transactions[bookID]...)
}

func (s *Server) addBook(b Book) {
	if _, ok := s.books[b.ID]; !ok {
		s.bookOrder = append(s.bookOrder, b.ID)
	}
	s.books[b.ID] = b
}

func relPath(r *http.Request) string {
	return strings.Trim(strings.TrimPrefix(r.URL.Path, BasePath), "/")
}

// requestID echoes X-Request-Id, minting one for clients that sent none.
func requestID(c *gin.Context) {
	id := c.GetHeader(headerRequestID)
	if id == "" {
		id = uuid.NewString()
	}
	c.Header(headerRequestID, id)
	c.Next()
}

func (s *Server) record(c *gin.Context) {
	var body []byte
	if c.Request.Body != nil {
		body, _ = io.ReadAll(c.Request.Body)
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
	}
	s.mu.Lock()
	s.requests = append(s.requests, RecordedRequest{
		Method: c.Request.Method,
		Path:   relPath(c.Request),
		Query:  c.Request.URL.Query(),
		Header: c.Request.Header.Clone(),
		Body:   body,
	})
	s.mu.Unlock()
	c.Next()
}

func (s *Server) force(c *gin.Context) {
	s.mu.Lock()
	f, ok := s.forced[relPath(c.Request)]
	s.mu.Unlock()
	if !ok {
		c.Next()
		return
	}
	if f.body == "" {
		c.AbortWithStatus(f.status)
		return
	}
	c.Data(f.status, "application/json", []byte(f.body))
	c.Abort()
}

func (s *Server) authenticate(c *gin.Context) {
	if !s.requireAuth {
		c.Next()
		return
	}
	hasBearer := strings.HasPrefix(c.GetHeader("Authorization"), "Bearer ")
	hasKey := c.GetHeader("bkper-api-key") != "" || c.Query("key") != ""
	if !hasBearer && !hasKey {
		respondError(c, errors.Unauthorized(""))
		return
	}
	c.Next()
}

// recovered turns a handler panic into an INTERNAL_ERROR body.
func recovered(c *gin.Context, v any) {
	respondError(c, errors.Internal(fmt.Errorf("panic: %v", v)))
}

func respondError(c *gin.Context, err *errors.AppError) {
	c.AbortWithStatusJSON(err.HTTPStatus, err.ToResponse())
}

func (s *Server) getUser(c *gin.Context) {
	s.mu.Lock()
	u := s.user
	s.mu.Unlock()
	c.JSON(http.StatusOK, u)
}

func (s *Server) listBooks(c *gin.Context) {
	s.mu.Lock()
	items := make([]Book, 0, len(s.bookOrder))
	for _, id := range s.bookOrder {
		items = append(items, s.books[id])
	}
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (s *Server) getBook(c *gin.Context) {
	id := c.Param("id")
	s.mu.Lock()
	b, ok := s.books[id]
	s.mu.Unlock()
	if !ok {
		respondError(c, errors.NotFound("book", id))
		return
	}
	c.JSON(http.StatusOK, b)
}

// listTransactions filters by a case-insensitive substring of the
// description; the real query language is not modeled.
func (s *Server) listTransactions(c *gin.Context) {
	id := c.Param("id")
	s.mu.Lock()
	_, ok := s.books[id]
	all := append([]Transaction(nil), s.transactions[id]...)
	s.mu.Unlock()
	if !ok {
		respondError(c, errors.NotFound("book", id))
		return
	}

	q := strings.ToLower(c.Query("query"))
	matched := all[:0]
	for _, tx := range all {
		if q == "" || strings.Contains(strings.ToLower(tx.Description), q) {
			matched = append(matched, tx)
		}
	}

	limit := defaultPageSize
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondError(c, errors.Validation("invalid limit").WithDetail("limit", v))
			return
		}
		limit = n
	}
	start := 0
	if v := c.Query("cursor"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > len(matched) {
			respondError(c, errors.Validation("invalid cursor").WithDetail("cursor", v))
			return
		}
		start = n
	}

	end := min(start+limit, len(matched))
	resp := gin.H{"items": matched[start:end]}
	if end < len(matched) {
		resp["cursor"] = strconv.Itoa(end)
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) createTransaction(c *gin.Context) {
	id := c.Param("id")
	var tx Transaction
	if err := c.ShouldBindJSON(&tx); err != nil {
		respondError(c, errors.Validation("invalid transaction body").WithCause(err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.books[id]; !ok {
		respondError(c, errors.NotFound("book", id))
		return
	}
	s.nextID++
	tx.ID = "tx-" + strconv.Itoa(s.nextID)
	s.transactions[id] = append(s.transactions[id], tx)
	c.JSON(http.StatusOK, tx)
}
