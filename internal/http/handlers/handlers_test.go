package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/AgentPisite999/Car-Site/internal/backend"
	"github.com/AgentPisite999/Car-Site/internal/enrollment"
	"github.com/AgentPisite999/Car-Site/internal/http/views"
	"github.com/AgentPisite999/Car-Site/internal/payment"
	"github.com/AgentPisite999/Car-Site/internal/screening"
	"github.com/AgentPisite999/Car-Site/internal/session"
)

// fakeBackend plays the remote enrollment API over httptest. Responses are
// swapped per test; call counts expose what the portal actually sent.
type fakeBackend struct {
	mu sync.Mutex

	logStatus        int
	enrollmentBody   map[string]any
	screeningsBody   map[string]any
	submitBody       map[string]any
	studentBody      map[string]any
	orderBody        map[string]any
	orderStatus      int
	verifyBody       map[string]any
	logCalls         int
	createOrderCalls int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		logStatus:      http.StatusOK,
		enrollmentBody: map[string]any{"status": "not_enrolled"},
		screeningsBody: map[string]any{"status": "not_found"},
		submitBody:     map[string]any{"status": "success", "enrollmentId": "ENR-42"},
		studentBody: map[string]any{
			"status": "approved",
			"data": map[string]string{
				"name":     "Asha Rao",
				"email":    "asha@example.com",
				"position": "Data Scientist",
				"duration": "3 month",
			},
		},
		orderBody:   map[string]any{"id": "order_123", "amount": 1500},
		orderStatus: http.StatusOK,
		verifyBody:  map[string]any{"status": "success"},
	}
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/log":
		b.logCalls++
		w.WriteHeader(b.logStatus)
	case strings.HasPrefix(r.URL.Path, "/check-enrollment/"):
		_ = json.NewEncoder(w).Encode(b.enrollmentBody)
	case strings.HasPrefix(r.URL.Path, "/all-screenings/"):
		_ = json.NewEncoder(w).Encode(b.screeningsBody)
	case r.Method == http.MethodPost && r.URL.Path == "/screening":
		_ = json.NewEncoder(w).Encode(b.submitBody)
		// Accepted submissions show up in subsequent list reads, like
		// the real backend.
		if b.submitBody["status"] == "success" {
			b.screeningsBody = map[string]any{
				"status": "found",
				"data": []map[string]any{
					{"enrollmentId": b.submitBody["enrollmentId"], "position": "Data Analyst", "duration": "3 month"},
				},
			}
		}
	case strings.HasPrefix(r.URL.Path, "/get-student/"):
		_ = json.NewEncoder(w).Encode(b.studentBody)
	case r.Method == http.MethodPost && r.URL.Path == "/create-order":
		b.createOrderCalls++
		if b.orderStatus != http.StatusOK {
			w.WriteHeader(b.orderStatus)
			return
		}
		_ = json.NewEncoder(w).Encode(b.orderBody)
	case r.Method == http.MethodPost && r.URL.Path == "/verify":
		_ = json.NewEncoder(w).Encode(b.verifyBody)
	default:
		http.NotFound(w, r)
	}
}

type fixture struct {
	backend   *fakeBackend
	sessions  *session.MemoryStore
	cookies   *session.CookieManager
	payments  *payment.Service
	auth      *AuthHandler
	page      *PageHandler
	screening *ScreeningHandler
	payment   *PaymentHandler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fake := newFakeBackend()
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	client := backend.NewClient(server.URL, server.Client())
	sessions := session.NewMemoryStore(time.Hour)
	cookies := session.NewCookieManager("test-secret", time.Hour, false)
	enrollments := enrollment.NewService(client, nil)
	screenings := screening.NewService(client, nil)
	payments := payment.NewService(client, nil)

	v, err := views.New()
	if err != nil {
		t.Fatalf("parse templates: %v", err)
	}

	return &fixture{
		backend:   fake,
		sessions:  sessions,
		cookies:   cookies,
		payments:  payments,
		auth:      NewAuthHandler(sessions, cookies, client, v, "client-id", time.Second, nil),
		page:      NewPageHandler(sessions, cookies, enrollments, v, nil),
		screening: NewScreeningHandler(sessions, cookies, screenings, enrollments, v, 5<<20, nil),
		payment:   NewPaymentHandler(sessions, cookies, payments, enrollments, v, "rzp_test", 1500*time.Millisecond, nil),
	}
}

// signIn seeds a session and returns the cookie a signed-in browser holds.
func (f *fixture) signIn(t *testing.T, name, email string) *http.Cookie {
	t.Helper()
	recorder := httptest.NewRecorder()
	id := f.cookies.Issue(recorder)
	if err := f.sessions.Put(context.Background(), id, session.Data{Name: name, Email: email}); err != nil {
		t.Fatalf("seed session: %v", err)
	}
	return recorder.Result().Cookies()[0]
}

func credential(t *testing.T, name, email string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"name": name, "email": email}).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign credential: %v", err)
	}
	return signed
}

func postForm(path string, form url.Values, cookie *http.Cookie) *http.Request {
	request := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		request.AddCookie(cookie)
	}
	return request
}

func TestGoogleCallback_Success(t *testing.T) {
	f := newFixture(t)
	form := url.Values{"credential": {credential(t, "Asha Rao", "asha@example.com")}}
	recorder := httptest.NewRecorder()
	f.auth.GoogleCallback(recorder, postForm("/auth/google", form, nil))

	if recorder.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", recorder.Code)
	}
	if location := recorder.Header().Get("Location"); location != "/home" {
		t.Fatalf("expected redirect to /home, got %q", location)
	}
	if f.backend.logCalls != 1 {
		t.Fatalf("expected one login notify, got %d", f.backend.logCalls)
	}

	cookies := recorder.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatalf("expected session cookie to be issued")
	}
	id, _, _ := strings.Cut(cookies[0].Value, ".")
	data, ok, err := f.sessions.Get(context.Background(), id)
	if err != nil || !ok {
		t.Fatalf("expected session to exist, ok=%v err=%v", ok, err)
	}
	if data.Name != "Asha Rao" || data.Email != "asha@example.com" {
		t.Fatalf("unexpected session data: %+v", data)
	}
}

func TestGoogleCallback_BadCredential(t *testing.T) {
	f := newFixture(t)
	recorder := httptest.NewRecorder()
	f.auth.GoogleCallback(recorder, postForm("/auth/google", url.Values{"credential": {"garbage"}}, nil))
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", recorder.Code)
	}
	if f.backend.logCalls != 0 {
		t.Fatalf("expected no login notify, got %d", f.backend.logCalls)
	}
}

func TestGoogleCallback_NotifyFailureBlocksLogin(t *testing.T) {
	f := newFixture(t)
	f.backend.logStatus = http.StatusInternalServerError
	form := url.Values{"credential": {credential(t, "Asha Rao", "asha@example.com")}}
	recorder := httptest.NewRecorder()
	f.auth.GoogleCallback(recorder, postForm("/auth/google", form, nil))

	if recorder.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", recorder.Code)
	}
	cookies := recorder.Result().Cookies()
	cleared := false
	for _, cookie := range cookies {
		if cookie.MaxAge < 0 {
			cleared = true
		}
		if cookie.Value != "" {
			id, _, _ := strings.Cut(cookie.Value, ".")
			if _, ok, _ := f.sessions.Get(context.Background(), id); ok {
				t.Fatalf("expected session to be rolled back")
			}
		}
	}
	if !cleared {
		t.Fatalf("expected session cookie to be cleared")
	}
}

func TestLogout_ClearsSession(t *testing.T) {
	f := newFixture(t)
	cookie := f.signIn(t, "Asha Rao", "asha@example.com")
	recorder := httptest.NewRecorder()
	f.auth.Logout(recorder, postForm("/logout", url.Values{}, cookie))

	if recorder.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", recorder.Code)
	}
	if location := recorder.Header().Get("Location"); location != "/" {
		t.Fatalf("expected redirect to /, got %q", location)
	}
	id, _, _ := strings.Cut(cookie.Value, ".")
	if _, ok, _ := f.sessions.Get(context.Background(), id); ok {
		t.Fatalf("expected session to be deleted")
	}
}

func TestHome_RequiresIdentity(t *testing.T) {
	f := newFixture(t)
	recorder := httptest.NewRecorder()
	f.page.Home(recorder, httptest.NewRequest(http.MethodGet, "/home", nil))
	if recorder.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", recorder.Code)
	}
	if location := recorder.Header().Get("Location"); location != "/" {
		t.Fatalf("expected redirect to /, got %q", location)
	}
}

func TestHome_QueryParamsSeedSession(t *testing.T) {
	f := newFixture(t)
	recorder := httptest.NewRecorder()
	f.page.Home(recorder, httptest.NewRequest(http.MethodGet, "/home?name=Asha+Rao&email=asha%40example.com", nil))
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	cookies := recorder.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatalf("expected session cookie to be issued")
	}
	id, _, _ := strings.Cut(cookies[0].Value, ".")
	data, ok, _ := f.sessions.Get(context.Background(), id)
	if !ok || data.Email != "asha@example.com" {
		t.Fatalf("expected session to be persisted, got ok=%v data=%+v", ok, data)
	}
	body := recorder.Body.String()
	if !strings.Contains(body, "Asha Rao") {
		t.Fatalf("expected greeting in body")
	}
	if strings.Contains(body, "My Purchase History") {
		t.Fatalf("expected purchase history to be hidden for empty list")
	}
}

func TestHome_RendersEnrollmentHistory(t *testing.T) {
	f := newFixture(t)
	f.backend.enrollmentBody = map[string]any{
		"status": "enrolled",
		"data": []map[string]any{
			{"enrollmentId": "ENR-1", "position": "Data Analyst", "duration": "3 month"},
		},
	}
	cookie := f.signIn(t, "Asha Rao", "asha@example.com")
	request := httptest.NewRequest(http.MethodGet, "/home", nil)
	request.AddCookie(cookie)
	recorder := httptest.NewRecorder()
	f.page.Home(recorder, request)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), "ENR-1") {
		t.Fatalf("expected enrollment record in body")
	}
}

func multipartForm(t *testing.T, fields map[string]string, resumeName string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if resumeName != "" {
		part, err := writer.CreateFormFile("resume", resumeName)
		if err != nil {
			t.Fatalf("create resume part: %v", err)
		}
		if _, err := io.WriteString(part, "pdf bytes"); err != nil {
			t.Fatalf("write resume: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, writer.FormDataContentType()
}

func screeningFields() map[string]string {
	return map[string]string{
		"name":     "Asha Rao",
		"email":    "asha@example.com",
		"phone":    "9876543210",
		"position": "Data Analyst",
		"duration": "3 month",
	}
}

func (f *fixture) submitScreening(t *testing.T, fields map[string]string, resumeName string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartForm(t, fields, resumeName)
	request := httptest.NewRequest(http.MethodPost, "/screening", body)
	request.Header.Set("Content-Type", contentType)
	if cookie != nil {
		request.AddCookie(cookie)
	}
	recorder := httptest.NewRecorder()
	f.screening.Submit(recorder, request)
	return recorder
}

func TestScreeningSubmit_RequiresIdentity(t *testing.T) {
	f := newFixture(t)
	recorder := f.submitScreening(t, screeningFields(), "resume.pdf", nil)
	if recorder.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", recorder.Code)
	}
}

func TestScreeningSubmit_Accepted(t *testing.T) {
	f := newFixture(t)
	cookie := f.signIn(t, "Asha Rao", "asha@example.com")
	recorder := f.submitScreening(t, screeningFields(), "resume.pdf", cookie)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	body := recorder.Body.String()
	if !strings.Contains(body, "ENR-42") {
		t.Fatalf("expected enrollment id in success message")
	}
	// The submission list is re-read after the accepted submit and now
	// carries the new record alongside the success message.
	if !strings.Contains(body, "Your Previous Submissions") {
		t.Fatalf("expected re-fetched submission list to render")
	}
	if strings.Count(body, "ENR-42") < 2 {
		t.Fatalf("expected enrollment id in both message and submission list")
	}
}

func TestScreeningSubmit_InvalidPhone(t *testing.T) {
	f := newFixture(t)
	cookie := f.signIn(t, "Asha Rao", "asha@example.com")
	fields := screeningFields()
	fields["phone"] = "12345"
	recorder := f.submitScreening(t, fields, "resume.pdf", cookie)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", recorder.Code)
	}
	body := recorder.Body.String()
	if !strings.Contains(body, "phone must be exactly 10 digits") {
		t.Fatalf("expected phone error in body")
	}
	// Entered values survive the round trip.
	if !strings.Contains(body, "12345") {
		t.Fatalf("expected entered phone to be retained")
	}
}

func TestScreeningSubmit_Duplicate(t *testing.T) {
	f := newFixture(t)
	f.backend.submitBody = map[string]any{"status": "duplicate"}
	cookie := f.signIn(t, "Asha Rao", "asha@example.com")
	recorder := f.submitScreening(t, screeningFields(), "resume.pdf", cookie)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), "already submitted") {
		t.Fatalf("expected duplicate warning in body")
	}
}

func (f *fixture) lookup(t *testing.T, enrollmentID string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	recorder := httptest.NewRecorder()
	f.payment.Lookup(recorder, postForm("/payment/lookup", url.Values{"enrollment_id": {enrollmentID}}, cookie))
	return recorder
}

func TestPaymentLookup_ApprovedShowsPayPanel(t *testing.T) {
	f := newFixture(t)
	cookie := f.signIn(t, "Asha Rao", "asha@example.com")
	recorder := f.lookup(t, "ENR-1", cookie)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	body := recorder.Body.String()
	if !strings.Contains(body, "Pay Now") {
		t.Fatalf("expected pay panel in body")
	}
	if !strings.Contains(body, "1500") {
		t.Fatalf("expected fee in body")
	}
}

func TestPaymentLookup_NotApproved(t *testing.T) {
	f := newFixture(t)
	f.backend.studentBody = map[string]any{"status": "not_approved"}
	cookie := f.signIn(t, "Asha Rao", "asha@example.com")
	recorder := f.lookup(t, "ENR-1", cookie)
	if !strings.Contains(recorder.Body.String(), "Not yet approved by HR.") {
		t.Fatalf("expected not approved message")
	}
}

func TestPaymentLookup_NotFound(t *testing.T) {
	f := newFixture(t)
	f.backend.studentBody = map[string]any{"status": "not_found"}
	cookie := f.signIn(t, "Asha Rao", "asha@example.com")
	recorder := f.lookup(t, "missing", cookie)
	if !strings.Contains(recorder.Body.String(), "Invalid Enrollment ID.") {
		t.Fatalf("expected invalid id message")
	}
}

func TestPaymentLookup_EmptyID(t *testing.T) {
	f := newFixture(t)
	cookie := f.signIn(t, "Asha Rao", "asha@example.com")
	recorder := f.lookup(t, "", cookie)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), "Enter an enrollment ID first.") {
		t.Fatalf("expected prompt message")
	}
}

func TestPaymentLookup_AlreadyPaidSkipsOrder(t *testing.T) {
	f := newFixture(t)
	f.backend.enrollmentBody = map[string]any{
		"status": "enrolled",
		"data":   []map[string]any{{"enrollmentId": "ENR-1"}},
	}
	cookie := f.signIn(t, "Asha Rao", "asha@example.com")
	recorder := f.lookup(t, "ENR-1", cookie)
	if !strings.Contains(recorder.Body.String(), "Payment already completed") {
		t.Fatalf("expected already paid panel")
	}
	if f.backend.createOrderCalls != 0 {
		t.Fatalf("expected no order creation, got %d", f.backend.createOrderCalls)
	}
}

func TestPaymentFlow_EndToEnd(t *testing.T) {
	f := newFixture(t)
	cookie := f.signIn(t, "Asha Rao", "asha@example.com")
	attempt := startAttempt(t, f, "asha@example.com")

	recorder := httptest.NewRecorder()
	f.payment.Order(recorder, postForm("/payment/order", url.Values{"attempt_id": {attempt.ID}}, cookie))
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), "order_123") {
		t.Fatalf("expected order id on checkout page")
	}

	recorder = httptest.NewRecorder()
	form := url.Values{
		"attempt_id":          {attempt.ID},
		"razorpay_payment_id": {"pay_9"},
		"razorpay_signature":  {"sig"},
	}
	f.payment.Verify(recorder, postForm("/payment/verify", form, cookie))
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), "Payment Successful!") {
		t.Fatalf("expected success page")
	}

	id, _, _ := strings.Cut(cookie.Value, ".")
	data, ok, _ := f.sessions.Get(context.Background(), id)
	if !ok || data.Name != "Asha Rao" || data.Email != "asha@example.com" {
		t.Fatalf("expected identity to persist after verification, got ok=%v data=%+v", ok, data)
	}
}

func TestPaymentOrder_FailureStaysOnFoundPanel(t *testing.T) {
	f := newFixture(t)
	f.backend.orderStatus = http.StatusBadGateway
	cookie := f.signIn(t, "Asha Rao", "asha@example.com")
	attempt := startAttempt(t, f, "asha@example.com")

	recorder := httptest.NewRecorder()
	f.payment.Order(recorder, postForm("/payment/order", url.Values{"attempt_id": {attempt.ID}}, cookie))
	if recorder.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", recorder.Code)
	}
	body := recorder.Body.String()
	if !strings.Contains(body, "Payment initiation failed.") {
		t.Fatalf("expected failure notice")
	}
	if !strings.Contains(body, "Pay Now") {
		t.Fatalf("expected attempt to stay retryable")
	}
}

func TestPaymentVerify_RejectedShowsFailure(t *testing.T) {
	f := newFixture(t)
	f.backend.verifyBody = map[string]any{"status": "failed"}
	cookie := f.signIn(t, "Asha Rao", "asha@example.com")
	attempt := startAttempt(t, f, "asha@example.com")

	recorder := httptest.NewRecorder()
	f.payment.Order(recorder, postForm("/payment/order", url.Values{"attempt_id": {attempt.ID}}, cookie))

	recorder = httptest.NewRecorder()
	form := url.Values{
		"attempt_id":          {attempt.ID},
		"razorpay_payment_id": {"pay_9"},
		"razorpay_signature":  {"sig"},
	}
	f.payment.Verify(recorder, postForm("/payment/verify", form, cookie))
	if !strings.Contains(recorder.Body.String(), "Payment verification failed.") {
		t.Fatalf("expected failure page")
	}
}

func TestPaymentOrder_DoubleSubmit(t *testing.T) {
	f := newFixture(t)
	cookie := f.signIn(t, "Asha Rao", "asha@example.com")
	attempt := startAttempt(t, f, "asha@example.com")

	recorder := httptest.NewRecorder()
	f.payment.Order(recorder, postForm("/payment/order", url.Values{"attempt_id": {attempt.ID}}, cookie))
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}

	recorder = httptest.NewRecorder()
	f.payment.Order(recorder, postForm("/payment/order", url.Values{"attempt_id": {attempt.ID}}, cookie))
	if recorder.Code != http.StatusConflict {
		t.Fatalf("expected 409 on double submit, got %d", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), "Payment already in progress.") {
		t.Fatalf("expected in-progress notice on double submit")
	}
	if f.backend.createOrderCalls != 1 {
		t.Fatalf("expected a single order creation, got %d", f.backend.createOrderCalls)
	}
}

func TestPaymentOrder_RejectsForeignAttempt(t *testing.T) {
	f := newFixture(t)
	f.signIn(t, "Asha Rao", "asha@example.com")
	attempt := startAttempt(t, f, "asha@example.com")

	other := f.signIn(t, "Ravi Kumar", "ravi@example.com")
	recorder := httptest.NewRecorder()
	f.payment.Order(recorder, postForm("/payment/order", url.Values{"attempt_id": {attempt.ID}}, other))
	if recorder.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", recorder.Code)
	}
	if f.backend.createOrderCalls != 0 {
		t.Fatalf("expected no order creation for foreign attempt, got %d", f.backend.createOrderCalls)
	}
}

// startAttempt runs the lookup the pay panel form would have carried and
// returns the live attempt.
func startAttempt(t *testing.T, f *fixture, email string) *payment.Attempt {
	t.Helper()
	attempt, err := f.payments.Lookup(context.Background(), email, "ENR-1")
	if err != nil {
		t.Fatalf("lookup attempt: %v", err)
	}
	return attempt
}
