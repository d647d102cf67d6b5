package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/AgentPisite999/Car-Site/internal/common"
)

// Client talks to the remote AgentPi enrollment backend. Every outcome the
// backend reports through its "status" field is mapped to a closed variant
// here; callers never see the raw strings.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: trimmed, httpClient: httpClient}
}

type logRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type enrollmentResponse struct {
	Status string             `json:"status"`
	Data   []EnrollmentRecord `json:"data"`
}

type screeningListResponse struct {
	Status string            `json:"status"`
	Data   []ScreeningRecord `json:"data"`
}

type submitResponse struct {
	Status       string `json:"status"`
	EnrollmentID string `json:"enrollmentId"`
}

type studentResponse struct {
	Status string  `json:"status"`
	Data   Student `json:"data"`
}

type orderResponse struct {
	ID     string `json:"id"`
	Amount int64  `json:"amount"`
}

type verifyResponse struct {
	Status string `json:"status"`
}

type verifyRequest struct {
	Student
	EnrollmentID string `json:"enrollmentId"`
	OrderID      string `json:"order_id"`
	PaymentID    string `json:"payment_id"`
	Signature    string `json:"signature"`
	UserEmail    string `json:"userEmail"`
}

// ScreeningSubmission is the multipart payload for /screening.
type ScreeningSubmission struct {
	Name       string
	Email      string
	Phone      string
	Position   string
	Duration   string
	UserEmail  string
	ResumeName string
	Resume     io.Reader
}

func (c *Client) NotifyLogin(ctx context.Context, name, email string) error {
	body, err := json.Marshal(logRequest{Name: name, Email: email})
	if err != nil {
		return fmt.Errorf("encode log request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/log", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create log request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send log request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return common.NewError(common.CodeUnavailable, fmt.Sprintf("login notify returned %d", resp.StatusCode), nil)
	}
	return nil
}

func (c *Client) CheckEnrollment(ctx context.Context, email string) (EnrollmentList, error) {
	payload, err := c.get(ctx, "/check-enrollment/"+url.PathEscape(email))
	if err != nil {
		return EnrollmentList{}, err
	}
	var parsed enrollmentResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return EnrollmentList{}, fmt.Errorf("decode enrollment response: %w", err)
	}
	if parsed.Status != "enrolled" {
		return EnrollmentList{}, nil
	}
	return EnrollmentList{Enrolled: true, Records: parsed.Data}, nil
}

func (c *Client) AllScreenings(ctx context.Context, email string) (ScreeningList, error) {
	payload, err := c.get(ctx, "/all-screenings/"+url.PathEscape(email))
	if err != nil {
		return ScreeningList{}, err
	}
	var parsed screeningListResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return ScreeningList{}, fmt.Errorf("decode screening list: %w", err)
	}
	if parsed.Status != "found" {
		return ScreeningList{}, nil
	}
	return ScreeningList{Found: true, Records: parsed.Data}, nil
}

func (c *Client) SubmitScreening(ctx context.Context, submission ScreeningSubmission) (SubmitResult, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	fields := map[string]string{
		"name":      submission.Name,
		"email":     submission.Email,
		"phone":     submission.Phone,
		"position":  submission.Position,
		"duration":  submission.Duration,
		"userEmail": submission.UserEmail,
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return SubmitResult{}, fmt.Errorf("write field %s: %w", key, err)
		}
	}
	part, err := writer.CreateFormFile("resume", submission.ResumeName)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("create resume part: %w", err)
	}
	if _, err := io.Copy(part, submission.Resume); err != nil {
		return SubmitResult{}, fmt.Errorf("copy resume: %w", err)
	}
	if err := writer.Close(); err != nil {
		return SubmitResult{}, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/screening", &buf)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("create screening request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("send screening request: %w", err)
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("read screening response: %w", err)
	}
	var parsed submitResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return SubmitResult{}, fmt.Errorf("decode screening response: %w", err)
	}
	switch parsed.Status {
	case "success":
		return SubmitResult{Outcome: SubmitAccepted, EnrollmentID: parsed.EnrollmentID}, nil
	case "duplicate":
		return SubmitResult{Outcome: SubmitDuplicate}, nil
	default:
		return SubmitResult{Outcome: SubmitRejected}, nil
	}
}

func (c *Client) GetStudent(ctx context.Context, enrollmentID string) (StudentLookup, error) {
	payload, err := c.get(ctx, "/get-student/"+url.PathEscape(enrollmentID))
	if err != nil {
		return StudentLookup{}, err
	}
	var parsed studentResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return StudentLookup{}, fmt.Errorf("decode student response: %w", err)
	}
	switch parsed.Status {
	case "approved":
		return StudentLookup{Outcome: LookupApproved, Student: parsed.Data}, nil
	case "not_approved":
		return StudentLookup{Outcome: LookupNotApproved}, nil
	default:
		return StudentLookup{Outcome: LookupUnknown}, nil
	}
}

func (c *Client) CreateOrder(ctx context.Context, amount int64) (Order, error) {
	body, err := json.Marshal(map[string]int64{"amount": amount})
	if err != nil {
		return Order{}, fmt.Errorf("encode order request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/create-order", bytes.NewReader(body))
	if err != nil {
		return Order{}, fmt.Errorf("create order request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Order{}, fmt.Errorf("send order request: %w", err)
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return Order{}, fmt.Errorf("read order response: %w", err)
	}
	var parsed orderResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return Order{}, fmt.Errorf("decode order response: %w", err)
	}
	if parsed.ID == "" {
		return Order{}, common.NewError(common.CodeUnavailable, "order id missing", nil)
	}
	return Order{ID: parsed.ID, Amount: parsed.Amount}, nil
}

func (c *Client) VerifyPayment(ctx context.Context, request VerifyRequest) (VerifyOutcome, error) {
	body, err := json.Marshal(verifyRequest{
		Student:      request.Student,
		EnrollmentID: request.EnrollmentID,
		OrderID:      request.OrderID,
		PaymentID:    request.PaymentID,
		Signature:    request.Signature,
		UserEmail:    request.UserEmail,
	})
	if err != nil {
		return VerifyRejected, fmt.Errorf("encode verify request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/verify", bytes.NewReader(body))
	if err != nil {
		return VerifyRejected, fmt.Errorf("create verify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return VerifyRejected, fmt.Errorf("send verify request: %w", err)
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return VerifyRejected, fmt.Errorf("read verify response: %w", err)
	}
	var parsed verifyResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return VerifyRejected, fmt.Errorf("decode verify response: %w", err)
	}
	if parsed.Status == "success" {
		return VerifyAccepted, nil
	}
	return VerifyRejected, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, common.NewError(common.CodeUnavailable, fmt.Sprintf("backend returned %d for %s", resp.StatusCode, path), nil)
	}
	return payload, nil
}
