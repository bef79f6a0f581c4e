package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"vibequiz/internal/domain"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a backend client. A nil httpClient gets one with the given timeout.
func NewClient(baseURL string, httpClient *http.Client, timeout time.Duration) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = "http://localhost:5000"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{baseURL: baseURL, httpClient: httpClient}
}

type walletRequest struct {
	WalletAddress string `json:"walletAddress"`
}

type joinRequest struct {
	WalletAddress   string `json:"walletAddress"`
	ParticipantName string `json:"participantName"`
}

type submitRequest struct {
	QuizID        string            `json:"quizId"`
	WalletAddress string            `json:"walletAddress"`
	Answers       map[string]string `json:"answers"`
}

type createResponse struct {
	QuizID string `json:"quizId"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Verify fetches the quiz record as seen by the given wallet.
func (c *Client) Verify(ctx context.Context, quizID, walletAddress string) (domain.Quiz, error) {
	var quiz domain.Quiz
	err := c.doJSON(ctx, http.MethodPost, "/api/quiz/verify/"+url.PathEscape(quizID), walletRequest{WalletAddress: walletAddress}, &quiz)
	if err != nil {
		return domain.Quiz{}, err
	}
	return quiz, nil
}

// CreateFromPDF uploads the PDF and metadata; the backend answers with the canonical quiz id.
func (c *Client) CreateFromPDF(ctx context.Context, req domain.QuizUpload) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	fields := []struct{ name, value string }{
		{"creatorName", req.CreatorName},
		{"creatorWallet", req.CreatorWallet},
		{"numParticipants", fmt.Sprint(req.NumParticipants)},
	}
	for _, f := range fields {
		if err := writer.WriteField(f.name, f.value); err != nil {
			return "", fmt.Errorf("write %s field: %w", f.name, err)
		}
	}

	part, err := writer.CreateFormFile("pdf", req.PDFName)
	if err != nil {
		return "", fmt.Errorf("create pdf part: %w", err)
	}
	if _, err := part.Write(req.PDF); err != nil {
		return "", fmt.Errorf("write pdf part: %w", err)
	}

	fields = []struct{ name, value string }{
		{"questionCount", fmt.Sprint(req.QuestionCount)},
		{"rewardPerScore", req.RewardPerScore},
		{"totalCost", req.TotalCost},
	}
	for _, f := range fields {
		if err := writer.WriteField(f.name, f.value); err != nil {
			return "", fmt.Errorf("write %s field: %w", f.name, err)
		}
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close multipart form: %w", err)
	}

	var payload createResponse
	if err := c.do(ctx, http.MethodPost, "/api/quiz/create/pdf", writer.FormDataContentType(), &buf, &payload); err != nil {
		return "", err
	}
	if payload.QuizID == "" {
		return "", errors.New("backend returned no quiz id")
	}
	return payload.QuizID, nil
}

// Update sets the public/finished flags of a quiz.
func (c *Client) Update(ctx context.Context, quizID string, flags domain.QuizFlags) error {
	return c.doJSON(ctx, http.MethodPut, "/api/quiz/update/"+url.PathEscape(quizID), flags, nil)
}

// Leaderboard fetches the participant list of a quiz.
func (c *Client) Leaderboard(ctx context.Context, quizID string) (domain.Leaderboard, error) {
	var board domain.Leaderboard
	if err := c.doJSON(ctx, http.MethodGet, "/api/quiz/leaderboards/"+url.PathEscape(quizID), nil, &board); err != nil {
		return domain.Leaderboard{}, err
	}
	board.QuizID = quizID
	if board.Participants == nil {
		board.Participants = []domain.Participant{}
	}
	board.FetchedAt = time.Now()
	return board, nil
}

// Join registers a participant name for the wallet.
func (c *Client) Join(ctx context.Context, quizID, walletAddress, participantName string) error {
	return c.doJSON(ctx, http.MethodPost, "/api/quiz/join/"+url.PathEscape(quizID), joinRequest{
		WalletAddress:   walletAddress,
		ParticipantName: participantName,
	}, nil)
}

// Submit posts all answers and returns the backend's score.
func (c *Client) Submit(ctx context.Context, quizID, walletAddress string, answers map[string]string) (domain.SubmitResult, error) {
	var result domain.SubmitResult
	err := c.doJSON(ctx, http.MethodPost, "/api/quiz/submit", submitRequest{
		QuizID:        quizID,
		WalletAddress: walletAddress,
		Answers:       answers,
	}, &result)
	if err != nil {
		return domain.SubmitResult{}, err
	}
	if result.QuizID == "" {
		result.QuizID = quizID
	}
	return result, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, requestBody any, responseBody any) error {
	var body io.Reader
	contentType := ""
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return err
		}
		body = bytes.NewReader(encoded)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, contentType, body, responseBody)
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, responseBody any) error {
	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		request.Header.Set("Content-Type", contentType)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrServiceUnavailable, err)
	}
	defer response.Body.Close()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		apiErr := domain.APIError{StatusCode: response.StatusCode}
		var payload errorResponse
		if err := json.NewDecoder(response.Body).Decode(&payload); err == nil {
			switch {
			case strings.TrimSpace(payload.Error) != "":
				apiErr.Message = payload.Error
			case strings.TrimSpace(payload.Message) != "":
				apiErr.Message = payload.Message
			}
		}
		return &apiErr
	}

	if responseBody == nil {
		return nil
	}
	return json.NewDecoder(response.Body).Decode(responseBody)
}
