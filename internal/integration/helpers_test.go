//go:build integration_test || all_tests

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/require"

	"github.com/2beens/gymbuddy/internal/history"
	"github.com/2beens/gymbuddy/internal/users"
	"github.com/2beens/gymbuddy/internal/workouts"
)

const testPassword = "secret-pass"

func (s *IntegrationTestSuite) doRequest(
	ctx context.Context,
	method, path, token string,
	body any,
) (int, []byte) {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(s.T(), err)
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, serverEndpoint+path, reqBody)
	require.NoError(s.T(), err)
	req.Header.Set("User-Agent", "test-agent")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.httpClient.Do(req)
	require.NoError(s.T(), err)
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(s.T(), err)
	return resp.StatusCode, respBytes
}

func (s *IntegrationTestSuite) doJSON(
	ctx context.Context,
	method, path, token string,
	body any,
	expectedStatus int,
	out any,
) {
	status, respBytes := s.doRequest(ctx, method, path, token, body)
	require.Equal(s.T(), expectedStatus, status, "%s %s: %s", method, path, respBytes)
	if out != nil {
		require.NoError(s.T(), json.Unmarshal(respBytes, out))
	}
}

func (s *IntegrationTestSuite) registerUser(ctx context.Context) users.LoginResponse {
	var resp users.LoginResponse
	s.doJSON(ctx, http.MethodPost, "/api/auth/register", "", users.RegisterRequest{
		Name:     gofakeit.Name(),
		Email:    gofakeit.Email(),
		Password: testPassword,
	}, http.StatusCreated, &resp)
	require.NotEmpty(s.T(), resp.Token)
	require.NotNil(s.T(), resp.User)
	return resp
}

func (s *IntegrationTestSuite) addTemplate(ctx context.Context, token string, template workouts.Template) workouts.Template {
	var added workouts.Template
	s.doJSON(ctx, http.MethodPost, "/api/templates", token, template, http.StatusCreated, &added)
	require.NotZero(s.T(), added.ID)
	return added
}

func (s *IntegrationTestSuite) addRecord(ctx context.Context, token string, req history.AddRecordRequest) history.Record {
	var added history.Record
	s.doJSON(ctx, http.MethodPost, "/api/history", token, req, http.StatusCreated, &added)
	require.NotZero(s.T(), added.ID)
	return added
}

func (s *IntegrationTestSuite) countRows(table string, userID int) int {
	var count int
	err := s.DB.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE user_id = $1", table), userID).Scan(&count)
	require.NoError(s.T(), err)
	return count
}

func ptr[T any](v T) *T {
	return &v
}
