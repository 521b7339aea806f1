package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCommand executes the CLI against the given host and returns stdout.
func runCommand(t *testing.T, host string, args ...string) (string, error) {
	t.Helper()

	rootCmd := newRootCmd()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(append(args, "--host", host))

	err := rootCmd.Execute()
	return out.String(), err
}

func newStubServer(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.Method+" "+r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"success":false,"error":"not found"}`))
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestUsersList_Table(t *testing.T) {
	srv := newStubServer(t, map[string]string{
		"GET /api/users": `{"success":true,"data":[
			{"id":"u1","name":"Alice Johnson","email":"alice@example.com","role":"employee"},
			{"id":"a1","name":"Erin Walsh","email":"erin@example.com","role":"admin"}
		]}`,
	})

	out, err := runCommand(t, srv.URL, "users", "list")
	require.NoError(t, err)

	assert.Contains(t, out, "Alice Johnson")
	assert.Contains(t, out, "admin")
	assert.Contains(t, out, "ROLE")
}

func TestUsersShow_JSON(t *testing.T) {
	srv := newStubServer(t, map[string]string{
		"GET /api/users/u1": `{"success":true,"data":{"id":"u1","name":"Alice Johnson","email":"alice@example.com","role":"employee"}}`,
	})

	out, err := runCommand(t, srv.URL, "users", "show", "u1", "-o", "json")
	require.NoError(t, err)

	var user User
	require.NoError(t, json.Unmarshal([]byte(out), &user))
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, "employee", user.Role)
}

func TestUsersSetRole(t *testing.T) {
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/api/users/u2/role", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"success":true,"data":{"id":"u2","name":"Bob Martinez","role":"manager"}}`))
	}))
	t.Cleanup(srv.Close)

	out, err := runCommand(t, srv.URL, "users", "set-role", "u2", "manager", "--admin", "a1")
	require.NoError(t, err)

	assert.Equal(t, "manager", gotBody["role"])
	assert.Equal(t, "a1", gotBody["adminId"])
	assert.Contains(t, out, "u2 is now manager")
}

func TestUsersSetRole_RequiresAdminFlag(t *testing.T) {
	_, err := runCommand(t, "http://localhost:8080", "users", "set-role", "u2", "manager")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "admin")
}

func TestExpensesList_QueryParams(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"success":true,"data":[]}`))
	}))
	t.Cleanup(srv.Close)

	_, err := runCommand(t, srv.URL, "expenses", "list", "--user", "u1")
	require.NoError(t, err)
	assert.Equal(t, "userId=u1", gotQuery)
}

func TestExpensesSubmit(t *testing.T) {
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/expenses", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"success":true,"data":{"id":"exp-123","status":"pending"}}`))
	}))
	t.Cleanup(srv.Close)

	out, err := runCommand(t, srv.URL, "expenses", "submit",
		"--user", "u1",
		"--merchant", "Cloud Cafe",
		"--amount", "12.50",
		"--category", "meals",
		"--date", "2026-08-30",
	)
	require.NoError(t, err)

	assert.Equal(t, "u1", gotBody["userId"])
	assert.Equal(t, "Cloud Cafe", gotBody["merchant"])
	assert.Equal(t, 12.5, gotBody["amount"])
	assert.Contains(t, out, "Submitted exp-123")
}

func TestExpensesSubmit_InvalidDate(t *testing.T) {
	_, err := runCommand(t, "http://localhost:8080", "expenses", "submit",
		"--user", "u1", "--merchant", "m", "--amount", "1", "--category", "c",
		"--date", "30-08-2026",
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "YYYY-MM-DD")
}

func TestExpensesApprove(t *testing.T) {
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/expenses/exp-1/approve", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"success":true,"data":{"id":"exp-1","status":"approved"}}`))
	}))
	t.Cleanup(srv.Close)

	out, err := runCommand(t, srv.URL, "expenses", "approve", "exp-1", "--approver", "m1", "--notes", "ok")
	require.NoError(t, err)

	assert.Equal(t, "m1", gotBody["approverId"])
	assert.Equal(t, "ok", gotBody["notes"])
	assert.Contains(t, out, "exp-1 is now approved")
}

func TestExpensesDelete(t *testing.T) {
	srv := newStubServer(t, map[string]string{
		"DELETE /api/expenses/exp-1": `{"success":true,"data":{"id":"exp-1"}}`,
	})

	out, err := runCommand(t, srv.URL, "expenses", "delete", "exp-1", "--user", "u1")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted exp-1")
}

func TestExpensesShow_APIError(t *testing.T) {
	srv := newStubServer(t, map[string]string{})

	_, err := runCommand(t, srv.URL, "expenses", "show", "missing")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.HTTPStatus)
}

func TestRoot_RejectsBadOutputFormat(t *testing.T) {
	_, err := runCommand(t, "http://localhost:8080", "users", "list", "-o", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}

func TestRoot_RejectsBadHost(t *testing.T) {
	_, err := runCommand(t, "ftp://example.com", "users", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scheme must be http or https")
}

func TestCommandsCmd_ListsLeafCommands(t *testing.T) {
	out, err := runCommand(t, "http://localhost:8080", "commands")
	require.NoError(t, err)

	assert.Contains(t, out, "users set-role")
	assert.Contains(t, out, "expenses approve")
	assert.Contains(t, out, "expenses submit")
}

func TestCommandsCmd_Filter(t *testing.T) {
	out, err := runCommand(t, "http://localhost:8080", "commands", "--filter", "approve")
	require.NoError(t, err)

	assert.Contains(t, out, "expenses approve")
	assert.NotContains(t, out, "users list")
}

func TestCommandsCmd_JSONIncludesRequiredFlags(t *testing.T) {
	out, err := runCommand(t, "http://localhost:8080", "commands", "-o", "json")
	require.NoError(t, err)

	var entries []CommandEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))

	var setRole *CommandEntry
	for i := range entries {
		if entries[i].Path == "users set-role" {
			setRole = &entries[i]
		}
	}
	require.NotNil(t, setRole)

	var adminFlag *FlagEntry
	for i := range setRole.Flags {
		if setRole.Flags[i].Name == "admin" {
			adminFlag = &setRole.Flags[i]
		}
	}
	require.NotNil(t, adminFlag)
	assert.True(t, adminFlag.Required)
}

func TestVersionCmd(t *testing.T) {
	out, err := runCommand(t, "http://localhost:8080", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "expensehub")
}
