package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRootCmd builds a root command with memory backends and logs
// discarded. Environment overrides are cleared so the host cannot leak in.
func newTestRootCmd(t *testing.T, args ...string) (*cobra.Command, *bytes.Buffer) {
	t.Helper()
	for _, key := range []string{
		"CAMPUSID_PROFILE_BACKEND", "CAMPUSID_CREDENTIAL_BACKEND", "CAMPUSID_AUDIT_BACKEND",
		"CAMPUSID_DATABASE_URL", "CAMPUSID_REDIS_URL", "CAMPUSID_KAFKA_BROKERS", "CAMPUSID_REGULATED_MODE",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("CAMPUSID_BCRYPT_COST", "4")

	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	return root, &out
}

func TestRegisterStudentPrintsOutcome(t *testing.T) {
	root, out := newTestRootCmd(t, "register", "student",
		"--email", "ada@example.com",
		"--password", "secret1",
		"--full-name", "Ada Lovelace",
		"--roll-number", "R-1",
		"--course", "MCA",
	)
	require.NoError(t, root.Execute())

	var got outcomeOutput
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "/student/login", got.Redirect)
	assert.NotEmpty(t, got.UID)
}

func TestRegisterStudentRejectsUnknownCourse(t *testing.T) {
	root, out := newTestRootCmd(t, "register", "student",
		"--email", "ada@example.com",
		"--password", "secret1",
		"--full-name", "Ada Lovelace",
		"--roll-number", "R-1",
		"--course", "Physics",
	)
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "course must be one of MCA, MBA, MA, MCom, MSc")
	assert.Empty(t, out.String())
}

func TestRegisterStudentTrimsCourse(t *testing.T) {
	root, out := newTestRootCmd(t, "register", "student",
		"--email", "ada@example.com",
		"--password", "secret1",
		"--full-name", "Ada Lovelace",
		"--roll-number", " R-1 ",
		"--course", " MCA ",
	)
	require.NoError(t, root.Execute())

	var got outcomeOutput
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "/student/login", got.Redirect)
}

func TestRegisterAdminWithWrongCodeFails(t *testing.T) {
	root, out := newTestRootCmd(t, "register", "admin",
		"--admin-code", "wrong",
		"--email", "dean@example.com",
		"--password", "secret1",
		"--full-name", "Dean",
	)
	err := root.Execute()
	require.Error(t, err)

	var got failureOutput
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "InvalidAdminCode", got.Kind)
	assert.Equal(t, "forbidden", got.Code)
	assert.Equal(t, got.Message, err.Error())
}

func TestRegisterStudentPasswordMismatch(t *testing.T) {
	root, out := newTestRootCmd(t, "register", "student",
		"--email", "ada@example.com",
		"--password", "secret1",
		"--confirm-password", "secret2",
		"--full-name", "Ada Lovelace",
		"--roll-number", "R-1",
		"--course", "MCA",
	)
	require.Error(t, root.Execute())
	assert.Contains(t, out.String(), "PasswordMismatch")
}

func TestLoginRejectsUnknownActor(t *testing.T) {
	root, _ := newTestRootCmd(t, "login", "guest", "--email", "a@b.com", "--password", "x")
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown account type")
}

func TestLoginUnknownUserIsClassified(t *testing.T) {
	root, out := newTestRootCmd(t, "login", "student", "--email", "nobody@example.com", "--password", "secret1")
	require.Error(t, root.Execute())

	var got failureOutput
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "Unknown", got.Kind)
	assert.Equal(t, "unauthorized", got.Code)
}

func TestReconcileOnEmptyStore(t *testing.T) {
	root, out := newTestRootCmd(t, "reconcile")
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), `"scanned": 0`)
}

func TestMigrateRequiresDatabase(t *testing.T) {
	root, _ := newTestRootCmd(t, "migrate", "status")
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database_url")
}

func TestInvalidBackendFailsConfig(t *testing.T) {
	root, _ := newTestRootCmd(t, "--profile-backend", "cassandra", "reconcile")
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "profile_backend")
}
