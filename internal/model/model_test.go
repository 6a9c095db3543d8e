package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProgressPercent(t *testing.T) {
	cases := []struct {
		completed, total, want int
	}{
		{0, 0, 0},
		{2, 5, 40},
		{3, 4, 75},
		{1, 3, 33},
		{2, 3, 67},
		{1, 8, 13},
		{4, 4, 100},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, ProgressPercent(tc.completed, tc.total), "%d/%d", tc.completed, tc.total)
	}
}

func TestProgress_ThreeOfFour(t *testing.T) {
	items := []TimelineItem{
		{Status: TimelineCompleted},
		{Status: TimelineCompleted},
		{Status: TimelineCurrent},
		{Status: TimelineCompleted},
	}
	require.Equal(t, 75, Progress(items))
	require.Equal(t, 0, Progress(nil))
}

func TestID_JSON(t *testing.T) {
	data, err := json.Marshal(struct {
		ID ID `json:"id"`
	}{ID: 12})
	require.NoError(t, err)
	require.JSONEq(t, `{"id":"12"}`, string(data))

	var fromString, fromNumber struct {
		ID ID `json:"id"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"id":"7"}`), &fromString))
	require.NoError(t, json.Unmarshal([]byte(`{"id":7}`), &fromNumber))
	require.Equal(t, ID(7), fromString.ID)
	require.Equal(t, ID(7), fromNumber.ID)

	require.Error(t, json.Unmarshal([]byte(`{"id":"abc"}`), &fromString))
}

func TestParseID(t *testing.T) {
	id, err := ParseID("42")
	require.NoError(t, err)
	require.Equal(t, ID(42), id)

	for _, bad := range []string{"", "0", "-1", "x"} {
		_, err := ParseID(bad)
		require.Error(t, err, bad)
	}
}

func TestParseEnums(t *testing.T) {
	st, err := ParseProjectStatus("In Progress")
	require.NoError(t, err)
	require.Equal(t, StatusInProgress, st)
	_, err = ParseProjectStatus("in progress")
	require.Error(t, err)

	role, err := ParseRole("developer")
	require.NoError(t, err)
	require.Equal(t, RoleDeveloper, role)
	_, err = ParseRole("owner")
	require.Error(t, err)

	var ts TimelineStatus
	require.Error(t, json.Unmarshal([]byte(`"done"`), &ts))
	require.NoError(t, json.Unmarshal([]byte(`"completed"`), &ts))
	require.Equal(t, TimelineCompleted, ts)
}

func TestCountStats(t *testing.T) {
	stats := CountStats([]Project{
		{Status: StatusPending},
		{Status: StatusInProgress},
		{Status: StatusInProgress},
		{Status: StatusCancelled},
	})
	require.Equal(t, ProjectStats{Total: 4, Pending: 1, InProgress: 2, Cancelled: 1}, stats)
}

func TestUser_PasswordHashNotSerialized(t *testing.T) {
	data, err := json.Marshal(User{ID: 1, Email: "a@b.com", PasswordHash: "secret", Role: RoleAdmin})
	require.NoError(t, err)
	require.NotContains(t, string(data), "secret")
}

func TestProject_CloneIsDeep(t *testing.T) {
	desc := "wireframes"
	p := &Project{
		ID:            1,
		Notes:         []Note{{Content: "kickoff"}},
		TimelineItems: []TimelineItem{{Title: "Design", Description: &desc}},
	}
	cp := p.Clone()
	cp.Notes[0].Content = "edited"
	*cp.TimelineItems[0].Description = "edited"

	require.Equal(t, "kickoff", p.Notes[0].Content)
	require.Equal(t, "wireframes", desc)
	require.Nil(t, (&Project{}).Clone().Notes)
}
