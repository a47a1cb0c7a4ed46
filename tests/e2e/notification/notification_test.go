//go:build e2e

package notification_test

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"todo-notifier/internal/domain/notification"
	"todo-notifier/internal/domain/todo"
	"todo-notifier/internal/handler/dto/response"
	"todo-notifier/internal/pkg/jwt"
	"todo-notifier/internal/usecase/commands"
	"todo-notifier/tests/common/authtest"
	"todo-notifier/tests/common/builder"
	"todo-notifier/tests/common/dbtest"
	"todo-notifier/tests/common/httptest"
	"todo-notifier/tests/e2e"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const sweepURL = "/api/notifications/sweep"

type NotificationSuite struct {
	e2e.SharedSuite
	helsinki *time.Location
	// 12:00 sweep of 14 January in Helsinki
	now time.Time
}

func (s *NotificationSuite) SetupSuite() {
	s.SharedSuite.SetupSuite()
	loc, err := time.LoadLocation("Europe/Helsinki")
	s.Require().NoError(err)
	s.helsinki = loc
	s.now = time.Date(2025, 1, 14, 12, 0, 0, 0, loc)
}

func (s *NotificationSuite) SetupSubTest() {
	s.SharedSuite.SetupSubTest()
	s.Clock.Set(s.now)
}

func TestNotificationSuite(t *testing.T) {
	t.Parallel()
	suite.Run(t, new(NotificationSuite))
}

func (s *NotificationSuite) token(t *testing.T) string {
	return authtest.NewJWTHelper(s.Config.Auth).ServiceToken(t)
}

func (s *NotificationSuite) at(day, hour int) time.Time {
	return time.Date(2025, 1, day, hour, 0, 0, 0, s.helsinki)
}

func (s *NotificationSuite) sweep(t *testing.T) *response.SweepReportResponse {
	t.Helper()
	w := httptest.PerformRequest(t, s.Router, http.MethodPost, sweepURL, nil, s.token(t))
	var res response.SweepReportResponse
	httptest.AssertSuccessResponse(t, w, http.StatusOK, &res)
	return &res
}

var ignoreTimes = cmpopts.IgnoreFields(response.SweepReportResponse{}, "StartedAt", "FinishedAt")

// =============================================================================
// TestSweep
// =============================================================================

func (s *NotificationSuite) TestSweep() {
	s.Run("Normal case: sends each reminder once and suppresses the repeat", func() {
		t := s.T()

		dueTomorrow := builder.NewTaskBuilder().WithDueAt(s.at(15, 9)).Build()
		dueToday := builder.NewTaskBuilder().
			With(func(b *builder.TaskBuilder) { b.AssigneeEmail = "aino@example.com" }).
			WithDueAt(s.at(14, 20)).Build()
		later := builder.NewTaskBuilder().WithDueAt(s.at(20, 9)).Build()
		dbtest.InsertTask(t, s.DB, dueTomorrow)
		dbtest.InsertTask(t, s.DB, dueToday)
		dbtest.InsertTask(t, s.DB, later)

		first := s.sweep(t)
		expected := &response.SweepReportResponse{
			Slot:      "2025-01-14T12:00",
			Processed: 3,
			Sent:      2,
			NotDue:    1,
			Failed:    []response.TaskFailureResponse{},
		}
		if diff := cmp.Diff(expected, first, ignoreTimes); diff != "" {
			t.Errorf("first sweep report mismatch (-want +got):\n%s", diff)
		}

		rec, count := dbtest.FetchRecord(t, s.DB, dueToday.ID)
		require.NotNil(t, rec)
		require.Equal(t, notification.KindDueToday, rec.LastKind)
		require.Equal(t, 1, count)

		rec, _ = dbtest.FetchRecord(t, s.DB, dueTomorrow.ID)
		require.NotNil(t, rec)
		require.Equal(t, notification.KindDayBefore, rec.LastKind)

		rec, _ = dbtest.FetchRecord(t, s.DB, later.ID)
		require.Nil(t, rec)

		require.Len(t, s.Sender.SentTo("aino@example.com"), 1)
		require.Equal(t, "Final Reminder: Todo Due Today - "+dueToday.Title, s.Sender.SentTo("aino@example.com")[0].Subject)

		second := s.sweep(t)
		expected.Sent, expected.Suppressed = 0, 2
		if diff := cmp.Diff(expected, second, ignoreTimes); diff != "" {
			t.Errorf("second sweep report mismatch (-want +got):\n%s", diff)
		}
		require.Len(t, s.Sender.Sent(), 2, "a repeated sweep must not resend")
	})

	s.Run("Normal case: overdue reminder repeats after twelve hours", func() {
		t := s.T()

		stale := builder.NewTaskBuilder().WithDueAt(s.at(13, 18)).Build()
		recent := builder.NewTaskBuilder().WithDueAt(s.at(13, 18)).Build()
		dbtest.InsertTask(t, s.DB, stale)
		dbtest.InsertTask(t, s.DB, recent)
		dbtest.InsertRecord(t, s.DB, builder.NewRecord(stale.ID, notification.KindOverdue, s.now.Add(-13*time.Hour)))
		dbtest.InsertRecord(t, s.DB, builder.NewRecord(recent.ID, notification.KindOverdue, s.now.Add(-6*time.Hour)))

		res := s.sweep(t)
		require.Equal(t, 1, res.Sent)
		require.Equal(t, 1, res.Suppressed)

		rec, count := dbtest.FetchRecord(t, s.DB, stale.ID)
		require.True(t, rec.LastSentAt.Equal(s.now))
		require.Equal(t, 2, count)

		s.Clock.Add(12 * time.Hour)
		res = s.sweep(t)
		require.Equal(t, 2, res.Sent, "both overdue tasks are due again at the next slot")
	})

	s.Run("Normal case: completed and incomplete tasks are handled without aborting", func() {
		t := s.T()

		done := builder.NewTaskBuilder().WithStatus(todo.StatusCompleted).WithDueAt(s.at(15, 9)).Build()
		unassigned := builder.NewTaskBuilder().WithoutAssignee().WithDueAt(s.at(15, 9)).Build()
		broken := builder.NewTaskBuilder().WithRawDueAt("tomorrow-ish").Build()
		good := builder.NewTaskBuilder().WithDueAt(s.at(15, 9)).Build()
		for _, task := range []*todo.Task{done, unassigned, broken, good} {
			dbtest.InsertTask(t, s.DB, task)
		}

		res := s.sweep(t)

		expected := &response.SweepReportResponse{
			Slot:      "2025-01-14T12:00",
			Processed: 3,
			Sent:      1,
			Skipped:   1,
			Failed: []response.TaskFailureResponse{
				{TaskID: broken.ID, Reason: commands.ReasonInvalidTaskData},
			},
		}
		if diff := cmp.Diff(expected, res, ignoreTimes); diff != "" {
			t.Errorf("sweep report mismatch (-want +got):\n%s", diff)
		}
	})

	s.Run("Normal case: failed send leaves no record and is retried next sweep", func() {
		t := s.T()

		task := builder.NewTaskBuilder().WithDueAt(s.at(15, 9)).Build()
		dbtest.InsertTask(t, s.DB, task)
		s.Sender.FailFor = map[string]error{task.Assignee.Email: errors.New("mailbox unavailable")}

		res := s.sweep(t)
		require.Len(t, res.Failed, 1)
		require.Equal(t, commands.ReasonDispatchFailed, res.Failed[0].Reason)
		rec, _ := dbtest.FetchRecord(t, s.DB, task.ID)
		require.Nil(t, rec)

		s.Sender.FailFor = nil
		res = s.sweep(t)
		require.Equal(t, 1, res.Sent)
	})

	s.Run("Normal case: pages through every task and marks the checkpoint complete", func() {
		t := s.T()

		for range 5 {
			dbtest.InsertTask(t, s.DB, builder.NewTaskBuilder().WithDueAt(s.at(15, 9)).Build())
		}

		res := s.sweep(t)
		require.Equal(t, 5, res.Processed)
		require.Equal(t, 5, res.Sent)

		var completed bool
		var processed int
		err := s.DB.QueryRow(t.Context(),
			"SELECT completed, processed FROM sweep_checkpoints WHERE slot = $1", res.Slot).Scan(&completed, &processed)
		require.NoError(t, err)
		require.True(t, completed)
		require.Equal(t, 5, processed)
	})

	s.Run("Error case: missing token is rejected", func() {
		w := httptest.PerformRequest(s.T(), s.Router, http.MethodPost, sweepURL, nil, "")
		require.Equal(s.T(), http.StatusUnauthorized, w.Code)
	})
}

// =============================================================================
// TestTaskChanged
// =============================================================================

func (s *NotificationSuite) TestTaskChanged() {
	url := func(id uuid.UUID) string { return "/api/tasks/" + id.String() + "/changed" }

	s.Run("Normal case: new task due tomorrow is announced once", func() {
		t := s.T()

		task := builder.NewTaskBuilder().
			WithDueAt(s.at(15, 9)).
			With(func(b *builder.TaskBuilder) {
				b.CreatedAt = s.now.Add(-30 * time.Second)
				b.UpdatedAt = b.CreatedAt
			}).Build()
		dbtest.InsertTask(t, s.DB, task)

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, url(task.ID), nil, s.token(t))
		var res response.SendOutcomeResponse
		httptest.AssertSuccessResponse(t, w, http.StatusOK, &res)

		expected := &response.SendOutcomeResponse{
			TaskID: task.ID,
			Status: string(commands.OutcomeSent),
			Kind:   string(notification.KindDayBefore),
		}
		if diff := cmp.Diff(expected, &res); diff != "" {
			t.Errorf("outcome mismatch (-want +got):\n%s", diff)
		}
		require.Equal(t, "New Todo Assigned: "+task.Title, s.Sender.Sent()[0].Subject)

		// redelivery of the same event
		w = httptest.PerformRequest(t, s.Router, http.MethodPost, url(task.ID), nil, s.token(t))
		httptest.AssertSuccessResponse(t, w, http.StatusOK, &res)
		require.Equal(t, string(commands.OutcomeSuppressed), res.Status)
		require.Len(t, s.Sender.Sent(), 1)
	})

	s.Run("Normal case: deleted task is skipped", func() {
		t := s.T()

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, url(uuid.New()), nil, s.token(t))
		var res response.SendOutcomeResponse
		httptest.AssertSuccessResponse(t, w, http.StatusOK, &res)
		require.Equal(t, string(commands.OutcomeSkipped), res.Status)
		require.Equal(t, "task_not_found", res.Reason)
	})

	s.Run("Error case: invalid due date returns 422", func() {
		t := s.T()

		task := builder.NewTaskBuilder().WithRawDueAt("2025-01-15 20:00").Build()
		dbtest.InsertTask(t, s.DB, task)

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, url(task.ID), nil, s.token(t))
		httptest.AssertErrorResponse(t, w, http.StatusUnprocessableEntity, "Task data is invalid")
	})

	s.Run("Error case: send failure returns 502 so the caller redelivers", func() {
		t := s.T()

		task := builder.NewTaskBuilder().WithDueAt(s.at(15, 9)).Build()
		dbtest.InsertTask(t, s.DB, task)
		s.Sender.Err = errors.New("smtp down")

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, url(task.ID), nil, s.token(t))
		httptest.AssertErrorResponse(t, w, http.StatusBadGateway, "Email could not be sent")
		rec, _ := dbtest.FetchRecord(t, s.DB, task.ID)
		require.Nil(t, rec)
	})

	s.Run("Error case: token without the trigger scope is forbidden", func() {
		t := s.T()

		token := authtest.NewJWTHelper(s.Config.Auth).GenerateToken(t, "reporting", jwt.ScopeSweep)
		w := httptest.PerformRequest(t, s.Router, http.MethodPost, url(uuid.New()), nil, token)
		require.Equal(t, http.StatusForbidden, w.Code)
	})
}
