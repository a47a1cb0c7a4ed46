//go:build unit

package commands_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"todo-notifier/internal/domain/notification"
	"todo-notifier/internal/domain/todo"
	"todo-notifier/internal/infra/readstore"
	"todo-notifier/internal/pkg/clock"
	"todo-notifier/internal/pkg/errs"
	"todo-notifier/internal/pkg/schedule"
	"todo-notifier/internal/usecase/commands"
	"todo-notifier/internal/usecase/shared"
	"todo-notifier/tests/common/builder"
	"todo-notifier/tests/common/fake"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

var helsinki = time.FixedZone("EET", 2*60*60)

func at(day, hour, minute int) time.Time {
	return time.Date(2025, time.January, day, hour, minute, 0, 0, helsinki)
}

type NotificationCommandsTestSuite struct {
	suite.Suite
	ctx     context.Context
	clock   *clock.MockClock
	tasks   *fake.TaskStore
	uow     *fake.UnitOfWork
	sender  *fake.Sender
	timeout time.Duration
	uc      commands.NotificationCommands
}

func TestNotificationCommandsSuite(t *testing.T) {
	suite.Run(t, new(NotificationCommandsTestSuite))
}

func (s *NotificationCommandsTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = clock.NewMockClock(at(14, 19, 0))
	s.tasks = fake.NewTaskStore()
	s.uow = fake.NewUnitOfWork()
	s.sender = fake.NewSender()
	s.timeout = 2 * time.Second
	s.build()
}

func (s *NotificationCommandsTestSuite) TearDownTest() {
	select {
	case <-s.sender.Release:
	default:
		close(s.sender.Release)
	}
}

func (s *NotificationCommandsTestSuite) build() {
	daily, err := schedule.Parse([]string{"00:00", "12:00"}, helsinki)
	s.Require().NoError(err)

	renderer := commands.NewRenderer(helsinki, "https://todos.example.com", "Family Todo System")
	dispatcher := commands.NewDispatcher(s.sender, s.uow, renderer, s.clock, s.timeout)
	s.uc = commands.NewNotificationUseCase(
		s.tasks, s.uow, dispatcher,
		notification.DefaultPolicy(helsinki), daily, s.clock,
		commands.SweepOptions{PageSize: 2, Concurrency: 3},
	)
}

func (s *NotificationCommandsTestSuite) addTask(b *builder.TaskBuilder) *todo.Task {
	t := b.Build()
	s.tasks.Put(t)
	return t
}

// =============================================================================
// RunSweep
// =============================================================================

func (s *NotificationCommandsTestSuite) TestRunSweep_DueIn23Hours_SendsDayBeforeOnce() {
	task := s.addTask(builder.NewTaskBuilder().WithDueAt(at(15, 18, 0)))

	report, err := s.uc.RunSweep(s.ctx)

	s.Require().NoError(err)
	s.Equal(1, report.Processed)
	s.Equal(1, report.Sent)
	s.Empty(report.Failed)
	s.Equal("2025-01-14T12:00", report.Slot)

	rec, ok := s.uow.Record(task.ID)
	s.Require().True(ok)
	s.Equal(notification.KindDayBefore, rec.LastKind)
	s.True(rec.LastSentAt.Equal(at(14, 19, 0)))

	sent := s.sender.Sent()
	s.Require().Len(sent, 1)
	s.Equal("Reminder: Todo Due Tomorrow - Take out the recycling", sent[0].Subject)
	s.Equal(task.ID.String()+":DayBefore:2025-01-14", sent[0].Headers[shared.HeaderNotificationKey])
}

func (s *NotificationCommandsTestSuite) TestRunSweep_OverdueCadence() {
	first := at(12, 0, 0)
	s.clock.Set(first)
	s.addTask(builder.NewTaskBuilder().
		WithStatus(todo.StatusBlocked).
		WithDueAt(at(10, 0, 0)))

	report, err := s.uc.RunSweep(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, report.Sent)

	s.clock.Set(first.Add(6 * time.Hour))
	report, err = s.uc.RunSweep(s.ctx)
	s.Require().NoError(err)
	s.Equal(0, report.Sent)
	s.Equal(1, report.Suppressed)

	s.clock.Set(first.Add(13 * time.Hour))
	report, err = s.uc.RunSweep(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, report.Sent)

	sent := s.sender.Sent()
	s.Require().Len(sent, 2)
	for _, m := range sent {
		s.True(strings.HasPrefix(m.Subject, "Overdue Todo: "))
	}
}

func (s *NotificationCommandsTestSuite) TestRunSweep_TwelveHourSweepsBothSendOverdue() {
	s.clock.Set(at(12, 0, 0).Add(30 * time.Second))
	s.addTask(builder.NewTaskBuilder().WithDueAt(at(10, 9, 0)))

	_, err := s.uc.RunSweep(s.ctx)
	s.Require().NoError(err)

	// the next sweep fires a little early
	s.clock.Set(at(12, 12, 0).Add(-2 * time.Minute))
	report, err := s.uc.RunSweep(s.ctx)
	s.Require().NoError(err)

	s.Equal(1, report.Sent)
	s.Len(s.sender.Sent(), 2)
}

func (s *NotificationCommandsTestSuite) TestRunSweep_FailuresDoNotAbort() {
	bad := s.addTask(builder.NewTaskBuilder().WithRawDueAt("2025-01-15T18:00:00"))
	unreachable := s.addTask(builder.NewTaskBuilder().
		WithDueAt(at(15, 18, 0)).
		With(func(b *builder.TaskBuilder) { b.AssigneeEmail = "bounce@example.com" }))
	good := s.addTask(builder.NewTaskBuilder().WithDueAt(at(15, 18, 0)))
	s.sender.FailFor = map[string]error{"bounce@example.com": errs.New("550 mailbox unavailable")}

	report, err := s.uc.RunSweep(s.ctx)

	s.Require().NoError(err)
	s.Equal(3, report.Processed)
	s.Equal(1, report.Sent)
	s.Require().Len(report.Failed, 2)

	reasons := map[uuid.UUID]string{}
	for _, f := range report.Failed {
		reasons[f.TaskID] = f.Reason
	}
	s.Equal(commands.ReasonInvalidTaskData, reasons[bad.ID])
	s.Equal(commands.ReasonDispatchFailed, reasons[unreachable.ID])

	_, ok := s.uow.Record(unreachable.ID)
	s.False(ok, "failed send must not leave a record")
	_, ok = s.uow.Record(good.ID)
	s.True(ok)
}

func (s *NotificationCommandsTestSuite) TestRunSweep_StoreUnavailableIsPerTask() {
	s.addTask(builder.NewTaskBuilder().WithDueAt(at(15, 18, 0)))
	s.addTask(builder.NewTaskBuilder().WithDueAt(at(15, 18, 0)))
	s.uow.RecordReadErr = fake.StoreDown("failed to get notification record")

	report, err := s.uc.RunSweep(s.ctx)

	s.Require().NoError(err)
	s.Equal(2, report.Processed)
	s.Require().Len(report.Failed, 2)
	for _, f := range report.Failed {
		s.Equal(commands.ReasonStoreUnavailable, f.Reason)
		s.True(errs.Is(f.Err, errs.ErrStoreUnavailable))
	}
	s.Empty(s.sender.Sent())
}

func (s *NotificationCommandsTestSuite) TestRunSweep_ListFailureAbortsWithStoreUnavailable() {
	s.tasks.ListErr = fake.StoreDown("failed to list active tasks")

	report, err := s.uc.RunSweep(s.ctx)

	s.Require().Error(err)
	s.True(errs.Is(err, errs.ErrStoreUnavailable))
	s.Require().NotNil(report)
	s.Equal(0, report.Processed)
}

func (s *NotificationCommandsTestSuite) TestRunSweep_PagesAndCheckpointsEveryTask() {
	for i := 0; i < 5; i++ {
		s.addTask(builder.NewTaskBuilder().WithDueAt(at(15, 18, 0)))
	}
	s.addTask(builder.NewTaskBuilder().WithStatus(todo.StatusCompleted).WithDueAt(at(15, 18, 0)))

	report, err := s.uc.RunSweep(s.ctx)

	s.Require().NoError(err)
	s.Equal(5, report.Processed)
	s.Equal(5, report.Sent)
	s.Equal(3, s.tasks.Pages)

	cp, ok := s.uow.Checkpoint(report.Slot)
	s.Require().True(ok)
	s.True(cp.Completed)
	s.Empty(cp.Cursor)
	s.Equal(5, cp.Processed)
}

func (s *NotificationCommandsTestSuite) TestRunSweep_ResumesFromCheckpoint() {
	var tasks []*todo.Task
	for i := 0; i < 5; i++ {
		tasks = append(tasks, s.addTask(builder.NewTaskBuilder().WithDueAt(at(15, 18, 0))))
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID.String() < tasks[j].ID.String() })

	cursor := readstore.EncodeAfterCursor(tasks[1].ID)
	s.uow.SeedCheckpoint(shared.SweepCheckpoint{
		Slot:      "2025-01-14T12:00",
		Cursor:    cursor,
		Processed: 2,
	})

	report, err := s.uc.RunSweep(s.ctx)

	s.Require().NoError(err)
	s.Equal(cursor, report.ResumedFrom)
	s.Equal(5, report.Processed)
	s.Equal(3, report.Sent)
	for _, t := range tasks[:2] {
		_, ok := s.uow.Record(t.ID)
		s.False(ok, "tasks before the cursor are not revisited")
	}
	for _, t := range tasks[2:] {
		_, ok := s.uow.Record(t.ID)
		s.True(ok)
	}
}

func (s *NotificationCommandsTestSuite) TestRunSweep_CompletedCheckpointStartsOver() {
	s.addTask(builder.NewTaskBuilder().WithDueAt(at(15, 18, 0)))
	s.uow.SeedCheckpoint(shared.SweepCheckpoint{Slot: "2025-01-14T12:00", Completed: true, Processed: 7})

	report, err := s.uc.RunSweep(s.ctx)

	s.Require().NoError(err)
	s.Empty(report.ResumedFrom)
	s.Equal(1, report.Processed)
	s.Equal(1, report.Sent)
}

func (s *NotificationCommandsTestSuite) TestRunSweep_InvalidCursorRestarts() {
	s.addTask(builder.NewTaskBuilder().WithDueAt(at(15, 18, 0)))
	s.uow.SeedCheckpoint(shared.SweepCheckpoint{Slot: "2025-01-14T12:00", Cursor: "not-a-cursor", Processed: 3})

	report, err := s.uc.RunSweep(s.ctx)

	s.Require().NoError(err)
	s.Empty(report.ResumedFrom)
	s.Equal(1, report.Processed)
	s.Equal(1, report.Sent)
}

func (s *NotificationCommandsTestSuite) TestRunSweep_CheckpointWriteFailureIsTolerated() {
	s.addTask(builder.NewTaskBuilder().WithDueAt(at(15, 18, 0)))
	s.uow.CheckpointWriteErr = fake.StoreDown("failed to save sweep checkpoint")

	report, err := s.uc.RunSweep(s.ctx)

	s.Require().NoError(err)
	s.Equal(1, report.Sent)
}

func (s *NotificationCommandsTestSuite) TestRunSweep_RejectsOverlap() {
	s.addTask(builder.NewTaskBuilder().WithDueAt(at(15, 18, 0)))
	started := make(chan struct{})
	var once sync.Once
	s.sender.Hang = true
	s.sender.Before = func() { once.Do(func() { close(started) }) }

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.uc.RunSweep(s.ctx)
	}()
	<-started

	_, err := s.uc.RunSweep(s.ctx)
	s.True(errs.Is(err, commands.ErrSweepInProgress))

	close(s.sender.Release)
	<-done
}

// =============================================================================
// HandleTaskChanged
// =============================================================================

func (s *NotificationCommandsTestSuite) TestHandleTaskChanged_TwiceSendsOnce() {
	task := s.addTask(builder.NewTaskBuilder().WithDueAt(at(15, 18, 0)))

	first, err := s.uc.HandleTaskChanged(s.ctx, task.ID)
	s.Require().NoError(err)
	s.Equal(commands.OutcomeSent, first.Status)
	s.Equal(notification.KindDayBefore, first.Kind)

	second, err := s.uc.HandleTaskChanged(s.ctx, task.ID)
	s.Require().NoError(err)
	s.Equal(commands.OutcomeSuppressed, second.Status)

	s.Len(s.sender.Sent(), 1)
}

func (s *NotificationCommandsTestSuite) TestHandleTaskChanged_ConcurrentDuplicatesSendOnce() {
	task := s.addTask(builder.NewTaskBuilder().WithDueAt(at(15, 18, 0)))
	started := make(chan struct{})
	proceed := make(chan struct{})
	var once sync.Once
	s.sender.Before = func() {
		once.Do(func() { close(started) })
		<-proceed
	}

	var wg sync.WaitGroup
	outcomes := make([]*commands.SendOutcome, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		outcomes[0], _ = s.uc.HandleTaskChanged(s.ctx, task.ID)
	}()
	<-started
	wg.Add(1)
	go func() {
		defer wg.Done()
		outcomes[1], _ = s.uc.HandleTaskChanged(s.ctx, task.ID)
	}()
	time.Sleep(50 * time.Millisecond)
	close(proceed)
	wg.Wait()

	s.Len(s.sender.Sent(), 1)
	s.Equal(commands.OutcomeSent, outcomes[0].Status)
}

func (s *NotificationCommandsTestSuite) TestHandleTaskChanged_SkipsIneligible() {
	completed := s.addTask(builder.NewTaskBuilder().WithStatus(todo.StatusCompleted).WithDueAt(at(15, 18, 0)))
	unassigned := s.addTask(builder.NewTaskBuilder().WithoutAssignee().WithDueAt(at(15, 18, 0)))
	undated := s.addTask(builder.NewTaskBuilder().WithRawDueAt(""))

	tests := []struct {
		id     uuid.UUID
		reason string
	}{
		{completed.ID, "completed"},
		{unassigned.ID, "no_assignee"},
		{undated.ID, "no_due_date"},
		{uuid.New(), "task_not_found"},
	}
	for _, tt := range tests {
		out, err := s.uc.HandleTaskChanged(s.ctx, tt.id)
		s.Require().NoError(err)
		s.Equal(commands.OutcomeSkipped, out.Status)
		s.Equal(tt.reason, out.Reason)
	}
	s.Empty(s.sender.Sent())
}

func (s *NotificationCommandsTestSuite) TestHandleTaskChanged_NotDueYet() {
	task := s.addTask(builder.NewTaskBuilder().WithDueAt(at(20, 18, 0)))

	out, err := s.uc.HandleTaskChanged(s.ctx, task.ID)

	s.Require().NoError(err)
	s.Equal(commands.OutcomeNotDue, out.Status)
	s.Equal(notification.KindNone, out.Kind)
}

func (s *NotificationCommandsTestSuite) TestHandleTaskChanged_SendFailureLeavesRecordUntouched() {
	task := s.addTask(builder.NewTaskBuilder().WithDueAt(at(15, 18, 0)))
	s.sender.Err = errs.New("421 service not available")

	out, err := s.uc.HandleTaskChanged(s.ctx, task.ID)

	s.Require().Error(err)
	s.True(errs.Is(err, errs.ErrDispatch))
	s.Equal(commands.OutcomeFailed, out.Status)
	s.Equal(commands.ReasonDispatchFailed, out.Reason)
	_, ok := s.uow.Record(task.ID)
	s.False(ok)

	// the next invocation is the retry
	s.sender.Err = nil
	out, err = s.uc.HandleTaskChanged(s.ctx, task.ID)
	s.Require().NoError(err)
	s.Equal(commands.OutcomeSent, out.Status)
}

func (s *NotificationCommandsTestSuite) TestHandleTaskChanged_SendTimeoutIsDispatchError() {
	s.timeout = 50 * time.Millisecond
	s.build()
	task := s.addTask(builder.NewTaskBuilder().WithDueAt(at(15, 18, 0)))
	s.sender.Hang = true

	start := time.Now()
	out, err := s.uc.HandleTaskChanged(s.ctx, task.ID)

	s.Less(time.Since(start), time.Second)
	s.True(errs.Is(err, errs.ErrDispatch))
	s.Equal(commands.ReasonDispatchFailed, out.Reason)
	_, ok := s.uow.Record(task.ID)
	s.False(ok)
}

func (s *NotificationCommandsTestSuite) TestHandleTaskChanged_RecordWriteFailureAfterSend() {
	task := s.addTask(builder.NewTaskBuilder().WithDueAt(at(15, 18, 0)))
	s.uow.RecordWriteErr = fake.StoreDown("failed to upsert notification record")

	out, err := s.uc.HandleTaskChanged(s.ctx, task.ID)

	s.True(errs.Is(err, errs.ErrStoreUnavailable))
	s.Equal(commands.ReasonStoreUnavailable, out.Reason)
	s.Len(s.sender.Sent(), 1, "the email already went out")
}

func (s *NotificationCommandsTestSuite) TestHandleTaskChanged_InvalidRecipient() {
	task := s.addTask(builder.NewTaskBuilder().
		WithDueAt(at(15, 18, 0)).
		With(func(b *builder.TaskBuilder) { b.AssigneeEmail = "not an address" }))

	out, err := s.uc.HandleTaskChanged(s.ctx, task.ID)

	s.True(errs.Is(err, errs.ErrDispatch))
	s.Equal(commands.OutcomeFailed, out.Status)
	s.Empty(s.sender.Sent())
}

func (s *NotificationCommandsTestSuite) TestHandleTaskChanged_FreshTaskFraming() {
	s.clock.Set(at(14, 10, 0))
	created := at(14, 9, 59)
	task := s.addTask(builder.NewTaskBuilder().
		WithDueAt(at(14, 18, 0)).
		With(func(b *builder.TaskBuilder) {
			b.CreatedAt = created
			b.UpdatedAt = created
		}))

	out, err := s.uc.HandleTaskChanged(s.ctx, task.ID)

	s.Require().NoError(err)
	s.Equal(notification.KindDueToday, out.Kind)
	sent := s.sender.Sent()
	s.Require().Len(sent, 1)
	s.Equal("New Todo Assigned: Take out the recycling", sent[0].Subject)
}

func (s *NotificationCommandsTestSuite) TestHandleTaskChanged_AfterSweepSendIsSuppressed() {
	task := s.addTask(builder.NewTaskBuilder().WithDueAt(at(15, 18, 0)))

	_, err := s.uc.RunSweep(s.ctx)
	s.Require().NoError(err)

	s.clock.Add(30 * time.Minute)
	out, err := s.uc.HandleTaskChanged(s.ctx, task.ID)

	s.Require().NoError(err)
	s.Equal(commands.OutcomeSuppressed, out.Status)
	s.Len(s.sender.Sent(), 1)
}

func (s *NotificationCommandsTestSuite) TestSweepJoiningCancelledTrigger_StillSends() {
	task := s.addTask(builder.NewTaskBuilder().WithDueAt(at(15, 18, 0)))
	started := make(chan struct{})
	proceed := make(chan struct{})
	var once sync.Once
	s.sender.Before = func() {
		once.Do(func() { close(started) })
		<-proceed
	}

	triggerCtx, cancelTrigger := context.WithCancel(s.ctx)
	triggerDone := make(chan *commands.SendOutcome, 1)
	go func() {
		out, _ := s.uc.HandleTaskChanged(triggerCtx, task.ID)
		triggerDone <- out
	}()
	<-started

	sweepDone := make(chan *commands.SweepReport, 1)
	go func() {
		report, _ := s.uc.RunSweep(s.ctx)
		sweepDone <- report
	}()
	time.Sleep(50 * time.Millisecond)

	// the webhook caller goes away while the email is still being sent
	cancelTrigger()
	triggerOut := <-triggerDone
	s.Equal(commands.OutcomeFailed, triggerOut.Status)
	s.True(errs.Is(triggerOut.Err, context.Canceled))

	close(proceed)
	report := <-sweepDone

	s.Require().NotNil(report)
	s.Equal(1, report.Sent)
	s.Empty(report.Failed)
	s.Len(s.sender.Sent(), 1)
	rec, ok := s.uow.Record(task.ID)
	s.Require().True(ok)
	s.Equal(notification.KindDayBefore, rec.LastKind)
}

func (s *NotificationCommandsTestSuite) TestTriggerJoiningSweep_ReevaluatesCurrentTask() {
	b := builder.NewTaskBuilder().WithDueAt(at(15, 18, 0))
	task := s.addTask(b)
	started := make(chan struct{})
	proceed := make(chan struct{})
	var once sync.Once
	s.sender.Before = func() {
		once.Do(func() { close(started) })
		<-proceed
	}

	sweepDone := make(chan *commands.SweepReport, 1)
	go func() {
		report, _ := s.uc.RunSweep(s.ctx)
		sweepDone <- report
	}()
	<-started

	// completed in the web app while the sweep is mid-send on its page snapshot
	s.tasks.Put(b.WithStatus(todo.StatusCompleted).Build())
	triggerDone := make(chan *commands.SendOutcome, 1)
	go func() {
		out, _ := s.uc.HandleTaskChanged(s.ctx, task.ID)
		triggerDone <- out
	}()
	time.Sleep(50 * time.Millisecond)
	close(proceed)

	report := <-sweepDone
	s.Equal(1, report.Sent)

	out := <-triggerDone
	s.Equal(commands.OutcomeSkipped, out.Status)
	s.Equal("completed", out.Reason)
	s.Len(s.sender.Sent(), 1)
}
