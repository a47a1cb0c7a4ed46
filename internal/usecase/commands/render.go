package commands

import (
	"strings"
	"text/template"
	"time"

	"todo-notifier/internal/domain/notification"
	"todo-notifier/internal/domain/todo"
	"todo-notifier/internal/pkg/errs"
	"todo-notifier/internal/usecase/shared"
)

const dueDateLayout = "Monday, January 02, 2006 at 03:04 PM MST"

// created and updated stamps closer than this are the same write
const sameWriteTolerance = time.Second

var bodyTemplate = template.Must(template.New("body").Parse(`Hello {{.Name}},

{{.Lead}}

Title: {{.Title}}
Description: {{.Description}}
Due Date: {{.Due}}
Status: {{.Status}}

{{.Closing}}
{{- if .Link}}

Open your todos: {{.Link}}
{{- end}}

Best regards,
{{.Signature}}
`))

type bodyData struct {
	Name        string
	Lead        string
	Title       string
	Description string
	Due         string
	Status      string
	Closing     string
	Link        string
	Signature   string
}

type Renderer struct {
	loc       *time.Location
	appURL    string
	signature string
}

func NewRenderer(loc *time.Location, appURL, signature string) *Renderer {
	if loc == nil {
		loc = time.UTC
	}
	if signature == "" {
		signature = "Family Todo System"
	}
	return &Renderer{loc: loc, appURL: strings.TrimRight(appURL, "/"), signature: signature}
}

func (r *Renderer) Render(task *todo.Task, intent *notification.Intent) (shared.EmailMessage, error) {
	title := task.DisplayTitle()
	subject, lead, closing := r.framing(task, intent, title)

	description := strings.TrimSpace(task.Description)
	if description == "" {
		description = "No description"
	}

	data := bodyData{
		Name:        task.Assignee.DisplayName(),
		Lead:        lead,
		Title:       title,
		Description: description,
		Due:         intent.DueAt.In(r.loc).Format(dueDateLayout),
		Status:      task.Status.Label(),
		Closing:     closing,
		Signature:   r.signature,
	}
	if r.appURL != "" {
		data.Link = r.appURL + "/todos/" + task.ID.String()
	}

	var body strings.Builder
	if err := bodyTemplate.Execute(&body, data); err != nil {
		return shared.EmailMessage{}, errs.Wrap(err, "render email body")
	}

	return shared.EmailMessage{
		To:      task.Assignee.Email,
		ToName:  strings.TrimSpace(task.Assignee.Name),
		Subject: subject,
		Body:    body.String(),
		Headers: map[string]string{shared.HeaderNotificationKey: intent.Key},
	}, nil
}

func (r *Renderer) framing(task *todo.Task, intent *notification.Intent, title string) (subject, lead, closing string) {
	if intent.Fresh {
		if isNewTask(task) {
			return "New Todo Assigned: " + title,
				"A new todo item has been assigned to you.",
				"Please review and plan accordingly."
		}
		return "Todo Updated: " + title,
			"Your todo item has been updated.",
			"Please review the changes."
	}

	switch intent.Kind {
	case notification.KindDayBefore:
		return "Reminder: Todo Due Tomorrow - " + title,
			"This is a reminder that your todo item is due within the next 24 hours.",
			"Please plan to complete this task soon."
	case notification.KindDueToday:
		return "Final Reminder: Todo Due Today - " + title,
			"Your todo item is due today.",
			"Please complete this task today."
	default:
		return "Overdue Todo: " + title,
			"Your todo item is overdue and still needs attention.",
			"Please complete this overdue task as soon as possible."
	}
}

func isNewTask(task *todo.Task) bool {
	if task.CreatedAt.IsZero() {
		return false
	}
	d := task.UpdatedAt.Sub(task.CreatedAt)
	return d >= -sameWriteTolerance && d <= sameWriteTolerance
}
