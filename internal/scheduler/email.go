package scheduler

import (
	"fmt"
	"strings"

	"github.com/workqueue-dev/workqueue/internal/models"
)

func reminderText(name string, a *models.Assignment, deadline, remaining string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", name)
	fmt.Fprintf(&b, "This is a friendly reminder that your assignment %q is due in approximately 24 hours.\n\n", a.Title)
	b.WriteString("Assignment Details:\n")
	fmt.Fprintf(&b, "- Title: %s\n", a.Title)
	fmt.Fprintf(&b, "- Description: %s\n", a.Description)
	fmt.Fprintf(&b, "- Deadline: %s\n", deadline)
	fmt.Fprintf(&b, "- Time Remaining: %s\n\n", remaining)
	b.WriteString("Please make sure to submit your assignment before the deadline to avoid any penalties.\n\n")
	b.WriteString("Best regards,\nWorkQueue Team")
	return b.String()
}

func reminderHTML(name string, a *models.Assignment, deadline, remaining string) string {
	var b strings.Builder
	b.WriteString(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">`)
	b.WriteString(`<h2 style="color: #856404;">Assignment Deadline Reminder</h2>`)
	fmt.Fprintf(&b, `<p>Hello <strong>%s</strong>,</p>`, name)
	b.WriteString(`<p>Your assignment deadline is approaching soon:</p>`)
	b.WriteString(`<div style="background: #fff3cd; border-left: 4px solid #ffc107; padding: 15px; margin: 20px 0;">`)
	fmt.Fprintf(&b, `<h3 style="margin: 0 0 10px 0;">%s</h3>`, a.Title)
	fmt.Fprintf(&b, `<p style="margin: 5px 0;"><strong>Description:</strong> %s</p>`, a.Description)
	fmt.Fprintf(&b, `<p style="margin: 5px 0;"><strong>Label:</strong> %s</p>`, a.Label)
	fmt.Fprintf(&b, `<p style="margin: 5px 0;"><strong>Due Date:</strong> %s</p>`, deadline)
	fmt.Fprintf(&b, `<p style="margin: 5px 0;"><strong>Time Remaining:</strong> %s</p>`, remaining)
	b.WriteString(`</div>`)
	b.WriteString(`<p>Please log into the assignment portal to submit your work.</p>`)
	b.WriteString(`<p style="color: #666; font-size: 14px;">Best regards,<br><strong>WorkQueue Team</strong></p>`)
	b.WriteString(`</div>`)
	return b.String()
}
