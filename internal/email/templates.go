package email

import (
	"fmt"
	"html/template"
	"strings"

	"agency-backend/internal/models"
)

const layoutTmpl = `<!DOCTYPE html>
<html>
<body style="margin:0;padding:0;background:#f4f4f7;font-family:Arial,Helvetica,sans-serif;">
  <div style="max-width:600px;margin:24px auto;background:#ffffff;border-radius:8px;overflow:hidden;">
    <div style="background:#1a1a2e;padding:20px 32px;">
      <h2 style="color:#ffffff;margin:0;">{{.Title}}</h2>
    </div>
    <div style="padding:28px 32px;color:#333333;font-size:15px;line-height:1.6;">
      {{.Body}}
    </div>
    <div style="padding:16px 32px;background:#f4f4f7;color:#999999;font-size:12px;">
      This is an automated message, please do not reply.
    </div>
  </div>
</body>
</html>`

var layout = template.Must(template.New("layout").Parse(layoutTmpl))

func render(title string, body template.HTML) string {
	var sb strings.Builder
	_ = layout.Execute(&sb, struct {
		Title string
		Body  template.HTML
	}{Title: title, Body: body})
	return sb.String()
}

func esc(s string) string {
	return template.HTMLEscapeString(s)
}

func fileListHTML(names []string) template.HTML {
	if len(names) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("<ul>")
	for _, n := range names {
		sb.WriteString("<li>" + esc(n) + "</li>")
	}
	sb.WriteString("</ul>")
	return template.HTML(sb.String())
}

func fileMetaNames(files []models.FileMeta) []string {
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Name)
	}
	return names
}

func ContactAck(to, name string) Message {
	body := fmt.Sprintf(`<p>Hi %s,</p>
<p>Thanks for reaching out. We received your message and will get back to you within one business day.</p>`, esc(name))
	return Message{
		To:      to,
		Subject: "We received your message",
		HTML:    render("Thanks for contacting us", template.HTML(body)),
	}
}

func Registration(to, name string) Message {
	body := fmt.Sprintf(`<p>Hi %s,</p>
<p>Your account has been created. You can now place orders and book consultations.</p>`, esc(name))
	return Message{
		To:      to,
		Subject: "Welcome aboard",
		HTML:    render("Welcome", template.HTML(body)),
	}
}

func OTP(to, name, code string) Message {
	body := fmt.Sprintf(`<p>Hi %s,</p>
<p>Your one-time login code is:</p>
<p style="font-size:28px;letter-spacing:6px;font-weight:bold;">%s</p>
<p>The code expires in 10 minutes.</p>`, esc(name), esc(code))
	return Message{
		To:      to,
		Subject: "Your login code",
		HTML:    render("Login code", template.HTML(body)),
	}
}

type OrderConfirmationData struct {
	OrderID        string
	ProjectType    string
	InitialPayment float64
	Files          []string
	FailedFiles    []string
}

func OrderConfirmation(to, name string, d OrderConfirmationData) Message {
	body := fmt.Sprintf(`<p>Hi %s,</p>
<p>Your order <strong>%s</strong> (%s) is confirmed. We received your deposit of <strong>$%.2f</strong> and work begins shortly.</p>
<p>Files attached to this order:</p>%s`,
		esc(name), esc(d.OrderID), esc(d.ProjectType), d.InitialPayment, fileListHTML(d.Files))
	if len(d.FailedFiles) > 0 {
		body += fmt.Sprintf(`<p style="color:#b45309;">Some files could not be transferred and may need to be re-sent:</p>%s`,
			fileListHTML(d.FailedFiles))
	}
	return Message{
		To:      to,
		Subject: fmt.Sprintf("Order %s confirmed", d.OrderID),
		HTML:    render("Order confirmed", template.HTML(body)),
	}
}

func RemainingPayment(to, name, orderID string, amount float64, payURL string) Message {
	body := fmt.Sprintf(`<p>Hi %s,</p>
<p>Great news: the work for order <strong>%s</strong> is done. Pay the remaining balance of <strong>$%.2f</strong> to receive your files.</p>
<p><a href="%s" style="display:inline-block;background:#1a1a2e;color:#ffffff;padding:12px 24px;border-radius:6px;text-decoration:none;">Pay now</a></p>`,
		esc(name), esc(orderID), amount, esc(payURL))
	return Message{
		To:      to,
		Subject: fmt.Sprintf("Order %s is ready: complete your payment", orderID),
		HTML:    render("Your order is ready", template.HTML(body)),
	}
}

func OrderCompleted(to, name, orderID, message string, files []models.FileMeta) Message {
	body := fmt.Sprintf(`<p>Hi %s,</p>
<p>Order <strong>%s</strong> is complete. Your deliverables:</p>`, esc(name), esc(orderID))
	var sb strings.Builder
	sb.WriteString("<ul>")
	for _, f := range files {
		sb.WriteString(fmt.Sprintf(`<li><a href="%s">%s</a></li>`, esc(f.URL), esc(f.Name)))
	}
	sb.WriteString("</ul>")
	body += sb.String()
	if message != "" {
		body += fmt.Sprintf(`<p>Note from the team: %s</p>`, esc(message))
	}
	body += `<p>Download links are time-limited, please save your files promptly.</p>`
	return Message{
		To:      to,
		Subject: fmt.Sprintf("Order %s completed", orderID),
		HTML:    render("Order completed", template.HTML(body)),
	}
}

func CancelAccepted(to, name, orderID string) Message {
	body := fmt.Sprintf(`<p>Hi %s,</p>
<p>Your cancellation request for order <strong>%s</strong> was accepted. The order and its files have been removed.</p>`,
		esc(name), esc(orderID))
	return Message{
		To:      to,
		Subject: fmt.Sprintf("Order %s cancelled", orderID),
		HTML:    render("Cancellation accepted", template.HTML(body)),
	}
}

func CancelDeclined(to, name, orderID string) Message {
	body := fmt.Sprintf(`<p>Hi %s,</p>
<p>Your cancellation request for order <strong>%s</strong> was declined. The order remains in progress; contact us if you have questions.</p>`,
		esc(name), esc(orderID))
	return Message{
		To:      to,
		Subject: fmt.Sprintf("Cancellation request for order %s", orderID),
		HTML:    render("Cancellation declined", template.HTML(body)),
	}
}

func AdminCancelled(to, name, orderID, reason string) Message {
	body := fmt.Sprintf(`<p>Hi %s,</p>
<p>Your order <strong>%s</strong> has been cancelled by our team.</p>
<p>Reason: %s</p>
<p>Any deposit will be refunded through your original payment method.</p>`,
		esc(name), esc(orderID), esc(reason))
	return Message{
		To:      to,
		Subject: fmt.Sprintf("Order %s cancelled", orderID),
		HTML:    render("Order cancelled", template.HTML(body)),
	}
}

func MeetingScheduled(to, adminName, userName, serviceTitle, date, timeOfDay string) Message {
	body := fmt.Sprintf(`<p>Hi %s,</p>
<p><strong>%s</strong> requested a consultation for <strong>%s</strong> on %s at %s.</p>
<p>Review it in the admin dashboard.</p>`,
		esc(adminName), esc(userName), esc(serviceTitle), esc(date), esc(timeOfDay))
	return Message{
		To:      to,
		Subject: "New consultation request",
		HTML:    render("New consultation request", template.HTML(body)),
	}
}

func MeetingAccepted(to, name, serviceTitle, date, timeOfDay string) Message {
	body := fmt.Sprintf(`<p>Hi %s,</p>
<p>Your consultation for <strong>%s</strong> on %s at %s is confirmed. You will receive a meeting link shortly before it starts.</p>`,
		esc(name), esc(serviceTitle), esc(date), esc(timeOfDay))
	return Message{
		To:      to,
		Subject: "Consultation confirmed",
		HTML:    render("Consultation confirmed", template.HTML(body)),
	}
}

func MeetingRescheduled(to, name, serviceTitle, date, timeOfDay string) Message {
	body := fmt.Sprintf(`<p>Hi %s,</p>
<p>Your consultation for <strong>%s</strong> was moved to %s at %s.</p>`,
		esc(name), esc(serviceTitle), esc(date), esc(timeOfDay))
	return Message{
		To:      to,
		Subject: "Consultation rescheduled",
		HTML:    render("Consultation rescheduled", template.HTML(body)),
	}
}

func MeetingReminder(to, name, serviceTitle, date, timeOfDay, link string) Message {
	body := fmt.Sprintf(`<p>Hi %s,</p>
<p>Your consultation for <strong>%s</strong> starts soon (%s at %s).</p>
<p><a href="%s" style="display:inline-block;background:#1a1a2e;color:#ffffff;padding:12px 24px;border-radius:6px;text-decoration:none;">Join meeting</a></p>`,
		esc(name), esc(serviceTitle), esc(date), esc(timeOfDay), esc(link))
	return Message{
		To:      to,
		Subject: "Your consultation starts soon",
		HTML:    render("Meeting reminder", template.HTML(body)),
	}
}
