package email

import (
	"fmt"
	"html"
	"strings"

	"propreviews/internal/config"
	"propreviews/internal/models"
)

// excerptLength is how much of a review body goes into an email.
const excerptLength = 280

// Templates provides email template generation.
type Templates struct {
	cfg *config.Config
}

// NewTemplates creates a new templates instance.
func NewTemplates(cfg *config.Config) *Templates {
	return &Templates{cfg: cfg}
}

// baseHTML wraps content in the shared HTML email layout.
func (t *Templates) baseHTML(title, content string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>%s</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.5; color: #1f2937; max-width: 600px; margin: 0 auto; padding: 16px; }
        .header { background: #0f766e; color: #fff; padding: 16px 20px; border-radius: 8px 8px 0 0; }
        .header h1 { margin: 0; font-size: 20px; }
        .content { padding: 20px; border: 1px solid #e5e7eb; border-top: none; }
        .footer { padding: 12px; font-size: 12px; color: #6b7280; text-align: center; }
        .card { background: #f9fafb; border-left: 4px solid #0f766e; padding: 12px 16px; margin: 16px 0; }
        .stars { color: #d97706; letter-spacing: 2px; }
        .button { display: inline-block; background: #0f766e; color: #fff; padding: 10px 20px; text-decoration: none; border-radius: 6px; }
        .approved { color: #047857; }
        .rejected { color: #b91c1c; }
    </style>
</head>
<body>
    <div class="header"><h1>%s</h1></div>
    <div class="content">
        %s
    </div>
    <div class="footer">Sent by %s &middot; <a href="%s">%s</a></div>
</body>
</html>`, html.EscapeString(title), html.EscapeString(t.cfg.SiteTitle), content, html.EscapeString(t.cfg.SiteTitle), t.cfg.BaseURL, t.cfg.BaseURL)
}

func (t *Templates) propertyURL(p *models.Property) string {
	return fmt.Sprintf("%s/properties/%s", t.cfg.BaseURL, p.ID)
}

func stars(rating int) string {
	if rating < 0 {
		rating = 0
	}
	if rating > 5 {
		rating = 5
	}
	return strings.Repeat("★", rating) + strings.Repeat("☆", 5-rating)
}

func excerpt(body string) string {
	runes := []rune(strings.TrimSpace(body))
	if len(runes) <= excerptLength {
		return string(runes)
	}
	return strings.TrimSpace(string(runes[:excerptLength])) + "..."
}

// reviewCard renders the review summary block shared by every template.
func (t *Templates) reviewCard(p *models.Property, r *models.Review) string {
	return fmt.Sprintf(`
        <div class="card">
            <p><strong>%s</strong></p>
            <p class="stars">%s</p>
            <p><strong>%s</strong> by %s</p>
            <p>%s</p>
        </div>`,
		html.EscapeString(p.FullAddress()),
		stars(r.Rating),
		html.EscapeString(r.Title),
		html.EscapeString(r.Attribution()),
		html.EscapeString(excerpt(r.Body)),
	)
}

func (t *Templates) reviewText(p *models.Property, r *models.Review) string {
	return fmt.Sprintf("Property: %s\nRating: %d/5\nTitle: %s\nBy: %s\n\n%s\n",
		p.FullAddress(), r.Rating, r.Title, r.Attribution(), excerpt(r.Body))
}

func (t *Templates) footerText() string {
	return fmt.Sprintf("\n--\n%s\n%s", t.cfg.SiteTitle, t.cfg.BaseURL)
}

// ReviewPending generates the email sent to admins when a review awaits
// moderation.
func (t *Templates) ReviewPending(p *models.Property, r *models.Review) (subject, htmlBody, textBody string) {
	subject = fmt.Sprintf("[%s] New review pending moderation: %s", t.cfg.SiteTitle, p.Address)

	content := fmt.Sprintf(`
        <p>A new review was submitted and is waiting for moderation.</p>
        %s
        <p><a href="%s/moderation" class="button">Open moderation queue</a></p>`,
		t.reviewCard(p, r), t.cfg.BaseURL)
	htmlBody = t.baseHTML(subject, content)

	textBody = "A new review is waiting for moderation.\n\n" +
		t.reviewText(p, r) +
		fmt.Sprintf("\nModeration queue: %s/moderation\n", t.cfg.BaseURL) +
		t.footerText()
	return
}

// ReviewPublished generates the email sent to a property's creator when a
// review of it is approved.
func (t *Templates) ReviewPublished(p *models.Property, r *models.Review) (subject, htmlBody, textBody string) {
	subject = fmt.Sprintf("[%s] Your property has a new review", t.cfg.SiteTitle)

	content := fmt.Sprintf(`
        <p>A review of a property you listed has just been published.</p>
        %s
        <p><a href="%s" class="button">View property</a></p>`,
		t.reviewCard(p, r), html.EscapeString(t.propertyURL(p)))
	htmlBody = t.baseHTML(subject, content)

	textBody = "A review of a property you listed has been published.\n\n" +
		t.reviewText(p, r) +
		fmt.Sprintf("\nView: %s\n", t.propertyURL(p)) +
		t.footerText()
	return
}

// ReviewDecision generates the email sent to a review's author once it has
// been approved or rejected.
func (t *Templates) ReviewDecision(p *models.Property, r *models.Review) (subject, htmlBody, textBody string) {
	approved := r.Status == models.StatusApproved

	var headline, class, next string
	if approved {
		subject = fmt.Sprintf("[%s] Your review has been published", t.cfg.SiteTitle)
		headline, class = "Your review was approved and is now public.", "approved"
		next = "Thank you for helping other renters."
	} else {
		subject = fmt.Sprintf("[%s] Your review was not published", t.cfg.SiteTitle)
		headline, class = "Your review was not approved.", "rejected"
		next = "Reviews must describe the property and your experience living there."
	}

	content := fmt.Sprintf(`
        <p class="%s"><strong>%s</strong></p>
        %s
        <p>%s</p>
        <p><a href="%s" class="button">View property</a></p>`,
		class, html.EscapeString(headline), t.reviewCard(p, r), html.EscapeString(next), html.EscapeString(t.propertyURL(p)))
	htmlBody = t.baseHTML(subject, content)

	textBody = headline + "\n\n" + t.reviewText(p, r) + "\n" + next + "\n" +
		fmt.Sprintf("View: %s\n", t.propertyURL(p)) +
		t.footerText()
	return
}

// PendingDigest generates the reminder sent to admins when reviews have sat
// in the moderation queue too long.
func (t *Templates) PendingDigest(reviews []models.Review, oldest string) (subject, htmlBody, textBody string) {
	subject = fmt.Sprintf("[%s] %d reviews waiting for moderation", t.cfg.SiteTitle, len(reviews))

	var items, lines strings.Builder
	for _, r := range reviews {
		fmt.Fprintf(&items, `<li><span class="stars">%s</span> <strong>%s</strong> by %s</li>`,
			stars(r.Rating), html.EscapeString(r.Title), html.EscapeString(r.Attribution()))
		fmt.Fprintf(&lines, "- %d/5 %s (by %s)\n", r.Rating, r.Title, r.Attribution())
	}

	content := fmt.Sprintf(`
        <p>These reviews have been waiting since %s.</p>
        <ul>%s</ul>
        <p><a href="%s/moderation" class="button">Open moderation queue</a></p>`,
		html.EscapeString(oldest), items.String(), t.cfg.BaseURL)
	htmlBody = t.baseHTML(subject, content)

	textBody = fmt.Sprintf("These reviews have been waiting since %s:\n\n", oldest) +
		lines.String() +
		fmt.Sprintf("\nModeration queue: %s/moderation\n", t.cfg.BaseURL) +
		t.footerText()
	return
}

// ReportResolved generates the email telling a reporter that an admin has
// dealt with their report.
func (t *Templates) ReportResolved(report *models.ReviewReport) (subject, htmlBody, textBody string) {
	subject = fmt.Sprintf("[%s] Your report has been reviewed", t.cfg.SiteTitle)
	reason := strings.ReplaceAll(report.Reason, "_", " ")

	content := fmt.Sprintf(`
        <p>An admin has reviewed the review you reported for <strong>%s</strong> and closed your report.</p>
        <p>Thank you for helping keep reviews accurate.</p>`,
		html.EscapeString(reason))
	htmlBody = t.baseHTML(subject, content)

	textBody = fmt.Sprintf("An admin has reviewed the review you reported for %s and closed your report.\n\n", reason) +
		"Thank you for helping keep reviews accurate.\n" +
		t.footerText()
	return
}
