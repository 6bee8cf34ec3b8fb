package mailer

import "fmt"

// Message bodies sent by the portal. Kept as plain formatted strings; the
// copy is short enough that html/template buys nothing.

func OtpSubject() string { return "Your verification code" }

func OtpBodies(code string, validMinutes int) (text, html string) {
	text = fmt.Sprintf("Your verification code is %s. It expires in %d minutes.\n\nIf you did not request this code, you can ignore this mail.", code, validMinutes)
	html = fmt.Sprintf(`<p>Your verification code is</p><p style="font-size:24px;font-weight:bold;letter-spacing:4px">%s</p><p>It expires in %d minutes. If you did not request this code, you can ignore this mail.</p>`, code, validMinutes)
	return text, html
}

func WelcomeSubject() string { return "Welcome aboard" }

func WelcomeBodies(username string) (text, html string) {
	text = fmt.Sprintf("Hi %s,\n\nYour account is ready. Sign in and complete your profile to start getting matched with openings.", username)
	html = fmt.Sprintf(`<p>Hi %s,</p><p>Your account is ready. Sign in and complete your profile to start getting matched with openings.</p>`, username)
	return text, html
}

func JobMatchSubject(title string) string {
	return fmt.Sprintf("New opening that matches your profile: %s", title)
}

func JobMatchBodies(username, title, category, city, portalURL string) (text, html string) {
	text = fmt.Sprintf("Hi %s,\n\nA new %s position matching your category was just posted:\n\n  %s (%s)\n\nVisit %s to view the posting and apply.", username, category, title, city, portalURL)
	html = fmt.Sprintf(`<p>Hi %s,</p><p>A new %s position matching your category was just posted:</p><p><b>%s</b> (%s)</p><p><a href="%s">View the posting and apply</a></p>`, username, category, title, city, portalURL)
	return text, html
}
