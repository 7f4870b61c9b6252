package mail

import "fmt"

// Templates mirror the LibroVault notification emails.

func VerificationOTPTemplate(otp string) string {
	return fmt.Sprintf(`
	<div style="font-family: Arial, sans-serif; max-width: 600px; margin: auto; padding: 20px;">
		<h2 style="color: #007bff; text-align: center;">Welcome to LibroVault Digital Library</h2>
		<p>Hello,</p>
		<p>To complete your registration, please use the code below. It is valid for <strong>15 minutes</strong>.</p>
		<div style="text-align: center; font-size: 22px; font-weight: bold; color: #007bff;">%s</div>
		<p>If you didn't request this, please ignore this email.</p>
		<p>Best regards,<br/><strong>LibroVault Team</strong></p>
	</div>`, otp)
}

func OverdueReminderTemplate(name, bookTitle string) string {
	return fmt.Sprintf(`
	<p>Dear %s,</p>
	<p>We hope this email finds you well. This is a gentle reminder that your borrowed book from LibroVault <strong>"%s"</strong> is overdue.</p>
	<p>We kindly request you to return it at your earliest convenience to avoid any late fees.</p>
	<p>If you have already returned the book, please disregard this email.</p>
	<p>Thank you for using our LibroVault Digital library</p>
	<p>Best Regards,<br/>LibroVault Library Team</p>`, name, bookTitle)
}
