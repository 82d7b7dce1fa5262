package queue

import (
	"fmt"
	"log"
)

// TaskHandler delivers queued notification work.
type TaskHandler struct {
	mailer        Mailer
	telegramBot   TelegramBot
	ownerChatID   string
	ownerName     string
	ownerEmail    string
	portalBaseURL string
}

// Mailer sends transactional email.
type Mailer interface {
	Send(to, subject, html, text string) error
}

// TelegramBot sends owner-facing Telegram messages.
type TelegramBot interface {
	SendMessage(chatID, text string) error
}

// NewTaskHandler creates a new task handler.
func NewTaskHandler(
	mailer Mailer,
	telegramBot TelegramBot,
	ownerChatID string,
	ownerName string,
	ownerEmail string,
	portalBaseURL string,
) *TaskHandler {
	return &TaskHandler{
		mailer:        mailer,
		telegramBot:   telegramBot,
		ownerChatID:   ownerChatID,
		ownerName:     ownerName,
		ownerEmail:    ownerEmail,
		portalBaseURL: portalBaseURL,
	}
}

// HandleTask dispatches a task by type.
func (h *TaskHandler) HandleTask(task *Task) error {
	log.Printf("Processing task %s of type %s (attempt %d/%d)",
		task.ID, task.Type, task.Attempts, task.MaxRetries)

	switch task.Type {
	case TaskTypeSendNotification:
		return h.handleSendNotification(task)
	case TaskTypePaymentReminder:
		return h.handlePaymentReminder(task)
	case TaskTypeProposalFollowUp:
		return h.handleProposalFollowUp(task)
	default:
		return fmt.Errorf("unknown task type: %s", task.Type)
	}
}

// handleSendNotification dispatches on the notification subtype.
func (h *TaskHandler) handleSendNotification(task *Task) error {
	notificationType := task.GetString("notification_type")
	if notificationType == "" {
		return fmt.Errorf("missing notification_type in task data")
	}

	switch notificationType {
	case "payment_success":
		return h.handlePaymentSuccessNotification(task)
	case "deposit_paid":
		return h.handleDepositPaidNotification(task)
	case "final_payment":
		return h.handleFinalPaymentNotification(task)
	case "proposal_sent":
		return h.handleProposalSentNotification(task)
	default:
		return fmt.Errorf("unknown notification type: %s", notificationType)
	}
}

// handlePaymentSuccessNotification sends a receipt email to the client.
func (h *TaskHandler) handlePaymentSuccessNotification(task *Task) error {
	clientEmail := task.GetString("client_email")
	if clientEmail == "" {
		log.Printf("Task %s has no client email, skipping receipt", task.ID)
		return nil
	}

	clientName := task.GetString("client_name")
	bookingTitle := task.GetString("booking_title")
	amountPaid := task.GetFloat("amount_paid")
	totalPaid := task.GetFloat("total_paid")
	totalPrice := task.GetFloat("total_price")

	subject := fmt.Sprintf("Payment received for %s", bookingTitle)
	text := fmt.Sprintf(
		"Hi %s,\n\n"+
			"We received your payment of $%.2f for %s.\n"+
			"Paid so far: $%.2f of $%.2f.\n\n"+
			"Thank you!\n%s",
		clientName, amountPaid, bookingTitle, totalPaid, totalPrice, h.ownerName,
	)
	html := fmt.Sprintf(
		"<p>Hi %s,</p>"+
			"<p>We received your payment of <b>$%.2f</b> for <b>%s</b>.</p>"+
			"<p>Paid so far: $%.2f of $%.2f.</p>"+
			"<p>Thank you!<br>%s</p>",
		clientName, amountPaid, bookingTitle, totalPaid, totalPrice, h.ownerName,
	)

	if err := h.mailer.Send(clientEmail, subject, html, text); err != nil {
		return fmt.Errorf("failed to send receipt email: %v", err)
	}

	log.Printf("Sent payment receipt for booking %s to %s", task.GetString("booking_id"), clientEmail)
	return nil
}

// handleDepositPaidNotification tells the owner a deposit landed. The
// booking is confirmed at this point, so the owner message leads with that.
func (h *TaskHandler) handleDepositPaidNotification(task *Task) error {
	bookingTitle := task.GetString("booking_title")
	clientName := task.GetString("client_name")
	amountPaid := task.GetFloat("amount_paid")

	message := fmt.Sprintf(
		"💰 Deposit paid, booking confirmed!\n\n"+
			"Booking: %s\n"+
			"Client: %s\n"+
			"Amount: $%.2f",
		bookingTitle, clientName, amountPaid,
	)

	return h.notifyOwner(task, "Deposit paid: "+bookingTitle, message)
}

// handleFinalPaymentNotification tells the owner the booking is paid in full.
func (h *TaskHandler) handleFinalPaymentNotification(task *Task) error {
	bookingTitle := task.GetString("booking_title")
	clientName := task.GetString("client_name")
	totalPaid := task.GetFloat("total_paid")

	message := fmt.Sprintf(
		"✅ Booking paid in full!\n\n"+
			"Booking: %s\n"+
			"Client: %s\n"+
			"Total collected: $%.2f",
		bookingTitle, clientName, totalPaid,
	)

	return h.notifyOwner(task, "Paid in full: "+bookingTitle, message)
}

// handleProposalSentNotification emails the client their proposal link.
func (h *TaskHandler) handleProposalSentNotification(task *Task) error {
	clientEmail := task.GetString("client_email")
	if clientEmail == "" {
		return fmt.Errorf("missing client_email in task data")
	}

	clientName := task.GetString("client_name")
	bookingTitle := task.GetString("booking_title")
	bookingID := task.GetString("booking_id")
	totalPrice := task.GetFloat("total_price")
	portalLink := fmt.Sprintf("%s/proposals/%s", h.portalBaseURL, bookingID)

	subject := fmt.Sprintf("Your proposal for %s", bookingTitle)
	text := fmt.Sprintf(
		"Hi %s,\n\n"+
			"Your proposal for %s ($%.2f) is ready.\n"+
			"Review and book here: %s\n\n"+
			"%s",
		clientName, bookingTitle, totalPrice, portalLink, h.ownerName,
	)
	html := fmt.Sprintf(
		"<p>Hi %s,</p>"+
			"<p>Your proposal for <b>%s</b> ($%.2f) is ready.</p>"+
			"<p><a href=%q>Review and book</a></p>"+
			"<p>%s</p>",
		clientName, bookingTitle, totalPrice, portalLink, h.ownerName,
	)

	if err := h.mailer.Send(clientEmail, subject, html, text); err != nil {
		return fmt.Errorf("failed to send proposal email: %v", err)
	}

	log.Printf("Sent proposal email for booking %s to %s", bookingID, clientEmail)
	return nil
}

// handlePaymentReminder emails the client about an unpaid milestone.
func (h *TaskHandler) handlePaymentReminder(task *Task) error {
	clientEmail := task.GetString("client_email")
	if clientEmail == "" {
		return fmt.Errorf("missing client_email in task data")
	}

	clientName := task.GetString("client_name")
	bookingTitle := task.GetString("booking_title")
	bookingID := task.GetString("booking_id")
	milestoneName := task.GetString("milestone_name")
	amount := task.GetFloat("amount")
	payLink := fmt.Sprintf("%s/bookings/%s/pay", h.portalBaseURL, bookingID)

	subject := fmt.Sprintf("Payment reminder for %s", bookingTitle)
	text := fmt.Sprintf(
		"Hi %s,\n\n"+
			"A friendly reminder that the %q payment of $%.2f for %s is still due.\n"+
			"Pay online here: %s\n\n"+
			"%s",
		clientName, milestoneName, amount, bookingTitle, payLink, h.ownerName,
	)
	html := fmt.Sprintf(
		"<p>Hi %s,</p>"+
			"<p>A friendly reminder that the <b>%s</b> payment of <b>$%.2f</b> for %s is still due.</p>"+
			"<p><a href=%q>Pay online</a></p>"+
			"<p>%s</p>",
		clientName, milestoneName, amount, bookingTitle, payLink, h.ownerName,
	)

	if err := h.mailer.Send(clientEmail, subject, html, text); err != nil {
		return fmt.Errorf("failed to send reminder email: %v", err)
	}

	log.Printf("Sent payment reminder for booking %s milestone %s", bookingID, task.GetString("milestone_id"))
	return nil
}

// handleProposalFollowUp nudges the owner about a stale proposal.
func (h *TaskHandler) handleProposalFollowUp(task *Task) error {
	bookingTitle := task.GetString("booking_title")
	bookingID := task.GetString("booking_id")
	proposalAge := task.GetString("proposal_age")

	message := fmt.Sprintf(
		"⏰ Proposal still unanswered\n\n"+
			"Booking: %s\n"+
			"Sent: %s ago\n\n"+
			"Consider following up with the client.",
		bookingTitle, proposalAge,
	)

	if err := h.notifyOwner(task, "Follow up on proposal: "+bookingTitle, message); err != nil {
		return err
	}

	log.Printf("Sent proposal follow-up nudge for booking %s", bookingID)
	return nil
}

// notifyOwner delivers an owner notification over Telegram when configured,
// falling back to email. At least one channel must succeed.
func (h *TaskHandler) notifyOwner(task *Task, subject, message string) error {
	delivered := false

	if h.telegramBot != nil && h.ownerChatID != "" {
		if err := h.telegramBot.SendMessage(h.ownerChatID, message); err != nil {
			log.Printf("Failed to send Telegram message for task %s: %v", task.ID, err)
		} else {
			delivered = true
		}
	}

	if h.mailer != nil && h.ownerEmail != "" {
		html := "<pre>" + message + "</pre>"
		if err := h.mailer.Send(h.ownerEmail, subject, html, message); err != nil {
			log.Printf("Failed to send owner email for task %s: %v", task.ID, err)
		} else {
			delivered = true
		}
	}

	if !delivered {
		return fmt.Errorf("no notification channel delivered task %s", task.ID)
	}
	return nil
}
