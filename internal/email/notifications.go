package email

import (
	"fmt"

	"taskmarket_backend/internal/logger"
)

// Notifier sends the lifecycle notifications. Every method is fire-and-
// forget: failures are logged, never returned, so a mail outage cannot
// wedge a task transition.
type Notifier struct {
	provider Provider
}

func NewNotifier(provider Provider) *Notifier {
	return &Notifier{provider: provider}
}

func (n *Notifier) send(to, subject, body string) {
	if n.provider == nil || to == "" {
		return
	}
	err := n.provider.Send(&Email{
		To:      []string{to},
		Subject: subject,
		Body:    body,
	})
	if err != nil {
		logger.Error("failed to send notification email", "subject", subject, "error", err)
	}
}

func (n *Notifier) TaskPublished(to, taskTitle string) {
	n.send(to, "Your task is live",
		fmt.Sprintf("Your task %q passed review and is now visible to doers.", taskTitle))
}

func (n *Notifier) TaskRejected(to, taskTitle, reason string) {
	n.send(to, "Your task was not approved",
		fmt.Sprintf("Your task %q was rejected during review: %s", taskTitle, reason))
}

func (n *Notifier) TaskFlagged(to, taskTitle string) {
	n.send(to, "Your task is under review",
		fmt.Sprintf("Your task %q was held for manual review. We will notify you once a decision is made.", taskTitle))
}

func (n *Notifier) ApplicationAccepted(to, taskTitle string) {
	n.send(to, "You got the task",
		fmt.Sprintf("Your application for %q was accepted. Payment is held in escrow; you can start when ready.", taskTitle))
}

func (n *Notifier) WorkSubmitted(to, taskTitle string) {
	n.send(to, "Work submitted for your task",
		fmt.Sprintf("The doer has submitted work for %q. Please review and approve or open a dispute.", taskTitle))
}

func (n *Notifier) PaymentReleased(to, taskTitle string) {
	n.send(to, "Payment released",
		fmt.Sprintf("The task %q was approved and your payout is on its way.", taskTitle))
}

func (n *Notifier) DisputeOpened(to, taskTitle string) {
	n.send(to, "A dispute was opened",
		fmt.Sprintf("A dispute was opened on %q. An administrator will review the case.", taskTitle))
}

func (n *Notifier) DisputeResolved(to, taskTitle, outcome string) {
	n.send(to, "Dispute resolved",
		fmt.Sprintf("The dispute on %q has been resolved: %s.", taskTitle, outcome))
}

func (n *Notifier) AccountSuspended(to string) {
	n.send(to, "Your account has been suspended",
		"Your account was suspended following repeated dispute losses. Contact support to appeal.")
}
