/*
Package notify emails the operator a plain-text digest of a posting run. It
is best-effort: failures are logged, never fatal.
*/
package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/phuslu/log"
	gomail "gopkg.in/mail.v2"

	"github.com/snagasawa/kabupost/internal/config"
	"github.com/snagasawa/kabupost/internal/types"
)

// EmailDigest sends one summary email for the run: how many candidates were
// found, what was rendered and what actually went out.
func EmailDigest(cfg config.NotifyConfig, candidates []types.Candidate, rendered []types.PostCandidate, postedIDs []string) {
	if !cfg.Enabled() {
		return
	}

	from := cfg.FromEmail
	if from == "" {
		from = cfg.SMTPUser
	}

	var body strings.Builder
	fmt.Fprintf(&body, "Candidates found: %d\n", len(candidates))
	fmt.Fprintf(&body, "Posts rendered: %d\n", len(rendered))
	fmt.Fprintf(&body, "Posts published: %d\n\n", len(postedIDs))

	for i, pc := range rendered {
		fmt.Fprintf(&body, "--- POST #%d ---\n", i+1)
		fmt.Fprintf(&body, "Code:  %s (%s)\n", pc.Code, pc.Name)
		fmt.Fprintf(&body, "Title: %s\n", pc.Title)
		fmt.Fprintf(&body, "Link:  %s\n", pc.Link)
		fmt.Fprintf(&body, "Text:\n%s\n\n", pc.Post)
	}
	if len(rendered) == 0 {
		body.WriteString("Nothing was rendered this run.\n")
	}
	for _, id := range postedIDs {
		fmt.Fprintf(&body, "Published: https://x.com/i/web/status/%s\n", id)
	}

	subject := fmt.Sprintf("kabupost digest: %d candidates, %d posted", len(candidates), len(postedIDs))

	message := gomail.NewMessage()
	message.SetHeader("From", from)
	message.SetHeader("To", cfg.ToEmail)
	message.SetHeader("Subject", subject)
	message.SetBody("text/plain", body.String())

	dialer := gomail.NewDialer(cfg.SMTPServer, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass)
	dialer.Timeout = 10 * time.Second

	if err := dialer.DialAndSend(message); err != nil {
		log.Error().Err(err).Str("to", cfg.ToEmail).Msg("failed to send digest email")
	} else {
		log.Info().Str("to", cfg.ToEmail).Msg("digest email sent")
	}
}
