package services

import (
	"math"
	"net/mail"
	"strings"

	"github.com/justsurfingit/jobflow/internal/models"
)

// Approach: cheap string rules pick the candidate applications, the LLM only
// breaks ties between several of them.

type emailSender struct {
	name   string
	domain string
}

func parseSender(raw string) emailSender {
	// "Stripe Recruiting <jobs@stripe.com>" -> name="stripe recruiting", addr="jobs@stripe.com"
	addr := strings.ToLower(raw)
	var s emailSender
	if parsed, err := mail.ParseAddress(raw); err == nil {
		s.name = strings.ToLower(parsed.Name)
		addr = strings.ToLower(parsed.Address)
	}
	// only the part after the '@' counts
	if at := strings.LastIndexByte(addr, '@'); at >= 0 {
		s.domain = addr[at+1:]
	}
	return s
}

// companyMentioned reports whether the subject line, the sender's display name
// or the sender's domain mentions company.
func companyMentioned(company, subject string, sender emailSender) bool {
	name := strings.ToLower(strings.TrimSpace(company))
	// short names such as "X" or "Go" would match everything
	if len(name) < 3 {
		return false
	}
	if strings.Contains(strings.ToLower(subject), name) {
		return true
	}
	if sender.name != "" && strings.Contains(sender.name, name) {
		return true
	}
	compact := strings.ReplaceAll(name, " ", "")
	return sender.domain != "" && strings.Contains(sender.domain, compact)
}

// MatchEmail returns the active applications whose company the email is from
// or about. Applications in a terminal status are ignored.
func MatchEmail(subject, rawSender string, apps []models.ApplicationWithJob) []models.ApplicationWithJob {
	sender := parseSender(rawSender)
	var out []models.ApplicationWithJob
	for _, a := range apps {
		if a.Status.Terminal() {
			continue
		}
		if companyMentioned(a.Job.Company, subject, sender) {
			out = append(out, a)
		}
	}
	return out
}

// MatchScore is the share of requirements covered by skills, as a percentage.
// A requirement is covered when it contains a skill or the skill contains it,
// compared case-insensitively. Blank requirements are ignored. It returns nil
// when there is nothing to match.
func MatchScore(skills, requirements []string) *int {
	if len(requirements) == 0 || len(skills) == 0 {
		return nil
	}
	lowered := make([]string, 0, len(skills))
	for _, s := range skills {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			lowered = append(lowered, s)
		}
	}

	covered, counted := 0, 0
	for _, r := range requirements {
		if r = strings.ToLower(strings.TrimSpace(r)); r == "" {
			continue
		}
		counted++
		for _, s := range lowered {
			if strings.Contains(r, s) || strings.Contains(s, r) {
				covered++
				break
			}
		}
	}
	if counted == 0 {
		return nil
	}
	score := int(math.Round(float64(covered) / float64(counted) * 100))
	return &score
}
