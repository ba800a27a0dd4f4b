package main

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/slack-go/slack"
)

// Digest is the composed daily summary. Skip is set when there is
// nothing actionable; a quiet day sends no mail.
type Digest struct {
	Subject string
	Body    string
	Skip    bool
}

// RunDigest builds today's triage view from the cache (no classification
// pass; stale rows simply show without a play) and sends the digest to
// the owner's own address, plus an optional Slack channel copy.
func RunDigest(ctx context.Context, deps SyncDeps, slackAPI *slack.Client) error {
	if _, err := deps.Cache.Load(); err != nil {
		return fmt.Errorf("load cache: %w", err)
	}
	owner, err := ownerEmail(ctx, deps)
	if err != nil {
		deps.Telemetry.Error("digest", err.Error())
		return err
	}
	headers, err := deps.Mail.ListSent(ctx, deps.Cfg.Lookback)
	if err != nil {
		deps.Telemetry.Error("digest", err.Error())
		return fmt.Errorf("fetch sent threads: %w", err)
	}

	// Cache + rules only. Uncertain threads are included as-is; the
	// digest never spends LLM calls on filtering.
	kept, uncertain := partitionHeaders(deps.Cache, headers, owner)
	kept = append(kept, uncertain...)
	rows := buildRows(ctx, deps, kept, owner)

	digest := ComposeDigest(rows, deps, time.Now())
	if digest.Skip {
		log.Printf("digest skipped: no action items")
		return nil
	}

	if err := deps.Mail.Send(ctx, owner, digest.Subject, digest.Body); err != nil {
		deps.Telemetry.Error("digest", err.Error())
		return err
	}
	log.Printf("digest sent subject=%q", digest.Subject)

	if slackAPI != nil && deps.Cfg.SlackChannelID != "" {
		_, _, err := slackAPI.PostMessage(deps.Cfg.SlackChannelID,
			slack.MsgOptionText(digest.Subject+"\n\n"+digest.Body, false))
		if err != nil {
			log.Printf("digest slack post error: %v", err)
		}
	}
	return nil
}

// ComposeDigest assembles the natural-language daily summary from
// triaged rows.
func ComposeDigest(rows []Row, deps SyncDeps, now time.Time) Digest {
	var replyNeeded, followUp, waiting []Row
	for _, r := range rows {
		switch r.Status.Label {
		case StatusReplyNeeded:
			replyNeeded = append(replyNeeded, r)
		case StatusFollowUp:
			followUp = append(followUp, r)
		case StatusWaiting:
			waiting = append(waiting, r)
		}
	}

	if len(replyNeeded) == 0 && len(followUp) == 0 {
		return Digest{Skip: true}
	}

	stats := tallyStats(rows)

	sevenDaysAgo := now.Add(-7 * 24 * time.Hour)
	newCount := 0
	finalStage := 0
	for _, r := range rows {
		if r.FirstSeen.After(sevenDaysAgo) {
			newCount++
		}
		for _, cat := range deps.Cfg.FinalCategories {
			if r.Category == cat {
				finalStage++
				break
			}
		}
	}

	observation := generateObservation(deps, stats, newCount, finalStage, topCompanies(rows))

	first := replyNeeded
	if len(first) == 0 {
		first = followUp
	}
	firstAction := first[0]
	firstName := capitalize(strings.SplitN(firstAction.Contact, ".", 2)[0])

	actionCount := len(replyNeeded) + len(followUp) - 1
	subject := fmt.Sprintf("Reply to %s @ %s", firstName, firstAction.Company)
	if actionCount > 0 {
		subject = fmt.Sprintf("%s — and %d more", subject, actionCount)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s,\n\n%s. %s\n\n", firstName, now.Weekday(), observation)

	for _, r := range replyNeeded {
		b.WriteString(formatDigestRow(r))
	}
	if len(followUp) > 0 {
		b.WriteString("---\n\n**Follow up this week**\n\n")
		for _, r := range followUp {
			b.WriteString(formatDigestRow(r))
		}
	}
	b.WriteString("—\n\n")

	if len(waiting) > 0 {
		names := make([]string, 0, 3)
		for _, r := range waiting {
			if len(names) == 3 {
				break
			}
			names = append(names, fmt.Sprintf("%s at %s", capitalize(strings.SplitN(r.Contact, ".", 2)[0]), r.Company))
		}
		fmt.Fprintf(&b, "%s — watching.\n\n", strings.Join(names, ", "))
	}

	fmt.Fprintf(&b, "%d sent · %d new · %d at final stage\n", stats.Total, newCount, finalStage)

	return Digest{Subject: subject, Body: b.String()}
}

func formatDigestRow(r Row) string {
	parts := strings.Split(r.Contact, ".")
	for i, p := range parts {
		parts[i] = capitalize(p)
	}
	name := strings.Join(parts, " ")
	link := "https://mail.google.com/mail/u/0/#inbox/" + r.ID
	return fmt.Sprintf("**%s, %s** · %dd\n%s\n\n%s\n\n%s\n\n", name, r.Company, r.Days, r.Play, r.Draft, link)
}

// generateObservation asks the selected provider for a one-sentence
// read on the week. Any failure degrades to a static line; the digest
// never fails over an observation.
func generateObservation(deps SyncDeps, stats SyncStats, newCount, finalStage int, companies string) string {
	const defaultObservation = "Your weekly job search snapshot."

	if !deps.Cfg.UseLLM || !deps.Gateway.Configured() {
		return defaultObservation
	}
	prompt := buildObservationPrompt(stats, newCount, finalStage, companies)
	res := deps.Gateway.Call(deps.Gateway.Select(), prompt)
	if !res.Success || strings.TrimSpace(res.Content) == "" {
		return defaultObservation
	}
	return strings.Trim(strings.TrimSpace(res.Content), `"'`)
}

func topCompanies(rows []Row) string {
	counts := make(map[string]int)
	for _, r := range rows {
		counts[r.Company]++
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	if len(names) > 3 {
		names = names[:3]
	}
	return strings.Join(names, ", ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
