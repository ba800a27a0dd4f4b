package main

import (
	"regexp"
	"strings"
)

// personalDomains are consumer mail providers: outreach to these is
// assumed personal, never job-search.
var personalDomains = map[string]bool{
	"gmail.com":      true,
	"googlemail.com": true,
	"yahoo.com":      true,
	"hotmail.com":    true,
	"outlook.com":    true,
	"aol.com":        true,
	"icloud.com":     true,
	"me.com":         true,
	"proton.me":      true,
	"protonmail.com": true,
	"msn.com":        true,
	"live.com":       true,
	"comcast.net":    true,
}

// transactionalSubjectRes match receipts, shipping, verification codes,
// newsletters and similar machine mail.
var transactionalSubjectRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\breceipt\b`),
	regexp.MustCompile(`(?i)\border (confirm|confirmation|shipped|update)`),
	regexp.MustCompile(`(?i)\b(your order|order #\d+)\b`),
	regexp.MustCompile(`(?i)\b(shipping|shipped|tracking number|out for delivery|delivered)\b`),
	regexp.MustCompile(`(?i)\binvoice\b`),
	regexp.MustCompile(`(?i)\bpayment (received|confirmation|due)\b`),
	regexp.MustCompile(`(?i)\bverif(y|ication) code\b`),
	regexp.MustCompile(`(?i)\bone[- ]time (code|password)\b`),
	regexp.MustCompile(`(?i)\bpassword reset\b`),
	regexp.MustCompile(`(?i)\bconfirm your (email|account)\b`),
	regexp.MustCompile(`(?i)\bnewsletter\b`),
	regexp.MustCompile(`(?i)\bunsubscribe\b`),
	regexp.MustCompile(`(?i)\bsecurity alert\b`),
	regexp.MustCompile(`(?i)\byour (subscription|statement|booking|reservation)\b`),
}

// jobSignalSubjectRes are high-confidence job-search markers. The short
// tokens (EM, SWE, PM) are case-sensitive word-boundary matches so that
// ordinary words like "swede" or "them" never trip them.
var jobSignalSubjectRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\binterview\b`),
	regexp.MustCompile(`(?i)\brecruit(er|ing|ment)?\b`),
	regexp.MustCompile(`(?i)\brole\b`),
	regexp.MustCompile(`(?i)\bposition\b`),
	regexp.MustCompile(`(?i)\bopportunit(y|ies)\b`),
	regexp.MustCompile(`(?i)\bapplication\b`),
	regexp.MustCompile(`(?i)\bapplied\b`),
	regexp.MustCompile(`(?i)\bresume\b`),
	regexp.MustCompile(`(?i)\bCV\b`),
	regexp.MustCompile(`(?i)\boffer\b`),
	regexp.MustCompile(`(?i)\bhiring\b`),
	regexp.MustCompile(`(?i)\bhead ?count\b`),
	regexp.MustCompile(`(?i)\bengineer(ing)?\b`),
	regexp.MustCompile(`(?i)\bjob\b`),
	regexp.MustCompile(`(?i)\breferral\b`),
	regexp.MustCompile(`(?i)\bcoffee chat\b`),
	regexp.MustCompile(`\bEM\b`),
	regexp.MustCompile(`\bSWE\b`),
	regexp.MustCompile(`\bPM\b`),
	regexp.MustCompile(`\bTPM\b`),
	regexp.MustCompile(`\bSRE\b`),
}

// ClassifyHeader runs the deterministic rule filter. Rules evaluate in
// fixed priority order and the first match wins: cheap, high-confidence
// exclusions resolve before include signals, and anything ambiguous is
// escalated to the LLM pre-filter rather than guessed locally.
func ClassifyHeader(h ThreadHeader, ownerEmail string) FilterDecision {
	recipient := strings.ToLower(strings.TrimSpace(h.Recipient))
	owner := strings.ToLower(strings.TrimSpace(ownerEmail))

	if local, domain, ok := splitAddress(recipient); ok && owner != "" && local+"@"+domain == owner {
		return FilterDecision{Verdict: VerdictExclude, Reason: ReasonSelfSend}
	}

	if personalDomains[h.Domain()] {
		return FilterDecision{Verdict: VerdictExclude, Reason: ReasonPersonalDomain}
	}

	for _, re := range transactionalSubjectRes {
		if re.MatchString(h.Subject) {
			return FilterDecision{Verdict: VerdictExclude, Reason: ReasonTransactional}
		}
	}

	for _, re := range jobSignalSubjectRes {
		if re.MatchString(h.Subject) {
			return FilterDecision{Verdict: VerdictInclude, Reason: ReasonJobSignal}
		}
	}

	return FilterDecision{Verdict: VerdictUncertain, Reason: ReasonNeedsLLM}
}
