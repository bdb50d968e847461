// Package gate classifies shell commands as safe or approval-requiring.
// It is an allow-by-default, deny-by-pattern heuristic over the raw command
// string: rules are an ordered table of (predicate, reason) pairs evaluated
// in fixed priority order, short-circuiting on the first match. False
// negatives are expected and acceptable; false positives cost a confirmation
// prompt, not safety.
package gate

import (
	"regexp"
	"strings"

	"codebox/internal/logging"
)

// rule is one entry in the classifier table.
type rule struct {
	name    string
	matches func(cmd string) bool
	reason  string
}

var (
	systemDanger  = regexp.MustCompile(`\b(sudo|su|chown|chmod|chgrp|passwd|visudo|alias|unalias)\b`)
	processDanger = regexp.MustCompile(`\b(kill|pkill|xargs|nohup|disown|reboot|shutdown|init|systemctl|service)\b`)
	sensitivePath = regexp.MustCompile(`(/etc/|/var/|/root/|~/\.ssh/|~/\.bashrc|~/\.zshrc)`)

	envModifiers  = regexp.MustCompile(`\b(apt|yum|dnf|npm|pnpm|yarn|pip|docker|kubectl|git|brew|cargo)\b`)
	modifySubCmds = regexp.MustCompile(`\b(install|i|add|remove|rm|publish|push|commit|checkout|update|upgrade|stop|prune|build|config|set)\b`)

	networkTools = regexp.MustCompile(`\b(curl|wget|ssh|scp|ftp|nc|telnet|dig|nslookup|ping)\b`)
	readOnlyFlag = regexp.MustCompile(`(--help|--version|-V)`)

	recursiveRemove = regexp.MustCompile(`rm\s+-[a-z]*r[a-z]*f|rm\s+-[a-z]*f[a-z]*r`)
)

// pipeWhitelist holds tools allowed as downstream pipe stages. Only
// read-only filters qualify; sed is excluded because -i rewrites files.
var pipeWhitelist = map[string]bool{
	"grep": true, "head": true, "tail": true, "awk": true, "sort": true,
	"uniq": true, "wc": true, "jq": true, "column": true, "less": true,
	"xxd": true,
}

// rules in priority order; the first match wins.
var rules = []rule{
	{
		name: "injection",
		matches: func(cmd string) bool {
			return strings.Contains(cmd, "`") || strings.Contains(cmd, "$(") || strings.Contains(cmd, "/dev/")
		},
		reason: "potential command injection or device redirection",
	},
	{
		name: "system-privilege",
		matches: func(cmd string) bool {
			return systemDanger.MatchString(cmd) || processDanger.MatchString(cmd)
		},
		reason: "system-privilege or process-control command",
	},
	{
		name: "path-traversal",
		matches: func(cmd string) bool {
			return strings.Contains(cmd, "../") || strings.Contains(cmd, `..\`) || sensitivePath.MatchString(cmd)
		},
		reason: "path traversal or sensitive system path access",
	},
	{
		name: "env-modification",
		matches: func(cmd string) bool {
			return envModifiers.MatchString(cmd) && modifySubCmds.MatchString(cmd)
		},
		reason: "environment-modifying package or VM operation",
	},
	{
		name: "network",
		matches: func(cmd string) bool {
			return networkTools.MatchString(cmd) && !readOnlyFlag.MatchString(cmd)
		},
		reason: "outbound network or remote probe command",
	},
	{
		name:    "chaining",
		matches: unsafeChain,
		reason:  "command chaining or unsafe pipe target",
	},
	{
		name: "recursive-delete",
		matches: func(cmd string) bool {
			return recursiveRemove.MatchString(cmd) && (strings.Contains(cmd, "*") || strings.Contains(cmd, " ."))
		},
		reason: "wide recursive delete",
	},
}

// unsafeChain rejects `;` and `&` outright (one command, one audit entry)
// and allows a pipe only when every downstream stage starts with a
// whitelisted read-only tool.
func unsafeChain(cmd string) bool {
	if strings.Contains(cmd, ";") || strings.Contains(cmd, "&") {
		return true
	}
	if !strings.Contains(cmd, "|") {
		return false
	}
	stages := strings.Split(cmd, "|")
	for _, stage := range stages[1:] {
		fields := strings.Fields(stage)
		if len(fields) == 0 || !pipeWhitelist[fields[0]] {
			return true
		}
	}
	return false
}

// Gate evaluates commands. Disabled gates pass everything.
type Gate struct {
	enabled bool
}

// New creates a command gate.
func New(enabled bool) *Gate {
	return &Gate{enabled: enabled}
}

// Evaluate returns a danger reason for a command, or "" when no approval is
// needed. Plain query commands (ls, cat, pwd, echo, find) all pass.
func (g *Gate) Evaluate(command string) string {
	if !g.enabled {
		return ""
	}
	cmd := strings.TrimSpace(command)
	if cmd == "" {
		return ""
	}

	for _, r := range rules {
		if r.matches(cmd) {
			logging.Gate("flagged command (%s): %s", r.name, cmd)
			return r.reason
		}
	}
	return ""
}
