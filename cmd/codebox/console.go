package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"codebox/internal/box"
	"codebox/internal/driver"
)

var (
	bannerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	infoStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	warnStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
)

// console is a thin interactive frontend over the dispatcher: one session,
// direct tool invocation, and the approval prompt loop.
type console struct {
	rt        *runtime
	sessionID string
	drv       *driver.Driver
	in        *bufio.Scanner
}

func runConsole(rt *runtime) error {
	c := &console{
		rt:        rt,
		sessionID: box.NewSessionID(),
		drv:       driver.New(rt.station),
		in:        bufio.NewScanner(os.Stdin),
	}

	fmt.Println(bannerStyle.Render("codebox") + infoStyle.Render("  session "+c.sessionID))
	b, err := rt.manager.Box(c.sessionID)
	if err != nil {
		return err
	}
	if instr := b.Instruction(); instr != "" {
		fmt.Println(infoStyle.Render(instr))
	}
	fmt.Println(infoStyle.Render("Type 'help' for commands, 'exit' to quit."))

	for {
		fmt.Print(promptStyle.Render("> "))
		if !c.in.Scan() {
			return c.in.Err()
		}
		line := strings.TrimSpace(c.in.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}
		c.handle(line)
	}
}

func (c *console) handle(line string) {
	verb, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch verb {
	case "help":
		c.printHelp()
	case "pools":
		for _, p := range c.rt.pools.Pools() {
			fmt.Printf("%s -> %s\n", p.Alias, p.Root)
		}
	case "caps":
		b, err := c.rt.manager.Box(c.sessionID)
		if err != nil {
			c.fail(err)
			return
		}
		fmt.Println(b.Discovery.List())
	case "refresh":
		b, err := c.rt.manager.Box(c.sessionID)
		if err != nil {
			c.fail(err)
			return
		}
		msg, err := b.RefreshCapabilities()
		if err != nil {
			c.fail(err)
			return
		}
		fmt.Println(msg)
	case "explain":
		c.dispatch("explain_capability", map[string]any{"path": rest})
	case "search":
		c.dispatch("search_capabilities", map[string]any{"query": rest})
	case "list":
		if rest == "" {
			rest = "."
		}
		c.dispatch("list_files", map[string]any{"path": rest})
	case "tree":
		if rest == "" {
			rest = "."
		}
		c.dispatch("list_files", map[string]any{"path": rest, "recursive": true})
	case "read":
		c.dispatch("read_file", map[string]any{"path": rest})
	case "grep":
		query, path, ok := strings.Cut(rest, " ")
		if !ok {
			path = "."
		}
		c.dispatch("grep_search", map[string]any{"query": query, "path": strings.TrimSpace(path)})
	case "glob":
		pattern, path, ok := strings.Cut(rest, " ")
		if !ok {
			path = "."
		}
		c.dispatch("glob_search", map[string]any{"pattern": pattern, "path": strings.TrimSpace(path)})
	case "todo":
		if rest == "" {
			c.dispatch("todoread", nil)
			break
		}
		c.dispatch("todowrite", map[string]any{"todos": rest})
	case "run":
		c.dispatch("run_terminal_command", map[string]any{"command": rest})
	case "patch":
		fmt.Println(infoStyle.Render("Paste patch text, end with a single '.' line:"))
		c.dispatch("apply_patch", map[string]any{"patch_text": c.readBlock()})
	default:
		fmt.Println(errorStyle.Render("unknown command: " + verb + " (try 'help')"))
	}
}

// dispatch runs one tool call off the interactive thread and polls for the
// approval signal while waiting.
func (c *console) dispatch(toolName string, args map[string]any) {
	task := driver.Go(context.Background(), func(ctx context.Context) (string, error) {
		res, err := c.rt.dispatcher.Dispatch(ctx, c.sessionID, toolName, args)
		if err != nil {
			return "", err
		}
		if res.Error != nil {
			return res.Output, res.Error
		}
		return res.Output, nil
	})

	outcome := c.drv.Await(c.sessionID, task, nil)
	switch outcome {
	case driver.OutcomeApprovalPending:
		c.promptApproval()
	case driver.OutcomeDone:
		output, err := task.Result()
		if err != nil {
			c.fail(err)
			return
		}
		if output != "" {
			fmt.Println(output)
		}
		// a suspended call can complete the dispatch before the first
		// poll tick fires; the pending entry still needs resolving
		if c.rt.station.HasPending(c.sessionID) {
			c.promptApproval()
		}
	}
}

// promptApproval resolves the session's pending entry from the keyboard.
func (c *console) promptApproval() {
	p := c.rt.station.Pending(c.sessionID)
	if p == nil {
		return
	}
	fmt.Println(warnStyle.Render("Approval required: ") + p.Reason)
	fmt.Println(infoStyle.Render(fmt.Sprintf("  tool: %s  args: %v", p.ToolName, p.Args)))
	fmt.Print(promptStyle.Render("Approve? [y/N] "))

	answer := ""
	if c.in.Scan() {
		answer = strings.ToLower(strings.TrimSpace(c.in.Text()))
	}

	res, err := c.rt.dispatcher.Resolve(context.Background(), c.sessionID, answer == "y" || answer == "yes")
	if err != nil {
		c.fail(err)
		return
	}
	if res.Error != nil {
		c.fail(res.Error)
		return
	}
	if res.Output != "" {
		fmt.Println(res.Output)
	}
}

func (c *console) readBlock() string {
	var sb strings.Builder
	for c.in.Scan() {
		line := c.in.Text()
		if line == "." {
			break
		}
		sb.WriteString(line + "\n")
	}
	return sb.String()
}

func (c *console) fail(err error) {
	fmt.Println(errorStyle.Render("error: ") + err.Error())
}

func (c *console) printHelp() {
	fmt.Print(`commands:
  list [path]          flat directory listing
  tree [path]          recursive listing (depth-capped)
  read <path>          read a file window
  grep <query> [path]  literal content search
  glob <pattern> [path] filename pattern search
  todo [markdown]      show the task list, or replace it
  run <command>        execute a shell command (gated)
  patch                apply a multi-file patch (paste, end with '.')
  caps                 list capabilities
  explain <path>       show one capability manifest
  search <keywords>    search capabilities
  refresh              rescan pools
  pools                show mounted pools
  exit                 quit
`)
}
